package tailoring

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/profile"
)

//go:embed summary_prompt.md
var summaryPrompt string

//go:embed bullet_prompt.md
var bulletPrompt string

const (
	topSkills      = 10
	maxJobTextRune = 4000
)

type Resume struct {
	JobTitle   string    `json:"job_title"`
	Company    string    `json:"company"`
	Summary    string    `json:"tailored_summary"`
	Skills     []string  `json:"tailored_skills"`
	Experience []Section `json:"tailored_experience"`
	Projects   []Section `json:"tailored_projects"`
}

// Section is a work entry or a project with rewritten bullets. Role and
// Company are set for work, Name for projects.
type Section struct {
	Role    string   `json:"role,omitempty"`
	Company string   `json:"company,omitempty"`
	Name    string   `json:"name,omitempty"`
	Bullets []string `json:"bullets"`
}

type Tailor struct {
	generator ai.Generator
	encoder   embedding.Encoder
	workers   int
	logger    *zap.Logger
}

func New(generator ai.Generator, encoder embedding.Encoder, workers int, l *zap.Logger) *Tailor {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Tailor{
		generator: generator,
		encoder:   encoder,
		workers:   workers,
		logger:    logger.WithCommonFields(l, "", generator.Model()),
	}
}

// Tailor builds a resume aimed at job. The summary must succeed; a bullet that
// cannot be rewritten keeps its original text.
func (t *Tailor) Tailor(ctx context.Context, p *profile.Profile, job *jobs.Posting) (*Resume, error) {
	if p == nil {
		return nil, profile.ErrNoProfile
	}
	if job == nil {
		return nil, errors.New("job posting is required")
	}

	keywords := ExtractJobKeywords(job)
	jobText := truncate(keywords.Text, maxJobTextRune)

	summary, err := t.generator.GenerateContent(ctx, render(summaryPrompt, map[string]string{
		"NAME":      p.PersonalInfo.Name,
		"JOB_TITLE": job.Title,
		"SKILLS":    strings.Join(p.Skills, ", "),
		"JOB_TEXT":  jobText,
	}))
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	resume := &Resume{
		JobTitle:   job.Title,
		Company:    job.Company,
		Summary:    clean(summary),
		Experience: make([]Section, len(p.Work)),
		Projects:   make([]Section, len(p.Projects)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i, w := range p.Work {
		resume.Experience[i] = Section{Role: w.Title, Company: w.Company, Bullets: make([]string, len(w.Desc))}
		for j, bullet := range w.Desc {
			g.Go(func() error {
				resume.Experience[i].Bullets[j] = t.rewrite(gctx, bullet, keywords.Verbs, jobText)
				return nil
			})
		}
	}

	for i, project := range p.Projects {
		resume.Projects[i] = Section{Name: project.Title, Bullets: make([]string, len(project.Desc))}
		for j, bullet := range project.Desc {
			g.Go(func() error {
				resume.Projects[i].Bullets[j] = t.rewrite(gctx, bullet, keywords.Verbs, jobText)
				return nil
			})
		}
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resume.Skills, err = t.rankSkills(ctx, p.Skills, keywords.Text)
	if err != nil {
		return nil, fmt.Errorf("rank skills: %w", err)
	}

	return resume, nil
}

func (t *Tailor) rewrite(ctx context.Context, bullet string, verbs []string, jobText string) string {
	if strings.TrimSpace(bullet) == "" {
		return ""
	}

	out, err := t.generator.GenerateContent(ctx, render(bulletPrompt, map[string]string{
		"JOB_TEXT": jobText,
		"VERBS":    strings.Join(verbs, ", "),
		"BULLET":   bullet,
	}))
	if err != nil {
		t.logger.Warn("bullet rewrite failed, keeping original", zap.Error(err))
		return bullet
	}

	if cleaned := clean(out); cleaned != "" {
		return cleaned
	}
	return bullet
}

// rankSkills orders skills by embedding similarity to the job text and keeps
// the best topSkills.
func (t *Tailor) rankSkills(ctx context.Context, skills []string, jobText string) ([]string, error) {
	if len(skills) == 0 {
		return []string{}, nil
	}

	vectors, err := t.encoder.Encode(ctx, append(append([]string{}, skills...), jobText))
	if err != nil {
		return nil, err
	}

	jobVec := vectors[len(skills)]
	type scored struct {
		skill string
		score float64
	}

	ranked := make([]scored, len(skills))
	for i, s := range skills {
		ranked[i] = scored{skill: s, score: embedding.Dot(vectors[i], jobVec)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := len(ranked)
	if n > topSkills {
		n = topSkills
	}

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].skill
	}
	return out, nil
}

func render(template string, values map[string]string) string {
	for key, value := range values {
		template = strings.ReplaceAll(template, "{{"+key+"}}", value)
	}
	return template
}

// clean collapses whitespace and strips wrapping quotes the model tends to
// echo back.
func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, `"`)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
