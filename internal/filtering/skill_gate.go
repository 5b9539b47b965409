package filtering

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/skills"
)

const (
	SkillGateName = "skill_gate"

	DefaultMinSkills = 2

	notTechnicalReason = "too few recognisable skills"
)

type skillGateFilter struct {
	enabled bool
	reason  string
	config  *SkillGateConfig
	deps    *SkillGateDeps
}

type SkillGateConfig struct {
	Enabled   bool
	MinSkills int
	Workers   int
	// ExcludeFile, when set, records dropped postings with the matcher actor.
	ExcludeFile string
}

type SkillGateDeps struct {
	Extractor *skills.Extractor
	Logger    *zap.Logger
}

// NewSkillGate creates the step that keeps only postings mentioning at least
// MinSkills recognised skills in their title and description (or preview). The extracted
// set is stored on each kept posting.
func NewSkillGate(cfg *SkillGateConfig, deps *SkillGateDeps) Filter {
	if cfg == nil {
		cfg = &SkillGateConfig{Enabled: true}
	}
	if cfg.MinSkills <= 0 {
		cfg.MinSkills = DefaultMinSkills
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &skillGateFilter{
		enabled: cfg.Enabled,
		config:  cfg,
		deps:    deps,
	}
}

func (f *skillGateFilter) Name() string { return SkillGateName }

func (f *skillGateFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *skillGateFilter) IsEnabled() bool { return f.enabled }

func (f *skillGateFilter) Validate() error {
	if f.deps == nil || f.deps.Extractor == nil {
		return errors.New("skill extractor is not initialized: filter is not usable")
	}
	return nil
}

func (f *skillGateFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{
			"min_skills": fmt.Sprint(f.config.MinSkills),
			"workers":    fmt.Sprint(f.config.Workers),
			"record_to":  f.config.ExcludeFile,
		},
	}
}

func (f *skillGateFilter) Apply(ctx context.Context, p *jobs.Postings) (*jobs.Postings, Step, error) {
	initial := p.Len()
	log := logger.OrNop(f.deps.Logger)

	extracted := make([][]string, initial)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.Workers)

	for i, posting := range p.Items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			extracted[i] = f.deps.Extractor.Extract(posting.Title + " " + posting.Text())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return p, Step{}, fmt.Errorf("extracting skills: %w", err)
	}

	kept := make([]*jobs.Posting, 0, initial)
	dropped := &jobs.Postings{}
	for i, posting := range p.Items {
		if len(extracted[i]) < f.config.MinSkills {
			log.Debug("posting dropped by skill gate",
				zap.String("posting_id", posting.ID),
				zap.Int("skills", len(extracted[i])),
			)
			dropped.Items = append(dropped.Items, posting)
			continue
		}
		posting.Extracted = extracted[i]
		kept = append(kept, posting)
	}
	p.Items = kept

	if err := f.appendToExcludeFile(dropped); err != nil {
		log.Warn("failed to append postings to exclude file", zap.Error(err))
	}

	left := p.Len()
	return p, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *skillGateFilter) appendToExcludeFile(dropped *jobs.Postings) error {
	path := strings.TrimSpace(f.config.ExcludeFile)
	if path == "" || dropped.Len() == 0 {
		return nil
	}

	excluded, err := jobs.GetExcludedFromFile(path)
	if err != nil {
		return fmt.Errorf("load excluded postings: %w", err)
	}

	excluded.Append(dropped.ToExcluded(jobs.ExcludeActorMatcher, notTechnicalReason))

	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("write excluded postings: %w", err)
	}

	return nil
}
