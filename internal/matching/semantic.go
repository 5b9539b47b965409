package matching

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/experience"
	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/index"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/skills"
	"github.com/spigell/jobmatch/internal/utils"
)

// Semantic gates the pool on extracted skills, retrieves the nearest postings
// by embedding and blends similarity with skill overlap and seniority.
type Semantic struct {
	extractor  *skills.Extractor
	encoder    embedding.Encoder
	retrievalK int
	minSkills  int
	workers    int
	gatedFile  string
	logger     *zap.Logger
}

func NewSemantic(cfg *StrategyConfig, deps *StrategyDeps) *Semantic {
	retrievalK := cfg.RetrievalK
	if retrievalK <= 0 {
		retrievalK = DefaultRetrievalK
	}
	minSkills := cfg.MinExtractedSkills
	if minSkills <= 0 {
		minSkills = filtering.DefaultMinSkills
	}

	return &Semantic{
		extractor:  deps.Extractor,
		encoder:    deps.Encoder,
		retrievalK: retrievalK,
		minSkills:  minSkills,
		workers:    cfg.Workers,
		gatedFile:  cfg.GatedExcludeFile,
		logger:     logger.WithStrategy(deps.Logger, StrategySemantic),
	}
}

func (s *Semantic) Name() string { return StrategySemantic }

func (s *Semantic) Rank(ctx context.Context, user *profile.Profile, postings *jobs.Postings) ([]ScoredJob, error) {
	gate := filtering.New([]filtering.Filter{
		filtering.NewSkillGate(
			&filtering.SkillGateConfig{
				Enabled:     true,
				MinSkills:   s.minSkills,
				Workers:     s.workers,
				ExcludeFile: s.gatedFile,
			},
			&filtering.SkillGateDeps{Extractor: s.extractor, Logger: s.logger},
		),
	}, s.logger)
	s.logger.Debug("candidate gate", zap.Any("filters", gate.Describe()))

	candidates, err := gate.RunFilters(ctx, postings)
	if err != nil {
		return nil, err
	}
	if candidates.Len() == 0 {
		return []ScoredJob{}, nil
	}

	texts := make([]string, candidates.Len())
	for i, p := range candidates.Items {
		texts[i] = embeddingText(p)
	}

	jobVectors, err := s.encoder.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode postings: %w", err)
	}

	userText := user.Text()
	userVectors, err := s.encoder.Encode(ctx, []string{userText})
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	idx, err := index.Build(jobVectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	hits := idx.Search(userVectors[0], s.retrievalK)

	userExtracted := s.extractor.ExtractSet(userText)
	userLevel := experience.InferLevel(userText)

	results := make([]ScoredJob, len(hits))
	err = forEach(ctx, s.workers, len(hits), func(i int) {
		hit := hits[i]
		p := candidates.Items[hit.Index]
		text := p.Text()

		cosine := hit.Score
		signals := Signals{
			Semantic:   cosine,
			Extracted:  Overlap(userExtracted, s.extractor.ExtractSet(text)),
			Experience: experience.Match(userLevel, experience.InferLevel(text)),
		}
		scored := newScoredJob(p, SemanticScore(signals.Semantic, signals.Extracted, signals.Experience), signals)
		rounded := utils.Round(cosine, scorePlaces)
		scored.CosineSimilarity = &rounded
		results[i] = scored
	})
	if err != nil {
		return nil, err
	}

	sortByScore(results)

	s.logger.Debug("postings scored",
		zap.Int("candidates", candidates.Len()),
		zap.Int("retrieved", len(hits)),
		zap.Int("user_extracted_skills", len(userExtracted)),
	)

	return results, nil
}

// embeddingText is "<title> <description> Skills: a, b".
func embeddingText(p *jobs.Posting) string {
	return p.Title + " " + p.Text() + " Skills: " + strings.Join(p.Skills, ", ")
}
