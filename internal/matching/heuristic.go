package matching

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/experience"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/skills"
)

// Heuristic scores every posting from skill overlap and seniority only.
type Heuristic struct {
	extractor *skills.Extractor
	workers   int
	logger    *zap.Logger
}

func NewHeuristic(cfg *StrategyConfig, deps *StrategyDeps) *Heuristic {
	return &Heuristic{
		extractor: deps.Extractor,
		workers:   cfg.Workers,
		logger:    logger.WithStrategy(deps.Logger, StrategyHeuristic),
	}
}

func (h *Heuristic) Name() string { return StrategyHeuristic }

func (h *Heuristic) Rank(ctx context.Context, user *profile.Profile, postings *jobs.Postings) ([]ScoredJob, error) {
	if postings.Len() == 0 {
		return []ScoredJob{}, nil
	}

	userText := user.Text()
	userSkills := user.SkillSet()
	userExtracted := h.extractor.ExtractSet(userText)
	userLevel := experience.InferLevel(userText)

	results := make([]ScoredJob, postings.Len())
	err := forEach(ctx, h.workers, postings.Len(), func(i int) {
		p := postings.Items[i]
		text := p.Text()

		signals := Signals{
			Explicit:   Overlap(userSkills, p.SkillSet()),
			Extracted:  Overlap(userExtracted, h.extractor.ExtractSet(text)),
			Experience: experience.Match(userLevel, experience.InferLevel(text)),
		}
		results[i] = newScoredJob(p, HeuristicScore(signals.Explicit, signals.Extracted, signals.Experience), signals)
	})
	if err != nil {
		return nil, err
	}

	sortByScore(results)

	h.logger.Debug("postings scored",
		zap.Int("postings", len(results)),
		zap.Int("user_extracted_skills", len(userExtracted)),
		zap.Float64("user_level", userLevel),
	)

	return results, nil
}
