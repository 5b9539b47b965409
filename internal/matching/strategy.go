package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/embedding"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/skills"
)

const (
	StrategyHeuristic = "heuristic"
	StrategySemantic  = "semantic"

	DefaultStrategy   = StrategySemantic
	DefaultRetrievalK = 20
)

// Strategy scores a job pool for one profile and returns candidates sorted by
// local score, best first.
type Strategy interface {
	Name() string
	Rank(ctx context.Context, user *profile.Profile, postings *jobs.Postings) ([]ScoredJob, error)
}

type StrategyConfig struct {
	Workers            int
	RetrievalK         int
	MinExtractedSkills int
	// GatedExcludeFile, when set, receives the postings the skill gate drops
	// so later runs filter them out up front.
	GatedExcludeFile   string
}

type StrategyDeps struct {
	Extractor *skills.Extractor
	Encoder   embedding.Encoder
	Logger    *zap.Logger
}

// NewStrategy builds the strategy registered under name. An empty name selects
// DefaultStrategy.
func NewStrategy(name string, cfg *StrategyConfig, deps *StrategyDeps) (Strategy, error) {
	if cfg == nil {
		cfg = &StrategyConfig{}
	}
	if deps == nil || deps.Extractor == nil {
		return nil, errors.New("skill extractor is required")
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyHeuristic:
		return NewHeuristic(cfg, deps), nil
	case "", StrategySemantic:
		if deps.Encoder == nil {
			return nil, errors.New("semantic strategy requires an embedding encoder")
		}
		return NewSemantic(cfg, deps), nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q", name)
	}
}
