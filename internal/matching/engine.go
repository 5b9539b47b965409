// Package matching ranks a job pool against a candidate profile.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/profile"
)

const (
	DefaultTopK          = 10
	DefaultRerankTimeout = 20 * time.Second
	DefaultRerankWindow  = 20
)

type Config struct {
	TopK          int
	RerankEnabled bool
	RerankTimeout time.Duration
	// RerankWindow caps how many of the best local candidates are sent to the
	// reranker. The rest keep their local order behind them.
	RerankWindow int
}

type Deps struct {
	Strategy Strategy
	Reranker ai.Reranker
	// Filters run on the pool before the strategy sees it. Optional.
	Filters *filtering.Filtering
	Logger  *zap.Logger
}

// Engine runs one matching call: pool filters, strategy, optional rerank and
// truncation. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	strategy Strategy
	reranker ai.Reranker
	filters  *filtering.Filtering
	logger   *zap.Logger

	topK          int
	rerankEnabled bool
	rerankTimeout time.Duration
	rerankWindow  int
}

func NewEngine(cfg *Config, deps *Deps) (*Engine, error) {
	if deps == nil || deps.Strategy == nil {
		return nil, errors.New("matching strategy is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	e := &Engine{
		strategy:      deps.Strategy,
		reranker:      deps.Reranker,
		filters:       deps.Filters,
		logger:        logger.WithStrategy(deps.Logger, deps.Strategy.Name()),
		topK:          cfg.TopK,
		rerankEnabled: cfg.RerankEnabled && deps.Reranker != nil,
		rerankTimeout: cfg.RerankTimeout,
		rerankWindow:  cfg.RerankWindow,
	}
	if e.topK <= 0 {
		e.topK = DefaultTopK
	}
	if e.rerankTimeout <= 0 {
		e.rerankTimeout = DefaultRerankTimeout
	}
	if e.rerankWindow <= 0 {
		e.rerankWindow = DefaultRerankWindow
	}

	return e, nil
}

func (e *Engine) Strategy() string {
	return e.strategy.Name()
}

// Match returns at most topK scored postings for user, best first. topK <= 0
// uses the configured default. A nil profile is the only input error; an
// empty or fully filtered pool yields an empty list. The caller's postings are
// never modified.
func (e *Engine) Match(ctx context.Context, user *profile.Profile, postings *jobs.Postings, topK int) ([]ScoredJob, error) {
	if user == nil {
		return nil, profile.ErrNoProfile
	}
	if topK <= 0 {
		topK = e.topK
	}

	pool := postings.Clone()
	if e.filters != nil && pool.Len() > 0 {
		filtered, err := e.filters.RunFilters(ctx, pool)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			e.logger.Warn("pool filters failed, matching against the unfiltered pool", zap.Error(err))
			pool = postings.Clone()
		default:
			pool = filtered
		}
	}

	if pool.Len() == 0 {
		e.logger.Info("empty job pool")
		return []ScoredJob{}, nil
	}

	ranked, err := e.strategy.Rank(ctx, user, pool)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s strategy: %w", e.strategy.Name(), err)
	}

	if e.rerankEnabled && len(ranked) > 1 {
		ranked = e.rerank(ctx, user.Text(), ranked)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	e.logger.Info("matching completed",
		zap.Int("pool", pool.Len()),
		zap.Int("returned", len(ranked)),
	)

	return ranked, nil
}
