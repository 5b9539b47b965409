package matching

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
)

type rerankResult struct {
	ids []string
	err error
}

// rerank reorders the head of ranked with the external reranker. Any failure
// leaves ranked untouched.
func (e *Engine) rerank(ctx context.Context, query string, ranked []ScoredJob) []ScoredJob {
	window := len(ranked)
	if window > e.rerankWindow {
		window = e.rerankWindow
	}

	docs := make([]ai.Document, window)
	for i := 0; i < window; i++ {
		docs[i] = ai.Document{
			ID:   strconv.Itoa(i),
			Text: ranked[i].Title + " " + ranked[i].Text(),
		}
	}

	rctx, cancel := context.WithTimeout(ctx, e.rerankTimeout)
	defer cancel()

	// The reranker runs detached so a client that ignores ctx cannot hold the
	// match past the deadline.
	done := make(chan rerankResult, 1)
	go func() {
		ids, err := e.reranker.Rerank(rctx, query, docs, window)
		done <- rerankResult{ids: ids, err: err}
	}()

	var res rerankResult
	select {
	case res = <-done:
	case <-rctx.Done():
		res.err = rctx.Err()
	}

	if res.err != nil {
		e.logger.Warn("rerank failed, keeping local order", zap.Error(res.err))
		return ranked
	}

	order, err := applyRanking(window, res.ids)
	if err != nil {
		e.logger.Warn("rerank response rejected, keeping local order", zap.Error(err))
		return ranked
	}

	out := make([]ScoredJob, 0, len(ranked))
	for _, pos := range order {
		out = append(out, ranked[pos])
	}
	out = append(out, ranked[window:]...)

	e.logger.Debug("rerank applied", zap.Int("candidates", window), zap.Int("ranked_by_reranker", len(res.ids)))

	return out
}

// applyRanking turns reranker ids into a permutation of [0, n). Ids the
// reranker did not mention follow in their original order. Unknown or
// repeated ids invalidate the whole response.
func applyRanking(n int, ids []string) ([]int, error) {
	seen := make([]bool, n)
	order := make([]int, 0, n)

	for _, id := range ids {
		pos, err := strconv.Atoi(id)
		if err != nil || pos < 0 || pos >= n {
			return nil, fmt.Errorf("reranker returned unknown candidate %q", id)
		}
		if seen[pos] {
			return nil, fmt.Errorf("reranker returned candidate %q twice", id)
		}
		seen[pos] = true
		order = append(order, pos)
	}

	for pos := 0; pos < n; pos++ {
		if !seen[pos] {
			order = append(order, pos)
		}
	}

	return order, nil
}
