package matching

import (
	"math"

	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/utils"
)

const scorePlaces = 3

// Signals are the individual components behind a composite score. Semantic is
// zero for the heuristic strategy.
type Signals struct {
	Explicit   float64 `json:"explicit_overlap"`
	Extracted  float64 `json:"extracted_overlap"`
	Semantic   float64 `json:"semantic,omitempty"`
	Experience float64 `json:"experience_match"`
}

// ScoredJob is a posting with its composite score. It is built fresh for every
// matching call and never persisted.
type ScoredJob struct {
	*jobs.Posting

	Score            float64  `json:"score"`
	MatchPercentage  int      `json:"match_percentage"`
	CosineSimilarity *float64 `json:"cosine_similarity,omitempty"`
	Signals          Signals  `json:"signals"`
}

func newScoredJob(p *jobs.Posting, composite float64, signals Signals) ScoredJob {
	score := finalScore(composite)
	return ScoredJob{
		Posting:         p,
		Score:           score,
		MatchPercentage: int(math.Round(score * 100)),
		Signals:         signals,
	}
}

// finalScore clamps to [0,1] and rounds for presentation.
func finalScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		v = 1
	}
	return utils.Round(v, scorePlaces)
}
