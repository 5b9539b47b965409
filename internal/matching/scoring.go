package matching

import "sort"

// Heuristic weights: declared skills dominate, extracted skills and seniority
// refine.
const (
	HeuristicExplicitWeight   = 0.7
	HeuristicExtractedWeight  = 0.2
	HeuristicExperienceWeight = 0.1
)

// Semantic weights.
const (
	SemanticCosineWeight     = 0.6
	SemanticSkillWeight      = 0.25
	SemanticExperienceWeight = 0.15
)

// Overlap is |have ∩ want| / |want|, or 0 when want is empty.
func Overlap(have, want map[string]struct{}) float64 {
	if len(want) == 0 {
		return 0
	}
	matched := 0
	for skill := range want {
		if _, ok := have[skill]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(want))
}

func HeuristicScore(explicit, extracted, experience float64) float64 {
	return HeuristicExplicitWeight*explicit +
		HeuristicExtractedWeight*extracted +
		HeuristicExperienceWeight*experience
}

func SemanticScore(cosine, skill, experience float64) float64 {
	return SemanticCosineWeight*cosine +
		SemanticSkillWeight*skill +
		SemanticExperienceWeight*experience
}

// sortByScore orders by descending rounded score. Equal scores keep their
// current relative order.
func sortByScore(results []ScoredJob) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
