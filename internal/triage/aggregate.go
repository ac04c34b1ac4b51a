package triage

import "sort"

// DefaultMaxAlternatives is the number of runner-up candidates kept in a result.
const DefaultMaxAlternatives = 3

// Aggregate ranks scored candidates by score, descending. Ties keep their input
// order. The top candidate becomes the recommendation and up to maxAlternatives
// of the following candidates are returned as alternatives; the recommended
// entry never appears among them. An empty input yields a nil recommendation.
func Aggregate(candidates []ScoreBreakdown, maxAlternatives int) (*Recommendation, []ScoreBreakdown) {
	if maxAlternatives < 0 {
		maxAlternatives = 0
	}

	ranked := make([]ScoreBreakdown, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) == 0 {
		return nil, []ScoreBreakdown{}
	}

	top := ranked[0]
	reasons := make([]string, len(top.Reasons))
	copy(reasons, top.Reasons)
	rec := &Recommendation{
		UserID:   top.UserID,
		UserName: top.UserName,
		Score:    top.Score,
		Reasons:  reasons,
	}

	rest := ranked[1:]
	if len(rest) > maxAlternatives {
		rest = rest[:maxAlternatives]
	}
	alternatives := make([]ScoreBreakdown, len(rest))
	copy(alternatives, rest)

	return rec, alternatives
}

// RankTags keeps suggestions whose confidence is at least minConfidence and
// orders them by confidence, descending, keeping input order on ties.
func RankTags(tags []TagSuggestion, minConfidence float64) []TagSuggestion {
	filtered := make([]TagSuggestion, 0, len(tags))
	for _, t := range tags {
		if t.Confidence >= minConfidence {
			filtered = append(filtered, t)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Confidence > filtered[j].Confidence
	})
	return filtered
}
