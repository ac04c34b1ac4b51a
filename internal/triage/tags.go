package triage

// MergeBoost is the confidence added to an existing suggestion when another
// source suggests the same tag.
const MergeBoost = 10

// MergeTag merges s into list. When list already holds s.Tag, that entry's
// confidence grows by MergeBoost (capped at 100) and s's reason is appended;
// otherwise s is appended with its confidence clamped. The input slice is not
// modified.
func MergeTag(list []TagSuggestion, s TagSuggestion) []TagSuggestion {
	out := make([]TagSuggestion, len(list), len(list)+1)
	copy(out, list)

	for i := range out {
		if out[i].Tag != s.Tag {
			continue
		}
		out[i].Confidence = Clamp(out[i].Confidence + MergeBoost)
		switch {
		case out[i].Reason == "":
			out[i].Reason = s.Reason
		case s.Reason != "":
			out[i].Reason = out[i].Reason + "; " + s.Reason
		}
		return out
	}

	s.Confidence = Clamp(s.Confidence)
	return append(out, s)
}
