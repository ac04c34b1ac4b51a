package triage

import "strings"

// ExtractContext reads an issue into a normalized, immutable context value.
// Type and priority are lower-cased, text fields trimmed, and labels trimmed
// and de-duplicated in their original order. The returned value shares no
// memory with issue.
func ExtractContext(issue *Issue) IssueContext {
	labels := make([]string, 0, len(issue.Labels))
	seen := make(map[string]bool, len(issue.Labels))
	for _, l := range issue.Labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}

	return IssueContext{
		ID:          issue.ID,
		Type:        IssueType(strings.ToLower(strings.TrimSpace(string(issue.Type)))),
		Summary:     strings.TrimSpace(issue.Summary),
		Description: strings.TrimSpace(issue.Description),
		Priority:    Priority(strings.ToLower(strings.TrimSpace(string(issue.Priority)))),
		Labels:      labels,
		ProjectID:   strings.TrimSpace(issue.ProjectID),
	}
}
