// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-04
// Last Modified: 2026-03-10

// Package assign recommends an assignee for an issue by scoring every active
// team member on expertise, workload and availability.
package assign

import (
	"fmt"
	"strings"

	"github.com/similigh/simili-triage/internal/heuristics"
	"github.com/similigh/simili-triage/internal/triage"
	"github.com/similigh/simili-triage/internal/utils/text"
)

// Score weights.
const (
	ExpertiseWeight    = 0.4
	WorkloadWeight     = 0.4
	AvailabilityWeight = 0.2
)

// Expertise point budgets.
const (
	neutralExpertise = 50
	sameTypePoints   = 30
	skillPoints      = 40
	successPoints    = 30
)

// Workload penalty applied when active story points exceed the threshold.
const (
	storyPointThreshold = 40
	storyPointPenalty   = 20
)

// Workload is a member's open work in the issue's project.
type Workload struct {
	ActiveIssues int
	ActivePoints float64
}

// reasons accumulates the explanation for a score.
type reasons []string

func (r reasons) add(format string, args ...any) reasons {
	return append(r, fmt.Sprintf(format, args...))
}

// ScoreCandidate computes the explained score of member for issue.
func ScoreCandidate(member triage.TeamMemberProfile, issue triage.IssueContext, analysis triage.Analysis, workload Workload) triage.ScoreBreakdown {
	expertise, why := scoreExpertise(member.PastIssues, issue, analysis, reasons{})
	load, why := scoreWorkload(workload, why)
	availability, why := scoreAvailability(member.IsActive, why)

	score := ExpertiseWeight*expertise + WorkloadWeight*load + AvailabilityWeight*availability

	return triage.ScoreBreakdown{
		UserID:       member.UserID,
		UserName:     member.Name,
		Score:        triage.Clamp(score),
		Expertise:    expertise,
		Workload:     load,
		Availability: availability,
		Reasons:      []string(why),
	}
}

func scoreExpertise(history []triage.Issue, issue triage.IssueContext, analysis triage.Analysis, why reasons) (float64, reasons) {
	if len(history) == 0 {
		return neutralExpertise, why.add("No history: neutral expertise score of %d", neutralExpertise)
	}

	total := float64(len(history))
	score := 0.0

	sameType := 0
	done := 0
	texts := make([]string, 0, len(history))
	for _, past := range history {
		if strings.EqualFold(strings.TrimSpace(string(past.Type)), string(issue.Type)) {
			sameType++
		}
		if past.Done {
			done++
		}
		texts = append(texts, past.Summary, past.Description, strings.Join(past.Labels, " "))
	}

	typePts := sameTypePoints * float64(sameType) / total
	score += typePts
	if sameType > 0 {
		why = why.add("Worked on %d of %d past issues of type %s (+%.1f)", sameType, len(history), issue.Type, typePts)
	} else {
		why = why.add("No past issues of type %s", issue.Type)
	}

	historyText := strings.ToLower(strings.Join(texts, " "))
	if len(analysis.RequiredSkills) == 0 {
		why = why.add("No specific skills required")
	} else {
		per := skillPoints / float64(len(analysis.RequiredSkills))
		var matched []string
		for _, skill := range analysis.RequiredSkills {
			if text.ContainsAny(historyText, skillKeywords(skill)) {
				matched = append(matched, skill)
			}
		}
		if len(matched) > 0 {
			pts := per * float64(len(matched))
			score += pts
			why = why.add("Has worked with %s (+%.1f)", strings.Join(matched, ", "), pts)
		} else {
			why = why.add("No experience found with %s", strings.Join(analysis.RequiredSkills, ", "))
		}
	}

	rate := float64(done) / total
	successPts := successPoints * rate
	score += successPts
	why = why.add("Completed %d of %d past issues (+%.1f)", done, len(history), successPts)

	if score > 100 {
		score = 100
	}
	return score, why
}

// skillKeywords falls back to the skill name itself for skills outside the
// heuristic table, such as ones named by the reasoning backend.
func skillKeywords(skill string) []string {
	if kws := heuristics.SkillKeywords(skill); kws != nil {
		return kws
	}
	return []string{skill}
}

func scoreWorkload(w Workload, why reasons) (float64, reasons) {
	var score float64
	switch n := w.ActiveIssues; {
	case n <= 0:
		score = 100
		why = why.add("No active issues in this project")
	case n <= 3:
		score = 80
		why = why.add("Light workload: %d active issues", n)
	case n <= 6:
		score = 60
		why = why.add("Moderate workload: %d active issues", n)
	case n <= 10:
		score = 30
		why = why.add("Heavy workload: %d active issues", n)
	default:
		score = 10
		why = why.add("Overloaded: %d active issues", n)
	}

	if w.ActivePoints > storyPointThreshold {
		score -= storyPointPenalty
		if score < 0 {
			score = 0
		}
		why = why.add("%.0f active story points exceeds %d (-%d)", w.ActivePoints, storyPointThreshold, storyPointPenalty)
	}
	return score, why
}

func scoreAvailability(active bool, why reasons) (float64, reasons) {
	if !active {
		return 0, why.add("Member is inactive")
	}
	return 100, why.add("Member is active")
}
