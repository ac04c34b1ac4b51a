package github

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-github/v60/github"

	"github.com/similigh/simili-triage/internal/triage"
)

// Label prefixes that carry structured issue fields.
const (
	typeLabelPrefix     = "type:"
	priorityLabelPrefix = "priority:"
	pointsLabelPrefix   = "points:"
)

// Store exposes GitHub issues as a triage.IssueStore and a repository's
// assignable users as a triage.TeamMemberStore.
//
// Issue ids have the form "org/repo#123"; project ids are "org/repo".
type Store struct {
	client *Client
	owner  string // narrows cross-project history searches when set
}

// NewStore creates a Store. owner may be empty.
func NewStore(client *Client, owner string) *Store {
	return &Store{client: client, owner: owner}
}

// ParseIssueID splits "org/repo#123" into its parts.
func ParseIssueID(id string) (org, repo string, number int, err error) {
	project, num, ok := strings.Cut(id, "#")
	if !ok {
		return "", "", 0, triage.NewValidationError("invalid issue id %q (expected org/repo#number)", id)
	}
	org, repo, err = ParseProjectID(project)
	if err != nil {
		return "", "", 0, err
	}
	number, convErr := strconv.Atoi(num)
	if convErr != nil || number <= 0 {
		return "", "", 0, triage.NewValidationError("invalid issue number in %q", id)
	}
	return org, repo, number, nil
}

// ParseProjectID splits "org/repo" into its parts.
func ParseProjectID(project string) (org, repo string, err error) {
	parts := strings.Split(project, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", triage.NewValidationError("invalid project id %q (expected org/repo)", project)
	}
	return parts[0], parts[1], nil
}

// Get implements triage.IssueStore.
func (s *Store) Get(ctx context.Context, id string) (*triage.Issue, error) {
	org, repo, number, err := ParseIssueID(id)
	if err != nil {
		return nil, err
	}

	gi, err := s.client.GetIssue(ctx, org, repo, number)
	if err != nil {
		if isNotFound(err) {
			return nil, triage.NewNotFoundError("issue", id)
		}
		return nil, err
	}
	if gi.IsPullRequest() {
		return nil, triage.NewNotFoundError("issue", id)
	}

	issue := toIssue(org+"/"+repo, gi)
	return &issue, nil
}

// FindByAssignee implements triage.IssueStore. An empty projectID uses the
// search API across repositories.
func (s *Store) FindByAssignee(ctx context.Context, userID, projectID string) ([]triage.Issue, error) {
	var (
		raw []*github.Issue
		err error
	)
	if projectID == "" {
		raw, err = s.client.SearchAssignedIssues(ctx, s.owner, userID)
	} else {
		org, repo, perr := ParseProjectID(projectID)
		if perr != nil {
			return nil, perr
		}
		raw, err = s.client.ListAssignedIssues(ctx, org, repo, userID)
	}
	if err != nil {
		return nil, err
	}

	out := make([]triage.Issue, 0, len(raw))
	for _, gi := range raw {
		if gi.IsPullRequest() {
			continue
		}
		project := projectID
		if project == "" {
			project = projectFromRepositoryURL(gi.GetRepositoryURL())
		}
		out = append(out, toIssue(project, gi))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Save implements triage.IssueStore. Labels and assignee are written in a
// single edit request.
func (s *Store) Save(ctx context.Context, issue *triage.Issue) error {
	if issue == nil {
		return triage.NewValidationError("issue is required")
	}
	org, repo, number, err := ParseIssueID(issue.ID)
	if err != nil {
		return err
	}

	labels := append([]string{}, issue.Labels...)
	assignees := []string{}
	if issue.AssigneeID != "" {
		assignees = append(assignees, issue.AssigneeID)
	}

	if err := s.client.EditIssue(ctx, org, repo, number, labels, assignees); err != nil {
		if isNotFound(err) {
			return triage.NewNotFoundError("issue", issue.ID)
		}
		return err
	}
	return nil
}

// ListActiveMembers implements triage.TeamMemberStore. Every assignable user
// of the repository is reported as active.
func (s *Store) ListActiveMembers(ctx context.Context, projectID string) ([]triage.TeamMember, error) {
	org, repo, err := ParseProjectID(projectID)
	if err != nil {
		return nil, err
	}

	users, err := s.client.ListAssignees(ctx, org, repo)
	if err != nil {
		return nil, err
	}

	members := make([]triage.TeamMember, 0, len(users))
	for _, u := range users {
		login := u.GetLogin()
		if login == "" {
			continue
		}
		name := u.GetName()
		if name == "" {
			name = login
		}
		members = append(members, triage.TeamMember{UserID: login, Name: name, IsActive: true})
	}
	return members, nil
}

// toIssue converts a GitHub issue. Structured fields come from prefixed labels.
func toIssue(project string, gi *github.Issue) triage.Issue {
	issue := triage.Issue{
		ID:          fmt.Sprintf("%s#%d", project, gi.GetNumber()),
		Key:         fmt.Sprintf("#%d", gi.GetNumber()),
		ProjectID:   project,
		Type:        triage.TypeTask,
		Summary:     gi.GetTitle(),
		Description: gi.GetBody(),
		Priority:    triage.PriorityMedium,
		Labels:      []string{},
		Status:      gi.GetState(),
		Done:        gi.GetState() == "closed",
		UpdatedAt:   gi.GetUpdatedAt().Time,
	}
	if gi.Assignee != nil {
		issue.AssigneeID = gi.Assignee.GetLogin()
	}

	typed := false
	for _, l := range gi.Labels {
		name := l.GetName()
		if name == "" {
			continue
		}
		issue.Labels = append(issue.Labels, name)

		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, typeLabelPrefix):
			if t, ok := parseIssueType(strings.TrimPrefix(lower, typeLabelPrefix)); ok {
				issue.Type, typed = t, true
			}
		case strings.HasPrefix(lower, priorityLabelPrefix):
			if p, ok := parsePriority(strings.TrimPrefix(lower, priorityLabelPrefix)); ok {
				issue.Priority = p
			}
		case strings.HasPrefix(lower, pointsLabelPrefix):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(lower, pointsLabelPrefix), 64); err == nil && v > 0 {
				issue.StoryPoints = v
			}
		case !typed:
			if t, ok := conventionalType(lower); ok {
				issue.Type = t
			}
		}
	}
	return issue
}

func parseIssueType(s string) (triage.IssueType, bool) {
	switch t := triage.IssueType(strings.TrimSpace(s)); t {
	case triage.TypeEpic, triage.TypeStory, triage.TypeTask, triage.TypeBug, triage.TypeSubtask:
		return t, true
	}
	return "", false
}

func parsePriority(s string) (triage.Priority, bool) {
	switch p := triage.Priority(strings.TrimSpace(s)); p {
	case triage.PriorityHighest, triage.PriorityHigh, triage.PriorityMedium, triage.PriorityLow, triage.PriorityLowest:
		return p, true
	}
	return "", false
}

// conventionalType maps GitHub's default labels onto issue types.
func conventionalType(label string) (triage.IssueType, bool) {
	switch label {
	case "bug":
		return triage.TypeBug, true
	case "enhancement", "feature":
		return triage.TypeStory, true
	case "epic":
		return triage.TypeEpic, true
	}
	return "", false
}

// projectFromRepositoryURL turns "https://api.github.com/repos/org/repo" into "org/repo".
func projectFromRepositoryURL(u string) string {
	_, rest, ok := strings.Cut(u, "/repos/")
	if !ok {
		return ""
	}
	return strings.TrimSuffix(rest, "/")
}

// Comment posts body on the issue. It satisfies pipeline.Commenter.
func (s *Store) Comment(ctx context.Context, issueID, body string) error {
	org, repo, number, err := ParseIssueID(issueID)
	if err != nil {
		return err
	}
	return s.client.CreateComment(ctx, org, repo, number, body)
}
