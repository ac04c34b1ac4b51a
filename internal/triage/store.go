package triage

import "context"

// IssueStore is read/write access to issues. Implementations return a
// *NotFoundError from Get when the issue does not exist.
type IssueStore interface {
	// Get fetches a single issue by id.
	Get(ctx context.Context, id string) (*Issue, error)

	// FindByAssignee lists issues assigned to userID, most recently updated first.
	// An empty projectID searches every project.
	FindByAssignee(ctx context.Context, userID, projectID string) ([]Issue, error)

	// Save persists the issue as a single atomic write.
	Save(ctx context.Context, issue *Issue) error
}

// TeamMemberStore lists the people who can be assigned work in a project.
type TeamMemberStore interface {
	ListActiveMembers(ctx context.Context, projectID string) ([]TeamMember, error)
}
