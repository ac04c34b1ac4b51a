// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-10

package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"
)

// pageSize is the page size used for list calls.
const pageSize = 50

// maxPages bounds how far list calls paginate.
const maxPages = 4

// Client wraps the GitHub API client.
type Client struct {
	client *github.Client
}

// GetIssue fetches issue details.
func (c *Client) GetIssue(ctx context.Context, org, repo string, number int) (*github.Issue, error) {
	issue, _, err := c.client.Issues.Get(ctx, org, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue: %w", err)
	}

	return issue, nil
}

// ListAssignedIssues lists issues in org/repo assigned to login, most recently
// updated first. Pull requests are skipped.
func (c *Client) ListAssignedIssues(ctx context.Context, org, repo, login string) ([]*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		Assignee:    login,
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	var out []*github.Issue
	for page := 0; page < maxPages; page++ {
		issues, resp, err := c.client.Issues.ListByRepo(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}
		for _, is := range issues {
			if !is.IsPullRequest() {
				out = append(out, is)
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// SearchAssignedIssues finds issues assigned to login across every repository
// the token can see, optionally narrowed to an owner.
func (c *Client) SearchAssignedIssues(ctx context.Context, owner, login string) ([]*github.Issue, error) {
	query := fmt.Sprintf("assignee:%s is:issue", login)
	if owner != "" {
		query += " user:" + owner
	}

	result, _, err := c.client.Search.Issues(ctx, query, &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: pageSize},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}
	return result.Issues, nil
}

// EditIssue replaces the labels and assignees of an issue in one request.
func (c *Client) EditIssue(ctx context.Context, org, repo string, number int, labels, assignees []string) error {
	req := &github.IssueRequest{
		Labels:    &labels,
		Assignees: &assignees,
	}
	if _, _, err := c.client.Issues.Edit(ctx, org, repo, number, req); err != nil {
		return fmt.Errorf("failed to edit issue: %w", err)
	}
	return nil
}

// ListAssignees lists the users that can be assigned issues in org/repo.
func (c *Client) ListAssignees(ctx context.Context, org, repo string) ([]*github.User, error) {
	opts := &github.ListOptions{PerPage: pageSize}

	var out []*github.User
	for page := 0; page < maxPages; page++ {
		users, resp, err := c.client.Issues.ListAssignees(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list assignees: %w", err)
		}
		out = append(out, users...)
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// CreateComment posts a comment on an issue.
func (c *Client) CreateComment(ctx context.Context, org, repo string, number int, body string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("comment body cannot be empty")
	}

	comment := &github.IssueComment{
		Body: github.String(body),
	}
	_, _, err := c.client.Issues.CreateComment(ctx, org, repo, number, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// AddLabels adds labels to an issue.
func (c *Client) AddLabels(ctx context.Context, org, repo string, number int, labels []string) error {
	if len(labels) == 0 {
		return fmt.Errorf("labels cannot be empty")
	}

	_, _, err := c.client.Issues.AddLabelsToIssue(ctx, org, repo, number, labels)
	if err != nil {
		return fmt.Errorf("failed to add labels: %w", err)
	}
	return nil
}

// GetFileContent reads a file from a repository at ref. It backs remote
// config inheritance.
func (c *Client) GetFileContent(ctx context.Context, org, repo, path, ref string) ([]byte, error) {
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}

	file, _, _, err := c.client.Repositories.GetContents(ctx, org, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// isNotFound reports whether err is a GitHub 404.
func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
