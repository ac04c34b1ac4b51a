// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-05
// Last Modified: 2026-03-09

// Package memory provides in-memory issue and team member stores, optionally
// loaded from and written back to a JSON snapshot file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/similigh/simili-triage/internal/triage"
)

// Snapshot is the on-disk format of a Store.
type Snapshot struct {
	Issues  []triage.Issue                 `json:"issues"`
	Members map[string][]triage.TeamMember `json:"members"` // keyed by project id
}

// Store is a thread-safe in-memory triage.IssueStore and triage.TeamMemberStore.
type Store struct {
	mu      sync.RWMutex
	order   []string
	issues  map[string]triage.Issue
	members map[string][]triage.TeamMember
}

// New creates an empty store.
func New() *Store {
	return &Store{
		issues:  make(map[string]triage.Issue),
		members: make(map[string][]triage.TeamMember),
	}
}

// FromSnapshot creates a store holding the snapshot's contents.
func FromSnapshot(snap Snapshot) *Store {
	s := New()
	for _, is := range snap.Issues {
		s.put(is)
	}
	for project, ms := range snap.Members {
		s.members[project] = append([]triage.TeamMember(nil), ms...)
	}
	return s
}

// Load reads a JSON snapshot.
func Load(r io.Reader) (*Store, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return FromSnapshot(snap), nil
}

// LoadFile reads a JSON snapshot from path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Snapshot returns a copy of the store's contents. Issues keep insertion order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Issues:  make([]triage.Issue, 0, len(s.order)),
		Members: make(map[string][]triage.TeamMember, len(s.members)),
	}
	for _, id := range s.order {
		snap.Issues = append(snap.Issues, cloneIssue(s.issues[id]))
	}
	for project, ms := range s.members {
		snap.Members[project] = append([]triage.TeamMember(nil), ms...)
	}
	return snap
}

// WriteFile writes the store to path atomically.
func (s *Store) WriteFile(path string) error {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// AddMember registers a member in a project.
func (s *Store) AddMember(projectID string, m triage.TeamMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[projectID] = append(s.members[projectID], m)
}

// Get implements triage.IssueStore.
func (s *Store) Get(ctx context.Context, id string) (*triage.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	is, ok := s.issues[id]
	if !ok {
		return nil, triage.NewNotFoundError("issue", id)
	}
	c := cloneIssue(is)
	return &c, nil
}

// FindByAssignee implements triage.IssueStore.
func (s *Store) FindByAssignee(ctx context.Context, userID, projectID string) ([]triage.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []triage.Issue{}
	for _, id := range s.order {
		is := s.issues[id]
		if is.AssigneeID != userID {
			continue
		}
		if projectID != "" && is.ProjectID != projectID {
			continue
		}
		out = append(out, cloneIssue(is))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Save implements triage.IssueStore.
func (s *Store) Save(ctx context.Context, issue *triage.Issue) error {
	if issue == nil || issue.ID == "" {
		return triage.NewValidationError("issue id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(cloneIssue(*issue))
	return nil
}

// ListActiveMembers implements triage.TeamMemberStore. Every member registered
// in the project is returned; IsActive reports whether the account is active.
func (s *Store) ListActiveMembers(ctx context.Context, projectID string) ([]triage.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]triage.TeamMember{}, s.members[projectID]...), nil
}

func (s *Store) put(is triage.Issue) {
	if _, ok := s.issues[is.ID]; !ok {
		s.order = append(s.order, is.ID)
	}
	s.issues[is.ID] = is
}

func cloneIssue(is triage.Issue) triage.Issue {
	is.Labels = append([]string(nil), is.Labels...)
	return is
}
