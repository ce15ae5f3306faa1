package store

import (
	"context"
	"sort"
	"sync"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// MemoryStore is an in-memory Store used by the CLI interview runner and in
// tests. Sessions are cloned on the way in and out so callers never share
// mutable state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.InterviewSession
	reports  map[string]*types.EvaluationResult
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*types.InterviewSession),
		reports:  make(map[string]*types.EvaluationResult),
	}
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, id string) (*types.InterviewSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return session.Clone(), nil
}

// Put replaces the stored session wholesale.
func (m *MemoryStore) Put(_ context.Context, session *types.InterviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ID] = session.Clone()
	return nil
}

// List returns copies of all sessions, newest first.
func (m *MemoryStore) List(_ context.Context) ([]*types.InterviewSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.InterviewSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes the session and any report attached to it.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.reports, id)
	return nil
}

// PutReport stores the evaluation report for a session.
func (m *MemoryStore) PutReport(_ context.Context, sessionID string, report *types.EvaluationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports[sessionID] = cloneReport(report)
	return nil
}

// GetReport returns a copy of the stored report.
func (m *MemoryStore) GetReport(_ context.Context, sessionID string) (*types.EvaluationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, ok := m.reports[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReport(report), nil
}

func cloneReport(report *types.EvaluationResult) *types.EvaluationResult {
	dup := *report
	dup.Strengths = append([]string{}, report.Strengths...)
	dup.Weaknesses = append([]string{}, report.Weaknesses...)
	return &dup
}
