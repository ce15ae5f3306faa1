// Package store persists interview sessions and their evaluation reports.
// Session updates are whole-record replaces: concurrent callers can never
// interleave partial field updates, matching the sequential-per-session
// processing model upstream.
package store

import (
	"context"
	"errors"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("not found")

// Store is the session repository.
type Store interface {
	// Get returns the session with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*types.InterviewSession, error)
	// Put stores the session, replacing any existing record with the same id.
	Put(ctx context.Context, session *types.InterviewSession) error
	// List returns all sessions, newest first.
	List(ctx context.Context) ([]*types.InterviewSession, error)
	// Delete removes a session and its report, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// PutReport stores the evaluation report for a session, replacing any
	// previous report.
	PutReport(ctx context.Context, sessionID string, report *types.EvaluationResult) error
	// GetReport returns the stored report for a session, or ErrNotFound.
	GetReport(ctx context.Context, sessionID string) (*types.EvaluationResult, error)
}
