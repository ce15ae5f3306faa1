package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// PostgresStore persists sessions in PostgreSQL. The session body lives in a
// JSONB column and every Put rewrites it wholesale; the access-code hash is
// kept in its own column because it is deliberately excluded from the
// session's JSON form.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore establishes a connection pool and verifies it.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS interview_sessions (
			id UUID PRIMARY KEY,
			role_title TEXT NOT NULL DEFAULT '',
			phase TEXT NOT NULL,
			access_code_hash TEXT,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS evaluation_reports (
			session_id UUID PRIMARY KEY REFERENCES interview_sessions(id) ON DELETE CASCADE,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_interview_sessions_created_at
			ON interview_sessions(created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*types.InterviewSession, error) {
	var payload []byte
	var accessCodeHash *string
	err := s.pool.QueryRow(ctx,
		`SELECT payload, access_code_hash FROM interview_sessions WHERE id = $1`,
		id,
	).Scan(&payload, &accessCodeHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session, err := decodeSession(payload, accessCodeHash)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Put upserts the session, replacing the whole record.
func (s *PostgresStore) Put(ctx context.Context, session *types.InterviewSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO interview_sessions (id, role_title, phase, access_code_hash, payload, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			role_title = EXCLUDED.role_title,
			phase = EXCLUDED.phase,
			access_code_hash = EXCLUDED.access_code_hash,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		session.ID, session.RoleTitle, string(session.Phase), nullable(session.AccessCodeHash),
		payload, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}
	return nil
}

// List returns all sessions, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]*types.InterviewSession, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload, access_code_hash FROM interview_sessions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*types.InterviewSession
	for rows.Next() {
		var payload []byte
		var accessCodeHash *string
		if err := rows.Scan(&payload, &accessCodeHash); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		session, err := decodeSession(payload, accessCodeHash)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Delete removes a session; its report goes with it via the foreign key.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM interview_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PutReport upserts the evaluation report for a session.
func (s *PostgresStore) PutReport(ctx context.Context, sessionID string, report *types.EvaluationResult) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO evaluation_reports (session_id, payload)
		 VALUES ($1, $2)
		 ON CONFLICT (session_id) DO UPDATE SET payload = EXCLUDED.payload`,
		sessionID, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to put report: %w", err)
	}
	return nil
}

// GetReport loads the evaluation report for a session.
func (s *PostgresStore) GetReport(ctx context.Context, sessionID string) (*types.EvaluationResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM evaluation_reports WHERE session_id = $1`,
		sessionID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report types.EvaluationResult
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

func decodeSession(payload []byte, accessCodeHash *string) (*types.InterviewSession, error) {
	var session types.InterviewSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if accessCodeHash != nil {
		session.AccessCodeHash = *accessCodeHash
	}
	return &session, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
