// Package orchestrator coordinates one interview turn end to end. It owns
// session persistence, access control, oracle calls and the client sync
// rules, and delegates the progression decision itself to the pure interview
// core.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Sukhwinder-i0/komyra-ai/internal/config"
	"github.com/Sukhwinder-i0/komyra-ai/internal/evaluation"
	"github.com/Sukhwinder-i0/komyra-ai/internal/interview"
	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/metrics"
	"github.com/Sukhwinder-i0/komyra-ai/internal/oracle"
	"github.com/Sukhwinder-i0/komyra-ai/internal/profile"
	"github.com/Sukhwinder-i0/komyra-ai/internal/schemas"
	"github.com/Sukhwinder-i0/komyra-ai/internal/store"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// Orchestrator drives interview sessions: creating them, advancing them one
// question at a time, and scoring their transcripts.
type Orchestrator struct {
	store     store.Store
	oracle    *oracle.Adapter
	evaluator *evaluation.Evaluator
	analyzer  *profile.Analyzer
	codes     *config.AccessCodeConfig
	metrics   *metrics.Metrics

	flight     singleflight.Group
	blueprints sync.Map // session id -> *types.InterviewBlueprint
}

// New creates an orchestrator. codes may be nil when sessions are driven
// locally (terminal interviews) and no access control is wanted; m may be nil
// when nothing scrapes counters.
func New(st store.Store, client llm.Client, codes *config.AccessCodeConfig, m *metrics.Metrics) *Orchestrator {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Orchestrator{
		store:     st,
		oracle:    oracle.NewAdapter(client),
		evaluator: evaluation.NewEvaluator(client),
		analyzer:  profile.NewAnalyzer(client),
		codes:     codes,
		metrics:   m,
	}
}

// Metrics exposes the counter set for transports to serve.
func (o *Orchestrator) Metrics() *metrics.Metrics {
	return o.metrics
}

// StartParams describes the interview to create.
type StartParams struct {
	RoleTitle    string
	MaxQuestions int
	MaxFollowups int
	// OpeningQuestion, when set (usually from a preset), is issued as the
	// first main question without consulting the oracle.
	OpeningQuestion string
}

// StartResult carries the created session, the plaintext access code (shown
// exactly once; only its hash is stored) and, when an opening question was
// pinned, the first turn.
type StartResult struct {
	Session    *types.InterviewSession
	AccessCode string
	FirstTurn  *types.TurnResponse
}

// StartSession creates and stores a new interview session.
func (o *Orchestrator) StartSession(ctx context.Context, p StartParams) (*StartResult, error) {
	if strings.TrimSpace(p.RoleTitle) == "" {
		return nil, &ValidationError{Field: "role_title", Message: "is required"}
	}
	if p.MaxQuestions < 0 {
		return nil, &ValidationError{Field: "max_questions", Message: "cannot be negative"}
	}
	if p.MaxFollowups < 0 {
		return nil, &ValidationError{Field: "max_followups", Message: "cannot be negative"}
	}
	if p.MaxQuestions == 0 {
		p.MaxQuestions = config.DefaultMaxQuestions
	}

	session := types.NewInterviewSession(strings.TrimSpace(p.RoleTitle), p.MaxQuestions, p.MaxFollowups)

	result := &StartResult{Session: session}
	if o.codes != nil {
		code, err := config.GenerateAccessCode()
		if err != nil {
			return nil, fmt.Errorf("failed to issue access code: %w", err)
		}
		hash, err := o.codes.HashAccessCode(code)
		if err != nil {
			return nil, fmt.Errorf("failed to issue access code: %w", err)
		}
		session.AccessCodeHash = hash
		result.AccessCode = code
	}

	if opening := strings.TrimSpace(p.OpeningQuestion); opening != "" {
		next, turn := interview.Advance(session, nil, &types.OracleDecision{Question: opening})
		session = next
		result.Session = next
		result.FirstTurn = turn
		o.metrics.IncrementQuestionsAsked(false)
		if turn.InterviewComplete {
			o.metrics.IncrementSessionsCompleted()
		}
	}

	session.UpdatedAt = time.Now().UTC()
	if err := o.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	o.metrics.IncrementSessionsStarted()
	return result, nil
}

// CheckAccessCode verifies a candidate-supplied access code against the
// stored hash for the session.
func (o *Orchestrator) CheckAccessCode(ctx context.Context, sessionID, code string) error {
	if o.codes == nil {
		return &AccessDeniedError{Message: "access codes are not enabled"}
	}
	session, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.AccessCodeHash == "" || !o.codes.VerifyAccessCode(code, session.AccessCodeHash) {
		return &AccessDeniedError{Message: "access code does not match"}
	}
	return nil
}

// AdvanceParams is one turn of the interview as the client sees it.
type AdvanceParams struct {
	SessionID string
	Context   types.InterviewContext
	// LastAnswer answers the currently outstanding question. Its text fields
	// are the client's; ids and types are restamped from the authoritative
	// session.
	LastAnswer *types.InterviewAnswer
	// ClientSession is the client's serialized copy of the session, if it
	// keeps one. It is schema-gated, then merged: the stored session wins
	// everywhere except conversation_history.
	ClientSession json.RawMessage
}

// AdvanceQuestion runs one turn: record the last answer, obtain a decision,
// apply the progression rules, persist, respond.
func (o *Orchestrator) AdvanceQuestion(ctx context.Context, p AdvanceParams) (*types.TurnResponse, error) {
	if err := validateContext(p.Context); err != nil {
		return nil, err
	}

	session, err := o.loadSession(ctx, p.SessionID, p.ClientSession)
	if err != nil {
		return nil, err
	}

	// A completed session is immutable: repeated advances echo the terminal
	// response and never reach the oracle.
	if session.Completed() {
		return &types.TurnResponse{Session: session, InterviewComplete: true}, nil
	}

	lastAnswer := normalizeAnswer(session, p.LastAnswer)
	eligible := interview.FollowUpEligible(session, lastAnswer)
	blueprint := o.blueprint(ctx, session.ID, p.Context)

	decision, outcome := o.oracle.RequestDecision(ctx, oracle.DecisionContext{
		Context:         p.Context,
		Session:         session,
		Blueprint:       blueprint,
		LastAnswer:      lastAnswer,
		SolicitFollowUp: eligible,
	})
	o.metrics.IncrementOracleCall(outcome != oracle.OutcomeOK)

	// An oracle outage while soliciting a follow-up must not end the
	// interview. Retry the turn as a main-question decision, whose own
	// fallback is the templated question (or completion at the budget).
	if eligible && outcome != oracle.OutcomeOK {
		decision, outcome = o.oracle.RequestDecision(ctx, oracle.DecisionContext{
			Context:    p.Context,
			Session:    session,
			Blueprint:  blueprint,
			LastAnswer: lastAnswer,
		})
		o.metrics.IncrementOracleCall(outcome != oracle.OutcomeOK)
	}

	next, turn := interview.Advance(session, lastAnswer, decision)

	if turn.Question != "" {
		o.metrics.IncrementQuestionsAsked(turn.QuestionType == types.QuestionFollowup)
	}
	if turn.InterviewComplete {
		o.metrics.IncrementSessionsCompleted()
	}

	next.UpdatedAt = time.Now().UTC()
	if err := o.store.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	return turn, nil
}

// EvaluateParams identify the transcript to score.
type EvaluateParams struct {
	SessionID     string
	Context       types.InterviewContext
	ClientSession json.RawMessage
}

// Evaluate scores the session transcript and stores the resulting report.
func (o *Orchestrator) Evaluate(ctx context.Context, p EvaluateParams) (*types.EvaluationResult, error) {
	if err := validateContext(p.Context); err != nil {
		return nil, err
	}

	session, err := o.loadSession(ctx, p.SessionID, p.ClientSession)
	if err != nil {
		return nil, err
	}

	if len(p.ClientSession) > 0 {
		// The merged history may carry answers recorded only client-side,
		// like the answer to the final main question. Persist it so the
		// stored record matches the transcript being scored.
		session.UpdatedAt = time.Now().UTC()
		if err := o.store.Put(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}

	if len(session.ConversationHistory) == 0 {
		return nil, &ValidationError{Field: "conversation_history", Message: "cannot evaluate an interview with no recorded answers"}
	}

	result := o.evaluator.Evaluate(ctx, session.ConversationHistory, p.Context, o.blueprint(ctx, session.ID, p.Context))
	if err := o.store.PutReport(ctx, session.ID, result); err != nil {
		return nil, fmt.Errorf("failed to store evaluation report: %w", err)
	}

	o.metrics.IncrementEvaluationsRun()
	return result, nil
}

// AnalyzeProfile builds an interview blueprint for the given context without
// touching any session.
func (o *Orchestrator) AnalyzeProfile(ctx context.Context, ic types.InterviewContext) (*types.ProfileAnalysis, error) {
	if err := validateContext(ic); err != nil {
		return nil, err
	}
	analysis := o.analyzer.Analyze(ctx, ic)
	o.metrics.IncrementProfilesAnalyzed()
	return analysis, nil
}

// GetSession returns the stored session with the given id.
func (o *Orchestrator) GetSession(ctx context.Context, id string) (*types.InterviewSession, error) {
	return o.store.Get(ctx, id)
}

// ListSessions returns all stored sessions, newest first.
func (o *Orchestrator) ListSessions(ctx context.Context) ([]*types.InterviewSession, error) {
	return o.store.List(ctx)
}

// GetReport returns the stored evaluation report for a session.
func (o *Orchestrator) GetReport(ctx context.Context, sessionID string) (*types.EvaluationResult, error) {
	return o.store.GetReport(ctx, sessionID)
}

// loadSession returns the authoritative session, reconciling the client copy
// per the sync rules. A valid client copy also recovers a session missing
// from the store.
func (o *Orchestrator) loadSession(ctx context.Context, sessionID string, clientPayload json.RawMessage) (*types.InterviewSession, error) {
	if sessionID == "" {
		return nil, &ValidationError{Field: "session_id", Message: "is required"}
	}

	stored, err := o.store.Get(ctx, sessionID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		stored = nil
	default:
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if len(clientPayload) == 0 {
		if stored == nil {
			return nil, store.ErrNotFound
		}
		return stored, nil
	}

	clientCopy, decodeErr := schemas.DecodeSession(clientPayload)
	if decodeErr != nil {
		return nil, &ValidationError{Field: "session", Message: decodeErr.Error()}
	}
	if clientCopy.ID != sessionID {
		return nil, &ValidationError{Field: "session.id", Message: "client session id does not match the request"}
	}

	if stored == nil {
		log.Printf("[orchestrator] session %s not in store, recovered from client copy", sessionID)
		return clientCopy, nil
	}
	return MergeSessionState(clientCopy, stored), nil
}

// normalizeAnswer restamps the client-supplied answer with authoritative ids
// and drops it when nothing is awaiting an answer or it was already recorded.
func normalizeAnswer(session *types.InterviewSession, answer *types.InterviewAnswer) *types.InterviewAnswer {
	if !interview.AnswerPresent(answer) {
		return nil
	}
	if session.CurrentQuestionID == "" {
		log.Printf("[orchestrator] session %s has no outstanding question, dropping answer", session.ID)
		return nil
	}
	if n := len(session.ConversationHistory); n > 0 && session.ConversationHistory[n-1].QuestionID == session.CurrentQuestionID {
		log.Printf("[orchestrator] answer for %s already recorded, dropping duplicate", session.CurrentQuestionID)
		return nil
	}

	normalized := *answer
	normalized.QuestionID = session.CurrentQuestionID
	normalized.QuestionType = session.QuestionType
	if session.QuestionType == types.QuestionFollowup {
		normalized.ParentIndex = session.CurrentQuestionIndex
	} else {
		normalized.ParentIndex = 0
	}
	if normalized.AnsweredAt.IsZero() {
		normalized.AnsweredAt = time.Now().UTC()
	}
	return &normalized
}

// blueprint returns the session's interview blueprint, computing it on first
// use. Concurrent turns for the same session share one analyzer call; a
// failed analysis is not cached, so a later turn can try again.
func (o *Orchestrator) blueprint(ctx context.Context, sessionID string, ic types.InterviewContext) *types.InterviewBlueprint {
	if cached, ok := o.blueprints.Load(sessionID); ok {
		return cached.(*types.InterviewBlueprint)
	}

	v, _, _ := o.flight.Do(sessionID, func() (interface{}, error) {
		if cached, ok := o.blueprints.Load(sessionID); ok {
			return cached.(*types.InterviewBlueprint), nil
		}
		analysis := o.analyzer.Analyze(ctx, ic)
		o.metrics.IncrementProfilesAnalyzed()
		if !analysis.Success {
			return (*types.InterviewBlueprint)(nil), nil
		}
		o.blueprints.Store(sessionID, analysis.Blueprint)
		return analysis.Blueprint, nil
	})

	bp, _ := v.(*types.InterviewBlueprint)
	return bp
}

// validateContext rejects missing or whitespace-only context fields before
// any oracle call is attempted.
func validateContext(ic types.InterviewContext) error {
	for _, f := range []struct{ name, value string }{
		{"job_description", ic.JobDescription},
		{"resume", ic.Resume},
		{"role_title", ic.RoleTitle},
	} {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Message: "is required"}
		}
	}
	if err := ic.Validate(); err != nil {
		return &ValidationError{Field: "context", Message: err.Error()}
	}
	return nil
}
