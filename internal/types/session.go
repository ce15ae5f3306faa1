// Package types provides type definitions for structured data used throughout the komyra interview system.
package types

import (
	"time"

	"github.com/google/uuid"
)

// QuestionType distinguishes scripted-progression main questions from oracle-initiated follow-ups.
type QuestionType string

const (
	// QuestionMain is a top-level interview question counted against max_questions
	QuestionMain QuestionType = "main"
	// QuestionFollowup is a probe on the candidate's previous answer, counted against max_followups
	QuestionFollowup QuestionType = "followup"
)

// InterviewPhase is the lifecycle phase of a session. Phases only move forward.
type InterviewPhase string

const (
	// PhaseInitializing is a created session before the first question is issued
	PhaseInitializing InterviewPhase = "initializing"
	// PhaseInProgress is a session with at least one question issued and budget remaining
	PhaseInProgress InterviewPhase = "in_progress"
	// PhaseCompleted is a terminal session; completed sessions are immutable
	PhaseCompleted InterviewPhase = "completed"
)

// InterviewSession is the authoritative progression state of one interview.
// It is mutated only by the progression rules in internal/interview; callers
// receive updated copies.
type InterviewSession struct {
	ID                   string            `json:"id"`
	RoleTitle            string            `json:"role_title,omitempty"`
	CurrentQuestionIndex int               `json:"current_question_index"`
	QuestionType         QuestionType      `json:"question_type"`
	FollowupCount        int               `json:"followup_count"`
	MaxQuestions         int               `json:"max_questions"`
	MaxFollowups         int               `json:"max_followups"`
	Phase                InterviewPhase    `json:"interview_phase"`
	CurrentQuestionID    string            `json:"current_question_id,omitempty"`
	QuestionSeq          int               `json:"question_seq"`
	ConversationHistory  []InterviewAnswer `json:"conversation_history"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`

	// AccessCodeHash is the bcrypt hash of the session's one-time access code.
	// It lives in its own storage column and never reaches clients.
	AccessCodeHash string `json:"-"`
}

// InterviewAnswer is one completed turn: a question and the candidate's answer to it.
type InterviewAnswer struct {
	QuestionID   string       `json:"question_id"`
	QuestionType QuestionType `json:"question_type"`
	Question     string       `json:"question"`
	Answer       string       `json:"answer"`
	// ParentIndex is the 1-based index of the main question a follow-up probes; zero for main questions.
	ParentIndex int       `json:"parent_index,omitempty"`
	AnsweredAt  time.Time `json:"answered_at"`
}

// NewInterviewSession creates a session in the initializing phase with a fresh id.
func NewInterviewSession(roleTitle string, maxQuestions, maxFollowups int) *InterviewSession {
	now := time.Now().UTC()
	return &InterviewSession{
		ID:                  uuid.NewString(),
		RoleTitle:           roleTitle,
		QuestionType:        QuestionMain,
		MaxQuestions:        maxQuestions,
		MaxFollowups:        maxFollowups,
		Phase:               PhaseInitializing,
		ConversationHistory: []InterviewAnswer{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Clone returns a deep copy. The history slice is copied so mutations of the
// clone never leak into the original.
func (s *InterviewSession) Clone() *InterviewSession {
	if s == nil {
		return nil
	}
	dup := *s
	dup.ConversationHistory = make([]InterviewAnswer, len(s.ConversationHistory))
	copy(dup.ConversationHistory, s.ConversationHistory)
	return &dup
}

// Completed reports whether the session reached its terminal phase.
func (s *InterviewSession) Completed() bool {
	return s.Phase == PhaseCompleted
}

// TurnResponse is what one progression step hands back to the caller: the
// question to pose (absent when the interview just completed) and the fully
// updated session state.
type TurnResponse struct {
	Question          string            `json:"question,omitempty"`
	QuestionID        string            `json:"question_id,omitempty"`
	QuestionType      QuestionType      `json:"question_type,omitempty"`
	Session           *InterviewSession `json:"session"`
	InterviewComplete bool              `json:"interview_complete"`
	Reasoning         string            `json:"reasoning,omitempty"`
}
