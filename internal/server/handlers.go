package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Sukhwinder-i0/komyra-ai/internal/ingestion"
	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// CreateSessionRequest is the body for POST /sessions.
type CreateSessionRequest struct {
	RoleTitle       string `json:"role_title" validate:"required"`
	MaxQuestions    int    `json:"max_questions" validate:"gte=0"`
	MaxFollowups    int    `json:"max_followups" validate:"gte=0"`
	OpeningQuestion string `json:"opening_question,omitempty"`
}

// CreateSessionResponse returns the new session. The access code appears here
// once and is never retrievable again; only its hash is stored.
type CreateSessionResponse struct {
	Session    *types.InterviewSession `json:"session"`
	AccessCode string                  `json:"access_code,omitempty"`
	FirstTurn  *types.TurnResponse     `json:"first_turn,omitempty"`
}

// TokenRequest is the body for POST /sessions/{id}/token.
type TokenRequest struct {
	AccessCode string `json:"access_code" validate:"required"`
}

// TokenResponse carries the session-scoped bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// AdvanceRequest is the body for POST /sessions/{id}/advance. The context is
// validated downstream so its errors carry the orchestrator's field names.
type AdvanceRequest struct {
	Context       types.InterviewContext `json:"context"`
	LastAnswer    *types.InterviewAnswer `json:"last_answer,omitempty"`
	ClientSession json.RawMessage        `json:"client_session,omitempty"`
}

// EvaluateRequest is the body for POST /sessions/{id}/evaluate.
type EvaluateRequest struct {
	Context       types.InterviewContext `json:"context"`
	ClientSession json.RawMessage        `json:"client_session,omitempty"`
}

// AnalyzeRequest is the body for POST /profile/analyze.
type AnalyzeRequest struct {
	Context types.InterviewContext `json:"context"`
}

// IngestJobRequest is the body for POST /ingest/job.
type IngestJobRequest struct {
	URL        string `json:"url" validate:"required,url"`
	UseBrowser bool   `json:"use_browser,omitempty"`
}

// IngestJobResponse carries the cleaned posting text plus its provenance, for
// the client to place into interview contexts.
type IngestJobResponse struct {
	JobDescription string              `json:"job_description"`
	Metadata       *ingestion.Metadata `json:"metadata"`
}

// SessionSummary is the listing shape: progression state without the
// transcript, which stays behind session auth.
type SessionSummary struct {
	ID                   string               `json:"id"`
	RoleTitle            string               `json:"role_title,omitempty"`
	Phase                types.InterviewPhase `json:"interview_phase"`
	CurrentQuestionIndex int                  `json:"current_question_index"`
	AnswerCount          int                  `json:"answer_count"`
	MaxQuestions         int                  `json:"max_questions"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// handleCreateSession creates a session and issues its opening question.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if !s.readJSON(w, r, &req) || !s.checkRequest(w, &req) {
		return
	}

	result, err := s.orch.StartSession(r.Context(), orchestrator.StartParams{
		RoleTitle:       req.RoleTitle,
		MaxQuestions:    req.MaxQuestions,
		MaxFollowups:    req.MaxFollowups,
		OpeningQuestion: req.OpeningQuestion,
	})
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, CreateSessionResponse{
		Session:    result.Session,
		AccessCode: result.AccessCode,
		FirstTurn:  result.FirstTurn,
	})
}

// handleIssueToken exchanges an access code for a session-scoped token.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		s.errorResponse(w, http.StatusBadRequest, "session ID is required")
		return
	}

	var req TokenRequest
	if !s.readJSON(w, r, &req) || !s.checkRequest(w, &req) {
		return
	}

	if err := s.orch.CheckAccessCode(r.Context(), sessionID, req.AccessCode); err != nil {
		s.domainError(w, err)
		return
	}

	token, err := s.jwtService.GenerateToken(sessionID)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, TokenResponse{Token: token})
}

// handleAdvance runs one interview turn.
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	turn, err := s.orch.AdvanceQuestion(r.Context(), orchestrator.AdvanceParams{
		SessionID:     r.PathValue("id"),
		Context:       req.Context,
		LastAnswer:    req.LastAnswer,
		ClientSession: req.ClientSession,
	})
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, turn)
}

// handleEvaluate scores a transcript and returns the report.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	report, err := s.orch.Evaluate(r.Context(), orchestrator.EvaluateParams{
		SessionID:     r.PathValue("id"),
		Context:       req.Context,
		ClientSession: req.ClientSession,
	})
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleGetSession returns the authoritative session state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.orch.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, session)
}

// handleGetReport returns the stored evaluation report.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.orch.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleListSessions returns summaries of all sessions, newest first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.orch.ListSessions(r.Context())
	if err != nil {
		s.domainError(w, err)
		return
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, SessionSummary{
			ID:                   session.ID,
			RoleTitle:            session.RoleTitle,
			Phase:                session.Phase,
			CurrentQuestionIndex: session.CurrentQuestionIndex,
			AnswerCount:          len(session.ConversationHistory),
			MaxQuestions:         session.MaxQuestions,
			CreatedAt:            session.CreatedAt,
			UpdatedAt:            session.UpdatedAt,
		})
	}

	s.jsonResponse(w, http.StatusOK, summaries)
}

// handleAnalyzeProfile runs a one-off blueprint analysis.
func (s *Server) handleAnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.readJSON(w, r, &req) {
		return
	}

	analysis, err := s.orch.AnalyzeProfile(r.Context(), req.Context)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, analysis)
}

// handleIngestJob resolves a job-posting URL into cleaned text. Postings are
// cached briefly, so several sessions created for the same role share one
// fetch against the job board.
func (s *Server) handleIngestJob(w http.ResponseWriter, r *http.Request) {
	var req IngestJobRequest
	if !s.readJSON(w, r, &req) || !s.checkRequest(w, &req) {
		return
	}

	text, meta, err := s.ingester.Ingest(r.Context(), req.URL, req.UseBrowser, false)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, IngestJobResponse{
		JobDescription: text,
		Metadata:       meta,
	})
}

// readJSON decodes a request body, writing the 400 itself. Returns false when
// the caller should stop.
func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// checkRequest runs the struct tags on a decoded body. Interview context is
// deliberately not checked here; the orchestrator owns those field names.
func (s *Server) checkRequest(w http.ResponseWriter, req any) bool {
	err := s.validate.Struct(req)
	if err == nil {
		return true
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag()))
		return false
	}

	s.errorResponse(w, http.StatusBadRequest, err.Error())
	return false
}
