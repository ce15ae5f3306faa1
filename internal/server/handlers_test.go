package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sukhwinder-i0/komyra-ai/internal/config"
	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/metrics"
	"github.com/Sukhwinder-i0/komyra-ai/internal/orchestrator"
	"github.com/Sukhwinder-i0/komyra-ai/internal/store"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// stubScript is one scripted model response, matched against the prompt by
// substring and consumed on first use.
type stubScript struct {
	match string
	text  string
	err   error
}

type stubClient struct {
	mu      sync.Mutex
	prompts []string
	scripts []stubScript
}

func (s *stubClient) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	for i, sc := range s.scripts {
		if strings.Contains(prompt, sc.match) {
			s.scripts = append(s.scripts[:i], s.scripts[i+1:]...)
			return sc.text, sc.err
		}
	}
	return "", errors.New("no scripted response for prompt")
}

func (s *stubClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return s.GenerateJSON(ctx, prompt, tier)
}

func (s *stubClient) GetModel(llm.ModelTier) string { return "stub-model" }
func (s *stubClient) Close() error                  { return nil }

// Prompt markers unique to each template.
const (
	markerProfile = "preparing an interview plan"
	markerMain    = "Produce the next main interview question"
	markerScoring = "hiring-committee reviewer"
)

const blueprintJSON = `{
	"core_skills": ["Go", "PostgreSQL"],
	"experience_highlights": ["payments platform"],
	"skill_gaps": [],
	"focus_areas": ["distributed systems"],
	"question_themes": ["reliability"]
}`

type testEnv struct {
	server *Server
	store  store.Store
	stub   *stubClient
}

func newTestEnv(t *testing.T, scripts []stubScript) *testEnv {
	t.Helper()
	st := store.NewMemoryStore()
	stub := &stubClient{scripts: scripts}
	m := metrics.NewMetrics()
	orch := orchestrator.New(st, stub, &config.AccessCodeConfig{BcryptCost: 10}, m)
	jwtService := NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})

	s := New(orch, jwtService, m, Config{Port: 0})
	t.Cleanup(s.rateLimiter.Stop)

	return &testEnv{server: s, store: st, stub: stub}
}

// do routes a request through the full middleware chain and mux.
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.server.httpServer.Handler.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func requestContext() map[string]any {
	return map[string]any{
		"job_description": "We need a backend engineer comfortable with Go services and PostgreSQL.",
		"resume":          "Six years building Go services, payments experience.",
		"role_title":      "Backend Engineer",
	}
}

func (e *testEnv) createSession(t *testing.T, opening string) CreateSessionResponse {
	t.Helper()
	w := e.do(http.MethodPost, "/sessions", "", map[string]any{
		"role_title":       "Backend Engineer",
		"max_questions":    3,
		"max_followups":    1,
		"opening_question": opening,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return decodeBody[CreateSessionResponse](t, w)
}

func (e *testEnv) tokenFor(t *testing.T, sessionID string) string {
	t.Helper()
	token, err := e.server.jwtService.GenerateToken(sessionID)
	require.NoError(t, err)
	return token
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/sessions", "", map[string]any{
		"role_title":       "Backend Engineer",
		"max_questions":    3,
		"max_followups":    1,
		"opening_question": "Walk me through your background.",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	created := decodeBody[CreateSessionResponse](t, w)
	require.NotNil(t, created.Session)
	assert.NotEmpty(t, created.Session.ID)
	assert.Contains(t, created.AccessCode, "-")
	require.NotNil(t, created.FirstTurn)
	assert.Equal(t, "Walk me through your background.", created.FirstTurn.Question)
	assert.Equal(t, "main-1-1", created.FirstTurn.QuestionID)

	// The plaintext code appears exactly once; its bcrypt hash never leaves the server.
	assert.NotContains(t, w.Body.String(), "access_code_hash")
	assert.NotContains(t, w.Body.String(), "$2a$")
}

func TestCreateSession_MissingRoleTitle(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/sessions", "", map[string]any{"max_questions": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[map[string]string](t, w)
	assert.Contains(t, resp["error"], "role_title")
}

func TestCreateSession_MalformedJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	env.server.httpServer.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueToken(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createSession(t, "")

	w := env.do(http.MethodPost, "/sessions/"+created.Session.ID+"/token", "", map[string]any{
		"access_code": created.AccessCode,
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	resp := decodeBody[TokenResponse](t, w)
	require.NotEmpty(t, resp.Token)

	claims, err := env.server.jwtService.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, created.Session.ID, claims.SessionID)
}

func TestIssueToken_WrongCode(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createSession(t, "")

	w := env.do(http.MethodPost, "/sessions/"+created.Session.ID+"/token", "", map[string]any{
		"access_code": "AAAA-AAAA",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueToken_UnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/sessions/no-such-session/token", "", map[string]any{
		"access_code": "AAAA-AAAA",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueToken_MissingCode(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createSession(t, "")

	w := env.do(http.MethodPost, "/sessions/"+created.Session.ID+"/token", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[map[string]string](t, w)
	assert.Contains(t, resp["error"], "access_code")
}

func TestAdvance_RequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createSession(t, "")

	w := env.do(http.MethodPost, "/sessions/"+created.Session.ID+"/advance", "", map[string]any{
		"context": requestContext(),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdvance_TokenScopedToOtherSession(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createSession(t, "")
	otherToken := env.tokenFor(t, "some-other-session")

	w := env.do(http.MethodPost, "/sessions/"+created.Session.ID+"/advance", otherToken, map[string]any{
		"context": requestContext(),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdvance_RunsOneTurn(t *testing.T) {
	env := newTestEnv(t, []stubScript{
		{match: markerProfile, text: blueprintJSON},
		{match: markerMain, text: `{"question": "How do you design a Go service for reliability?"}`},
	})
	created := env.createSession(t, "")
	token := env.tokenFor(t, created.Session.ID)

	w := env.do(http.MethodPost, "/sessions/"+created.Session.ID+"/advance", token, map[string]any{
		"context": requestContext(),
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	turn := decodeBody[types.TurnResponse](t, w)
	assert.Equal(t, "How do you design a Go service for reliability?", turn.Question)
	assert.Equal(t, "main-1-1", turn.QuestionID)
	assert.False(t, turn.InterviewComplete)

	// The stored session advanced.
	getW := env.do(http.MethodGet, "/sessions/"+created.Session.ID, token, nil)
	require.Equal(t, http.StatusOK, getW.Code)
	session := decodeBody[types.InterviewSession](t, getW)
	assert.Equal(t, 1, session.CurrentQuestionIndex)
	assert.Equal(t, types.PhaseInProgress, session.Phase)
}

func TestAdvance_ContextValidatedBeforeOracle(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createSession(t, "")
	token := env.tokenFor(t, created.Session.ID)

	w := env.do(http.MethodPost, "/sessions/"+created.Session.ID+"/advance", token, map[string]any{
		"context": map[string]any{"resume": "something", "role_title": "Backend Engineer"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[map[string]string](t, w)
	assert.Contains(t, resp["error"], "job_description")
	assert.Empty(t, env.stub.prompts)
}

func TestEvaluate_ReturnsAndStoresReport(t *testing.T) {
	env := newTestEnv(t, []stubScript{
		{match: markerProfile, text: blueprintJSON},
		{match: markerScoring, text: `{
			"alignment": 82,
			"technical": 8,
			"communication": 7,
			"problem_solving": 8,
			"strengths": ["clear articulation"],
			"weaknesses": ["little Kubernetes exposure"],
			"verdict": "Fit",
			"summary": "Strong backend candidate."
		}`},
	})

	session := types.NewInterviewSession("Backend Engineer", 2, 1)
	session.Phase = types.PhaseCompleted
	session.ConversationHistory = []types.InterviewAnswer{
		{QuestionID: "main-1-1", QuestionType: types.QuestionMain, Question: "Q1", Answer: "A1", AnsweredAt: time.Now().UTC()},
		{QuestionID: "main-2-2", QuestionType: types.QuestionMain, Question: "Q2", Answer: "A2", AnsweredAt: time.Now().UTC()},
	}
	require.NoError(t, env.store.Put(context.Background(), session))
	token := env.tokenFor(t, session.ID)

	w := env.do(http.MethodPost, "/sessions/"+session.ID+"/evaluate", token, map[string]any{
		"context": requestContext(),
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	report := decodeBody[types.EvaluationResult](t, w)
	assert.Equal(t, types.VerdictFit, report.Verdict)
	assert.InDelta(t, 82, report.Alignment, 0.01)

	reportW := env.do(http.MethodGet, "/sessions/"+session.ID+"/report", token, nil)
	require.Equal(t, http.StatusOK, reportW.Code)
	stored := decodeBody[types.EvaluationResult](t, reportW)
	assert.Equal(t, report.Verdict, stored.Verdict)
}

func TestGetReport_NoneStored(t *testing.T) {
	env := newTestEnv(t, nil)
	created := env.createSession(t, "")
	token := env.tokenFor(t, created.Session.ID)

	w := env.do(http.MethodGet, "/sessions/"+created.Session.ID+"/report", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessions_SummariesWithoutTranscript(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createSession(t, "Walk me through your background.")

	w := env.do(http.MethodGet, "/sessions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	summaries := decodeBody[[]SessionSummary](t, w)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Backend Engineer", summaries[0].RoleTitle)
	assert.NotContains(t, w.Body.String(), "conversation_history")
}

func TestAnalyzeProfile(t *testing.T) {
	env := newTestEnv(t, []stubScript{
		{match: markerProfile, text: blueprintJSON},
	})

	w := env.do(http.MethodPost, "/profile/analyze", "", map[string]any{
		"context": requestContext(),
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	analysis := decodeBody[types.ProfileAnalysis](t, w)
	assert.True(t, analysis.Success)
	assert.Contains(t, analysis.Blueprint.CoreSkills, "Go")
}

func TestAnalyzeProfile_MissingResume(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/profile/analyze", "", map[string]any{
		"context": map[string]any{"job_description": "something", "role_title": "Backend Engineer"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[map[string]string](t, w)
	assert.Contains(t, resp["error"], "resume")
}

const ingestPostingHTML = `<!DOCTYPE html>
<html><body>
<nav>Openings</nav>
<main>
<h1>Backend Engineer</h1>
<p>Ship Go services that stay up.</p>
</main>
<footer>About us</footer>
</body></html>`

func TestIngestJob(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(ingestPostingHTML))
	}))
	defer backend.Close()

	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/ingest/job", "", map[string]any{"url": backend.URL})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	resp := decodeBody[IngestJobResponse](t, w)
	assert.Contains(t, resp.JobDescription, "Backend Engineer")
	assert.Contains(t, resp.JobDescription, "Ship Go services")
	assert.NotContains(t, resp.JobDescription, "Openings")
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, backend.URL, resp.Metadata.URL)
	assert.Greater(t, resp.Metadata.WordCount, 0)
}

func TestIngestJob_InvalidURL(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/ingest/job", "", map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody[map[string]string](t, w)
	assert.Contains(t, resp["error"], "url")
}

func TestIngestJob_UnreachableBoard(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := backend.URL
	backend.Close()

	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/ingest/job", "", map[string]any{"url": deadURL})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody[map[string]string](t, w)
	assert.Equal(t, "ok", resp["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createSession(t, "")

	w := env.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	snap := decodeBody[metrics.Snapshot](t, w)
	assert.Equal(t, int64(1), snap.SessionsStarted)
}

func TestRateLimit_SessionCreationBurst(t *testing.T) {
	env := newTestEnv(t, nil)

	var lastCode int
	for i := 0; i < 6; i++ {
		w := env.do(http.MethodPost, "/sessions", "", map[string]any{
			"role_title": fmt.Sprintf("Role %d", i),
		})
		lastCode = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
