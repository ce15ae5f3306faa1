package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

func TestValidateSessionPayload_FreshSession(t *testing.T) {
	session := types.NewInterviewSession("Backend Engineer", 3, 1)
	payload, err := json.Marshal(session)
	require.NoError(t, err)

	assert.NoError(t, ValidateSessionPayload(payload))
}

func TestValidateSessionPayload_SessionWithHistory(t *testing.T) {
	session := types.NewInterviewSession("Backend Engineer", 3, 1)
	session.Phase = types.PhaseInProgress
	session.CurrentQuestionIndex = 1
	session.CurrentQuestionID = "followup-1-2"
	session.QuestionSeq = 2
	session.QuestionType = types.QuestionFollowup
	session.FollowupCount = 1
	session.ConversationHistory = append(session.ConversationHistory, types.InterviewAnswer{
		QuestionID:   "main-1-1",
		QuestionType: types.QuestionMain,
		Question:     "Tell me about a recent project.",
		Answer:       "I built a payments reconciliation service.",
	})

	payload, err := json.Marshal(session)
	require.NoError(t, err)
	assert.NoError(t, ValidateSessionPayload(payload))
}

func TestValidateSessionPayload_MissingField(t *testing.T) {
	payload := []byte(`{
		"id": "abc",
		"question_type": "main",
		"followup_count": 0,
		"max_questions": 3,
		"max_followups": 1,
		"interview_phase": "in_progress",
		"conversation_history": []
	}`)

	err := ValidateSessionPayload(payload)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateSessionPayload_WrongType(t *testing.T) {
	payload := []byte(`{
		"id": "abc",
		"current_question_index": "two",
		"question_type": "main",
		"followup_count": 0,
		"max_questions": 3,
		"max_followups": 1,
		"interview_phase": "in_progress",
		"conversation_history": []
	}`)

	err := ValidateSessionPayload(payload)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateSessionPayload_RejectedValues(t *testing.T) {
	base := map[string]any{
		"id":                     "abc",
		"current_question_index": 0,
		"question_type":          "main",
		"followup_count":         0,
		"max_questions":          3,
		"max_followups":          1,
		"interview_phase":        "in_progress",
		"conversation_history":   []any{},
	}

	tests := []struct {
		name  string
		field string
		value any
	}{
		{name: "negative question index", field: "current_question_index", value: -1},
		{name: "negative followup count", field: "followup_count", value: -2},
		{name: "zero max questions", field: "max_questions", value: 0},
		{name: "unknown question type", field: "question_type", value: "probe"},
		{name: "unknown phase", field: "interview_phase", value: "paused"},
		{name: "empty id", field: "id", value: ""},
		{name: "history not an array", field: "conversation_history", value: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := make(map[string]any, len(base))
			for k, v := range base {
				doc[k] = v
			}
			doc[tt.field] = tt.value

			payload, err := json.Marshal(doc)
			require.NoError(t, err)

			valErr := ValidateSessionPayload(payload)
			require.Error(t, valErr)

			validationErr, ok := valErr.(*ValidationError)
			require.True(t, ok, "error should be ValidationError type")
			assert.Greater(t, len(validationErr.Errors), 0)
		})
	}
}

func TestValidateSessionPayload_HistoryEntryMissingAnswer(t *testing.T) {
	payload := []byte(`{
		"id": "abc",
		"current_question_index": 1,
		"question_type": "main",
		"followup_count": 0,
		"max_questions": 3,
		"max_followups": 1,
		"interview_phase": "in_progress",
		"conversation_history": [{"question": "Tell me about yourself."}]
	}`)

	err := ValidateSessionPayload(payload)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	// Check that the field path points into the history entry
	found := false
	for _, fieldErr := range validationErr.Errors {
		if fieldErr.Field != "" && fieldErr.Field != "(root)" {
			found = true
			break
		}
	}
	assert.True(t, found, "should include field path in error")
}

func TestValidateSessionPayload_MalformedJSON(t *testing.T) {
	err := ValidateSessionPayload([]byte("{ invalid json }"))
	require.Error(t, err)

	_, ok := err.(*ValidationError)
	assert.True(t, ok, "malformed documents surface as validation errors")
}

func TestDecodeSession_RoundTrip(t *testing.T) {
	session := types.NewInterviewSession("Platform Engineer", 5, 2)
	session.Phase = types.PhaseInProgress
	session.CurrentQuestionID = "main-1-1"
	session.QuestionSeq = 1

	payload, err := json.Marshal(session)
	require.NoError(t, err)

	decoded, err := DecodeSession(payload)
	require.NoError(t, err)
	assert.Equal(t, session.ID, decoded.ID)
	assert.Equal(t, session.RoleTitle, decoded.RoleTitle)
	assert.Equal(t, session.MaxQuestions, decoded.MaxQuestions)
	assert.Equal(t, session.CurrentQuestionID, decoded.CurrentQuestionID)
	assert.Equal(t, types.PhaseInProgress, decoded.Phase)
}

func TestDecodeSession_RejectsInvalidPayload(t *testing.T) {
	decoded, err := DecodeSession([]byte(`{"id": "abc"}`))
	require.Error(t, err)
	assert.Nil(t, decoded)

	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "current_question_index", Message: "is required"},
			{Field: "question_type", Message: "must be one of main, followup"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "session payload invalid")
	assert.Contains(t, errorMsg, "current_question_index")
	assert.Contains(t, errorMsg, "question_type")
}
