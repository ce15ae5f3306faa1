package types

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInterviewSession(t *testing.T) {
	session := NewInterviewSession("Backend Engineer", 5, 1)

	_, err := uuid.Parse(session.ID)
	require.NoError(t, err, "session id should be a valid uuid")

	assert.Equal(t, "Backend Engineer", session.RoleTitle)
	assert.Equal(t, 0, session.CurrentQuestionIndex)
	assert.Equal(t, QuestionMain, session.QuestionType)
	assert.Equal(t, 0, session.FollowupCount)
	assert.Equal(t, 5, session.MaxQuestions)
	assert.Equal(t, 1, session.MaxFollowups)
	assert.Equal(t, PhaseInitializing, session.Phase)
	assert.Empty(t, session.CurrentQuestionID)
	assert.NotNil(t, session.ConversationHistory)
	assert.Empty(t, session.ConversationHistory)
	assert.False(t, session.Completed())
	assert.False(t, session.CreatedAt.IsZero())
	assert.Equal(t, session.CreatedAt, session.UpdatedAt)
}

func TestInterviewSession_Clone(t *testing.T) {
	original := NewInterviewSession("Data Engineer", 3, 1)
	original.ConversationHistory = append(original.ConversationHistory, InterviewAnswer{
		QuestionID:   "main-1-1",
		QuestionType: QuestionMain,
		Question:     "Tell me about your pipeline work.",
		Answer:       "I built ETL on Spark.",
	})

	clone := original.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, original, clone)

	// Mutating the clone's history must not touch the original.
	clone.ConversationHistory[0].Answer = "changed"
	clone.ConversationHistory = append(clone.ConversationHistory, InterviewAnswer{QuestionID: "main-2-2"})
	assert.Equal(t, "I built ETL on Spark.", original.ConversationHistory[0].Answer)
	assert.Len(t, original.ConversationHistory, 1)

	var nilSession *InterviewSession
	assert.Nil(t, nilSession.Clone())
}

func TestInterviewSession_JSONRoundTrip(t *testing.T) {
	session := NewInterviewSession("SRE", 4, 2)
	session.CurrentQuestionIndex = 2
	session.QuestionType = QuestionFollowup
	session.FollowupCount = 1
	session.Phase = PhaseInProgress
	session.CurrentQuestionID = "followup-2-3"
	session.QuestionSeq = 3
	session.AccessCodeHash = "$2a$10$secret"
	session.ConversationHistory = []InterviewAnswer{
		{
			QuestionID:   "main-1-1",
			QuestionType: QuestionMain,
			Question:     "Describe an incident you handled.",
			Answer:       "A cascading cache failure.",
		},
		{
			QuestionID:   "followup-1-2",
			QuestionType: QuestionFollowup,
			Question:     "What was the blast radius?",
			Answer:       "Two regions.",
			ParentIndex:  1,
		},
	}

	data, err := json.Marshal(session)
	require.NoError(t, err)

	// The access-code hash must never be serialized.
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "access_code")

	var decoded InterviewSession
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, session.ID, decoded.ID)
	assert.Equal(t, session.CurrentQuestionIndex, decoded.CurrentQuestionIndex)
	assert.Equal(t, session.QuestionType, decoded.QuestionType)
	assert.Equal(t, session.FollowupCount, decoded.FollowupCount)
	assert.Equal(t, session.Phase, decoded.Phase)
	assert.Equal(t, session.CurrentQuestionID, decoded.CurrentQuestionID)
	assert.Equal(t, session.QuestionSeq, decoded.QuestionSeq)
	assert.Len(t, decoded.ConversationHistory, 2)
	assert.Equal(t, 1, decoded.ConversationHistory[1].ParentIndex)
	assert.Empty(t, decoded.AccessCodeHash)
}

func TestOracleDecision_HasQuestion(t *testing.T) {
	tests := []struct {
		name     string
		decision *OracleDecision
		want     bool
	}{
		{"nil decision", nil, false},
		{"empty question", &OracleDecision{}, false},
		{"whitespace question", &OracleDecision{Question: "   \n\t"}, false},
		{"real question", &OracleDecision{Question: "Why Go?"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.decision.HasQuestion())
		})
	}
}

func TestValidVerdict(t *testing.T) {
	assert.True(t, ValidVerdict(VerdictFit))
	assert.True(t, ValidVerdict(VerdictMaybe))
	assert.True(t, ValidVerdict(VerdictReject))
	assert.False(t, ValidVerdict("Strong Hire"))
	assert.False(t, ValidVerdict(""))
}

func TestEmptyBlueprint(t *testing.T) {
	bp := EmptyBlueprint()
	require.NotNil(t, bp)
	assert.NotNil(t, bp.CoreSkills)
	assert.NotNil(t, bp.ExperienceHighlights)
	assert.NotNil(t, bp.SkillGaps)
	assert.NotNil(t, bp.FocusAreas)
	assert.NotNil(t, bp.QuestionThemes)
	assert.Empty(t, bp.CoreSkills)
}
