package oracle

import (
	"fmt"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// FallbackDecision is the deterministic substitute used when the oracle is
// unavailable or its output unusable.
//
// Under a follow-up context the fallback skips the probe without supplying a
// question; the orchestrator then requests the next main question instead of
// concluding the interview. Under a main-question context it supplies a
// scripted role-referencing question, unless the main-question budget is
// already spent, in which case the absent question lets the progression rules
// conclude the interview.
func FallbackDecision(dc DecisionContext) *types.OracleDecision {
	if dc.SolicitFollowUp {
		return &types.OracleDecision{WantsFollowUp: false}
	}
	if dc.Session.CurrentQuestionIndex >= dc.Session.MaxQuestions {
		return &types.OracleDecision{WantsFollowUp: false}
	}
	return &types.OracleDecision{
		Question:      TemplatedMainQuestion(dc.Context.RoleTitle),
		WantsFollowUp: false,
	}
}

// TemplatedMainQuestion is the scripted question asked when generation fails
// mid-interview. It references the role so the conversation stays on topic
// even without the model.
func TemplatedMainQuestion(roleTitle string) string {
	return fmt.Sprintf(
		"Tell me about a project from your experience that best prepared you for the %s role. What was your specific contribution?",
		roleTitle,
	)
}
