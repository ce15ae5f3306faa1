package interview

import "github.com/Sukhwinder-i0/komyra-ai/internal/types"

// FollowUpEligible reports whether a follow-up may be solicited for the
// current turn: the previous question must have been answered, it must have
// been a main question (follow-ups never chain onto follow-ups), and the
// follow-up budget must have room. The orchestrator checks this before the
// oracle call to pick the decision context; Advance checks it again after,
// so an out-of-budget wantsFollowUp from the model is clamped to the
// main-question branch.
func FollowUpEligible(state *types.InterviewSession, lastAnswer *types.InterviewAnswer) bool {
	return AnswerPresent(lastAnswer) &&
		state.QuestionType == types.QuestionMain &&
		state.FollowupCount < state.MaxFollowups
}
