// Package interview implements the interview progression rules: which
// question comes next, when a follow-up is allowed, and when the session
// completes. Advance is a pure function so every caller gets the same
// transition for the same input; all I/O stays in the orchestrator.
package interview

import (
	"fmt"
	"strings"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// Advance computes the next session state from the current state, the answer
// to the previous question (if any) and the oracle's decision. It never
// mutates state and has no error path: by the time a decision reaches this
// function it is either validated oracle output or a deterministic fallback.
//
// Rules, applied in order:
//  1. A decision without a question concludes the interview.
//  2. A requested follow-up is honored only while eligibility holds; the
//     wantsFollowUp flag comes from an untrusted model, so eligibility is
//     re-checked here regardless of what the caller already gated on.
//  3. Otherwise the question is the next main question; reaching the
//     max_questions budget completes the session.
func Advance(state *types.InterviewSession, lastAnswer *types.InterviewAnswer, decision *types.OracleDecision) (*types.InterviewSession, *types.TurnResponse) {
	next := state.Clone()
	if AnswerPresent(lastAnswer) {
		next.ConversationHistory = append(next.ConversationHistory, *lastAnswer)
	}

	var reasoning string
	if decision != nil {
		reasoning = decision.Reasoning
	}

	if !decision.HasQuestion() {
		next.Phase = types.PhaseCompleted
		return next, &types.TurnResponse{
			Session:           next,
			InterviewComplete: true,
			Reasoning:         reasoning,
		}
	}

	question := strings.TrimSpace(decision.Question)

	if decision.WantsFollowUp && FollowUpEligible(state, lastAnswer) {
		next.FollowupCount++
		next.QuestionType = types.QuestionFollowup
		next.QuestionSeq++
		next.CurrentQuestionID = mintQuestionID(types.QuestionFollowup, next.CurrentQuestionIndex, next.QuestionSeq)
		next.Phase = types.PhaseInProgress
		return next, &types.TurnResponse{
			Question:     question,
			QuestionID:   next.CurrentQuestionID,
			QuestionType: types.QuestionFollowup,
			Session:      next,
			Reasoning:    reasoning,
		}
	}

	next.CurrentQuestionIndex++
	next.FollowupCount = 0
	next.QuestionType = types.QuestionMain
	next.QuestionSeq++
	next.CurrentQuestionID = mintQuestionID(types.QuestionMain, next.CurrentQuestionIndex, next.QuestionSeq)
	if next.CurrentQuestionIndex >= next.MaxQuestions {
		next.Phase = types.PhaseCompleted
	} else {
		next.Phase = types.PhaseInProgress
	}
	return next, &types.TurnResponse{
		Question:          question,
		QuestionID:        next.CurrentQuestionID,
		QuestionType:      types.QuestionMain,
		Session:           next,
		InterviewComplete: next.Phase == types.PhaseCompleted,
		Reasoning:         reasoning,
	}
}

// AnswerPresent reports whether lastAnswer carries a non-blank answer text.
func AnswerPresent(lastAnswer *types.InterviewAnswer) bool {
	return lastAnswer != nil && strings.TrimSpace(lastAnswer.Answer) != ""
}

// mintQuestionID builds an id from the question type, the main-question index
// it belongs to and the per-session monotonic sequence number. The sequence
// number alone guarantees uniqueness within a session; type and index are in
// the id for human readability. Wall-clock ids were rejected because two
// turns in the same instant would collide.
func mintQuestionID(qType types.QuestionType, mainIndex, seq int) string {
	return fmt.Sprintf("%s-%d-%d", qType, mainIndex, seq)
}
