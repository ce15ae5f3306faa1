// Package oracle is the single boundary between the interview and the
// text-generation service. It turns structured interview context into one
// generation call and funnels whatever text comes back through a
// parse-and-validate step, so the progression rules only ever see a typed
// decision: the model's own, or a deterministic fallback.
package oracle

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/prompts"
	"github.com/Sukhwinder-i0/komyra-ai/internal/transcript"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// Outcome tags how a decision was obtained. Callers that solicited a
// follow-up branch on it: a fallback produced under a follow-up context skips
// the follow-up rather than concluding the interview.
type Outcome string

const (
	// OutcomeOK means the decision is validated model output
	OutcomeOK Outcome = "ok"
	// OutcomeMalformed means the model responded but no usable decision could be extracted
	OutcomeMalformed Outcome = "malformed"
	// OutcomeUnavailable means the generation call itself failed
	OutcomeUnavailable Outcome = "unavailable"
)

// DecisionContext carries everything one decision request needs.
type DecisionContext struct {
	Context   types.InterviewContext
	Session   *types.InterviewSession
	Blueprint *types.InterviewBlueprint
	// LastAnswer is the answer being considered for a follow-up probe.
	LastAnswer *types.InterviewAnswer
	// SolicitFollowUp selects the decision prompt: when true the model is
	// asked whether the last answer deserves a probe, otherwise it is asked
	// for the next main question.
	SolicitFollowUp bool
}

// Adapter issues decision requests against an LLM client.
type Adapter struct {
	client llm.Client
}

// NewAdapter creates an oracle adapter on top of an LLM client.
func NewAdapter(client llm.Client) *Adapter {
	return &Adapter{client: client}
}

// RequestDecision makes exactly one generation call and returns a decision
// that is always safe to apply. Transport failures and unparseable output are
// absorbed into FallbackDecision; the Outcome tag tells the caller which case
// occurred. There is no retry loop.
func (a *Adapter) RequestDecision(ctx context.Context, dc DecisionContext) (*types.OracleDecision, Outcome) {
	prompt, err := buildDecisionPrompt(dc)
	if err != nil {
		log.Printf("[oracle] prompt assembly failed: %v", err)
		return FallbackDecision(dc), OutcomeUnavailable
	}

	tier := llm.TierStandard
	if dc.SolicitFollowUp {
		tier = llm.TierLite
	}

	raw, err := a.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		log.Printf("[oracle] generation call failed: %v", err)
		return FallbackDecision(dc), OutcomeUnavailable
	}

	decision, ok := ParseDecision(raw)
	if !ok {
		log.Printf("[oracle] unusable decision output (%d bytes), substituting fallback", len(raw))
		return FallbackDecision(dc), OutcomeMalformed
	}
	return decision, OutcomeOK
}

// ParseDecision extracts the first well-formed JSON object from raw model
// text and validates its field types. Unknown fields are ignored; a missing
// wantsFollowUp defaults to false; a wrongly typed field rejects the whole
// decision.
func ParseDecision(raw string) (*types.OracleDecision, bool) {
	obj, ok := llm.FirstJSONObject(raw)
	if !ok {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, false
	}

	decision := &types.OracleDecision{}
	if v, exists := fields["question"]; exists && !jsonNull(v) {
		if err := json.Unmarshal(v, &decision.Question); err != nil {
			return nil, false
		}
	}
	if v, exists := fields["wantsFollowUp"]; exists && !jsonNull(v) {
		if err := json.Unmarshal(v, &decision.WantsFollowUp); err != nil {
			return nil, false
		}
	}
	if v, exists := fields["reasoning"]; exists && !jsonNull(v) {
		if err := json.Unmarshal(v, &decision.Reasoning); err != nil {
			return nil, false
		}
	}
	return decision, true
}

func jsonNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func buildDecisionPrompt(dc DecisionContext) (string, error) {
	key := "next-main-question"
	if dc.SolicitFollowUp {
		key = "followup-decision"
	}

	template, err := prompts.Get("interview.json", key)
	if err != nil {
		return "", err
	}

	// The pending answer is appended to the session only after the decision,
	// so the main-question transcript has to include it here. The follow-up
	// prompt quotes it in its own block instead.
	history := dc.Session.ConversationHistory
	if !dc.SolicitFollowUp && dc.LastAnswer != nil {
		history = append(history[:len(history):len(history)], *dc.LastAnswer)
	}

	data := map[string]string{
		"RoleTitle":      dc.Context.RoleTitle,
		"JobDescription": dc.Context.JobDescription,
		"Resume":         dc.Context.Resume,
		"Blueprint":      renderBlueprint(dc.Blueprint),
		"Transcript":     transcript.Render(history),
		"AskedQuestions": strconv.Itoa(dc.Session.CurrentQuestionIndex),
		"MaxQuestions":   strconv.Itoa(dc.Session.MaxQuestions),
	}
	if dc.SolicitFollowUp && dc.LastAnswer != nil {
		data["LastAnswer"] = dc.LastAnswer.Answer
	}
	return prompts.Format(template, data), nil
}

func renderBlueprint(bp *types.InterviewBlueprint) string {
	if bp == nil {
		return "(no blueprint prepared)"
	}
	data, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		return "(no blueprint prepared)"
	}
	return string(data)
}
