package types

import "strings"

// OracleDecision is the oracle's answer to one decision request. It arrives
// from an untrusted text-generation service: every field is re-validated by
// the progression rules before it can affect session state.
type OracleDecision struct {
	// Question is the next question to pose. Absent or blank means the oracle
	// has nothing further to ask and the interview should conclude.
	Question string `json:"question,omitempty"`
	// WantsFollowUp requests a follow-up on the candidate's previous answer.
	// It is honored only while follow-up eligibility holds.
	WantsFollowUp bool `json:"wantsFollowUp"`
	// Reasoning is an optional free-text rationale, surfaced for transparency only.
	Reasoning string `json:"reasoning,omitempty"`
}

// HasQuestion reports whether the decision carries a non-blank question.
func (d *OracleDecision) HasQuestion() bool {
	return d != nil && strings.TrimSpace(d.Question) != ""
}
