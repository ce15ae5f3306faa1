package types

// Verdict is the overall hiring recommendation of an evaluation.
type Verdict string

const (
	// VerdictFit recommends advancing the candidate
	VerdictFit Verdict = "Fit"
	// VerdictMaybe is the neutral default when evidence is mixed or missing
	VerdictMaybe Verdict = "Maybe"
	// VerdictReject recommends against the candidate
	VerdictReject Verdict = "Reject"
)

// ValidVerdict reports whether v is one of the three recognized verdicts.
func ValidVerdict(v Verdict) bool {
	switch v {
	case VerdictFit, VerdictMaybe, VerdictReject:
		return true
	}
	return false
}

// EvaluationResult is the structured report produced from a completed
// transcript. Numeric fields are clamped to their ranges and list fields are
// never nil, regardless of what the scoring model returned.
type EvaluationResult struct {
	// Alignment is the job-fit percentage in [0,100].
	Alignment float64 `json:"alignment"`
	// Technical, Communication and ProblemSolving are scores in [0,10].
	Technical      float64 `json:"technical"`
	Communication  float64 `json:"communication"`
	ProblemSolving float64 `json:"problem_solving"`

	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`

	Verdict Verdict `json:"verdict"`
	Summary string  `json:"summary"`
}
