package evaluation

import (
	"math"
	"strconv"
	"strings"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// PlaceholderSummary replaces a missing or wrongly typed summary field.
const PlaceholderSummary = "No summary was provided for this interview."

// FallbackSummary marks a report produced without any model output.
const FallbackSummary = "The evaluation service was unavailable. Scores are placeholders; regenerate this report."

// Sanitize coerces decoded scoring output into a well-formed report.
// Numeric fields are clamped to their ranges with non-numeric values mapped
// to the range floor; list fields drop non-string elements and default to
// empty; the verdict defaults to Maybe outside the three-value enum.
func Sanitize(fields map[string]any) *types.EvaluationResult {
	return &types.EvaluationResult{
		Alignment:      clampNumber(fields["alignment"], 0, 100),
		Technical:      clampNumber(fields["technical"], 0, 10),
		Communication:  clampNumber(fields["communication"], 0, 10),
		ProblemSolving: clampNumber(fields["problem_solving"], 0, 10),
		Strengths:      stringList(fields["strengths"]),
		Weaknesses:     stringList(fields["weaknesses"]),
		Verdict:        sanitizeVerdict(fields["verdict"]),
		Summary:        sanitizeSummary(fields["summary"]),
	}
}

// FallbackResult is the complete fixed report returned when scoring fails
// entirely.
func FallbackResult() *types.EvaluationResult {
	return &types.EvaluationResult{
		Strengths:  []string{},
		Weaknesses: []string{},
		Verdict:    types.VerdictMaybe,
		Summary:    FallbackSummary,
	}
}

func clampNumber(v any, lo, hi float64) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return lo
	}
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// toFloat accepts JSON numbers and numeric strings; models routinely quote
// their scores.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func sanitizeVerdict(v any) types.Verdict {
	s, ok := v.(string)
	if !ok {
		return types.VerdictMaybe
	}
	for _, known := range []types.Verdict{types.VerdictFit, types.VerdictMaybe, types.VerdictReject} {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return types.VerdictMaybe
}

func sanitizeSummary(v any) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return PlaceholderSummary
	}
	return strings.TrimSpace(s)
}
