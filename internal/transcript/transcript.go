// Package transcript renders the append-only log of answered turns into the
// text form the generation and scoring prompts consume.
package transcript

import (
	"fmt"
	"strings"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// Render formats answered turns in order, labeling each entry as a main
// question or a follow-up so the scoring model can weigh them differently.
func Render(entries []types.InterviewAnswer) string {
	if len(entries) == 0 {
		return "(no answers recorded yet)"
	}

	var sb strings.Builder
	for i, e := range entries {
		label := "main"
		if e.QuestionType == types.QuestionFollowup {
			label = fmt.Sprintf("follow-up to main question %d", e.ParentIndex)
		}
		fmt.Fprintf(&sb, "Q%d (%s): %s\n", i+1, label, e.Question)
		fmt.Fprintf(&sb, "A%d: %s\n", i+1, e.Answer)
	}
	return strings.TrimRight(sb.String(), "\n")
}
