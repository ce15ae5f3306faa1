// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrapText splits text into lines no wider than width, breaking on spaces.
// Questions and summaries must stay fully readable; truncation is for labels.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

// writeList appends a titled bullet list, capped at limit items.
func writeList(sb *strings.Builder, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		item := items[i]
		if len(item) > 50 {
			item = item[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintBlueprint outputs a human-readable summary of the interview blueprint.
func (p *Printer) PrintBlueprint(bp *types.InterviewBlueprint) {
	if bp == nil {
		return
	}

	var sb strings.Builder
	writeList(&sb, "Core Skills", bp.CoreSkills, maxItemsToShow)
	writeList(&sb, "Experience Highlights", bp.ExperienceHighlights, 3)
	writeList(&sb, "Skill Gaps", bp.SkillGaps, 3)
	writeList(&sb, "Focus Areas", bp.FocusAreas, 3)
	writeList(&sb, "Question Themes", bp.QuestionThemes, 3)

	content := strings.TrimSuffix(sb.String(), "\n")
	if content == "" {
		content = "(no analysis available)"
	}

	p.printBox("INTERVIEW BLUEPRINT", content)
}

// PrintTurn outputs the question issued by one progression step, or the
// completion notice when the interview just finished.
func (p *Printer) PrintTurn(turn *types.TurnResponse) {
	if turn == nil {
		return
	}

	if turn.InterviewComplete && turn.Question == "" {
		var sb strings.Builder
		if turn.Session != nil {
			sb.WriteString(fmt.Sprintf("Questions answered: %d\n", len(turn.Session.ConversationHistory)))
		}
		sb.WriteString("The interview is over. An evaluation can now be run.")
		p.printBox("INTERVIEW COMPLETE", sb.String())
		return
	}

	title := "QUESTION"
	if s := turn.Session; s != nil {
		if turn.QuestionType == types.QuestionFollowup {
			title = fmt.Sprintf("FOLLOW-UP %d/%d (question %d)", s.FollowupCount, s.MaxFollowups, s.CurrentQuestionIndex)
		} else {
			title = fmt.Sprintf("QUESTION %d/%d", s.CurrentQuestionIndex, s.MaxQuestions)
		}
	}
	if turn.InterviewComplete {
		// The last main question is flagged complete while still awaiting
		// its answer.
		title += " (last)"
	}

	var sb strings.Builder
	for _, line := range wrapText(turn.Question, boxWidth-6) {
		sb.WriteString(line + "\n")
	}
	if turn.Reasoning != "" {
		sb.WriteString("\n")
		for _, line := range wrapText("Oracle: "+turn.Reasoning, boxWidth-6) {
			sb.WriteString(line + "\n")
		}
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTranscript outputs the conversation so far, most recent last.
func (p *Printer) PrintTranscript(history []types.InterviewAnswer) {
	if len(history) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Turns recorded: %d\n\n", len(history)))

	start := 0
	if len(history) > maxItemsToShow {
		start = len(history) - maxItemsToShow
		sb.WriteString(fmt.Sprintf("... %d earlier turns omitted\n\n", start))
	}

	for i := start; i < len(history); i++ {
		entry := history[i]
		question := entry.Question
		if len(question) > 45 {
			question = question[:42] + "..."
		}
		answer := entry.Answer
		if len(answer) > 45 {
			answer = answer[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("[%s] %s\n", entry.QuestionType, question))
		sb.WriteString(fmt.Sprintf("  A: %s\n", answer))
		if i < len(history)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("TRANSCRIPT", sb.String())
}

// PrintReport outputs the evaluation verdict, scores and findings.
func (p *Printer) PrintReport(result *types.EvaluationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s Verdict: %s\n\n", verdictGlyph(result.Verdict), result.Verdict))
	sb.WriteString(fmt.Sprintf("Alignment:        %3.0f%%\n", result.Alignment))
	sb.WriteString(fmt.Sprintf("Technical:        %3.0f/10\n", result.Technical))
	sb.WriteString(fmt.Sprintf("Communication:    %3.0f/10\n", result.Communication))
	sb.WriteString(fmt.Sprintf("Problem solving:  %3.0f/10\n", result.ProblemSolving))
	sb.WriteString("\n")

	writeList(&sb, "Strengths", result.Strengths, 3)
	writeList(&sb, "Weaknesses", result.Weaknesses, 3)

	if result.Summary != "" {
		sb.WriteString("Summary:\n")
		for _, line := range wrapText(result.Summary, boxWidth-6) {
			sb.WriteString(line + "\n")
		}
	}

	p.printBox("EVALUATION REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

func verdictGlyph(v types.Verdict) string {
	switch v {
	case types.VerdictFit:
		return "✅"
	case types.VerdictReject:
		return "❌"
	default:
		return "⚠"
	}
}
