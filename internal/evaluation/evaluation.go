// Package evaluation aggregates a finished interview into a structured
// report. One scoring call covers the whole transcript; whatever comes back
// is sanitized field by field, so the report is always complete and within
// its documented ranges no matter what the model produced.
package evaluation

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/prompts"
	"github.com/Sukhwinder-i0/komyra-ai/internal/transcript"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// Evaluator scores transcripts with an LLM client.
type Evaluator struct {
	client llm.Client
}

// NewEvaluator creates an evaluator on top of an LLM client.
func NewEvaluator(client llm.Client) *Evaluator {
	return &Evaluator{client: client}
}

// Evaluate issues one scoring call for the transcript and returns a sanitized
// report. It never returns an error: transport failures and unusable output
// degrade to FallbackResult so a report can always be rendered.
func (e *Evaluator) Evaluate(ctx context.Context, entries []types.InterviewAnswer, ic types.InterviewContext, bp *types.InterviewBlueprint) *types.EvaluationResult {
	prompt, err := buildScoringPrompt(entries, ic, bp)
	if err != nil {
		log.Printf("[evaluation] prompt assembly failed: %v", err)
		return FallbackResult()
	}

	raw, err := e.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		log.Printf("[evaluation] scoring call failed: %v", err)
		return FallbackResult()
	}

	obj, ok := llm.FirstJSONObject(raw)
	if !ok {
		log.Printf("[evaluation] no JSON object in scoring output (%d bytes)", len(raw))
		return FallbackResult()
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		log.Printf("[evaluation] scoring output undecodable: %v", err)
		return FallbackResult()
	}

	return Sanitize(fields)
}

func buildScoringPrompt(entries []types.InterviewAnswer, ic types.InterviewContext, bp *types.InterviewBlueprint) (string, error) {
	template, err := prompts.Get("evaluation.json", "score-transcript")
	if err != nil {
		return "", err
	}

	blueprint := "(no blueprint prepared)"
	if bp != nil {
		if data, err := json.MarshalIndent(bp, "", "  "); err == nil {
			blueprint = string(data)
		}
	}

	return prompts.Format(template, map[string]string{
		"RoleTitle":      ic.RoleTitle,
		"JobDescription": ic.JobDescription,
		"Resume":         ic.Resume,
		"Blueprint":      blueprint,
		"Transcript":     transcript.Render(entries),
	}), nil
}
