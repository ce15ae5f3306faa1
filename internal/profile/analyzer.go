// Package profile derives an interview blueprint from the job description and
// resume before questioning starts. The blueprint steers question generation
// and evaluation; analysis failures degrade to an empty blueprint so an
// interview can always proceed without one.
package profile

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/Sukhwinder-i0/komyra-ai/internal/llm"
	"github.com/Sukhwinder-i0/komyra-ai/internal/prompts"
	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

// Analyzer computes blueprints with an LLM client.
type Analyzer struct {
	client llm.Client
}

// NewAnalyzer creates an analyzer on top of an LLM client.
func NewAnalyzer(client llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze compares the candidate against the role and builds the blueprint.
// The returned analysis always carries a usable blueprint; Success is false
// when it is a fallback rather than real model output.
func (a *Analyzer) Analyze(ctx context.Context, ic types.InterviewContext) *types.ProfileAnalysis {
	template, err := prompts.Get("profile.json", "build-blueprint")
	if err != nil {
		log.Printf("[profile] prompt assembly failed: %v", err)
		return fallbackAnalysis()
	}

	prompt := prompts.Format(template, map[string]string{
		"RoleTitle":      ic.RoleTitle,
		"JobDescription": ic.JobDescription,
		"Resume":         ic.Resume,
	})

	raw, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		log.Printf("[profile] analysis call failed: %v", err)
		return fallbackAnalysis()
	}

	obj, ok := llm.FirstJSONObject(raw)
	if !ok {
		log.Printf("[profile] no JSON object in analysis output (%d bytes)", len(raw))
		return fallbackAnalysis()
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		log.Printf("[profile] analysis output undecodable: %v", err)
		return fallbackAnalysis()
	}

	return &types.ProfileAnalysis{
		Success: true,
		Blueprint: &types.InterviewBlueprint{
			CoreSkills:           stringList(fields["core_skills"]),
			ExperienceHighlights: stringList(fields["experience_highlights"]),
			SkillGaps:            stringList(fields["skill_gaps"]),
			FocusAreas:           stringList(fields["focus_areas"]),
			QuestionThemes:       stringList(fields["question_themes"]),
		},
	}
}

func fallbackAnalysis() *types.ProfileAnalysis {
	return &types.ProfileAnalysis{
		Success:   false,
		Blueprint: types.EmptyBlueprint(),
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
