package types

// InterviewBlueprint is the profile-analysis artifact derived from the job
// description and resume before questioning starts. It is immutable once
// computed; question generation and evaluation both consume it as context.
type InterviewBlueprint struct {
	CoreSkills           []string `json:"core_skills"`
	ExperienceHighlights []string `json:"experience_highlights"`
	SkillGaps            []string `json:"skill_gaps"`
	FocusAreas           []string `json:"focus_areas"`
	QuestionThemes       []string `json:"question_themes"`
}

// EmptyBlueprint returns a blueprint with all lists present but empty, the
// fallback shape when profile analysis cannot produce real content.
func EmptyBlueprint() *InterviewBlueprint {
	return &InterviewBlueprint{
		CoreSkills:           []string{},
		ExperienceHighlights: []string{},
		SkillGaps:            []string{},
		FocusAreas:           []string{},
		QuestionThemes:       []string{},
	}
}

// ProfileAnalysis is the result of analyzing the interview context. Success
// is false when the blueprint is a fallback rather than real analysis; the
// blueprint itself is always usable.
type ProfileAnalysis struct {
	Success   bool                `json:"success"`
	Blueprint *InterviewBlueprint `json:"blueprint"`
}
