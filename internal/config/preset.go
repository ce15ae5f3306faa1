// Package config provides interview preset loading.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset declares a reusable interview shape for a role. Presets let
// recruiters pin the question budget and focus of an interview instead of
// configuring each session by hand.
type Preset struct {
	Name            string   `yaml:"name"`
	RoleTitle       string   `yaml:"role_title"`
	MaxQuestions    int      `yaml:"max_questions"`
	MaxFollowups    int      `yaml:"max_followups"`
	FocusAreas      []string `yaml:"focus_areas,omitempty"`
	OpeningQuestion string   `yaml:"opening_question,omitempty"`
}

// presetFile is the YAML document shape.
type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresets loads and validates interview presets from a YAML file.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file %s: %w", path, err)
	}

	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse preset YAML: %w", err)
	}

	if len(file.Presets) == 0 {
		return nil, fmt.Errorf("preset file %s declares no presets", path)
	}

	seen := make(map[string]bool, len(file.Presets))
	for i := range file.Presets {
		p := &file.Presets[i]
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i+1, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate preset name: %s", p.Name)
		}
		seen[p.Name] = true
	}

	return file.Presets, nil
}

// Validate checks that a preset describes a runnable interview.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset must have a name")
	}
	if p.RoleTitle == "" {
		return fmt.Errorf("preset %s must have a role_title", p.Name)
	}
	if p.MaxQuestions < 1 {
		return fmt.Errorf("preset %s: max_questions must be at least 1, got %d", p.Name, p.MaxQuestions)
	}
	if p.MaxFollowups < 0 {
		return fmt.Errorf("preset %s: max_followups cannot be negative, got %d", p.Name, p.MaxFollowups)
	}
	return nil
}

// FindPreset returns the preset with the given name.
func FindPreset(presets []Preset, name string) (*Preset, bool) {
	for i := range presets {
		if presets[i].Name == name {
			return &presets[i], true
		}
	}
	return nil, false
}
