package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePresetFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPresets_Valid(t *testing.T) {
	path := writePresetFile(t, `
presets:
  - name: backend-standard
    role_title: Backend Engineer
    max_questions: 4
    max_followups: 1
    focus_areas:
      - distributed systems
      - service ownership
    opening_question: "Walk me through a system you designed end to end."
  - name: frontend-short
    role_title: Frontend Engineer
    max_questions: 2
    max_followups: 0
`)

	presets, err := LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, presets, 2)

	assert.Equal(t, "backend-standard", presets[0].Name)
	assert.Equal(t, "Backend Engineer", presets[0].RoleTitle)
	assert.Equal(t, 4, presets[0].MaxQuestions)
	assert.Equal(t, 1, presets[0].MaxFollowups)
	assert.Len(t, presets[0].FocusAreas, 2)
	assert.NotEmpty(t, presets[0].OpeningQuestion)

	// Zero follow-ups is a legitimate preset choice.
	assert.Equal(t, 0, presets[1].MaxFollowups)
}

func TestLoadPresets_FileNotFound(t *testing.T) {
	presets, err := LoadPresets("/nonexistent/presets.yaml")
	assert.Error(t, err)
	assert.Nil(t, presets)
	assert.Contains(t, err.Error(), "failed to read preset file")
}

func TestLoadPresets_MalformedYAML(t *testing.T) {
	path := writePresetFile(t, "presets: [name: {unclosed")

	presets, err := LoadPresets(path)
	assert.Error(t, err)
	assert.Nil(t, presets)
	assert.Contains(t, err.Error(), "failed to parse preset YAML")
}

func TestLoadPresets_Empty(t *testing.T) {
	path := writePresetFile(t, "presets: []")

	presets, err := LoadPresets(path)
	assert.Error(t, err)
	assert.Nil(t, presets)
	assert.Contains(t, err.Error(), "declares no presets")
}

func TestLoadPresets_InvalidPreset(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name: "missing name",
			content: `
presets:
  - role_title: Backend Engineer
    max_questions: 3
`,
			errMsg: "must have a name",
		},
		{
			name: "missing role title",
			content: `
presets:
  - name: nameless-role
    max_questions: 3
`,
			errMsg: "role_title",
		},
		{
			name: "zero questions",
			content: `
presets:
  - name: empty-interview
    role_title: Backend Engineer
    max_questions: 0
`,
			errMsg: "max_questions",
		},
		{
			name: "negative followups",
			content: `
presets:
  - name: negative-followups
    role_title: Backend Engineer
    max_questions: 3
    max_followups: -1
`,
			errMsg: "max_followups",
		},
		{
			name: "duplicate names",
			content: `
presets:
  - name: twin
    role_title: Backend Engineer
    max_questions: 3
  - name: twin
    role_title: Frontend Engineer
    max_questions: 3
`,
			errMsg: "duplicate preset name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePresetFile(t, tt.content)

			presets, err := LoadPresets(path)
			require.Error(t, err)
			assert.Nil(t, presets)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFindPreset(t *testing.T) {
	presets := []Preset{
		{Name: "backend-standard", RoleTitle: "Backend Engineer", MaxQuestions: 4},
		{Name: "frontend-short", RoleTitle: "Frontend Engineer", MaxQuestions: 2},
	}

	found, ok := FindPreset(presets, "frontend-short")
	require.True(t, ok)
	assert.Equal(t, "Frontend Engineer", found.RoleTitle)

	_, ok = FindPreset(presets, "unknown")
	assert.False(t, ok)
}
