// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default interview shape when neither config nor flags say otherwise.
const (
	DefaultMaxQuestions = 5
	DefaultMaxFollowups = 2
	DefaultPort         = 8080
)

// Config represents the application configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Paths
	Job        string `json:"job,omitempty"`         // Path to job description text file
	JobURL     string `json:"job_url,omitempty"`     // URL to fetch the job posting from
	Resume     string `json:"resume,omitempty"`      // Path to candidate resume text file
	PresetFile string `json:"preset_file,omitempty"` // Path to interview preset YAML

	// Interview shape
	RoleTitle    string `json:"role_title,omitempty"`    // Role the candidate is interviewed for
	MaxQuestions int    `json:"max_questions,omitempty"` // Main question budget per session
	MaxFollowups int    `json:"max_followups,omitempty"` // Follow-up budget per main question

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Port        int    `json:"port,omitempty"`         // HTTP listen port
	UseBrowser  bool   `json:"use_browser,omitempty"`  // Use headless browser for SPA job boards
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	// Validate mutually exclusive fields
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}

	// Validate numeric ranges
	if c.MaxQuestions < 0 {
		return fmt.Errorf("config error: 'max_questions' must be non-negative")
	}
	if c.MaxFollowups < 0 {
		return fmt.Errorf("config error: 'max_followups' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}

	// Validate file paths exist (if specified)
	if c.Job != "" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}
	if c.Resume != "" {
		if _, err := os.Stat(c.Resume); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.Resume)
		}
	}
	if c.PresetFile != "" {
		if _, err := os.Stat(c.PresetFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: preset file not found: %s", c.PresetFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Job == "" {
		result.Job = defaults.Job
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.Resume == "" {
		result.Resume = defaults.Resume
	}
	if result.PresetFile == "" {
		result.PresetFile = defaults.PresetFile
	}
	if result.RoleTitle == "" {
		result.RoleTitle = defaults.RoleTitle
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.MaxQuestions == 0 {
		if defaults.MaxQuestions > 0 {
			result.MaxQuestions = defaults.MaxQuestions
		} else {
			result.MaxQuestions = DefaultMaxQuestions
		}
	}
	if result.MaxFollowups == 0 {
		if defaults.MaxFollowups > 0 {
			result.MaxFollowups = defaults.MaxFollowups
		} else {
			result.MaxFollowups = DefaultMaxFollowups
		}
	}
	if result.Port == 0 {
		if defaults.Port > 0 {
			result.Port = defaults.Port
		} else {
			result.Port = DefaultPort
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
