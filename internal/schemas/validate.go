// Package schemas guards the session payloads that cross process boundaries.
// A payload that fails structural validation is rejected outright; progression
// rules never run against a session reconstructed by guesswork.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Sukhwinder-i0/komyra-ai/internal/types"
)

//go:embed interview_session.schema.json
var sessionSchema string

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("session payload invalid:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load session schema: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load session schema: %s", e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// ValidateSessionPayload validates raw JSON against the session schema.
// Returns nil on success, *ValidationError on a structurally invalid payload.
func ValidateSessionPayload(payload []byte) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(sessionSchema))
	if err != nil {
		return &SchemaLoadError{Message: "embedded session schema does not compile", Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		// Validate only errors here when the document is not parseable JSON.
		return &ValidationError{Errors: []FieldError{{
			Field:   "(root)",
			Message: err.Error(),
		}}}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// DecodeSession validates and decodes a session payload in one step.
func DecodeSession(payload []byte) (*types.InterviewSession, error) {
	if err := ValidateSessionPayload(payload); err != nil {
		return nil, err
	}

	var session types.InterviewSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, &ValidationError{Errors: []FieldError{{
			Field:   "(root)",
			Message: err.Error(),
		}}}
	}
	return &session, nil
}
