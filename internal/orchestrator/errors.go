package orchestrator

import "fmt"

// ValidationError reports client-fixable input problems: missing context
// fields, malformed session copies, budgets out of range. Transports map it
// to a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// AccessDeniedError reports a failed access code check. Transports map it to
// a 401.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Message)
}
