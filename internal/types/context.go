package types

import "github.com/go-playground/validator/v10"

// InterviewContext is the material every oracle-backed operation needs: the
// job description, the candidate's resume and the role title. All three are
// required before any external call is made.
type InterviewContext struct {
	JobDescription string `json:"job_description" validate:"required,min=1"`
	Resume         string `json:"resume" validate:"required,min=1"`
	RoleTitle      string `json:"role_title" validate:"required,min=1"`
}

// Validate validates the InterviewContext using the validator.
func (c *InterviewContext) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}
