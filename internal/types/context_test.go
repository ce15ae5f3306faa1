package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterviewContext_Validation(t *testing.T) {
	tests := []struct {
		name    string
		ctx     InterviewContext
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid context",
			ctx: InterviewContext{
				JobDescription: "We need a Go engineer for our payments platform.",
				Resume:         "Five years of Go, previously at a fintech.",
				RoleTitle:      "Backend Engineer",
			},
			wantErr: false,
		},
		{
			name: "missing job description",
			ctx: InterviewContext{
				Resume:    "Five years of Go.",
				RoleTitle: "Backend Engineer",
			},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name: "missing resume",
			ctx: InterviewContext{
				JobDescription: "We need a Go engineer.",
				RoleTitle:      "Backend Engineer",
			},
			wantErr: true,
			errMsg:  "required",
		},
		{
			name: "missing role title",
			ctx: InterviewContext{
				JobDescription: "We need a Go engineer.",
				Resume:         "Five years of Go.",
			},
			wantErr: true,
			errMsg:  "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctx.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}
