package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resumeStudio/internal/resume"
)

func TestValidateEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":            true,
		"first.last@x.io":   true,
		"a@b":               false,
		"a b@c.d":           false,
		"@b.co":             false,
		"a@@b.co":           false,
		"":                  false,
		"user@mail.example": true,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidateEmail(in), in)
	}
}

func TestValidatePhone(t *testing.T) {
	cases := map[string]bool{
		"+1 555-123-4567": true,
		"5551234567":      true,
		"555-1234":        false,
		"555123456a":      false,
		"++5551234567":    false,
		"":                false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidatePhone(in), in)
	}
}

func TestValidateForm_EmptyFieldsAreValid(t *testing.T) {
	assert.Empty(t, ValidateForm(resume.Default()))
}

func TestValidateForm_ReportsBothFields(t *testing.T) {
	errs := ValidateForm(resume.ResumeData{Email: "a@b", Phone: "555-1234"})

	assert.Equal(t, Errors{
		"email": EmailMessage,
		"phone": PhoneMessage,
	}, errs)
}

func TestValidateForm_OnlyInvalidFieldReported(t *testing.T) {
	errs := ValidateForm(resume.ResumeData{Email: "a@b.co", Phone: "12"})

	assert.NotContains(t, errs, "email")
	assert.Equal(t, PhoneMessage, errs["phone"])
}
