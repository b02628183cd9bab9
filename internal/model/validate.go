package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// NewValidationError returns a ValidationError with a single field error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func validateTitle(ve *ValidationError, field, value string, limit int) {
	v := strings.TrimSpace(value)
	if v == "" {
		ve.Add(field, "is required")
	} else if len([]rune(v)) > limit {
		ve.Add(field, fmt.Sprintf("must be %d characters or fewer", limit))
	}
}

// ValidateProject checks a Project for constraint violations.
func ValidateProject(p *Project) error {
	var ve ValidationError
	validateTitle(&ve, "name", p.Name, 200)
	if strings.TrimSpace(p.OrganizationID) == "" {
		ve.Add("organization_id", "is required")
	}
	return ve.orNil()
}

// ValidateInitiative checks an Initiative for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the initiative is valid.
func ValidateInitiative(in *Initiative) error {
	var ve ValidationError

	validateTitle(&ve, "title", in.Title, 500)

	if strings.TrimSpace(in.ProjectID) == "" {
		ve.Add("project_id", "is required")
	}

	// Phase: ordinal starting at 1.
	if in.Phase < 1 {
		ve.Add("phase", fmt.Sprintf("must be 1 or greater, got %d", in.Phase))
	}

	if !in.Status.IsValid() {
		ve.Add("status", fmt.Sprintf("invalid value %q", in.Status))
	}

	return ve.orNil()
}

// ValidateDependency checks the shape of a Dependency. Existence of the
// endpoints and same-project membership are checked against the store.
func ValidateDependency(d *Dependency) error {
	var ve ValidationError

	if strings.TrimSpace(d.FromInitiativeID) == "" {
		ve.Add("from_initiative_id", "is required")
	}
	if strings.TrimSpace(d.ToInitiativeID) == "" {
		ve.Add("to_initiative_id", "is required")
	}
	if !d.Type.IsValid() {
		ve.Add("type", fmt.Sprintf("invalid value %q", d.Type))
	}

	return ve.orNil()
}

// ValidateTask checks a Task for constraint violations.
func ValidateTask(t *Task) error {
	var ve ValidationError

	validateTitle(&ve, "title", t.Title, 500)

	if strings.TrimSpace(t.ProjectID) == "" {
		ve.Add("project_id", "is required")
	}
	if t.EstimatedHours < 0 {
		ve.Add("estimated_hours", fmt.Sprintf("must not be negative, got %g", t.EstimatedHours))
	}
	if !t.Status.IsValid() {
		ve.Add("status", fmt.Sprintf("invalid value %q", t.Status))
	}
	if !t.Priority.IsValid() {
		ve.Add("priority", fmt.Sprintf("invalid value %q", t.Priority))
	}

	return ve.orNil()
}
