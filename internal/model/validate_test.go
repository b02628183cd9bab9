package model

import (
	"errors"
	"strings"
	"testing"
)

// validInitiative returns an Initiative that passes all validation rules.
func validInitiative() Initiative {
	return Initiative{
		ProjectID: "pj-1",
		Title:     "Migrate billing to the new ledger",
		Phase:     1,
		Status:    InitiativeNotStarted,
	}
}

func validTask() Task {
	return Task{
		ProjectID:      "pj-1",
		Title:          "Write ledger importer",
		EstimatedHours: 8,
		Status:         TaskTodo,
		Priority:       PriorityNormal,
	}
}

// fieldErrors extracts a *ValidationError from err or fails the test.
func fieldErrors(t *testing.T, err error) []FieldError {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	return ve.Errors
}

// hasFieldError reports whether the error list contains an error for the given field.
func hasFieldError(errs []FieldError, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func TestValidateInitiative_Valid(t *testing.T) {
	in := validInitiative()
	if err := ValidateInitiative(&in); err != nil {
		t.Fatalf("expected valid initiative, got: %v", err)
	}
}

func TestValidateInitiative_Rules(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Initiative)
		field  string
	}{
		{"empty title", func(in *Initiative) { in.Title = "" }, "title"},
		{"whitespace title", func(in *Initiative) { in.Title = " \t\n " }, "title"},
		{"long title", func(in *Initiative) { in.Title = strings.Repeat("a", 501) }, "title"},
		{"missing project", func(in *Initiative) { in.ProjectID = "" }, "project_id"},
		{"phase zero", func(in *Initiative) { in.Phase = 0 }, "phase"},
		{"bad status", func(in *Initiative) { in.Status = "paused" }, "status"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := validInitiative()
			tc.mutate(&in)
			if errs := fieldErrors(t, ValidateInitiative(&in)); !hasFieldError(errs, tc.field) {
				t.Errorf("expected error on field %q, got %v", tc.field, errs)
			}
		})
	}
}

func TestValidateInitiative_TitleExactly500(t *testing.T) {
	in := validInitiative()
	in.Title = strings.Repeat("a", 500)
	if err := ValidateInitiative(&in); err != nil {
		t.Errorf("title with exactly 500 chars should be valid, got: %v", err)
	}
}

func TestValidateInitiative_MultipleErrors(t *testing.T) {
	in := Initiative{}
	errs := fieldErrors(t, ValidateInitiative(&in))
	for _, field := range []string{"title", "project_id", "phase", "status"} {
		if !hasFieldError(errs, field) {
			t.Errorf("expected error on field %q", field)
		}
	}
}

func TestValidateDependency(t *testing.T) {
	for _, tc := range []struct {
		name  string
		dep   Dependency
		field string
	}{
		{"valid blocks", Dependency{FromInitiativeID: "a", ToInitiativeID: "b", Type: DepBlocks}, ""},
		{"valid self loop", Dependency{FromInitiativeID: "a", ToInitiativeID: "a", Type: DepBlocks}, ""},
		{"missing from", Dependency{ToInitiativeID: "b", Type: DepBlocks}, "from_initiative_id"},
		{"missing to", Dependency{FromInitiativeID: "a", Type: DepRelates}, "to_initiative_id"},
		{"unknown type", Dependency{FromInitiativeID: "a", ToInitiativeID: "b", Type: "parent-child"}, "type"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDependency(&tc.dep)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected valid dependency, got: %v", err)
				}
				return
			}
			if errs := fieldErrors(t, err); !hasFieldError(errs, tc.field) {
				t.Errorf("expected error on field %q, got %v", tc.field, errs)
			}
		})
	}
}

func TestValidateTask(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Task)
		field  string
	}{
		{"valid", func(*Task) {}, ""},
		{"zero estimate", func(tk *Task) { tk.EstimatedHours = 0 }, ""},
		{"negative estimate", func(tk *Task) { tk.EstimatedHours = -1 }, "estimated_hours"},
		{"bad status", func(tk *Task) { tk.Status = "closed" }, "status"},
		{"bad priority", func(tk *Task) { tk.Priority = "p0" }, "priority"},
		{"missing title", func(tk *Task) { tk.Title = "" }, "title"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tk := validTask()
			tc.mutate(&tk)
			err := ValidateTask(&tk)
			if tc.field == "" {
				if err != nil {
					t.Fatalf("expected valid task, got: %v", err)
				}
				return
			}
			if errs := fieldErrors(t, err); !hasFieldError(errs, tc.field) {
				t.Errorf("expected error on field %q, got %v", tc.field, errs)
			}
		})
	}
}

func TestValidateProject(t *testing.T) {
	if err := ValidateProject(&Project{OrganizationID: "org-1", Name: "Platform"}); err != nil {
		t.Fatalf("expected valid project, got: %v", err)
	}
	errs := fieldErrors(t, ValidateProject(&Project{}))
	if !hasFieldError(errs, "name") || !hasFieldError(errs, "organization_id") {
		t.Errorf("expected name and organization_id errors, got %v", errs)
	}
}

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{}
	ve.Add("title", "is required")
	ve.Add("phase", "must be 1 or greater")
	want := "validation failed: title: is required; phase: must be 1 or greater"
	if got := ve.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
