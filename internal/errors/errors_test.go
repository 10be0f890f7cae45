package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Tool Error Tests
// -----------------------------------------------------------------------------

func TestCreationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CreationError
		want string
	}{
		{
			name: "message only",
			err:  NewCreationError("editor missing", nil),
			want: "creation error: editor missing",
		},
		{
			name: "with source and cause",
			err:  NewCreationError("editor missing", fmt.Errorf("exit status 127")).WithSource("doc_fr.txt"),
			want: "creation error [source=doc_fr.txt]: editor missing: exit status 127",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCreationError_Is(t *testing.T) {
	err := NewCreationError("boom", nil)
	if !errors.Is(err, ErrCreationFailed) {
		t.Error("CreationError should match ErrCreationFailed")
	}
	if !errors.Is(err, &CreationError{}) {
		t.Error("CreationError should match *CreationError")
	}
	if errors.Is(err, ErrDeletionFailed) {
		t.Error("CreationError should not match ErrDeletionFailed")
	}
}

func TestDeletionError(t *testing.T) {
	err := NewDeletionError("kill-session failed", ErrToolUnavailable).WithInstanceID("tandem-2")

	want := "deletion error [instance=tandem-2]: kill-session failed: tool unavailable"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrDeletionFailed) {
		t.Error("DeletionError should match ErrDeletionFailed")
	}
	if !errors.Is(err, ErrToolUnavailable) {
		t.Error("DeletionError should match its cause")
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
}

// -----------------------------------------------------------------------------
// Coordinator Error Tests
// -----------------------------------------------------------------------------

func TestInitializationError(t *testing.T) {
	cause := NewCreationError("no such file", nil).WithSource("doc_fr")
	err := NewInitializationError("could not open instance", cause).
		WithSource("doc_fr", 1).
		WithCreated([]string{"tandem-1"})

	want := "initialization error [source=doc_fr, index=1, created=1]: could not open instance: creation error [source=doc_fr]: no such file"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}

	var creationErr *CreationError
	if !errors.As(err, &creationErr) {
		t.Fatal("errors.As should find the CreationError cause")
	}
	if creationErr.Source != "doc_fr" {
		t.Errorf("cause Source = %q, want %q", creationErr.Source, "doc_fr")
	}
}

func TestInitializationError_StackTrace(t *testing.T) {
	err := NewInitializationError("boom", nil)

	trace := err.StackTrace()
	if len(trace) == 0 {
		t.Fatal("StackTrace() should not be empty")
	}
	if !strings.Contains(trace[0], "TestInitializationError_StackTrace") {
		t.Errorf("first frame = %q, want it to name the calling test", trace[0])
	}
}

func TestInitializationError_NoIndex(t *testing.T) {
	err := NewInitializationError("registration failed", ErrRegistrationFailed)
	if strings.Contains(err.Error(), "index=") {
		t.Errorf("Error() = %q, should omit index when unset", err.Error())
	}
	if !errors.Is(err, ErrRegistrationFailed) {
		t.Error("InitializationError should match its cause")
	}
}

func TestOperationError(t *testing.T) {
	err := NewOperationError("delete", ErrDeletionFailed).WithInstanceID("tandem-1")

	want := "operation error [instance=tandem-1]: delete failed: instance deletion failed"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrOperationFailed) {
		t.Error("OperationError should match ErrOperationFailed")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestPartialCloseError(t *testing.T) {
	first := NewOperationError("delete", NewDeletionError("gone", nil)).WithInstanceID("a")
	second := NewOperationError("delete", ErrToolUnavailable).WithInstanceID("b")

	t.Run("single failure", func(t *testing.T) {
		err := &PartialCloseError{Failures: []*OperationError{first}, Attempted: 2}
		if !strings.HasPrefix(err.Error(), "close incomplete (1 of 2 failed)") {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("multiple failures", func(t *testing.T) {
		err := &PartialCloseError{Failures: []*OperationError{first, second}, Attempted: 3}
		msg := err.Error()
		if !strings.HasPrefix(msg, "close incomplete (2 of 3 failed):") {
			t.Errorf("Error() = %q", msg)
		}
		if !strings.Contains(msg, "1. operation error [instance=a]") || !strings.Contains(msg, "2. operation error [instance=b]") {
			t.Errorf("Error() should list every failure, got %q", msg)
		}
	})

	t.Run("unwrap reaches causes", func(t *testing.T) {
		var err error = &PartialCloseError{Failures: []*OperationError{first, second}, Attempted: 2}
		if !errors.Is(err, ErrToolUnavailable) {
			t.Error("errors.Is should reach the second failure's cause")
		}
		var delErr *DeletionError
		if !errors.As(err, &delErr) {
			t.Error("errors.As should reach the first failure's DeletionError")
		}
	})
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("instance", "tandem-9")
	if got, want := err.Error(), "instance 'tandem-9' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = err.WithCause(ErrInstanceDeleted)
	if !errors.Is(err, ErrInstanceDeleted) {
		t.Error("NotFoundError should match its cause")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("must not be empty").WithField("sources").WithValue("")

	if got, want := err.Error(), "validation error [field=sources, value=]: must not be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("x"), false},
		{"creation error", NewCreationError("x", nil), false},
		{"wrapped operation error", Wrap(NewOperationError("delete", nil), "ctx"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("x"), false},
		{"validation error", NewValidationError("bad"), true},
		{"partial close", &PartialCloseError{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityDebug},
		{"plain error", errors.New("x"), SeverityError},
		{"initialization", NewInitializationError("x", nil), SeverityCritical},
		{"partial close", &PartialCloseError{}, SeverityWarning},
		{"wrapped creation", Wrapf(NewCreationError("x", nil), "opening %s", "a"), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrInstanceDeleted, "deleting %s", "tandem-1")
	if got, want := err.Error(), "deleting tandem-1: instance already deleted"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInstanceDeleted) {
		t.Error("Wrapf should preserve the chain")
	}
}
