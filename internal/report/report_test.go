package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/Iron-Ham/tandem/internal/errors"
)

func TestFormat_InitializationError(t *testing.T) {
	cause := errors.NewCreationError("tmux new-session failed", fmt.Errorf("no such file")).WithSource("/d/doc_fr.txt")
	err := errors.NewInitializationError("could not open instance", cause).
		WithSource("/d/doc_fr.txt", 1).
		WithCreated([]string{"doc-1"})

	var buf bytes.Buffer
	New("DocSuite", &buf).Report(err)
	out := buf.String()

	for _, want := range []string{
		"DocSuite could not open the requested documents",
		"Caused by:",
		"no such file",
		"Failed source: /d/doc_fr.txt (position 2)",
		"Opened before the failure: doc-1",
		"Stack trace:",
		"TestFormat_InitializationError",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestFormat_HideStack(t *testing.T) {
	err := errors.NewInitializationError("no document sources given", nil)

	r := New("tandem", &bytes.Buffer{})
	r.ShowStack = false

	if out := r.Format(err); strings.Contains(out, "Stack trace:") {
		t.Errorf("stack trace shown with ShowStack=false:\n%s", out)
	}
}

func TestFormat_PartialCloseError(t *testing.T) {
	err := &errors.PartialCloseError{
		Attempted: 2,
		Failures: []*errors.OperationError{
			errors.NewOperationError("delete", errors.ErrToolUnavailable).WithInstanceID("doc-2"),
		},
	}

	out := New("tandem", &bytes.Buffer{}).Format(err)

	if !strings.Contains(out, "tandem could not close every document") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "Still open:") || !strings.Contains(out, "doc-2") {
		t.Errorf("missing failed instance:\n%s", out)
	}
}

func TestFormat_PlainError(t *testing.T) {
	out := New("", &bytes.Buffer{}).Format(fmt.Errorf("boom"))

	if !strings.HasPrefix(out, "tandem failed unexpectedly") {
		t.Errorf("expected default name and unexpected-failure header, got:\n%s", out)
	}
	if strings.Contains(out, "Caused by:") {
		t.Errorf("plain error should have no cause section:\n%s", out)
	}
}

func TestReport_Nil(t *testing.T) {
	var buf bytes.Buffer
	New("tandem", &buf).Report(nil)
	if buf.Len() != 0 {
		t.Errorf("nil error produced output %q", buf.String())
	}
}

func TestCauseChain(t *testing.T) {
	inner := fmt.Errorf("disk full")
	mid := fmt.Errorf("save failed: %w", inner)
	joined := errors.Join(mid, fmt.Errorf("other"))
	top := fmt.Errorf("close: %w", joined)

	got := causeChain(top)
	want := []string{joined.Error(), "save failed: disk full", "disk full", "other"}
	if len(got) != len(want) {
		t.Fatalf("causeChain() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("causeChain()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// classifiedError is a stack-carrying error with an explicit classification.
type classifiedError struct {
	severity   errors.Severity
	retryable  bool
	userFacing bool
}

func (e *classifiedError) Error() string             { return "tool hiccup" }
func (e *classifiedError) Unwrap() error             { return nil }
func (e *classifiedError) Is(error) bool             { return false }
func (e *classifiedError) Severity() errors.Severity { return e.severity }
func (e *classifiedError) IsRetryable() bool         { return e.retryable }
func (e *classifiedError) IsUserFacing() bool        { return e.userFacing }
func (e *classifiedError) StackTrace() []string      { return []string{"frame.go:1"} }

func TestFormat_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        *classifiedError
		wantHeader string
		wantStack  bool
		wantRetry  bool
	}{
		{
			name:       "warning hides stack",
			err:        &classifiedError{severity: errors.SeverityWarning, userFacing: true},
			wantHeader: "tandem failed\n",
		},
		{
			name:       "error shows stack",
			err:        &classifiedError{severity: errors.SeverityError, userFacing: true},
			wantHeader: "tandem failed\n",
			wantStack:  true,
		},
		{
			name:       "internal error",
			err:        &classifiedError{severity: errors.SeverityCritical},
			wantHeader: "tandem failed unexpectedly",
			wantStack:  true,
		},
		{
			name:       "retryable",
			err:        &classifiedError{severity: errors.SeverityWarning, retryable: true, userFacing: true},
			wantHeader: "tandem failed\n",
			wantRetry:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New("tandem", &bytes.Buffer{}).Format(tt.err)

			if !strings.HasPrefix(out, tt.wantHeader) {
				t.Errorf("header: want prefix %q, got:\n%s", tt.wantHeader, out)
			}
			if got := strings.Contains(out, "Stack trace:"); got != tt.wantStack {
				t.Errorf("stack shown = %v, want %v:\n%s", got, tt.wantStack, out)
			}
			if got := strings.Contains(out, "running the command again"); got != tt.wantRetry {
				t.Errorf("retry hint shown = %v, want %v:\n%s", got, tt.wantRetry, out)
			}
		})
	}
}
