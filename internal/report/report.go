// Package report prints user-facing error reports for failures that stop
// tandem, most importantly a failed initialization.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/tui/styles"
)

// stackTracer is implemented by errors that captured a stack.
type stackTracer interface {
	StackTrace() []string
}

// Reporter writes error reports for one piece of software.
type Reporter struct {
	// SoftwareName names the program in report headers.
	SoftwareName string
	// ShowStack includes captured stack traces of errors at
	// errors.SeverityError and above.
	ShowStack bool

	out    io.Writer
	header lipgloss.Style
	warn   lipgloss.Style
	label  lipgloss.Style
	muted  lipgloss.Style
	bullet lipgloss.Style
}

// New returns a Reporter writing to out. Colors are used only when out is a
// terminal that supports them.
func New(softwareName string, out io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)
	return &Reporter{
		SoftwareName: softwareName,
		ShowStack:    true,
		out:          out,
		header:       r.NewStyle().Bold(true).Foreground(styles.ErrorColor),
		warn:         r.NewStyle().Bold(true).Foreground(styles.WarningColor),
		label:        r.NewStyle().Bold(true).Foreground(styles.PrimaryColor),
		muted:        r.NewStyle().Foreground(styles.MutedColor),
		bullet:       r.NewStyle().Foreground(styles.WarningColor),
	}
}

// Report writes the report for err. A nil err writes nothing.
func (r *Reporter) Report(err error) {
	if err == nil {
		return
	}
	_, _ = io.WriteString(r.out, r.Format(err))
}

// Format renders the report for err.
func (r *Reporter) Format(err error) string {
	var sb strings.Builder

	name := r.SoftwareName
	if name == "" {
		name = "tandem"
	}

	severity := errors.GetSeverity(err)
	header := r.header
	if severity < errors.SeverityError {
		header = r.warn
	}

	var initErr *errors.InitializationError
	var partial *errors.PartialCloseError
	switch {
	case errors.As(err, &initErr):
		sb.WriteString(header.Render(fmt.Sprintf("%s could not open the requested documents", name)))
	case errors.As(err, &partial):
		sb.WriteString(header.Render(fmt.Sprintf("%s could not close every document", name)))
	case !errors.IsUserFacing(err):
		sb.WriteString(header.Render(fmt.Sprintf("%s failed unexpectedly", name)))
	default:
		sb.WriteString(header.Render(fmt.Sprintf("%s failed", name)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(err.Error())
	sb.WriteString("\n")

	if chain := causeChain(err); len(chain) > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.label.Render("Caused by:"))
		sb.WriteString("\n")
		for _, cause := range chain {
			sb.WriteString(r.bullet.Render("  - "))
			sb.WriteString(cause)
			sb.WriteString("\n")
		}
	}

	if initErr != nil {
		if initErr.Source != "" {
			sb.WriteString("\n")
			sb.WriteString(r.label.Render("Failed source: "))
			sb.WriteString(fmt.Sprintf("%s (position %d)\n", initErr.Source, initErr.Index+1))
		}
		if len(initErr.Created) > 0 {
			sb.WriteString(r.label.Render("Opened before the failure: "))
			sb.WriteString(strings.Join(initErr.Created, ", "))
			sb.WriteString("\n")
		}
	}

	if partial != nil {
		sb.WriteString("\n")
		sb.WriteString(r.label.Render("Still open:"))
		sb.WriteString("\n")
		for _, f := range partial.Failures {
			sb.WriteString(r.bullet.Render("  - "))
			sb.WriteString(f.InstanceID)
			sb.WriteString("\n")
		}
	}

	if errors.IsRetryable(err) {
		sb.WriteString("\n")
		sb.WriteString(r.muted.Render("The failure may be temporary; running the command again can succeed."))
		sb.WriteString("\n")
	}

	var tracer stackTracer
	if r.ShowStack && severity >= errors.SeverityError && errors.As(err, &tracer) {
		if frames := tracer.StackTrace(); len(frames) > 0 {
			sb.WriteString("\n")
			sb.WriteString(r.label.Render("Stack trace:"))
			sb.WriteString("\n")
			for _, frame := range frames {
				sb.WriteString(r.muted.Render(frame))
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

// causeChain returns the messages of the errors wrapped by err, outermost
// first. Joined errors contribute each of their members.
func causeChain(err error) []string {
	var chain []string
	seen := map[string]bool{err.Error(): true}

	var walk func(error)
	walk = func(e error) {
		var next []error
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			next = u.Unwrap()
		case interface{ Unwrap() error }:
			if w := u.Unwrap(); w != nil {
				next = []error{w}
			}
		}
		for _, n := range next {
			if n == nil {
				continue
			}
			if msg := n.Error(); !seen[msg] {
				seen[msg] = true
				chain = append(chain, msg)
			}
			walk(n)
		}
	}
	walk(err)
	return chain
}
