// Package diag carries the compiler's diagnostic model: source-attributed
// errors, a small set of fatal system errors, and a sink that accumulates
// diagnostics across a whole driver run before they are flushed.
package diag

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"golang.org/x/exp/slices"

	"kaleidoscope-compiler/internal/source"
)

// Kind tags which recovery policy produced an Error.
type Kind string

const (
	KindParseError          Kind = "ParseError"
	KindUnknownName         Kind = "UnknownName"
	KindUnknownOperator     Kind = "UnknownOperator"
	KindInvalidAssignTarget Kind = "InvalidAssignTarget"
	KindArgCountMismatch    Kind = "ArgCountMismatch"
	KindVerifyFailure       Kind = "VerifyFailure"
)

// Error is a source-attributed diagnostic: a location, a short message,
// and zero or more related locations.
type Error struct {
	Kind     Kind
	Loc      source.Location
	Extra    []source.Location
	Message  string
}

// NewError builds a source-attributed Error of the given kind.
func NewError(kind Kind, loc source.Location, format string, args ...any) Error {
	return Error{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// WithExtra returns a copy of e with extra related locations appended and
// deduplicated, the way the teacher's common.Error.Error dedups Extra.
func (e Error) WithExtra(locs ...source.Location) Error {
	for _, l := range locs {
		if !slices.ContainsFunc(e.Extra, func(x source.Location) bool { return x == l }) {
			e.Extra = append(e.Extra, l)
		}
	}
	return e
}

func (e Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s: %s", e.Loc, e.Kind, e.Message)
	for _, extra := range e.Extra {
		fmt.Fprintf(&sb, "\n+ %s", extra)
	}
	return sb.String()
}

// SystemError wraps a non-source fatal condition (e.g. a missing input
// file), mirroring the teacher's NewSystemError.
type SystemError struct {
	Inner error
}

func NewSystemError(err error) error {
	return SystemError{Inner: err}
}

func (e SystemError) Error() string {
	return fmt.Sprintf("system error: %v", e.Inner)
}

func (e SystemError) Unwrap() error { return e.Inner }

// InternalError captures the call site of an invariant the lowerer itself
// must never violate, mirroring the teacher's NewCompilerError.
type InternalError struct {
	Message string
	file    string
	line    int
}

func NewInternalError(message string) error {
	_, file, line, _ := runtime.Caller(1)
	return InternalError{Message: message, file: file, line: line}
}

func (e InternalError) Error() string {
	return fmt.Sprintf("internal error: %s (at %s:%d)", e.Message, e.file, e.line)
}

// Sink accumulates diagnostics across a Driver run and flushes them once at
// the end, matching the teacher's common.LogWriter accumulate/flush split.
type Sink struct {
	errors   []error
	warnings []string
	traces   []string
}

// Err records a fatal-to-the-current-form diagnostic. It does not stop the
// Driver from proceeding to the next top-level form.
func (s *Sink) Err(err error) {
	if err != nil {
		s.errors = append(s.errors, err)
	}
}

// Warn records a non-fatal warning, e.g. an empty program with no entry
// point.
func (s *Sink) Warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// Trace records an informational line, e.g. a successful IR dump banner.
func (s *Sink) Trace(format string, args ...any) {
	s.traces = append(s.traces, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any fatal diagnostic was recorded.
func (s *Sink) HasErrors() bool { return len(s.errors) > 0 }

// Errors returns the recorded errors in recording order.
func (s *Sink) Errors() []error { return s.errors }

// Flush writes every recorded trace, warning, and error to w, in that
// order, the way the teacher's LogWriter.Flush drains to os.Stdout.
// Errors are sorted by source location first, so a run that recovered
// from several parse errors out of order still reports them the way
// they appear in the file.
func (s *Sink) Flush(w io.Writer) {
	for _, t := range s.traces {
		fmt.Fprintln(w, t)
	}
	for _, wm := range s.warnings {
		fmt.Fprintf(w, "warning: %s\n", wm)
	}
	sorted := append([]error(nil), s.errors...)
	slices.SortStableFunc(sorted, func(a, b error) int {
		la, aok := locationOf(a)
		lb, bok := locationOf(b)
		if !aok || !bok {
			return 0
		}
		if la.Line != lb.Line {
			return la.Line - lb.Line
		}
		return la.Column - lb.Column
	})
	for _, e := range sorted {
		fmt.Fprintf(w, "error: %s\n", e.Error())
	}
}

func locationOf(err error) (source.Location, bool) {
	var e Error
	if errors.As(err, &e) {
		return e.Loc, true
	}
	return source.Location{}, false
}
