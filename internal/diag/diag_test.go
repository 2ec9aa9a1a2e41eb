package diag

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"kaleidoscope-compiler/internal/source"
)

func TestErrorMessageIncludesLocationAndKind(t *testing.T) {
	err := NewError(KindUnknownName, source.Location{Line: 2, Column: 4}, "unknown variable name %q", "x")
	msg := err.Error()
	if !strings.Contains(msg, "2:4") || !strings.Contains(msg, string(KindUnknownName)) || !strings.Contains(msg, `"x"`) {
		t.Fatalf("Error() = %q, missing expected parts", msg)
	}
}

func TestWithExtraDeduplicates(t *testing.T) {
	loc := source.Location{Line: 1, Column: 1}
	e := NewError(KindVerifyFailure, loc, "oops")
	e = e.WithExtra(loc, loc, source.Location{Line: 5, Column: 0})
	if len(e.Extra) != 2 {
		t.Fatalf("Extra has %d entries, want 2 (dedup of repeated loc)", len(e.Extra))
	}
}

func TestSystemErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	wrapped := NewSystemError(inner)
	if !errors.Is(wrapped, inner) {
		t.Fatal("NewSystemError result does not unwrap to the inner error")
	}
}

func TestSinkFlushOrdersTracesWarningsThenErrors(t *testing.T) {
	sink := &Sink{}
	sink.Trace("starting")
	sink.Warn("no entry point")
	sink.Err(NewError(KindParseError, source.Location{Line: 1, Column: 1}, "bad token"))

	var buf bytes.Buffer
	sink.Flush(&buf)
	out := buf.String()

	traceIdx := strings.Index(out, "starting")
	warnIdx := strings.Index(out, "warning:")
	errIdx := strings.Index(out, "error:")
	if traceIdx < 0 || warnIdx < 0 || errIdx < 0 {
		t.Fatalf("Flush output missing a section: %q", out)
	}
	if !(traceIdx < warnIdx && warnIdx < errIdx) {
		t.Fatalf("Flush output not ordered trace < warning < error: %q", out)
	}
}

func TestSinkHasErrors(t *testing.T) {
	sink := &Sink{}
	if sink.HasErrors() {
		t.Fatal("fresh Sink reports HasErrors")
	}
	sink.Err(errors.New("boom"))
	if !sink.HasErrors() {
		t.Fatal("Sink.Err did not set HasErrors")
	}
}

func TestSinkFlushSortsErrorsByLocation(t *testing.T) {
	sink := &Sink{}
	sink.Err(NewError(KindParseError, source.Location{Line: 5, Column: 0}, "second"))
	sink.Err(NewError(KindParseError, source.Location{Line: 1, Column: 2}, "first"))

	var buf bytes.Buffer
	sink.Flush(&buf)
	out := buf.String()

	firstIdx := strings.Index(out, "first")
	secondIdx := strings.Index(out, "second")
	if firstIdx < 0 || secondIdx < 0 || !(firstIdx < secondIdx) {
		t.Fatalf("Flush output not sorted by location: %q", out)
	}
}

func TestSinkErrIgnoresNil(t *testing.T) {
	sink := &Sink{}
	sink.Err(nil)
	if sink.HasErrors() {
		t.Fatal("Sink.Err(nil) should not record a diagnostic")
	}
}
