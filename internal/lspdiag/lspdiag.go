// Package lspdiag translates a diag.Sink's accumulated diagnostics into
// Language Server Protocol publishDiagnostics notifications, framed as
// Content-Length-delimited JSON-RPC over an io.Writer the way the
// teacher's lsp.server writes to stdio (internal/pkg/lsp/server.go's
// sender/notify, internal/pkg/lsp/compiler.go's extractDiagnosticsData).
// It does not implement a full language server (spec's Non-goals exclude
// one); it only speaks the one notification a batch compile needs to emit.
package lspdiag

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"pkg.nimblebun.works/go-lsp"

	"kaleidoscope-compiler/internal/diag"
	"kaleidoscope-compiler/internal/source"
)

// Publisher writes publishDiagnostics notifications to an underlying
// stream, one per source file, the way the teacher's server.notify does
// for each affected module (internal/pkg/lsp/compiler.go's compile).
type Publisher struct {
	w io.Writer
}

// NewPublisher wraps w, which must be a framed JSON-RPC transport (e.g.
// the client side of an editor's LSP connection).
func NewPublisher(w io.Writer) *Publisher {
	return &Publisher{w: w}
}

type rpcNotification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// PathToURI converts a filesystem path (e.g. source.Reader.Name()) into
// the document URI form the LSP base protocol expects.
func PathToURI(path string) lsp.DocumentURI {
	return lsp.DocumentURI("file://" + path)
}

func locToRange(loc source.Location) lsp.Range {
	// loc.Column is already 0-indexed (source.Location's own convention),
	// unlike the teacher's ast.Location.GetLineAndColumn(), which is
	// 1-indexed and needs the "-1" the teacher's locToRange applies.
	return lsp.Range{
		Start: lsp.Position{Line: loc.Line - 1, Character: loc.Column},
		End:   lsp.Position{Line: loc.Line - 1, Character: loc.Column + 1},
	}
}

// FromSink translates every diag.Error recorded in sink into an LSP
// Diagnostic against uri, mirroring extractDiagnosticsData's per-error
// translation. A compilation unit here is always a single source
// document (spec's source.Reader carries one name), so every diagnostic
// shares the one uri the caller names. Non-diag.Error errors (e.g. a
// SystemError) are dropped: they have no source location to attach a
// diagnostic to.
func FromSink(sink *diag.Sink, uri lsp.DocumentURI) []lsp.Diagnostic {
	var out []lsp.Diagnostic
	for _, err := range sink.Errors() {
		var e diag.Error
		if !errors.As(err, &e) {
			continue
		}
		out = append(out, lsp.Diagnostic{
			Range:              locToRange(e.Loc),
			Severity:           lsp.DSError,
			Message:            fmt.Sprintf("%s: %s", e.Kind, e.Message),
			RelatedInformation: relatedInformation(uri, e),
		})
	}
	return out
}

func relatedInformation(uri lsp.DocumentURI, e diag.Error) []lsp.DiagnosticRelatedInformation {
	if len(e.Extra) == 0 {
		return nil
	}
	related := make([]lsp.DiagnosticRelatedInformation, 0, len(e.Extra))
	for _, loc := range e.Extra {
		related = append(related, lsp.DiagnosticRelatedInformation{
			Location: lsp.Location{
				URI:   uri,
				Range: locToRange(loc),
			},
			Message: "related location",
		})
	}
	return related
}

// Publish emits one textDocument/publishDiagnostics notification for uri,
// Content-Length-framed per the LSP base protocol. diagnostics may be
// empty, which clears any diagnostics previously reported for uri
// (mirroring the teacher's empty-Diagnostics notify for unaffected
// modules, internal/pkg/lsp/compiler.go's compile).
func (p *Publisher) Publish(uri lsp.DocumentURI, diagnostics []lsp.Diagnostic) error {
	if diagnostics == nil {
		diagnostics = []lsp.Diagnostic{}
	}
	params, err := json.Marshal(lsp.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
	if err != nil {
		return err
	}
	body, err := json.Marshal(rpcNotification{
		Jsonrpc: "2.0",
		Method:  "textDocument/publishDiagnostics",
		Params:  params,
	})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(p.w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = p.w.Write(body)
	return err
}
