// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package diag defines the compiler's side of the diagnostics boundary.
// The diagnostics *subsystem* — how a Diagnostic is rendered to a
// terminal, an LSP client, or a CI log — is an external collaborator per
// spec.md §1; this package only defines the Handler interface the
// compiler calls into and a couple of concrete handlers useful for
// embedding or testing.
package diag

import (
	"fmt"

	"github.com/airscript-lang/airscript/pkg/source"
	log "github.com/sirupsen/logrus"
)

// Severity classifies a Diagnostic.
type Severity int

// Severity levels, ordered least to most severe.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// Label attaches a message to a specific source span, used for both the
// primary location of a diagnostic and any secondary locations (e.g. the
// two conflicting constraints in an "overlapping boundary constraints"
// report).
type Label struct {
	Span    source.Span
	Message string
}

// Diagnostic is a single compiler-emitted report.
type Diagnostic struct {
	Severity  Severity
	Message   string
	Primary   Label
	Secondary []Label
}

// Handler receives diagnostics as the compiler produces them. A compile
// session owns exactly one Handler; spec.md §7 calls this the
// "DiagnosticsHandler consumed for error emission."
type Handler interface {
	Report(Diagnostic)
	// HasErrors reports whether any error-severity diagnostic has been
	// reported so far.
	HasErrors() bool
}

// CollectingHandler accumulates diagnostics in memory, for tests and for
// embedders that want to render their own report at the end of a
// compile.
type CollectingHandler struct {
	Diagnostics []Diagnostic
	errorCount  int
}

// Report implements Handler.
func (h *CollectingHandler) Report(d Diagnostic) {
	h.Diagnostics = append(h.Diagnostics, d)
	if d.Severity == SeverityError {
		h.errorCount++
	}
}

// HasErrors implements Handler.
func (h *CollectingHandler) HasErrors() bool {
	return h.errorCount > 0
}

// LogHandler reports diagnostics through logrus, for CLI use.
type LogHandler struct {
	inner      Handler
	errorCount int
}

// NewLogHandler wraps an optional inner handler (may be nil) so that
// diagnostics are both logged and, if desired, collected.
func NewLogHandler(inner Handler) *LogHandler {
	return &LogHandler{inner: inner}
}

// Report implements Handler.
func (h *LogHandler) Report(d Diagnostic) {
	entry := log.WithFields(log.Fields{
		"span_start": d.Primary.Span.Start(),
		"span_end":   d.Primary.Span.End(),
	})

	switch d.Severity {
	case SeverityError:
		h.errorCount++
		entry.Errorf("%s: %s", d.Primary.Message, d.Message)
	default:
		entry.Warnf("%s: %s", d.Primary.Message, d.Message)
	}

	for _, label := range d.Secondary {
		log.Debugf("  also: %s (%d:%d)", label.Message, label.Span.Start(), label.Span.End())
	}

	if h.inner != nil {
		h.inner.Report(d)
	}
}

// HasErrors implements Handler.
func (h *LogHandler) HasErrors() bool {
	if h.errorCount > 0 {
		return true
	}

	return h.inner != nil && h.inner.HasErrors()
}

// Errorf is a convenience constructor for a single-label error diagnostic.
func Errorf(span source.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Primary:  Label{Span: span, Message: "error"},
	}
}

// ErrorWithSecondary builds an error diagnostic carrying one secondary
// label, used for conflicts between two source locations (e.g. two
// overlapping boundary constraints).
func ErrorWithSecondary(span source.Span, secondary Label, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity:  SeverityError,
		Message:   fmt.Sprintf(format, args...),
		Primary:   Label{Span: span, Message: "error"},
		Secondary: []Label{secondary},
	}
}
