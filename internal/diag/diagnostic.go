package diag

import "fmt"

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer  Stage = "lexer"
	StageParser Stage = "parser"
	StageInfer  Stage = "infer"
	StageEmit   Stage = "emit"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	// Lexer errors
	CodeLexIllegalRune        Code = "LEX_ILLEGAL_RUNE"
	CodeLexUnterminatedString Code = "LEX_UNTERMINATED_STRING"

	// Parser errors
	CodeParseUnexpectedToken Code = "PARSE_UNEXPECTED_TOKEN"
	CodeParseMissingToken    Code = "PARSE_MISSING_TOKEN"

	// Inference errors
	CodeInferUnboundVariable Code = "INFER_UNBOUND_VARIABLE"
	CodeInferTypeMismatch    Code = "INFER_TYPE_MISMATCH"
	CodeInferOccursCheck     Code = "INFER_OCCURS_CHECK"

	// Emitter errors
	CodeEmitUnsupported Code = "EMIT_UNSUPPORTED"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsValid returns true if the span has valid location information.
func (s Span) IsValid() bool {
	return s.Line > 0 && s.Column > 0
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span
	Label    string   // optional label rendered under the span
	Notes    []string // additional notes to display
	Help     string   // optional help text
}

// WithLabel returns a copy of the diagnostic with the span label set.
func (d Diagnostic) WithLabel(label string) Diagnostic {
	d.Label = label
	return d
}

// WithNote returns a copy of the diagnostic with a note appended.
func (d Diagnostic) WithNote(note string) Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithHelp returns a copy of the diagnostic with help text set.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// HasErrors reports whether any diagnostic in the slice is an error.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// First returns the first error diagnostic along with a flag indicating
// whether one was found. Stages abort on their first error, so callers
// usually only need this one.
func First(ds []Diagnostic) (Diagnostic, bool) {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return d, true
		}
	}
	return Diagnostic{}, false
}
