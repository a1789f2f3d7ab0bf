package types

import (
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
)

type ErrorKind int

const (
	ErrUnboundVariable ErrorKind = iota
	ErrTypeMismatch
	ErrOccursCheck
	ErrInvalidStatement
)

// Error is a typed inference failure. Inference stops at the first one.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    lexer.Span
}

func (e *Error) Error() string {
	return e.Message
}

func (k ErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnboundVariable:
		return diag.CodeInferUnboundVariable
	case ErrOccursCheck:
		return diag.CodeInferOccursCheck
	default:
		return diag.CodeInferTypeMismatch
	}
}

// ToDiagnostic converts an inference error into a shared diagnostic
// structure.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageInfer,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}
