package emit

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
	"github.com/cinder-lang/cinder/internal/types"
)

// Target selects an output language.
type Target string

const (
	// TargetHighLevel emits structurally-typed source with native
	// closures and arrow-style functions.
	TargetHighLevel Target = "highlevel"
	// TargetSystems emits ownership-explicit systems source.
	TargetSystems Target = "systems"
	// TargetBytecode emits a portable sandboxed module with linear
	// memory and a function table.
	TargetBytecode Target = "bytecode"
)

// ParseTarget resolves a target name from user input.
func ParseTarget(name string) (Target, bool) {
	switch Target(name) {
	case TargetHighLevel, TargetSystems, TargetBytecode:
		return Target(name), true
	}
	return "", false
}

// Extension returns the conventional file extension for artifacts of the
// target, without the leading dot.
func (t Target) Extension() string {
	switch t {
	case TargetHighLevel:
		return "ts"
	case TargetSystems:
		return "rs"
	case TargetBytecode:
		return "wat"
	}
	return "out"
}

// Artifact is the output of one emission run.
type Artifact struct {
	Target Target
	Code   string
}

// Error reports a construct the requested target cannot express.
type Error struct {
	Message string
	Span    lexer.Span
}

func (e *Error) Error() string {
	return e.Message
}

// ToDiagnostic converts an emission error into a shared diagnostic
// structure.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageEmit,
		Severity: diag.SeverityError,
		Code:     diag.CodeEmitUnsupported,
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

// Options tunes emission without changing semantics.
type Options struct {
	// MemoryFloorPages is a lower bound on the linear-memory size the
	// bytecode target declares, in 64KiB pages. The emitter still grows
	// the declaration past the floor when the computed worst-case
	// footprint demands it.
	MemoryFloorPages int
}

// Emit lowers a typed program to the requested target. The program and
// annotation info are read-only; emitting the same inputs twice yields
// byte-identical artifacts.
func Emit(program *ast.Program, info *types.Info, target Target) (Artifact, *Error) {
	return EmitWithOptions(program, info, target, Options{})
}

// EmitWithOptions is Emit with explicit tuning options.
func EmitWithOptions(program *ast.Program, info *types.Info, target Target, opts Options) (Artifact, *Error) {
	if err := checkArity(program); err != nil {
		return Artifact{}, err
	}

	var code string
	var err *Error

	switch target {
	case TargetHighLevel:
		code, err = newHighLevelGen(info).generate(program)
	case TargetSystems:
		code, err = newSystemsGen(info).generate(program)
	case TargetBytecode:
		code, err = newBytecodeGen(info, opts).generate(program)
	default:
		return Artifact{}, &Error{Message: "unknown target '" + string(target) + "'"}
	}

	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Target: target, Code: code}, nil
}
