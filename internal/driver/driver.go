package driver

import (
	"fmt"
	"os"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/emit"
	"github.com/cinder-lang/cinder/internal/parser"
	"github.com/cinder-lang/cinder/internal/types"
)

// Compile runs the full pipeline over source text: lex, parse, infer,
// emit. The artifact is only meaningful when the returned diagnostics
// carry no errors.
func Compile(source string, target emit.Target) (emit.Artifact, []diag.Diagnostic) {
	return CompileWithOptions(source, "", target, emit.Options{})
}

// CompileWithOptions is Compile with a filename for diagnostics and
// explicit emitter options.
func CompileWithOptions(source, filename string, target emit.Target, opts emit.Options) (emit.Artifact, []diag.Diagnostic) {
	program, info, diags := analyze(source, filename)
	if diag.HasErrors(diags) {
		return emit.Artifact{}, diags
	}

	artifact, emitErr := emit.EmitWithOptions(program, info, target, opts)
	if emitErr != nil {
		return emit.Artifact{}, append(diags, emitErr.ToDiagnostic())
	}
	return artifact, diags
}

// CompileFile reads a source file, resolves its manifest, and compiles to
// the requested target. An empty target falls back to the manifest's
// default.
func CompileFile(path string, target emit.Target) (emit.Artifact, []diag.Diagnostic, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return emit.Artifact{}, nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := FindConfig(path)
	if err != nil {
		return emit.Artifact{}, nil, err
	}
	if target == "" {
		target = cfg.DefaultTarget()
	}

	artifact, diags := CompileWithOptions(string(source), path, target, cfg.EmitOptions())
	return artifact, diags, nil
}

// Check runs the pipeline up to inference, returning the annotation info
// for valid programs.
func Check(source, filename string) (*types.Info, []diag.Diagnostic) {
	_, info, diags := Analyze(source, filename)
	return info, diags
}

// Analyze parses and infers, returning the program alongside the
// annotation info. Consumers that walk the tree (printers, REPLs) use
// this instead of Compile.
func Analyze(source, filename string) (*ast.Program, *types.Info, []diag.Diagnostic) {
	return analyze(source, filename)
}

func analyze(source, filename string) (*ast.Program, *types.Info, []diag.Diagnostic) {
	var diags []diag.Diagnostic

	var opts []parser.Option
	if filename != "" {
		opts = append(opts, parser.WithFilename(filename))
	}
	p := parser.New(source, opts...)
	program := p.ParseProgram()

	for _, lexErr := range p.LexErrors() {
		diags = append(diags, lexErr.ToDiagnostic())
	}
	for _, parseErr := range p.Errors() {
		diags = append(diags, parseErr.ToDiagnostic())
	}
	if diag.HasErrors(diags) {
		return program, nil, diags
	}

	info, inferErr := types.NewInferencer().InferProgram(program)
	if inferErr != nil {
		return program, nil, append(diags, inferErr.ToDiagnostic())
	}
	return program, info, diags
}

// Fixpoint compiles the source twice and reports whether both runs
// produced byte-identical artifacts.
func Fixpoint(source string, target emit.Target) (bool, []diag.Diagnostic) {
	first, diags := Compile(source, target)
	if diag.HasErrors(diags) {
		return false, diags
	}
	second, diags := Compile(source, target)
	if diag.HasErrors(diags) {
		return false, diags
	}
	return first.Code == second.Code, nil
}
