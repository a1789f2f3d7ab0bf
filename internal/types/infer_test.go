package types

import (
	"testing"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/parser"
)

func inferSource(t *testing.T, input string) (*Info, *Error) {
	t.Helper()

	p := parser.New(input)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser errors in %q: %v", input, errs)
	}

	return NewInferencer().InferProgram(program)
}

func mustInfer(t *testing.T, input string) *Info {
	t.Helper()

	info, err := inferSource(t, input)
	if err != nil {
		t.Fatalf("inference failed for %q: %s", input, err)
	}
	return info
}

func TestInferProgramResultTypes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1", "int"},
		{`"hello"`, "string"},
		{"true", "bool"},
		{"let x = 1 + 2 * 3; x", "int"},
		{"-5 + 3", "int"},
		{"!false", "bool"},
		{"1 < 2 && 3 >= 2", "bool"},
		{`"a" == "b"`, "bool"},
		{"let id = fun(x) { x }; id(1)", "int"},
		{`let id = fun(x) { x }; id("s")`, "string"},
		{"let f = fun() { 42 }; f()", "int"},
		{"fun add(x, y) { x + y } add(1, 2)", "int"},
		{"let x = 1; let x = true; x", "bool"},
		{"let pick = fun(a, b) { if a == b { return a; } return b; }; pick(1, 2)", "int"},
	}

	for i, tt := range tests {
		info := mustInfer(t, tt.input)
		if info.ResultType == nil {
			t.Fatalf("tests[%d] - no result type for %q", i, tt.input)
		}
		if got := info.ResultType.String(); got != tt.expected {
			t.Fatalf("tests[%d] - result type wrong for %q. expected=%q, got=%q",
				i, tt.input, tt.expected, got)
		}
	}
}

func TestInferNoTailExpression(t *testing.T) {
	info := mustInfer(t, "let x = 1;")
	if info.ResultType != nil {
		t.Fatalf("expected nil result type, got %s", info.ResultType)
	}
}

func TestInferLetGeneralization(t *testing.T) {
	info := mustInfer(t, "fun f(x) { x }")

	if len(info.Schemes) != 1 {
		t.Fatalf("expected 1 recorded scheme, got %d", len(info.Schemes))
	}
	for _, scheme := range info.Schemes {
		if !scheme.IsPoly() {
			t.Fatalf("scheme not polymorphic: %s", scheme)
		}
		if len(scheme.Vars) != 1 {
			t.Fatalf("expected 1 quantified variable, got %d in %s", len(scheme.Vars), scheme)
		}
		fn, ok := scheme.Body.(*Fun)
		if !ok {
			t.Fatalf("scheme body is not a function type: %s", scheme.Body)
		}
		if !Equal(fn.Param, fn.Result) {
			t.Fatalf("identity should map a variable to itself, got %s", fn)
		}
	}
}

func TestInferPolymorphicReuse(t *testing.T) {
	// One binding instantiated at two different types.
	info := mustInfer(t, `
let id = fun(x) { x };
let a = id(1);
let b = id(true);
a == 2 && b
`)
	if got := info.ResultType.String(); got != "bool" {
		t.Fatalf("result type wrong. expected=%q, got=%q", "bool", got)
	}
}

func TestInferRecursion(t *testing.T) {
	info := mustInfer(t, `
fun fact(n) {
    if n < 2 {
        return 1;
    }
    return n * fact(n - 1);
}
fact(5)
`)
	if got := info.ResultType.String(); got != "int" {
		t.Fatalf("result type wrong. expected=%q, got=%q", "int", got)
	}
}

func TestInferFallthroughBodyIsUnit(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"let f = fun() { 1; }; f()", "unit"},
		{"let f = fun(x) { x + 1; }; f(3)", "unit"},
		{"let f = fun(x) { if x { return 1; } return 2; }; f(true)", "int"},
		{"let f = fun(x) { if x { return 1; } else { return 2; } }; f(true)", "int"},
	}

	for i, tt := range tests {
		info := mustInfer(t, tt.input)
		if got := info.ResultType.String(); got != tt.expected {
			t.Fatalf("tests[%d] - result type wrong for %q. expected=%q, got=%q",
				i, tt.input, tt.expected, got)
		}
	}
}

func TestInferFallthroughResultDoesNotGeneralize(t *testing.T) {
	// A statement-only body yields unit, so its result must not be usable
	// at two different types downstream.
	_, err := inferSource(t, `
let f = fun() { 1; };
let y = f();
let a = y + 1;
let b = y && true;
b
`)
	if err == nil {
		t.Fatalf("expected type mismatch, got none")
	}
	if err.Kind != ErrTypeMismatch {
		t.Fatalf("error kind wrong. expected=%v, got=%v", ErrTypeMismatch, err.Kind)
	}
}

func TestInferReturnOnlyBodyStaysPolymorphic(t *testing.T) {
	info := mustInfer(t, "fun f(x) { return x; } f(1)")

	for _, scheme := range info.Schemes {
		if !scheme.IsPoly() {
			t.Fatalf("scheme not polymorphic: %s", scheme)
		}
	}
	if got := info.ResultType.String(); got != "int" {
		t.Fatalf("result type wrong. expected=%q, got=%q", "int", got)
	}
}

func TestInferAnnotatesExpressions(t *testing.T) {
	p := parser.New("let x = 1 + 2; x")
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) != 0 {
		t.Fatalf("parser errors: %v", errs)
	}

	info, err := NewInferencer().InferProgram(program)
	if err != nil {
		t.Fatalf("inference failed: %s", err)
	}

	let, ok := program.Stmts[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("statement is not *ast.LetStmt. got=%T", program.Stmts[0])
	}
	if got := info.TypeOf(let.Value); !Equal(got, TypeInt) {
		t.Fatalf("annotation wrong for let value. expected=%s, got=%s", TypeInt, got)
	}
	if got := info.TypeOf(program.Tail); !Equal(got, TypeInt) {
		t.Fatalf("annotation wrong for tail. expected=%s, got=%s", TypeInt, got)
	}
}

func TestInferErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected ErrorKind
	}{
		{"y", ErrUnboundVariable},
		{"let a = b;", ErrUnboundVariable},
		{"1 + true", ErrTypeMismatch},
		{`"a" == 1`, ErrTypeMismatch},
		{"!1", ErrTypeMismatch},
		{"if 1 { let a = 2; }", ErrTypeMismatch},
		{"let x = 1; x = true;", ErrTypeMismatch},
		{"let f = fun() { 1 }; f(2)", ErrTypeMismatch},
		{"break;", ErrInvalidStatement},
		{"return 1;", ErrInvalidStatement},
		{"fun f(x) { x(x); }", ErrOccursCheck},
	}

	for i, tt := range tests {
		_, err := inferSource(t, tt.input)
		if err == nil {
			t.Fatalf("tests[%d] - expected inference error for %q, got none", i, tt.input)
		}
		if err.Kind != tt.expected {
			t.Fatalf("tests[%d] - error kind wrong for %q. expected=%d, got=%d (%s)",
				i, tt.input, tt.expected, err.Kind, err)
		}
	}
}

func TestInferErrorCarriesSpan(t *testing.T) {
	_, err := inferSource(t, "let a = missing;")
	if err == nil {
		t.Fatalf("expected inference error, got none")
	}
	if err.Span.Line == 0 {
		t.Fatalf("expected a located span on the error, got %+v", err.Span)
	}
}

func TestInferControlFlow(t *testing.T) {
	info := mustInfer(t, `
let n = 0;
loop {
    if n > 9 {
        break;
    }
    n = n + 1;
}
n
`)
	if got := info.ResultType.String(); got != "int" {
		t.Fatalf("result type wrong. expected=%q, got=%q", "int", got)
	}
}

func TestInferBlockScoping(t *testing.T) {
	// Bindings inside a nested block must not leak out.
	_, err := inferSource(t, `
if true {
    let hidden = 1;
}
hidden
`)
	if err == nil {
		t.Fatalf("expected unbound variable error, got none")
	}
	if err.Kind != ErrUnboundVariable {
		t.Fatalf("error kind wrong. expected=%d, got=%d (%s)", ErrUnboundVariable, err.Kind, err)
	}
}

func TestEnvLookupAndShadowing(t *testing.T) {
	env := EmptyEnv().
		Extend("x", Mono(TypeInt)).
		Extend("x", Mono(TypeBool))

	scheme, ok := env.Lookup("x")
	if !ok {
		t.Fatalf("lookup failed for shadowed binding")
	}
	if !Equal(scheme.Body, TypeBool) {
		t.Fatalf("innermost binding wrong. expected=%s, got=%s", TypeBool, scheme.Body)
	}

	if _, ok := env.Lookup("y"); ok {
		t.Fatalf("lookup succeeded for missing binding")
	}
}
