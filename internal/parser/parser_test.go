package parser

import (
	"testing"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()

	p := New(input)
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parser had %d errors, first: %s", len(p.Errors()), p.Errors()[0].Message)
	}
	if program == nil {
		t.Fatalf("ParseProgram returned nil")
	}
	return program
}

func TestParsePrecedence(t *testing.T) {
	program := parseProgram(t, `1 + 2 * 3`)

	if program.Tail == nil {
		t.Fatalf("expected tail expression, got none")
	}

	add, ok := program.Tail.(*ast.InfixExpr)
	if !ok {
		t.Fatalf("tail is not *ast.InfixExpr. got=%T", program.Tail)
	}
	if add.Op != lexer.PLUS {
		t.Fatalf("outer op wrong. expected=%q, got=%q", lexer.PLUS, add.Op)
	}

	left, ok := add.Left.(*ast.IntegerLit)
	if !ok || left.Text != "1" {
		t.Fatalf("left operand wrong. got=%#v", add.Left)
	}

	mul, ok := add.Right.(*ast.InfixExpr)
	if !ok {
		t.Fatalf("right operand is not *ast.InfixExpr. got=%T", add.Right)
	}
	if mul.Op != lexer.ASTERISK {
		t.Fatalf("inner op wrong. expected=%q, got=%q", lexer.ASTERISK, mul.Op)
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	program := parseProgram(t, `1 - 2 - 3`)

	outer, ok := program.Tail.(*ast.InfixExpr)
	if !ok {
		t.Fatalf("tail is not *ast.InfixExpr. got=%T", program.Tail)
	}
	if outer.Op != lexer.MINUS {
		t.Fatalf("outer op wrong. expected=%q, got=%q", lexer.MINUS, outer.Op)
	}

	// (1 - 2) - 3, never 1 - (2 - 3).
	inner, ok := outer.Left.(*ast.InfixExpr)
	if !ok {
		t.Fatalf("left operand is not *ast.InfixExpr. got=%T", outer.Left)
	}
	if lit, ok := inner.Left.(*ast.IntegerLit); !ok || lit.Text != "1" {
		t.Fatalf("innermost left wrong. got=%#v", inner.Left)
	}
	if lit, ok := inner.Right.(*ast.IntegerLit); !ok || lit.Text != "2" {
		t.Fatalf("innermost right wrong. got=%#v", inner.Right)
	}
	if lit, ok := outer.Right.(*ast.IntegerLit); !ok || lit.Text != "3" {
		t.Fatalf("outer right wrong. got=%#v", outer.Right)
	}
}

func TestParsePrefixBindsTighterThanInfix(t *testing.T) {
	program := parseProgram(t, `-1 + 2`)

	add, ok := program.Tail.(*ast.InfixExpr)
	if !ok {
		t.Fatalf("tail is not *ast.InfixExpr. got=%T", program.Tail)
	}

	neg, ok := add.Left.(*ast.PrefixExpr)
	if !ok {
		t.Fatalf("left operand is not *ast.PrefixExpr. got=%T", add.Left)
	}
	if neg.Op != lexer.MINUS {
		t.Fatalf("prefix op wrong. expected=%q, got=%q", lexer.MINUS, neg.Op)
	}
}

func TestParseGrouping(t *testing.T) {
	program := parseProgram(t, `(1 + 2) * 3`)

	mul, ok := program.Tail.(*ast.InfixExpr)
	if !ok {
		t.Fatalf("tail is not *ast.InfixExpr. got=%T", program.Tail)
	}
	if mul.Op != lexer.ASTERISK {
		t.Fatalf("outer op wrong. expected=%q, got=%q", lexer.ASTERISK, mul.Op)
	}

	group, ok := mul.Left.(*ast.GroupExpr)
	if !ok {
		t.Fatalf("left operand is not *ast.GroupExpr. got=%T", mul.Left)
	}
	add, ok := group.Inner.(*ast.InfixExpr)
	if !ok || add.Op != lexer.PLUS {
		t.Fatalf("grouped expression wrong. got=%#v", group.Inner)
	}
}

func TestParseLetStmt(t *testing.T) {
	program := parseProgram(t, `let x = 1 + 2 * 3; x`)

	if len(program.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Stmts))
	}

	let, ok := program.Stmts[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("statement is not *ast.LetStmt. got=%T", program.Stmts[0])
	}
	if let.Name.Name != "x" {
		t.Errorf("let name wrong. expected=%q, got=%q", "x", let.Name.Name)
	}

	tail, ok := program.Tail.(*ast.Ident)
	if !ok || tail.Name != "x" {
		t.Fatalf("tail wrong. got=%#v", program.Tail)
	}
}

func TestParseFunDeclDesugarsToLet(t *testing.T) {
	program := parseProgram(t, `fun f(x) { x }`)

	if len(program.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Stmts))
	}

	let, ok := program.Stmts[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("statement is not *ast.LetStmt. got=%T", program.Stmts[0])
	}
	if let.Name.Name != "f" {
		t.Errorf("binding name wrong. expected=%q, got=%q", "f", let.Name.Name)
	}

	fun, ok := let.Value.(*ast.FunLit)
	if !ok {
		t.Fatalf("bound value is not *ast.FunLit. got=%T", let.Value)
	}
	if len(fun.Params) != 1 || fun.Params[0].Name != "x" {
		t.Fatalf("params wrong. got=%#v", fun.Params)
	}
	if fun.Body.Tail == nil {
		t.Fatalf("expected body tail expression, got none")
	}
}

func TestParseLambdaCall(t *testing.T) {
	program := parseProgram(t, `let id = fun(x) { x }; id(42)`)

	call, ok := program.Tail.(*ast.CallExpr)
	if !ok {
		t.Fatalf("tail is not *ast.CallExpr. got=%T", program.Tail)
	}
	callee, ok := call.Callee.(*ast.Ident)
	if !ok || callee.Name != "id" {
		t.Fatalf("callee wrong. got=%#v", call.Callee)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 argument, got %d", len(call.Args))
	}
}

func TestParseControlFlow(t *testing.T) {
	input := `
let n = 0;
loop {
    if n < 10 {
        n = n + 1;
    } else {
        break;
    }
}
n
`

	program := parseProgram(t, input)

	if len(program.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(program.Stmts))
	}

	loop, ok := program.Stmts[1].(*ast.LoopStmt)
	if !ok {
		t.Fatalf("statement is not *ast.LoopStmt. got=%T", program.Stmts[1])
	}
	if len(loop.Body.Stmts) != 1 {
		t.Fatalf("expected 1 loop body statement, got %d", len(loop.Body.Stmts))
	}

	ifStmt, ok := loop.Body.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("loop body statement is not *ast.IfStmt. got=%T", loop.Body.Stmts[0])
	}
	if ifStmt.Else == nil {
		t.Fatalf("expected else block, got none")
	}
	if _, ok := ifStmt.Else.Stmts[0].(*ast.BreakStmt); !ok {
		t.Fatalf("else statement is not *ast.BreakStmt. got=%T", ifStmt.Else.Stmts[0])
	}
}

func TestParseReturnStmt(t *testing.T) {
	program := parseProgram(t, `fun f(x) { return x * 2; }`)

	let := program.Stmts[0].(*ast.LetStmt)
	fun := let.Value.(*ast.FunLit)

	ret, ok := fun.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body statement is not *ast.ReturnStmt. got=%T", fun.Body.Stmts[0])
	}
	if ret.Value == nil {
		t.Fatalf("expected return value, got none")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected lexer.TokenType
	}{
		{`let = 1;`, lexer.IDENT},
		{`let x 1;`, lexer.ASSIGN},
		{`let x = 1`, lexer.SEMICOLON},
		{`fun f(x { x }`, lexer.RPAREN},
	}

	for i, tt := range tests {
		p := New(tt.input)
		p.ParseProgram()

		errs := p.Errors()
		if len(errs) == 0 {
			t.Fatalf("tests[%d] - expected parse errors, got none", i)
		}
		if errs[0].Expected != tt.expected {
			t.Errorf("tests[%d] - expected token wrong. expected=%q, got=%q",
				i, tt.expected, errs[0].Expected)
		}
		if errs[0].Span.Line == 0 {
			t.Errorf("tests[%d] - error span missing line information", i)
		}
	}
}

func TestParseMalformedInputTerminates(t *testing.T) {
	// Streams of tokens with no registered prefix parser must not wedge the
	// parser; recovery always advances.
	inputs := []string{
		`; ; ;`,
		`) ) )`,
		`* / +`,
		`let let let`,
		`fun f(x) {`,
	}

	for i, input := range inputs {
		p := New(input)
		p.ParseProgram()
		if len(p.Errors()) == 0 {
			t.Errorf("tests[%d] - expected parse errors for %q, got none", i, input)
		}
	}
}

func TestParseRoundtrip(t *testing.T) {
	inputs := []string{
		`let x = 1 + 2 * 3; x`,
		`1 - 2 - 3`,
		`(1 + 2) * 3`,
		`let f = fun(x, y) { x + y }; f(1, 2)`,
		`fun f(x) { return x; }`,
		`let s = "hi"; s`,
		`let b = true; !b`,
		`let n = 0; loop { if n >= 3 { break; } else { n = n + 1; } } n`,
	}

	for i, input := range inputs {
		p := New(input)
		program := p.ParseProgram()
		if len(p.Errors()) != 0 {
			t.Fatalf("tests[%d] - parse errors for %q: %s", i, input, p.Errors()[0].Message)
		}

		printed := ast.Print(program)

		p2 := New(printed)
		reparsed := p2.ParseProgram()
		if len(p2.Errors()) != 0 {
			t.Fatalf("tests[%d] - reparse errors for %q: %s", i, printed, p2.Errors()[0].Message)
		}

		if !ast.EqualProgram(program, reparsed) {
			t.Errorf("tests[%d] - roundtrip mismatch.\noriginal: %q\nprinted:  %q", i, input, printed)
		}
	}
}
