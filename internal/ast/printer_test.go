package ast

import (
	"testing"

	"github.com/cinder-lang/cinder/internal/lexer"
)

func num(text string) *IntegerLit {
	return NewIntegerLit(text, lexer.Span{})
}

func infix(op lexer.TokenType, left, right Expr) *InfixExpr {
	return NewInfixExpr(op, left, right, lexer.Span{})
}

func TestPrintExprPrecedence(t *testing.T) {
	tests := []struct {
		expr     Expr
		expected string
	}{
		// 1 + (2 * 3) needs no parentheses.
		{infix(lexer.PLUS, num("1"), infix(lexer.ASTERISK, num("2"), num("3"))), "1 + 2 * 3"},
		// (1 + 2) * 3 does.
		{infix(lexer.ASTERISK, infix(lexer.PLUS, num("1"), num("2")), num("3")), "(1 + 2) * 3"},
		// Left-associative folding prints flat.
		{infix(lexer.MINUS, infix(lexer.MINUS, num("1"), num("2")), num("3")), "1 - 2 - 3"},
		// Right-nested subtraction keeps its parentheses.
		{infix(lexer.MINUS, num("1"), infix(lexer.MINUS, num("2"), num("3"))), "1 - (2 - 3)"},
		// Prefix binds tighter than infix.
		{infix(lexer.PLUS, NewPrefixExpr(lexer.MINUS, num("1"), lexer.Span{}), num("2")), "-1 + 2"},
		{NewPrefixExpr(lexer.MINUS, infix(lexer.PLUS, num("1"), num("2")), lexer.Span{}), "-(1 + 2)"},
		// Explicit grouping always prints.
		{NewGroupExpr(num("1"), lexer.Span{}), "(1)"},
		{NewCallExpr(NewIdent("f", lexer.Span{}), []Expr{num("1"), num("2")}, lexer.Span{}), "f(1, 2)"},
		{NewStringLit("a\"b", lexer.Span{}), `"a\"b"`},
	}

	for i, tt := range tests {
		if got := PrintExpr(tt.expr); got != tt.expected {
			t.Fatalf("tests[%d] - printed form wrong. expected=%q, got=%q", i, tt.expected, got)
		}
	}
}

func TestEqualExprIgnoresSpansAndGroups(t *testing.T) {
	a := infix(lexer.PLUS, num("1"), num("2"))
	b := NewInfixExpr(lexer.PLUS,
		NewGroupExpr(NewIntegerLit("1", lexer.Span{Line: 9, Column: 4}), lexer.Span{}),
		NewIntegerLit("2", lexer.Span{Line: 9, Column: 8}),
		lexer.Span{Line: 9},
	)

	if !EqualExpr(a, b) {
		t.Fatalf("expressions should compare equal across spans and grouping")
	}
	if EqualExpr(a, infix(lexer.MINUS, num("1"), num("2"))) {
		t.Fatalf("different operators must not compare equal")
	}
}

func TestWalkVisitsInSourceOrder(t *testing.T) {
	program := NewProgram(lexer.Span{})
	program.Stmts = []Stmt{
		NewLetStmt(NewIdent("x", lexer.Span{}), num("1"), lexer.Span{}),
	}
	program.Tail = infix(lexer.PLUS, NewIdent("x", lexer.Span{}), num("2"))

	var order []string
	Walk(program, func(n Node) bool {
		switch node := n.(type) {
		case *Ident:
			order = append(order, node.Name)
		case *IntegerLit:
			order = append(order, node.Text)
		}
		return true
	})

	expected := []string{"x", "1", "x", "2"}
	if len(order) != len(expected) {
		t.Fatalf("visit order wrong. expected=%v, got=%v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("visit order wrong. expected=%v, got=%v", expected, order)
		}
	}
}

func TestWalkPrune(t *testing.T) {
	program := NewProgram(lexer.Span{})
	program.Tail = infix(lexer.PLUS, num("1"), num("2"))

	visited := 0
	Walk(program, func(n Node) bool {
		visited++
		_, isInfix := n.(*InfixExpr)
		return !isInfix
	})

	// Program and the infix node only; pruning skips the operands.
	if visited != 2 {
		t.Fatalf("expected 2 visited nodes, got %d", visited)
	}
}
