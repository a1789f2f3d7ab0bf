package ast

import (
	"strconv"
	"strings"

	"github.com/cinder-lang/cinder/internal/lexer"
)

// Operator binding powers used when the printer decides whether an operand
// needs parentheses. Mirrors the parser's precedence table.
const (
	printPrecLowest = iota
	printPrecOr
	printPrecAnd
	printPrecEquality
	printPrecComparison
	printPrecSum
	printPrecProduct
	printPrecPrefix
	printPrecPostfix
)

var printPrecedences = map[lexer.TokenType]int{
	lexer.OR:       printPrecOr,
	lexer.AND:      printPrecAnd,
	lexer.EQ:       printPrecEquality,
	lexer.NOT_EQ:   printPrecEquality,
	lexer.LT:       printPrecComparison,
	lexer.LE:       printPrecComparison,
	lexer.GT:       printPrecComparison,
	lexer.GE:       printPrecComparison,
	lexer.PLUS:     printPrecSum,
	lexer.MINUS:    printPrecSum,
	lexer.ASTERISK: printPrecProduct,
	lexer.SLASH:    printPrecProduct,
}

// Print renders a program back to parseable source text. The output is a
// canonical form: one statement per line, a single space around infix
// operators, and parentheses only where grouping or precedence demands them.
// Reparsing the output yields a tree equal (modulo explicit grouping nodes)
// to the input, which is what the parser round-trip tests rely on.
func Print(p *Program) string {
	var b strings.Builder
	for _, stmt := range p.Stmts {
		printStmt(&b, stmt, 0)
		b.WriteByte('\n')
	}
	if p.Tail != nil {
		printExpr(&b, p.Tail, printPrecLowest)
		b.WriteByte('\n')
	}
	return b.String()
}

// PrintExpr renders a single expression.
func PrintExpr(e Expr) string {
	var b strings.Builder
	printExpr(&b, e, printPrecLowest)
	return b.String()
}

func printIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("    ")
	}
}

func printStmt(b *strings.Builder, stmt Stmt, depth int) {
	printIndent(b, depth)

	switch s := stmt.(type) {
	case *LetStmt:
		b.WriteString("let ")
		b.WriteString(s.Name.Name)
		b.WriteString(" = ")
		printExpr(b, s.Value, printPrecLowest)
		b.WriteByte(';')

	case *AssignStmt:
		b.WriteString(s.Name.Name)
		b.WriteString(" = ")
		printExpr(b, s.Value, printPrecLowest)
		b.WriteByte(';')

	case *ExprStmt:
		printExpr(b, s.Expr, printPrecLowest)
		b.WriteByte(';')

	case *ReturnStmt:
		if s.Value == nil {
			b.WriteString("return;")
		} else {
			b.WriteString("return ")
			printExpr(b, s.Value, printPrecLowest)
			b.WriteByte(';')
		}

	case *IfStmt:
		b.WriteString("if ")
		printExpr(b, s.Cond, printPrecLowest)
		b.WriteByte(' ')
		printBlock(b, s.Then, depth)
		if s.Else != nil {
			b.WriteString(" else ")
			printBlock(b, s.Else, depth)
		}

	case *LoopStmt:
		b.WriteString("loop ")
		printBlock(b, s.Body, depth)

	case *BreakStmt:
		b.WriteString("break;")
	}
}

func printBlock(b *strings.Builder, block *Block, depth int) {
	b.WriteByte('{')
	if len(block.Stmts) == 0 && block.Tail == nil {
		b.WriteByte('}')
		return
	}
	b.WriteByte('\n')
	for _, stmt := range block.Stmts {
		printStmt(b, stmt, depth+1)
		b.WriteByte('\n')
	}
	if block.Tail != nil {
		printIndent(b, depth+1)
		printExpr(b, block.Tail, printPrecLowest)
		b.WriteByte('\n')
	}
	printIndent(b, depth)
	b.WriteByte('}')
}

func printExpr(b *strings.Builder, expr Expr, contextPrec int) {
	switch e := expr.(type) {
	case *Ident:
		b.WriteString(e.Name)

	case *IntegerLit:
		b.WriteString(e.Text)

	case *StringLit:
		b.WriteString(strconv.Quote(e.Value))

	case *BoolLit:
		if e.Value {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case *PrefixExpr:
		b.WriteString(string(e.Op))
		printExpr(b, e.Expr, printPrecPrefix)

	case *InfixExpr:
		prec := printPrecedences[e.Op]
		if prec < contextPrec {
			b.WriteByte('(')
		}
		printExpr(b, e.Left, prec)
		b.WriteByte(' ')
		b.WriteString(string(e.Op))
		b.WriteByte(' ')
		// Left-associative: the right operand binds one level tighter.
		printExpr(b, e.Right, prec+1)
		if prec < contextPrec {
			b.WriteByte(')')
		}

	case *GroupExpr:
		b.WriteByte('(')
		printExpr(b, e.Inner, printPrecLowest)
		b.WriteByte(')')

	case *FunLit:
		b.WriteString("fun(")
		for i, param := range e.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(param.Name)
		}
		b.WriteString(") ")
		printBlock(b, e.Body, 0)

	case *CallExpr:
		printExpr(b, e.Callee, printPrecPostfix)
		b.WriteByte('(')
		for i, arg := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			printExpr(b, arg, printPrecLowest)
		}
		b.WriteByte(')')
	}
}
