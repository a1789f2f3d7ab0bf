package emit

import (
	"strconv"
	"strings"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
	"github.com/cinder-lang/cinder/internal/types"
)

// highLevelGen lowers a typed program to structurally-typed source with
// arrow functions and native closures.
type highLevelGen struct {
	info     *types.Info
	w        *writer
	scopes   *scopes
	assigned map[string]bool
}

func newHighLevelGen(info *types.Info) *highLevelGen {
	return &highLevelGen{
		info:   info,
		w:      newWriter("    "),
		scopes: newScopes(),
	}
}

func (g *highLevelGen) generate(program *ast.Program) (string, *Error) {
	g.assigned = assignedNames(program)

	for _, stmt := range program.Stmts {
		if err := g.stmt(stmt); err != nil {
			return "", err
		}
	}

	if program.Tail != nil {
		tail, err := g.expr(program.Tail)
		if err != nil {
			return "", err
		}
		g.w.line("console.log(" + tail + ");")
	}

	return g.w.String(), nil
}

func (g *highLevelGen) stmt(stmt ast.Stmt) *Error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return g.letStmt(s)

	case *ast.AssignStmt:
		value, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		g.w.line(g.scopes.resolve(s.Name.Name) + " = " + value + ";")
		return nil

	case *ast.ExprStmt:
		value, err := g.expr(s.Expr)
		if err != nil {
			return err
		}
		g.w.line(value + ";")
		return nil

	case *ast.ReturnStmt:
		if s.Value == nil {
			g.w.line("return;")
			return nil
		}
		value, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		g.w.line("return " + value + ";")
		return nil

	case *ast.IfStmt:
		cond, err := g.expr(s.Cond)
		if err != nil {
			return err
		}
		g.w.line("if (" + cond + ") {")
		if err := g.block(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			g.w.line("} else {")
			if err := g.block(s.Else); err != nil {
				return err
			}
		}
		g.w.line("}")
		return nil

	case *ast.LoopStmt:
		g.w.line("while (true) {")
		if err := g.block(s.Body); err != nil {
			return err
		}
		g.w.line("}")
		return nil

	case *ast.BreakStmt:
		g.w.line("break;")
		return nil
	}

	return &Error{Message: "unsupported statement", Span: stmt.Span()}
}

func (g *highLevelGen) letStmt(s *ast.LetStmt) *Error {
	keyword := "const"
	if g.assigned[s.Name.Name] {
		keyword = "let"
	}

	// Bind before the value so recursive functions can name themselves.
	name := g.scopes.bind(s.Name.Name)
	value, err := g.expr(s.Value)
	if err != nil {
		return err
	}
	g.w.line(keyword + " " + name + " = " + value + ";")
	return nil
}

func (g *highLevelGen) block(b *ast.Block) *Error {
	g.scopes.push()
	defer g.scopes.pop()

	g.w.in()
	defer g.w.out()

	for _, stmt := range b.Stmts {
		if err := g.stmt(stmt); err != nil {
			return err
		}
	}
	if b.Tail != nil {
		value, err := g.expr(b.Tail)
		if err != nil {
			return err
		}
		g.w.line(value + ";")
	}
	return nil
}

func (g *highLevelGen) expr(expr ast.Expr) (string, *Error) {
	switch e := expr.(type) {
	case *ast.IntegerLit:
		return e.Text, nil

	case *ast.StringLit:
		return strconv.Quote(e.Value), nil

	case *ast.BoolLit:
		if e.Value {
			return "true", nil
		}
		return "false", nil

	case *ast.Ident:
		return g.scopes.resolve(e.Name), nil

	case *ast.GroupExpr:
		return g.expr(e.Inner)

	case *ast.PrefixExpr:
		operand, err := g.expr(e.Expr)
		if err != nil {
			return "", err
		}
		return "(" + string(e.Op) + operand + ")", nil

	case *ast.InfixExpr:
		left, err := g.expr(e.Left)
		if err != nil {
			return "", err
		}
		right, err := g.expr(e.Right)
		if err != nil {
			return "", err
		}
		op := string(e.Op)
		if e.Op == lexer.EQ {
			op = "==="
		}
		if e.Op == lexer.NOT_EQ {
			op = "!=="
		}
		return "(" + left + " " + op + " " + right + ")", nil

	case *ast.FunLit:
		return g.funLit(e)

	case *ast.CallExpr:
		callee, err := g.expr(e.Callee)
		if err != nil {
			return "", err
		}
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			a, err := g.expr(arg)
			if err != nil {
				return "", err
			}
			args[i] = a
		}
		return callee + "(" + strings.Join(args, ", ") + ")", nil
	}

	return "", &Error{Message: "unsupported expression", Span: expr.Span()}
}

// funLit emits an arrow function. The first line carries no indentation of
// its own because it is spliced into the surrounding expression; inner
// lines use the writer's absolute indent.
func (g *highLevelGen) funLit(e *ast.FunLit) (string, *Error) {
	g.scopes.push()
	defer g.scopes.pop()

	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		name := g.scopes.bind(p.Name)
		if t := g.info.TypeOf(p); t != nil {
			params[i] = name + ": " + tsType(t)
		} else {
			params[i] = name
		}
	}

	sub := &highLevelGen{
		info:     g.info,
		w:        newWriter("    "),
		scopes:   g.scopes,
		assigned: g.assigned,
	}
	sub.w.indent = g.w.indent

	sub.w.in()
	for _, stmt := range e.Body.Stmts {
		if err := sub.stmt(stmt); err != nil {
			return "", err
		}
	}
	if e.Body.Tail != nil {
		tail, err := sub.expr(e.Body.Tail)
		if err != nil {
			return "", err
		}
		sub.w.line("return " + tail + ";")
	}
	sub.w.out()

	var b strings.Builder
	b.WriteString("(" + strings.Join(params, ", ") + ") => {\n")
	b.WriteString(sub.w.String())
	for i := 0; i < g.w.indent; i++ {
		b.WriteString("    ")
	}
	b.WriteString("}")
	return b.String(), nil
}

// tsType renders a type for the structurally-typed target. Unresolved
// variables stay unconstrained.
func tsType(t types.Type) string {
	switch tt := t.(type) {
	case *types.Primitive:
		switch tt.Kind {
		case types.Int:
			return "number"
		case types.Bool:
			return "boolean"
		case types.String:
			return "string"
		case types.Unit:
			return "void"
		}
	case *types.Fun:
		return "(arg: " + tsType(tt.Param) + ") => " + tsType(tt.Result)
	}
	return "any"
}
