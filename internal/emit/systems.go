package emit

import (
	"strconv"
	"strings"

	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/types"
)

// systemsGen lowers a typed program to ownership-explicit systems source.
// The whole program becomes the body of a main function; named function
// bindings without captures become nested function items, everything else
// becomes a move closure.
type systemsGen struct {
	info     *types.Info
	w        *writer
	assigned map[string]bool
}

func newSystemsGen(info *types.Info) *systemsGen {
	return &systemsGen{
		info: info,
		w:    newWriter("    "),
	}
}

func (g *systemsGen) generate(program *ast.Program) (string, *Error) {
	g.assigned = assignedNames(program)

	g.w.line("fn main() {")
	g.w.in()

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
		g.w.line("println!(\"{}\", " + tail + ");")
	}

	g.w.out()
	g.w.line("}")
	return g.w.String(), nil
}

func (g *systemsGen) stmt(stmt ast.Stmt) *Error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return g.letStmt(s)

	case *ast.AssignStmt:
		value, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		g.w.line(s.Name.Name + " = " + value + ";")
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
		g.w.line("if " + cond + " {")
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
		g.w.line("loop {")
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

// letStmt emits either a nested function item or a plain binding. A
// function item only works for capture-free function values; anything
// else stays a closure binding.
func (g *systemsGen) letStmt(s *ast.LetStmt) *Error {
	if fn, ok := ast.Unwrap(s.Value).(*ast.FunLit); ok && onlySelfCapture(fn, s.Name.Name) {
		return g.fnItem(s, fn)
	}

	value, err := g.expr(s.Value)
	if err != nil {
		return err
	}
	binding := "let "
	if g.assigned[s.Name.Name] {
		binding = "let mut "
	}
	g.w.line(binding + s.Name.Name + " = " + value + ";")
	return nil
}

func (g *systemsGen) fnItem(s *ast.LetStmt, fn *ast.FunLit) *Error {
	generics := map[int]string{}
	var genericList string
	if scheme, ok := g.info.Schemes[s]; ok && scheme.IsPoly() {
		names := make([]string, len(scheme.Vars))
		for i, id := range scheme.Vars {
			names[i] = string(rune('A' + i))
			generics[id] = names[i]
		}
		genericList = "<" + strings.Join(names, ", ") + ">"
	}

	paramTypes, result := uncurry(g.schemeBody(s), len(fn.Params))

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		t := "i64"
		if i < len(paramTypes) {
			t = rsType(paramTypes[i], generics)
		}
		params[i] = p.Name + ": " + t
	}

	header := "fn " + s.Name.Name + genericList + "(" + strings.Join(params, ", ") + ")"
	if result != nil && !types.Equal(result, types.TypeUnit) {
		header += " -> " + rsType(result, generics)
	}
	g.w.line(header + " {")
	if err := g.fnBody(fn.Body); err != nil {
		return err
	}
	g.w.line("}")
	return nil
}

// onlySelfCapture reports whether a function value is free of captures
// apart from its own binding name. Such functions can become items, and
// recursion goes through the item name rather than a captured value.
func onlySelfCapture(fn *ast.FunLit, self string) bool {
	for _, name := range freeVars(fn) {
		if name != self {
			return false
		}
	}
	return true
}

func (g *systemsGen) schemeBody(s *ast.LetStmt) types.Type {
	if scheme, ok := g.info.Schemes[s]; ok {
		return scheme.Body
	}
	return g.info.TypeOf(s.Value)
}

func (g *systemsGen) block(b *ast.Block) *Error {
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

// fnBody emits a function or closure body; a tail expression becomes the
// block value.
func (g *systemsGen) fnBody(b *ast.Block) *Error {
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
		g.w.line(value)
	}
	return nil
}

func (g *systemsGen) expr(expr ast.Expr) (string, *Error) {
	switch e := expr.(type) {
	case *ast.IntegerLit:
		return e.Text, nil

	case *ast.StringLit:
		return "String::from(" + strconv.Quote(e.Value) + ")", nil

	case *ast.BoolLit:
		if e.Value {
			return "true", nil
		}
		return "false", nil

	case *ast.Ident:
		return e.Name, nil

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
		return "(" + left + " " + string(e.Op) + " " + right + ")", nil

	case *ast.FunLit:
		return g.closure(e)

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

func (g *systemsGen) closure(e *ast.FunLit) (string, *Error) {
	// Move closures copy their captures, so assigning through one would
	// silently diverge from targets whose closures share the binding.
	if names := capturedAssignments(e); len(names) > 0 {
		return "", &Error{
			Message: "systems target cannot assign to captured variable '" + names[0] + "'",
			Span:    e.Span(),
		}
	}

	params := make([]string, len(e.Params))
	for i, p := range e.Params {
		params[i] = p.Name
	}

	sub := &systemsGen{info: g.info, w: newWriter("    "), assigned: g.assigned}
	sub.w.indent = g.w.indent
	if err := sub.fnBody(e.Body); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("move |" + strings.Join(params, ", ") + "| {\n")
	b.WriteString(sub.w.String())
	for i := 0; i < g.w.indent; i++ {
		b.WriteString("    ")
	}
	b.WriteString("}")
	return b.String(), nil
}

// uncurry splits a curried function type into n parameter types and the
// remaining result. A zero-parameter function consumes its unit slot.
func uncurry(t types.Type, n int) ([]types.Type, types.Type) {
	if n == 0 {
		if fn, ok := t.(*types.Fun); ok {
			return nil, fn.Result
		}
		return nil, t
	}

	params := make([]types.Type, 0, n)
	current := t
	for i := 0; i < n; i++ {
		fn, ok := current.(*types.Fun)
		if !ok {
			break
		}
		params = append(params, fn.Param)
		current = fn.Result
	}
	return params, current
}

// rsType renders a type for the systems target. Quantified variables map
// to generic parameter names.
func rsType(t types.Type, generics map[int]string) string {
	switch tt := t.(type) {
	case *types.Primitive:
		switch tt.Kind {
		case types.Int:
			return "i64"
		case types.Bool:
			return "bool"
		case types.String:
			return "String"
		case types.Unit:
			return "()"
		}
	case *types.Var:
		if name, ok := generics[tt.ID]; ok {
			return name
		}
		return "i64"
	case *types.Fun:
		return "impl Fn(" + rsType(tt.Param, generics) + ") -> " + rsType(tt.Result, generics)
	}
	return "i64"
}
