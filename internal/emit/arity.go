package emit

import (
	"strconv"

	"github.com/cinder-lang/cinder/internal/ast"
)

// checkArity rejects calls whose argument count differs from the callee's
// parameter count. The type model is curried, so partial and staged
// application type-check, but every target compiles fixed-arity functions;
// a mismatched call would trap or misbehave at runtime. Only callees that
// resolve lexically to a function literal are checked; values flowing
// through parameters or call results dispatch dynamically.
func checkArity(program *ast.Program) *Error {
	c := &arityChecker{frames: []map[string]*ast.FunLit{{}}}

	for _, stmt := range program.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	if program.Tail != nil {
		return c.expr(program.Tail)
	}
	return nil
}

// arityChecker tracks which names are currently bound to function literals.
// A nil entry shadows an outer function binding.
type arityChecker struct {
	frames []map[string]*ast.FunLit
}

func (c *arityChecker) push() {
	c.frames = append(c.frames, map[string]*ast.FunLit{})
}

func (c *arityChecker) pop() {
	c.frames = c.frames[:len(c.frames)-1]
}

func (c *arityChecker) bind(name string, fn *ast.FunLit) {
	c.frames[len(c.frames)-1][name] = fn
}

func (c *arityChecker) lookup(name string) *ast.FunLit {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if fn, ok := c.frames[i][name]; ok {
			return fn
		}
	}
	return nil
}

// rebind clears the resolution for a name in its defining frame after an
// assignment; the value may no longer be the original literal.
func (c *arityChecker) rebind(name string) {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if _, ok := c.frames[i][name]; ok {
			c.frames[i][name] = nil
			return
		}
	}
}

func (c *arityChecker) stmt(stmt ast.Stmt) *Error {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		if fn, ok := ast.Unwrap(s.Value).(*ast.FunLit); ok {
			c.bind(s.Name.Name, fn)
			return c.expr(s.Value)
		}
		if err := c.expr(s.Value); err != nil {
			return err
		}
		c.bind(s.Name.Name, nil)
		return nil

	case *ast.AssignStmt:
		c.rebind(s.Name.Name)
		return c.expr(s.Value)

	case *ast.ExprStmt:
		return c.expr(s.Expr)

	case *ast.ReturnStmt:
		if s.Value != nil {
			return c.expr(s.Value)
		}
		return nil

	case *ast.IfStmt:
		if err := c.expr(s.Cond); err != nil {
			return err
		}
		if err := c.block(s.Then); err != nil {
			return err
		}
		if s.Else != nil {
			return c.block(s.Else)
		}
		return nil

	case *ast.LoopStmt:
		return c.block(s.Body)
	}

	return nil
}

func (c *arityChecker) block(b *ast.Block) *Error {
	c.push()
	defer c.pop()

	for _, stmt := range b.Stmts {
		if err := c.stmt(stmt); err != nil {
			return err
		}
	}
	if b.Tail != nil {
		return c.expr(b.Tail)
	}
	return nil
}

func (c *arityChecker) expr(expr ast.Expr) *Error {
	switch e := expr.(type) {
	case *ast.GroupExpr:
		return c.expr(e.Inner)

	case *ast.PrefixExpr:
		return c.expr(e.Expr)

	case *ast.InfixExpr:
		if err := c.expr(e.Left); err != nil {
			return err
		}
		return c.expr(e.Right)

	case *ast.FunLit:
		c.push()
		defer c.pop()
		for _, p := range e.Params {
			c.bind(p.Name, nil)
		}
		return c.block(e.Body)

	case *ast.CallExpr:
		if fn := c.resolve(e.Callee); fn != nil && len(e.Args) != len(fn.Params) {
			return &Error{
				Message: "function takes " + strconv.Itoa(len(fn.Params)) +
					" argument(s) but " + strconv.Itoa(len(e.Args)) + " were supplied",
				Span: e.Span(),
			}
		}
		if err := c.expr(e.Callee); err != nil {
			return err
		}
		for _, arg := range e.Args {
			if err := c.expr(arg); err != nil {
				return err
			}
		}
		return nil
	}

	return nil
}

func (c *arityChecker) resolve(callee ast.Expr) *ast.FunLit {
	switch e := ast.Unwrap(callee).(type) {
	case *ast.FunLit:
		return e
	case *ast.Ident:
		return c.lookup(e.Name)
	}
	return nil
}
