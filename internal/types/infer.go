package types

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

// Info is the inferencer's output: a fresh annotation structure mapping
// every expression node to its final type. The input AST itself is never
// mutated.
type Info struct {
	Types      map[ast.Expr]Type
	Schemes    map[*ast.LetStmt]Scheme
	ResultType Type // nil when the program has no tail expression
}

// TypeOf returns the recorded type for an expression, looking through
// grouping nodes.
func (i *Info) TypeOf(e ast.Expr) Type {
	if t, ok := i.Types[e]; ok {
		return t
	}
	if g, ok := e.(*ast.GroupExpr); ok {
		return i.TypeOf(g.Inner)
	}
	return nil
}

// Inferencer runs Algorithm W over a program. The fresh-variable counter
// and the accumulated substitution are owned by the value, never global, so
// independent inference runs stay reentrant.
type Inferencer struct {
	nextVar int
	subst   Subst
	info    *Info
}

// NewInferencer creates an inferencer with an empty substitution.
func NewInferencer() *Inferencer {
	return &Inferencer{
		subst: Subst{},
		info: &Info{
			Types:   make(map[ast.Expr]Type),
			Schemes: make(map[*ast.LetStmt]Scheme),
		},
	}
}

// Infer is the expression-level entry point: it infers the type of a single
// expression under env and returns the type together with the substitution
// built along the way.
func Infer(expr ast.Expr, env *Env) (Type, Subst, *Error) {
	inf := NewInferencer()
	t, err := inf.inferExpr(expr, env, &stmtCtx{})
	if err != nil {
		return nil, nil, err
	}
	return inf.subst.Apply(t), inf.subst, nil
}

// InferProgram type-checks a whole program and returns the annotation info.
// Inference aborts at the first error; a failed run never yields a
// partially-typed result.
func (inf *Inferencer) InferProgram(p *ast.Program) (*Info, *Error) {
	ctx := &stmtCtx{}

	env, err := inf.inferStmts(p.Stmts, EmptyEnv(), ctx)
	if err != nil {
		return nil, err
	}

	if p.Tail != nil {
		t, err := inf.inferExpr(p.Tail, env, ctx)
		if err != nil {
			return nil, err
		}
		inf.info.ResultType = t
	}

	inf.finalize()
	return inf.info, nil
}

// fresh returns a new unification variable. IDs increase monotonically and
// are never reused within a run.
func (inf *Inferencer) fresh() *Var {
	v := &Var{ID: inf.nextVar}
	inf.nextVar++
	return v
}

// unify folds a new equation into the accumulated substitution.
func (inf *Inferencer) unify(t1, t2 Type, span lexer.Span) *Error {
	s, err := Unify(inf.subst.Apply(t1), inf.subst.Apply(t2), span)
	if err != nil {
		return err
	}
	inf.subst = s.Compose(inf.subst)
	return nil
}

// instantiate freshly renames a scheme's bound variables, preventing
// cross-call variable capture.
func (inf *Inferencer) instantiate(scheme Scheme) Type {
	if !scheme.IsPoly() {
		return scheme.Body
	}
	renaming := make(Subst, len(scheme.Vars))
	for _, id := range scheme.Vars {
		renaming[id] = inf.fresh()
	}
	return renaming.Apply(scheme.Body)
}

// generalize universally quantifies t over the variables not free in the
// surrounding environment, giving let-polymorphism.
func (inf *Inferencer) generalize(env *Env, t Type) Scheme {
	t = inf.subst.Apply(t)
	envFree := env.apply(inf.subst).freeVars()

	var vars []int
	for _, id := range freeTypeVars(t).Slice() {
		if !envFree.Contains(id) {
			vars = append(vars, id)
		}
	}
	if len(vars) == 0 {
		return Mono(t)
	}
	return Poly(vars, t)
}

// stmtCtx carries the statement-level context: the enclosing function's
// result type (nil at top level) and the loop nesting depth.
type stmtCtx struct {
	fnResult  Type
	loopDepth int
}

func (inf *Inferencer) inferStmts(stmts []ast.Stmt, env *Env, ctx *stmtCtx) (*Env, *Error) {
	for _, stmt := range stmts {
		next, err := inf.inferStmt(stmt, env, ctx)
		if err != nil {
			return nil, err
		}
		env = next
	}
	return env, nil
}

func (inf *Inferencer) inferStmt(stmt ast.Stmt, env *Env, ctx *stmtCtx) (*Env, *Error) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		return inf.inferLet(s, env, ctx)

	case *ast.AssignStmt:
		scheme, ok := env.Lookup(s.Name.Name)
		if !ok {
			return nil, &Error{
				Kind:    ErrUnboundVariable,
				Message: "unbound variable '" + s.Name.Name + "'",
				Span:    s.Name.Span(),
			}
		}
		t, err := inf.inferExpr(s.Value, env, ctx)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(inf.instantiate(scheme), t, s.Span()); err != nil {
			return nil, err
		}
		return env, nil

	case *ast.ExprStmt:
		if _, err := inf.inferExpr(s.Expr, env, ctx); err != nil {
			return nil, err
		}
		return env, nil

	case *ast.ReturnStmt:
		if ctx.fnResult == nil {
			return nil, &Error{
				Kind:    ErrInvalidStatement,
				Message: "return outside of a function",
				Span:    s.Span(),
			}
		}
		var t Type = TypeUnit
		if s.Value != nil {
			inferred, err := inf.inferExpr(s.Value, env, ctx)
			if err != nil {
				return nil, err
			}
			t = inferred
		}
		if err := inf.unify(ctx.fnResult, t, s.Span()); err != nil {
			return nil, err
		}
		return env, nil

	case *ast.IfStmt:
		cond, err := inf.inferExpr(s.Cond, env, ctx)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(cond, TypeBool, s.Cond.Span()); err != nil {
			return nil, err
		}
		if err := inf.inferBlock(s.Then, env, ctx); err != nil {
			return nil, err
		}
		if s.Else != nil {
			if err := inf.inferBlock(s.Else, env, ctx); err != nil {
				return nil, err
			}
		}
		return env, nil

	case *ast.LoopStmt:
		inner := &stmtCtx{fnResult: ctx.fnResult, loopDepth: ctx.loopDepth + 1}
		if err := inf.inferBlock(s.Body, env, inner); err != nil {
			return nil, err
		}
		return env, nil

	case *ast.BreakStmt:
		if ctx.loopDepth == 0 {
			return nil, &Error{
				Kind:    ErrInvalidStatement,
				Message: "break outside of a loop",
				Span:    s.Span(),
			}
		}
		return env, nil
	}

	return env, nil
}

// inferLet infers a let binding and extends the environment with the
// generalized scheme. Bindings whose value is a function literal are
// treated recursively: the name is visible, monomorphically, inside its own
// body, then generalized afterwards.
func (inf *Inferencer) inferLet(s *ast.LetStmt, env *Env, ctx *stmtCtx) (*Env, *Error) {
	var t Type
	var err *Error

	if _, isFun := ast.Unwrap(s.Value).(*ast.FunLit); isFun {
		self := inf.fresh()
		bodyEnv := env.Extend(s.Name.Name, Mono(self))
		t, err = inf.inferExpr(s.Value, bodyEnv, ctx)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(self, t, s.Span()); err != nil {
			return nil, err
		}
	} else {
		t, err = inf.inferExpr(s.Value, env, ctx)
		if err != nil {
			return nil, err
		}
	}

	scheme := inf.generalize(env, t)
	inf.info.Schemes[s] = scheme
	return env.Extend(s.Name.Name, scheme), nil
}

// inferBlock infers a nested block in a child scope; bindings introduced
// inside do not escape. A tail expression in statement position is inferred
// and discarded.
func (inf *Inferencer) inferBlock(b *ast.Block, env *Env, ctx *stmtCtx) *Error {
	blockEnv, err := inf.inferStmts(b.Stmts, env, ctx)
	if err != nil {
		return err
	}
	if b.Tail != nil {
		if _, err := inf.inferExpr(b.Tail, blockEnv, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (inf *Inferencer) inferExpr(expr ast.Expr, env *Env, ctx *stmtCtx) (Type, *Error) {
	t, err := inf.inferExprUncached(expr, env, ctx)
	if err != nil {
		return nil, err
	}
	inf.info.Types[expr] = t
	return t, nil
}

func (inf *Inferencer) inferExprUncached(expr ast.Expr, env *Env, ctx *stmtCtx) (Type, *Error) {
	switch e := expr.(type) {
	case *ast.IntegerLit:
		return TypeInt, nil

	case *ast.StringLit:
		return TypeString, nil

	case *ast.BoolLit:
		return TypeBool, nil

	case *ast.Ident:
		scheme, ok := env.Lookup(e.Name)
		if !ok {
			return nil, &Error{
				Kind:    ErrUnboundVariable,
				Message: "unbound variable '" + e.Name + "'",
				Span:    e.Span(),
			}
		}
		return inf.instantiate(scheme), nil

	case *ast.GroupExpr:
		return inf.inferExpr(e.Inner, env, ctx)

	case *ast.PrefixExpr:
		operand, err := inf.inferExpr(e.Expr, env, ctx)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case lexer.MINUS:
			if err := inf.unify(operand, TypeInt, e.Span()); err != nil {
				return nil, err
			}
			return TypeInt, nil
		case lexer.BANG:
			if err := inf.unify(operand, TypeBool, e.Span()); err != nil {
				return nil, err
			}
			return TypeBool, nil
		}
		return nil, &Error{
			Kind:    ErrTypeMismatch,
			Message: "unsupported prefix operator '" + string(e.Op) + "'",
			Span:    e.Span(),
		}

	case *ast.InfixExpr:
		return inf.inferInfix(e, env, ctx)

	case *ast.FunLit:
		return inf.inferFun(e, env, ctx)

	case *ast.CallExpr:
		return inf.inferCall(e, env, ctx)
	}

	return nil, &Error{
		Kind:    ErrTypeMismatch,
		Message: "cannot infer expression",
		Span:    expr.Span(),
	}
}

func (inf *Inferencer) inferInfix(e *ast.InfixExpr, env *Env, ctx *stmtCtx) (Type, *Error) {
	left, err := inf.inferExpr(e.Left, env, ctx)
	if err != nil {
		return nil, err
	}
	right, err := inf.inferExpr(e.Right, env, ctx)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH:
		if err := inf.unify(left, TypeInt, e.Left.Span()); err != nil {
			return nil, err
		}
		if err := inf.unify(right, TypeInt, e.Right.Span()); err != nil {
			return nil, err
		}
		return TypeInt, nil

	case lexer.LT, lexer.LE, lexer.GT, lexer.GE:
		if err := inf.unify(left, TypeInt, e.Left.Span()); err != nil {
			return nil, err
		}
		if err := inf.unify(right, TypeInt, e.Right.Span()); err != nil {
			return nil, err
		}
		return TypeBool, nil

	case lexer.EQ, lexer.NOT_EQ:
		// Equality is homogeneous: both sides must share one type.
		if err := inf.unify(left, right, e.Span()); err != nil {
			return nil, err
		}
		return TypeBool, nil

	case lexer.AND, lexer.OR:
		if err := inf.unify(left, TypeBool, e.Left.Span()); err != nil {
			return nil, err
		}
		if err := inf.unify(right, TypeBool, e.Right.Span()); err != nil {
			return nil, err
		}
		return TypeBool, nil
	}

	return nil, &Error{
		Kind:    ErrTypeMismatch,
		Message: "unsupported operator '" + string(e.Op) + "'",
		Span:    e.Span(),
	}
}

func (inf *Inferencer) inferFun(e *ast.FunLit, env *Env, ctx *stmtCtx) (Type, *Error) {
	paramTypes := make([]Type, len(e.Params))
	bodyEnv := env
	for i, param := range e.Params {
		v := inf.fresh()
		paramTypes[i] = v
		bodyEnv = bodyEnv.Extend(param.Name, Mono(v))
		inf.info.Types[param] = v
	}

	result := inf.fresh()
	bodyCtx := &stmtCtx{fnResult: result}

	blockEnv, err := inf.inferStmts(e.Body.Stmts, bodyEnv, bodyCtx)
	if err != nil {
		return nil, err
	}

	if e.Body.Tail != nil {
		tailType, err := inf.inferExpr(e.Body.Tail, blockEnv, bodyCtx)
		if err != nil {
			return nil, err
		}
		if err := inf.unify(result, tailType, e.Body.Tail.Span()); err != nil {
			return nil, err
		}
	} else if completesNormally(e.Body) {
		// Falling off the end of a body produces unit; only bodies that
		// return on every path leave the result to the return sites.
		if err := inf.unify(result, TypeUnit, e.Span()); err != nil {
			return nil, err
		}
	}

	return NewFun(paramTypes, result), nil
}

// completesNormally reports whether control can reach the end of the block.
func completesNormally(b *ast.Block) bool {
	for _, stmt := range b.Stmts {
		switch s := stmt.(type) {
		case *ast.ReturnStmt:
			return false
		case *ast.IfStmt:
			if s.Else != nil && !completesNormally(s.Then) && !completesNormally(s.Else) {
				return false
			}
		case *ast.LoopStmt:
			if !breaksOut(s.Body) {
				return false
			}
		}
	}
	return true
}

// breaksOut reports whether a loop body can exit its own loop. Breaks
// inside nested loops bind to the inner loop and do not count.
func breaksOut(b *ast.Block) bool {
	for _, stmt := range b.Stmts {
		switch s := stmt.(type) {
		case *ast.BreakStmt:
			return true
		case *ast.IfStmt:
			if breaksOut(s.Then) {
				return true
			}
			if s.Else != nil && breaksOut(s.Else) {
				return true
			}
		}
	}
	return false
}

func (inf *Inferencer) inferCall(e *ast.CallExpr, env *Env, ctx *stmtCtx) (Type, *Error) {
	callee, err := inf.inferExpr(e.Callee, env, ctx)
	if err != nil {
		return nil, err
	}

	// Zero-argument calls apply the unit parameter of NewFun.
	if len(e.Args) == 0 {
		result := inf.fresh()
		if err := inf.unify(callee, &Fun{Param: TypeUnit, Result: result}, e.Span()); err != nil {
			return nil, err
		}
		return result, nil
	}

	// Applications unwind the curried chain one argument at a time.
	current := callee
	for _, arg := range e.Args {
		argType, err := inf.inferExpr(arg, env, ctx)
		if err != nil {
			return nil, err
		}
		result := inf.fresh()
		if err := inf.unify(current, &Fun{Param: argType, Result: result}, e.Span()); err != nil {
			return nil, err
		}
		current = result
	}
	return current, nil
}

// finalize applies the accumulated substitution to every recorded
// annotation so consumers see fully-resolved types.
func (inf *Inferencer) finalize() {
	for expr, t := range inf.info.Types {
		inf.info.Types[expr] = inf.subst.Apply(t)
	}
	for stmt, scheme := range inf.info.Schemes {
		inf.info.Schemes[stmt] = inf.subst.ApplyScheme(scheme)
	}
	if inf.info.ResultType != nil {
		inf.info.ResultType = inf.subst.Apply(inf.info.ResultType)
	}
}
