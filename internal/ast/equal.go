package ast

// EqualProgram reports structural equality of two programs. Spans are
// ignored; explicit grouping nodes are transparent, so a tree that gained
// parentheses from the printer still compares equal to its origin.
func EqualProgram(a, b *Program) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Stmts) != len(b.Stmts) {
		return false
	}
	for i := range a.Stmts {
		if !EqualStmt(a.Stmts[i], b.Stmts[i]) {
			return false
		}
	}
	return EqualExpr(a.Tail, b.Tail)
}

// EqualStmt reports structural equality of two statements.
func EqualStmt(a, b Stmt) bool {
	switch sa := a.(type) {
	case *LetStmt:
		sb, ok := b.(*LetStmt)
		return ok && sa.Name.Name == sb.Name.Name && EqualExpr(sa.Value, sb.Value)
	case *AssignStmt:
		sb, ok := b.(*AssignStmt)
		return ok && sa.Name.Name == sb.Name.Name && EqualExpr(sa.Value, sb.Value)
	case *ExprStmt:
		sb, ok := b.(*ExprStmt)
		return ok && EqualExpr(sa.Expr, sb.Expr)
	case *ReturnStmt:
		sb, ok := b.(*ReturnStmt)
		return ok && EqualExpr(sa.Value, sb.Value)
	case *IfStmt:
		sb, ok := b.(*IfStmt)
		return ok && EqualExpr(sa.Cond, sb.Cond) &&
			equalBlock(sa.Then, sb.Then) && equalBlock(sa.Else, sb.Else)
	case *LoopStmt:
		sb, ok := b.(*LoopStmt)
		return ok && equalBlock(sa.Body, sb.Body)
	case *BreakStmt:
		_, ok := b.(*BreakStmt)
		return ok
	}
	return false
}

func equalBlock(a, b *Block) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Stmts) != len(b.Stmts) {
		return false
	}
	for i := range a.Stmts {
		if !EqualStmt(a.Stmts[i], b.Stmts[i]) {
			return false
		}
	}
	return EqualExpr(a.Tail, b.Tail)
}

// EqualExpr reports structural equality of two expressions, looking through
// GroupExpr wrappers on either side.
func EqualExpr(a, b Expr) bool {
	a = Unwrap(a)
	b = Unwrap(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch ea := a.(type) {
	case *Ident:
		eb, ok := b.(*Ident)
		return ok && ea.Name == eb.Name
	case *IntegerLit:
		eb, ok := b.(*IntegerLit)
		return ok && ea.Text == eb.Text
	case *StringLit:
		eb, ok := b.(*StringLit)
		return ok && ea.Value == eb.Value
	case *BoolLit:
		eb, ok := b.(*BoolLit)
		return ok && ea.Value == eb.Value
	case *PrefixExpr:
		eb, ok := b.(*PrefixExpr)
		return ok && ea.Op == eb.Op && EqualExpr(ea.Expr, eb.Expr)
	case *InfixExpr:
		eb, ok := b.(*InfixExpr)
		return ok && ea.Op == eb.Op &&
			EqualExpr(ea.Left, eb.Left) && EqualExpr(ea.Right, eb.Right)
	case *FunLit:
		eb, ok := b.(*FunLit)
		if !ok || len(ea.Params) != len(eb.Params) {
			return false
		}
		for i := range ea.Params {
			if ea.Params[i].Name != eb.Params[i].Name {
				return false
			}
		}
		return equalBlock(ea.Body, eb.Body)
	case *CallExpr:
		eb, ok := b.(*CallExpr)
		if !ok || len(ea.Args) != len(eb.Args) {
			return false
		}
		if !EqualExpr(ea.Callee, eb.Callee) {
			return false
		}
		for i := range ea.Args {
			if !EqualExpr(ea.Args[i], eb.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Unwrap strips any GroupExpr layers from an expression.
func Unwrap(e Expr) Expr {
	for {
		g, ok := e.(*GroupExpr)
		if !ok {
			return e
		}
		e = g.Inner
	}
}
