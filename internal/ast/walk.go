package ast

// Walk traverses the AST starting from node, calling fn for each node.
// If fn returns false, Walk stops traversing that branch.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, stmt := range n.Stmts {
			Walk(stmt, fn)
		}
		if n.Tail != nil {
			Walk(n.Tail, fn)
		}

	case *Block:
		for _, stmt := range n.Stmts {
			Walk(stmt, fn)
		}
		if n.Tail != nil {
			Walk(n.Tail, fn)
		}

	case *LetStmt:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		Walk(n.Value, fn)

	case *AssignStmt:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		Walk(n.Value, fn)

	case *ExprStmt:
		Walk(n.Expr, fn)

	case *ReturnStmt:
		if n.Value != nil {
			Walk(n.Value, fn)
		}

	case *IfStmt:
		Walk(n.Cond, fn)
		if n.Then != nil {
			Walk(n.Then, fn)
		}
		if n.Else != nil {
			Walk(n.Else, fn)
		}

	case *LoopStmt:
		if n.Body != nil {
			Walk(n.Body, fn)
		}

	case *PrefixExpr:
		Walk(n.Expr, fn)

	case *InfixExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)

	case *GroupExpr:
		Walk(n.Inner, fn)

	case *FunLit:
		for _, param := range n.Params {
			Walk(param, fn)
		}
		if n.Body != nil {
			Walk(n.Body, fn)
		}

	case *CallExpr:
		Walk(n.Callee, fn)
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	}
}
