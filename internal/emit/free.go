package emit

import (
	"sort"

	"github.com/cinder-lang/cinder/internal/ast"
)

// freeVars returns the names a function literal reads from enclosing
// scopes: identifiers used in the body that are neither parameters nor
// bound by a let inside the body. The result is sorted so capture-record
// layouts stay deterministic.
func freeVars(fn *ast.FunLit) []string {
	bound := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		bound[p.Name] = true
	}

	free := make(map[string]bool)
	freeInBlock(fn.Body, bound, free)

	names := make([]string, 0, len(free))
	for name := range free {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// freeInBlock walks one block scope. Lets bind for the remainder of the
// block only, so the bound set is forked per block, never shared upward.
func freeInBlock(b *ast.Block, outer map[string]bool, free map[string]bool) {
	bound := make(map[string]bool, len(outer))
	for name := range outer {
		bound[name] = true
	}

	for _, stmt := range b.Stmts {
		freeInStmt(stmt, bound, free)
	}
	if b.Tail != nil {
		freeInExpr(b.Tail, bound, free)
	}
}

func freeInStmt(stmt ast.Stmt, bound map[string]bool, free map[string]bool) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		// Recursive function bindings see their own name.
		if _, isFun := ast.Unwrap(s.Value).(*ast.FunLit); isFun {
			bound[s.Name.Name] = true
			freeInExpr(s.Value, bound, free)
			return
		}
		freeInExpr(s.Value, bound, free)
		bound[s.Name.Name] = true
	case *ast.AssignStmt:
		if !bound[s.Name.Name] {
			free[s.Name.Name] = true
		}
		freeInExpr(s.Value, bound, free)
	case *ast.ExprStmt:
		freeInExpr(s.Expr, bound, free)
	case *ast.ReturnStmt:
		if s.Value != nil {
			freeInExpr(s.Value, bound, free)
		}
	case *ast.IfStmt:
		freeInExpr(s.Cond, bound, free)
		freeInBlock(s.Then, bound, free)
		if s.Else != nil {
			freeInBlock(s.Else, bound, free)
		}
	case *ast.LoopStmt:
		freeInBlock(s.Body, bound, free)
	}
}

func freeInExpr(expr ast.Expr, bound map[string]bool, free map[string]bool) {
	switch e := expr.(type) {
	case *ast.Ident:
		if !bound[e.Name] {
			free[e.Name] = true
		}
	case *ast.PrefixExpr:
		freeInExpr(e.Expr, bound, free)
	case *ast.InfixExpr:
		freeInExpr(e.Left, bound, free)
		freeInExpr(e.Right, bound, free)
	case *ast.GroupExpr:
		freeInExpr(e.Inner, bound, free)
	case *ast.CallExpr:
		freeInExpr(e.Callee, bound, free)
		for _, arg := range e.Args {
			freeInExpr(arg, bound, free)
		}
	case *ast.FunLit:
		inner := make(map[string]bool, len(bound)+len(e.Params))
		for name := range bound {
			inner[name] = true
		}
		for _, p := range e.Params {
			inner[p.Name] = true
		}
		freeInBlock(e.Body, inner, free)
	}
}

// capturedAssignments returns the names assigned anywhere inside the
// function that are bound outside it, sorted. The traversal mirrors
// freeVars so binding scopes line up exactly.
func capturedAssignments(fn *ast.FunLit) []string {
	bound := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		bound[p.Name] = true
	}

	out := make(map[string]bool)
	capturedInBlock(fn.Body, bound, out)

	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func capturedInBlock(b *ast.Block, outer map[string]bool, out map[string]bool) {
	bound := make(map[string]bool, len(outer))
	for name := range outer {
		bound[name] = true
	}

	for _, stmt := range b.Stmts {
		capturedInStmt(stmt, bound, out)
	}
	if b.Tail != nil {
		capturedInExpr(b.Tail, bound, out)
	}
}

func capturedInStmt(stmt ast.Stmt, bound map[string]bool, out map[string]bool) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		if _, isFun := ast.Unwrap(s.Value).(*ast.FunLit); isFun {
			bound[s.Name.Name] = true
			capturedInExpr(s.Value, bound, out)
			return
		}
		capturedInExpr(s.Value, bound, out)
		bound[s.Name.Name] = true
	case *ast.AssignStmt:
		if !bound[s.Name.Name] {
			out[s.Name.Name] = true
		}
		capturedInExpr(s.Value, bound, out)
	case *ast.ExprStmt:
		capturedInExpr(s.Expr, bound, out)
	case *ast.ReturnStmt:
		if s.Value != nil {
			capturedInExpr(s.Value, bound, out)
		}
	case *ast.IfStmt:
		capturedInExpr(s.Cond, bound, out)
		capturedInBlock(s.Then, bound, out)
		if s.Else != nil {
			capturedInBlock(s.Else, bound, out)
		}
	case *ast.LoopStmt:
		capturedInBlock(s.Body, bound, out)
	}
}

func capturedInExpr(expr ast.Expr, bound map[string]bool, out map[string]bool) {
	switch e := expr.(type) {
	case *ast.PrefixExpr:
		capturedInExpr(e.Expr, bound, out)
	case *ast.InfixExpr:
		capturedInExpr(e.Left, bound, out)
		capturedInExpr(e.Right, bound, out)
	case *ast.GroupExpr:
		capturedInExpr(e.Inner, bound, out)
	case *ast.CallExpr:
		capturedInExpr(e.Callee, bound, out)
		for _, arg := range e.Args {
			capturedInExpr(arg, bound, out)
		}
	case *ast.FunLit:
		inner := make(map[string]bool, len(bound)+len(e.Params))
		for name := range bound {
			inner[name] = true
		}
		for _, p := range e.Params {
			inner[p.Name] = true
		}
		capturedInBlock(e.Body, inner, out)
	}
}

// assignedNames collects every name that is the target of an assignment
// anywhere under the node. Targets that must distinguish mutable bindings
// from immutable ones key off this set.
func assignedNames(node ast.Node) map[string]bool {
	assigned := make(map[string]bool)
	ast.Walk(node, func(n ast.Node) bool {
		if s, ok := n.(*ast.AssignStmt); ok {
			assigned[s.Name.Name] = true
		}
		return true
	})
	return assigned
}
