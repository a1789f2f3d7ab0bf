package ast

import "github.com/cinder-lang/cinder/internal/lexer"

// Node represents any AST node with an associated source span.
type Node interface {
	Span() lexer.Span
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program represents a parsed compilation unit: a statement sequence with an
// optional trailing tail expression whose value is the program result.
type Program struct {
	Stmts []Stmt
	Tail  Expr
	span  lexer.Span
}

// Span returns the span covering the entire program.
func (p *Program) Span() lexer.Span { return p.span }

// NewProgram constructs a program node with the provided span.
func NewProgram(span lexer.Span) *Program {
	return &Program{span: span}
}

// SetSpan updates the program span.
func (p *Program) SetSpan(span lexer.Span) {
	p.span = span
}

// Block represents a brace-delimited statement sequence with an optional
// tail expression.
type Block struct {
	Stmts []Stmt
	Tail  Expr
	span  lexer.Span
}

// Span returns the block span.
func (b *Block) Span() lexer.Span { return b.span }

// NewBlock constructs a block node.
func NewBlock(stmts []Stmt, tail Expr, span lexer.Span) *Block {
	return &Block{
		Stmts: stmts,
		Tail:  tail,
		span:  span,
	}
}

// SetSpan updates the block span.
func (b *Block) SetSpan(span lexer.Span) {
	b.span = span
}

// LetStmt represents a let binding statement.
type LetStmt struct {
	Name  *Ident
	Value Expr
	span  lexer.Span
}

// Span returns the statement span.
func (s *LetStmt) Span() lexer.Span { return s.span }

// NewLetStmt constructs a let statement node.
func NewLetStmt(name *Ident, value Expr, span lexer.Span) *LetStmt {
	return &LetStmt{
		Name:  name,
		Value: value,
		span:  span,
	}
}

func (*LetStmt) stmtNode() {}

// AssignStmt represents an assignment to an existing binding.
type AssignStmt struct {
	Name  *Ident
	Value Expr
	span  lexer.Span
}

// Span returns the statement span.
func (s *AssignStmt) Span() lexer.Span { return s.span }

// NewAssignStmt constructs an assignment statement node.
func NewAssignStmt(name *Ident, value Expr, span lexer.Span) *AssignStmt {
	return &AssignStmt{
		Name:  name,
		Value: value,
		span:  span,
	}
}

func (*AssignStmt) stmtNode() {}

// ExprStmt represents an expression statement.
type ExprStmt struct {
	Expr Expr
	span lexer.Span
}

// Span returns the statement span.
func (s *ExprStmt) Span() lexer.Span { return s.span }

// NewExprStmt constructs an expression statement node.
func NewExprStmt(expr Expr, span lexer.Span) *ExprStmt {
	return &ExprStmt{
		Expr: expr,
		span: span,
	}
}

func (*ExprStmt) stmtNode() {}

// ReturnStmt represents a return statement.
type ReturnStmt struct {
	Value Expr
	span  lexer.Span
}

// Span returns the statement span.
func (s *ReturnStmt) Span() lexer.Span { return s.span }

// NewReturnStmt constructs a return statement node.
func NewReturnStmt(value Expr, span lexer.Span) *ReturnStmt {
	return &ReturnStmt{
		Value: value,
		span:  span,
	}
}

func (*ReturnStmt) stmtNode() {}

// IfStmt represents a conditional statement with an optional else block.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else *Block
	span lexer.Span
}

// Span returns the statement span.
func (s *IfStmt) Span() lexer.Span { return s.span }

// NewIfStmt constructs a conditional statement node.
func NewIfStmt(cond Expr, then, els *Block, span lexer.Span) *IfStmt {
	return &IfStmt{
		Cond: cond,
		Then: then,
		Else: els,
		span: span,
	}
}

func (*IfStmt) stmtNode() {}

// LoopStmt represents an unconditional loop terminated by break.
type LoopStmt struct {
	Body *Block
	span lexer.Span
}

// Span returns the statement span.
func (s *LoopStmt) Span() lexer.Span { return s.span }

// NewLoopStmt constructs a loop statement node.
func NewLoopStmt(body *Block, span lexer.Span) *LoopStmt {
	return &LoopStmt{
		Body: body,
		span: span,
	}
}

func (*LoopStmt) stmtNode() {}

// BreakStmt represents a break statement.
type BreakStmt struct {
	span lexer.Span
}

// Span returns the statement span.
func (s *BreakStmt) Span() lexer.Span { return s.span }

// NewBreakStmt constructs a break statement node.
func NewBreakStmt(span lexer.Span) *BreakStmt {
	return &BreakStmt{span: span}
}

func (*BreakStmt) stmtNode() {}

// Ident represents an identifier.
type Ident struct {
	Name string
	span lexer.Span
}

// Span returns the identifier span.
func (i *Ident) Span() lexer.Span { return i.span }

func (*Ident) exprNode() {}

// NewIdent constructs an identifier node.
func NewIdent(name string, span lexer.Span) *Ident {
	return &Ident{
		Name: name,
		span: span,
	}
}

// SetSpan updates the identifier span.
func (i *Ident) SetSpan(span lexer.Span) {
	i.span = span
}

// IntegerLit represents an integer literal.
type IntegerLit struct {
	Text string
	span lexer.Span
}

// Span returns the literal span.
func (l *IntegerLit) Span() lexer.Span { return l.span }

// NewIntegerLit constructs an integer literal node.
func NewIntegerLit(text string, span lexer.Span) *IntegerLit {
	return &IntegerLit{
		Text: text,
		span: span,
	}
}

// SetSpan updates the literal span.
func (l *IntegerLit) SetSpan(span lexer.Span) {
	l.span = span
}

func (*IntegerLit) exprNode() {}

// StringLit represents a string literal. Value holds the decoded text.
type StringLit struct {
	Value string
	span  lexer.Span
}

// Span returns the literal span.
func (l *StringLit) Span() lexer.Span { return l.span }

// NewStringLit constructs a string literal node.
func NewStringLit(value string, span lexer.Span) *StringLit {
	return &StringLit{
		Value: value,
		span:  span,
	}
}

// SetSpan updates the literal span.
func (l *StringLit) SetSpan(span lexer.Span) {
	l.span = span
}

func (*StringLit) exprNode() {}

// BoolLit represents a boolean literal.
type BoolLit struct {
	Value bool
	span  lexer.Span
}

// Span returns the literal span.
func (l *BoolLit) Span() lexer.Span { return l.span }

// NewBoolLit constructs a boolean literal node.
func NewBoolLit(value bool, span lexer.Span) *BoolLit {
	return &BoolLit{
		Value: value,
		span:  span,
	}
}

// SetSpan updates the literal span.
func (l *BoolLit) SetSpan(span lexer.Span) {
	l.span = span
}

func (*BoolLit) exprNode() {}

// PrefixExpr represents a prefix expression.
type PrefixExpr struct {
	Op   lexer.TokenType
	Expr Expr
	span lexer.Span
}

// Span returns the expression span.
func (e *PrefixExpr) Span() lexer.Span { return e.span }

// NewPrefixExpr constructs a prefix expression node.
func NewPrefixExpr(op lexer.TokenType, expr Expr, span lexer.Span) *PrefixExpr {
	return &PrefixExpr{
		Op:   op,
		Expr: expr,
		span: span,
	}
}

func (*PrefixExpr) exprNode() {}

// InfixExpr represents an infix binary expression.
type InfixExpr struct {
	Op    lexer.TokenType
	Left  Expr
	Right Expr
	span  lexer.Span
}

// Span returns the expression span.
func (e *InfixExpr) Span() lexer.Span { return e.span }

// NewInfixExpr constructs a binary expression node.
func NewInfixExpr(op lexer.TokenType, left, right Expr, span lexer.Span) *InfixExpr {
	return &InfixExpr{
		Op:    op,
		Left:  left,
		Right: right,
		span:  span,
	}
}

// SetSpan updates the infix expression span.
func (e *InfixExpr) SetSpan(span lexer.Span) {
	e.span = span
}

func (*InfixExpr) exprNode() {}

// GroupExpr represents a parenthesized expression. The node is kept in the
// tree so the source printer can reproduce the author's grouping exactly.
type GroupExpr struct {
	Inner Expr
	span  lexer.Span
}

// Span returns the expression span.
func (e *GroupExpr) Span() lexer.Span { return e.span }

// NewGroupExpr constructs a grouping node.
func NewGroupExpr(inner Expr, span lexer.Span) *GroupExpr {
	return &GroupExpr{
		Inner: inner,
		span:  span,
	}
}

func (*GroupExpr) exprNode() {}

// FunLit represents a function literal.
type FunLit struct {
	Params []*Ident
	Body   *Block
	span   lexer.Span
}

// Span returns the expression span.
func (e *FunLit) Span() lexer.Span { return e.span }

// NewFunLit constructs a function literal node.
func NewFunLit(params []*Ident, body *Block, span lexer.Span) *FunLit {
	return &FunLit{
		Params: params,
		Body:   body,
		span:   span,
	}
}

func (*FunLit) exprNode() {}

// CallExpr represents a function call.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	span   lexer.Span
}

// Span returns the expression span.
func (e *CallExpr) Span() lexer.Span { return e.span }

// NewCallExpr constructs a call expression node.
func NewCallExpr(callee Expr, args []Expr, span lexer.Span) *CallExpr {
	return &CallExpr{
		Callee: callee,
		Args:   args,
		span:   span,
	}
}

func (*CallExpr) exprNode() {}
