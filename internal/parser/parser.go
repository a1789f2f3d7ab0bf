package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/diag"
	"github.com/cinder-lang/cinder/internal/lexer"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

type Option func(*options)

type options struct {
	filename string
}

// WithFilename configures the parser to attribute all emitted spans to the
// provided filename.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// Operator binding powers. Multiplicative operators bind tighter than
// additive ones, prefix operators tighter than any infix operator, and
// postfix (call) tightest of all.
const (
	precedenceLowest = iota
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
	precedencePostfix
)

var precedences = map[lexer.TokenType]int{
	lexer.OR:       precedenceOr,
	lexer.AND:      precedenceAnd,
	lexer.EQ:       precedenceEquality,
	lexer.NOT_EQ:   precedenceEquality,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.LPAREN:   precedencePostfix,
}

// ParseError captures a recoverable parsing error with location context.
// Expected and Found name the token types at the failure site; Found is
// empty when the error is not tied to a specific token mismatch.
type ParseError struct {
	Message  string
	Span     lexer.Span
	Expected lexer.TokenType
	Found    lexer.TokenType
	Severity diag.Severity
}

// ToDiagnostic converts a parse error into a shared diagnostic structure.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	code := diag.CodeParseUnexpectedToken
	if e.Expected != "" {
		code = diag.CodeParseMissingToken
	}
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: e.Severity,
		Code:     code,
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}

// Parser implements a Pratt-style recursive descent parser for Cinder.
// Invariants:
//   - Lookahead: curTok always reflects the token currently under
//     examination; peekTok mirrors the next token pulled from the lexer. The
//     pair forms the parser's sole lookahead window and is only mutated via
//     nextToken.
//   - Diagnostics: errors is an append-only accumulator of recoverable
//     diagnostics. Callers consult Errors() after ParseProgram.
//   - Progress: every recovery path either returns at a statement boundary
//     or advances at least one token (see recoverStatement), so malformed
//     input can never wedge the parser in place.
type Parser struct {
	lx      *lexer.Lexer
	curTok  lexer.Token
	peekTok lexer.Token

	errors []ParseError

	filename string

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Parser{
		lx:        lexer.New(input),
		prefixFns: make(map[lexer.TokenType]prefixParseFn),
		infixFns:  make(map[lexer.TokenType]infixParseFn),
		filename:  cfg.filename,
	}

	if cfg.filename != "" {
		p.lx.SetFilename(cfg.filename)
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(lexer.FUN, p.parseFunLit)

	p.registerInfix(lexer.PLUS, p.parseInfixExpr)
	p.registerInfix(lexer.MINUS, p.parseInfixExpr)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpr)
	p.registerInfix(lexer.SLASH, p.parseInfixExpr)
	p.registerInfix(lexer.AND, p.parseInfixExpr)
	p.registerInfix(lexer.OR, p.parseInfixExpr)
	p.registerInfix(lexer.EQ, p.parseInfixExpr)
	p.registerInfix(lexer.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(lexer.LT, p.parseInfixExpr)
	p.registerInfix(lexer.LE, p.parseInfixExpr)
	p.registerInfix(lexer.GT, p.parseInfixExpr)
	p.registerInfix(lexer.GE, p.parseInfixExpr)
	p.registerInfix(lexer.LPAREN, p.parseCallExpr)

	// Seed curTok/peekTok.
	p.nextToken()
	p.nextToken()

	return p
}

// Errors returns all recoverable parse errors that were encountered.
func (p *Parser) Errors() []ParseError {
	return p.errors
}

// LexErrors returns the errors accumulated by the underlying lexer.
func (p *Parser) LexErrors() []lexer.Error {
	return p.lx.Errors
}

// ParseProgram parses a full compilation unit and returns its AST. A
// trailing expression without a terminating semicolon becomes the program's
// tail, the value the compiled artifact evaluates to.
func (p *Parser) ParseProgram() *ast.Program {
	program := ast.NewProgram(p.curTok.Span)

	for p.curTok.Type != lexer.EOF {
		prevTok := p.curTok
		result := p.parseStmtResult(lexer.EOF)
		if result.stmt != nil {
			program.Stmts = append(program.Stmts, result.stmt)
			program.SetSpan(mergeSpan(program.Span(), result.stmt.Span()))
			continue
		}

		if result.tail != nil {
			program.Tail = result.tail
			program.SetSpan(mergeSpan(program.Span(), result.tail.Span()))
			p.nextToken()
			break
		}

		if p.curTok.Type == lexer.EOF {
			break
		}

		p.recoverStatement(prevTok)
	}

	program.SetSpan(mergeSpan(program.Span(), p.curTok.Span))

	return program
}

// nextToken advances the parser's token window.
// Contract: after calling nextToken, curTok == old(peekTok). The lexer is
// only queried from this hop to keep lookahead bookkeeping centralized.
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lx.NextToken()
}

// expect asserts that the peek token matches the provided type. The caller
// is responsible for inspecting curTok before invoking expect, because
// expect never rewinds; on success it promotes peekTok into curTok.
func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.peekTok.Type == tt {
		p.nextToken()
		return true
	}

	lexeme := string(tt)
	p.errors = append(p.errors, ParseError{
		Message:  "expected '" + lexeme + "'",
		Span:     p.spanWithFilename(p.peekTok.Span),
		Expected: tt,
		Found:    p.peekTok.Type,
		Severity: diag.SeverityError,
	})
	return false
}

// reportError records a recoverable diagnostic without aborting parsing.
func (p *Parser) reportError(msg string, span lexer.Span) {
	p.errors = append(p.errors, ParseError{
		Message:  msg,
		Span:     p.spanWithFilename(span),
		Found:    p.curTok.Type,
		Severity: diag.SeverityError,
	})
}

func (p *Parser) spanWithFilename(span lexer.Span) lexer.Span {
	if span.Filename == "" && p.filename != "" {
		span.Filename = p.filename
	}
	return span
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixFns[tokenType] = fn
}

func sameTokenPosition(a, b lexer.Token) bool {
	return a.Type == b.Type && a.Span.Start == b.Span.Start && a.Span.End == b.Span.End
}

func isStatementStart(tt lexer.TokenType) bool {
	switch tt {
	case lexer.LET, lexer.RETURN, lexer.IF, lexer.LOOP, lexer.BREAK, lexer.FUN:
		return true
	default:
		return false
	}
}

// recoverStatement resynchronizes the parser to the next statement boundary
// after a failed construct. If no progress was made since prev, one token is
// consumed unconditionally first; without that step an unexpected token
// would keep the parser stuck at the same position forever.
func (p *Parser) recoverStatement(prev lexer.Token) {
	if p.curTok.Type == lexer.EOF {
		return
	}

	if sameTokenPosition(p.curTok, prev) {
		p.nextToken()
	}

	for p.curTok.Type != lexer.EOF {
		switch p.curTok.Type {
		case lexer.SEMICOLON:
			p.nextToken()
			return
		case lexer.RBRACE:
			return
		default:
			if isStatementStart(p.curTok.Type) {
				return
			}
		}

		p.nextToken()
	}
}

// mergeSpan assumes start.End <= end.End and returns a span covering both.
// Lexer spans are half-open; callers should pass the earliest start span
// first to preserve monotonic growth for AST nodes.
func mergeSpan(start, end lexer.Span) lexer.Span {
	span := start

	if span.Filename == "" {
		span.Filename = end.Filename
	}

	if span.Line == 0 && end.Line != 0 {
		span.Line = end.Line
		span.Column = end.Column
		span.Start = end.Start
	}

	if end.End > span.End {
		span.End = end.End
	}

	return span
}
