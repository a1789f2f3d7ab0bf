package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

func (p *Parser) parseExpr() ast.Expr {
	return p.parseExprPrecedence(precedenceLowest)
}

// parseExprPrecedence is the Pratt core loop: parse a prefix term, then fold
// in infix operators whose binding power exceeds the power of the
// subexpression they bind into. Equal powers break the loop, which is what
// makes operators at the same level left-associative.
func (p *Parser) parseExprPrecedence(precedence int) ast.Expr {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.reportError("unexpected token in expression '"+string(p.curTok.Type)+"'", p.curTok.Span)
		return nil
	}

	left := prefix()
	if left == nil {
		return nil
	}

	for p.peekTok.Type != lexer.SEMICOLON && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.Type]
		if infix == nil {
			break
		}

		p.nextToken()

		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parseIntegerLiteral() ast.Expr {
	return ast.NewIntegerLit(p.curTok.Value, p.curTok.Span)
}

func (p *Parser) parseStringLiteral() ast.Expr {
	return ast.NewStringLit(p.curTok.Value, p.curTok.Span)
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	return ast.NewBoolLit(p.curTok.Type == lexer.TRUE, p.curTok.Span)
}

func (p *Parser) parseIdentifier() ast.Expr {
	return ast.NewIdent(p.curTok.Value, p.curTok.Span)
}

// parsePrefixExpr handles prefix operators registered via registerPrefix. It
// must consume the operator before recursing so Pratt precedence (see
// precedencePrefix) controls binding.
func (p *Parser) parsePrefixExpr() ast.Expr {
	operatorTok := p.curTok

	p.nextToken()

	right := p.parseExprPrecedence(precedencePrefix)
	if right == nil {
		return nil
	}

	span := mergeSpan(operatorTok.Span, right.Span())
	span = p.spanWithFilename(span)

	return ast.NewPrefixExpr(operatorTok.Type, right, span)
}

// parseGroupedExpr parses "(expr)" into an explicit grouping node so the
// source printer can reproduce the author's parentheses.
func (p *Parser) parseGroupedExpr() ast.Expr {
	start := p.curTok.Span

	p.nextToken()

	inner := p.parseExpr()
	if inner == nil {
		return nil
	}

	if !p.expect(lexer.RPAREN) {
		return nil
	}

	span := mergeSpan(start, inner.Span())
	span = mergeSpan(span, p.curTok.Span)
	span = p.spanWithFilename(span)

	return ast.NewGroupExpr(inner, span)
}

// parseFunLit parses an anonymous function literal "fun(params) { body }".
// On return curTok rests on the closing '}' so the Pratt loop can keep
// folding postfix operators (immediate calls in particular).
func (p *Parser) parseFunLit() ast.Expr {
	start := p.curTok.Span

	if !p.expect(lexer.LPAREN) {
		return nil
	}

	params, ok := p.parseParams()
	if !ok {
		return nil
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	span := mergeSpan(start, body.Span())
	span = p.spanWithFilename(span)

	return ast.NewFunLit(params, body, span)
}

// parseParams parses the parenthesized parameter list of a function. The
// caller has already positioned curTok on '('; on success curTok rests on
// ')'. Every path through the loop either consumes a token or fails, so a
// malformed list cannot stall the parser.
func (p *Parser) parseParams() ([]*ast.Ident, bool) {
	params := make([]*ast.Ident, 0)

	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
		return params, true
	}

	for {
		if !p.expect(lexer.IDENT) {
			return nil, false
		}

		params = append(params, ast.NewIdent(p.curTok.Value, p.curTok.Span))

		if p.peekTok.Type == lexer.COMMA {
			p.nextToken()
			continue
		}

		if !p.expect(lexer.RPAREN) {
			return nil, false
		}

		return params, true
	}
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	operatorTok := p.curTok
	precedence := p.curPrecedence()

	p.nextToken()

	right := p.parseExprPrecedence(precedence)
	if right == nil {
		return nil
	}

	span := mergeSpan(left.Span(), operatorTok.Span)
	span = mergeSpan(span, right.Span())
	span = p.spanWithFilename(span)

	return ast.NewInfixExpr(operatorTok.Type, left, right, span)
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	openTok := p.curTok

	var args []ast.Expr

	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
	} else {
		for {
			p.nextToken()

			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)

			if p.peekTok.Type == lexer.COMMA {
				p.nextToken()
				continue
			}

			if !p.expect(lexer.RPAREN) {
				return nil
			}

			break
		}
	}

	span := mergeSpan(callee.Span(), openTok.Span)
	span = mergeSpan(span, p.curTok.Span)
	span = p.spanWithFilename(span)

	return ast.NewCallExpr(callee, args, span)
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekTok.Type]; ok {
		return prec
	}

	return precedenceLowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curTok.Type]; ok {
		return prec
	}

	return precedenceLowest
}
