package parser

import (
	"github.com/cinder-lang/cinder/internal/ast"
	"github.com/cinder-lang/cinder/internal/lexer"
)

type stmtResult struct {
	stmt ast.Stmt
	tail ast.Expr
}

// parseStmtResult dispatches on the current token to a dedicated statement
// sub-parser. stop is the token that terminates the surrounding statement
// sequence ('}' inside blocks, EOF at the top level); an expression followed
// directly by stop becomes the sequence's tail expression.
func (p *Parser) parseStmtResult(stop lexer.TokenType) stmtResult {
	switch p.curTok.Type {
	case lexer.LET:
		return stmtResult{stmt: p.parseLetStmt()}
	case lexer.FUN:
		if p.peekTok.Type == lexer.IDENT {
			return stmtResult{stmt: p.parseFunStmt()}
		}
		return p.parseExprStmt(stop)
	case lexer.RETURN:
		return stmtResult{stmt: p.parseReturnStmt()}
	case lexer.IF:
		return stmtResult{stmt: p.parseIfStmt()}
	case lexer.LOOP:
		return stmtResult{stmt: p.parseLoopStmt()}
	case lexer.BREAK:
		return stmtResult{stmt: p.parseBreakStmt()}
	case lexer.IDENT:
		if p.peekTok.Type == lexer.ASSIGN {
			return stmtResult{stmt: p.parseAssignStmt()}
		}
		return p.parseExprStmt(stop)
	default:
		return p.parseExprStmt(stop)
	}
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return nil
	}

	nameTok := p.curTok
	name := ast.NewIdent(nameTok.Value, nameTok.Span)

	if !p.expect(lexer.ASSIGN) {
		return nil
	}

	p.nextToken()

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	stmtSpan := mergeSpan(start, value.Span())
	stmtSpan = mergeSpan(stmtSpan, p.curTok.Span)
	stmt := ast.NewLetStmt(name, value, p.spanWithFilename(stmtSpan))

	p.nextToken()

	return stmt
}

// parseFunStmt parses "fun name(params) { body }" and desugars it into a
// let binding of a function literal, so later stages see a single lambda
// form. Generalization at the let site is what gives named functions their
// polymorphic schemes.
func (p *Parser) parseFunStmt() ast.Stmt {
	start := p.curTok.Span

	if !p.expect(lexer.IDENT) {
		return nil
	}

	nameTok := p.curTok
	name := ast.NewIdent(nameTok.Value, nameTok.Span)

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

	stmtSpan := mergeSpan(start, body.Span())
	stmtSpan = mergeSpan(stmtSpan, p.curTok.Span)
	stmtSpan = p.spanWithFilename(stmtSpan)

	funSpan := mergeSpan(start, body.Span())
	fun := ast.NewFunLit(params, body, p.spanWithFilename(funSpan))

	p.nextToken() // consume '}'

	return ast.NewLetStmt(name, fun, stmtSpan)
}

func (p *Parser) parseAssignStmt() ast.Stmt {
	nameTok := p.curTok
	name := ast.NewIdent(nameTok.Value, nameTok.Span)

	p.nextToken() // move to '='
	p.nextToken() // move to value start

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	span := mergeSpan(nameTok.Span, value.Span())
	span = mergeSpan(span, p.curTok.Span)
	stmt := ast.NewAssignStmt(name, value, p.spanWithFilename(span))

	p.nextToken()

	return stmt
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.curTok.Span

	if p.peekTok.Type == lexer.SEMICOLON {
		p.nextToken() // consume ';'

		span := mergeSpan(start, p.curTok.Span)
		stmt := ast.NewReturnStmt(nil, p.spanWithFilename(span))

		p.nextToken()

		return stmt
	}

	p.nextToken()

	value := p.parseExpr()
	if value == nil {
		return nil
	}

	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	span := mergeSpan(start, value.Span())
	span = mergeSpan(span, p.curTok.Span)
	stmt := ast.NewReturnStmt(value, p.spanWithFilename(span))

	p.nextToken()

	return stmt
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curTok.Span

	p.nextToken()

	cond := p.parseExpr()
	if cond == nil {
		return nil
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}

	then := p.parseBlock()
	if then == nil {
		return nil
	}

	span := mergeSpan(start, cond.Span())
	span = mergeSpan(span, then.Span())

	var els *ast.Block

	if p.peekTok.Type == lexer.ELSE {
		p.nextToken() // consume '}'

		if !p.expect(lexer.LBRACE) {
			return nil
		}

		els = p.parseBlock()
		if els == nil {
			return nil
		}

		span = mergeSpan(span, els.Span())
	}

	if p.curTok.Type == lexer.RBRACE {
		p.nextToken()
	}

	return ast.NewIfStmt(cond, then, els, p.spanWithFilename(span))
}

func (p *Parser) parseLoopStmt() ast.Stmt {
	start := p.curTok.Span

	if !p.expect(lexer.LBRACE) {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	span := mergeSpan(start, body.Span())

	if p.curTok.Type == lexer.RBRACE {
		p.nextToken()
	}

	return ast.NewLoopStmt(body, p.spanWithFilename(span))
}

func (p *Parser) parseBreakStmt() ast.Stmt {
	start := p.curTok.Span

	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	span := mergeSpan(start, p.curTok.Span)

	p.nextToken()

	return ast.NewBreakStmt(p.spanWithFilename(span))
}

func (p *Parser) parseExprStmt(stop lexer.TokenType) stmtResult {
	expr := p.parseExpr()
	if expr == nil {
		return stmtResult{}
	}

	switch p.peekTok.Type {
	case lexer.SEMICOLON:
		p.nextToken() // consume ';'

		span := mergeSpan(expr.Span(), p.curTok.Span)
		stmt := ast.NewExprStmt(expr, p.spanWithFilename(span))

		p.nextToken()

		return stmtResult{stmt: stmt}
	case stop:
		return stmtResult{tail: expr}
	default:
		p.reportError("expected ';' after expression", p.peekTok.Span)
		return stmtResult{}
	}
}

// parseBlock parses the statements between '{' and '}'. curTok must be on
// '{' when called; on return curTok rests on the closing '}' (callers decide
// whether to consume it).
func (p *Parser) parseBlock() *ast.Block {
	start := p.curTok.Span

	if p.curTok.Type != lexer.LBRACE {
		p.reportError("expected '{' to start block", p.curTok.Span)
		return nil
	}

	block := ast.NewBlock(nil, nil, start)

	p.nextToken()

	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF {
		prevTok := p.curTok
		result := p.parseStmtResult(lexer.RBRACE)
		if result.stmt != nil {
			block.Stmts = append(block.Stmts, result.stmt)
			continue
		}

		if result.tail != nil {
			if block.Tail != nil {
				p.reportError("unexpected expression after block tail", p.curTok.Span)
			} else {
				block.Tail = result.tail
			}

			p.nextToken()
			break
		}

		if p.curTok.Type == lexer.RBRACE || p.curTok.Type == lexer.EOF {
			break
		}

		p.recoverStatement(prevTok)
	}

	if p.curTok.Type != lexer.RBRACE {
		p.reportError("expected '}' to close block", p.curTok.Span)
		return block
	}

	block.SetSpan(mergeSpan(start, p.curTok.Span))

	return block
}
