package lexer

import (
	"strconv"

	"github.com/cinder-lang/cinder/internal/diag"
)

type ErrorKind int

const (
	ErrIllegalRune ErrorKind = iota
	ErrUnterminatedString
)

// Error records a lexical error with location context. The lexer is total:
// it keeps producing tokens past an error so downstream stages can report
// one coherent diagnostic per malformed character.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
}

func (k ErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedString:
		return diag.CodeLexUnterminatedString
	default:
		return diag.CodeLexIllegalRune
	}
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
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

// Lexer scans source text left to right with one rune of lookahead.
type Lexer struct {
	input    []rune
	pos      int  // index of the current rune
	ch       rune // current rune (0 = EOF)
	line     int  // current line number (1-based)
	column   int  // current column number (1-based)
	filename string

	Errors []Error
}

func (l *Lexer) addError(kind ErrorKind, msg string, span Span) {
	l.Errors = append(l.Errors, Error{
		Kind:    kind,
		Message: msg,
		Span:    span,
	})
}

// New creates a new lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{
		input:  []rune(input),
		pos:    -1, // start before first rune
		ch:     0,
		line:   1,
		column: 0, // will be 1 after first read()
	}
	l.read() // move to first character
	return l
}

// SetFilename attributes all subsequently produced spans to the given file.
func (l *Lexer) SetFilename(name string) {
	l.filename = name
}

// Tokenize scans the entire input and returns the token sequence, EOF
// included. The scan never aborts; unrecognized runes surface as ILLEGAL
// tokens and in Errors.
func Tokenize(input string) []Token {
	l := New(input)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks
		}
	}
}

// read advances the lexer to the next character. Line/column always reflect
// the position of the character at pos.
func (l *Lexer) read() {
	l.pos++
	prevPos := l.pos - 1
	inputLen := len(l.input)

	if l.pos >= inputLen {
		// Moved past the last rune; normalize position to virtual EOF.
		if prevPos >= 0 && prevPos < inputLen {
			if l.input[prevPos] == '\n' {
				l.line++
				l.column = 1
			} else {
				l.column++
			}
		} else if prevPos < 0 {
			// Empty input: column should point to the first position
			l.column = 1
		}
		l.ch = 0 // EOF
		return
	}

	l.ch = l.input[l.pos]

	// If the previous character was a newline, we're now on a new line.
	if prevPos >= 0 && prevPos < inputLen && l.input[prevPos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// peek returns the next character without advancing
func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

// currentSpanStart returns the current position for span tracking
func (l *Lexer) currentSpanStart() (line, column, pos int) {
	return l.line, l.column, l.pos
}

// makeToken creates a token with span information
func (l *Lexer) makeToken(tokType TokenType, startLine, startColumn, startPos, endPos int, raw, value string) Token {
	return Token{
		Type:  tokType,
		Raw:   raw,
		Value: value,
		Span: Span{
			Filename: l.filename,
			Line:     startLine,
			Column:   startColumn,
			Start:    startPos,
			End:      endPos,
		},
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.read()
	}
}

// skipLineComment consumes a // comment through the end of the line.
func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
		l.read()
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// readNumber reads a decimal integer literal
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// twoRune emits a two-rune operator token; the longest-match rule requires
// callers to have checked peek() first.
func (l *Lexer) twoRune(tokType TokenType, startLine, startColumn, startPos int) Token {
	ch := l.ch
	l.read()
	raw := string(ch) + string(l.ch)
	l.read()
	return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, raw, raw)
}

// oneRune emits a single-rune token.
func (l *Lexer) oneRune(tokType TokenType, startLine, startColumn, startPos int) Token {
	raw := string(l.ch)
	l.read()
	return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, raw, raw)
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()

		startLine, startColumn, startPos := l.currentSpanStart()

		switch l.ch {
		case 0:
			if startColumn == 0 {
				startColumn = 1
			}
			return l.makeToken(EOF, startLine, startColumn, startPos, startPos, "", "")

		case '=':
			if l.peek() == '=' {
				return l.twoRune(EQ, startLine, startColumn, startPos)
			}
			return l.oneRune(ASSIGN, startLine, startColumn, startPos)

		case '+':
			return l.oneRune(PLUS, startLine, startColumn, startPos)

		case '-':
			return l.oneRune(MINUS, startLine, startColumn, startPos)

		case '!':
			if l.peek() == '=' {
				return l.twoRune(NOT_EQ, startLine, startColumn, startPos)
			}
			return l.oneRune(BANG, startLine, startColumn, startPos)

		case '*':
			return l.oneRune(ASTERISK, startLine, startColumn, startPos)

		case '/':
			if l.peek() == '/' {
				l.skipLineComment()
				continue
			}
			return l.oneRune(SLASH, startLine, startColumn, startPos)

		case '&':
			if l.peek() == '&' {
				return l.twoRune(AND, startLine, startColumn, startPos)
			}
			return l.illegalRune(startLine, startColumn, startPos)

		case '|':
			if l.peek() == '|' {
				return l.twoRune(OR, startLine, startColumn, startPos)
			}
			return l.illegalRune(startLine, startColumn, startPos)

		case '<':
			if l.peek() == '=' {
				return l.twoRune(LE, startLine, startColumn, startPos)
			}
			return l.oneRune(LT, startLine, startColumn, startPos)

		case '>':
			if l.peek() == '=' {
				return l.twoRune(GE, startLine, startColumn, startPos)
			}
			return l.oneRune(GT, startLine, startColumn, startPos)

		case ';':
			return l.oneRune(SEMICOLON, startLine, startColumn, startPos)

		case ',':
			return l.oneRune(COMMA, startLine, startColumn, startPos)

		case '(':
			return l.oneRune(LPAREN, startLine, startColumn, startPos)

		case ')':
			return l.oneRune(RPAREN, startLine, startColumn, startPos)

		case '{':
			return l.oneRune(LBRACE, startLine, startColumn, startPos)

		case '}':
			return l.oneRune(RBRACE, startLine, startColumn, startPos)

		case '"':
			raw, value, terminated := l.readString(startLine, startColumn, startPos)
			if !terminated {
				return l.makeToken(ILLEGAL, startLine, startColumn, startPos, l.pos, raw, raw)
			}
			return l.makeToken(STRING, startLine, startColumn, startPos, l.pos, raw, value)

		default:
			if isLetter(l.ch) {
				literal := l.readIdentifier()
				tokType := LookupIdent(literal)
				return l.makeToken(tokType, startLine, startColumn, startPos, l.pos, literal, literal)
			} else if isDigit(l.ch) {
				literal := l.readNumber()
				return l.makeToken(INT, startLine, startColumn, startPos, l.pos, literal, literal)
			}
			return l.illegalRune(startLine, startColumn, startPos)
		}
	}
}

func (l *Lexer) illegalRune(startLine, startColumn, startPos int) Token {
	raw := string(l.ch)
	l.read()
	tok := l.makeToken(ILLEGAL, startLine, startColumn, startPos, l.pos, raw, raw)
	l.addError(
		ErrIllegalRune,
		"illegal character "+strconv.Quote(raw),
		tok.Span,
	)
	return tok
}

func isLetter(ch rune) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// readString reads a string literal, handling escape sequences. Returns both
// raw (with escapes) and decoded values, along with a flag indicating whether
// the string was properly terminated.
func (l *Lexer) readString(startLine, startColumn, startPos int) (raw string, value string, terminated bool) {
	var rawRunes []rune
	var decodedRunes []rune

	rawRunes = append(rawRunes, '"') // include opening quote
	l.read()                         // skip opening quote

	for {
		if l.ch == 0 {
			l.addError(
				ErrUnterminatedString,
				"unterminated string literal",
				Span{Filename: l.filename, Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			break
		}
		if l.ch == '"' {
			rawRunes = append(rawRunes, '"')
			l.read() // consume closing quote
			return string(rawRunes), string(decodedRunes), true
		}
		if l.ch == '\n' || l.ch == '\r' {
			l.addError(
				ErrUnterminatedString,
				"newline in string literal",
				Span{Filename: l.filename, Line: startLine, Column: startColumn, Start: startPos, End: l.pos},
			)
			break
		}
		if l.ch == '\\' {
			rawRunes = append(rawRunes, '\\')
			l.read() // skip '\'
			if l.ch != 0 {
				rawRunes = append(rawRunes, l.ch)
				switch l.ch {
				case 'n':
					decodedRunes = append(decodedRunes, '\n')
				case 't':
					decodedRunes = append(decodedRunes, '\t')
				case 'r':
					decodedRunes = append(decodedRunes, '\r')
				case '\\':
					decodedRunes = append(decodedRunes, '\\')
				case '"':
					decodedRunes = append(decodedRunes, '"')
				default:
					// Unknown escapes keep the backslash and the character.
					decodedRunes = append(decodedRunes, '\\')
					decodedRunes = append(decodedRunes, l.ch)
				}
				l.read() // skip escaped char
			}
			continue
		}
		rawRunes = append(rawRunes, l.ch)
		decodedRunes = append(decodedRunes, l.ch)
		l.read()
	}

	return string(rawRunes), string(decodedRunes), false
}
