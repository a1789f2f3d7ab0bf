package lexer

import (
	"testing"
)

func TestNextToken_Basic(t *testing.T) {
	input := `let x = 10;`

	tests := []struct {
		expectedType  TokenType
		expectedValue string
	}{
		{LET, "let"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "10"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}

		if tok.Value != tt.expectedValue {
			t.Fatalf("tests[%d] - value wrong. expected=%q, got=%q",
				i, tt.expectedValue, tok.Value)
		}
	}
}

func TestNextToken_Operators(t *testing.T) {
	input := `= + - * / == != < > <= >= && || !`

	tests := []TokenType{
		ASSIGN, PLUS, MINUS, ASTERISK, SLASH,
		EQ, NOT_EQ, LT, GT, LE, GE, AND, OR, BANG,
		EOF,
	}

	l := New(input)

	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, expected, tok.Type)
		}
	}
}

func TestNextToken_LongestMatch(t *testing.T) {
	// Two-rune operators must win over their single-rune prefixes even when
	// packed together without whitespace.
	input := `<=>=!===`

	tests := []TokenType{LE, GE, NOT_EQ, EQ, EOF}

	l := New(input)

	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, expected, tok.Type)
		}
	}
}

func TestNextToken_Keywords(t *testing.T) {
	input := `let fun return if else loop break true false`

	tests := []struct {
		expectedType  TokenType
		expectedValue string
	}{
		{LET, "let"},
		{FUN, "fun"},
		{RETURN, "return"},
		{IF, "if"},
		{ELSE, "else"},
		{LOOP, "loop"},
		{BREAK, "break"},
		{TRUE, "true"},
		{FALSE, "false"},
		{EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}
		if tok.Value != tt.expectedValue {
			t.Fatalf("tests[%d] - value wrong. expected=%q, got=%q",
				i, tt.expectedValue, tok.Value)
		}
	}
}

func TestNextToken_KeywordPrefixIdent(t *testing.T) {
	// Identifiers that merely start with a keyword stay identifiers.
	input := `letter functional breaker`

	tests := []string{"letter", "functional", "breaker"}

	l := New(input)

	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != IDENT {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, IDENT, tok.Type)
		}
		if tok.Value != expected {
			t.Fatalf("tests[%d] - value wrong. expected=%q, got=%q",
				i, expected, tok.Value)
		}
	}
}

func TestNextToken_StringLiteral(t *testing.T) {
	input := `"hello" "a\nb" "q\"q"`

	tests := []struct {
		expectedRaw   string
		expectedValue string
	}{
		{`"hello"`, "hello"},
		{`"a\nb"`, "a\nb"},
		{`"q\"q"`, `q"q`},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != STRING {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, STRING, tok.Type)
		}
		if tok.Raw != tt.expectedRaw {
			t.Fatalf("tests[%d] - raw wrong. expected=%q, got=%q",
				i, tt.expectedRaw, tok.Raw)
		}
		if tok.Value != tt.expectedValue {
			t.Fatalf("tests[%d] - value wrong. expected=%q, got=%q",
				i, tt.expectedValue, tok.Value)
		}
	}
}

func TestNextToken_LineComment(t *testing.T) {
	input := "let x = 1; // trailing comment\nlet y = 2;"

	tests := []TokenType{
		LET, IDENT, ASSIGN, INT, SEMICOLON,
		LET, IDENT, ASSIGN, INT, SEMICOLON,
		EOF,
	}

	l := New(input)

	for i, expected := range tests {
		tok := l.NextToken()
		if tok.Type != expected {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, expected, tok.Type)
		}
	}
}

func TestNextToken_SpanTracking(t *testing.T) {
	input := "let x = 1;\nlet y = 22;"

	tests := []struct {
		expectedType   TokenType
		expectedLine   int
		expectedColumn int
		expectedStart  int
		expectedEnd    int
	}{
		{LET, 1, 1, 0, 3},
		{IDENT, 1, 5, 4, 5},
		{ASSIGN, 1, 7, 6, 7},
		{INT, 1, 9, 8, 9},
		{SEMICOLON, 1, 10, 9, 10},
		{LET, 2, 1, 11, 14},
		{IDENT, 2, 5, 15, 16},
		{ASSIGN, 2, 7, 17, 18},
		{INT, 2, 9, 19, 21},
		{SEMICOLON, 2, 11, 21, 22},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q",
				i, tt.expectedType, tok.Type)
		}
		if tok.Span.Line != tt.expectedLine || tok.Span.Column != tt.expectedColumn {
			t.Fatalf("tests[%d] - position wrong. expected=%d:%d, got=%d:%d",
				i, tt.expectedLine, tt.expectedColumn, tok.Span.Line, tok.Span.Column)
		}
		if tok.Span.Start != tt.expectedStart || tok.Span.End != tt.expectedEnd {
			t.Fatalf("tests[%d] - offsets wrong. expected=[%d,%d), got=[%d,%d)",
				i, tt.expectedStart, tt.expectedEnd, tok.Span.Start, tok.Span.End)
		}
	}
}

func TestNextToken_IllegalRune(t *testing.T) {
	input := `let x = 1 @ 2;`

	l := New(input)

	var illegal *Token
	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			cp := tok
			illegal = &cp
		}
		if tok.Type == EOF {
			break
		}
	}

	if illegal == nil {
		t.Fatalf("expected an ILLEGAL token, got none")
	}
	if illegal.Raw != "@" {
		t.Errorf("illegal raw wrong. expected=%q, got=%q", "@", illegal.Raw)
	}

	if len(l.Errors) != 1 {
		t.Fatalf("expected 1 lexer error, got %d", len(l.Errors))
	}
	if l.Errors[0].Kind != ErrIllegalRune {
		t.Errorf("error kind wrong. expected=%v, got=%v", ErrIllegalRune, l.Errors[0].Kind)
	}

	d := l.Errors[0].ToDiagnostic()
	if d.Stage != "lexer" {
		t.Errorf("diagnostic stage wrong. expected=%q, got=%q", "lexer", d.Stage)
	}
}

func TestNextToken_UnterminatedString(t *testing.T) {
	input := `"abc`

	l := New(input)
	tok := l.NextToken()

	if tok.Type != ILLEGAL {
		t.Fatalf("tokentype wrong. expected=%q, got=%q", ILLEGAL, tok.Type)
	}
	if len(l.Errors) != 1 {
		t.Fatalf("expected 1 lexer error, got %d", len(l.Errors))
	}
	if l.Errors[0].Kind != ErrUnterminatedString {
		t.Errorf("error kind wrong. expected=%v, got=%v", ErrUnterminatedString, l.Errors[0].Kind)
	}
}

func TestTokenize_EmitsEOF(t *testing.T) {
	toks := Tokenize("1 + 2")

	if len(toks) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(toks))
	}
	if toks[len(toks)-1].Type != EOF {
		t.Errorf("last token wrong. expected=%q, got=%q", EOF, toks[len(toks)-1].Type)
	}
}
