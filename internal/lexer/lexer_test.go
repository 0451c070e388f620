package lexer

import (
	"mika/internal/token"
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `var five = 5;
var add = fun(x, y) { return x + y; };
// comment
# alt comment
/* block
   comment */
class B < A > Shape {}
a ?? b; a?.b; x |> f; |n| n ** 2;
i++; i--; i += 1; i -= 1;
5 <= 10 >= 5 != 4 == 4;
true && false || !true;
[...xs];
match v { when 1 => "one"; }
1_000.5e2 'it\'s' "a\tb"
@deco`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.VAR, "var"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.VAR, "var"},
		{token.IDENT, "add"},
		{token.ASSIGN, "="},
		{token.FUNCTION, "fun"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENT, "x"},
		{token.PLUS, "+"},
		{token.IDENT, "y"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},
		{token.CLASS, "class"},
		{token.IDENT, "B"},
		{token.LT, "<"},
		{token.IDENT, "A"},
		{token.GT, ">"},
		{token.IDENT, "Shape"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.IDENT, "a"},
		{token.NULL_COALESCE, "??"},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "a"},
		{token.OPTIONAL_CHAIN, "?."},
		{token.IDENT, "b"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "x"},
		{token.PIPELINE, "|>"},
		{token.IDENT, "f"},
		{token.SEMICOLON, ";"},
		{token.PIPE, "|"},
		{token.IDENT, "n"},
		{token.PIPE, "|"},
		{token.IDENT, "n"},
		{token.POWER, "**"},
		{token.NUMBER, "2"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "i"},
		{token.INCREMENT, "++"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "i"},
		{token.DECREMENT, "--"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "i"},
		{token.PLUS_ASSIGN, "+="},
		{token.NUMBER, "1"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "i"},
		{token.MINUS_ASSIGN, "-="},
		{token.NUMBER, "1"},
		{token.SEMICOLON, ";"},
		{token.NUMBER, "5"},
		{token.LT_EQ, "<="},
		{token.NUMBER, "10"},
		{token.GT_EQ, ">="},
		{token.NUMBER, "5"},
		{token.NOT_EQ, "!="},
		{token.NUMBER, "4"},
		{token.EQ, "=="},
		{token.NUMBER, "4"},
		{token.SEMICOLON, ";"},
		{token.TRUE, "true"},
		{token.AND, "&&"},
		{token.FALSE, "false"},
		{token.OR, "||"},
		{token.BANG, "!"},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.LBRACKET, "["},
		{token.ELLIPSIS, "..."},
		{token.IDENT, "xs"},
		{token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.MATCH, "match"},
		{token.IDENT, "v"},
		{token.LBRACE, "{"},
		{token.WHEN, "when"},
		{token.NUMBER, "1"},
		{token.FAT_ARROW, "=>"},
		{token.STRING, "one"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.NUMBER, "1000.5e2"},
		{token.STRING, "it's"},
		{token.STRING, "a\tb"},
		{token.AT, "@"},
		{token.IDENT, "deco"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q '%q', got=%q: '%q'",
				i, tt.expectedType, tt.expectedLiteral, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTemplateToken(t *testing.T) {
	input := "`hello ${name + `!`} and ${ {a: 1}.a } \\${raw}`"

	l := New(input)
	tok := l.NextToken()

	if tok.Type != token.TEMPLATE {
		t.Fatalf("expected TEMPLATE token, got %q: %q", tok.Type, tok.Literal)
	}
	want := "hello ${name + `!`} and ${ {a: 1}.a } \\${raw}"
	if tok.Literal != want {
		t.Fatalf("literal wrong. expected=%q, got=%q", want, tok.Literal)
	}
	if next := l.NextToken(); next.Type != token.EOF {
		t.Fatalf("expected EOF, got %q", next.Type)
	}
}

func TestTokenPositions(t *testing.T) {
	l := New("var x\n  = 1;")

	want := []token.Position{{Line: 1, Column: 1}, {Line: 1, Column: 5}, {Line: 2, Column: 3}, {Line: 2, Column: 5}}
	for i, pos := range want {
		tok := l.NextToken()
		if tok.Position != pos {
			t.Fatalf("tests[%d] - position wrong for %q. expected=%+v, got=%+v", i, tok.Literal, pos, tok.Position)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"never closed`)
	tok := l.NextToken()

	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token, got %q: %q", tok.Type, tok.Literal)
	}
}
