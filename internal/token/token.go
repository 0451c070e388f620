package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT    = "IDENT"    // add, foobar, x, y, ...
	NUMBER   = "NUMBER"   // 1343456, 1.5e3
	STRING   = "STRING"   // "foobar" or 'foobar'
	TEMPLATE = "TEMPLATE" // `hello ${name}`

	// Operators
	ASSIGN       = "="
	PLUS         = "+"
	MINUS        = "-"
	BANG         = "!"
	ASTERISK     = "*"
	POWER        = "**"
	SLASH        = "/"
	PERCENT      = "%"
	AT           = "@"
	PLUS_ASSIGN  = "+="
	MINUS_ASSIGN = "-="
	INCREMENT    = "++"
	DECREMENT    = "--"

	LT     = "<"
	LT_EQ  = "<="
	GT     = ">"
	GT_EQ  = ">="
	EQ     = "=="
	NOT_EQ = "!="

	QUESTION       = "?"
	OPTIONAL_CHAIN = "?."
	NULL_COALESCE  = "??"
	PIPE           = "|"
	PIPELINE       = "|>"
	FAT_ARROW      = "=>"
	ELLIPSIS       = "..."

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"
	PERIOD    = "."

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	ABSTRACT  = "ABSTRACT"
	AND       = "AND"
	AS        = "AS"
	BREAK     = "BREAK"
	CASE      = "CASE"
	CATCH     = "CATCH"
	CLASS     = "CLASS"
	CONTINUE  = "CONTINUE"
	ELSE      = "ELSE"
	FALSE     = "FALSE"
	FOR       = "FOR"
	FUNCTION  = "FUN"
	IF        = "IF"
	IMPORT    = "IMPORT"
	IN        = "IN"
	INTERFACE = "INTERFACE"
	MATCH     = "MATCH"
	NEW       = "NEW"
	NOT       = "NOT"
	NULL      = "NULL"
	OR        = "OR"
	PRINT     = "PRINT"
	PUTS      = "PUTS"
	RETURN    = "RETURN"
	SUPER     = "SUPER"
	THIS      = "THIS"
	THROW     = "THROW"
	TRUE      = "TRUE"
	TRY       = "TRY"
	TYPE      = "TYPE"
	UNDEFINED = "UNDEFINED"
	VAR       = "VAR"
	WHEN      = "WHEN"
	WHILE     = "WHILE"
	YIELD     = "YIELD"
)

// Position is the line and column a token starts at, both 1-based.
type Position struct {
	Line   int
	Column int
}

type Token struct {
	Type     TokenType
	Literal  string
	Position Position
}

var keywords = map[string]TokenType{
	"abstract":  ABSTRACT,
	"and":       AND,
	"as":        AS,
	"break":     BREAK,
	"case":      CASE,
	"catch":     CATCH,
	"class":     CLASS,
	"continue":  CONTINUE,
	"else":      ELSE,
	"false":     FALSE,
	"for":       FOR,
	"fun":       FUNCTION,
	"if":        IF,
	"import":    IMPORT,
	"in":        IN,
	"interface": INTERFACE,
	"match":     MATCH,
	"new":       NEW,
	"not":       NOT,
	"null":      NULL,
	"or":        OR,
	"print":     PRINT,
	"puts":      PUTS,
	"return":    RETURN,
	"super":     SUPER,
	"this":      THIS,
	"throw":     THROW,
	"true":      TRUE,
	"try":       TRY,
	"type":      TYPE,
	"undefined": UNDEFINED,
	"var":       VAR,
	"when":      WHEN,
	"while":     WHILE,
	"yield":     YIELD,
}

// LookupIdent maps a word to its keyword type. `get` and `set` are
// contextual and only become keywords inside object literals, so they
// are not listed here.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

func (p Position) IsZero() bool { return p.Line == 0 && p.Column == 0 }
