package filter

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// FilterLexer tokenizes filter expressions.
var FilterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(AND|NOT|IN|LIKE|NULL|TRUE|FALSE)\b`},
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	// Relative dates such as LAST_N_DAYS:30 lex as a single identifier.
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*(?::\d+)?`},
	{Name: "Operator", Pattern: `!=|<=|>=|=|<|>`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Expression is a conjunction of comparisons.
type Expression struct {
	Pos         lexer.Position
	Comparisons []*Comparison `@@ ( "AND" @@ )*`
}

// Comparison is "<field> <operator> <value>" or a set membership test.
type Comparison struct {
	Pos   lexer.Position
	Field string `@Ident`

	NotIn bool   `(   @( "NOT" "IN" )`
	In    bool   `  | @"IN"`
	Like  bool   `  | @"LIKE"`
	Op    string `  | @Operator )`

	List  []*Value `( "(" @@ ( "," @@ )* ")"`
	Value *Value   `| @@ )`
}

// Value is a literal.
type Value struct {
	Pos    lexer.Position
	String *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @( "TRUE" | "FALSE" )`
	Null   bool    `| @"NULL"`
	Word   *string `| @Ident`
}

var (
	expressionParser = participle.MustBuild[Expression](
		participle.Lexer(FilterLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Keyword"),
		participle.UseLookahead(2),
	)

	valueParser = participle.MustBuild[Value](
		participle.Lexer(FilterLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Keyword"),
	)
)
