package sandbox

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// soqlLexer tokenizes dialect strings produced by the query compiler.
var soqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'`},
	{Name: "DateTime", Pattern: `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z`},
	{Name: "Date", Pattern: `\d{4}-\d{2}-\d{2}`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*(?::\d+)?`},
	{Name: "Operator", Pattern: `!=|<=|>=|=|<|>`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "ORDER": true,
	"BY": true, "ASC": true, "DESC": true, "LIMIT": true, "LIKE": true,
	"IN": true, "NOT": true,
}

// statement is a dialect string rewritten for a SQL database.
type statement struct {
	SQL   string
	Args  []any
	Count bool
}

// rewrite turns a dialect string into parameterized SQL. Literals become bind
// parameters, identifiers are quoted and count() becomes COUNT(*).
func (t *Transport) rewrite(soql string) (*statement, error) {
	lex, err := soqlLexer.Lex("soql", strings.NewReader(soql))
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("invalid dialect string: %w", err)
	}

	sym := soqlLexer.Symbols()
	stmt := &statement{}
	var out []string
	bind := func(v any) {
		stmt.Args = append(stmt.Args, v)
		out = append(out, t.db.Placeholder(len(stmt.Args)))
	}

	expectValue, inList := false, false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case lexer.EOF, sym["Whitespace"]:
			continue

		case sym["String"]:
			bind(unescape(tok.Value))

		case sym["Date"]:
			bind(tok.Value)

		case sym["DateTime"]:
			bind(t.formatDateTimeLiteral(tok.Value))

		case sym["Number"]:
			out = append(out, tok.Value)

		case sym["Operator"]:
			op := tok.Value
			if op == "!=" {
				op = "<>"
			}
			out = append(out, op)
			expectValue = true
			continue

		case sym["Punct"]:
			out = append(out, tok.Value)
			if tok.Value == ")" {
				inList = false
			}
			continue

		case sym["Ident"]:
			upper := strings.ToUpper(tok.Value)
			switch {
			case upper == "COUNT" && i+2 < len(tokens) && tokens[i+1].Value == "(" && tokens[i+2].Value == ")":
				out = append(out, "COUNT(*)")
				stmt.Count = true
				i += 2

			case keywords[upper]:
				out = append(out, upper)
				if upper == "LIKE" {
					expectValue = true
					continue
				}
				if upper == "IN" {
					inList = true
				}

			case upper == "NULL":
				if len(out) == 0 {
					return nil, fmt.Errorf("unexpected null in %q", soql)
				}
				switch out[len(out)-1] {
				case "=":
					out[len(out)-1] = "IS NULL"
				case "<>":
					out[len(out)-1] = "IS NOT NULL"
				default:
					return nil, fmt.Errorf("null only compares with = and != in %q", soql)
				}

			case upper == "TRUE" || upper == "FALSE":
				bind(upper == "TRUE")

			case expectValue || inList:
				return nil, fmt.Errorf("sandbox does not support the literal %s", tok.Value)

			default:
				out = append(out, t.db.QuoteIdentifier(tok.Value))
			}

		default:
			return nil, fmt.Errorf("unexpected token %q", tok.Value)
		}
		expectValue = false
	}

	stmt.SQL = join(out)
	return stmt, nil
}

// join separates tokens with spaces except around parentheses and commas.
func join(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 && tok != ")" && tok != "," && tokens[i-1] != "(" {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String()
}

// unescape strips the quotes of a string literal and resolves backslash
// escapes.
func unescape(literal string) string {
	body := literal[1 : len(literal)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i == len(body)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}
