package parser

import (
	"regexp"
	"strings"
	"sync"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// DefaultDelimiter ends a statement when Options.Delimiter is empty.
const DefaultDelimiter = ";"

// Options controls how a script is split.
type Options struct {
	// Delimiter separates statements. Defaults to DefaultDelimiter.
	Delimiter string

	// BatchSeparator additionally splits on lines consisting only of GO.
	BatchSeparator bool

	// KeepComments leaves comments in the returned statements.
	KeepComments bool
}

var (
	// definitions caches one lexer definition per delimiter
	definitions sync.Map

	wordDelimiter = regexp.MustCompile(`^\w+$`)
)

// Split cuts sql into statements. Delimiters inside comments, strings, quoted
// identifiers and $$ bodies are ignored. Returned statements are trimmed and
// never empty; the delimiter itself is not included.
func Split(sql string, opts Options) ([]string, error) {
	delim := opts.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}

	def, err := definition(delim)
	if err != nil {
		return nil, err
	}

	lex, err := def.LexString("", sql)
	if err != nil {
		return nil, errors.Wrap(err, "failed to tokenize SQL")
	}

	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to tokenize SQL")
	}

	s := &splitter{symbols: def.Symbols(), tokens: tokens}
	return s.split(opts), nil
}

func definition(delim string) (*lexer.StatefulDefinition, error) {
	if def, ok := definitions.Load(delim); ok {
		return def.(*lexer.StatefulDefinition), nil
	}

	delimPattern := regexp.QuoteMeta(delim)
	if wordDelimiter.MatchString(delim) {
		delimPattern = `(?i)` + delimPattern + `\b`
	}

	def, err := lexer.NewSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `--[^\r\n]*`},
		{Name: "MultilineComment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
		{Name: "EscapeString", Pattern: `[Ee]'(?:[^'\\]|\\.|'')*'`},
		{Name: "String", Pattern: `'(?:[^']|'')*'`},
		{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
		{Name: "BacktickIdent", Pattern: "`(?:[^`]|``)*`"},
		{Name: "DollarBody", Pattern: `\$\$(?s:.*?)\$\$`},
		{Name: "Delimiter", Pattern: delimPattern},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "Word", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "Other", Pattern: `.`},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid delimiter %q", delim)
	}

	actual, _ := definitions.LoadOrStore(delim, def)
	return actual.(*lexer.StatefulDefinition), nil
}

type splitter struct {
	symbols map[string]lexer.TokenType
	tokens  []lexer.Token
}

func (s *splitter) split(opts Options) []string {
	var (
		stmts []string
		cur   strings.Builder
	)

	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		cur.Reset()
	}

	for i, tok := range s.tokens {
		switch tok.Type {
		case lexer.EOF:
		case s.symbols["Comment"], s.symbols["MultilineComment"]:
			if opts.KeepComments {
				cur.WriteString(tok.Value)
			}
		case s.symbols["Delimiter"]:
			flush()
		case s.symbols["Word"]:
			if opts.BatchSeparator && strings.EqualFold(tok.Value, "GO") && s.startsLine(i) && s.endsLine(i) {
				flush()
				continue
			}
			cur.WriteString(tok.Value)
		default:
			cur.WriteString(tok.Value)
		}
	}

	flush()
	return stmts
}

func (s *splitter) startsLine(i int) bool {
	for j := i - 1; j >= 0; j-- {
		tok := s.tokens[j]
		if tok.Type != s.symbols["Whitespace"] {
			return false
		}
		if strings.Contains(tok.Value, "\n") {
			return true
		}
	}

	return true
}

func (s *splitter) endsLine(i int) bool {
	for j := i + 1; j < len(s.tokens); j++ {
		tok := s.tokens[j]
		switch {
		case tok.Type == lexer.EOF:
			return true
		case tok.Type != s.symbols["Whitespace"]:
			return false
		case strings.Contains(tok.Value, "\n"):
			return true
		}
	}

	return true
}
