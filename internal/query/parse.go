package query

import (
	"strings"

	"catalogsearch/internal/isbn"
)

type token struct {
	text  string
	group bool
}

// Parse compiles s and never fails: input that is not valid query syntax
// becomes a literal search, or an ISBN lookup when s is a valid ISBN.
func Parse(s string) *Group {
	if g, err := Compile(s); err == nil {
		return g
	}
	return Literal(s)
}

// Literal returns the fallback query for free text. The text is kept as
// given; surrounding spaces are ignored only when recognizing an ISBN.
func Literal(s string) *Group {
	if trimmed := strings.TrimSpace(s); isbn.Valid(trimmed) {
		return Single(Compare(ISBNField, Equals, trimmed))
	}
	return Single(Compare(AnyField, Contains, s))
}

// Compile parses s strictly, returning a *ParseError on malformed input.
func Compile(s string) (*Group, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	return compile(s, tokens)
}

// CompileTokens compiles an already split token sequence, such as command
// line arguments. Tokens wrapped in parentheses are sub-expressions.
func CompileTokens(tokens []string) (*Group, error) {
	seq := make([]token, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if t[0] == '(' {
			if end, err := closing(t, 0); err == nil && end == len(t)-1 {
				seq = append(seq, token{text: t[1:end], group: true})
				continue
			}
		}
		seq = append(seq, token{text: t})
	}
	return compile(strings.Join(tokens, " "), seq)
}

func stripOuter(s string) string {
	s = strings.TrimSpace(s)
	for len(s) > 2 && s[0] == '(' && s[len(s)-1] == ')' {
		end, err := closing(s, 0)
		if err != nil || end != len(s)-1 {
			break
		}
		s = strings.TrimSpace(s[1:end])
	}
	return s
}

// closing returns the index of the parenthesis matching the one at open,
// skipping quoted spans.
func closing(s string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	if quote != 0 {
		return -1, parseErr(s, "unterminated quote")
	}
	return -1, parseErr(s, "unbalanced parenthesis at %d", open)
}

func tokenize(input string) ([]token, error) {
	s := stripOuter(input)

	var (
		tokens []token
		buf    strings.Builder
		quote  byte
	)
	flush := func() {
		if t := strings.TrimSpace(buf.String()); t != "" {
			tokens = append(tokens, token{text: t})
		}
		buf.Reset()
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			buf.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			buf.WriteByte(c)
		case c == '(':
			flush()
			end, err := closing(s, i)
			if err != nil {
				return nil, parseErr(input, "%s", err.(*ParseError).Reason)
			}
			tokens = append(tokens, token{text: s[i+1 : end], group: true})
			i = end
		case c == ')':
			return nil, parseErr(input, "unexpected ')' at %d", i)
		case isSpace(c):
			flush()
		default:
			buf.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, parseErr(input, "unterminated quote")
	}
	flush()
	return tokens, nil
}

func compile(input string, seq []token) (*Group, error) {
	if len(seq) == 0 {
		return nil, parseErr(input, "empty query")
	}

	var (
		op    Logical
		items []Expr
	)
	expectOperand := false
	for _, tok := range seq {
		if !expectOperand {
			item, err := compileItem(tok)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		} else {
			l, ok := logical(tok)
			if !ok {
				return nil, parseErr(input, "expected AND/OR, got %q", tok.text)
			}
			switch {
			case op == "":
				op = l
			case l != op:
				// Mixed operands: what was collected so far becomes the left operand.
				items = []Expr{&Group{op: op, operands: items}}
				op = l
			}
		}
		expectOperand = !expectOperand
	}
	if !expectOperand {
		return nil, parseErr(input, "dangling %s", op)
	}
	if len(items) == 1 {
		op = ""
	}
	return &Group{op: op, operands: items}, nil
}

func compileItem(tok token) (Expr, error) {
	if tok.group {
		return compileNested(tok.text)
	}
	if _, ok := logical(tok); ok {
		return nil, parseErr(tok.text, "unexpected operator")
	}
	if isCompound(tok.text) {
		return compileNested(tok.text)
	}
	return compileComparison(tok.text)
}

func compileNested(s string) (Expr, error) {
	g, err := Compile(s)
	if err != nil {
		return nil, err
	}
	if g.Len() == 1 {
		return g.operands[0], nil
	}
	return g, nil
}

func compileComparison(s string) (Expr, error) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return nil, parseErr(s, "comparison needs field:value")
	}
	field, value := s[:idx], s[idx+1:]
	if strings.ContainsAny(field, `"'`) {
		return nil, parseErr(s, "invalid field %q", field)
	}
	if value == "" {
		return nil, parseErr(s, "empty value")
	}

	op := Equals
	if len(value) > 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'')) {
		value = value[1 : len(value)-1]
	}
	if len(value) > 2 && value[0] == '%' && value[len(value)-1] == '%' {
		value = value[1 : len(value)-1]
		op = Contains
	}
	return Comparison{Field: field, Operator: op, Value: value}, nil
}

func logical(tok token) (Logical, bool) {
	if tok.group {
		return "", false
	}
	switch strings.ToUpper(tok.text) {
	case string(And):
		return And, true
	case string(Or):
		return Or, true
	}
	return "", false
}

// isCompound reports whether a single token holds a whole expression, which
// only happens for pre-split token sequences.
func isCompound(s string) bool {
	colons, spaces := 0, 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == ':':
			colons++
		case isSpace(c):
			spaces++
		}
	}
	return colons > 1 && spaces > 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
