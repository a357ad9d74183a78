package query

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSerializations(t *testing.T) {
	cases := []struct {
		name  string
		input string
		debug string
		rpn   string
		text  string
	}{
		{
			name:  "free text",
			input: "test",
			debug: `(<any CONTAINS "test">)`,
			rpn:   `@or @attr 1=4 "test" @attr 1=1003 "test"`,
			text:  `"test"`,
		},
		{
			name:  "simple",
			input: "title:'%la galatea%' AND author:%cervantes% AND publisher:'Project Gutenberg'",
			debug: `(<title CONTAINS "la galatea"> AND <author CONTAINS "cervantes"> AND <publisher EQUALS "Project Gutenberg">)`,
			rpn:   `@and @attr 1=4 "la galatea" @and @attr 1=1003 "cervantes" @attr 1=1018 "Project Gutenberg"`,
			text:  `t:"la galatea" and a:"cervantes" and "Project Gutenberg"`,
		},
		{
			name:  "nested",
			input: "author:'Cervantes, Miguel de' AND (title:%quijote% OR title:'la galatea')",
			debug: `(<author EQUALS "Cervantes, Miguel de"> AND (<title CONTAINS "quijote"> OR <title EQUALS "la galatea">))`,
			rpn:   `@and @attr 1=1003 "Cervantes, Miguel de" @or @attr 1=4 "quijote" @attr 1=4 "la galatea"`,
			text:  `a:"Cervantes, Miguel de" and (t:"quijote" or t:"la galatea")`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := Parse(tc.input)
			assert.Equal(t, tc.debug, g.String())
			assert.Equal(t, tc.rpn, RPN(g))
			assert.Equal(t, tc.text, Text(g))
		})
	}
}

func TestParseFallback(t *testing.T) {
	t.Run("malformed input becomes a literal", func(t *testing.T) {
		in := `"this (isn't a valid:query))`
		assert.Equal(t, `(<any CONTAINS "\"this (isn't a valid:query))">)`, Parse(in).String())
	})

	t.Run("isbn literal", func(t *testing.T) {
		g := Parse("978-0-13-285620-1")
		assert.Equal(t, `(<isbn EQUALS "978-0-13-285620-1">)`, g.String())
		assert.Equal(t, `@attr 1=7 "9780132856201"`, RPN(g))
	})

	t.Run("plain word", func(t *testing.T) {
		assert.True(t, Equal(Single(Compare(AnyField, Contains, "Kurose")), Parse("Kurose")))
	})

	t.Run("literal keeps the input unmodified", func(t *testing.T) {
		assert.Equal(t, `(<any CONTAINS " Kurose  Ross ">)`, Parse(" Kurose  Ross ").String())
		assert.Equal(t, `(<isbn EQUALS "0132856204">)`, Literal(" 0132856204\n").String())
	})
}

func TestCompileErrors(t *testing.T) {
	inputs := []string{
		"",
		"title:",
		":value",
		"title:x AND",
		"AND title:x",
		"title:x author:y",
		"title:x AND AND author:y",
		"(title:x",
		"title:x)",
		`title:"unterminated`,
		"justaword",
	}
	for _, in := range inputs {
		_, err := Compile(in)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "input %q", in)
	}
}

func TestCompileMixedOperands(t *testing.T) {
	g, err := Compile("a:1 AND b:2 OR c:3")
	require.NoError(t, err)
	assert.Equal(t, `((<a EQUALS "1"> AND <b EQUALS "2">) OR <c EQUALS "3">)`, g.String())
	assert.Equal(t, Or, g.Operator())
}

func TestCompileParentheses(t *testing.T) {
	t.Run("redundant outer parens are stripped", func(t *testing.T) {
		g, err := Compile("((title:x AND author:y))")
		require.NoError(t, err)
		assert.Equal(t, `(<title EQUALS "x"> AND <author EQUALS "y">)`, g.String())
	})

	t.Run("sibling groups are kept", func(t *testing.T) {
		g, err := Compile("(a:1 OR b:2) AND (c:3 OR d:4)")
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
		assert.Equal(t, And, g.Operator())
	})

	t.Run("single item group collapses", func(t *testing.T) {
		g, err := Compile("(title:x) AND author:y")
		require.NoError(t, err)
		_, ok := g.Operands()[0].(Comparison)
		assert.True(t, ok)
	})

	t.Run("parens inside quotes", func(t *testing.T) {
		g, err := Compile(`title:"foo (bar"`)
		require.NoError(t, err)
		assert.Equal(t, "foo (bar", g.Operands()[0].(Comparison).Value)
	})
}

func TestCompileTokens(t *testing.T) {
	g, err := CompileTokens([]string{"title:la galatea", "and", "(author:x OR author:y)"})
	require.NoError(t, err)
	assert.Equal(t, `(<title EQUALS "la galatea"> AND (<author EQUALS "x"> OR <author EQUALS "y">))`, g.String())

	g, err = CompileTokens([]string{"a:1 AND b:2", "OR", "c:3"})
	require.NoError(t, err)
	assert.Equal(t, `((<a EQUALS "1"> AND <b EQUALS "2">) OR <c EQUALS "3">)`, g.String())
}

func TestSerializerCodes(t *testing.T) {
	g := Parse("isbn:0-13-285620-4 OR title:\"it's\"")
	assert.Equal(t, `@or @attr 1=7 "0132856204" @attr 1=4 "it\'s"`, RPN(g))

	codes := DefaultRPNCodes.With(map[string]int{"Title": 1})
	assert.Equal(t, `@attr 1=1 "x"`, codes.Serialize(Single(Compare("nosuchfield", Equals, "x"))))
	assert.Equal(t, 4, DefaultRPNCodes["title"])

	text := DefaultTextCodes.With(map[string]string{"isbn": "i"})
	assert.Equal(t, `i:"123" or t:"x"`, text.Serialize(OrOf(Compare("isbn", Equals, "123"), Compare("title", Equals, "x"))))
}

func TestISBNs(t *testing.T) {
	g := AndOf(Compare("isbn", Equals, "1"), Compare("title", Equals, "x"), OrOf(Compare("isbn", Equals, "2"), Compare("isbn", Equals, "3")))
	values, skipped := ISBNs(g)
	assert.Equal(t, []string{"1"}, values)
	assert.Equal(t, 1, skipped)
}

func TestFormatRoundTrip(t *testing.T) {
	fields := []string{"title", "author", "isbn", "subject", "publisher"}
	values := []string{"la galatea", "Cervantes, Miguel de", "it's", "foo (bar)", "ñandú", "x", `say "hi"`, "a:b", "AND"}
	rng := rand.New(rand.NewSource(42))

	var gen func(depth int) Expr
	gen = func(depth int) Expr {
		if depth == 0 || rng.Intn(3) == 0 {
			op := Equals
			if rng.Intn(2) == 0 {
				op = Contains
			}
			return Compare(fields[rng.Intn(len(fields))], op, values[rng.Intn(len(values))])
		}
		n := 2 + rng.Intn(3)
		ops := make([]Expr, n)
		for i := range ops {
			ops[i] = gen(depth - 1)
		}
		if rng.Intn(2) == 0 {
			return AndOf(ops...)
		}
		return OrOf(ops...)
	}

	for i := 0; i < 200; i++ {
		var root *Group
		switch e := gen(3).(type) {
		case *Group:
			root = e
		case Comparison:
			root = Single(e)
		}
		text := Format(root)
		got, err := Compile(text)
		require.NoError(t, err, text)
		assert.True(t, Equal(root, got), "%s\n%s\n%s", text, root, got)
	}
}

func TestFormatUnrepresentable(t *testing.T) {
	tests := []struct {
		name string
		in   Comparison
		want string
	}{
		{"equals wrapped in percent", Compare("title", Equals, "%ab%"), `(<title CONTAINS "ab">)`},
		{"empty contains", Compare("title", Contains, ""), `(<title EQUALS "%%">)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compile(Format(Single(tt.in)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
