package query

import (
	"strconv"
	"strings"

	"catalogsearch/internal/isbn"
)

// RPNCodes maps field names to Bib-1 use attributes for prefix (RPN) queries.
type RPNCodes map[string]int

// DefaultRPNCodes are the use attributes understood by most Z39.50 and SRU
// servers.
var DefaultRPNCodes = RPNCodes{
	"title":     4,
	"isbn":      7,
	"issn":      8,
	"date":      30,
	"subject":   62,
	"abstract":  62,
	"author":    1003,
	"publisher": 1018,
	"editor":    1020,
	"oclc":      1211,
}

const defaultTitleCode = 4

// With returns a copy of c with overrides applied.
func (c RPNCodes) With(overrides map[string]int) RPNCodes {
	out := make(RPNCodes, len(c)+len(overrides))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range overrides {
		out[strings.ToLower(k)] = v
	}
	return out
}

// RPN serializes e with the default codes.
func RPN(e Expr) string {
	return DefaultRPNCodes.Serialize(e)
}

// Serialize renders e in prefix notation: @and/@or precede their operands and
// each comparison becomes @attr 1=<code> "value". Unknown fields fall back to
// the title attribute.
func (c RPNCodes) Serialize(e Expr) string {
	var parts []string
	c.write(&parts, e)
	return strings.Join(parts, " ")
}

func (c RPNCodes) write(parts *[]string, e Expr) {
	switch x := e.(type) {
	case *Group:
		last := len(x.operands) - 1
		for i, item := range x.operands {
			if x.op != "" && i < last {
				*parts = append(*parts, "@"+strings.ToLower(string(x.op)))
			}
			c.write(parts, item)
		}
	case Comparison:
		field := strings.ToLower(x.Field)
		if field == AnyField {
			c.write(parts, OrOf(Compare("title", x.Operator, x.Value), Compare("author", x.Operator, x.Value)))
			return
		}
		value := x.Value
		if field == ISBNField {
			value = isbn.Canonical(value)
		}
		*parts = append(*parts, "@attr", "1="+strconv.Itoa(c.code(field)), `"`+addSlashes(value)+`"`)
	}
}

func (c RPNCodes) code(field string) int {
	if code, ok := c[field]; ok {
		return code
	}
	if code, ok := c["title"]; ok {
		return code
	}
	return defaultTitleCode
}

func addSlashes(s string) string {
	if !strings.ContainsAny(s, "\\\"'\x00") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"', '\'':
			b.WriteByte('\\')
			b.WriteByte(c)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
