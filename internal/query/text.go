package query

import "strings"

// TextCodes maps field names to the index prefixes of legacy text-search
// back ends. Fields without a code are searched as keywords.
type TextCodes map[string]string

// DefaultTextCodes are the INNOPAC index letters.
var DefaultTextCodes = TextCodes{
	"title":   "t",
	"subject": "s",
	"author":  "a",
}

// With returns a copy of c with overrides applied.
func (c TextCodes) With(overrides map[string]string) TextCodes {
	out := make(TextCodes, len(c)+len(overrides))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range overrides {
		out[strings.ToLower(k)] = v
	}
	return out
}

// Text serializes e with the default codes.
func Text(e Expr) string {
	return DefaultTextCodes.Serialize(e)
}

// Serialize renders e as infix text, e.g. t:"x" and (a:"y" or "z").
func (c TextCodes) Serialize(e Expr) string {
	switch x := e.(type) {
	case Comparison:
		return c.comparison(x)
	case *Group:
		var b strings.Builder
		last := len(x.operands) - 1
		for i, item := range x.operands {
			switch y := item.(type) {
			case Comparison:
				b.WriteString(c.comparison(y))
			case *Group:
				b.WriteString("(" + c.Serialize(y) + ")")
			}
			if x.op != "" && i < last {
				b.WriteString(" " + strings.ToLower(string(x.op)) + " ")
			}
		}
		return b.String()
	}
	return ""
}

func (c TextCodes) comparison(cmp Comparison) string {
	prefix := ""
	if code, ok := c[strings.ToLower(cmp.Field)]; ok && code != "" {
		prefix = code + ":"
	}
	return prefix + `"` + addSlashes(cmp.Value) + `"`
}
