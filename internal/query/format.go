package query

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var debugJSON = jsoniter.Config{EscapeHTML: false}.Froze()

func (c Comparison) String() string {
	v, _ := debugJSON.MarshalToString(c.Value)
	return "<" + c.Field + " " + string(c.Operator) + " " + v + ">"
}

// String returns the debug form, e.g. (<title CONTAINS "x"> AND <author EQUALS "y">).
func (g *Group) String() string {
	parts := make([]string, len(g.operands))
	for i, item := range g.operands {
		switch x := item.(type) {
		case Comparison:
			parts[i] = x.String()
		case *Group:
			parts[i] = x.String()
		}
	}
	return "(" + strings.Join(parts, " "+string(g.op)+" ") + ")"
}

// Format renders e as query text that Compile reads back to the same tree.
// The grammar has no escapes, so some values cannot be represented: values
// holding both quote characters, EQUALS values wrapped in %...% (they read
// back as CONTAINS), and empty values.
func Format(e Expr) string {
	switch x := e.(type) {
	case Comparison:
		return formatComparison(x)
	case *Group:
		return formatGroup(x)
	}
	return ""
}

func formatGroup(g *Group) string {
	parts := make([]string, len(g.operands))
	for i, item := range g.operands {
		switch x := item.(type) {
		case Comparison:
			parts[i] = formatComparison(x)
		case *Group:
			parts[i] = "(" + formatGroup(x) + ")"
		}
	}
	return strings.Join(parts, " "+string(g.op)+" ")
}

func formatComparison(c Comparison) string {
	v := c.Value
	if c.Operator == Contains {
		v = "%" + v + "%"
	}
	q := `"`
	if strings.Contains(v, `"`) {
		q = `'`
	}
	return c.Field + ":" + q + v + q
}
