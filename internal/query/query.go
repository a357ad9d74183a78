// Package query implements the catalog search query language: a small boolean
// expression tree of field comparisons, its parser, and the wire syntaxes the
// catalog back ends understand.
package query

import "strings"

// Operator is the match mode of a Comparison.
type Operator string

const (
	Equals   Operator = "EQUALS"
	Contains Operator = "CONTAINS"
)

// Logical joins the operands of a Group.
type Logical string

const (
	And Logical = "AND"
	Or  Logical = "OR"
)

// AnyField matches titles and authors. No back end knows it natively, so
// serializers expand it.
const AnyField = "any"

// ISBNField is the field used for ISBN comparisons.
const ISBNField = "isbn"

// Expr is either a Comparison or a *Group.
type Expr interface {
	isExpr()
}

// Comparison is a single field/value test.
type Comparison struct {
	Field    string
	Operator Operator
	Value    string
}

func (Comparison) isExpr() {}

// Compare builds a Comparison.
func Compare(field string, op Operator, value string) Comparison {
	return Comparison{Field: field, Operator: op, Value: value}
}

// Group is an AND/OR node. All operands share one operator; a group with a
// single operand has none.
type Group struct {
	op       Logical
	operands []Expr
}

func (*Group) isExpr() {}

// Operator returns the logical operator, empty for single-operand groups.
func (g *Group) Operator() Logical { return g.op }

// Operands returns a copy of the group operands.
func (g *Group) Operands() []Expr {
	out := make([]Expr, len(g.operands))
	copy(out, g.operands)
	return out
}

// Len returns the number of operands.
func (g *Group) Len() int { return len(g.operands) }

// AndOf joins operands with AND.
func AndOf(operands ...Expr) *Group { return newGroup(And, operands) }

// OrOf joins operands with OR.
func OrOf(operands ...Expr) *Group { return newGroup(Or, operands) }

// Single wraps one expression in a root group.
func Single(e Expr) *Group {
	return &Group{operands: []Expr{e}}
}

func newGroup(op Logical, operands []Expr) *Group {
	ops := make([]Expr, len(operands))
	copy(ops, operands)
	if len(ops) < 2 {
		op = ""
	}
	return &Group{op: op, operands: ops}
}

// Equal reports whether two expressions are structurally identical.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case Comparison:
		y, ok := b.(Comparison)
		return ok && x == y
	case *Group:
		y, ok := b.(*Group)
		if !ok || x.op != y.op || len(x.operands) != len(y.operands) {
			return false
		}
		for i := range x.operands {
			if !Equal(x.operands[i], y.operands[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// ISBNs returns the values of the top-level ISBN comparisons of g. Nested
// groups cannot be flattened into a plain ISBN list and are counted in skipped.
func ISBNs(g *Group) (values []string, skipped int) {
	for _, item := range g.operands {
		switch x := item.(type) {
		case *Group:
			skipped++
		case Comparison:
			if strings.EqualFold(x.Field, ISBNField) {
				values = append(values, x.Value)
			}
		}
	}
	return values, skipped
}
