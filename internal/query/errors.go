package query

import "fmt"

// ParseError describes why a query string could not be compiled.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse query %q: %s", e.Input, e.Reason)
}

func parseErr(input, format string, args ...any) *ParseError {
	return &ParseError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
