package config

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownPreset = errors.New("unknown preset")
	ErrInvalid       = errors.New("invalid configuration")
)

// Error reports a configuration problem that prevents startup.
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return fmt.Sprintf("config: %s", msg)
}

func (e *Error) Unwrap() error { return e.Err }
