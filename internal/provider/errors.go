package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned by the registry for unregistered type tags.
	ErrUnknownType = errors.New("unknown provider type")

	// ErrInvalidConfig is returned by Configure when required settings are missing.
	ErrInvalidConfig = errors.New("invalid provider config")

	// ErrNotConfigured is returned by Prepare before Configure.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrRoundRequired is returned when a nil round is passed.
	ErrRoundRequired = errors.New("round required")
)

// Error ties a provider failure to the backend it happened on.
type Error struct {
	Catalog string
	Type    string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	name := e.Catalog
	if name == "" {
		name = "external"
	}
	return fmt.Sprintf("provider %s (%s) %s: %v", name, e.Type, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
