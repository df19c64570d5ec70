package index

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every *ConfigError via errors.Is.
var ErrInvalidConfig = errors.New("invalid index configuration")

// ErrUnknownLayer is returned when a write names a layer the index was not
// configured with.
var ErrUnknownLayer = errors.New("unknown layer")

// ConfigError reports a structural misconfiguration detected by New or Rebuild.
//
// Configuration errors are fatal to the instance being built; nothing is
// partially constructed.
type ConfigError struct {
	// Field names the offending Config field (e.g. "layout.chunk_size").
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) match.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
