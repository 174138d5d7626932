// Package idgen generates the opaque identifiers that correlate log lines and
// events: request IDs for lookups and session IDs for contract runs.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// ID prefixes.
const (
	RequestPrefix = "req-"
	SessionPrefix = "cs-"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	size     = 12
)

// RequestID returns a new request identifier such as "req-4fQ9x2LmTq0a".
func RequestID() (string, error) {
	return New(RequestPrefix)
}

// SessionID returns a new contract session identifier such as "cs-Zk3q...".
func SessionID() (string, error) {
	return New(SessionPrefix)
}

// New returns prefix followed by a random alphanumeric suffix.
func New(prefix string) (string, error) {
	suffix, err := nanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generating %sid: %w", prefix, err)
	}
	return prefix + suffix, nil
}
