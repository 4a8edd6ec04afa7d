// Package uuidx generates the identifiers used for runs, turns, sessions and traces.
package uuidx

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// New generates a new UUID using the version 7 format and returns it.
// It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a new version 7 UUID and returns it as a string.
func NewString() string {
	return New().String()
}

// Prefixed returns prefix followed by an underscore and n hex characters
// drawn from random (version 4) UUIDs. n is capped at 64.
//
//	Prefixed("trace", 32) // trace_4bf92f3577b34da6a3ce929d0e0e4736
func Prefixed(prefix string, n int) string {
	n = min(max(n, 0), 64)

	var sb strings.Builder
	sb.Grow(len(prefix) + 1 + n)
	sb.WriteString(prefix)
	sb.WriteByte('_')

	written := 0
	for written < n {
		id := uuid.New()
		chunk := hex.EncodeToString(id[:])
		take := min(len(chunk), n-written)
		sb.WriteString(chunk[:take])
		written += take
	}
	return sb.String()
}
