// Package slogx holds the slog attribute helpers shared by every package that logs.
package slogx

import (
	"fmt"
	"log/slog"
)

const (
	// KeyLoggerName is the attribute key that names the component that logged.
	KeyLoggerName = "logger"
	// KeyAgent is the attribute key for the active agent name.
	KeyAgent = "agent"
	// KeySession is the attribute key for a chat session id.
	KeySession = "session_id"
	// KeyTrace is the attribute key for a trace id.
	KeyTrace = "trace_id"
	// KeySpan is the attribute key for a span id.
	KeySpan = "span_id"
)

// Error returns a slog.Attr with the key "error" and the error's message.
// A nil error yields an empty message.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// ByteString creates a string attribute from a byte slice.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Stringer creates a string attribute from a fmt.Stringer.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName returns an attribute for the logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

func Agent(name string) slog.Attr {
	return slog.String(KeyAgent, name)
}

func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

func Trace(id string) slog.Attr {
	return slog.String(KeyTrace, id)
}

func Span(id string) slog.Attr {
	return slog.String(KeySpan, id)
}
