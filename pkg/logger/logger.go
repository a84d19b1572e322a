// Package logger defines the logging interface used across the SDK and
// a zerolog-backed default implementation.
//
// Components that log accept a [Logger] so applications can route SDK
// logs into whatever logging setup they already have.
package logger

// Logger is the minimal leveled logger the SDK components depend on.
// Arguments after the message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Nop discards everything. Useful in tests and as a safe default.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
