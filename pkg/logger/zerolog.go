package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	l zerolog.Logger
}

// New returns a ZerologLogger writing JSON lines to w with timestamps.
// If w is nil it writes to os.Stdout.
func New(w io.Writer) *ZerologLogger {
	if w == nil {
		w = os.Stdout
	}
	return &ZerologLogger{
		l: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// FromZerolog wraps an existing zerolog.Logger.
func FromZerolog(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

func (z *ZerologLogger) Debug(msg string, args ...any) { emit(z.l.Debug(), msg, args) }
func (z *ZerologLogger) Info(msg string, args ...any)  { emit(z.l.Info(), msg, args) }
func (z *ZerologLogger) Warn(msg string, args ...any)  { emit(z.l.Warn(), msg, args) }
func (z *ZerologLogger) Error(msg string, args ...any) { emit(z.l.Error(), msg, args) }

// emit folds alternating key/value args into zerolog fields. A trailing
// key with no value is logged under "arg" so nothing is silently lost.
func emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = "arg"
		}
		ev = ev.Interface(key, args[i+1])
	}
	if len(args)%2 != 0 {
		ev = ev.Interface("arg", args[len(args)-1])
	}
	ev.Msg(msg)
}
