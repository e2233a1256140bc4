package logger

import "github.com/rs/zerolog"

// Leveled adapts a zerolog logger to the key/value logging interface used by HTTP clients
// such as go-retryablehttp.
type Leveled struct {
	l zerolog.Logger
}

func NewLeveled(l zerolog.Logger) *Leveled {
	return &Leveled{l: l}
}

func (z *Leveled) Error(msg string, keysAndValues ...any) {
	z.l.Error().Fields(keysAndValues).Msg(msg)
}

func (z *Leveled) Warn(msg string, keysAndValues ...any) {
	z.l.Warn().Fields(keysAndValues).Msg(msg)
}

func (z *Leveled) Info(msg string, keysAndValues ...any) {
	z.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (z *Leveled) Debug(msg string, keysAndValues ...any) {
	z.l.Debug().Fields(keysAndValues).Msg(msg)
}
