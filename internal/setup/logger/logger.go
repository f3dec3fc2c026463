package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const serviceName = "guard-agent"

// New returns a JSON logger on stdout tagged with the service and the
// process component (api, streaming, ...). Unknown levels fall back to info.
func New(level, component string) zerolog.Logger {
	return newWithWriter(os.Stdout, level, component)
}

func newWithWriter(w io.Writer, level, component string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	ctx := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName)
	if component != "" {
		ctx = ctx.Str("component", component)
	}
	return ctx.Caller().Logger()
}
