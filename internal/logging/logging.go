package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global zerolog logger with the specified level and output format.
// Logs go to stderr so command output on stdout stays machine readable.
func InitLogger(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano // always initialize base logger with timestamp.
	log.Logger = New(os.Stderr, level, format)
}

// New returns a logger writing to w. format "human" selects the console
// writer, anything else JSON. An unknown level falls back to info.
func New(w io.Writer, level, format string) zerolog.Logger {
	var out io.Writer = w
	if strings.EqualFold(strings.TrimSpace(format), "human") {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339Nano,
		} // select output format.
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
