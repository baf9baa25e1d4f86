package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger. Unknown levels fall back to info.
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	base = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	base.Info().Msg("logger initialized")
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	base = base.Output(w)
}

func Debug(msg string, fields map[string]any) {
	base.Debug().Fields(fields).Msg(msg)
}

func Info(msg string, fields map[string]any) {
	base.Info().Fields(fields).Msg(msg)
}

func Warn(msg string, fields map[string]any) {
	base.Warn().Fields(fields).Msg(msg)
}

func Error(msg string, fields map[string]any) {
	base.Error().Fields(fields).Msg(msg)
}

// Fatal logs and exits the process.
func Fatal(msg string, fields map[string]any) {
	base.Fatal().Fields(fields).Msg(msg)
}
