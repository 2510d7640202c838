// Package logger builds the structured logger shared by every component.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Options override what would otherwise come from LOG_LEVEL and LOG_FORMAT.
type Options struct {
	Level  string    // "debug", "info", ...; empty reads LOG_LEVEL
	Format string    // "json" or "text"; empty reads LOG_FORMAT
	Output io.Writer // defaults to os.Stdout
}

// New creates a logger. Unknown levels fall back to info.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	level := opts.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)

	format := opts.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   isTerminal(out),
		})
	}

	return log
}

// Discard returns a logger that writes nowhere, for tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Component tags log lines with the emitting component.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
