// Package logging builds the hclog loggers used across vertexctl.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Options selects level and format.
type Options struct {
	Level string
	JSON  bool
}

// New creates an hclog logger with standard settings. JSON output is used
// when opts.JSON is set or VERTEX_JSON_LOG=1.
func New(name string, opts Options, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := opts.JSON || os.Getenv("VERTEX_JSON_LOG") == "1"

	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// Level returns the effective level name: debug when verbose, else the
// configured level, else VERTEX_LOG_LEVEL, else warn.
func Level(configured string, verbose bool) string {
	if verbose {
		return "debug"
	}
	if configured != "" {
		return strings.ToLower(configured)
	}
	if env := os.Getenv("VERTEX_LOG_LEVEL"); env != "" {
		return strings.ToLower(env)
	}
	return "warn"
}

// OrNull returns l, or a null logger when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
