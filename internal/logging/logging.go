// Package logging wires up the structured logger every other component
// gets a sub-logger from, each one derived with
// Log.With().Str("component", ...).Logger().
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Base is the root logger, configured once by Init.
var Base zerolog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

// Init configures the root logger to write to out (stdout if nil) and
// returns it. When out is os.Stdout, output is a human-readable console
// format; any other writer gets JSON.
func Init(out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}

	var writer io.Writer = out
	if f, ok := out.(*os.File); ok && f == os.Stdout {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	Base = zerolog.New(writer).With().Timestamp().Logger()
	return Base
}

// Component returns a sub-logger scoped to name, e.g. "proxy", "policy",
// "crawl", "report", "frontier", "browserdriver".
func Component(name string) zerolog.Logger {
	return Base.With().Str("component", name).Logger()
}

// OpenLogFile rotates the log file at path: if path names an existing
// file, it is renamed by appending "-old.txt" to its base name before a
// fresh, truncated file is opened at path. If path is empty, os.Stdout is
// returned and the caller should treat it as non-closable.
func OpenLogFile(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+"-old.txt"); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}
