// Package logging builds the process slog.Logger from config.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Params selects level, format and outputs.
type Params struct {
	Level    string
	JSON     bool
	FileName string
	Stdout   bool
	// Stderr sends console output to stderr instead of stdout.
	Stderr bool
}

// Setup returns a logger for p and a closer for the log file. With no file
// name logs go to the console only.
func Setup(p Params) (*slog.Logger, io.Closer) {
	out, closer := output(p)
	opts := &slog.HandlerOptions{Level: ParseLevel(p.Level)}
	var h slog.Handler
	if p.JSON {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func output(p Params) (io.Writer, io.Closer) {
	var console io.Writer = os.Stdout
	if p.Stderr {
		console = os.Stderr
	}
	if p.FileName == "" {
		return console, nopCloser{}
	}
	name := p.FileName
	if !strings.HasSuffix(name, ".log") {
		name += ".log"
	}
	file := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		Compress:   true,
	}
	if p.Stdout {
		return NewCombinedWriter(console, file), file
	}
	return file, file
}

// ParseLevel maps a config level name to a slog.Level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CombinedWriter writes to every writer, continuing past failures.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{Writers: writers}
}

// Write reports len(p) only when every writer took all of p; otherwise the
// errors of all failing writers are combined.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	for _, w := range cw.Writers {
		n, werr := w.Write(p)
		if werr == nil && n < len(p) {
			werr = io.ErrShortWrite
		}
		err = multierr.Append(err, werr)
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
