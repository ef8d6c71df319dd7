// Package logging builds the process logger: INFO and WARN go to stdout,
// ERROR and above to stderr, and optionally every level to a log file.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// File, when set, receives every entry as JSON in addition to the
	// console output.
	File  string
	Debug bool
}

// New creates the logger. The returned cleanup flushes it and closes the log
// file.
func New(opts Options) (*zap.SugaredLogger, func(), error) {
	var file io.Writer
	var closeFile func() error
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
		closeFile = f.Close
	}

	logger := newLogger(os.Stdout, os.Stderr, file, opts.Debug)
	cleanup := func() {
		_ = logger.Sync()
		if closeFile != nil {
			_ = closeFile()
		}
	}
	return logger, cleanup, nil
}

// newLogger tees the console cores and the optional file core.
func newLogger(stdout, stderr, file io.Writer, debug bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	console := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.AddSync(stdout), low),
		zapcore.NewCore(console, zapcore.AddSync(stderr), high),
	}
	if file != nil {
		all := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= level })
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), all))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}
