// Package logging builds the hclog logger shared by the CLI, the machine and
// the debugger. Stdout belongs to the emulated console, so logs go to
// stderr or a rotated file.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const Name = "lulu"

type Options struct {
	Level      string
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	Output     io.Writer // used when File is empty; os.Stderr when nil
}

// New returns a logger and a function that releases its output.
func New(opts Options) (hclog.Logger, func() error, error) {
	level := hclog.Warn
	if opts.Level != "" {
		level = hclog.LevelFromString(opts.Level)
		if level == hclog.NoLevel {
			return nil, nil, fmt.Errorf("unknown log level %q", opts.Level)
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	closer := func() error { return nil }
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
		}
		out = file
		closer = file.Close
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   Name,
		Output: out,
		Level:  level,
	})
	return logger, closer, nil
}
