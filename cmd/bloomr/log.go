package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

// verbosityLevels maps --verbosity 0..5 onto slog levels; 0 silences
// everything but errors.
var verbosityLevels = []slog.Level{
	slog.LevelError + 4,
	slog.LevelError,
	slog.LevelWarn,
	slog.LevelInfo,
	slog.LevelDebug,
	slog.LevelDebug - 4,
}

func verbosityLevel(v int) slog.Level {
	if v < 0 {
		v = 0
	}
	if v >= len(verbosityLevels) {
		v = len(verbosityLevels) - 1
	}
	return verbosityLevels[v]
}

// newLogger builds the CLI logger. Terminals are written through a
// colorable writer; forceJSON switches to JSON lines.
func newLogger(w io.Writer, verbosity int, forceJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: verbosityLevel(verbosity)}

	if f, ok := w.(*os.File); ok && !forceJSON && isatty.IsTerminal(f.Fd()) {
		return slog.New(slog.NewTextHandler(colorable.NewColorable(f), opts))
	}
	if forceJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func setupLogging(ctx *cli.Context) error {
	logger := newLogger(ctx.App.ErrWriter, ctx.Int(verbosityFlag.Name), ctx.Bool(logJSONFlag.Name))
	slog.SetDefault(logger)
	return nil
}
