package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap/zapcore"

	"github.com/NamanBalaji/mtdl/internal/config"
	"github.com/NamanBalaji/mtdl/internal/engine"
	"github.com/NamanBalaji/mtdl/internal/logger"
	"github.com/NamanBalaji/mtdl/internal/progress"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2

	barWidth = 30
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.GetConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			config.Usage(stdout)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if err := logger.InitLogging(cfg.Debug, cfg.LogPath()); err != nil {
		fmt.Fprintf(stderr, "Warning: Failed to initialize logging: %v\n", err)
	}
	defer logger.Close()

	eng := engine.New(cfg, engine.WithRenderer(newRenderer(cfg.Renderer, stdout, stderr)))
	defer eng.Shutdown()

	if cfg.History {
		runs, err := eng.History()
		if err == nil {
			err = engine.PrintHistory(stdout, runs, time.Now())
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		return exitOK
	}

	if _, err := eng.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	return exitOK
}

// newRenderer picks the progress display. "auto" draws bars only when stdout
// is a terminal and falls back to log lines on stderr otherwise.
func newRenderer(kind string, stdout, stderr io.Writer) progress.Renderer {
	logRenderer := func() progress.Renderer {
		return progress.NewLogRenderer(logger.New(zapcore.Lock(zapcore.AddSync(stderr)), zapcore.InfoLevel))
	}

	switch kind {
	case config.RendererTerminal:
		return progress.NewTerminalRenderer(stdout, barWidth)
	case config.RendererLog:
		return logRenderer()
	}

	if f, ok := stdout.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return progress.NewTerminalRenderer(stdout, barWidth)
	}

	return logRenderer()
}
