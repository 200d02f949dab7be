package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

func main() {
	handlers := multiHandler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel(),
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		}),
	}
	if logFile, err := openLogFile(); err == nil {
		handlers = append(handlers, slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(slog.New(handlers))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if os.Getenv("SAVESYNC_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
