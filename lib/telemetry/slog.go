package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default structured logger. verbose enables
// debug-level output, which includes full request logs.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
