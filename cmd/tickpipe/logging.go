package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lixenwraith/tickpipe/config"
)

// setupLogging opens the run log file when debug is enabled and returns a logger tagged with runID
// Logs never go to stdout/stderr since the terminal belongs to the renderer
// The returned file is nil when logging is disabled or the file could not be opened
func setupLogging(cfg config.LogConfig, runID string) (*slog.Logger, *os.File) {
	if !cfg.Debug {
		log.SetOutput(io.Discard)
		return slog.New(slog.DiscardHandler), nil
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		log.SetOutput(io.Discard)
		return slog.New(slog.DiscardHandler), nil
	}

	logPath := filepath.Join(cfg.Dir, cfg.File)
	rotateLog(logPath, int64(cfg.MaxSizeMB)<<20)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		log.SetOutput(io.Discard)
		return slog.New(slog.DiscardHandler), nil
	}

	// Stray log.Print calls from dependencies land in the same file
	log.SetOutput(f)

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler).With("run", runID), f
}

// rotateLog renames path to a timestamped sibling once it exceeds limit bytes
func rotateLog(path string, limit int64) {
	if limit <= 0 {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() <= limit {
		return
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	rotated := fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102_150405"), ext)
	if err := os.Rename(path, rotated); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to rotate log file: %v\n", err)
	}
}
