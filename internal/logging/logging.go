// Package logging sets up the process-wide structured logger: one handler
// writing to both a file and the console at one level and format, grounded in
// original_source/server/setup_logging.py, re-expressed with log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	logDirEnv   = "LOG_DIR"
	logLevelEnv = "LOG_LEVEL"
	logFileName = "movedblocks.log"
)

// Setup builds and installs the default slog logger, whose one text handler
// writes to both stderr and a log file under LOG_DIR (or the current working
// directory if unset), at the level named by LOG_LEVEL (default INFO).
// It returns the open log file so the caller can close it on shutdown.
func Setup() (*os.File, error) {
	logDir := os.Getenv(logDirEnv)
	if logDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		logDir = wd
	}

	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	level := parseLevel(os.Getenv(logLevelEnv))
	handlerOpts := &slog.HandlerOptions{Level: level}

	multi := io.MultiWriter(os.Stderr, file)
	handler := slog.NewTextHandler(multi, handlerOpts)
	slog.SetDefault(slog.New(handler))

	return file, nil
}

func parseLevel(name string) slog.Level {
	switch name {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARNING", "WARN", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
