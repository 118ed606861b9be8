// Package common provides shared utilities for stockview
package common

import (
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}
}

// NewLoggerFromConfig creates a logger with the writers listed in cfg.Outputs.
// "console" (or "stdout") and "file" are recognised; an empty list means console.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	l := arbor.NewLogger()

	console, file := false, false
	for _, o := range cfg.Outputs {
		switch o {
		case "console", "stdout":
			console = true
		case "file":
			file = true
		}
	}
	if !console && !file {
		console = true
	}

	if file && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err == nil {
			l = l.WithFileWriter(models.WriterConfiguration{
				Type:             models.LogWriterTypeFile,
				FileName:         cfg.FilePath,
				TimeFormat:       "15:04:05",
				MaxSize:          100 * 1024 * 1024, // 100 MB
				MaxBackups:       3,
				DisableTimestamp: false,
			})
		} else {
			console = true
		}
	}
	if console {
		l = l.WithConsoleWriter(consoleWriter())
	}

	return &Logger{ILogger: l.WithLevelFromString(normalizeLevel(cfg.Level))}
}

// NewSilentLogger creates a logger with no writers attached
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger()}
}

func normalizeLevel(level string) string {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return level
	default:
		return "info"
	}
}
