package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"jan-server/clients/jan-chat/internal/config"
)

// New creates a zerolog.Logger for the client. The terminal UI owns stdout, so logs
// go to stderr, or to a rotating file when LOG_FILE is set.
func New(cfg *config.Config) zerolog.Logger {
	var output io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	if cfg.LogFile != "" {
		output = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
	}
	return newWithOutput(cfg, output)
}

func newWithOutput(cfg *config.Config, output io.Writer) zerolog.Logger {
	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(parseLevel(cfg.LogLevel))
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
