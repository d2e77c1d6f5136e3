package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls how the application logger is built.
type Options struct {
	// Name is used for the logger name and the log file prefix.
	Name string
	// Level is a zap level name such as "debug" or "info".
	Level string
	// Dir enables a JSON log file in this directory when non-empty.
	Dir string
	// Development switches the console to colored levels and debug output.
	Development bool
	// Console is where console output goes. Defaults to os.Stdout.
	Console io.Writer
}

// New creates a logger writing human readable lines to the console and,
// when Dir is set, JSON lines to a dated file.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Development && opts.Level == "" {
		level = zap.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleConfig := encoderConfig
	if opts.Development {
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var console io.Writer = os.Stdout
	if opts.Console != nil {
		console = opts.Console
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleConfig),
			zapcore.AddSync(console),
			level,
		),
	}

	if opts.Dir != "" {
		fileWriter, err := openLogFile(opts.Dir, opts.Name)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	if opts.Name != "" {
		logger = logger.Named(opts.Name)
	}
	return logger, nil
}

func openLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if name == "" {
		name = "app"
	}
	timestamp := time.Now().Format("20060102")
	logFile := filepath.Join(dir, fmt.Sprintf("%s_%s.log", name, timestamp))

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
