package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects how log entries are rendered.
type Format string

const (
	// FormatConsole renders short human-readable lines, the default for the CLI.
	FormatConsole Format = "console"

	// FormatJSON renders one JSON object per entry for machine consumption.
	FormatJSON Format = "json"
)

// Config holds the configuration for the logger.
type Config struct {
	// Level is the minimum enabled logging level (debug, info, warn, error).
	Level string

	// Format determines the log format (console or json).
	Format Format

	// DisableCaller disables automatic caller information.
	DisableCaller bool

	// DisableTimestamp omits timestamps from console output.
	DisableTimestamp bool
}

// DefaultConfig returns the configuration used by the command line tool:
// info level console output without caller or timestamp noise.
func DefaultConfig() Config {
	return Config{
		Level:            "info",
		Format:           FormatConsole,
		DisableCaller:    true,
		DisableTimestamp: true,
	}
}

// ParseFormat validates a --log_format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatConsole, "":
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("invalid log format %q: must be console or json", s)
}

// NewLogger creates a zap logger that writes to w.
func NewLogger(cfg Config, w io.Writer) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	if cfg.Format == FormatJSON {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if cfg.DisableTimestamp {
			encoderConfig.TimeKey = ""
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))

	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(w)))}
	if !cfg.DisableCaller {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}

// ParseLevel converts a string level to zapcore.Level.
func ParseLevel(level string) (zapcore.Level, error) {
	return zapcore.ParseLevel(strings.ToLower(level))
}

// MustNewLogger creates a new logger and panics if there's an error.
// This should only be used during application startup.
func MustNewLogger(cfg Config, w io.Writer) *zap.Logger {
	logger, err := NewLogger(cfg, w)
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}
