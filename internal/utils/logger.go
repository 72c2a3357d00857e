package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON production output, debug level
// when verbose.
func NewLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// RunLogger tees a base logger into a per-run log file under
// <logsDir>/<run>/<run>_<timestamp>.log.
type RunLogger struct {
	*zap.Logger
	file *os.File
	path string
}

func NewRunLogger(base *zap.Logger, logsDir, runName string) (*RunLogger, error) {
	// Sanitize run name for file system
	sanitized := strings.ReplaceAll(strings.ToLower(runName), " ", "_")

	runDir := filepath.Join(logsDir, sanitized)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(runDir, fmt.Sprintf("%s_%s.log", sanitized, timestamp))

	file, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(file),
		zapcore.DebugLevel,
	)

	logger := base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})).With(zap.String("run", sanitized))

	return &RunLogger{
		Logger: logger,
		file:   file,
		path:   logPath,
	}, nil
}

func (rl *RunLogger) Path() string {
	return rl.path
}

func (rl *RunLogger) Close() error {
	_ = rl.Logger.Sync()
	return rl.file.Close()
}
