package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	// Double-check after acquiring write lock
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, true))
	}
	return globalLogger
}

// InitLogger initializes the arbor logger from the logging configuration.
// Output targets are "stdout" (or "console") and "file"; format "json"
// switches off text output.
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	textOutput := config.Logging.Format != "json"
	logger := arbor.NewLogger()

	for _, output := range config.Logging.Output {
		switch output {
		case "file":
			logFile, err := resolveLogFile()
			if err != nil {
				fmt.Printf("Warning: file logging disabled: %v\n", err)
				continue
			}
			fileConfig := writerConfig(models.LogWriterTypeFile, textOutput)
			fileConfig.FileName = logFile
			fileConfig.MaxSize = 100 * 1024 * 1024 // 100 MB
			fileConfig.MaxBackups = 3
			logger = logger.WithFileWriter(fileConfig)
		case "stdout", "console":
			logger = logger.WithConsoleWriter(writerConfig(models.LogWriterTypeConsole, textOutput))
		}
	}

	logger = logger.WithLevelFromString(config.Logging.Level)

	globalLogger = logger
	return logger
}

func writerConfig(writerType models.LogWriterType, textOutput bool) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:             writerType,
		TimeFormat:       "15:04:05",
		TextOutput:       textOutput,
		DisableTimestamp: false,
	}
}

// resolveLogFile places the log file in a logs directory next to the binary
func resolveLogFile() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}

	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	return filepath.Join(logsDir, "studeo.log"), nil
}
