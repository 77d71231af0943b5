package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/osse101/TriviaCast_Go/internal/config"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// SetupLogger installs the default logger. When cfg.LogDir is set, output also goes
// to a timestamped session file there and old session files are pruned.
// Returns the log file handle (caller must close; nil without LogDir).
func SetupLogger(cfg *config.Config) (*os.File, error) {
	loggerConfig := logger.NewConfig(
		cfg.LogLevel,
		cfg.LogFormat,
		cfg.ServiceName,
		cfg.Version,
		cfg.Environment,
		cfg.IsDevelopment(),
	)

	var logFile *os.File
	var w io.Writer = os.Stdout
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, DirPermission); err != nil {
			return nil, fmt.Errorf("%s: %w", LogMsgFailedCreateLogsDir, err)
		}

		cleanupLogs(cfg.LogDir, LogFileRetentionCount-1)

		timestamp := time.Now().Format(LogFileTimestampFormat)
		logFileName := filepath.Join(cfg.LogDir, fmt.Sprintf(LogFileNamePattern, timestamp))

		f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermission)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", LogMsgFailedOpenLogFile, err)
		}
		logFile = f
		w = io.MultiWriter(os.Stdout, logFile)
	}

	logger.InitLoggerWithWriter(loggerConfig, w)

	slog.Info(LogMsgLoggingInitialized, "level", loggerConfig.LogLevel(), "log_dir", cfg.LogDir)
	slog.Info(LogMsgStartingService,
		"environment", cfg.Environment,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"version", cfg.Version)

	slog.Debug(LogMsgConfigurationLoaded,
		"db_host", cfg.DBHost,
		"db_port", cfg.DBPort,
		"db_name", cfg.DBName,
		"port", cfg.Port,
		"chain_enabled", cfg.ChainEnabled(),
		"admin_auth_enabled", cfg.AdminAuthEnabled(),
		"sweep_interval", cfg.SweepInterval)

	return logFile, nil
}

// cleanupLogs removes the oldest session logs so that at most keep remain
func cleanupLogs(logDir string, keep int) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	var logFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), LogFileExtension) {
			logFiles = append(logFiles, entry.Name())
		}
	}
	// session names embed a sortable timestamp
	sort.Strings(logFiles)

	for i := 0; i < len(logFiles)-keep; i++ {
		if err := os.Remove(filepath.Join(logDir, logFiles[i])); err != nil {
			slog.Warn(LogMsgFailedDeleteOldLog, "file", logFiles[i], "error", err)
		}
	}
}
