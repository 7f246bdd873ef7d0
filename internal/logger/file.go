package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/srcflat/internal/models"
)

// FileLogger logs run events to files in the .srcflat/logs/ directory.
// It creates timestamped per-invocation log files and maintains a latest.log
// symlink pointing to the most recent one.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir at the given level.
// It creates the log directory if it doesn't exist, opens a timestamped
// log file, and creates/updates the latest.log symlink.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")

	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}

	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== srcflat Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// Path returns the path of the current log file.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !shouldLog(fl.logLevel, strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogRunStart records the start of a run at INFO level.
func (fl *FileLogger) LogRunStart(runID, root string) {
	if !shouldLog(fl.logLevel, "info") {
		return
	}

	fl.writeRunLog(fmt.Sprintf("[%s] === RUN %s ===\n[%s] Root: %s\n",
		time.Now().Format("15:04:05"), runID, time.Now().Format("15:04:05"), root))
}

// LogRunComplete records the run summary with every failed file at INFO level.
func (fl *FileLogger) LogRunComplete(report *models.RunReport) {
	if report == nil || !shouldLog(fl.logLevel, "info") {
		return
	}

	ts := time.Now().Format("15:04:05")

	status := "SUCCESS"
	switch {
	case report.DryRun:
		status = "DRY RUN"
	case report.Found == 0:
		status = "EMPTY"
	case report.Stats.Failed() > 0 && report.Processed() == 0:
		status = "FAILED"
	case report.Stats.Failed() > 0:
		status = "PARTIAL"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Found:       %d\n", ts, report.Found)
	fmt.Fprintf(&b, "[%s] Processed:   %d\n", ts, report.Processed())
	fmt.Fprintf(&b, "[%s] Collisions:  %d\n", ts, report.Collisions())
	fmt.Fprintf(&b, "[%s] Failed:      %d\n", ts, report.Stats.Failed())
	fmt.Fprintf(&b, "[%s] Duration:    %.1fs\n", ts, report.Duration.Seconds())
	fmt.Fprintf(&b, "[%s] Status:      %s\n", ts, status)

	if report.Stats != nil {
		for _, failure := range report.Stats.Failures {
			fmt.Fprintf(&b, "[%s]   - %s: %v\n", ts, failure.Path, failure.Err)
		}
	}
	for _, err := range report.TraversalErrors {
		fmt.Fprintf(&b, "[%s]   ! %v\n", ts, err)
	}
	b.WriteString("\n")

	fl.writeRunLog(b.String())
}

// Close closes the log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return nil
	}
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return
	}
	fl.runLog.WriteString(message)
}
