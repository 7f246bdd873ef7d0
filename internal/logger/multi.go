package logger

import "github.com/harrison/srcflat/internal/models"

// Logger is implemented by ConsoleLogger and FileLogger.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogRunStart(runID, root string)
	LogRunComplete(report *models.RunReport)
}

// MultiLogger fans every call out to each of its loggers in order.
type MultiLogger []Logger

// NewMultiLogger returns a MultiLogger over the non-nil loggers.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	m := make(MultiLogger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m MultiLogger) LogDebug(message string) {
	for _, l := range m {
		l.LogDebug(message)
	}
}

func (m MultiLogger) LogInfo(message string) {
	for _, l := range m {
		l.LogInfo(message)
	}
}

func (m MultiLogger) LogWarn(message string) {
	for _, l := range m {
		l.LogWarn(message)
	}
}

func (m MultiLogger) LogError(message string) {
	for _, l := range m {
		l.LogError(message)
	}
}

func (m MultiLogger) LogRunStart(runID, root string) {
	for _, l := range m {
		l.LogRunStart(runID, root)
	}
}

func (m MultiLogger) LogRunComplete(report *models.RunReport) {
	for _, l := range m {
		l.LogRunComplete(report)
	}
}
