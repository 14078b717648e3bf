// Package log is the bot's logging facade. One logger is installed at startup, either the console or
// Google Cloud Logging, and every package reaches it through Logger.
package log

import (
	"strings"
)

// Severity follows the Cloud Logging levels so entries map one to one onto that backend.
type Severity int

const (
	Default   Severity = 0
	Debug     Severity = 100
	Info      Severity = 200
	Notice    Severity = 300
	Warning   Severity = 400
	Error     Severity = 500
	Critical  Severity = 600
	Alert     Severity = 700
	Emergency Severity = 800
)

var severityNames = map[Severity]string{
	Default:   "default",
	Debug:     "debug",
	Info:      "info",
	Notice:    "notice",
	Warning:   "warning",
	Error:     "error",
	Critical:  "critical",
	Alert:     "alert",
	Emergency: "emergency",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return "default"
}

// ParseSeverity reads a configured logging level. Unknown levels log everything.
func ParseSeverity(s string) Severity {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warn" {
		return Warning
	}
	for severity, name := range severityNames {
		if name == s {
			return severity
		}
	}
	return Default
}

// Labeler is anything that can describe itself in log entry labels: events, requests, actions.
type Labeler interface {
	Labels() map[string]string
}

type Log interface {
	Close() error
	Log(l Labeler, message string, severity Severity)
	Default(l Labeler, message any)
	Defaultf(l Labeler, format string, args ...any)
	Debug(l Labeler, message any)
	Debugf(l Labeler, format string, args ...any)
	Info(l Labeler, message any)
	Infof(l Labeler, format string, args ...any)
	Notice(l Labeler, message any)
	Noticef(l Labeler, format string, args ...any)
	Warning(l Labeler, message any)
	Warningf(l Labeler, format string, args ...any)
	Error(l Labeler, message any)
	Errorf(l Labeler, format string, args ...any)
	Critical(l Labeler, message any)
	Criticalf(l Labeler, format string, args ...any)
	Alert(l Labeler, message any)
	Alertf(l Labeler, format string, args ...any)
	Emergency(l Labeler, message any)
	Emergencyf(l Labeler, format string, args ...any)
	Rawf(severity Severity, format string, args ...any)
}

var logger Log

// InitializeConsoleLogger installs a logger that writes to stdout, discarding entries below minimum. The
// first installed logger wins.
func InitializeConsoleLogger(minimum Severity) Log {
	if logger != nil {
		return logger
	}

	logger = newConsoleLogger(minimum)
	return logger
}

func Logger() Log {
	if logger == nil {
		panic("logger is not initialized")
	}

	return logger
}
