package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type consoleLogger struct {
	sync.Mutex
	out     io.Writer
	minimum Severity
}

func newConsoleLogger(minimum Severity) *consoleLogger {
	return &consoleLogger{out: os.Stdout, minimum: minimum}
}

func (cl *consoleLogger) Close() error {
	return nil
}

func (cl *consoleLogger) print(marker rune, message string) {
	cl.Lock()
	defer cl.Unlock()
	_, _ = fmt.Fprintf(cl.out, "%s [%c] %s\n", timestamp(), marker, message)
}

func (cl *consoleLogger) emit(l Labeler, severity Severity, marker rune, format string, args ...any) {
	if severity < cl.minimum {
		return
	}

	message := fmt.Sprintf(format, args...)
	if l != nil {
		if labels := l.Labels(); len(labels) > 0 {
			if id, ok := labels["id"]; ok {
				message = fmt.Sprintf("%s (%s)", message, id)
			}
		}
	}
	cl.print(marker, message)
}

func (cl *consoleLogger) Log(l Labeler, message string, severity Severity) {
	cl.emit(l, severity, ' ', "%s", message)
}

func (cl *consoleLogger) Rawf(severity Severity, format string, args ...any) {
	cl.emit(nil, severity, ' ', format, args...)
}

func (cl *consoleLogger) Default(l Labeler, message any) {
	cl.Defaultf(l, "%s", message)
}

func (cl *consoleLogger) Defaultf(l Labeler, format string, args ...any) {
	cl.emit(l, Default, '-', format, args...)
}

func (cl *consoleLogger) Debug(l Labeler, message any) {
	cl.Debugf(l, "%s", message)
}

func (cl *consoleLogger) Debugf(l Labeler, format string, args ...any) {
	cl.emit(l, Debug, 'D', format, args...)
}

func (cl *consoleLogger) Info(l Labeler, message any) {
	cl.Infof(l, "%s", message)
}

func (cl *consoleLogger) Infof(l Labeler, format string, args ...any) {
	cl.emit(l, Info, 'I', format, args...)
}

func (cl *consoleLogger) Notice(l Labeler, message any) {
	cl.Noticef(l, "%s", message)
}

func (cl *consoleLogger) Noticef(l Labeler, format string, args ...any) {
	cl.emit(l, Notice, 'N', format, args...)
}

func (cl *consoleLogger) Warning(l Labeler, message any) {
	cl.Warningf(l, "%s", message)
}

func (cl *consoleLogger) Warningf(l Labeler, format string, args ...any) {
	cl.emit(l, Warning, 'W', format, args...)
}

func (cl *consoleLogger) Error(l Labeler, message any) {
	cl.Errorf(l, "%s", message)
}

func (cl *consoleLogger) Errorf(l Labeler, format string, args ...any) {
	cl.emit(l, Error, 'E', format, args...)
}

func (cl *consoleLogger) Critical(l Labeler, message any) {
	cl.Criticalf(l, "%s", message)
}

func (cl *consoleLogger) Criticalf(l Labeler, format string, args ...any) {
	cl.emit(l, Critical, 'X', format, args...)
}

func (cl *consoleLogger) Alert(l Labeler, message any) {
	cl.Alertf(l, "%s", message)
}

func (cl *consoleLogger) Alertf(l Labeler, format string, args ...any) {
	cl.emit(l, Alert, 'Y', format, args...)
}

func (cl *consoleLogger) Emergency(l Labeler, message any) {
	cl.Emergencyf(l, "%s", message)
}

func (cl *consoleLogger) Emergencyf(l Labeler, format string, args ...any) {
	cl.emit(l, Emergency, 'Z', format, args...)
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05.000")
}
