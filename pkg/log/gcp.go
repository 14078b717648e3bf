package log

import (
	"cloud.google.com/go/logging"
	"context"
	"fmt"
	"google.golang.org/api/option"
	"warden/pkg/config"
)

func InitializeGCPLogger(ctx context.Context, cfg *config.Config, logID string) (Log, error) {
	if logger != nil {
		return logger, nil
	}

	opts := make([]option.ClientOption, 0)
	if len(cfg.GoogleCloud.ServiceAccountFilename) > 0 {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCloud.ServiceAccountFilename))
	}

	client, err := logging.NewClient(ctx, cfg.GoogleCloud.ProjectID, opts...)

	if err != nil {
		return nil, err
	}

	if client == nil {
		return nil, fmt.Errorf("error creating logging client")
	}

	logger = &gcpLogger{
		ctx:    ctx,
		client: client,
		logger: client.Logger(logID),
		echo:   newConsoleLogger(Default),
	}

	return logger, err
}

// gcpLogger writes entries to Cloud Logging and echoes them to stdout.
type gcpLogger struct {
	ctx    context.Context
	client *logging.Client
	logger *logging.Logger
	echo   *consoleLogger
}

func (gl *gcpLogger) Close() error {
	return gl.client.Close()
}

func (gl *gcpLogger) Log(l Labeler, message string, severity Severity) {
	var labels map[string]string
	if l != nil {
		labels = l.Labels()
	}
	gl.logger.Log(logging.Entry{Payload: message, Severity: logging.Severity(severity), Labels: labels})
}

func (gl *gcpLogger) Rawf(severity Severity, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.logger.Log(logging.Entry{Payload: message, Severity: logging.Severity(severity)})
	gl.echo.print(' ', message)
}

func (gl *gcpLogger) Default(l Labeler, message any) {
	gl.Defaultf(l, "%s", message)
}

func (gl *gcpLogger) Defaultf(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Default)
	gl.echo.print('-', message)
}

func (gl *gcpLogger) Debug(l Labeler, message any) {
	gl.Debugf(l, "%s", message)
}

func (gl *gcpLogger) Debugf(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Debug)
	gl.echo.print('D', message)
}

func (gl *gcpLogger) Info(l Labeler, message any) {
	gl.Infof(l, "%s", message)
}

func (gl *gcpLogger) Infof(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Info)
	gl.echo.print('I', message)
}

func (gl *gcpLogger) Notice(l Labeler, message any) {
	gl.Noticef(l, "%s", message)
}

func (gl *gcpLogger) Noticef(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Notice)
	gl.echo.print('N', message)
}

func (gl *gcpLogger) Warning(l Labeler, message any) {
	gl.Warningf(l, "%s", message)
}

func (gl *gcpLogger) Warningf(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Warning)
	gl.echo.print('W', message)
}

func (gl *gcpLogger) Error(l Labeler, message any) {
	gl.Errorf(l, "%s", message)
}

func (gl *gcpLogger) Errorf(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Error)
	gl.echo.print('E', message)
}

func (gl *gcpLogger) Critical(l Labeler, message any) {
	gl.Criticalf(l, "%s", message)
}

func (gl *gcpLogger) Criticalf(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Critical)
	gl.echo.print('X', message)
}

func (gl *gcpLogger) Alert(l Labeler, message any) {
	gl.Alertf(l, "%s", message)
}

func (gl *gcpLogger) Alertf(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Alert)
	gl.echo.print('Y', message)
}

func (gl *gcpLogger) Emergency(l Labeler, message any) {
	gl.Emergencyf(l, "%s", message)
}

func (gl *gcpLogger) Emergencyf(l Labeler, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	gl.Log(l, message, Emergency)
	gl.echo.print('Z', message)
}
