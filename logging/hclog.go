package logging

import (
	"io"
	"log"

	"github.com/hashicorp/go-hclog"
)

const (
	hclogArgsField = "hclog.args"
	hclogNameField = "hclog.name"
)

// HCLog adapts a Context to hashicorp/go-hclog.Logger, for the handful of
// third-party pieces (x/sync, embedded gin middlewares) that expect one
// rather than accepting a Context directly.
func HCLog(c Context) hclog.Logger {
	return &hclogAdapter{c: c}
}

type hclogAdapter struct {
	c Context
}

func (a *hclogAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		return
	case hclog.Trace, hclog.Debug:
		a.c.Debug(msg, nil, args...)
	case hclog.Info:
		a.c.Info(msg, nil, args...)
	case hclog.Warn:
		a.c.Warning(msg, nil, args...)
	case hclog.Error:
		a.c.Error(msg, nil, args...)
	}
}

func (a *hclogAdapter) Trace(msg string, args ...interface{}) { a.c.Debug(msg, nil, args...) }
func (a *hclogAdapter) Debug(msg string, args ...interface{}) { a.c.Debug(msg, nil, args...) }
func (a *hclogAdapter) Info(msg string, args ...interface{})  { a.c.Info(msg, nil, args...) }
func (a *hclogAdapter) Warn(msg string, args ...interface{})  { a.c.Warning(msg, nil, args...) }
func (a *hclogAdapter) Error(msg string, args ...interface{}) { a.c.Error(msg, nil, args...) }

func (a *hclogAdapter) IsTrace() bool { return a.c.GetLevel() >= DebugLevel }
func (a *hclogAdapter) IsDebug() bool { return a.c.GetLevel() >= DebugLevel }
func (a *hclogAdapter) IsInfo() bool  { return a.c.GetLevel() >= InfoLevel }
func (a *hclogAdapter) IsWarn() bool  { return a.c.GetLevel() >= WarnLevel }
func (a *hclogAdapter) IsError() bool { return a.c.GetLevel() >= ErrorLevel }

func (a *hclogAdapter) ImpliedArgs() []interface{} {
	if v, ok := a.c.GetFields()[hclogArgsField]; ok {
		if s, ok := v.([]interface{}); ok {
			return s
		}
	}
	return nil
}

func (a *hclogAdapter) With(args ...interface{}) hclog.Logger {
	return &hclogAdapter{c: a.c.WithFields(Fields{hclogArgsField: args})}
}

func (a *hclogAdapter) Name() string {
	if v, ok := a.c.GetFields()[hclogNameField]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (a *hclogAdapter) Named(name string) hclog.Logger {
	return &hclogAdapter{c: a.c.WithFields(Fields{hclogNameField: name})}
}

func (a *hclogAdapter) ResetNamed(name string) hclog.Logger {
	return a.Named(name)
}

func (a *hclogAdapter) SetLevel(level hclog.Level) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		a.c.SetLevel(NilLevel)
	case hclog.Trace, hclog.Debug:
		a.c.SetLevel(DebugLevel)
	case hclog.Info:
		a.c.SetLevel(InfoLevel)
	case hclog.Warn:
		a.c.SetLevel(WarnLevel)
	case hclog.Error:
		a.c.SetLevel(ErrorLevel)
	}
}

func (a *hclogAdapter) GetLevel() hclog.Level {
	switch a.c.GetLevel() {
	case NilLevel:
		return hclog.Off
	case DebugLevel:
		return hclog.Debug
	case WarnLevel:
		return hclog.Warn
	case ErrorLevel, FatalLevel, PanicLevel:
		return hclog.Error
	default:
		return hclog.Info
	}
}

func (a *hclogAdapter) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(a.c.Entry().Logger.Out, "", 0)
}

func (a *hclogAdapter) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return a.c.Entry().Logger.Out
}
