package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Context is the logging handle passed down through the dispatcher, the
// request handler, and the reference CLIs. Every call site logs through a
// Context rather than a bare package-level logger, so fields (session id,
// endpoint, method name) accumulate naturally as a Context is cloned and
// extended down a call chain.
type Context interface {
	SetLevel(Level)
	GetLevel() Level

	SetFields(Fields)
	GetFields() Fields

	// Clone returns an independent copy sharing the same underlying
	// logrus.Logger output configuration but with its own field set.
	Clone() Context

	// WithFields returns a clone with extra fields merged in.
	WithFields(Fields) Context

	Debug(msg string, err error, args ...interface{})
	Info(msg string, err error, args ...interface{})
	Warning(msg string, err error, args ...interface{})
	Error(msg string, err error, args ...interface{})
	Fatal(msg string, err error, args ...interface{})
	Panic(msg string, err error, args ...interface{})

	// Entry exposes the underlying *logrus.Entry for callers that need a
	// raw logrus handle (e.g. to hand to a third-party library's logger
	// injection point).
	Entry() *logrus.Entry
}

type logContext struct {
	base   *logrus.Logger
	fields Fields
	level  Level
}

// New builds a Context writing to stderr at InfoLevel, matching the
// teacher's default logger construction.
func New() Context {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	base.SetLevel(InfoLevel.logrus())

	return &logContext{
		base:   base,
		fields: Fields{},
		level:  InfoLevel,
	}
}

func (l *logContext) SetLevel(lvl Level) {
	l.level = lvl
	l.base.SetLevel(lvl.logrus())
}

func (l *logContext) GetLevel() Level { return l.level }

func (l *logContext) SetFields(f Fields) { l.fields = f }

func (l *logContext) GetFields() Fields { return l.fields }

func (l *logContext) Clone() Context {
	return &logContext{
		base:   l.base,
		fields: l.fields,
		level:  l.level,
	}
}

func (l *logContext) WithFields(f Fields) Context {
	c := l.Clone().(*logContext)
	c.fields = l.fields.Merge(f)
	return c
}

func (l *logContext) Entry() *logrus.Entry {
	return l.base.WithFields(l.fields.logrus())
}

func (l *logContext) log(lvl logrus.Level, msg string, err error, args ...interface{}) {
	e := l.Entry()
	if err != nil {
		e = e.WithError(err)
	}
	if len(args) > 0 {
		e.Logln(lvl, append([]interface{}{msg}, args...)...)
		return
	}
	e.Log(lvl, msg)
}

func (l *logContext) Debug(msg string, err error, args ...interface{}) {
	l.log(logrus.DebugLevel, msg, err, args...)
}

func (l *logContext) Info(msg string, err error, args ...interface{}) {
	l.log(logrus.InfoLevel, msg, err, args...)
}

func (l *logContext) Warning(msg string, err error, args ...interface{}) {
	l.log(logrus.WarnLevel, msg, err, args...)
}

func (l *logContext) Error(msg string, err error, args ...interface{}) {
	l.log(logrus.ErrorLevel, msg, err, args...)
}

func (l *logContext) Fatal(msg string, err error, args ...interface{}) {
	l.log(logrus.FatalLevel, msg, err, args...)
}

func (l *logContext) Panic(msg string, err error, args ...interface{}) {
	l.log(logrus.PanicLevel, msg, err, args...)
}
