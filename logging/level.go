// Package logging is the ambient logging façade used across wirerpc: a
// logrus-backed Context that can additionally be consumed as an
// hashicorp/go-hclog.Logger (for libraries that expect one) or bridged to
// spf13/jwalterweatherman (for CLI verbosity flags), plus a short
// per-connection correlation id minted from hashicorp/go-uuid.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus' severity scale plus a NilLevel, matching the
// teacher's convention of a level one step "below" anything logrus itself
// defines. logrus has no silent level, so NilLevel is applied as
// logrus.PanicLevel: panic-level entries still get through.
type Level uint8

const (
	NilLevel Level = iota
	PanicLevel
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (l Level) logrus() logrus.Level {
	switch l {
	case PanicLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.PanicLevel
	}
}

func (l Level) String() string {
	switch l {
	case PanicLevel:
		return "panic"
	case FatalLevel:
		return "fatal"
	case ErrorLevel:
		return "error"
	case WarnLevel:
		return "warning"
	case InfoLevel:
		return "info"
	case DebugLevel:
		return "debug"
	default:
		return "nil"
	}
}

// ParseLevel maps a case-insensitive level name to a Level, defaulting to
// InfoLevel if s isn't recognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "panic":
		return PanicLevel
	case "fatal":
		return FatalLevel
	case "error":
		return ErrorLevel
	case "warning", "warn":
		return WarnLevel
	case "debug", "trace":
		return DebugLevel
	case "nil", "none", "off":
		return NilLevel
	default:
		return InfoLevel
	}
}
