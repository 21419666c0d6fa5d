package logging

import jww "github.com/spf13/jwalterweatherman"

// SPF13Threshold maps a Context's current level to the jwalterweatherman
// threshold spf13/cobra and spf13/viper report their own internal chatter
// through, so the reference CLI's "-v" flag moves one knob that affects
// both wirerpc's own logging and these libraries' diagnostics together.
func SPF13Threshold(c Context) jww.Threshold {
	switch c.GetLevel() {
	case NilLevel:
		return jww.LevelCritical
	case PanicLevel, FatalLevel:
		return jww.LevelFatal
	case ErrorLevel:
		return jww.LevelError
	case WarnLevel:
		return jww.LevelWarn
	case InfoLevel:
		return jww.LevelInfo
	case DebugLevel:
		return jww.LevelTrace
	default:
		return jww.LevelInfo
	}
}

// BindSPF13 points jww's default notepad output thresholds at c's current
// level, and routes its output through c's writer.
func BindSPF13(c Context) {
	th := SPF13Threshold(c)
	out := c.Entry().Logger.Out
	jww.SetLogOutput(out)
	jww.SetStdoutOutput(out)
	jww.SetLogThreshold(th)
	jww.SetStdoutThreshold(th)
}
