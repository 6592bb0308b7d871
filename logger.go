package feedws

// Logger is the logging contract the client expects. Any structured
// logger can be adapted; see NewZerologLogger and newWriterLogger.
type Logger interface {
	WithField(key string, value any) Logger
	Debug(args ...any)
	Debugf(format string, args ...any)
	Debugln(args ...any)
	Info(args ...any)
	Infof(format string, args ...any)
	Infoln(args ...any)
	Warn(args ...any)
	Warnf(format string, args ...any)
	Warnln(args ...any)
	Error(args ...any)
	Errorf(format string, args ...any)
	Errorln(args ...any)
}

// nopLogger discards everything. Used when the caller supplies no logger.
type nopLogger struct{}

func (l nopLogger) WithField(string, any) Logger { return l }
func (l nopLogger) Debug(...any)                 {}
func (l nopLogger) Debugf(string, ...any)        {}
func (l nopLogger) Debugln(...any)               {}
func (l nopLogger) Info(...any)                  {}
func (l nopLogger) Infof(string, ...any)         {}
func (l nopLogger) Infoln(...any)                {}
func (l nopLogger) Warn(...any)                  {}
func (l nopLogger) Warnf(string, ...any)         {}
func (l nopLogger) Warnln(...any)                {}
func (l nopLogger) Error(...any)                 {}
func (l nopLogger) Errorf(string, ...any)        {}
func (l nopLogger) Errorln(...any)               {}
