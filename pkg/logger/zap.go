package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a *zap.SugaredLogger to the Logger interface, used
// for --log-format=json (structured, machine-parseable logs) instead
// of the plain-text defaultLogger.
type zapLogger struct {
	sugar  *zap.SugaredLogger
	atom   zap.AtomicLevel
	prefix string
}

// NewZap builds a Logger backed by zap's JSON encoder, writing to
// opts.Output at opts.Level. Timestamps follow opts.ShowTimestamp the
// same way New's plain-text logger does. The level is an AtomicLevel
// so SetLevel takes effect on the already-built core.
func NewZap(opts Options) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	if !opts.ShowTimestamp {
		encoderCfg.TimeKey = ""
	}
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	atom := zap.NewAtomicLevelAt(zapLevelFor(opts.Level))
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(opts.Output),
		atom,
	)

	return &zapLogger{
		sugar:  zap.New(core).Sugar(),
		atom:   atom,
		prefix: opts.Prefix,
	}
}

func zapLevelFor(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) logf(level Level, format string, args ...interface{}) {
	msg := format
	if l.prefix != "" {
		msg = l.prefix + msg
	}
	switch level {
	case LevelDebug:
		l.sugar.Debugf(msg, args...)
	case LevelWarn:
		l.sugar.Warnf(msg, args...)
	case LevelError:
		l.sugar.Errorf(msg, args...)
	default:
		l.sugar.Infof(msg, args...)
	}
}

func (l *zapLogger) Debug(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }
func (l *zapLogger) Info(format string, args ...interface{})  { l.logf(LevelInfo, format, args...) }
func (l *zapLogger) Warn(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *zapLogger) Error(format string, args ...interface{}) { l.logf(LevelError, format, args...) }

func (l *zapLogger) WithPrefix(prefix string) Logger {
	return &zapLogger{sugar: l.sugar, atom: l.atom, prefix: l.prefix + prefix}
}

func (l *zapLogger) SetLevel(level Level) {
	l.atom.SetLevel(zapLevelFor(level))
}
