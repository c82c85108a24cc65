package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap logger to Logger.
type ZapLogger struct {
	z *zap.Logger
}

// NewZapLogger builds a logger writing to stderr. level is one of debug,
// info, warn or error; encoding is "json" or "console".
func NewZapLogger(level, encoding string) (*ZapLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if encoding == "" {
		encoding = "console"
	}
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapLogger{z: z}, nil
}

// WrapZap adapts an existing zap logger.
func WrapZap(z *zap.Logger) *ZapLogger { return &ZapLogger{z: z} }

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZapFields(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZapFields(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZapFields(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZapFields(fields)...) }

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{z: l.z.With(toZapFields(fields)...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error { return l.z.Sync() }

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value().(type) {
		case string:
			out[i] = zap.String(f.Key(), v)
		case int:
			out[i] = zap.Int(f.Key(), v)
		case int64:
			out[i] = zap.Int64(f.Key(), v)
		case float64:
			out[i] = zap.Float64(f.Key(), v)
		case error:
			out[i] = zap.NamedError(f.Key(), v)
		default:
			out[i] = zap.Any(f.Key(), v)
		}
	}
	return out
}
