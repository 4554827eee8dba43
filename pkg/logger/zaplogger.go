package logger

import (
	"io"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15-04-05.000"

// callerSkip reaches the caller of a level method from write.
const callerSkip = 3

type Logger struct {
	appZone   string
	appName   string
	component string
	l         *zap.Logger
}

// NewZapLogger builds a JSON logger that fans out to every writer, or to
// stdout when none is given.
func NewZapLogger(appName string, writers ...io.Writer) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = timeEncoder(timeLayout, time.UTC)
	cfg.TimeKey = "timestamp"

	syncers := []zapcore.WriteSyncer{os.Stdout}
	if len(writers) > 0 {
		syncers = syncers[:0]
		for _, w := range writers {
			syncers = append(syncers, zapcore.AddSync(w))
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg),
		zapcore.NewMultiWriteSyncer(syncers...),
		zapcore.DebugLevel,
	)

	return &Logger{
		appName: appName,
		l:       zap.New(core),
	}
}

// WithZone returns a copy of the logger tagging every line with the
// deployment zone (prod, dev, local).
func (l *Logger) WithZone(zone string) *Logger {
	cp := *l
	cp.appZone = zone
	return &cp
}

// Named returns a copy of the logger tagging every line with a component
// name such as "broker" or "orchestrator".
func (l *Logger) Named(component string) *Logger {
	cp := *l
	cp.component = component
	return &cp
}

func (l *Logger) Stop() error {
	return l.l.Sync()
}

func (l *Logger) Error(err error, fields ...map[string]any) {
	l.write(zapcore.ErrorLevel, err.Error(), fields,
		zap.String("error", err.Error()),
		zap.Stack("stack"),
	)
}

func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.write(zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warning(msg string, fields ...map[string]any) {
	l.write(zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.write(zapcore.DebugLevel, msg, fields)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...map[string]any) {
	l.write(zapcore.FatalLevel, msg, fields)
}

// Printf lets the logger stand in for the standard-library style loggers
// expected by cron and the MQTT client.
func (l *Logger) Printf(format string, args ...any) {
	l.l.Sugar().Debugf(format, args...)
}

// Println is the paho logger counterpart of Printf.
func (l *Logger) Println(args ...any) {
	l.l.Sugar().Debug(args...)
}

func (l *Logger) write(level zapcore.Level, msg string, fields []map[string]any, extra ...zap.Field) {
	ce := l.l.Check(level, msg)
	if ce == nil {
		return
	}

	file, line, funcName := callerOf(callerSkip)

	out := make([]zap.Field, 0, 6+len(extra))
	out = append(out,
		zap.String("app_zone", l.appZone),
		zap.String("app_name", l.appName),
	)
	if l.component != "" {
		out = append(out, zap.String("component", l.component))
	}
	out = append(out,
		zap.String("caller_file", file),
		zap.Int("caller_line", line),
		zap.String("caller_func", funcName),
	)
	out = append(out, extra...)
	if len(fields) > 0 {
		out = append(out, mapToZapFields(fields[0])...)
	}

	ce.Write(out...)
}

func mapToZapFields(data map[string]any) []zap.Field {
	zapFields := make([]zap.Field, 0, len(data))

	for k, v := range data {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	return zapFields
}

func callerOf(skip int) (file string, line int, funcName string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "not_defined", 0, "not_defined"
	}
	return file, line, runtime.FuncForPC(pc).Name()
}

func timeEncoder(layout string, location *time.Location) func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(location).Format(layout))
	}
}
