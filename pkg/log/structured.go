package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/careerlink/portal-engine/pkg/requestid"
)

// StructuredLogger is a named logger used by the service layer to trace operations.
//
//	tracer := logger.WithContext(ctx).Operation("approve").WithUUID("record_id", id).Build()
//	tracer.Step("record_loaded").WithString("status", "under_review").Log()
//	tracer.Success().Log()
type StructuredLogger struct {
	name  string
	level zapcore.Level
}

func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name, level: zapcore.DebugLevel}
}

func NewInfoLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name, level: zapcore.InfoLevel}
}

type ContextLogger struct {
	parent    *StructuredLogger
	requestID string
}

func (l *StructuredLogger) WithContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{parent: l, requestID: requestid.FromContext(ctx)}
}

func (c *ContextLogger) Operation(name string) *FieldBuilder[*OperationTracer] {
	t := &OperationTracer{
		logger:    c,
		operation: name,
		started:   time.Now(),
	}
	return &FieldBuilder[*OperationTracer]{done: func(fields []zap.Field) *OperationTracer {
		t.fields = fields
		return t
	}}
}

// OperationTracer logs the steps and the outcome of a single service operation.
type OperationTracer struct {
	logger    *ContextLogger
	operation string
	started   time.Time
	fields    []zap.Field
}

func (t *OperationTracer) Step(name string) *FieldBuilder[*LogLine] {
	return t.line("step", name, t.logger.parent.level)
}

func (t *OperationTracer) Success() *FieldBuilder[*LogLine] {
	b := t.line("result", "success", t.logger.parent.level)
	return b.WithDuration("duration", time.Since(t.started))
}

func (t *OperationTracer) Warning(name string) *FieldBuilder[*LogLine] {
	return t.line("warning", name, zapcore.WarnLevel)
}

func (t *OperationTracer) Failure(err error) *FieldBuilder[*LogLine] {
	return t.line("result", "failure", zapcore.WarnLevel).WithError(err)
}

func (t *OperationTracer) line(kind, value string, level zapcore.Level) *FieldBuilder[*LogLine] {
	base := make([]zap.Field, 0, len(t.fields)+4)
	base = append(base,
		zap.String("operation", t.operation),
		zap.String(kind, value),
	)
	if t.logger.requestID != "" {
		base = append(base, zap.String("request_id", t.logger.requestID))
	}
	base = append(base, t.fields...)

	return &FieldBuilder[*LogLine]{
		fields: base,
		done: func(fields []zap.Field) *LogLine {
			return &LogLine{name: t.logger.parent.name, level: level, fields: fields}
		},
	}
}

type LogLine struct {
	name   string
	level  zapcore.Level
	fields []zap.Field
}

func (l *LogLine) write() {
	logger := zap.L().Named(l.name)
	if ce := logger.Check(l.level, "operation"); ce != nil {
		ce.Write(l.fields...)
	}
}

// FieldBuilder accumulates zap fields and hands them to its terminal function.
type FieldBuilder[T any] struct {
	fields []zap.Field
	done   func([]zap.Field) T
}

func (b *FieldBuilder[T]) WithString(key, value string) *FieldBuilder[T] {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *FieldBuilder[T]) WithStringPtr(key string, value *string) *FieldBuilder[T] {
	if value == nil {
		b.fields = append(b.fields, zap.Skip())
		return b
	}
	return b.WithString(key, *value)
}

func (b *FieldBuilder[T]) WithInt(key string, value int) *FieldBuilder[T] {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *FieldBuilder[T]) WithBool(key string, value bool) *FieldBuilder[T] {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

func (b *FieldBuilder[T]) WithUUID(key string, value uuid.UUID) *FieldBuilder[T] {
	b.fields = append(b.fields, zap.String(key, value.String()))
	return b
}

func (b *FieldBuilder[T]) WithUUIDPtr(key string, value *uuid.UUID) *FieldBuilder[T] {
	if value == nil {
		b.fields = append(b.fields, zap.Skip())
		return b
	}
	return b.WithUUID(key, *value)
}

func (b *FieldBuilder[T]) WithDuration(key string, value time.Duration) *FieldBuilder[T] {
	b.fields = append(b.fields, zap.Duration(key, value))
	return b
}

func (b *FieldBuilder[T]) WithError(err error) *FieldBuilder[T] {
	b.fields = append(b.fields, zap.Error(err))
	return b
}

func (b *FieldBuilder[T]) Build() T {
	return b.done(b.fields)
}

// Log is a shortcut for Build().write() on log lines.
func (b *FieldBuilder[T]) Log() {
	if line, ok := any(b.Build()).(*LogLine); ok {
		line.write()
	}
}
