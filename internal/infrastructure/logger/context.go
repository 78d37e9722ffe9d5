package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	taskIDKey    contextKey = "task_id"
	providerKey  contextKey = "provider"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// WithRequestID tags the context with an HTTP request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTaskID tags the context with the id of the background task being run.
func WithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDKey, taskID)
}

// WithProvider tags the context with the logistics provider being talked to.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

func GetTaskID(ctx context.Context) string { return stringValue(ctx, taskIDKey) }

func GetProvider(ctx context.Context) string { return stringValue(ctx, providerKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID returns the trace id of the active span, if any.
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.HasTraceID() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span id of the active span, if any.
func GetSpanID(ctx context.Context) string {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if spanCtx.HasSpanID() {
		return spanCtx.SpanID().String()
	}
	return ""
}

// ContextLogger decorates every entry with the correlation fields found in ctx.
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
	fields []zap.Field
}

// L returns a ContextLogger backed by the logger stored in ctx.
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger returns a ContextLogger backed by log instead of the one in ctx.
func WithLogger(ctx context.Context, log *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: log}
}

func (cl *ContextLogger) enriched() *zap.Logger {
	base := cl.logger
	if base == nil {
		base = zap.NewNop()
	}

	fields := make([]zap.Field, 0, len(cl.fields)+5)
	if id := GetTraceID(cl.ctx); id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	if id := GetSpanID(cl.ctx); id != "" {
		fields = append(fields, zap.String("span_id", id))
	}
	if id := GetRequestID(cl.ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetTaskID(cl.ctx); id != "" {
		fields = append(fields, zap.String("task_id", id))
	}
	if p := GetProvider(cl.ctx); p != "" {
		fields = append(fields, zap.String("provider", p))
	}
	fields = append(fields, cl.fields...)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// With returns a copy carrying extra fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	merged := make([]zap.Field, 0, len(cl.fields)+len(fields))
	merged = append(merged, cl.fields...)
	merged = append(merged, fields...)
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger, fields: merged}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.enriched().Debug(msg, fields...) }

func (cl *ContextLogger) Info(msg string, fields ...zap.Field) { cl.enriched().Info(msg, fields...) }

func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) { cl.enriched().Warn(msg, fields...) }

func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.enriched().Error(msg, fields...) }

// Zap exposes the enriched underlying logger.
func (cl *ContextLogger) Zap() *zap.Logger { return cl.enriched() }
