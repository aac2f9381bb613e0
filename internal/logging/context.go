// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if queryID := QueryIDFromContext(ctx); queryID != "" {
		fields = append(fields, zap.String("query.id", queryID))
	}
	if strategy := StrategyFromContext(ctx); strategy != "" {
		fields = append(fields, zap.String("strategy", strategy))
	}
	if batchID := BatchIDFromContext(ctx); batchID != "" {
		fields = append(fields, zap.String("batch.id", batchID))
	}

	return fields
}

type queryCtxKey struct{}
type strategyCtxKey struct{}
type batchCtxKey struct{}
type loggerCtxKey struct{}

// WithQueryID tags the context with the identifier of the query being compressed.
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryCtxKey{}, queryID)
}

// QueryIDFromContext extracts the query ID from context.
func QueryIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(queryCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithStrategy tags the context with the compression strategy name.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	return context.WithValue(ctx, strategyCtxKey{}, strategy)
}

// StrategyFromContext extracts the strategy name from context.
func StrategyFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(strategyCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithBatchID tags the context with the batch identifier of one Process call.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchCtxKey{}, batchID)
}

// BatchIDFromContext extracts the batch ID from context.
func BatchIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(batchCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
