// Package telemetry exports condense spans and metrics over OTLP.
//
// Export is off by default. When it is off, or an exporter cannot be
// built, Tracer and Meter return the global no-op providers, so the
// compression strategies instrument unconditionally. TestTelemetry keeps
// spans and metrics in memory for assertions.
package telemetry
