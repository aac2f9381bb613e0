// Package logging provides structured logging for condense.
//
// Logging wraps Zap with:
//   - a custom Trace level (-2, below Debug)
//   - stdout or stderr output plus optional OpenTelemetry output (otelzap bridge)
//   - automatic context field injection (trace_id, query.id, strategy, batch.id)
//   - secret redaction at the encoder level
//   - level-aware sampling (errors are never sampled)
//
// # Usage
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithStrategy(ctx, "fact_centric")
//	ctx = logging.WithBatchID(ctx, batchID)
//	logger.Info(ctx, "batch processed", zap.Int("facts", n))
//
// # Testing
//
// Use TestLogger for assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Warn(ctx, "malformed completion response")
//	tl.AssertLogged(t, zapcore.WarnLevel, "malformed")
package logging
