package compression

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	batches    metric.Int64Counter
	chunks     metric.Int64Counter
	itemsAdded metric.Int64Counter
	duration   metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)

	m.batches, err = meter.Int64Counter(
		"compression.batches_total",
		metric.WithDescription("Process calls by strategy and outcome"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("batches counter: %w", err)
	}

	m.chunks, err = meter.Int64Counter(
		"compression.chunks_stored_total",
		metric.WithDescription("Chunks written to chunk stores"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, fmt.Errorf("chunks counter: %w", err)
	}

	m.itemsAdded, err = meter.Int64Counter(
		"compression.kb_items_added_total",
		metric.WithDescription("Knowledge base items added"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, fmt.Errorf("items counter: %w", err)
	}

	m.duration, err = meter.Float64Histogram(
		"compression.process_duration_seconds",
		metric.WithDescription("Duration of Process calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, fmt.Errorf("duration histogram: %w", err)
	}

	return &m, nil
}

func (m *metrics) record(ctx context.Context, kind Kind, outcome string, r *BatchReport) {
	strategy := attribute.String("strategy", string(kind))

	m.batches.Add(ctx, 1, metric.WithAttributes(strategy, attribute.String("outcome", outcome)))
	if r.ChunksStored > 0 {
		m.chunks.Add(ctx, int64(r.ChunksStored), metric.WithAttributes(strategy))
	}
	if r.ItemsAdded > 0 {
		m.itemsAdded.Add(ctx, int64(r.ItemsAdded), metric.WithAttributes(strategy))
	}
	m.duration.Record(ctx, r.Duration.Seconds(), metric.WithAttributes(strategy))
}
