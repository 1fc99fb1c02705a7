package ygggo_mysql_pool

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var defaultMeter = otel.Meter(instrumentationName)

// poolMetrics holds the metric instruments for one manager.
type poolMetrics struct {
	connectionsCreated   metric.Int64Counter
	connectionsReused    metric.Int64Counter
	connectionsDiscarded metric.Int64Counter
	leasesActive         metric.Int64UpDownCounter
	leaseDuration        metric.Float64Histogram
}

// EnableMetrics enables or disables metrics collection for this manager.
func (m *PoolManager) EnableMetrics(enabled bool) {
	if m == nil {
		return
	}
	m.metricsEnabled = enabled
	if enabled && m.metrics == nil {
		m.initMetrics()
	}
}

// SetMeterProvider sets a custom meter provider for metrics.
func (m *PoolManager) SetMeterProvider(provider metric.MeterProvider) {
	if m == nil {
		return
	}
	m.meterProvider = provider
	if m.metricsEnabled {
		m.initMetrics()
	}
}

func (m *PoolManager) initMetrics() {
	meter := defaultMeter
	if m.meterProvider != nil {
		meter = m.meterProvider.Meter(instrumentationName)
	}

	pm := &poolMetrics{}
	pm.connectionsCreated, _ = meter.Int64Counter(
		"ygggo_mysql_pool_connections_created_total",
		metric.WithDescription("Connections opened by the factory"),
	)
	pm.connectionsReused, _ = meter.Int64Counter(
		"ygggo_mysql_pool_connections_reused_total",
		metric.WithDescription("Healthy connections handed out from an idle queue"),
	)
	pm.connectionsDiscarded, _ = meter.Int64Counter(
		"ygggo_mysql_pool_connections_discarded_total",
		metric.WithDescription("Connections closed instead of recycled"),
	)
	pm.leasesActive, _ = meter.Int64UpDownCounter(
		"ygggo_mysql_pool_leases_active",
		metric.WithDescription("Currently active leases"),
	)
	pm.leaseDuration, _ = meter.Float64Histogram(
		"ygggo_mysql_pool_lease_duration_ms",
		metric.WithDescription("Time a lease held its connection"),
	)
	m.metrics = pm
}

func targetAttrs(key TargetKey) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("pool.target", key.String()))
}

func (m *PoolManager) onConnCreated(key TargetKey) {
	if m == nil || !m.metricsEnabled || m.metrics == nil {
		return
	}
	m.metrics.connectionsCreated.Add(context.Background(), 1, targetAttrs(key))
}

func (m *PoolManager) onConnReused(key TargetKey) {
	if m == nil || !m.metricsEnabled || m.metrics == nil {
		return
	}
	m.metrics.connectionsReused.Add(context.Background(), 1, targetAttrs(key))
}

func (m *PoolManager) onConnDiscarded(key TargetKey, reason string) {
	if m == nil || !m.metricsEnabled || m.metrics == nil {
		return
	}
	m.metrics.connectionsDiscarded.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("pool.target", key.String()),
		attribute.String("pool.discard_reason", reason),
	))
}

func (m *PoolManager) onLeaseStart(key TargetKey) {
	if m == nil || !m.metricsEnabled || m.metrics == nil {
		return
	}
	m.metrics.leasesActive.Add(context.Background(), 1, targetAttrs(key))
}

func (m *PoolManager) onLeaseEnd(key TargetKey, outcome ReleaseOutcome, held time.Duration) {
	if m == nil || !m.metricsEnabled || m.metrics == nil {
		return
	}
	ctx := context.Background()
	m.metrics.leasesActive.Add(ctx, -1, targetAttrs(key))
	m.metrics.leaseDuration.Record(ctx, float64(held.Nanoseconds())/1e6, metric.WithAttributes(
		attribute.String("pool.target", key.String()),
		attribute.String("pool.outcome", outcome.String()),
	))
}
