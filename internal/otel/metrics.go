package otel

import "go.opentelemetry.io/otel/metric"

// Metrics holds all forja metric instruments.
type Metrics struct {
	EventsPublished metric.Int64Counter
	StreamClients   metric.Int64UpDownCounter
	FramesDropped   metric.Int64Counter
	SparkDuration   metric.Float64Histogram
	SparksStarted   metric.Int64Counter
	RegistryScans   metric.Int64Counter
}

// NewMetrics creates all metric instruments from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.EventsPublished, err = meter.Int64Counter("forja.monitor.events",
		metric.WithDescription("Dashboard events published to the bus"),
	)
	if err != nil {
		return nil, err
	}

	m.StreamClients, err = meter.Int64UpDownCounter("forja.monitor.clients",
		metric.WithDescription("Connected dashboard stream clients"),
	)
	if err != nil {
		return nil, err
	}

	m.FramesDropped, err = meter.Int64Counter("forja.monitor.frames_dropped",
		metric.WithDescription("Stream frames dropped as malformed"),
	)
	if err != nil {
		return nil, err
	}

	m.SparkDuration, err = meter.Float64Histogram("forja.spark.duration",
		metric.WithDescription("Spark run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.SparksStarted, err = meter.Int64Counter("forja.spark.started",
		metric.WithDescription("Spark runs started"),
	)
	if err != nil {
		return nil, err
	}

	m.RegistryScans, err = meter.Int64Counter("forja.registry.scans",
		metric.WithDescription("Registry catalog scans"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
