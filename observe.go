package geo38

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// clientMetrics holds prometheus metrics registered for the client.
type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geo38",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total client commands by verb and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geo38",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Client command round-trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("geo38: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("geo38: register metric: %w", err)
	}
	return nil
}

// observer logs and counts every dispatched command.
type observer struct {
	logger  *zap.Logger
	metrics *clientMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *clientMetrics
	if reg != nil {
		var err error
		m, err = newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

// observe records one command. Server errors count as "error" like
// transport failures; the kind is only logged.
func (o *observer) observe(op Verb, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(string(op), status).Inc()
		o.metrics.duration.WithLabelValues(string(op)).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		fields := []zap.Field{
			zap.String("op", string(op)),
			zap.Duration("duration", dur),
			zap.Error(err),
		}
		var se *ServerError
		if errors.As(err, &se) {
			fields = append(fields, zap.Stringer("kind", se.Kind))
		}
		o.logger.Warn("command failed", fields...)
		return
	}
	o.logger.Debug("command completed",
		zap.String("op", string(op)),
		zap.Duration("duration", dur),
	)
}
