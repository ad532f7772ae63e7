package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/dona/pkg/domain"
	"github.com/aretw0/dona/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the collectors recorded by the metrics middleware.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

// NewMetrics creates the repository collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dona_repository_operations_total",
				Help: "Total number of task repository operations",
			},
			[]string{"op", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dona_repository_operation_duration_seconds",
				Help:    "Duration of task repository operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Operations, m.Duration)
	}
	return m
}

type metricsMiddleware struct {
	next    ports.TaskRepository
	metrics *Metrics
}

// NewMetricsMiddleware records a counter and a latency histogram per operation.
func NewMetricsMiddleware(metrics *Metrics) Middleware {
	return func(next ports.TaskRepository) ports.TaskRepository {
		return &metricsMiddleware{next: next, metrics: metrics}
	}
}

func (m *metricsMiddleware) observe(op string, start time.Time, err error) {
	outcome := OutcomeOK
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		outcome = OutcomeNotFound
	case err != nil:
		outcome = OutcomeError
	}
	m.metrics.Operations.WithLabelValues(op, outcome).Inc()
	m.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsMiddleware) Save(ctx context.Context, task domain.Task) error {
	start := time.Now()
	err := m.next.Save(ctx, task)
	m.observe("save", start, err)
	return err
}

func (m *metricsMiddleware) Get(ctx context.Context, id domain.TaskID) (domain.Task, error) {
	start := time.Now()
	task, err := m.next.Get(ctx, id)
	m.observe("get", start, err)
	return task, err
}

func (m *metricsMiddleware) Delete(ctx context.Context, id domain.TaskID) error {
	start := time.Now()
	err := m.next.Delete(ctx, id)
	m.observe("delete", start, err)
	return err
}

func (m *metricsMiddleware) List(ctx context.Context) ([]domain.Task, error) {
	start := time.Now()
	tasks, err := m.next.List(ctx)
	m.observe("list", start, err)
	return tasks, err
}
