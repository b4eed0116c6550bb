package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/lightpivot/pkg/domain"
)

// Metrics records navigation steps as Prometheus series.
type Metrics struct {
	Steps         *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lightpivot",
			Name:      "steps_total",
			Help:      "Navigation steps by kind and outcome.",
		}, []string{"step", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lightpivot",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of data source fetches.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lightpivot",
			Name:      "fetch_errors_total",
			Help:      "Data source fetches that returned an error.",
		}, []string{"step"}),
	}
	if reg != nil {
		reg.MustRegister(m.Steps, m.FetchDuration, m.FetchErrors)
	}
	return m
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	outcome := func(_ context.Context, e *domain.StepEvent) {
		m.Steps.WithLabelValues(string(e.Step), e.Outcome.String()).Inc()
	}
	return domain.LifecycleHooks{
		OnFetch: func(_ context.Context, e *domain.StepEvent) {
			m.FetchDuration.WithLabelValues(string(e.Step)).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.FetchErrors.WithLabelValues(string(e.Step)).Inc()
			}
		},
		OnCommit:   outcome,
		OnRollback: outcome,
	}
}

// ComposeHooks returns hooks that call every non-nil callback of hooks, in order.
func ComposeHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var fetch, commit, rollback []func(context.Context, *domain.StepEvent)
	for _, h := range hooks {
		if h.OnFetch != nil {
			fetch = append(fetch, h.OnFetch)
		}
		if h.OnCommit != nil {
			commit = append(commit, h.OnCommit)
		}
		if h.OnRollback != nil {
			rollback = append(rollback, h.OnRollback)
		}
	}
	return domain.LifecycleHooks{
		OnFetch:    chain(fetch),
		OnCommit:   chain(commit),
		OnRollback: chain(rollback),
	}
}

func chain(fns []func(context.Context, *domain.StepEvent)) func(context.Context, *domain.StepEvent) {
	switch len(fns) {
	case 0:
		return nil
	case 1:
		return fns[0]
	}
	return func(ctx context.Context, e *domain.StepEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}
