package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/partsignal/content-audit/internal/progress"
)

// PrometheusSink exports pipeline progress as Prometheus series: sessions
// started/failed, resolution settlements by status, audits by outcome.
type PrometheusSink struct {
	sessionsStarted prometheus.Counter
	sessionsFailed  prometheus.Counter
	resolutions     *prometheus.CounterVec
	audits          *prometheus.CounterVec
	auditDuration   *prometheus.HistogramVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_sessions_started_total",
			Help: "Total audit sessions started.",
		}),
		sessionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_sessions_failed_total",
			Help: "Total audit sessions that ended with a phase error.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_resolutions_total",
			Help: "URL resolution settlements partitioned by outcome.",
		}, []string{"outcome"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_targets_total",
			Help: "Audit completions partitioned by outcome.",
		}, []string{"outcome"}),
		auditDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audit_target_duration_seconds",
			Help:    "Wall time per audited target.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		}, []string{"outcome"}),
	}
	for _, collector := range []prometheus.Collector{
		s.sessionsStarted,
		s.sessionsFailed,
		s.resolutions,
		s.audits,
		s.auditDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageSessionStart:
			s.sessionsStarted.Inc()
		case progress.StageSessionError:
			s.sessionsFailed.Inc()
		case progress.StageResolveDone:
			s.resolutions.WithLabelValues(outcome(evt)).Inc()
		case progress.StageAuditDone:
			label := outcome(evt)
			s.audits.WithLabelValues(label).Inc()
			if evt.Dur > 0 {
				s.auditDuration.WithLabelValues(label).Observe(evt.Dur.Seconds())
			}
		}
	}
	return nil
}

func outcome(evt progress.Event) string {
	if evt.Note == "" {
		return "ok"
	}
	return evt.Note
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
