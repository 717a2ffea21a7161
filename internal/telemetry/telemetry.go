// Package telemetry exports run results as Prometheus metrics.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ppiankov/costspectre/internal/audit"
)

const (
	namespace = "costspectre"
	jobName   = "costspectre"
)

// Recorder holds the gauges describing the latest audit run.
type Recorder struct {
	registry *prometheus.Registry

	findings       *prometheus.GaugeVec
	savings        prometheus.Gauge
	lastSuccess    prometheus.Gauge
	lastRun        prometheus.Gauge
	checkErrors    prometheus.Gauge
	notified       prometheus.Gauge
	runsTotal      *prometheus.CounterVec
	region         string
	pushgatewayURL string
}

// NewRecorder creates a recorder with its own registry. region is attached as a grouping label on push.
func NewRecorder(region, pushgatewayURL string) *Recorder {
	r := &Recorder{
		registry:       prometheus.NewRegistry(),
		region:         region,
		pushgatewayURL: pushgatewayURL,
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "findings",
			Help:      "Underutilized resources found in the last run, by category.",
		}, []string{"category"}),
		savings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "estimated_monthly_savings_dollars",
			Help:      "Estimated monthly savings from the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run completed, 0 if it failed.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		checkErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "check_errors",
			Help:      "Checks that failed in the last run.",
		}),
		notified: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_notified",
			Help:      "1 if the last report was delivered.",
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Audit runs by final status.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(r.findings, r.savings, r.lastSuccess, r.lastRun, r.checkErrors, r.notified, r.runsTotal)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records a finished run.
func (r *Recorder) Observe(s audit.RunSummary) {
	counts := map[audit.Category]int{
		audit.CategoryCompute:  s.Counts.Compute,
		audit.CategoryDatabase: s.Counts.Database,
		audit.CategorySnapshot: s.Counts.Snapshot,
		audit.CategoryVolume:   s.Counts.Volume,
	}
	for _, c := range audit.Categories {
		r.findings.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
	r.savings.Set(s.TotalSavings)
	r.checkErrors.Set(float64(len(s.Errors)))
	r.lastSuccess.Set(boolGauge(s.Status == audit.StateCompleted))
	r.notified.Set(boolGauge(s.Notified))
	r.lastRun.Set(float64(s.FinishedAt.Unix()))
	r.runsTotal.WithLabelValues(string(s.Status)).Inc()
}

// Push sends the current values to the Pushgateway. It is a no-op without a URL.
func (r *Recorder) Push(ctx context.Context) error {
	if r.pushgatewayURL == "" {
		return nil
	}
	pusher := push.New(r.pushgatewayURL, jobName).Gatherer(r.registry)
	if r.region != "" {
		pusher = pusher.Grouping("region", r.region)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", r.pushgatewayURL, err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
