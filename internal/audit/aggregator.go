package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Aggregator reduces metric time series to a single average.
type Aggregator struct {
	provider MetricsProvider
	logger   *slog.Logger
	now      func() time.Time
}

// NewAggregator creates an aggregator over the given metrics provider.
func NewAggregator(provider MetricsProvider, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{provider: provider, logger: logger, now: time.Now}
}

// Average returns the mean of the daily averages over the lookback window.
// Missing data and provider errors both yield 0.
func (a *Aggregator) Average(ctx context.Context, namespace, metricName string, dims []Dimension, lookbackDays int) float64 {
	return a.Sample(ctx, namespace, metricName, dims, lookbackDays).Value
}

// Sample is Average with the window and datapoint count attached.
func (a *Aggregator) Sample(ctx context.Context, namespace, metricName string, dims []Dimension, lookbackDays int) MetricSample {
	end := a.now().UTC()
	sample := MetricSample{
		Namespace:  namespace,
		MetricName: metricName,
		Start:      end.AddDate(0, 0, -lookbackDays),
		End:        end,
	}

	values, err := a.provider.GetAverages(ctx, namespace, metricName, dims, lookbackDays)
	if err != nil {
		perr := &ProviderError{Op: "get metric " + namespace + "/" + metricName, Err: err}
		a.logger.Warn("Failed to fetch metric", "namespace", namespace, "metric", metricName,
			"dimensions", dimensionString(dims), "error", perr)
		return sample
	}
	if len(values) == 0 {
		return sample
	}

	var total float64
	for _, v := range values {
		total += v
	}
	sample.Value = total / float64(len(values))
	sample.Datapoints = len(values)
	return sample
}

func dimensionString(dims []Dimension) string {
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		parts = append(parts, d.Name+"="+d.Value)
	}
	return strings.Join(parts, ",")
}
