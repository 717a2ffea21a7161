package audit

import "log/slog"

// defaultMetricConcurrency bounds concurrent metric queries within a single check.
const defaultMetricConcurrency = 5

// Thresholds holds the classification limits shared by the checks.
type Thresholds struct {
	LookbackDays    int
	ComputeCPU      float64
	DatabaseCPU     float64
	Network         float64
	SnapshotAgeDays int
}

// CheckConfig controls check behavior.
type CheckConfig struct {
	Thresholds
	// IgnoreTag opts a compute instance out of auditing.
	IgnoreTag TagMatcher
	// KeepTags are tag keys whose presence protects a snapshot.
	KeepTags          []string
	Exclude           Exclude
	MetricConcurrency int
}

// DefaultCheckConfig returns the stock thresholds and tag rules.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{
		Thresholds: Thresholds{
			LookbackDays:    7,
			ComputeCPU:      10,
			DatabaseCPU:     10,
			Network:         1000,
			SnapshotAgeDays: 30,
		},
		IgnoreTag:         ParseTagMatcher("CostOptimization=Ignore"),
		KeepTags:          []string{"DoNotDelete", "Keep", "Backup"},
		MetricConcurrency: defaultMetricConcurrency,
	}
}

func (c CheckConfig) metricConcurrency() int {
	if c.MetricConcurrency <= 0 {
		return defaultMetricConcurrency
	}
	return c.MetricConcurrency
}

// NewChecks builds the four resource checks over a shared inventory and aggregator.
func NewChecks(inv Inventory, metrics *Aggregator, cfg CheckConfig, logger *slog.Logger) []Check {
	return []Check{
		NewComputeCheck(inv, metrics, cfg, logger),
		NewDatabaseCheck(inv, metrics, cfg, logger),
		NewSnapshotCheck(inv, cfg, logger),
		NewVolumeCheck(inv, cfg, logger),
	}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
