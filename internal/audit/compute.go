package audit

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ComputeCheck detects running EC2 instances with low CPU and network usage.
type ComputeCheck struct {
	inventory Inventory
	metrics   *Aggregator
	cfg       CheckConfig
	logger    *slog.Logger
}

// NewComputeCheck creates the compute check.
func NewComputeCheck(inv Inventory, metrics *Aggregator, cfg CheckConfig, logger *slog.Logger) *ComputeCheck {
	return &ComputeCheck{inventory: inv, metrics: metrics, cfg: cfg, logger: orDefault(logger)}
}

// Category returns CategoryCompute.
func (c *ComputeCheck) Category() Category {
	return CategoryCompute
}

// Run lists running instances and returns the underutilized ones.
func (c *ComputeCheck) Run(ctx context.Context) ([]Finding, error) {
	c.logger.Info("Checking underutilized EC2 instances")

	instances, err := c.inventory.ListRunningCompute(ctx)
	if err != nil {
		return nil, &ProviderError{Op: "list running instances", Category: CategoryCompute, Err: err}
	}

	var candidates []ResourceRecord
	for _, inst := range instances {
		if c.cfg.IgnoreTag.Matches(inst.Tags) {
			c.logger.Debug("Skipping opted-out instance", "instance", inst.ID)
			continue
		}
		if c.cfg.Exclude.ShouldExclude(inst.ID, inst.Tags) {
			continue
		}
		candidates = append(candidates, inst)
	}

	// Indexed by candidate position so output order follows inventory order.
	results := make([]*Finding, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.metricConcurrency())

	for i, inst := range candidates {
		g.Go(func() error {
			results[i] = c.evaluate(ctx, inst)
			return nil
		})
	}
	_ = g.Wait()

	var findings []Finding
	for _, f := range results {
		if f != nil {
			findings = append(findings, *f)
		}
	}
	return findings, nil
}

func (c *ComputeCheck) evaluate(ctx context.Context, inst ResourceRecord) *Finding {
	dims := []Dimension{{Name: "InstanceId", Value: inst.ID}}
	days := c.cfg.LookbackDays

	cpu := c.metrics.Average(ctx, "AWS/EC2", "CPUUtilization", dims, days)
	netIn := c.metrics.Average(ctx, "AWS/EC2", "NetworkIn", dims, days)
	netOut := c.metrics.Average(ctx, "AWS/EC2", "NetworkOut", dims, days)

	if !computeUnderutilized(cpu, netIn, netOut, c.cfg.Thresholds) {
		return nil
	}

	return &Finding{
		Category:   CategoryCompute,
		ResourceID: inst.ID,
		Name:       inst.Name(),
		Class:      inst.Class,
		Reason: fmt.Sprintf("CPU %.2f%% < %g%%, network in %.0f and out %.0f < %g over %d days",
			cpu, c.cfg.ComputeCPU, netIn, netOut, c.cfg.Network, days),
		AvgCPU:     round2(cpu),
		NetworkIn:  netIn,
		NetworkOut: netOut,
		Tags:       copyTags(inst.Tags),
	}
}

// computeUnderutilized requires all three signals to be strictly below their limits.
func computeUnderutilized(cpu, netIn, netOut float64, t Thresholds) bool {
	return cpu < t.ComputeCPU && netIn < t.Network && netOut < t.Network
}
