package audit

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DatabaseCheck detects available RDS instances with low CPU.
type DatabaseCheck struct {
	inventory Inventory
	metrics   *Aggregator
	cfg       CheckConfig
	logger    *slog.Logger
}

// NewDatabaseCheck creates the database check.
func NewDatabaseCheck(inv Inventory, metrics *Aggregator, cfg CheckConfig, logger *slog.Logger) *DatabaseCheck {
	return &DatabaseCheck{inventory: inv, metrics: metrics, cfg: cfg, logger: orDefault(logger)}
}

// Category returns CategoryDatabase.
func (c *DatabaseCheck) Category() Category {
	return CategoryDatabase
}

// Run lists DB instances and returns the underutilized ones.
func (c *DatabaseCheck) Run(ctx context.Context) ([]Finding, error) {
	c.logger.Info("Checking underutilized RDS instances")

	instances, err := c.inventory.ListDatabases(ctx)
	if err != nil {
		return nil, &ProviderError{Op: "list DB instances", Category: CategoryDatabase, Err: err}
	}

	var candidates []ResourceRecord
	for _, db := range instances {
		if db.State != DatabaseStatusAvailable {
			continue
		}
		if c.cfg.Exclude.ShouldExclude(db.ID, db.Tags) {
			continue
		}
		candidates = append(candidates, db)
	}

	results := make([]*Finding, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.metricConcurrency())

	for i, db := range candidates {
		g.Go(func() error {
			cpu := c.metrics.Average(ctx, "AWS/RDS", "CPUUtilization",
				[]Dimension{{Name: "DBInstanceIdentifier", Value: db.ID}}, c.cfg.LookbackDays)
			if !databaseUnderutilized(cpu, c.cfg.Thresholds) {
				return nil
			}
			results[i] = &Finding{
				Category:   CategoryDatabase,
				ResourceID: db.ID,
				Name:       db.Name(),
				Class:      db.Class,
				Reason:     fmt.Sprintf("CPU %.2f%% < %g%% over %d days", cpu, c.cfg.DatabaseCPU, c.cfg.LookbackDays),
				AvgCPU:     round2(cpu),
				Tags:       copyTags(db.Tags),
			}
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

func databaseUnderutilized(cpu float64, t Thresholds) bool {
	return cpu < t.DatabaseCPU
}
