package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SnapshotCheck detects self-owned EBS snapshots older than the retention threshold.
type SnapshotCheck struct {
	inventory Inventory
	cfg       CheckConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewSnapshotCheck creates the snapshot check.
func NewSnapshotCheck(inv Inventory, cfg CheckConfig, logger *slog.Logger) *SnapshotCheck {
	return &SnapshotCheck{inventory: inv, cfg: cfg, logger: orDefault(logger), now: time.Now}
}

// Category returns CategorySnapshot.
func (c *SnapshotCheck) Category() Category {
	return CategorySnapshot
}

// Run lists owned snapshots and returns the stale ones.
func (c *SnapshotCheck) Run(ctx context.Context) ([]Finding, error) {
	c.logger.Info("Checking old EBS snapshots")

	snapshots, err := c.inventory.ListOwnedSnapshots(ctx)
	if err != nil {
		return nil, &ProviderError{Op: "list owned snapshots", Category: CategorySnapshot, Err: err}
	}

	now := c.now().UTC()
	var findings []Finding
	for _, snap := range snapshots {
		if hasAnyKey(snap.Tags, c.cfg.KeepTags) {
			continue
		}
		if c.cfg.Exclude.ShouldExclude(snap.ID, snap.Tags) {
			continue
		}
		if snap.CreatedAt.IsZero() {
			continue
		}

		age := ageDays(now, snap.CreatedAt)
		if age <= c.cfg.SnapshotAgeDays {
			continue
		}

		findings = append(findings, Finding{
			Category:   CategorySnapshot,
			ResourceID: snap.ID,
			Name:       snap.Name(),
			Reason:     fmt.Sprintf("%d days old > %d days", age, c.cfg.SnapshotAgeDays),
			AgeDays:    age,
			SizeGiB:    snap.SizeGiB,
			Tags:       copyTags(snap.Tags),
		})
	}
	return findings, nil
}

// ageDays returns the number of whole days between created and now, compared in UTC.
func ageDays(now, created time.Time) int {
	return int(now.UTC().Sub(created.UTC()).Hours() / 24)
}
