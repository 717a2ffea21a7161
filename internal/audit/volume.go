package audit

import (
	"context"
	"log/slog"
)

// VolumeCheck reports every unattached EBS volume.
type VolumeCheck struct {
	inventory Inventory
	cfg       CheckConfig
	logger    *slog.Logger
}

// NewVolumeCheck creates the volume check.
func NewVolumeCheck(inv Inventory, cfg CheckConfig, logger *slog.Logger) *VolumeCheck {
	return &VolumeCheck{inventory: inv, cfg: cfg, logger: orDefault(logger)}
}

// Category returns CategoryVolume.
func (c *VolumeCheck) Category() Category {
	return CategoryVolume
}

// Run lists volumes in the "available" state.
func (c *VolumeCheck) Run(ctx context.Context) ([]Finding, error) {
	c.logger.Info("Checking unattached EBS volumes")

	volumes, err := c.inventory.ListVolumesByState(ctx, VolumeStateAvailable)
	if err != nil {
		return nil, &ProviderError{Op: "list unattached volumes", Category: CategoryVolume, Err: err}
	}

	var findings []Finding
	for _, vol := range volumes {
		if c.cfg.Exclude.ShouldExclude(vol.ID, vol.Tags) {
			continue
		}
		findings = append(findings, Finding{
			Category:   CategoryVolume,
			ResourceID: vol.ID,
			Name:       vol.Name(),
			Class:      vol.Class,
			Reason:     "not attached to any instance",
			SizeGiB:    vol.SizeGiB,
			Tags:       copyTags(vol.Tags),
		})
	}
	return findings, nil
}
