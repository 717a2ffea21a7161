package audit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const recommendations = `
 *Recommendations:*
• Review and potentially terminate unused instances
• Consider downsizing underutilized resources
• Delete old snapshots after verification
• Attach or delete unattached volumes
`

// Composer renders findings and savings into a single report.
type Composer struct {
	snapshotAgeDays int
	now             func() time.Time
}

// NewComposer creates a composer. snapshotAgeDays is quoted in the snapshot section header.
func NewComposer(snapshotAgeDays int) *Composer {
	return &Composer{snapshotAgeDays: snapshotAgeDays, now: time.Now}
}

// Compose builds the report. When every list is empty it returns the
// no-findings sentinel (Empty set, no message).
func (c *Composer) Compose(compute, database, snapshot, volume []Finding, est SavingsEstimate) Report {
	r := Report{
		Compute:     compute,
		Database:    database,
		Snapshot:    snapshot,
		Volume:      volume,
		Savings:     est,
		GeneratedAt: c.now().UTC(),
	}
	if len(compute) == 0 && len(database) == 0 && len(snapshot) == 0 && len(volume) == 0 {
		r.Empty = true
		return r
	}

	r.Subject = "AWS Cost Optimization Report - Potential Savings: $" + formatNumber(est.Total)
	r.Message = c.render(r)
	return r
}

func (c *Composer) render(r Report) string {
	var b strings.Builder

	b.WriteString("*AWS Cost Optimization Report*\n")
	fmt.Fprintf(&b, "Estimated Monthly Savings: $%s\n\n", formatNumber(r.Savings.Total))

	if len(r.Compute) > 0 {
		fmt.Fprintf(&b, "underutilized EC2 Instances ($%s/month):\n", formatNumber(r.Savings.Compute))
		for _, f := range r.Compute {
			fmt.Fprintf(&b, " - %s (%s): %s, Avg CPU = %s%%\n", f.ResourceID, f.DisplayName(), f.Class, formatNumber(f.AvgCPU))
		}
		b.WriteString("\n")
	}

	if len(r.Database) > 0 {
		fmt.Fprintf(&b, "Underutilized RDS Instances ($%s/month):\n", formatNumber(r.Savings.Database))
		for _, f := range r.Database {
			fmt.Fprintf(&b, " - %s: %s, Avg CPU = %s%%\n", f.ResourceID, f.Class, formatNumber(f.AvgCPU))
		}
		b.WriteString("\n")
	}

	if len(r.Volume) > 0 {
		fmt.Fprintf(&b, "Unattached EBS Volumes ($%s/month):\n", formatNumber(r.Savings.Storage))
		for _, f := range r.Volume {
			fmt.Fprintf(&b, " - %s (%s): %dGB\n", f.ResourceID, f.DisplayName(), f.SizeGiB)
		}
		b.WriteString("\n")
	}

	if len(r.Snapshot) > 0 {
		fmt.Fprintf(&b, "Old EBS Snapshots (>%d days):\n", c.snapshotAgeDays)
		for _, f := range r.Snapshot {
			fmt.Fprintf(&b, " - %s (%s): %d days old, %dGB\n", f.ResourceID, f.DisplayName(), f.AgeDays, f.SizeGiB)
		}
	}

	b.WriteString(recommendations)
	return b.String()
}

// formatNumber prints v in its shortest decimal form: 7.5, 3, 12.25.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
