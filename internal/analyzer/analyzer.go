package analyzer

import (
	"github.com/ppiankov/costspectre/internal/audit"
)

// Analyze computes summary statistics for a report. errs are the check
// failures of the run that produced it.
func Analyze(rep *audit.Report, errs []string) Summary {
	summary := Summary{
		ByCategory:        make(map[string]int, len(audit.Categories)),
		SavingsByCategory: make(map[string]float64, 3),
		Errors:            errs,
	}
	if rep == nil {
		return summary
	}

	for _, c := range audit.Categories {
		n := len(rep.Findings(c))
		summary.ByCategory[string(c)] = n
		summary.TotalFindings += n
	}

	summary.EstimatedMonthlySavings = rep.Savings.Total
	summary.SavingsByCategory[string(audit.CategoryCompute)] = rep.Savings.Compute
	summary.SavingsByCategory[string(audit.CategoryDatabase)] = rep.Savings.Database
	summary.SavingsByCategory[string(audit.CategoryVolume)] = rep.Savings.Storage

	for _, f := range rep.Volume {
		summary.UnattachedGiB += f.SizeGiB
	}
	for _, f := range rep.Snapshot {
		summary.SnapshotGiB += f.SizeGiB
		if f.AgeDays > summary.OldestSnapshotDays {
			summary.OldestSnapshotDays = f.AgeDays
		}
	}

	return summary
}
