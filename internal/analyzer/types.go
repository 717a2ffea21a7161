package analyzer

// Summary holds aggregated statistics about a composed report.
type Summary struct {
	TotalFindings           int                `json:"total_findings"`
	EstimatedMonthlySavings float64            `json:"estimated_monthly_savings"`
	ByCategory              map[string]int     `json:"by_category"`
	SavingsByCategory       map[string]float64 `json:"savings_by_category"`
	UnattachedGiB           int                `json:"unattached_gib"`
	SnapshotGiB             int                `json:"snapshot_gib"`
	OldestSnapshotDays      int                `json:"oldest_snapshot_days,omitempty"`
	Errors                  []string           `json:"errors,omitempty"`
}
