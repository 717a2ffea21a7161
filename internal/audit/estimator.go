package audit

import (
	"math"

	"github.com/ppiankov/costspectre/internal/pricing"
)

// Estimator turns findings into an approximate monthly savings figure.
type Estimator struct {
	prices pricing.Table
}

// NewEstimator creates an estimator over a static price table.
func NewEstimator(prices pricing.Table) *Estimator {
	return &Estimator{prices: prices}
}

// Estimate prices compute and database findings by class and volumes at a flat rate.
// Snapshots are not priced. Subtotals are rounded individually; the total is the
// rounded sum of the unrounded subtotals.
func (e *Estimator) Estimate(compute, database, volume []Finding) SavingsEstimate {
	var computeCost, databaseCost float64
	for _, f := range compute {
		computeCost += e.prices.MonthlyComputeCost(f.Class)
	}
	for _, f := range database {
		databaseCost += e.prices.MonthlyDatabaseCost(f.Class)
	}
	storageCost := float64(len(volume)) * e.prices.MonthlyVolumeCost()

	return SavingsEstimate{
		Compute:  round2(computeCost),
		Database: round2(databaseCost),
		Storage:  round2(storageCost),
		Total:    round2(computeCost + databaseCost + storageCost),
	}
}

// round2 rounds to cents, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
