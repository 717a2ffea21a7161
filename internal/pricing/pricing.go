package pricing

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
)

// Rough on-demand monthly prices in USD. Not a substitute for the Pricing API.
//
//go:embed prices.json
var pricingData []byte

// Table maps instance classes to approximate monthly cost.
type Table struct {
	Compute         map[string]float64 `json:"compute" yaml:"compute"`
	Database        map[string]float64 `json:"database" yaml:"database"`
	ComputeDefault  float64            `json:"compute_default" yaml:"compute_default"`
	DatabaseDefault float64            `json:"database_default" yaml:"database_default"`
	VolumeMonthly   float64            `json:"volume_monthly" yaml:"volume_monthly"`
}

// defaultTable holds the parsed embedded prices.
var defaultTable Table

func init() {
	if err := json.Unmarshal(pricingData, &defaultTable); err != nil {
		slog.Warn("Failed to parse embedded pricing data", "error", err)
		defaultTable = Table{ComputeDefault: 50, DatabaseDefault: 50, VolumeMonthly: 8}
	}
}

// Default returns a copy of the embedded price table.
func Default() Table {
	return Table{
		Compute:         maps.Clone(defaultTable.Compute),
		Database:        maps.Clone(defaultTable.Database),
		ComputeDefault:  defaultTable.ComputeDefault,
		DatabaseDefault: defaultTable.DatabaseDefault,
		VolumeMonthly:   defaultTable.VolumeMonthly,
	}
}

// Merge returns t with every non-zero value in o applied on top.
func (t Table) Merge(o Table) Table {
	out := Table{
		Compute:         maps.Clone(t.Compute),
		Database:        maps.Clone(t.Database),
		ComputeDefault:  t.ComputeDefault,
		DatabaseDefault: t.DatabaseDefault,
		VolumeMonthly:   t.VolumeMonthly,
	}
	if out.Compute == nil {
		out.Compute = make(map[string]float64, len(o.Compute))
	}
	if out.Database == nil {
		out.Database = make(map[string]float64, len(o.Database))
	}
	maps.Copy(out.Compute, o.Compute)
	maps.Copy(out.Database, o.Database)
	if o.ComputeDefault != 0 {
		out.ComputeDefault = o.ComputeDefault
	}
	if o.DatabaseDefault != 0 {
		out.DatabaseDefault = o.DatabaseDefault
	}
	if o.VolumeMonthly != 0 {
		out.VolumeMonthly = o.VolumeMonthly
	}
	return out
}

// Validate rejects tables that would undercount unknown classes or produce negative savings.
func (t Table) Validate() error {
	var errs []error
	if t.ComputeDefault <= 0 {
		errs = append(errs, fmt.Errorf("compute_default must be positive, got %g", t.ComputeDefault))
	}
	if t.DatabaseDefault <= 0 {
		errs = append(errs, fmt.Errorf("database_default must be positive, got %g", t.DatabaseDefault))
	}
	if t.VolumeMonthly < 0 {
		errs = append(errs, fmt.Errorf("volume_monthly must not be negative, got %g", t.VolumeMonthly))
	}
	for class, p := range t.Compute {
		if p < 0 {
			errs = append(errs, fmt.Errorf("compute price for %s is negative", class))
		}
	}
	for class, p := range t.Database {
		if p < 0 {
			errs = append(errs, fmt.Errorf("database price for %s is negative", class))
		}
	}
	return errors.Join(errs...)
}

// MonthlyComputeCost returns the monthly price of an EC2 instance type,
// or ComputeDefault when the type is unknown.
func (t Table) MonthlyComputeCost(instanceType string) float64 {
	if p, ok := t.Compute[instanceType]; ok {
		return p
	}
	return t.ComputeDefault
}

// MonthlyDatabaseCost returns the monthly price of an RDS instance class,
// or DatabaseDefault when the class is unknown.
func (t Table) MonthlyDatabaseCost(instanceClass string) float64 {
	if p, ok := t.Database[instanceClass]; ok {
		return p
	}
	return t.DatabaseDefault
}

// MonthlyVolumeCost returns the flat per-volume monthly rate. Volume size is ignored.
func (t Table) MonthlyVolumeCost() float64 {
	return t.VolumeMonthly
}
