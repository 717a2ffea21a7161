package audit

import (
	"context"
	"time"
)

// ResourceType identifies the kind of AWS resource a record describes.
type ResourceType string

const (
	ResourceCompute  ResourceType = "compute"
	ResourceDatabase ResourceType = "database"
	ResourceVolume   ResourceType = "volume"
	ResourceSnapshot ResourceType = "snapshot"
)

// Category groups findings for reporting.
type Category string

const (
	CategoryCompute  Category = "compute"
	CategoryDatabase Category = "database"
	CategorySnapshot Category = "snapshot"
	CategoryVolume   Category = "volume"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryCompute, CategoryDatabase, CategorySnapshot, CategoryVolume}

// VolumeStateAvailable is the state of an EBS volume that is not attached to any instance.
const VolumeStateAvailable = "available"

// DatabaseStatusAvailable is the status of a healthy RDS instance.
const DatabaseStatusAvailable = "available"

// ResourceRecord is a point-in-time view of a provider resource.
type ResourceRecord struct {
	ID        string
	Type      ResourceType
	Tags      map[string]string
	Class     string
	State     string
	Engine    string
	SizeGiB   int
	CreatedAt time.Time
}

// Name returns the value of the Name tag, or "" when absent.
func (r ResourceRecord) Name() string {
	return r.Tags["Name"]
}

// Dimension is a single metric dimension.
type Dimension struct {
	Name  string
	Value string
}

// MetricSample summarizes a metric over a lookback window.
type MetricSample struct {
	Namespace  string
	MetricName string
	Value      float64
	Start      time.Time
	End        time.Time
	Datapoints int
}

// Finding is one classified instance of waste.
type Finding struct {
	Category   Category          `json:"category"`
	ResourceID string            `json:"resource_id"`
	Name       string            `json:"name,omitempty"`
	Class      string            `json:"class,omitempty"`
	Reason     string            `json:"reason"`
	AvgCPU     float64           `json:"avg_cpu_percent,omitempty"`
	NetworkIn  float64           `json:"network_in,omitempty"`
	NetworkOut float64           `json:"network_out,omitempty"`
	AgeDays    int               `json:"age_days,omitempty"`
	SizeGiB    int               `json:"size_gib,omitempty"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// DisplayName returns the finding's name or "Unnamed".
func (f Finding) DisplayName() string {
	if f.Name == "" {
		return "Unnamed"
	}
	return f.Name
}

// SavingsEstimate holds approximate monthly savings in USD.
type SavingsEstimate struct {
	Compute  float64 `json:"compute"`
	Database float64 `json:"database"`
	Storage  float64 `json:"storage"`
	Total    float64 `json:"total"`
}

// Report is the composed output of one run.
type Report struct {
	Compute     []Finding       `json:"compute"`
	Database    []Finding       `json:"database"`
	Snapshot    []Finding       `json:"snapshot"`
	Volume      []Finding       `json:"volume"`
	Savings     SavingsEstimate `json:"savings"`
	Subject     string          `json:"subject,omitempty"`
	Message     string          `json:"message,omitempty"`
	Empty       bool            `json:"empty"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Findings returns the findings of a category.
func (r *Report) Findings(c Category) []Finding {
	switch c {
	case CategoryCompute:
		return r.Compute
	case CategoryDatabase:
		return r.Database
	case CategorySnapshot:
		return r.Snapshot
	case CategoryVolume:
		return r.Volume
	}
	return nil
}

// State is the lifecycle state of an audit run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Counts holds the number of findings per category.
type Counts struct {
	Compute  int `json:"underutilized_ec2"`
	Database int `json:"underutilized_rds"`
	Snapshot int `json:"old_snapshots"`
	Volume   int `json:"unattached_volumes"`
}

// Total returns the number of findings across all categories.
func (c Counts) Total() int {
	return c.Compute + c.Database + c.Snapshot + c.Volume
}

// RunSummary is the result of one audit run.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	Status            State     `json:"status"`
	Counts            Counts    `json:"counts"`
	TotalSavings      float64   `json:"total_savings"`
	Notified          bool      `json:"notified"`
	NotificationError string    `json:"notification_error,omitempty"`
	Errors            []string  `json:"errors,omitempty"`
	Error             string    `json:"error,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Inventory lists provider resources.
type Inventory interface {
	ListRunningCompute(ctx context.Context) ([]ResourceRecord, error)
	ListDatabases(ctx context.Context) ([]ResourceRecord, error)
	ListOwnedSnapshots(ctx context.Context) ([]ResourceRecord, error)
	ListVolumesByState(ctx context.Context, state string) ([]ResourceRecord, error)
}

// MetricsProvider returns the raw per-period averages of a metric.
// An empty slice means no data.
type MetricsProvider interface {
	GetAverages(ctx context.Context, namespace, metricName string, dims []Dimension, windowDays int) ([]float64, error)
}

// Notifier delivers the composed report.
type Notifier interface {
	Publish(ctx context.Context, subject, body string) error
}

// Check evaluates one category of resources.
type Check interface {
	Category() Category
	Run(ctx context.Context) ([]Finding, error)
}
