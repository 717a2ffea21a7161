package report

import (
	"time"

	"github.com/ppiankov/costspectre/internal/analyzer"
	"github.com/ppiankov/costspectre/internal/audit"
)

// Data is the input shared by every reporter.
type Data struct {
	Tool      string                `json:"tool"`
	Version   string                `json:"version"`
	Timestamp time.Time             `json:"timestamp"`
	RunID     string                `json:"run_id,omitempty"`
	Target    Target                `json:"target"`
	Config    ReportConfig          `json:"config"`
	Findings  []audit.Finding       `json:"findings"`
	Savings   audit.SavingsEstimate `json:"savings"`
	Summary   analyzer.Summary      `json:"summary"`
	Subject   string                `json:"subject,omitempty"`
	Message   string                `json:"-"`
}

// Target identifies the audited account without exposing the profile name.
type Target struct {
	Type    string `json:"type"`
	Region  string `json:"region"`
	URIHash string `json:"uri_hash"`
}

// ReportConfig echoes the thresholds the run used.
type ReportConfig struct {
	LookbackDays     int     `json:"lookback_days"`
	EC2CPUThreshold  float64 `json:"ec2_cpu_threshold"`
	RDSCPUThreshold  float64 `json:"rds_cpu_threshold"`
	NetworkThreshold float64 `json:"network_threshold"`
	SnapshotAgeDays  int     `json:"snapshot_age_days"`
}

// Reporter renders report data.
type Reporter interface {
	Generate(data Data) error
}

// NewData assembles reporter input from a composed report.
func NewData(rep *audit.Report, errs []string) Data {
	d := Data{
		Tool:    "costspectre",
		Summary: analyzer.Analyze(rep, errs),
	}
	if rep == nil {
		return d
	}
	d.Timestamp = rep.GeneratedAt
	d.Savings = rep.Savings
	d.Subject = rep.Subject
	d.Message = rep.Message
	for _, c := range audit.Categories {
		d.Findings = append(d.Findings, rep.Findings(c)...)
	}
	return d
}
