package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/ppiankov/costspectre/internal/audit"
	"github.com/ppiankov/costspectre/internal/config"
	"github.com/ppiankov/costspectre/internal/notify"
	"github.com/ppiankov/costspectre/internal/report"
	"github.com/ppiankov/costspectre/internal/telemetry"
)

func parseRunFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	addRunFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestResolveSettings_FlagsOverrideConfig(t *testing.T) {
	base := config.Config{LookbackDays: 14, EC2CPUThreshold: 5}
	fs := parseRunFlags(t, "--ec2-cpu-threshold=20", "--topic-arn=arn:aws:sns:us-east-1:123456789012:costs")

	s, err := resolveSettings(fs, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.EC2CPUThreshold != 20 {
		t.Fatalf("expected flag to override threshold, got %g", s.EC2CPUThreshold)
	}
	if s.LookbackDays != 14 {
		t.Fatalf("expected config lookback to survive unset flag, got %d", s.LookbackDays)
	}
	if s.RDSCPUThreshold != config.DefaultRDSCPUThreshold {
		t.Fatalf("expected default RDS threshold, got %g", s.RDSCPUThreshold)
	}
	if s.Notify.SNSTopicARN != "arn:aws:sns:us-east-1:123456789012:costs" {
		t.Fatalf("unexpected topic ARN %q", s.Notify.SNSTopicARN)
	}
	if s.TimeoutDuration() != 5*time.Minute {
		t.Fatalf("expected default timeout, got %v", s.TimeoutDuration())
	}
}

func TestResolveSettings_TimeoutFlag(t *testing.T) {
	fs := parseRunFlags(t, "--timeout=90s")
	s, err := resolveSettings(fs, config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TimeoutDuration() != 90*time.Second {
		t.Fatalf("expected 90s, got %v", s.TimeoutDuration())
	}
}

func TestResolveSettings_InvalidFormat(t *testing.T) {
	fs := parseRunFlags(t, "--format=xml")
	if _, err := resolveSettings(fs, config.Config{}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestResolveSettings_InvalidSchedule(t *testing.T) {
	fs := parseRunFlags(t, "--schedule=every day")
	_, err := resolveSettings(fs, config.Config{})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if !strings.Contains(err.Error(), "schedule") {
		t.Fatalf("expected schedule in error, got %v", err)
	}
}

func TestResolveSettings_NegativeThreshold(t *testing.T) {
	fs := parseRunFlags(t, "--snapshot-age-days=-1")
	if _, err := resolveSettings(fs, config.Config{}); err == nil {
		t.Fatal("expected error for negative snapshot age")
	}
}

func TestPrintSummary_Completed(t *testing.T) {
	color.NoColor = true
	var out, status bytes.Buffer
	s := audit.RunSummary{
		RunID:        "run-1",
		Status:       audit.StateCompleted,
		Counts:       audit.Counts{Compute: 1, Volume: 2},
		TotalSavings: 23.5,
		Notified:     true,
	}

	if err := printSummary(&out, &status, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}
	if decoded["run_id"] != "run-1" {
		t.Fatalf("unexpected run_id %v", decoded["run_id"])
	}
	if got := status.String(); !strings.Contains(got, "completed: 3 findings, $23.5/month") {
		t.Fatalf("unexpected status line %q", got)
	}
}

func TestPrintSummary_CompletedWithErrors(t *testing.T) {
	color.NoColor = true
	var out, status bytes.Buffer
	s := audit.RunSummary{
		Status:            audit.StateCompleted,
		Errors:            []string{"database check: access denied"},
		NotificationError: "sns publish: boom",
	}

	if err := printSummary(&out, &status, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := status.String()
	if !strings.Contains(got, "1 check errors") || !strings.Contains(got, "notification failed") {
		t.Fatalf("unexpected status line %q", got)
	}
}

func TestPrintSummary_Failed(t *testing.T) {
	color.NoColor = true
	var out, status bytes.Buffer
	s := audit.RunSummary{Status: audit.StateFailed, Error: "estimate savings: no estimator"}

	if err := printSummary(&out, &status, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(status.String(), "run failed: estimate savings") {
		t.Fatalf("unexpected status line %q", status.String())
	}
}

func TestSelectReporter(t *testing.T) {
	var buf bytes.Buffer
	for _, format := range []string{"text", "json", "sarif"} {
		if _, err := selectReporter(format, &buf); err != nil {
			t.Fatalf("format %s: unexpected error: %v", format, err)
		}
	}
	if _, err := selectReporter("html", &buf); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestBuildNotifier_DryRun(t *testing.T) {
	var buf bytes.Buffer
	n, closeFn, err := buildNotifier(nil, config.Config{}, true, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()

	if _, ok := n.(*notify.WriterNotifier); !ok {
		t.Fatalf("expected WriterNotifier, got %T", n)
	}
	if err := n.Publish(context.Background(), "subj", "body"); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if buf.String() != "Subject: subj\n\nbody" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestBuildNotifier_NoChannels(t *testing.T) {
	n, closeFn, err := buildNotifier(nil, config.Config{}, false, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if n != nil {
		t.Fatalf("expected nil notifier, got %T", n)
	}
}

type stubInventory struct {
	compute []audit.ResourceRecord
}

func (s stubInventory) ListRunningCompute(context.Context) ([]audit.ResourceRecord, error) {
	return s.compute, nil
}

func (stubInventory) ListDatabases(context.Context) ([]audit.ResourceRecord, error) {
	return nil, nil
}

func (stubInventory) ListOwnedSnapshots(context.Context) ([]audit.ResourceRecord, error) {
	return nil, nil
}

func (stubInventory) ListVolumesByState(context.Context, string) ([]audit.ResourceRecord, error) {
	return nil, nil
}

type stubMetrics map[string]float64

func (s stubMetrics) GetAverages(_ context.Context, _, metricName string, _ []audit.Dimension, _ int) ([]float64, error) {
	v, ok := s[metricName]
	if !ok {
		return nil, nil
	}
	return []float64{v}, nil
}

func TestRunner_RunOnce(t *testing.T) {
	color.NoColor = true
	runFlags.outputFile = ""

	settings := config.Config{Format: "json"}.WithDefaults()
	inv := stubInventory{compute: []audit.ResourceRecord{
		{ID: "i-1", Type: audit.ResourceCompute, Class: "t3.micro", State: "running", Tags: map[string]string{"Name": "web"}},
	}}
	metrics := stubMetrics{"CPUUtilization": 2, "NetworkIn": 100, "NetworkOut": 100}

	var published, stdout, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := &runner{
		auditor:  newAuditor(inv, metrics, settings, notify.NewWriterNotifier(&published), logger),
		recorder: telemetry.NewRecorder("us-east-1", ""),
		settings: settings,
		target:   report.Target{Type: "aws-account", Region: "us-east-1"},
		stdout:   &stdout,
		stderr:   &stderr,
		logger:   logger,
	}

	summary := r.runOnce(context.Background())

	if summary.Status != audit.StateCompleted {
		t.Fatalf("expected completed, got %s (%s)", summary.Status, summary.Error)
	}
	if summary.Counts.Compute != 1 {
		t.Fatalf("expected 1 compute finding, got %d", summary.Counts.Compute)
	}
	if summary.TotalSavings != 7.5 {
		t.Fatalf("expected 7.5 savings, got %g", summary.TotalSavings)
	}
	if !strings.HasPrefix(published.String(), "Subject: AWS Cost Optimization Report - Potential Savings: $7.5") {
		t.Fatalf("unexpected published report %q", published.String())
	}
	if !strings.Contains(stdout.String(), `"$schema": "costspectre/v1"`) {
		t.Fatalf("expected JSON report on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), `"run_id"`) {
		t.Fatalf("expected run summary on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "completed: 1 findings") {
		t.Fatalf("unexpected status line %q", stderr.String())
	}
}

func TestRunner_NoReportWithoutFormat(t *testing.T) {
	color.NoColor = true
	runFlags.outputFile = ""

	settings := config.Config{}.WithDefaults()
	var stdout bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := &runner{
		auditor:  newAuditor(stubInventory{}, stubMetrics{}, settings, nil, logger),
		recorder: telemetry.NewRecorder("", ""),
		settings: settings,
		stdout:   &stdout,
		stderr:   io.Discard,
		logger:   logger,
	}

	summary := r.runOnce(context.Background())
	if summary.Status != audit.StateCompleted {
		t.Fatalf("expected completed, got %s", summary.Status)
	}
	if strings.Contains(stdout.String(), "$schema") {
		t.Fatal("expected no report without --format or --output")
	}
}
