package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/costspectre/internal/audit"
)

func sampleReport() *audit.Report {
	return &audit.Report{
		Compute: []audit.Finding{
			{Category: audit.CategoryCompute, ResourceID: "i-1", Class: "t3.micro", AvgCPU: 3, Reason: "CPU 3.00% < 10%"},
		},
		Snapshot: []audit.Finding{
			{Category: audit.CategorySnapshot, ResourceID: "snap-1", AgeDays: 45, SizeGiB: 8, Reason: "45 days old > 30 days"},
		},
		Savings:     audit.SavingsEstimate{Compute: 7.5, Total: 7.5},
		Subject:     "AWS Cost Optimization Report - Potential Savings: $7.5",
		Message:     "*AWS Cost Optimization Report*\nEstimated Monthly Savings: $7.5\n",
		GeneratedAt: time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC),
	}
}

func sampleData() Data {
	d := NewData(sampleReport(), nil)
	d.Version = "0.1.0"
	d.Target = Target{Type: "aws-account", Region: "us-east-1", URIHash: "sha256:abc123"}
	d.Config = ReportConfig{LookbackDays: 7, EC2CPUThreshold: 10, RDSCPUThreshold: 10, NetworkThreshold: 1000, SnapshotAgeDays: 30}
	return d
}

func TestNewData(t *testing.T) {
	d := NewData(sampleReport(), []string{"boom"})

	if d.Tool != "costspectre" {
		t.Fatalf("expected tool costspectre, got %s", d.Tool)
	}
	if len(d.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(d.Findings))
	}
	if d.Findings[0].ResourceID != "i-1" || d.Findings[1].ResourceID != "snap-1" {
		t.Fatalf("expected category order, got %+v", d.Findings)
	}
	if d.Summary.TotalFindings != 2 || d.Summary.EstimatedMonthlySavings != 7.5 {
		t.Fatalf("unexpected summary %+v", d.Summary)
	}
	if !d.Timestamp.Equal(time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", d.Timestamp)
	}
}

func TestTextReporter_Generate(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{Writer: &buf}

	if err := r.Generate(sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "*AWS Cost Optimization Report*\nEstimated Monthly Savings: $7.5\n" {
		t.Fatalf("expected message verbatim, got %q", buf.String())
	}
}

func TestTextReporter_NoFindings(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{Writer: &buf}

	if err := r.Generate(NewData(&audit.Report{Empty: true}, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No underutilized resources found") {
		t.Fatalf("expected no-findings notice, got %q", buf.String())
	}
}

func TestTextReporter_Errors(t *testing.T) {
	var buf bytes.Buffer
	r := &TextReporter{Writer: &buf}

	data := NewData(sampleReport(), []string{"list DB instances (database): AccessDenied"})
	if err := r.Generate(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Errors (1):\n - list DB instances (database): AccessDenied\n") {
		t.Fatalf("expected errors section, got %q", buf.String())
	}
}

func TestJSONReporter_Generate(t *testing.T) {
	var buf bytes.Buffer
	r := &JSONReporter{Writer: &buf}

	if err := r.Generate(sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var envelope map[string]any
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if envelope["$schema"] != "costspectre/v1" {
		t.Fatalf("expected $schema costspectre/v1, got %v", envelope["$schema"])
	}
	if envelope["tool"] != "costspectre" {
		t.Fatalf("expected tool costspectre, got %v", envelope["tool"])
	}
	if _, ok := envelope["message"]; ok {
		t.Fatal("message should not be part of the JSON envelope")
	}
	findings, ok := envelope["findings"].([]any)
	if !ok || len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %v", envelope["findings"])
	}
}

func TestJSONReporter_EmptyFindingsIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONReporter{Writer: &buf}).Generate(NewData(nil, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"findings": []`) {
		t.Fatalf("expected empty findings array, got %s", buf.String())
	}
}

func TestSARIFReporter_Generate(t *testing.T) {
	var buf bytes.Buffer
	r := &SARIFReporter{Writer: &buf}

	if err := r.Generate(sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sarif map[string]any
	if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sarif["version"] != "2.1.0" {
		t.Fatalf("expected SARIF version 2.1.0, got %v", sarif["version"])
	}

	runs, ok := sarif["runs"].([]any)
	if !ok || len(runs) != 1 {
		t.Fatal("expected 1 SARIF run")
	}
	run := runs[0].(map[string]any)
	results, ok := run["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatal("expected 2 SARIF results")
	}

	compute := results[0].(map[string]any)
	if compute["ruleId"] != "UNDERUTILIZED_EC2" || compute["level"] != "warning" {
		t.Fatalf("unexpected compute result %v", compute)
	}
	snapshot := results[1].(map[string]any)
	if snapshot["ruleId"] != "OLD_SNAPSHOT" || snapshot["level"] != "note" {
		t.Fatalf("unexpected snapshot result %v", snapshot)
	}

	loc := compute["locations"].([]any)[0].(map[string]any)
	uri := loc["physicalLocation"].(map[string]any)["artifactLocation"].(map[string]any)["uri"]
	if uri != "aws://us-east-1/compute/i-1" {
		t.Fatalf("unexpected location %v", uri)
	}
}

func TestSARIFRuleID_Unknown(t *testing.T) {
	if got := sarifRuleID("bogus"); got != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN, got %s", got)
	}
}
