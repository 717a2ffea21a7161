package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/costspectre/internal/audit"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// SARIFReporter writes findings as a SARIF v2.1.0 log.
type SARIFReporter struct {
	Writer io.Writer
}

// sarifReport is the top-level SARIF v2.1.0 structure.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifMessage      `json:"shortDescription"`
	DefaultConfig    sarifDefaultLevel `json:"defaultConfiguration"`
}

type sarifDefaultLevel struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string         `json:"ruleId"`
	Level     string         `json:"level"`
	Message   sarifMessage   `json:"message"`
	Locations []sarifLoc     `json:"locations,omitempty"`
	Props     map[string]any `json:"properties,omitempty"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// Generate writes SARIF v2.1.0 output.
func (r *SARIFReporter) Generate(data Data) error {
	results := make([]sarifResult, 0, len(data.Findings))

	for _, f := range data.Findings {
		results = append(results, sarifResult{
			RuleID:  sarifRuleID(f.Category),
			Level:   sarifLevel(f.Category),
			Message: sarifMessage{Text: sarifText(f)},
			Locations: []sarifLoc{
				{
					PhysicalLocation: sarifPhysical{
						ArtifactLocation: sarifArtifact{
							URI: fmt.Sprintf("aws://%s/%s/%s", data.Target.Region, f.Category, f.ResourceID),
						},
					},
				},
			},
			Props: sarifProps(f),
		})
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    data.Tool,
						Version: data.Version,
						Rules:   buildSARIFRules(),
					},
				},
				Results: results,
			},
		},
	}

	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode SARIF report: %w", err)
	}
	return nil
}

var sarifRuleIDs = map[audit.Category]string{
	audit.CategoryCompute:  "UNDERUTILIZED_EC2",
	audit.CategoryDatabase: "UNDERUTILIZED_RDS",
	audit.CategorySnapshot: "OLD_SNAPSHOT",
	audit.CategoryVolume:   "UNATTACHED_EBS",
}

func sarifRuleID(c audit.Category) string {
	if id, ok := sarifRuleIDs[c]; ok {
		return id
	}
	return "UNKNOWN"
}

// Priced findings are warnings; snapshots carry no estimate and are notes.
func sarifLevel(c audit.Category) string {
	if c == audit.CategorySnapshot {
		return "note"
	}
	return "warning"
}

func sarifText(f audit.Finding) string {
	if f.Reason != "" {
		return f.Reason
	}
	return fmt.Sprintf("%s %s flagged", f.Category, f.ResourceID)
}

func sarifProps(f audit.Finding) map[string]any {
	props := map[string]any{"resourceName": f.DisplayName()}
	switch f.Category {
	case audit.CategoryCompute:
		props["instanceType"] = f.Class
		props["avgCpuPercent"] = f.AvgCPU
		props["networkIn"] = f.NetworkIn
		props["networkOut"] = f.NetworkOut
	case audit.CategoryDatabase:
		props["instanceClass"] = f.Class
		props["avgCpuPercent"] = f.AvgCPU
	case audit.CategorySnapshot:
		props["ageDays"] = f.AgeDays
		props["sizeGiB"] = f.SizeGiB
	case audit.CategoryVolume:
		props["sizeGiB"] = f.SizeGiB
	}
	if len(f.Tags) > 0 {
		props["tags"] = f.Tags
	}
	return props
}

func buildSARIFRules() []sarifRule {
	return []sarifRule{
		{ID: "UNDERUTILIZED_EC2", ShortDescription: sarifMessage{Text: "Underutilized EC2 instance"}, DefaultConfig: sarifDefaultLevel{Level: "warning"}},
		{ID: "UNDERUTILIZED_RDS", ShortDescription: sarifMessage{Text: "Underutilized RDS instance"}, DefaultConfig: sarifDefaultLevel{Level: "warning"}},
		{ID: "OLD_SNAPSHOT", ShortDescription: sarifMessage{Text: "Old EBS snapshot"}, DefaultConfig: sarifDefaultLevel{Level: "note"}},
		{ID: "UNATTACHED_EBS", ShortDescription: sarifMessage{Text: "Unattached EBS volume"}, DefaultConfig: sarifDefaultLevel{Level: "warning"}},
	}
}
