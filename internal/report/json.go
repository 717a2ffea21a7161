package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/costspectre/internal/audit"
)

const jsonSchema = "costspectre/v1"

// JSONReporter writes the report as an indented JSON envelope.
type JSONReporter struct {
	Writer io.Writer
}

type jsonEnvelope struct {
	Schema string `json:"$schema"`
	Data
}

// Generate writes the JSON envelope.
func (r *JSONReporter) Generate(data Data) error {
	if data.Findings == nil {
		data.Findings = []audit.Finding{}
	}
	enc := json.NewEncoder(r.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonEnvelope{Schema: jsonSchema, Data: data}); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}
