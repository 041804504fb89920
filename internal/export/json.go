package export

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONExporter writes the full report envelope as indented JSON, the
// handoff format for review tooling and classifier training pipelines.
type JSONExporter struct {
	w io.WriteCloser
}

// NewJSONExporter takes ownership of the writer.
func NewJSONExporter(w io.WriteCloser) *JSONExporter {
	return &JSONExporter{w: w}
}

func (e *JSONExporter) Write(report *schemas.ReportEnvelope) error {
	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (e *JSONExporter) Close() error {
	return e.w.Close()
}
