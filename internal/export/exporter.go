// Package export writes analysis artifacts for downstream review tooling:
// a JSON report envelope, a CSV flagged-entity table, and a GraphML
// rendition of a materialized subgraph for external visualization.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// Exporter writes one report envelope to its output and finalizes it.
type Exporter interface {
	Write(report *schemas.ReportEnvelope) error
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error { return nil }

// OpenOutput resolves the destination writer. An empty or "stdout" path
// writes to standard output; anything else creates the file, refusing to
// clobber an existing artifact unless force is set.
func OpenOutput(path string, force bool) (io.WriteCloser, error) {
	if path == "" || path == "stdout" {
		return &nopWriteCloser{os.Stdout}, nil
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("output file %s already exists (use --force to overwrite)", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return f, nil
}

// New creates an exporter for the requested format. The exporter takes
// ownership of the writer.
func New(format string, w io.WriteCloser) (Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(w), nil
	case "csv":
		return NewCSVExporter(w), nil
	case "graphml":
		return NewGraphMLExporter(w), nil
	default:
		w.Close()
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
