package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// WriteGML serializes a subgraph in the bracketed text format the ingest
// package reads back, closing the round trip for the ingest command.
func WriteGML(w io.Writer, sub *schemas.Subgraph) error {
	var b strings.Builder
	b.WriteString("graph [\n")
	for _, node := range sub.Nodes {
		b.WriteString("  node [\n")
		fmt.Fprintf(&b, "    id %q\n", node.ID)
		fmt.Fprintf(&b, "    type %q\n", node.Kind)
		for _, k := range sortedAttrKeys(node.Attrs) {
			writeGMLField(&b, k, node.Attrs[k])
		}
		b.WriteString("  ]\n")
	}
	for _, edge := range sub.Edges {
		b.WriteString("  edge [\n")
		fmt.Fprintf(&b, "    source %q\n", edge.A)
		fmt.Fprintf(&b, "    target %q\n", edge.B)
		if edge.Relation != schemas.RelationUnknown {
			fmt.Fprintf(&b, "    relation %q\n", edge.Relation)
		}
		for _, k := range sortedAttrKeys(edge.Attrs) {
			writeGMLField(&b, k, edge.Attrs[k])
		}
		b.WriteString("  ]\n")
	}
	b.WriteString("]\n")

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write gml output: %w", err)
	}
	return nil
}

func writeGMLField(b *strings.Builder, key string, value any) {
	switch v := value.(type) {
	case string:
		fmt.Fprintf(b, "    %s %q\n", key, v)
	case bool:
		// GML has no boolean literal; follow the 0/1 convention.
		if v {
			fmt.Fprintf(b, "    %s 1\n", key)
		} else {
			fmt.Fprintf(b, "    %s 0\n", key)
		}
	default:
		fmt.Fprintf(b, "    %s %v\n", key, v)
	}
}
