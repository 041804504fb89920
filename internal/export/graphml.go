package export

import (
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// GraphMLExporter renders the materialized flagged subgraph as a GraphML
// document, the interchange format expected by external graph viewers.
type GraphMLExporter struct {
	w io.WriteCloser
}

// NewGraphMLExporter takes ownership of the writer.
func NewGraphMLExporter(w io.WriteCloser) *GraphMLExporter {
	return &GraphMLExporter{w: w}
}

func (e *GraphMLExporter) Write(report *schemas.ReportEnvelope) error {
	if report.Flagged == nil {
		return fmt.Errorf("report carries no materialized subgraph to export")
	}
	doc := BuildGraphML(report.Flagged)
	doc.Indent(2)
	if _, err := doc.WriteTo(e.w); err != nil {
		return fmt.Errorf("failed to write graphml document: %w", err)
	}
	return nil
}

func (e *GraphMLExporter) Close() error {
	return e.w.Close()
}

// BuildGraphML converts a subgraph snapshot into a GraphML etree document.
// Node kinds and edge relations become data elements; scalar attributes are
// stringified with %v.
func BuildGraphML(sub *schemas.Subgraph) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("graphml")
	root.CreateAttr("xmlns", "http://graphml.graphdrawing.org/xmlns")

	kindKey := root.CreateElement("key")
	kindKey.CreateAttr("id", "kind")
	kindKey.CreateAttr("for", "node")
	kindKey.CreateAttr("attr.name", "kind")
	kindKey.CreateAttr("attr.type", "string")

	relKey := root.CreateElement("key")
	relKey.CreateAttr("id", "relation")
	relKey.CreateAttr("for", "edge")
	relKey.CreateAttr("attr.name", "relation")
	relKey.CreateAttr("attr.type", "string")

	graphEl := root.CreateElement("graph")
	graphEl.CreateAttr("edgedefault", "undirected")

	for _, node := range sub.Nodes {
		el := graphEl.CreateElement("node")
		el.CreateAttr("id", node.ID)
		data := el.CreateElement("data")
		data.CreateAttr("key", "kind")
		data.SetText(string(node.Kind))
		for _, k := range sortedAttrKeys(node.Attrs) {
			d := el.CreateElement("data")
			d.CreateAttr("key", k)
			d.SetText(fmt.Sprintf("%v", node.Attrs[k]))
		}
	}
	for i, edge := range sub.Edges {
		el := graphEl.CreateElement("edge")
		el.CreateAttr("id", fmt.Sprintf("e%d", i))
		el.CreateAttr("source", edge.A)
		el.CreateAttr("target", edge.B)
		if edge.Relation != schemas.RelationUnknown {
			data := el.CreateElement("data")
			data.CreateAttr("key", "relation")
			data.SetText(string(edge.Relation))
		}
	}
	return doc
}
