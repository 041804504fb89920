// Package ingest builds a graph store from the two supported producers: a
// bracketed GML-style text export (possibly truncated) and tabular
// entity-resolution rows.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
	"github.com/xkilldash9x/fraudlens-cli/internal/graph"
)

// GMLOptions tunes the text-format loader. MaxNodes > 0 caps ingestion at
// that many node blocks; further node blocks are structurally consumed but
// skipped, and edges referencing skipped nodes are dropped so the output is
// always a self-consistent subset graph.
type GMLOptions struct {
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`
}

// GMLResult couples the loaded graph with the data-quality counters.
type GMLResult struct {
	Graph *graph.Store
	Stats schemas.IngestStats
}

// LoadGML repairs and parses a serialized graph. Repair and structural
// parse are strictly separate phases: repair only balances delimiters, and
// the parser may assume balanced input.
func LoadGML(r io.Reader, opts GMLOptions, logger *zap.Logger) (*GMLResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("GMLLoader")

	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph input: %w", err)
	}

	repaired, appended, err := Repair(lines)
	if err != nil {
		return nil, err
	}
	if appended > 0 {
		logger.Warn("Repaired truncated graph input",
			zap.Int("closers_appended", appended))
	}

	result, err := parseGML(repaired, opts, logger)
	if err != nil {
		return nil, err
	}
	result.Stats.ClosersAppended = appended
	return result, nil
}

// Repair scans the input line-by-line tracking the running balance of
// opening vs closing delimiters (quoted brackets are ignored). A deficit of
// closers at end of input is recovered by appending exactly that many
// closing delimiters, each on its own line. A surplus of closers is
// unrepairable: the only honest fix would be guessing which characters to
// delete, so it fails with MalformedGraphError instead.
func Repair(lines []string) ([]string, int, error) {
	balance := 0
	for i, line := range lines {
		opens, closes := countDelims(line)
		balance += opens - closes
		if balance < 0 {
			return nil, 0, &graph.MalformedGraphError{
				Reason: "closing delimiter without matching opener",
				Line:   i + 1,
			}
		}
	}
	if balance == 0 {
		return lines, 0, nil
	}

	repaired := make([]string, len(lines), len(lines)+balance)
	copy(repaired, lines)
	for i := 0; i < balance; i++ {
		repaired = append(repaired, "]")
	}
	return repaired, balance, nil
}

func countDelims(line string) (opens, closes int) {
	inQuote := false
	for _, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case '[':
			if !inQuote {
				opens++
			}
		case ']':
			if !inQuote {
				closes++
			}
		}
	}
	return opens, closes
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// -- Structural parse --

// token is one lexical unit of the balanced input: "[", "]", or a value.
type token struct {
	text   string
	quoted bool
	line   int
}

func tokenize(lines []string) []token {
	var tokens []token
	for i, line := range lines {
		lineNo := i + 1
		j := 0
		for j < len(line) {
			c := line[j]
			switch {
			case c == ' ' || c == '\t' || c == '\r':
				j++
			case c == '[' || c == ']':
				tokens = append(tokens, token{text: string(c), line: lineNo})
				j++
			case c == '"':
				end := j + 1
				for end < len(line) && line[end] != '"' {
					end++
				}
				tokens = append(tokens, token{text: line[j+1 : min(end, len(line))], quoted: true, line: lineNo})
				j = end + 1
			case c == '#':
				// Comment until end of line.
				j = len(line)
			default:
				end := j
				for end < len(line) && !strings.ContainsRune(" \t\r[]\"", rune(line[end])) {
					end++
				}
				tokens = append(tokens, token{text: line[j:end], line: lineNo})
				j = end
			}
		}
	}
	return tokens
}

type gmlParser struct {
	tokens []token
	pos    int
	opts   GMLOptions
	log    *zap.Logger

	g        *graph.Store
	admitted map[string]struct{}
	stats    schemas.IngestStats
}

func parseGML(lines []string, opts GMLOptions, logger *zap.Logger) (*GMLResult, error) {
	p := &gmlParser{
		tokens:   tokenize(lines),
		opts:     opts,
		log:      logger,
		g:        graph.NewStore(logger),
		admitted: make(map[string]struct{}),
	}

	// Locate the top-level graph container.
	found := false
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if !tok.quoted && tok.text == "graph" {
			p.pos++
			if err := p.expectOpen(); err != nil {
				return nil, err
			}
			if err := p.parseGraphBody(); err != nil {
				return nil, err
			}
			found = true
			break
		}
		p.pos++
	}
	if !found {
		return nil, &graph.MalformedGraphError{Reason: "no top-level graph block"}
	}

	return &GMLResult{Graph: p.g, Stats: p.stats}, nil
}

func (p *gmlParser) expectOpen() error {
	if p.pos >= len(p.tokens) || p.tokens[p.pos].quoted || p.tokens[p.pos].text != "[" {
		line := 0
		if p.pos < len(p.tokens) {
			line = p.tokens[p.pos].line
		}
		return &graph.MalformedGraphError{Reason: "expected opening delimiter", Line: line}
	}
	p.pos++
	return nil
}

// parseGraphBody consumes the body of the graph block up to its matching
// closer, dispatching node and edge sub-blocks.
func (p *gmlParser) parseGraphBody() error {
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if !tok.quoted && tok.text == "]" {
			p.pos++
			return nil
		}
		switch {
		case !tok.quoted && tok.text == "node":
			p.pos++
			if err := p.parseNodeBlock(); err != nil {
				return err
			}
		case !tok.quoted && tok.text == "edge":
			p.pos++
			if err := p.parseEdgeBlock(); err != nil {
				return err
			}
		default:
			// Graph-level scalar attribute (directed 0, label "..."). Keep
			// the parser in sync but otherwise ignore it.
			p.pos++
			if p.pos < len(p.tokens) && !p.tokens[p.pos].quoted && p.tokens[p.pos].text == "[" {
				if err := p.skipBlock(); err != nil {
					return err
				}
			} else {
				p.pos++
			}
		}
	}
	return &graph.MalformedGraphError{Reason: "unterminated graph block"}
}

// parseBlockFields reads key/value pairs until the block's closer. Nested
// sub-blocks are consumed structurally and flattened away; their contents
// never desynchronize block-boundary tracking.
func (p *gmlParser) parseBlockFields() (map[string]any, error) {
	if err := p.expectOpen(); err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if !tok.quoted && tok.text == "]" {
			p.pos++
			return fields, nil
		}
		key := tok.text
		p.pos++
		if p.pos >= len(p.tokens) {
			break
		}
		val := p.tokens[p.pos]
		if !val.quoted && val.text == "[" {
			if err := p.skipBlock(); err != nil {
				return nil, err
			}
			continue
		}
		fields[key] = parseScalar(val)
		p.pos++
	}
	return nil, &graph.MalformedGraphError{Reason: "unterminated block"}
}

// skipBlock consumes a balanced bracketed region starting at the current
// "[" token.
func (p *gmlParser) skipBlock() error {
	depth := 0
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++
		if tok.quoted {
			continue
		}
		switch tok.text {
		case "[":
			depth++
		case "]":
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return &graph.MalformedGraphError{Reason: "unterminated nested block"}
}

func (p *gmlParser) parseNodeBlock() error {
	fields, err := p.parseBlockFields()
	if err != nil {
		return err
	}
	rawID, ok := fields["id"]
	if !ok {
		return &graph.MalformedGraphError{Reason: "node block missing required id field"}
	}
	id := scalarString(rawID)
	delete(fields, "id")

	if p.opts.MaxNodes > 0 && len(p.admitted) >= p.opts.MaxNodes {
		// Block already fully consumed; only the admission is skipped.
		p.stats.NodesSkipped++
		return nil
	}

	kind := schemas.KindUnknown
	if rawKind, ok := fields["type"]; ok {
		kind = schemas.ParseNodeKind(scalarString(rawKind))
		delete(fields, "type")
	}
	attrs := make(schemas.Attrs, len(fields))
	for k, v := range fields {
		attrs[k] = v
	}
	p.g.AddNode(id, kind, attrs)
	p.admitted[id] = struct{}{}
	p.stats.NodesLoaded++
	return nil
}

func (p *gmlParser) parseEdgeBlock() error {
	fields, err := p.parseBlockFields()
	if err != nil {
		return err
	}
	rawSource, okS := fields["source"]
	rawTarget, okT := fields["target"]
	if !okS || !okT {
		return &graph.MalformedGraphError{Reason: "edge block missing required source/target field"}
	}
	source := scalarString(rawSource)
	target := scalarString(rawTarget)
	delete(fields, "source")
	delete(fields, "target")

	if _, ok := p.admitted[source]; !ok {
		p.stats.EdgesDropped++
		return nil
	}
	if _, ok := p.admitted[target]; !ok {
		p.stats.EdgesDropped++
		return nil
	}

	relation := schemas.RelationUnknown
	if rawRel, ok := fields["relation"]; ok {
		relation = schemas.Relation(scalarString(rawRel))
		delete(fields, "relation")
	}
	attrs := make(schemas.Attrs, len(fields))
	for k, v := range fields {
		attrs[k] = v
	}
	p.g.AddEdge(source, target, relation, attrs)
	p.stats.EdgesLoaded++
	return nil
}

// parseScalar maps a value token to int64, float64 or string.
func parseScalar(tok token) any {
	if tok.quoted {
		return tok.text
	}
	if i, err := strconv.ParseInt(tok.text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(tok.text, 64); err == nil {
		return f
	}
	return tok.text
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
