package graph

import "fmt"

// NotFoundError is returned when a caller queries an id that is not present
// in the store.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node with id '%s' not found", e.ID)
}

// MalformedGraphError marks structurally unrepairable input: more closing
// than opening delimiters, or a block missing a required field. Ingestion
// aborts entirely rather than returning a half-parsed graph.
type MalformedGraphError struct {
	Reason string
	Line   int
}

func (e *MalformedGraphError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed graph input at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed graph input: %s", e.Reason)
}

// GraphTooLargeError is raised when an exponential-cost operation (clique
// enumeration) would run over a configured safety bound.
type GraphTooLargeError struct {
	Nodes int
	Limit int
}

func (e *GraphTooLargeError) Error() string {
	return fmt.Sprintf("graph too large for clique enumeration: %d nodes exceeds guard of %d", e.Nodes, e.Limit)
}

// PartialRowError marks a single unusable tabular row. It is logged and
// counted by the caller, never fatal to the batch.
type PartialRowError struct {
	Row    int
	Reason string
}

func (e *PartialRowError) Error() string {
	return fmt.Sprintf("row %d skipped: %s", e.Row, e.Reason)
}
