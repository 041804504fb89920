package graph

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// Store is a fast, ephemeral, in-memory fraud graph. It is undirected and
// simple: each unordered node pair carries at most one edge, and duplicate
// additions merge attributes into the existing node or edge.
//
// One Store instance is built per run and is read-mostly afterwards; the
// only later mutation is writing back derived score attributes. Mutation and
// read-only analysis never interleave within a run.
type Store struct {
	mu        sync.RWMutex
	nodes     map[string]schemas.Node
	edges     map[edgeKey]schemas.Edge
	adjacency map[string]map[string]struct{}
	log       *zap.Logger
}

// edgeKey is the normalized (ascending) unordered pair identifying an edge.
type edgeKey struct {
	a, b string
}

func newEdgeKey(a, b string) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// NewStore creates a new, empty graph store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		nodes:     make(map[string]schemas.Node),
		edges:     make(map[edgeKey]schemas.Edge),
		adjacency: make(map[string]map[string]struct{}),
		log:       logger.Named("GraphStore"),
	}
}

// AddNode inserts a node or merges attributes into an existing one.
// Re-adding the same id never duplicates the node. A concrete kind replaces
// KindUnknown but an already-known kind is never demoted.
func (s *Store) AddNode(id string, kind schemas.NodeKind, attrs schemas.Attrs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addNodeLocked(id, kind, attrs)
}

func (s *Store) addNodeLocked(id string, kind schemas.NodeKind, attrs schemas.Attrs) {
	existing, ok := s.nodes[id]
	if !ok {
		s.nodes[id] = schemas.Node{ID: id, Kind: kind, Attrs: attrs.Clone()}
		return
	}
	if existing.Kind == schemas.KindUnknown && kind != schemas.KindUnknown {
		existing.Kind = kind
	}
	existing.Attrs = existing.Attrs.Merge(attrs)
	s.nodes[id] = existing
}

// AddEdge links a and b, lazily creating missing endpoints with KindUnknown.
// A duplicate unordered pair merges attributes into the existing edge; the
// first non-empty relation wins. Self-loops are stored rather than rejected
// so malformed input cannot crash ingestion.
func (s *Store) AddEdge(a, b string, relation schemas.Relation, attrs schemas.Attrs) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[a]; !ok {
		s.addNodeLocked(a, schemas.KindUnknown, nil)
	}
	if _, ok := s.nodes[b]; !ok {
		s.addNodeLocked(b, schemas.KindUnknown, nil)
	}

	key := newEdgeKey(a, b)
	if existing, ok := s.edges[key]; ok {
		if existing.Relation == schemas.RelationUnknown {
			existing.Relation = relation
		}
		existing.Attrs = existing.Attrs.Merge(attrs)
		s.edges[key] = existing
	} else {
		s.edges[key] = schemas.Edge{A: key.a, B: key.b, Relation: relation, Attrs: attrs.Clone()}
	}

	if s.adjacency[a] == nil {
		s.adjacency[a] = make(map[string]struct{})
	}
	if s.adjacency[b] == nil {
		s.adjacency[b] = make(map[string]struct{})
	}
	s.adjacency[a][b] = struct{}{}
	s.adjacency[b][a] = struct{}{}
}

// Node returns the node for id, or a NotFoundError.
func (s *Store) Node(id string) (schemas.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return schemas.Node{}, &NotFoundError{ID: id}
	}
	return node, nil
}

// HasNode reports whether id is present.
func (s *Store) HasNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// Kind returns the kind tag for id, or KindUnknown with a NotFoundError.
func (s *Store) Kind(id string) (schemas.NodeKind, error) {
	node, err := s.Node(id)
	if err != nil {
		return schemas.KindUnknown, err
	}
	return node.Kind, nil
}

// Neighbors returns the ids adjacent to id, sorted ascending. An existing
// node with no edges yields an empty slice, not an error; an unknown id
// also yields empty so traversals stay total.
func (s *Store) Neighbors(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adj, ok := s.adjacency[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(adj))
	for n := range adj {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Adjacent reports whether a and b share an edge.
func (s *Store) Adjacent(a, b string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.adjacency[a][b]
	return ok
}

// Degree returns the number of distinct neighbors of id. Missing ids have
// degree zero.
func (s *Store) Degree(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.adjacency[id])
}

// Edge returns the edge for the unordered pair {a, b}, if present.
func (s *Store) Edge(a, b string) (schemas.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edge, ok := s.edges[newEdgeKey(a, b)]
	return edge, ok
}

// NodeCount returns the number of nodes in the store.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of distinct undirected edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// NodeIDs returns every node id, sorted ascending. This fixed iteration
// order is the determinism contract every analysis pass relies on.
func (s *Store) NodeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodesByKind returns the ids of every node with the given kind, sorted.
func (s *Store) NodesByKind(kind schemas.NodeKind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, node := range s.nodes {
		if node.Kind == kind {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Edges returns every edge, ordered by (A, B).
func (s *Store) Edges() []schemas.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schemas.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// SetAttr writes a single derived attribute onto an existing node. This is
// the explicit write path used by the scoring engine; computing a score has
// no effect on the store until it is written here.
func (s *Store) SetAttr(id, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	node.Attrs = node.Attrs.Merge(schemas.Attrs{key: value})
	s.nodes[id] = node
	return nil
}

// Attr reads a single attribute from a node. The second return is false
// when the attribute is absent; a missing node is a NotFoundError.
func (s *Store) Attr(id, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, false, &NotFoundError{ID: id}
	}
	v, present := node.Attrs[key]
	return v, present, nil
}
