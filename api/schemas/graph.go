package schemas

// -- Canonical Fraud Graph Data Model --

// NodeKind represents the specific type of an entity (node) in the fraud graph.
// The set is closed so downstream scoring logic can be exhaustive.
type NodeKind string

const (
	KindMember    NodeKind = "member"     // A regular platform member.
	KindFraudster NodeKind = "fraudster"  // An entity confirmed as fraudulent by upstream labeling.
	KindPhone     NodeKind = "phone"      // A phone number contact point.
	KindEmail     NodeKind = "email"      // An email address contact point.
	KindAddress   NodeKind = "address"    // A physical address contact point.
	KindDevice    NodeKind = "device"     // A device fingerprint.
	KindVisitorID NodeKind = "visitor_id" // A web-analytics visitor identifier.
	KindCap       NodeKind = "cap"        // A postal/CAP code entity.
	KindUnknown   NodeKind = "unknown"    // Placeholder for lazily created endpoints.
)

// ContactKinds enumerates the node kinds that act as shared contact points
// between entities. Shared-contact suspicion only applies to these.
var ContactKinds = map[NodeKind]bool{
	KindPhone:   true,
	KindEmail:   true,
	KindAddress: true,
	KindDevice:  true,
}

// ParseNodeKind maps a free-form type tag (as found in GML exports) onto the
// closed NodeKind enumeration, defaulting to KindUnknown.
func ParseNodeKind(s string) NodeKind {
	switch NodeKind(s) {
	case KindMember, KindFraudster, KindPhone, KindEmail, KindAddress,
		KindDevice, KindVisitorID, KindCap:
		return NodeKind(s)
	default:
		return KindUnknown
	}
}

// Relation defines the semantic type of an edge between two nodes.
type Relation string

const (
	RelationUsesPhone   Relation = "uses_phone"   // An entity uses a PHONE contact.
	RelationUsesEmail   Relation = "uses_email"   // An entity uses an EMAIL contact.
	RelationUsesAddress Relation = "uses_address" // An entity uses an ADDRESS contact.
	RelationUsesDevice  Relation = "uses_device"  // An entity uses a DEVICE fingerprint.
	RelationPotential   Relation = "potential_relationship"
	RelationUnknown     Relation = ""
)

// ContactRelation returns the uses_<kind> relation for a contact node kind.
func ContactRelation(kind NodeKind) Relation {
	switch kind {
	case KindPhone:
		return RelationUsesPhone
	case KindEmail:
		return RelationUsesEmail
	case KindAddress:
		return RelationUsesAddress
	case KindDevice:
		return RelationUsesDevice
	default:
		return RelationUnknown
	}
}

// Attrs is the schema-light attribute map carried by nodes and edges. Keys
// are open-ended; values are scalars (string, float64, int, bool).
type Attrs map[string]any

// Merge copies every key of other into a, overwriting duplicates, and
// returns a. A nil receiver allocates.
func (a Attrs) Merge(other Attrs) Attrs {
	if a == nil {
		a = make(Attrs, len(other))
	}
	for k, v := range other {
		a[k] = v
	}
	return a
}

// Clone returns an independent shallow copy of the map.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Node represents a single entity in the fraud graph. The Kind tag is the
// closed enumeration above; everything else observed about the entity lives
// in the Attrs map (community ids, pagerank, suspicious_score, ...).
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Attrs Attrs    `json:"attrs,omitempty"`
}

// Edge represents an undirected relationship between two nodes. A and B are
// stored in normalized (ascending) order so each unordered pair appears once.
type Edge struct {
	A        string   `json:"a"`
	B        string   `json:"b"`
	Relation Relation `json:"relation"`
	Attrs    Attrs    `json:"attrs,omitempty"`
}

// Subgraph is a serializable snapshot of a subset of the fraud graph,
// produced by the materializer for export or review tooling.
type Subgraph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
