package trustgraph

import (
	"math"
	"strings"
	"time"
)

// Interaction is a single observed email between two addresses.
type Interaction struct {
	From              string
	To                string
	Timestamp         time.Time
	Subject           string
	HasPaymentRequest bool
	AmountRequested   float64
}

// Node is the profile of one email address in the graph.
type Node struct {
	Address             string
	FirstSeen           time.Time
	LastSeen            time.Time
	InteractionCount    int
	IncomingCount       int
	OutgoingCount       int
	TrustScore          float64
	IsInternal          bool
	IsExecutive         bool
	PaymentRequestsMade int
}

type edgeKey struct {
	from string
	to   string
}

// Graph is a directed email communication graph with trust propagation.
// Each address is a node, each email an edge entry; trust flows from
// internal and executive nodes to external contacts based on
// relationship strength.
type Graph struct {
	orgDomain  string
	nodes      map[string]*Node
	edges      map[edgeKey][]Interaction
	executives map[string]bool
	now        func() time.Time
}

// New creates an empty graph for the given organization domain.
func New(organizationDomain string) *Graph {
	return &Graph{
		orgDomain:  strings.ToLower(organizationDomain),
		nodes:      make(map[string]*Node),
		edges:      make(map[edgeKey][]Interaction),
		executives: make(map[string]bool),
		now:        time.Now,
	}
}

// SetClock overrides the time source used for recency decay. Tests use
// this to pin "now" against fixed interaction histories.
func (g *Graph) SetClock(now func() time.Time) {
	g.now = now
}

// IsInternal reports whether the address belongs to the organization.
func (g *Graph) IsInternal(email string) bool {
	return strings.HasSuffix(strings.ToLower(email), "@"+g.orgDomain)
}

// AddExecutive marks an address as an executive (high-value target).
func (g *Graph) AddExecutive(email string) {
	email = strings.ToLower(email)
	g.executives[email] = true
	if node, ok := g.nodes[email]; ok {
		node.IsExecutive = true
	}
}

// Executives returns the flagged executive addresses.
func (g *Graph) Executives() []string {
	out := make([]string, 0, len(g.executives))
	for addr := range g.executives {
		out = append(out, addr)
	}
	return out
}

func (g *Graph) getOrCreateNode(email string) *Node {
	email = strings.ToLower(email)
	node, ok := g.nodes[email]
	if !ok {
		node = &Node{
			Address:     email,
			TrustScore:  0.5,
			IsInternal:  g.IsInternal(email),
			IsExecutive: g.executives[email],
		}
		g.nodes[email] = node
	}
	return node
}

// Node returns the node for an address, or nil if never observed.
func (g *Graph) Node(email string) *Node {
	return g.nodes[strings.ToLower(email)]
}

// NodeCount returns the number of addresses observed.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of directed (from, to) pairs observed.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// RecordInteraction adds an email interaction to the graph, creating
// both endpoint nodes on first reference.
func (g *Graph) RecordInteraction(in Interaction) {
	from := strings.ToLower(in.From)
	to := strings.ToLower(in.To)

	fromNode := g.getOrCreateNode(from)
	toNode := g.getOrCreateNode(to)

	if fromNode.FirstSeen.IsZero() {
		fromNode.FirstSeen = in.Timestamp
	}
	fromNode.LastSeen = in.Timestamp
	fromNode.InteractionCount++
	fromNode.OutgoingCount++

	if toNode.FirstSeen.IsZero() {
		toNode.FirstSeen = in.Timestamp
	}
	toNode.LastSeen = in.Timestamp
	toNode.IncomingCount++

	if in.HasPaymentRequest {
		fromNode.PaymentRequestsMade++
	}

	key := edgeKey{from: from, to: to}
	g.edges[key] = append(g.edges[key], in)
}

// RelationshipStrength scores the relationship between two addresses in
// [0,1] from interaction volume, reciprocity, relationship age and
// recency. It is computed over the union of both edge directions and is
// therefore symmetric in its arguments.
func (g *Graph) RelationshipStrength(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	outgoing := g.edges[edgeKey{from: a, to: b}]
	incoming := g.edges[edgeKey{from: b, to: a}]

	if len(outgoing) == 0 && len(incoming) == 0 {
		return 0.0
	}

	total := len(outgoing) + len(incoming)
	reciprocity := float64(min(len(outgoing), len(incoming))) /
		float64(max(max(len(outgoing), len(incoming)), 1))

	first := time.Time{}
	last := time.Time{}
	for _, in := range outgoing {
		if first.IsZero() || in.Timestamp.Before(first) {
			first = in.Timestamp
		}
		if in.Timestamp.After(last) {
			last = in.Timestamp
		}
	}
	for _, in := range incoming {
		if first.IsZero() || in.Timestamp.Before(first) {
			first = in.Timestamp
		}
		if in.Timestamp.After(last) {
			last = in.Timestamp
		}
	}

	durationDays := last.Sub(first).Hours() / 24
	if durationDays < 1 {
		durationDays = 1
	}

	daysSinceLast := g.now().Sub(last).Hours() / 24
	if daysSinceLast < 0 {
		daysSinceLast = 0
	}
	recency := math.Exp(-daysSinceLast / 90)

	strength := math.Log1p(float64(total))*0.3 +
		reciprocity*0.3 +
		math.Min(durationDays/365, 1)*0.2 +
		recency*0.2

	return math.Min(1.0, strength)
}

// PropagateTrust runs PageRank-style trust propagation. Internal and
// executive nodes are pinned to 1.0 throughout; unknown externals start
// at the 0.1 floor and accumulate trust from inbound neighbors weighted
// by relationship strength. Edge weights are precomputed once: nothing
// mutates relationship strength during the iterations.
func (g *Graph) PropagateTrust(iterations int, damping float64) {
	for _, node := range g.nodes {
		if node.IsInternal || node.IsExecutive {
			node.TrustScore = 1.0
		} else {
			node.TrustScore = 0.1
		}
	}

	type inboundEdge struct {
		from   string
		weight float64
	}
	inbound := make(map[string][]inboundEdge, len(g.nodes))
	for key := range g.edges {
		inbound[key.to] = append(inbound[key.to], inboundEdge{
			from:   key.from,
			weight: g.RelationshipStrength(key.from, key.to),
		})
	}

	for i := 0; i < iterations; i++ {
		newScores := make(map[string]float64, len(g.nodes))

		for addr, node := range g.nodes {
			if node.IsInternal || node.IsExecutive {
				newScores[addr] = 1.0
				continue
			}

			incomingTrust := 0.0
			incomingCount := 0
			for _, e := range inbound[addr] {
				fromNode, ok := g.nodes[e.from]
				if !ok {
					continue
				}
				incomingTrust += fromNode.TrustScore * e.weight
				incomingCount++
			}

			if incomingCount > 0 {
				newScores[addr] = (1-damping)*0.1 +
					damping*(incomingTrust/float64(incomingCount))
			} else {
				newScores[addr] = 0.1
			}
		}

		for addr, score := range newScores {
			g.nodes[addr].TrustScore = score
		}
	}
}

// TrustScore returns the current trust for an address, or 0.0 if the
// address was never observed.
func (g *Graph) TrustScore(email string) float64 {
	node := g.nodes[strings.ToLower(email)]
	if node == nil {
		return 0.0
	}
	return node.TrustScore
}

// ExportNode is a serializable view of one graph node.
type ExportNode struct {
	Address          string  `json:"address"`
	TrustScore       float64 `json:"trust_score"`
	IsInternal       bool    `json:"is_internal"`
	IsExecutive      bool    `json:"is_executive"`
	InteractionCount int     `json:"interaction_count"`
}

// ExportNodes returns a serializable snapshot of all nodes for the
// dashboard's audit view.
func (g *Graph) ExportNodes() []ExportNode {
	out := make([]ExportNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, ExportNode{
			Address:          n.Address,
			TrustScore:       n.TrustScore,
			IsInternal:       n.IsInternal,
			IsExecutive:      n.IsExecutive,
			InteractionCount: n.InteractionCount,
		})
	}
	return out
}
