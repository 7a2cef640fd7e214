// Package graph implements the legal citation graph: a directed graph
// over articles where an edge means "source article's text references
// target article". Nodes live in an arena slice with a stable id→index
// map; adjacency is an index list per node.
package graph

// Node is one article in the citation graph.
type Node struct {
	ID            string `json:"id"` // composite: "<regulation>_<article_number>"
	Title         string `json:"title"`
	FullText      string `json:"full_text"`
	Regulation    string `json:"regulation"`
	ArticleNumber string `json:"article_number"`
}

// Edge is a directed citation between two nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// EdgeTypeCitation is the only edge type currently produced.
const EdgeTypeCitation = "citation"

// Graph is the citation graph. Built once during ingestion and read-only
// afterwards; concurrent reads need no synchronization.
type Graph struct {
	nodes []Node
	index map[string]int // node id -> arena index
	out   [][]int        // adjacency: arena index -> successor indices
	edges map[[2]int]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[[2]int]struct{}),
	}
}

// AddNode inserts a node, replacing attributes if the id already exists.
func (g *Graph) AddNode(n Node) {
	if i, ok := g.index[n.ID]; ok {
		g.nodes[i] = n
		return
	}
	g.index[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
}

// AddEdge inserts a citation edge. Self-edges are rejected, duplicate
// edges are a no-op, and both endpoints must exist.
func (g *Graph) AddEdge(sourceID, targetID string) bool {
	if sourceID == targetID {
		return false
	}
	si, ok := g.index[sourceID]
	if !ok {
		return false
	}
	ti, ok := g.index[targetID]
	if !ok {
		return false
	}
	key := [2]int{si, ti}
	if _, dup := g.edges[key]; dup {
		return false
	}
	g.edges[key] = struct{}{}
	g.out[si] = append(g.out[si], ti)
	return true
}

// HasNode reports whether the node id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Successors returns the ids of nodes cited by the given node, in edge
// insertion order (deterministic for a given corpus).
func (g *Graph) Successors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	succ := make([]string, 0, len(g.out[i]))
	for _, ti := range g.out[i] {
		succ = append(succ, g.nodes[ti].ID)
	}
	return succ
}

// HasEdge reports whether a citation edge exists.
func (g *Graph) HasEdge(sourceID, targetID string) bool {
	si, ok := g.index[sourceID]
	if !ok {
		return false
	}
	ti, ok := g.index[targetID]
	if !ok {
		return false
	}
	_, exists := g.edges[[2]int{si, ti}]
	return exists
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	return len(g.edges)
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges returns all edges, ordered by source insertion then edge
// insertion.
func (g *Graph) Edges() []Edge {
	result := make([]Edge, 0, len(g.edges))
	for si, targets := range g.out {
		for _, ti := range targets {
			result = append(result, Edge{
				Source: g.nodes[si].ID,
				Target: g.nodes[ti].ID,
				Type:   EdgeTypeCitation,
			})
		}
	}
	return result
}

// SubgraphView is the node/edge set around a result set, shaped for
// downstream visualization.
type SubgraphView struct {
	Nodes []SubgraphNode `json:"nodes"`
	Edges []Edge         `json:"edges"`
}

// SubgraphNode is a node in a SubgraphView with its role in the result.
type SubgraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"` // "<regulation> <article_number>"
	Title string `json:"title"`
	Role  string `json:"role"` // "retrieved" or "cited"
}

// Subgraph returns the given nodes, their outgoing citation edges, and
// the cited neighbors. Unknown ids are skipped.
func (g *Graph) Subgraph(nodeIDs []string) SubgraphView {
	view := SubgraphView{Nodes: []SubgraphNode{}, Edges: []Edge{}}
	seen := make(map[string]bool)

	add := func(id, role string) {
		if seen[id] {
			return
		}
		n, ok := g.Node(id)
		if !ok {
			return
		}
		seen[id] = true
		view.Nodes = append(view.Nodes, SubgraphNode{
			ID:    id,
			Label: n.Regulation + " " + n.ArticleNumber,
			Title: n.Title,
			Role:  role,
		})
	}

	for _, id := range nodeIDs {
		if !g.HasNode(id) {
			continue
		}
		add(id, "retrieved")
		for _, neighbor := range g.Successors(id) {
			view.Edges = append(view.Edges, Edge{
				Source: id,
				Target: neighbor,
				Type:   EdgeTypeCitation,
			})
			add(neighbor, "cited")
		}
	}
	return view
}
