package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FormatVersion is the on-disk graph format version. Bump when the
// node/edge schema changes incompatibly.
const FormatVersion = 1

// graphFile is the serialized form: an explicit, versioned node/edge
// list readable without any graph library.
type graphFile struct {
	Version int    `json:"version"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Save writes the graph to path as versioned JSON. The write is atomic
// (temp file + rename) so a crash never leaves a truncated graph.
func (g *Graph) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}

	data, err := json.Marshal(graphFile{
		Version: FormatVersion,
		Nodes:   g.Nodes(),
		Edges:   g.Edges(),
	})
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write graph file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename graph file: %w", err)
	}
	return nil
}

// Load reads a graph persisted by Save. Edges referencing unknown nodes
// or duplicating existing edges are ignored, matching build semantics.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}

	var file graphFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode graph file: %w", err)
	}
	if file.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported graph format version %d (want %d)", file.Version, FormatVersion)
	}

	g := New()
	for _, n := range file.Nodes {
		g.AddNode(n)
	}
	for _, e := range file.Edges {
		g.AddEdge(e.Source, e.Target)
	}
	return g, nil
}
