package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexnav/lexnav/internal/graph"
)

var graphNodes []string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the citation graph",
	Long: `Prints citation graph statistics, or with --nodes the subgraph
around the given node ids (retrieved nodes plus their cited neighbors)
as JSON for visualization.`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringSliceVar(&graphNodes, "nodes", nil, "node ids to extract a subgraph for (e.g. GDPR_5)")
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	g, err := graph.Load(cfg.Index.GraphPath())
	if err != nil {
		return fmt.Errorf("cannot load citation graph from %s (run: lexnav ingest): %w", cfg.Index.GraphPath(), err)
	}

	if len(graphNodes) > 0 {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(g.Subgraph(graphNodes))
	}

	fmt.Printf("Citation graph: %d nodes, %d edges\n", g.NumNodes(), g.NumEdges())
	return nil
}
