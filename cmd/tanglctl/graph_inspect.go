package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/derekmerck/tangl-go/internal/graph"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"})
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"})
	boldStyle   = lipgloss.NewStyle().Bold(true)

	graphInspectMaxDepth int
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the demo scene graph",
}

var graphInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the demo scene as a box-drawing tree rooted at the cursor's node",
	Run: func(cmd *cobra.Command, args []string) {
		c := buildDemoCursor()
		fmt.Println(boldStyle.Render(c.Graph.Label()))
		seen := make(map[string]bool)
		printNodeLine("", c.At, seen)
		renderChildren(c.At, graphInspectMaxDepth, seen, "")
	},
}

func init() {
	graphInspectCmd.Flags().IntVar(&graphInspectMaxDepth, "max-depth", 4, "Maximum traversal depth")
	graphCmd.AddCommand(graphInspectCmd)
}

func printNodeLine(linePrefix string, n *graph.Node, seen map[string]bool) {
	uid := n.EntityUID().String()
	if seen[uid] {
		fmt.Println(linePrefix + mutedStyle.Render(n.Label()+" (shown above)"))
		return
	}
	seen[uid] = true
	fmt.Println(linePrefix + accentStyle.Render(n.Label()))
}

// renderChildren walks n's outgoing edges depth-first, printing each
// destination with box-drawing connectors — the same role as the
// teacher's internal/deps.TreeRenderer, adapted from edge-following
// issue trees to graph.Node/Edge traversal.
func renderChildren(n *graph.Node, maxDepth int, seen map[string]bool, childBasePrefix string) {
	if maxDepth <= 0 {
		return
	}
	edges := n.EdgesOut(nil)
	for i, e := range edges {
		dest, ok := e.Destination()
		if !ok {
			continue
		}
		isLast := i == len(edges)-1
		connector := "├── "
		nextBase := childBasePrefix + "│   "
		if isLast {
			connector = "└── "
			nextBase = childBasePrefix + "    "
		}
		alreadySeen := seen[dest.EntityUID().String()]
		printNodeLine(childBasePrefix+connector, dest, seen)
		if !alreadySeen {
			renderChildren(dest, maxDepth-1, seen, nextBase)
		}
	}
}
