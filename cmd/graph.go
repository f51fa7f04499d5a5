package cmd

import (
	"fmt"
	"io"

	"github.com/cottand/qinfer/graph"
	"github.com/cottand/qinfer/problem"
	"github.com/spf13/cobra"
)

var GraphCmd = &cobra.Command{
	Use:          "graph problem.yaml",
	Short:        "Print the connected components and constant paths of a problem's constraint graph",
	RunE:         runGraph,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

var (
	graphLogs    *logFlags
	graphLenient *bool
)

func init() {
	graphLogs = addLogFlags(GraphCmd)
	graphLenient = GraphCmd.Flags().Bool("lenient", false, "drop constraints over unknown slots instead of failing")
}

func runGraph(cmd *cobra.Command, args []string) error {
	if err := graphLogs.apply(); err != nil {
		return err
	}
	p, err := problem.Load(args[0])
	if err != nil {
		return err
	}

	g, err := graph.NewBuilder(graph.Options{Lenient: p.Lenient || *graphLenient}).Build(p.Slots, p.Constraints)
	if err != nil {
		return fmt.Errorf("could not build graph of %s: %w", args[0], err)
	}
	printGraph(cmd.OutOrStdout(), g)
	return nil
}

func printGraph(w io.Writer, g *graph.Graph) {
	_, _ = fmt.Fprintf(w, "%d vertices, %d edges, %d components\n", len(g.Vertices()), len(g.Edges()), len(g.Components()))
	for _, comp := range g.Components() {
		_, _ = fmt.Fprintf(w, "component #%d:\n", comp.Index())
		for _, c := range comp.Constraints() {
			_, _ = fmt.Fprintf(w, "  %s\n", c)
		}
	}
	for _, path := range g.ConstantPaths() {
		_, _ = fmt.Fprintf(w, "constant %s: component #%d, %d constraints\n", path.Constant(), path.Component().Index(), len(path.Constraints()))
	}
	for _, dropped := range g.Dropped().Errors() {
		_, _ = fmt.Fprintf(w, "dropped: %s\n", dropped.Error())
	}
}
