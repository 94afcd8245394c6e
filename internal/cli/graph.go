package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tilesmith/pkg/depgraph"
	"github.com/matzehuels/tilesmith/pkg/layers"
	"github.com/matzehuels/tilesmith/pkg/recipe"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// graphCommand creates the graph command, which exports the recipe/layer
// sharing graph.
func (c *CLI) graphCommand() *cobra.Command {
	var format, outPath string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export which recipes share which layers",
		Long: `Graph loads the layer store and the recipe manifest and exports the
bipartite graph of recipes and the layers they reference, as Graphviz DOT or
as SVG laid out by Graphviz. Missing layers are drawn dashed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != formatDOT && format != formatSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", format)
			}
			return c.runGraph(cmd, format, outPath)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatDOT, "output format: dot, svg")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, format, outPath string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	store, err := layers.Load(cfg.Layers)
	if err != nil {
		return err
	}
	set, err := recipe.LoadManifest(cfg.Recipes)
	if err != nil {
		return err
	}
	g := depgraph.Build(set, store)
	prog.done(fmt.Sprintf("Built sharing graph: %d recipes, %d layers", set.Len(), store.Len()))

	data := []byte(g.DOT())
	if format == formatSVG {
		spinner := newSpinnerWithContext(cmd.Context(), "Laying out graph...")
		spinner.Start()
		data, err = depgraph.RenderSVG(string(data))
		spinner.Stop()
		if err != nil {
			return err
		}
	}

	if outPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	printSuccess("Exported %s graph", strings.ToUpper(format))
	printKeyValue("Recipes", fmt.Sprint(set.Len()))
	printKeyValue("Layers", fmt.Sprint(store.Len()))
	for _, id := range g.Missing() {
		printWarning("missing layer %s", id)
	}
	if unused := g.Unused(); len(unused) > 0 {
		printInfo("%d layers are not used by any recipe", len(unused))
	}
	printFile(outPath)
	return nil
}
