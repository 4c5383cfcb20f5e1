package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/pipeline"
	"github.com/ddurio/ProMage2-sub001/pkg/render/diagram"
)

// graphOpts holds graph command options.
type graphOpts struct {
	mapName  string
	tiles    string
	output   string
	detailed bool
	noCache  bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph [definition files or directories...]",
		Short: "Render a map pipeline as a diagram",
		Long: `Render the steps of a map pipeline, with the motifs and custom events
they use, as a Graphviz diagram.

The output format follows the --output extension: .svg renders through
Graphviz, anything else writes DOT. Without --output, DOT is printed.`,
		Example: `  promage graph cavern.hcl
  promage graph maps/ -m Cavern -o cavern.svg --detailed`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mapName, "map", "m", "", "map to render (default: the only map defined)")
	cmd.Flags().StringVar(&opts.tiles, "tiles", "", "tile catalog TOML file (default: built-in tiles)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.svg or .dot)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show step attributes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, paths []string, opts graphOpts) error {
	format, err := diagramFormat(opts.output)
	if err != nil {
		return err
	}

	lib, err := c.loadLibrary(ctx, paths, opts.tiles)
	if err != nil {
		return err
	}
	mapName, err := c.selectMap(lib, opts.mapName)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, hit, err := runner.RenderDiagram(ctx, lib, mapName, format, diagram.Options{Detailed: opts.detailed})
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return err
	}
	printSuccess("Rendered %s pipeline", StyleTitle.Render(mapName))
	printStats(0, 0, 0, hit)
	printFile(opts.output)
	return nil
}

// diagramFormat picks the diagram format from an output path.
func diagramFormat(output string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(output)); ext {
	case ".svg":
		return pipeline.DiagramSVG, nil
	case "", ".dot", ".gv":
		return pipeline.DiagramDOT, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unsupported diagram extension %q (use .svg or .dot)", ext)
	}
}
