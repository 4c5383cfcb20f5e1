package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ddurio/ProMage2-sub001/pkg/errors"
	"github.com/ddurio/ProMage2-sub001/pkg/pipeline"
	"github.com/ddurio/ProMage2-sub001/pkg/render"
)

// generateOpts holds generate command options.
type generateOpts struct {
	mapName string
	tiles   string
	seed    uint64
	count   int
	formats string
	heatMap string
	output  string
	noCache bool
	refresh bool
	quiet   bool
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate [definition files or directories...]",
		Short: "Generate maps from definition files",
		Long: `Generate one or more maps from HCL definition files.

Each map runs its pipeline of steps against a freshly filled grid. The same
definitions and seed always produce the same map. With --count, maps are
generated concurrently with seeds seed, seed+1, ...

Artifacts are cached by definition content and seed, so re-running an
unchanged definition is instant.`,
		Example: `  # Generate the only map in a file and print a preview
  promage generate cavern.hcl

  # Ten seeds of one map as text and JSON
  promage generate maps/ -m Cavern -n 10 -f txt,json -o out/cavern

  # Heat map of distance from the entrance
  promage generate dungeon.hcl -f heat --heatmap distance`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") && c.env.Seed != nil {
				opts.seed = *c.env.Seed
			}
			return c.runGenerate(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mapName, "map", "m", "", "map to generate (default: the only map defined)")
	cmd.Flags().StringVar(&opts.tiles, "tiles", "", "tile catalog TOML file (default: built-in tiles)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", pipeline.DefaultSeed, "random seed")
	cmd.Flags().IntVarP(&opts.count, "count", "n", pipeline.DefaultCount, "number of maps to generate")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output formats: txt, heat, json (comma-separated)")
	cmd.Flags().StringVar(&opts.heatMap, "heatmap", "", "heat map rendered by the heat format")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path without extension (default: map name)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print a map preview")

	return cmd
}

// runGenerate loads definitions, generates maps and writes their artifacts.
func (c *CLI) runGenerate(ctx context.Context, paths []string, opts generateOpts) error {
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

	popts := pipeline.Options{
		Map:     mapName,
		Seed:    opts.seed,
		SeedSet: true,
		Count:   opts.count,
		Formats: parseFormats(opts.formats),
		HeatMap: opts.heatMap,
		Refresh: opts.refresh,
		Logger:  c.Logger,
	}

	var results []*pipeline.Result
	if opts.count > 1 {
		progress, stop := trackBatch(os.Stderr, opts.count)
		results, err = runner.ExecuteBatch(ctx, lib, popts)
		stop()
		if err != nil {
			return err
		}
		done, _ := progress.Generated()
		printSuccess("Generated %s maps of %s (%d from cache)",
			StyleNumber.Render(fmt.Sprint(len(results))), StyleTitle.Render(mapName), len(results)-done)
	} else {
		res, err := runner.Execute(ctx, lib, popts)
		if err != nil {
			return err
		}
		results = []*pipeline.Result{res}
		printSuccess("Generated %s (seed %d)", StyleTitle.Render(mapName), res.Seed)
		printStats(res.Stats.Width, res.Stats.Height, res.Stats.Steps, res.CacheInfo.Hit)
		if !opts.quiet {
			c.preview(res)
		}
	}

	base := opts.output
	if base == "" {
		base = mapName
	}
	for _, res := range results {
		if err := writeArtifacts(base, res, len(results) > 1); err != nil {
			return err
		}
	}
	return nil
}

// preview prints the generated map to c.Out, colored unless NO_COLOR is set.
// Cached results have no map, so their text artifact is shown instead.
func (c *CLI) preview(res *pipeline.Result) {
	switch {
	case res.Map != nil && !c.env.NoColor:
		fmt.Fprintln(c.Out, render.Styled(res.Map))
	case res.Map != nil:
		c.Out.Write(render.Text(res.Map))
	case res.Artifacts[pipeline.FormatText] != nil:
		c.Out.Write(res.Artifacts[pipeline.FormatText])
	}
}

// selectMap returns name, or the library's only map when name is empty.
// With several maps and an interactive terminal the user picks one.
func (c *CLI) selectMap(lib *pipeline.Library, name string) (string, error) {
	if name != "" {
		if _, err := lib.Map(name); err != nil {
			return "", err
		}
		return name, nil
	}
	names := lib.SortedNames()
	switch len(names) {
	case 0:
		return "", errors.New(errors.ErrCodeUnknownMap, "no maps defined")
	case 1:
		return names[0], nil
	}
	if c.pick == nil {
		return "", errors.New(errors.ErrCodeInvalidInput, "several maps defined, choose one with --map: %s", strings.Join(names, ", "))
	}

	maps := make([]pipeline.Definition, 0, len(names))
	for _, n := range names {
		def, err := lib.Map(n)
		if err != nil {
			return "", err
		}
		maps = append(maps, def)
	}
	chosen, err := c.pick(maps)
	if err != nil {
		return "", err
	}
	if chosen == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no map selected")
	}
	return chosen, nil
}

// writeArtifacts writes each artifact of res to base.<format>, or
// base-<seed>.<format> when withSeed is set.
func writeArtifacts(base string, res *pipeline.Result, withSeed bool) error {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	stem := base
	if withSeed {
		stem = fmt.Sprintf("%s-%d", base, res.Seed)
	}
	for _, format := range slices.Sorted(maps.Keys(res.Artifacts)) {
		path := stem + "." + format
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
