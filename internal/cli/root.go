package cli

import (
	"github.com/spf13/cobra"

	"github.com/ddurio/ProMage2-sub001/pkg/buildinfo"
)

// RootCommand builds the promage command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Rule-driven procedural tile map generator",
		Long: `promage generates tile maps by running a pipeline of steps
(cellular automata, distance fields, rooms and paths, Perlin noise, image
stamps and sprinkles) over a grid, driven by HCL definition files.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.eventsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
