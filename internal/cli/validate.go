package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var tiles string

	cmd := &cobra.Command{
		Use:   "validate [definition files or directories...]",
		Short: "Check that every map pipeline builds",
		Long: `Load definition files and build the pipeline of every map without
generating anything. Building resolves motif variables, parses every step
attribute and loads referenced images, so most definition mistakes are
reported here.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args, tiles)
		},
	}

	cmd.Flags().StringVar(&tiles, "tiles", "", "tile catalog TOML file (default: built-in tiles)")

	return cmd
}

func (c *CLI) runValidate(ctx context.Context, paths []string, tiles string) error {
	lib, err := c.loadLibrary(ctx, paths, tiles)
	if err != nil {
		return err
	}

	names := lib.SortedNames()
	if len(names) == 0 {
		printWarning("No maps defined")
		return nil
	}

	prog := newProgress(c.Logger)
	failed := 0
	for _, name := range names {
		p, err := lib.Build(name)
		if err != nil {
			failed++
			printError("%s: %v", StyleTitle.Render(name), err)
			continue
		}
		printSuccess("%s", StyleTitle.Render(name))
		printDetail("%d steps", p.Len())
	}

	prog.done(fmt.Sprintf("Validated %d maps", len(names)))
	if failed > 0 {
		return fmt.Errorf("%d of %d maps failed to build", failed, len(names))
	}
	printNewline()
	printNextStep("Generate one", fmt.Sprintf("%s generate %s -m %s", appName, strings.Join(paths, " "), names[0]))
	return nil
}
