package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ddurio/ProMage2-sub001/pkg/event"
)

// eventsCommand creates the events command.
func (c *CLI) eventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events [definition files or directories...]",
		Short: "List custom conditions and results",
		Long: `List the custom condition and result templates registered by definition
files, with their attributes, allowed values and attach requirement.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEvents(cmd.Context(), args)
		},
	}
	return cmd
}

func (c *CLI) runEvents(ctx context.Context, paths []string) error {
	lib, err := c.loadLibrary(ctx, paths, "")
	if err != nil {
		return err
	}
	env := lib.Env

	total := 0
	for _, kind := range []event.Kind{event.Condition, event.Result} {
		for _, t := range env.Events.Templates(kind) {
			if !t.Enabled {
				continue
			}
			total++
			printInfo("%s %s", StyleTitle.Render(t.Name), StyleDim.Render(kind.String()))
			printKeyValue("  require", t.Requirement.String())
			for i, attr := range t.AttrNames {
				allowed := "any"
				if i < len(t.AllowedValues) && t.AllowedValues[i] != nil {
					allowed = strings.Join(t.AllowedValues[i], ", ")
				}
				printKeyValue("  "+attr, allowed)
			}
			if !env.Bus.Subscribed(t.Name) {
				printWarning("no handler subscribed")
			}
		}
	}
	if total == 0 {
		printInfo("No custom events defined")
		return nil
	}
	printNewline()
	printDetail("%d templates", total)
	return nil
}
