package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/makecodes/dbmlgen/registry"
)

func newAppsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "apps [app_label]",
		Short: "List registered apps and their models",
		Long:  "List the apps found in the models directory, each with its models and field counts.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return fmt.Errorf("load models: %w", err)
			}

			apps := reg.Apps()
			if len(args) == 1 {
				app, err := reg.App(args[0])
				if err != nil {
					return err
				}
				apps = []*registry.App{app}
			}

			if jsonOutput {
				out := make(map[string]any, len(apps))
				for _, app := range apps {
					out[app.Label] = app.Models()
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			for _, app := range apps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d models)\n", app.Label, len(app.Models()))
				for _, m := range app.Models() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-30s table=%s fields=%d relations=%d\n",
						m.Name, m.Table, len(m.Fields), len(m.Relations))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
