package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/makecodes/dbmlgen/collector"
	"github.com/makecodes/dbmlgen/dbml"
)

func newGenerateCmd() *cobra.Command {
	var (
		tableNames   bool
		groupByApp   bool
		colorByApp   bool
		timestamp    bool
		projectName  string
		projectNotes string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:     "generate [app_label[.ModelName]...]",
		Aliases: []string{"gen", "dbml"},
		Short:   "Generate a DBML document from the model registry",
		Long: `Generate a DBML document for the given apps or models. Without arguments
every registered model is included. Models referenced by a relationship from
an included model are pulled in transitively, so foreign key targets are
never orphaned in the output. Unknown names are reported and skipped.`,
		Example: `  dbmlgen generate                     # all apps
  dbmlgen generate shop                # one app plus relation targets
  dbmlgen generate shop.Order billing  # mix of model and app filters
  dbmlgen generate -o schema.dbml      # write to a file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			reg, err := loadRegistry()
			if err != nil {
				return fmt.Errorf("load models: %w", err)
			}

			sel := collector.New(reg, logger).Collect(args)

			opts := dbml.Options{
				TableNames:   tableNames,
				GroupByApp:   groupByApp,
				ColorByApp:   colorByApp,
				Timestamp:    timestamp,
				ProjectName:  projectName,
				ProjectNotes: projectNotes,
				DatabaseType: viper.GetString("project.database_type"),
			}
			if opts.ProjectName == "" {
				opts.ProjectName = viper.GetString("project.name")
			}
			if opts.ProjectNotes == "" {
				opts.ProjectNotes = viper.GetString("project.notes")
			}

			out := dbml.New(opts, logger).Generate(sel.Models)

			if outputFile != "" {
				if err := os.WriteFile(outputFile, out, 0644); err != nil {
					return fmt.Errorf("write output file: %w", err)
				}
				logger.Info("generated dbml file", "path", outputFile, "bytes", len(out))
				return nil
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().BoolVar(&tableNames, "table-names", false, "Use database table names instead of app.Model labels")
	cmd.Flags().BoolVar(&groupByApp, "group-by-app", false, "Append one TableGroup block per app")
	cmd.Flags().BoolVar(&colorByApp, "color-by-app", false, "Give each app's tables a stable header color")
	cmd.Flags().BoolVar(&timestamp, "timestamp", false, "Include a 'Last Updated At' line in the project notes")
	cmd.Flags().StringVar(&projectName, "project-name", "", "Project name for the DBML Project block")
	cmd.Flags().StringVar(&projectNotes, "project-notes", "", "Notes for the DBML Project block")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the document to a file instead of stdout")

	return cmd
}
