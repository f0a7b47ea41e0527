package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(build Build) error {
	rootCmd := newRootCmd(build)
	return rootCmd.Execute()
}

func newRootCmd(build Build) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dbmlgen",
		Version: build.String(),
		Short:   "Generate DBML schema documentation from model definitions",
		Long: `Dbmlgen turns an application's model definitions into DBML, the plain-text
database markup language understood by dbdiagram.io and dbdocs.

It reads model definition files (one YAML file per app), resolves the
relationships between models, and emits one Table block per model plus one
Ref line per relationship. Generation is a single read-only pass: nothing
is ever written back into the model registry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dbmlgen.yaml)")
	cmd.PersistentFlags().StringVar(&modelsDir, "models-dir", "", "directory of model definition files (default: ./models)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newAppsCmd())
	cmd.AddCommand(newVersionCmd(build))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dbmlgen")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.dbmlgen")
	}

	viper.SetEnvPrefix("DBMLGEN")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
