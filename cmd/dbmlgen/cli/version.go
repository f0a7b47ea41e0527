package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build identifies the running binary: the release version plus the
// revision it was cut from. Zero values read as a local dev build.
type Build struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"built"`
	Dirty   bool   `json:"dirty,omitempty"`
}

// String renders the version with a dirty marker for builds from a
// modified working tree.
func (b Build) String() string {
	if b.Dirty {
		return b.Version + "+dirty"
	}
	return b.Version
}

func newVersionCmd(build Build) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"dbmlgen": build,
					"go":      runtime.Version(),
					"os_arch": runtime.GOOS + "/" + runtime.GOARCH,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dbmlgen %s (commit %s, built %s, %s %s/%s)\n",
				build, build.Commit, build.Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}
