package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("fairreview %s (commit: %s, built: %s)\n", orDefault(b.Version, "dev"), orDefault(b.Commit, "unknown"), orDefault(b.BuildDate, "unknown"))
}

// NewVersionCmd prints build information. It needs no configuration.
func NewVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := BuildInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate}
			if asJSON {
				return printJSON(cmd, info)
			}
			return printText(cmd, info)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

//Personal.AI order the ending
