package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/version"
)

func newVersionCmd() *cobra.Command {
	var verbose, asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		// Version needs no configuration or telemetry.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		PersistentPostRun: func(*cobra.Command, []string) {},
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			switch {
			case asJSON:
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal version info: %w", err)
				}
				printf(cmd, "%s\n", data)
			case verbose:
				printf(cmd, "%s\n", info.String())
			default:
				printf(cmd, "waveplan %s\n", info.Short())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed version information")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output version information as JSON")
	return cmd
}
