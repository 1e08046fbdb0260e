package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/plan"
)

func newDiffCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare the wave layout of two exported plans",
		Long: `Compare two plans exported with --out. Units that moved between
waves, appeared or disappeared are listed, followed by a line diff of the
wave listings. Unit status changes are not layout changes and are ignored.`,
		Args: cobra.ExactArgs(2),
		RunE: a.instrumented("diff", func(_ context.Context, cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			prev, err := plan.LoadPlan(args[0])
			if err != nil {
				return err
			}
			next, err := plan.LoadPlan(args[1])
			if err != nil {
				return err
			}

			d := plan.Diff(prev, next)
			if format == formatJSON {
				data, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal diff: %w", err)
				}
				printf(cmd, "%s\n", data)
				return nil
			}

			if d.Identical() {
				printf(cmd, "plans are identical (fingerprints %s / %s)\n", short(prev.Fingerprint), short(next.Fingerprint))
				return nil
			}
			for _, c := range d.Changes {
				switch c.Kind {
				case plan.ChangeAdded:
					printf(cmd, "+ %s  wave %d\n", c.UnitID, c.ToWave)
				case plan.ChangeRemoved:
					printf(cmd, "- %s  wave %d\n", c.UnitID, c.FromWave)
				default:
					printf(cmd, "~ %s  wave %d -> %d\n", c.UnitID, c.FromWave, c.ToWave)
				}
			}
			for _, w := range d.Reordered {
				printf(cmd, "~ wave %d reordered\n", w)
			}
			printf(cmd, "\n%s", d.Unified)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	return cmd
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
