package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/session"
)

func newValidateCmd(a *app) *cobra.Command {
	var in, planFile string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a unit file or an exported plan",
		Long: `Check that a unit file builds into a plan: unique IDs, known
prerequisites, no cycles, values in range. With --plan, check instead that an
exported plan keeps every unit in exactly one wave after its prerequisites.`,
		Example: `  waveplan validate --in units.yaml
  waveplan validate --plan plan.json`,
		RunE: a.instrumented("validate", func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			switch {
			case in != "" && planFile != "":
				return fmt.Errorf("invalid flag combination: use either --in or --plan")
			case planFile != "":
				p, err := plan.LoadPlan(planFile)
				if err != nil {
					return err
				}
				printf(cmd, "✓ %s: plan v%d with %d units in %d waves is consistent\n",
					planFile, p.Version, len(p.Units), len(p.Waves))
				return nil
			case in != "":
				units, err := plan.LoadUnits(in)
				if err != nil {
					return err
				}
				p, _, err := session.Build(ctx, units, a.buildOptions(-1))
				if err != nil {
					return err
				}
				printf(cmd, "✓ %s: %d units in %d waves, quality %.2f\n",
					in, p.Metrics.TotalUnits, p.Metrics.WaveCount, p.Metrics.QualityScore)
				for _, w := range p.Warnings {
					printf(cmd, "! %s\n", w)
				}
				return nil
			default:
				return fmt.Errorf("required flag(s) \"in\" or \"plan\" not set")
			}
		}),
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "unit file to check")
	cmd.Flags().StringVar(&planFile, "plan", "", "exported plan file to check")
	return cmd
}
