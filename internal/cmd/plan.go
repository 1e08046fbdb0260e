package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/errors"
	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/session"
	"github.com/felixgeelhaar/waveplan/internal/tui"
)

type planOptions struct {
	in       string
	out      string
	maxWidth int
	format   string
	review   bool
}

func newPlanCmd(a *app) *cobra.Command {
	var o planOptions
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build an execution plan from a unit file",
		Long: `Build an execution plan from a JSON, YAML or TOML unit file.

Units are layered into waves by longest dependency path; within a wave they
are ordered by priority, then complexity, then ID. With --max-width, wide
layers are split into consecutive sub-waves.`,
		Example: `  waveplan plan --in units.yaml
  waveplan plan --in units.yaml --out plan.json --max-width 4
  waveplan plan --in units.json --format json`,
		RunE: a.instrumented("plan", func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			return a.runPlan(ctx, cmd, o)
		}),
	}

	cmd.Flags().StringVarP(&o.in, "in", "i", "", "unit file (.json, .yaml, .yml, .toml)")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "write the plan as JSON to this file")
	cmd.Flags().IntVar(&o.maxWidth, "max-width", -1, "maximum units per wave (0 = unlimited, default from config)")
	cmd.Flags().StringVarP(&o.format, "format", "f", formatText, "output format: text or json")
	cmd.Flags().BoolVar(&o.review, "review", false, "review the plan interactively before writing it")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) buildOptions(maxWidth int) session.Options {
	if maxWidth < 0 {
		maxWidth = a.cfg.Scheduler.MaxWaveWidth
	}
	return session.Options{
		MaxWaveWidth: maxWidth,
		Quality:      a.cfg.Quality,
		Logger:       a.logger,
		Metrics:      a.metrics,
	}
}

func (a *app) runPlan(ctx context.Context, cmd *cobra.Command, o planOptions) error {
	if err := checkFormat(o.format); err != nil {
		return err
	}

	units, err := plan.LoadUnits(o.in)
	if err != nil {
		return err
	}
	p, _, err := session.Build(ctx, units, a.buildOptions(o.maxWidth))
	if err != nil {
		return err
	}

	if o.review && tui.ShouldPrompt() {
		res, err := tui.RunPlanReview(p)
		if err != nil {
			return err
		}
		if !res.Approved {
			return fmt.Errorf("%w: %s", errors.ErrPlanRejected, res.Reason)
		}
	}

	return emitPlan(cmd, p, o.format, o.out)
}
