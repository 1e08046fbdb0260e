package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/graph"
	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/registry"
	"github.com/felixgeelhaar/waveplan/internal/replan"
	"github.com/felixgeelhaar/waveplan/internal/session"
	"github.com/felixgeelhaar/waveplan/internal/tui"
)

type replanOptions struct {
	in        string
	planFile  string
	succeeded []string
	failed    []string
	out       string
	format    string
}

func newReplanCmd(a *app) *cobra.Command {
	var o replanOptions
	cmd := &cobra.Command{
		Use:   "replan",
		Short: "Apply execution feedback to a plan",
		Long: `Apply execution feedback and print the next plan version.

Successes are applied first, in wave order, then failures. A failed unit
blocks everything that depends on it, directly or transitively; the wave
layout itself never changes. Start from a unit file (--in) or continue from a
plan exported with --out (--plan). On a terminal, leaving out both
--succeeded and --failed prompts for them.`,
		Example: `  waveplan replan --in units.yaml --succeeded A,B --failed C
  waveplan replan --plan plan.json --failed D --out plan.json`,
		RunE: a.instrumented("replan", func(ctx context.Context, cmd *cobra.Command, _ []string) error {
			return a.runReplan(ctx, cmd, o)
		}),
	}

	cmd.Flags().StringVarP(&o.in, "in", "i", "", "unit file to build the starting plan from")
	cmd.Flags().StringVar(&o.planFile, "plan", "", "exported plan to continue from")
	cmd.Flags().StringSliceVar(&o.succeeded, "succeeded", nil, "units that completed")
	cmd.Flags().StringSliceVar(&o.failed, "failed", nil, "units that failed")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "write the new plan as JSON to this file")
	cmd.Flags().StringVarP(&o.format, "format", "f", formatText, "output format: text or json")
	cmd.MarkFlagsMutuallyExclusive("in", "plan")
	cmd.MarkFlagsOneRequired("in", "plan")
	return cmd
}

// startingPlan returns the plan to replan and the checked graph behind it.
func (a *app) startingPlan(ctx context.Context, o replanOptions) (*plan.ExecutionPlan, *graph.Checked, error) {
	if o.in != "" {
		units, err := plan.LoadUnits(o.in)
		if err != nil {
			return nil, nil, err
		}
		return session.Build(ctx, units, a.buildOptions(-1))
	}

	p, err := plan.LoadPlan(o.planFile)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(p.Units))
	for id := range p.Units {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	units := make([]plan.Unit, 0, len(ids))
	for _, id := range ids {
		units = append(units, p.Units[id])
	}

	reg, err := registry.Register(units)
	if err != nil {
		return nil, nil, err
	}
	checked, err := graph.BuildChecked(reg)
	if err != nil {
		return nil, nil, err
	}
	return p, checked, nil
}

func (a *app) runReplan(ctx context.Context, cmd *cobra.Command, o replanOptions) error {
	if err := checkFormat(o.format); err != nil {
		return err
	}

	p, checked, err := a.startingPlan(ctx, o)
	if err != nil {
		return err
	}

	if len(o.succeeded) == 0 && len(o.failed) == 0 && tui.ShouldPrompt() {
		if o.succeeded, o.failed, err = promptFeedback(p); err != nil {
			return err
		}
	}

	coord := replan.New(checked)
	var blocked []string

	for _, id := range inWaveOrder(p, o.succeeded) {
		res, err := coord.ReportSuccess(ctx, p, id)
		if err != nil {
			return err
		}
		p = res.Plan
	}
	for _, id := range o.failed {
		res, err := coord.ReportFailure(ctx, p, id)
		if err != nil {
			return err
		}
		p = res.Plan
		blocked = append(blocked, res.Blocked...)
	}

	a.logger.WithContext(ctx).Info("replanned",
		"version", p.Version,
		"succeeded", len(o.succeeded),
		"failed", len(o.failed),
		"blocked", len(blocked),
	)
	if o.format == formatText && len(blocked) > 0 {
		sort.Strings(blocked)
		printf(cmd, "blocked: %s\n\n", strings.Join(blocked, ", "))
	}
	return emitPlan(cmd, p, o.format, o.out)
}

// inWaveOrder sorts ids by their wave so a batch of successes can be reported
// in any order on the command line.
func inWaveOrder(p *plan.ExecutionPlan, ids []string) []string {
	at := p.Assignments()
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		wi, oki := at[out[i]]
		wj, okj := at[out[j]]
		if oki != okj {
			return oki
		}
		return wi < wj
	})
	return out
}

func promptFeedback(p *plan.ExecutionPlan) (succeeded, failed []string, err error) {
	var runnable []string
	for _, w := range p.Remaining() {
		runnable = append(runnable, w.Units...)
	}
	if len(runnable) == 0 {
		return nil, nil, fmt.Errorf("plan v%d has no pending or scheduled units", p.Version)
	}

	if succeeded, err = tui.PromptForUnits("Which units succeeded?", runnable); err != nil {
		return nil, nil, err
	}
	done := make(map[string]bool, len(succeeded))
	for _, id := range succeeded {
		done[id] = true
	}
	var rest []string
	for _, id := range runnable {
		if !done[id] {
			rest = append(rest, id)
		}
	}
	if failed, err = tui.PromptForUnits("Which units failed?", rest); err != nil {
		return nil, nil, err
	}
	if len(failed) > 0 {
		ok, err := tui.PromptForConfirmation(
			fmt.Sprintf("Mark %s failed and block everything that depends on them?", strings.Join(failed, ", ")), false)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			failed = nil
		}
	}
	return succeeded, failed, nil
}
