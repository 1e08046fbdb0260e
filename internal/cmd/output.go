package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/waveplan/internal/plan"
	"github.com/felixgeelhaar/waveplan/internal/tui"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("invalid flag --format %q (want text or json)", format)
	}
	return nil
}

// emitPlan writes p to stdout in format and, when out is set, saves it as
// JSON for later replan or diff runs.
func emitPlan(cmd *cobra.Command, p *plan.ExecutionPlan, format, out string) error {
	if out != "" {
		if err := plan.SavePlan(p, out); err != nil {
			return err
		}
	}

	if format == formatJSON {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal plan: %w", err)
		}
		printf(cmd, "%s\n", data)
		return nil
	}

	printf(cmd, "%s", tui.RenderPlan(p))
	if out != "" {
		printf(cmd, "\nplan written to %s\n", out)
	}
	return nil
}
