package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droidseed/droidseed/pkg/engine"
)

func newApplyCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "apply <state-file>",
		Short: "Apply a device state document",
		Long: `Apply a declarative state document to the target device.

The document may be JSON, YAML, or Starlark. Domains are applied one at a
time in canonical order; a failed domain is reported and the run moves on
to the next. The command exits non-zero unless every attempted domain
applied cleanly.`,
		Example: `  # Seed the default emulator
  droidseed apply device_state.yaml

  # Seed a physical device, allowing clears
  droidseed apply --serial R58M123ABC --allow-destructive state.json

  # Reproducible random content, history kept
  droidseed apply --seed 42 --history-db runs.db state.star

  # Drive adb on a lab host over SSH
  droidseed apply --remote-host lab01 --remote-user ci --remote-key ~/.ssh/lab state.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := buildRuntime(ctx, &flags)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			report, err := rt.engine.ApplyFile(ctx, args[0], flags.options())
			if report != nil {
				if perr := printReport(os.Stdout, report); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			if report.Overall != engine.OverallSuccess {
				return fmt.Errorf("run finished with status %s", report.Overall)
			}
			return nil
		},
	}

	addRunFlags(cmd, &flags)
	return cmd
}
