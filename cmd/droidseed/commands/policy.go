package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droidseed/droidseed/pkg/policy"
	"github.com/droidseed/droidseed/pkg/telemetry"
)

func newPolicyCommand() *cobra.Command {
	var policyPaths []string

	cmd := &cobra.Command{
		Use:   "policy",
		Short: "List the policies that gate seeding runs",
		Long: `List the built-in policies plus any loaded from --policy paths.

Policies with error or critical severity block a run; warnings are logged
and the run proceeds.`,
		Example: `  droidseed policy
  droidseed policy --policy ./policies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := telemetry.NewLogger(telemetry.LoggingConfig{
				Level: "error", Format: "console", Output: "stderr", TimeFormat: "rfc3339",
			})
			if err != nil {
				return err
			}
			gate, err := policy.NewGate(log)
			if err != nil {
				return err
			}
			if len(policyPaths) > 0 {
				if err := gate.LoadPolicies(cmd.Context(), policyPaths); err != nil {
					return err
				}
			}

			policies := gate.ListPolicies()

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(policies)
			}

			for _, p := range policies {
				state := "enabled"
				if !p.Enabled {
					state = "disabled"
				}
				fmt.Printf("%-24s %-8s %-8s %s\n", p.Name, p.Severity, state, p.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&policyPaths, "policy", nil, "extra policy file or directory (repeatable)")

	return cmd
}
