package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droidseed/droidseed/pkg/policy"
	"github.com/droidseed/droidseed/pkg/spec"
	"github.com/droidseed/droidseed/pkg/telemetry"
)

func newValidateCommand() *cobra.Command {
	var (
		serial           string
		allowDestructive bool
		policyPaths      []string
	)

	cmd := &cobra.Command{
		Use:   "validate <state-file>",
		Short: "Validate a device state document",
		Long: `Parse and validate a state document without touching a device.

This command checks:
  - document structure (JSON, YAML, or Starlark)
  - domain names against the known set
  - per-domain payload validation
  - policy compliance (OPA/Rego), using the built-in and any extra policies`,
		Example: `  # Validate a document
  droidseed validate device_state.yaml

  # Validate against the policies a physical-device run would face
  droidseed validate --serial R58M123ABC state.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parser := spec.NewParser()
			doc, err := parser.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("document rejected: %w", err)
			}

			opts := spec.Options{
				DeviceSerial:     serial,
				AllowDestructive: allowDestructive,
			}
			rs := parser.ParseRunSpec(doc, opts)

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
				if err := gate.LoadPolicies(ctx, policyPaths); err != nil {
					return err
				}
			}
			result, err := gate.Evaluate(ctx, rs)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printValidationJSON(rs, result)
			}

			fmt.Printf("Document: %s\n", doc.Source)
			for _, d := range spec.CanonicalOrder {
				if ds, ok := rs.Domains[d]; ok {
					marker := "ok"
					if ds.ClearRequested() {
						marker = "ok (clears)"
					}
					fmt.Printf("  %-16s %s\n", d, marker)
				}
				if err, ok := rs.Rejected[d]; ok {
					fmt.Printf("  %-16s invalid: %v\n", d, err)
				}
			}
			for _, v := range result.Warnings {
				fmt.Printf("warning [%s]: %s\n", v.Policy, v.Message)
			}
			for _, v := range result.Violations {
				fmt.Printf("denied [%s]: %s\n", v.Policy, v.Message)
			}

			if len(rs.Rejected) > 0 {
				return fmt.Errorf("%d domain(s) failed validation", len(rs.Rejected))
			}
			if !result.Allowed {
				return &policy.DenialError{Violations: result.Violations}
			}
			fmt.Println("Document is valid.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&serial, "serial", "s", "", "device serial the run would target")
	cmd.Flags().BoolVar(&allowDestructive, "allow-destructive", false, "permit clear directives on physical devices")
	cmd.Flags().StringArrayVar(&policyPaths, "policy", nil, "extra policy file or directory (repeatable)")

	return cmd
}

func printValidationJSON(rs *spec.RunSpec, result *policy.Result) error {
	type domainStatus struct {
		Domain string `json:"domain"`
		Valid  bool   `json:"valid"`
		Clears bool   `json:"clears,omitempty"`
		Error  string `json:"error,omitempty"`
	}
	out := struct {
		Domains []domainStatus `json:"domains"`
		Policy  *policy.Result `json:"policy"`
	}{Policy: result}

	for _, d := range spec.CanonicalOrder {
		if ds, ok := rs.Domains[d]; ok {
			out.Domains = append(out.Domains, domainStatus{
				Domain: string(d), Valid: true, Clears: ds.ClearRequested(),
			})
		}
		if err, ok := rs.Rejected[d]; ok {
			out.Domains = append(out.Domains, domainStatus{
				Domain: string(d), Valid: false, Error: err.Error(),
			})
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
