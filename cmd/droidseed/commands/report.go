package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/droidseed/droidseed/pkg/engine"
)

const timeRounding = time.Millisecond

// printReport renders a run report, as JSON when --json is set and as a
// human-readable summary otherwise.
func printReport(w io.Writer, report *engine.RunReport) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Run %s (%s)\n", report.RunID, report.Source)
	fmt.Fprintf(w, "Overall: %s\n", report.Overall)
	if report.PreflightError != "" {
		fmt.Fprintf(w, "Preflight error: %s\n", report.PreflightError)
		return nil
	}

	for _, o := range report.Outcomes {
		fmt.Fprintf(w, "  %-16s %-18s %d/%d items", o.Domain, o.Status, o.ItemsWritten, o.ItemsTotal)
		if o.Cleared {
			fmt.Fprint(w, "  (cleared)")
		}
		fmt.Fprintf(w, "  %s\n", o.Duration.Round(timeRounding))
		for _, e := range o.Errors {
			if e.Index >= 0 {
				fmt.Fprintf(w, "      item %d [%s]: %s\n", e.Index, e.Op, e.Cause)
			} else {
				fmt.Fprintf(w, "      [%s]: %s\n", e.Op, e.Cause)
			}
		}
	}
	fmt.Fprintf(w, "Total items written: %d\n", report.ItemsWritten())
	return nil
}
