package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/droidseed/droidseed/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect persisted run history",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "droidseed.db", "SQLite history database")

	cmd.AddCommand(newHistoryListCommand(&dbPath))
	cmd.AddCommand(newHistoryShowCommand(&dbPath))

	return cmd
}

func openHistory(ctx context.Context, dbPath string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return store, nil
}

func newHistoryListCommand(dbPath *string) *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Example: `  droidseed history list --db runs.db
  droidseed history list --limit 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openHistory(ctx, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}
			for _, run := range runs {
				fmt.Printf("%s  %-16s %4d items  %s  %s\n",
					run.StartedAt.Format(time.RFC3339),
					run.Overall,
					run.ItemsWritten,
					run.ID,
					run.Source,
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "runs to skip")

	return cmd
}

func newHistoryShowCommand(dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its domain passes and errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openHistory(ctx, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			passes, err := store.ListDomainPasses(ctx, run.ID)
			if err != nil {
				return err
			}

			type passWithErrors struct {
				*stores.DomainPass
				Errors []*stores.ItemError `json:"errors,omitempty"`
			}
			detailed := make([]passWithErrors, 0, len(passes))
			for _, pass := range passes {
				itemErrors, err := store.ListItemErrors(ctx, pass.ID)
				if err != nil {
					return err
				}
				detailed = append(detailed, passWithErrors{DomainPass: pass, Errors: itemErrors})
			}

			if jsonOutput {
				out := struct {
					Run    *stores.Run      `json:"run"`
					Passes []passWithErrors `json:"passes"`
				}{Run: run, Passes: detailed}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("Run %s (%s)\n", run.ID, run.Source)
			fmt.Printf("Overall: %s\n", run.Overall)
			fmt.Printf("Started: %s\n", run.StartedAt.Format(time.RFC3339))
			if run.PreflightError != nil {
				fmt.Printf("Preflight error: %s\n", *run.PreflightError)
			}
			for _, pass := range detailed {
				fmt.Printf("  %-16s %-18s %d/%d items  %dms\n",
					pass.Domain, pass.Status, pass.ItemsWritten, pass.ItemsTotal, pass.DurationMs)
				for _, e := range pass.Errors {
					if e.ItemIndex >= 0 {
						fmt.Printf("      item %d [%s]: %s\n", e.ItemIndex, e.Op, e.Cause)
					} else {
						fmt.Printf("      [%s]: %s\n", e.Op, e.Cause)
					}
				}
			}
			return nil
		},
	}

	return cmd
}
