package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "watch <state-file>",
		Short: "Re-apply a state document whenever it changes",
		Long: `Apply the state document, then watch it and re-apply on every change.

Useful while iterating on a document against a running emulator: edit,
save, and the device converges. Changes are debounced so editors that
write multiple times per save trigger one run.`,
		Example: `  # Keep the emulator in sync with the document
  droidseed watch device_state.yaml

  # Deterministic content across re-applies
  droidseed watch --seed 7 device_state.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			statePath := args[0]

			rt, err := buildRuntime(ctx, &flags)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			applyOnce := func() {
				report, err := rt.engine.ApplyFile(ctx, statePath, flags.options())
				if report != nil {
					if perr := printReport(os.Stdout, report); perr != nil {
						log.Error().Err(perr).Msg("failed to render report")
					}
				}
				if err != nil {
					log.Error().Err(err).Msg("apply failed")
				}
			}

			applyOnce()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer watcher.Close()

			// Watch the directory: editors replace files on save, which
			// drops a watch on the file itself.
			if err := watcher.Add(filepath.Dir(statePath)); err != nil {
				return fmt.Errorf("failed to watch %s: %w", statePath, err)
			}

			log.Info().Str("file", statePath).Msg("Watching for changes")

			var debounce *time.Timer
			target, _ := filepath.Abs(statePath)
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
						continue
					}
					name, _ := filepath.Abs(event.Name)
					if name != target {
						continue
					}
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(500*time.Millisecond, applyOnce)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					log.Error().Err(err).Msg("watcher error")
				}
			}
		},
	}

	addRunFlags(cmd, &flags)
	return cmd
}
