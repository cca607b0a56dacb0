package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/modcraft-labs/dbcforge/internal/cli/config"
)

// debounceDelay coalesces the event bursts editors produce on save.
const debounceDelay = 250 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-apply patches whenever a patch file changes",
		Long: `Watch the patches directory and re-run apply on every change to a
YAML patch file. Each run starts from the pristine source tables, so the
output always reflects the current patch set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetCurrentConfig()
			logger := config.GetLogger(cmd.Context())

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("creating watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(cfg.PatchesDir); err != nil {
				return fmt.Errorf("watching %s: %w", cfg.PatchesDir, err)
			}

			if _, err := runApply(cmd, nil); err != nil {
				// A failing run should not stop the watch; the next save
				// may fix it.
				logger.Warn("apply failed", "error", err)
			}

			logger.Info("watching for patch changes", "dir", cfg.PatchesDir)

			var timer *time.Timer
			runs := make(chan struct{}, 1)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !isPatchFile(event.Name) {
						continue
					}
					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
						!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
						continue
					}
					if timer != nil {
						timer.Stop()
					}
					timer = time.AfterFunc(debounceDelay, func() {
						select {
						case runs <- struct{}{}:
						default:
						}
					})
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watch error", "error", err)
				case <-runs:
					logger.Info("patches changed, re-applying")
					if _, err := runApply(cmd, nil); err != nil {
						logger.Warn("apply failed", "error", err)
					}
				}
			}
		},
	}
	return cmd
}

func isPatchFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
