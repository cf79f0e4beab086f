package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the local cache and sync on change",
		Long:  `Watches the store root for changes to the local cache and runs a synchronization cycle after each change burst.`,
		Args:  cobra.NoArgs,
		RunE:  makeWatchRunner(a),
	}

	cmd.Flags().Duration("debounce", 2*time.Second, "Debounce window for batching changes")
	return cmd
}

func makeWatchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		store, _ := cmd.Flags().GetString("store")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		scope := a.resolver.Resolve(store)
		if _, err := os.Stat(scope.CachePath()); os.IsNotExist(err) {
			return fmt.Errorf("store not initialized: %s", scope.CachePath())
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(scope.Root); err != nil {
			return fmt.Errorf("watch %s: %w", scope.Root, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", scope.CachePath())

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false
		var lastSync time.Time

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Name != scope.CachePath() {
					continue
				}
				// the cycle's own cache write fires an event too; only a
				// modification newer than the last sync is a user edit
				if !modifiedSince(scope.CachePath(), lastSync) {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				pending = false
				if err := runWatchCycle(cmd, a, store); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "sync failed: %v\n", err)
				}
				if info, err := os.Stat(scope.CachePath()); err == nil {
					lastSync = info.ModTime()
				}
			}
		}
	}
}

func runWatchCycle(cmd *cobra.Command, a *app, store string) error {
	syncer, err := a.syncerFor(store)
	if err != nil {
		return err
	}

	result, err := syncer.Run(cmd.Context())
	if err != nil {
		return err
	}

	if result.Published {
		fmt.Fprintf(cmd.OutOrStdout(), "Published %s\n", result.CommitMessage())
	}
	return nil
}

// modifiedSince reports whether the file at path changed after t. A
// missing or unreadable file counts as changed so its deletion still
// triggers a cycle.
func modifiedSince(path string, t time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.ModTime().After(t)
}
