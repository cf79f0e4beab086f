package main

import (
	"fmt"

	"github.com/4thel00z/memsync/internal"
	"github.com/spf13/cobra"
)

func NewStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show store status",
		Long:  `Shows the local entry count, lock state, and the most recent historical snapshot without taking the lock.`,
		Args:  cobra.NoArgs,
		RunE:  makeStatusRunner(a),
	}
}

func makeStatusRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		store, _ := cmd.Flags().GetString("store")
		scope := a.resolver.Resolve(store)

		status, err := internal.InspectStore(scope, nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Store:    %s\n", status.Store)
		fmt.Fprintf(cmd.OutOrStdout(), "Entries:  %d\n", status.EntryCount)
		if status.Locked {
			fmt.Fprintf(cmd.OutOrStdout(), "Lock:     held by pid %d\n", status.LockPID)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Lock:     free")
		}
		if status.LastSnapshot != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot: %s\n", status.LastSnapshot)
		}
		return nil
	}
}
