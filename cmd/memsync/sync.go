package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization cycle",
		Long:  `Locks the store, merges the local cache with the remote corpus, archives a daily snapshot, and publishes the result if anything changed.`,
		Args:  cobra.NoArgs,
		RunE:  makeSyncRunner(a),
	}
}

func makeSyncRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		store, _ := cmd.Flags().GetString("store")
		quiet, _ := cmd.Flags().GetBool("quiet")

		syncer, err := a.syncerFor(store)
		if err != nil {
			return err
		}
		syncer.SetVerbose(!quiet)

		result, err := syncer.Run(cmd.Context())
		if err != nil {
			return err
		}

		if !quiet && result.Preview != "" {
			fmt.Fprint(cmd.OutOrStdout(), result.Preview)
		}

		switch {
		case result.Published:
			fmt.Fprintf(cmd.OutOrStdout(), "Published %s (%s)\n", result.CommitMessage(), result.CommitHash[:min(8, len(result.CommitHash))])
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Up to date: %d entries\n", result.MergedCount)
		}
		return nil
	}
}
