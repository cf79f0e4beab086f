package main

import (
	"fmt"

	"github.com/4thel00z/memsync/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init <remote-url>",
		Short: "Initialize a store",
		Long:  `Creates the store root, an empty local cache, and a config pointing at the given remote. The remote must be an https URL on an allow-listed host with an owner/repo path.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeInitRunner(a),
	}
}

func makeInitRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, _ := cmd.Flags().GetString("store")
		scope := a.resolver.Resolve(store)

		if err := internal.InitStore(scope, args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized store %s at %s\n", scope.Store, scope.Root)
		return nil
	}
}
