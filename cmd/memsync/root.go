package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "memsync",
		Short:         "CRDT synchronization for git-backed memory stores",
		Long:          `Replicates a structured memory corpus between a local cache and a git remote, reconciling divergent writes with last-write-wins merge semantics.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(cmd)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("store", "", "Store name override")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Unattended mode: single status line, warnings only")
}

func addSubcommands(root *cobra.Command, a *app) {
	root.AddCommand(
		NewInitCmd(a),
		NewSyncCmd(a),
		NewStatusCmd(a),
		NewWatchCmd(a),
	)
}

func configureLogging(cmd *cobra.Command) {
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := slog.LevelInfo
	if quiet {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
