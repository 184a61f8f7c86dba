package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(open sessionOpener) *cobra.Command {
	ctx := &commandContext{open: open}

	rootCmd := &cobra.Command{
		Use:           "curatorctl",
		Short:         "Inspect the current newsletter issues",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.closeSession()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newItemsCommand(ctx))
	rootCmd.AddCommand(newDraftCommand(ctx))
	rootCmd.AddCommand(newAvailableCommand(ctx))
	rootCmd.AddCommand(newFavoriteCommand(ctx))

	return rootCmd
}
