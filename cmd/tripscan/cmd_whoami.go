package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoamiCmd(a *app) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the identifier this client uses in the group chat",
		Long: `Shows the identifier stored in the local data directory, creating
it on first use. With --reset the stored identifier is discarded and a
new one is created, so earlier messages no longer show as yours.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				if err := a.identity.Reset(cmd.Context()); err != nil {
					return fmt.Errorf("resetting identifier: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.identity.GetOrCreateID())
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "discard the stored identifier first")
	return cmd
}
