package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kgellert/hodatay-groups/internal/profile"
)

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the display name used for new messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := opts.displayName()
			if errors.Is(err, profile.ErrNoName) {
				return writePlain(cmd.OutOrStdout(), "no display name set, run set-name first\n")
			}
			if err != nil {
				return err
			}
			return writePlain(cmd.OutOrStdout(), "%s\n", name)
		},
	}
}

func newSetNameCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "set-name <name>",
		Short: "Set the display name attached to messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withProfile(func(store *profile.Store) error {
				if err := store.SetName(args[0]); err != nil {
					return err
				}
				return writePlain(cmd.OutOrStdout(), "display name set to %s\n", args[0])
			})
		},
	}
}
