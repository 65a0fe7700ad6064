package main

import (
	"github.com/spf13/cobra"

	"github.com/kgellert/hodatay-groups/internal/groups"
)

func newGroupsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List, show and create groups",
	}

	cmd.AddCommand(
		newGroupsListCmd(opts),
		newGroupsShowCmd(opts),
		newGroupsCreateCmd(opts),
	)

	return cmd
}

func newGroupsListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := opts.client().ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), gs)
			}
			writeGroupTable(cmd.OutOrStdout(), gs)
			return nil
		},
	}
}

func newGroupsShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.client().GetGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), g)
			}
			if g == nil {
				return writePlain(cmd.OutOrStdout(), "group %s not found\n", args[0])
			}
			return writeGroupDetail(cmd.OutOrStdout(), *g)
		},
	}
}

func newGroupsCreateCmd(opts *options) *cobra.Command {
	var p groups.CreateGroupParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().CreateGroup(cmd.Context(), p); err != nil {
				return err
			}
			return writePlain(cmd.OutOrStdout(), "group %q created\n", p.Name)
		},
	}

	cmd.Flags().StringVar(&p.Name, "name", "", "group name")
	cmd.Flags().StringVar(&p.Description, "description", "", "group description")
	cmd.Flags().StringVar(&p.IconURL, "icon-url", "", "group icon URL")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
