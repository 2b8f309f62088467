package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var username, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			e, err := opts.openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			user, err := e.auth.CreateUser(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user.Profile())
		},
	}
	create.Flags().StringVar(&username, "username", "", "Username")
	create.Flags().StringVar(&password, "password", "", "Password")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func newClubCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "club",
		Short: "Manage book clubs",
	}

	var owner, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a club owned by an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ownerID, err := e.userID(cmd.Context(), owner)
			if err != nil {
				return err
			}
			club, err := e.clubs.Create(cmd.Context(), ownerID, name)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), club)
		},
	}
	create.Flags().StringVar(&owner, "owner", "", "Username of the first moderator")
	create.Flags().StringVar(&name, "name", "", "Club name")
	_ = create.MarkFlagRequired("owner")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func newInviteCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Manage invite links",
	}

	var slug, as string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a single-use invite link for a club",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			callerID, err := e.userID(cmd.Context(), as)
			if err != nil {
				return err
			}
			issued, err := e.invites.Issue(cmd.Context(), slug, callerID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), issued)
		},
	}
	issue.Flags().StringVar(&slug, "club", "", "Club slug")
	issue.Flags().StringVar(&as, "as", "", "Username of a club moderator")
	_ = issue.MarkFlagRequired("club")
	_ = issue.MarkFlagRequired("as")

	cmd.AddCommand(issue)
	return cmd
}
