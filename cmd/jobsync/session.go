package main

import (
	"fmt"

	"github.com/bassista/jobsync/internal/auth"
	"github.com/bassista/jobsync/internal/model"
	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var creds auth.Credentials
	var role string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds.Role = model.Role(role)
			user, err := c.app.Session.Login(cmd.Context(), creds)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome back %s (%s).\n", displayName(*user), user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&role, "role", string(model.RoleStudent), "Role: student, recruiter, admin or freelancer")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := c.app.Session.CurrentUser()
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", displayName(*user), user.Email, user.Role)
			return nil
		},
	}
}

// requireRole fails early when the stored user cannot use a role-gated command.
func (c *cli) requireRole(roles ...model.Role) (*model.User, error) {
	user := c.app.Session.CurrentUser()
	if user == nil {
		return nil, fmt.Errorf("not logged in: run 'jobsync login' first")
	}
	for _, r := range roles {
		if user.Role == r {
			return user, nil
		}
	}
	return nil, fmt.Errorf("this command is not available to the %s role", user.Role)
}

func displayName(u model.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
