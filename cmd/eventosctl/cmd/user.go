package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/eventos-api/internal/model"
	"github.com/iliyamo/eventos-api/internal/repository"
)

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Change account roles and activation",
	}
	userCmd.AddCommand(newSetRoleCommand(), newSetActiveCommand())
	return userCmd
}

func newSetRoleCommand() *cobra.Command {
	var username, role string
	c := &cobra.Command{
		Use:   "set-role",
		Short: "Set a user's role (USER or ADMIN)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToUpper(strings.TrimSpace(role))
			if role != model.RoleUser && role != model.RoleAdmin {
				return fmt.Errorf("invalid role %q: want %s or %s", role, model.RoleUser, model.RoleAdmin)
			}
			return withUsers(func(ctx context.Context, users *repository.UserRepo) error {
				if err := users.UpdateRole(ctx, username, role); err != nil {
					return describeUserErr(username, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", username, role)
				return nil
			})
		},
	}
	c.Flags().StringVar(&username, "username", "", "account to change")
	c.Flags().StringVar(&role, "role", "", "new role (USER or ADMIN)")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("role")
	return c
}

func newSetActiveCommand() *cobra.Command {
	var (
		username string
		active   bool
	)
	c := &cobra.Command{
		Use:   "set-active",
		Short: "Enable or disable login for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(func(ctx context.Context, users *repository.UserRepo) error {
				if err := users.SetActive(ctx, username, active); err != nil {
					return describeUserErr(username, err)
				}
				state := "disabled"
				if active {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", username, state)
				return nil
			})
		},
	}
	c.Flags().StringVar(&username, "username", "", "account to change")
	c.Flags().BoolVar(&active, "active", true, "whether the account may log in")
	_ = c.MarkFlagRequired("username")
	return c
}

func withUsers(fn func(ctx context.Context, users *repository.UserRepo) error) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return fn(ctx, repository.NewUserRepo(db))
}

func describeUserErr(username string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("no user named %q", username)
	}
	return err
}
