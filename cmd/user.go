/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"database/sql"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/nexo-rrhh/portal/config"
	"github.com/nexo-rrhh/portal/internal/db"
	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/types"
	"github.com/spf13/cobra"
)

var (
	userUsername string
	userPassword string
	userRole     string
	userID       int
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage portal accounts",
	Long: `Manage portal accounts. Usage:

	nexo user create --username maria --password secreto --role RRHH
	nexo user list
	nexo user deactivate --id 3
`,
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an active account",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, conn, err := openUserService(cmd)
		if err != nil {
			return err
		}
		defer conn.Close()

		role := types.Role(strings.ToUpper(strings.TrimSpace(userRole)))
		user, err := users.Create(cmd.Context(), userUsername, userPassword, role)
		if err != nil {
			return fmt.Errorf("create user failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", user.ID, user.Username, user.Role)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account, active or not",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, conn, err := openUserService(cmd)
		if err != nil {
			return err
		}
		defer conn.Close()

		roster, err := users.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list users failed: %w", err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tROLE\tACTIVE\tCREATED")
		for _, u := range roster {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Role, u.IsActive, u.CreatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var userActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Reactivate an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, true)
	},
}

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Deactivate an account and end its sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setUserActive(cmd, false)
	},
}

func setUserActive(cmd *cobra.Command, active bool) error {
	users, conn, err := openUserService(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := users.SetActive(cmd.Context(), userID, active); err != nil {
		return fmt.Errorf("update user %d failed: %w", userID, err)
	}
	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %d %s\n", userID, state)
	return nil
}

func openUserService(cmd *cobra.Command) (*services.UserService, *sql.DB, error) {
	cfg := config.LoadConfig()
	conn, err := db.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return services.NewUserService(store.NewUserRepository(conn)), conn, nil
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userListCmd, userActivateCmd, userDeactivateCmd)

	userCreateCmd.Flags().StringVar(&userUsername, "username", "", "login name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "initial password")
	userCreateCmd.Flags().StringVar(&userRole, "role", string(types.RoleLector), "one of SUPERADMIN, ADMIN, RRHH, LECTOR")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	for _, c := range []*cobra.Command{userActivateCmd, userDeactivateCmd} {
		c.Flags().IntVar(&userID, "id", 0, "user id")
		_ = c.MarkFlagRequired("id")
	}
}
