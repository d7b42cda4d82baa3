package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-pos-ws/internal/model"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/service"
)

var (
	adminUsername string
	adminPassword string
	newPassword   string
)

func userService() (service.UserService, error) {
	db, _, err := openDB()
	if err != nil {
		return nil, err
	}
	return service.NewUserService(repository.NewUserRepo(db)), nil
}

// createAdminCmd seeds the bootstrap admin
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account if the username is free",
	Long: `Create an admin account if the username is free.

Examples:
  posctl create-admin                                  # uses ADMIN_USERNAME / ADMIN_PASSWORD
  posctl create-admin --username boss --password s3cret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if adminUsername == "" {
			adminUsername = cfg.AdminUsername
		}
		if adminPassword == "" {
			adminPassword = cfg.AdminPassword
		}

		users, err := userService()
		if err != nil {
			return err
		}
		admin, created, err := users.EnsureAdmin(cmd.Context(), adminUsername, adminPassword)
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists (role %s)\n", admin.Username, admin.Role)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %s\n", admin.Username, admin.ID)
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Set a new password for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := userService()
		if err != nil {
			return err
		}
		if err := users.ResetPassword(cmd.Context(), args[0], newPassword); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password for %s has been reset\n", args[0])
		return nil
	},
}

var setStatusCmd = &cobra.Command{
	Use:       "set-status <username> <active|suspended|banned>",
	Short:     "Activate, suspend or ban an account",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"active", "suspended", "banned"},
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := model.ParseStatus(args[1])
		if err != nil {
			return err
		}
		users, err := userService()
		if err != nil {
			return err
		}
		if err := users.SetStatus(cmd.Context(), args[0], status); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], status)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "Admin username (default $ADMIN_USERNAME)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (default $ADMIN_PASSWORD)")

	resetPasswordCmd.Flags().StringVarP(&newPassword, "password", "p", "", "New password, at least 6 characters")
	resetPasswordCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(createAdminCmd, resetPasswordCmd, setStatusCmd)
}
