package main

import (
	"fmt"

	"github.com/ourgarden/backend/internal/models"
	"github.com/ourgarden/backend/internal/services"
	"github.com/spf13/cobra"
)

var (
	userName     string
	userPassword string
	userRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user <email>",
	Short: "Create a login account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, closeLog, err := loadConfig()
		if err != nil {
			return err
		}
		defer closeLog()

		db, err := models.InitDB(cfg)
		if err != nil {
			return err
		}
		if err := models.Migrate(db); err != nil {
			return err
		}

		users := services.NewUserService(db, cfg.BcryptCost)
		user, err := users.CreateUser(cmd.Context(), args[0], userPassword, userName, userRole)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&userName, "name", "", "display name")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "initial password")
	createUserCmd.Flags().StringVar(&userRole, "role", models.RoleAdmin, "admin or user")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("password")
}
