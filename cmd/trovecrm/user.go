package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/robtrove/TroveCRM/internal/config"
	"github.com/robtrove/TroveCRM/internal/domain"
	"github.com/robtrove/TroveCRM/internal/infra/database"
	"github.com/robtrove/TroveCRM/internal/infra/repository"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage operator accounts",
}

var (
	userRole     string
	userPassword string
	userName     string
	userEmail    string
	userRemote   bool
)

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an operator account",
	Long: `Create an operator account. By default the account is written straight
to the database named in --config; with --remote it is created through the
API using the current session, which must belong to an admin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := domain.User{
			Username: args[0],
			Name:     userName,
			Email:    userEmail,
			Role:     domain.Role(userRole),
		}
		if !user.Role.Valid() {
			return domain.ValidationError{Field: "role", Message: "must be admin, support or sales"}
		}
		password := userPassword
		if password == "" {
			var err error
			password, err = readPassword("Password: ")
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		var (
			created domain.User
			err     error
		)
		if userRemote {
			created, err = addUserRemote(ctx, user, password)
		} else {
			created, err = addUserLocal(ctx, user, password)
		}
		if err != nil {
			return err
		}
		colorGreen.Printf("created %s (%s) %s\n", created.Username, created.Role, created.ID)
		return nil
	},
}

func addUserLocal(ctx context.Context, user domain.User, password string) (domain.User, error) {
	if password == "" {
		return domain.User{}, domain.ValidationError{Field: "password", Message: "required"}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return domain.User{}, err
	}
	db, err := database.Open(cfg.Server.DatabaseDriver, cfg.Server.DatabaseDsn, logger)
	if err != nil {
		return domain.User{}, errors.Wrap(err, "failed to connect database")
	}
	if err := database.Migrate(db); err != nil {
		return domain.User{}, errors.Wrap(err, "failed to migrate database")
	}
	return repository.NewUserRepository(db).Create(ctx, user, password)
}

func addUserRemote(ctx context.Context, user domain.User, password string) (domain.User, error) {
	c, _, err := sessionClient()
	if err != nil {
		return domain.User{}, err
	}
	created, err := c.CreateUser(ctx, user, password)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func init() {
	userAddCmd.Flags().StringVar(&userRole, "role", string(domain.RoleSales), "admin, support or sales")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "password (prompted when empty)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userAddCmd.Flags().BoolVar(&userRemote, "remote", false, "create the account through the API")
	userCmd.AddCommand(userAddCmd)
}
