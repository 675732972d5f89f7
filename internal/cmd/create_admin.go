package cmd

import (
	"errors"
	"fmt"
	"shop-service/internal/model"
	"shop-service/pkg/database"
	"shop-service/pkg/password"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
	adminLastname string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator or promote an existing user",
	Long: `Creates a user with the admin flag set. When the email already belongs
to a user, that user is promoted and, if --password is given, its password
is replaced.`,
	RunE: runCreateAdmin,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Administrator email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Administrator password")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "First name")
	createAdminCmd.Flags().StringVar(&adminLastname, "lastname", "Shop", "Last name")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if err := database.InitDB(cfg); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	user, created, err := ensureAdmin(database.GetDB(), adminEmail, adminPassword, adminName, adminLastname)
	if err != nil {
		return err
	}

	log.Info("Administrator ready", zap.Uint("user_id", user.ID), zap.Bool("created", created))
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %s (id %d)\n", user.Email, user.ID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Promoted %s (id %d) to administrator\n", user.Email, user.ID)
	}
	return nil
}

// ensureAdmin creates the user as an administrator or promotes the existing one
func ensureAdmin(db *gorm.DB, email, pw, name, lastname string) (*model.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, errors.New("email is required")
	}

	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{"admin": true}
		if pw != "" {
			hash, salt, err := password.HashWithNewSalt(pw)
			if err != nil {
				return nil, false, fmt.Errorf("hash password: %w", err)
			}
			updates["password"] = hash
			updates["salt"] = salt
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("promote %s: %w", email, err)
		}
		return &user, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		if pw == "" {
			return nil, false, errors.New("password is required for a new administrator")
		}
		hash, salt, err := password.HashWithNewSalt(pw)
		if err != nil {
			return nil, false, fmt.Errorf("hash password: %w", err)
		}
		user = model.User{
			Name:     name,
			Lastname: lastname,
			Email:    email,
			Password: hash,
			Salt:     salt,
			Admin:    true,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, false, fmt.Errorf("create %s: %w", email, err)
		}
		return &user, true, nil

	default:
		return nil, false, fmt.Errorf("look up %s: %w", email, err)
	}
}
