package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/musicdeclares/amplify/internal/models"
	"github.com/musicdeclares/amplify/pkg/utils"
)

// EnsureAdmin creates the bootstrap admin user when no user with email exists yet.
func EnsureAdmin(ctx context.Context, repo *Repository, email, password string, logger *zap.Logger) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup admin: %w", err)
	}
	if existing != nil {
		return nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if _, err := repo.Create(ctx, email, hash, models.RoleAdmin, nil); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}
