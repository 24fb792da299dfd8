package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/servicedesk/internal/app/models"
	appRepos "github.com/yigit/servicedesk/internal/app/repositories"
	"github.com/yigit/servicedesk/internal/pkg/apperrors"
	"github.com/yigit/servicedesk/internal/pkg/auth"
	"github.com/yigit/servicedesk/internal/pkg/validation"
)

// AdminAccount describes the bootstrap administrator
type AdminAccount struct {
	EmployeeID string
	Email      string
	Password   string
}

// EnsureAdmin creates the bootstrap admin worker unless an account with that employee ID exists.
// Without a password nothing is created, since workers cannot promote themselves.
func EnsureAdmin(ctx context.Context, workers appRepos.IWorkerRepository, acct AdminAccount, lgr zerolog.Logger) error {
	employeeID := validation.NormalizeIdentifier(acct.EmployeeID)
	if employeeID == "" {
		lgr.Debug().Msg("No admin employee ID configured, skipping admin seed")
		return nil
	}

	exists, err := workers.EmployeeIDExists(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to check admin account: %w", err)
	}
	if exists {
		lgr.Debug().Str("employeeID", employeeID).Msg("Admin account already exists")
		return nil
	}

	if strings.TrimSpace(acct.Password) == "" {
		lgr.Warn().Str("employeeID", employeeID).Msg("SEED_ADMIN_PASSWORD not set, admin account not created")
		return nil
	}
	if len(acct.Password) < auth.MinPasswordLength {
		return fmt.Errorf("admin password must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := auth.HashPassword(acct.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &appModels.Worker{
		EmployeeID:   employeeID,
		Email:        validation.NormalizeEmail(acct.Email),
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         appModels.RoleAdmin,
		IsActive:     true,
	}
	if err := workers.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyExists) || errors.Is(err, apperrors.ErrEmployeeIDExists) {
			lgr.Warn().Err(err).Str("employeeID", employeeID).Msg("Admin account conflicts with an existing worker")
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	lgr.Info().Int64("workerID", admin.ID).Str("employeeID", employeeID).Msg("Admin account created")
	return nil
}
