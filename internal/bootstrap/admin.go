package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brightform/userhub/internal/config"
	"github.com/brightform/userhub/internal/repository"
	"github.com/brightform/userhub/internal/service"
)

// EnsureAdmin provisions a first admin account at startup when the seed
// credentials are configured. It runs through the regular saga so the
// identity and the record stay consistent.
func EnsureAdmin(lc fx.Lifecycle, cfg config.Config, provisioning *service.ProvisioningService, users repository.UserRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdmin(ctx, cfg, provisioning, users, logger)
		},
	})
}

func ensureAdmin(ctx context.Context, cfg config.Config, provisioning *service.ProvisioningService, users repository.UserRepository, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		return nil
	}

	if _, err := users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	registration, err := provisioning.Register(ctx, service.RegisterInput{
		Name:     "Admin",
		Email:    email,
		Password: cfg.SeedAdminPassword,
	})
	if err != nil {
		var apiErr *service.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			// Identity already exists at the provider from an earlier run.
			if logger != nil {
				logger.Warn("seed admin already registered at identity provider", zap.String("email", email))
			}
			return nil
		}
		return err
	}

	if logger != nil {
		logger.Info("seed admin provisioned",
			zap.String("email", registration.User.Email),
			zap.String("user_id", registration.User.ID),
		)
	}
	return nil
}
