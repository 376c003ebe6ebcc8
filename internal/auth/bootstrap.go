package auth

import (
	"context"
	"errors"
	"fmt"

	"money-layer/internal/apperr"
	"money-layer/internal/config"
	"money-layer/internal/logging"
	"money-layer/internal/models"
	"money-layer/internal/store"
	"money-layer/internal/util"
)

// Bootstrap seeds the configured master credential as an admin account. It runs
// once at startup: the row is created when missing, promoted to admin and re-keyed
// when the stored secret no longer matches. Without a configured pair it does nothing.
// cache may be nil; otherwise the account's cached copy is dropped after any write.
func Bootstrap(ctx context.Context, users *store.UserStore, cache UserCache, cfg config.BootstrapConfig, bcryptCost int, log *logging.Logger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithComponent(logging.ComponentAuth)

	u, err := users.FindByUsername(ctx, cfg.AdminUsername)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		hash, err := util.HashPassword(cfg.AdminPassword, bcryptCost)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		u = &models.User{
			Username:     cfg.AdminUsername,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			Provider:     models.ProviderLocal,
		}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if cache != nil {
			cache.Invalidate(ctx, u.Username)
		}
		log.Info("admin account created", logging.FieldOperation, logging.OpBootstrap, logging.FieldUserID, u.ID)
		return nil
	case err != nil:
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	if u.Role == models.RoleAdmin && util.CheckPassword(cfg.AdminPassword, u.PasswordHash) {
		return nil
	}
	hash, err := util.HashPassword(cfg.AdminPassword, bcryptCost)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if err := users.SetCredentials(ctx, u.ID, hash, models.RoleAdmin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if cache != nil {
		cache.Invalidate(ctx, u.Username)
	}
	log.Info("admin account refreshed", logging.FieldOperation, logging.OpBootstrap, logging.FieldUserID, u.ID)
	return nil
}
