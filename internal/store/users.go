// Package store holds the gorm-backed repositories. Every method takes the
// request context and scopes its own session from the shared pool.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"money-layer/internal/apperr"
	"money-layer/internal/models"

	"gorm.io/gorm"
)

// Profile carries the editable company fields of a user.
type Profile struct {
	NomeEmpresa      *string
	CnpjCpf          *string
	EmailContato     *string
	Telefone         *string
	EnderecoCompleto *string
}

// UserStore is the credential store.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindByUsername returns apperr.ErrNotFound when no row matches.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// FindByID returns apperr.ErrNotFound when no row matches.
func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user. A taken username yields apperr.ErrConflict, both
// from the pre-check and from the unique index when two requests race.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", u.Username).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("username %q already exists: %w", u.Username, apperr.ErrConflict)
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("username %q already exists: %w", u.Username, apperr.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetCredentials replaces the password hash and role of an existing user.
func (s *UserStore) SetCredentials(ctx context.Context, id uint, hash, role string) error {
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "role": role}).Error; err != nil {
		return fmt.Errorf("update credentials: %w", err)
	}
	return nil
}

// RecordLoginFailure bumps the failure counter and locks the account for lockFor
// once threshold consecutive failures are reached.
func (s *UserStore) RecordLoginFailure(ctx context.Context, u *models.User, threshold int, lockFor time.Duration, now time.Time) error {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= threshold {
		until := now.Add(lockFor)
		u.LockedUntil = &until
		u.FailedLoginAttempts = 0
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(map[string]any{
		"failed_login_attempts": u.FailedLoginAttempts,
		"locked_until":          u.LockedUntil,
	}).Error; err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

// RecordLoginSuccess clears the lockout state and stamps the login time.
func (s *UserStore) RecordLoginSuccess(ctx context.Context, u *models.User, now time.Time) error {
	if u.FailedLoginAttempts == 0 && u.LockedUntil == nil && u.LastLoginAt != nil &&
		now.Sub(*u.LastLoginAt) < time.Minute {
		return nil
	}
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(u).Updates(map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return fmt.Errorf("record login success: %w", err)
	}
	return nil
}

// UpdateProfile overwrites all profile fields of the user and returns the fresh row.
func (s *UserStore) UpdateProfile(ctx context.Context, id uint, p Profile) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]any{
			"nome_empresa":      p.NomeEmpresa,
			"cnpj_cpf":          p.CnpjCpf,
			"email_contato":     p.EmailContato,
			"telefone":          p.Telefone,
			"endereco_completo": p.EnderecoCompleto,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	return s.FindByID(ctx, id)
}
