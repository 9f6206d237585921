package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/bankly/internal/config"
	"github.com/geocoder89/bankly/internal/domain/user"
)

// AdminStore is the slice of the user store seeding needs.
type AdminStore interface {
	FindByUsername(ctx context.Context, username string) (user.User, error)
	Insert(ctx context.Context, u user.User) (user.User, error)
}

type Hasher interface {
	Hash(plain string) (string, error)
}

// EnsureAdminUser creates the configured admin account when it is missing.
// An existing account is left untouched, whatever its flags.
func EnsureAdminUser(ctx context.Context, store AdminStore, hasher Hasher, cfg config.Config) (bool, error) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	_, err := store.FindByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	_, err = store.Insert(ctx, user.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "User",
		Email:        cfg.AdminUsername + "@localhost",
		Phone:        "",
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	// lost a race with another instance
	if errors.Is(err, user.ErrUsernameTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
