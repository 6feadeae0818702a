package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stellarreg/api/internal/ids"
	"stellarreg/api/internal/models"
	"stellarreg/api/internal/repository"
	"stellarreg/api/internal/security"
)

var (
	_ AccountStore = (*repository.AdminRepository)(nil)
	_ AccountStore = (*repository.MemoryAdminRepository)(nil)

	_ RegistrationStore = (*repository.RegistrationRepository)(nil)
	_ RegistrationStore = (*repository.MemoryRegistrationRepository)(nil)
)

const MinPasswordLen = 8

type AdminProvisioner interface {
	Create(ctx context.Context, admin models.AdminAccount) error
	SetPassword(ctx context.Context, username string, passwordHash []byte) error
}

// ProvisionAdmin creates username with password. When the username exists and
// rotate is set, the password is replaced and any live session is dropped.
func ProvisionAdmin(
	ctx context.Context,
	store AdminProvisioner,
	hasher *security.Hasher,
	username string,
	password string,
	rotate bool,
) (created bool, err error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, fmt.Errorf("username required")
	}
	if len(password) < MinPasswordLen {
		return false, fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}

	err = store.Create(ctx, models.AdminAccount{
		ID:           ids.New(),
		Username:     username,
		PasswordHash: hash,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrDuplicateUsername) && rotate:
		if err := store.SetPassword(ctx, username, hash); err != nil {
			return false, fmt.Errorf("rotate password: %w", err)
		}
		return false, nil
	case errors.Is(err, repository.ErrDuplicateUsername):
		return false, nil
	default:
		return false, fmt.Errorf("create admin: %w", err)
	}
}
