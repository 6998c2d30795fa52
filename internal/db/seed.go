package db

import (
	"context"
	"errors"

	"github.com/geocoder89/authhub/internal/domain/user"
)

type SeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
}

type SeedHasher interface {
	Hash(plain string) (string, error)
}

// EnsureUser creates the configured bootstrap user unless it already exists.
func EnsureUser(ctx context.Context, store SeedStore, hasher SeedHasher, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	// check if the user exists

	_, err := store.GetByEmail(ctx, email)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(password)

	if err != nil {
		return false, err
	}

	_, err = store.Create(ctx, email, hash)

	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}

	return err == nil, err
}
