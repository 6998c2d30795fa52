package auth

import (
	"context"
	"fmt"

	"github.com/geocoder89/authhub/internal/domain/user"
)

// Users serves the id-keyed CRUD routes. Passwords are hashed on every write.
type Users struct {
	store  UserStore
	hasher PasswordHasher
	creds  *Service
}

func NewUsers(store UserStore, hasher PasswordHasher, creds *Service) *Users {
	return &Users{store: store, hasher: hasher, creds: creds}
}

func (u *Users) List(ctx context.Context) ([]user.Identity, error) {
	all, err := u.store.List(ctx)

	if err != nil {
		return nil, storeErr(err)
	}

	return user.Identities(all), nil
}

func (u *Users) Get(ctx context.Context, id int64) (user.Identity, error) {
	found, err := u.store.GetByID(ctx, id)

	if err != nil {
		return user.Identity{}, storeErr(err)
	}

	return found.Identity(), nil
}

func (u *Users) Create(ctx context.Context, email, password string) (user.Identity, error) {
	hash, err := u.hasher.Hash(password)

	if err != nil {
		return user.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := u.store.Create(ctx, email, hash)

	if err != nil {
		return user.Identity{}, storeErr(err)
	}

	return created.Identity(), nil
}

func (u *Users) Update(ctx context.Context, id int64, email, password string) (user.Identity, error) {
	return u.creds.ChangeCredentials(ctx, id, email, password)
}

func (u *Users) Delete(ctx context.Context, id int64) error {
	err := u.store.Delete(ctx, id)

	if err != nil {
		return storeErr(err)
	}

	return nil
}
