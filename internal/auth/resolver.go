package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/authhub/internal/domain/user"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// Resolver looks users up by email. Every call reads the store.
type Resolver struct {
	users UserReader
}

func NewResolver(users UserReader) *Resolver {
	return &Resolver{users: users}
}

// ByEmail returns nil, nil when no user has this email.
func (r *Resolver) ByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := r.users.GetByEmail(ctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return &u, nil
}
