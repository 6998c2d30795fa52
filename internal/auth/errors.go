package auth

import (
	"errors"

	"github.com/geocoder89/authhub/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStoreUnavailable   = errors.New("user store unavailable")

	// re-exported so callers only need this package
	ErrEmailTaken = user.ErrEmailTaken
	ErrNotFound   = user.ErrNotFound
)

// IsUnauthorized reports whether err belongs to the single 401 surface.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenExpired)
}
