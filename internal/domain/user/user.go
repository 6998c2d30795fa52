package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

// User is the stored credential record.
type User struct {
	ID           int64     `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the public view of a user, safe to hand back to callers.
type Identity struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email}
}

func Identities(users []User) []Identity {
	out := make([]Identity, 0, len(users))

	for _, u := range users {
		out = append(out, u.Identity())
	}

	return out
}

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
