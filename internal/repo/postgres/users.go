package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/authhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// DBObserver wraps a logical DB operation, e.g. to time it.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type UsersRepo struct {
	pool     *pgxpool.Pool
	observer DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, observer DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, observer: observer}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.observer == nil {
		return fn()
	}

	return r.observer.ObserveDB(op, fn)
}

const selectUser = `SELECT user_id, email, password_hash, created_at, updated_at FROM users`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE email = $1`, email))
		return err
	})

	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE user_id = $1`, id))
		return err
	})

	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			RETURNING user_id, email, password_hash, created_at, updated_at`,
			email, passwordHash,
		))
		return err
	})

	return u, mapWriteErr(err)
}

func (r *UsersRepo) Update(ctx context.Context, id int64, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.observe("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			SET email = $2, password_hash = $3, updated_at = NOW()
			WHERE user_id = $1
			RETURNING user_id, email, password_hash, created_at, updated_at`,
			id, email, passwordHash,
		))
		return err
	})

	return u, mapWriteErr(err)
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	return r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}

		return nil
	})
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, selectUser+` ORDER BY user_id ASC`)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]user.User, 0)

		for rows.Next() {
			u, err := scanUser(rows)

			if err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return user.ErrEmailTaken
	}

	return err
}
