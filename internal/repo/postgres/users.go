package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/geocoder89/bankly/internal/observability"
	"github.com/geocoder89/bankly/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `username, password_hash, first_name, last_name, email, phone, is_admin, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Phone,
		&u.IsAdmin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UsersRepo) FindByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.find_by_username", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.prom.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

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

func (r *UsersRepo) Insert(ctx context.Context, u user.User) (user.User, error) {
	var created user.User

	err := r.prom.ObserveDB("users.insert", func() error {
		var err error
		created, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (`+userColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 RETURNING `+userColumns,
			u.Username, u.PasswordHash, u.FirstName, u.LastName, u.Email, u.Phone,
			u.IsAdmin, u.CreatedAt, u.UpdatedAt,
		))
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrUsernameTaken
		}
		return user.User{}, err
	}
	return created, nil
}

// UpdateFields applies a builder-produced SET clause. The username is bound
// after the update values.
func (r *UsersRepo) UpdateFields(ctx context.Context, username string, upd utils.PartialUpdate) (user.User, error) {
	if len(upd.Columns) == 0 {
		return user.User{}, utils.ErrEmptyUpdate
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = NOW() WHERE username = $%d RETURNING %s`,
		upd.SetClause, upd.NextPlaceholder(), userColumns,
	)
	args := append(append([]any{}, upd.Args...), username)

	var updated user.User
	err := r.prom.ObserveDB("users.update_fields", func() error {
		var err error
		updated, err = scanUser(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return updated, nil
}

// Delete reports whether a row was removed.
func (r *UsersRepo) Delete(ctx context.Context, username string) (bool, error) {
	var affected int64

	err := r.prom.ObserveDB("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
