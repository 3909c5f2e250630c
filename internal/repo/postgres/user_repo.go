package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

type UserRecord struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindByID(ctx context.Context, userID string) (UserRecord, error) {
	if r.pool == nil {
		return UserRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return UserRecord{}, fmt.Errorf("invalid user id")
	}

	var user UserRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, email, created_at
FROM users
WHERE id = $1
`, userID).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserRecord{}, ErrUserNotFound
		}
		return UserRecord{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

// GetCreatedAt returns the account creation timestamp, which anchors the
// trial window.
func (r *UserRepo) GetCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	return user.CreatedAt.UTC(), nil
}
