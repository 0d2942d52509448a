package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/briefly/briefly/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = `id, key_hash, key_prefix, plan, requests_today, last_request_date, last_request_time, created_at`

// CreateUser inserts a new user record. Provisioning happens
// out-of-band (bootstrap script); the API itself never creates users.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, key_hash, key_prefix, plan, requests_today, last_request_date, last_request_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.KeyHash,
		user.KeyPrefix,
		string(user.Plan),
		user.RequestsToday,
		user.LastRequestDate,
		user.LastRequestTime,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// GetUsersByKeyPrefix retrieves all users whose API key carries the
// given visible prefix. Used during authentication to find candidate
// records for hash verification; prefix collisions yield multiple rows.
func (r *Repository) GetUsersByKeyPrefix(ctx context.Context, prefix string) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE key_prefix = $1`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by key prefix: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// scanUser scans a single row into a User model.
func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	var plan string

	err := row.Scan(
		&user.ID,
		&user.KeyHash,
		&user.KeyPrefix,
		&plan,
		&user.RequestsToday,
		&user.LastRequestDate,
		&user.LastRequestTime,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := model.ParsePlan(plan)
	if err != nil {
		return nil, err
	}
	user.Plan = parsed

	return &user, nil
}
