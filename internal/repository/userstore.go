package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/briefly/briefly/internal/model"
	"github.com/briefly/briefly/internal/quota"
)

// Update implements quota.Store on Postgres. It opens a transaction,
// takes a row lock on the user's record with SELECT ... FOR UPDATE,
// runs fn against the locked row, and persists the mutation before
// committing when fn reports save=true.
//
// The row lock makes the read-evaluate-write sequence one atomic unit
// per user id while leaving other users' rows untouched: two requests
// from the same user serialize on the row, requests from different
// users never block each other. The lock is released on every exit
// path, rejections included, via the deferred rollback.
func (r *Repository) Update(ctx context.Context, userID string, fn func(rec *model.User) (bool, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin usage transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	user, err := scanUser(tx.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return quota.ErrUserNotFound
		}
		return fmt.Errorf("lock user record: %w", err)
	}

	save, fnErr := fn(user)
	if !save || fnErr != nil {
		// Rejection path: nothing written, the rollback releases the lock.
		return fnErr
	}

	update := `
		UPDATE users
		SET requests_today = $2, last_request_date = $3, last_request_time = $4
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update,
		user.ID,
		user.RequestsToday,
		user.LastRequestDate,
		user.LastRequestTime,
	); err != nil {
		return fmt.Errorf("persist usage update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit usage update: %w", err)
	}

	return nil
}
