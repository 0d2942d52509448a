// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/briefly/briefly/internal/auth"
	"github.com/briefly/briefly/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// UniqueID returns a unique identifier with the given prefix.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, ulid.Make().String())
}

// NewTestUser builds a user record with a freshly generated API key.
// The plaintext key is returned alongside so tests can authenticate.
func NewTestUser(t testing.TB, plan model.Plan) (*model.User, string) {
	t.Helper()

	key, err := auth.GenerateAPIKey(auth.EnvTest)
	if err != nil {
		t.Fatalf("generate API key: %v", err)
	}

	user := &model.User{
		ID:        UniqueID("user"),
		KeyHash:   key.Hash,
		KeyPrefix: key.Prefix,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),
	}
	return user, key.Plaintext
}

const advisoryLockID int64 = 815081

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetUsersSchema drops and recreates the users schema for tests.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", "000001_users.down.sql")
	upPath := filepath.Join(root, "migrations", "000001_users.up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// ProjectRoot locates the repository root from this source file.
func ProjectRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("cannot determine caller location")
	}
	// internal/testutil/testutil.go -> repo root
	return filepath.Abs(filepath.Join(filepath.Dir(file), "..", ".."))
}

// RandomHexPrefix returns a random 6-char hex string usable as a key
// prefix in fixtures where collisions must be provoked or avoided.
func RandomHexPrefix() string {
	const alphabet = "0123456789abcdef"
	b := make([]byte, 6)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}
