package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// EnsureUser creates or updates an account with a bcrypt hash of password.
func EnsureUser(ctx context.Context, db *sql.DB, username, password string, roles ...string) error {
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}
	if len(roles) == 0 {
		roles = []string{"admin"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "db.ensure_user.hash")
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO user (username, password_hash, roles) VALUES (?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = excluded.password_hash,
			roles = excluded.roles`,
		username,
		hash,
		strings.Join(roles, ","),
	)
	return errors.Wrap(err, "db.ensure_user")
}
