package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetSecret looks up a secret value by name in the app_secrets table. The
// boolean reports whether the name exists.
func (db *DB) GetSecret(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := db.pool.QueryRow(ctx,
		`SELECT value FROM app_secrets WHERE name = $1`,
		name,
	).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	return value, true, nil
}
