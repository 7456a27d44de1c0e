package infra

import (
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies pending goose migrations from the given directory.
// goose drives a database/sql connection, so this opens its own short-lived
// handle via the pq driver instead of reusing the pgx pool.
func RunMigrations(databaseURL, dir string) error {
	db, err := goose.OpenDBWithDriver("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration db: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
