package database

import (
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies any pending SQL migrations from the migrations directory.
// It is invoked at startup so a fresh database is usable without manual
// schema management.  A run with nothing to apply is not an error.
func Migrate(user, pass, host, port, name string) error {
	url := "mysql://" + DSN(user, pass, host, port, name)
	m, err := migrate.New("file://migrations", url)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Println("database migrations up to date")
	return nil
}
