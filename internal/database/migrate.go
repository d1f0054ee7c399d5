package database

import (
    "database/sql"
    "embed"
    "fmt"

    "github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date.  Migrations are embedded in
// the binary so a fresh instance needs nothing on disk.
func Migrate(db *sql.DB) error {
    goose.SetBaseFS(migrations)
    if err := goose.SetDialect("mysql"); err != nil {
        return fmt.Errorf("set dialect: %w", err)
    }
    if err := goose.Up(db, "migrations"); err != nil {
        return fmt.Errorf("goose up: %w", err)
    }
    return nil
}
