package storage

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func ParseDirection(raw string) (Direction, error) {
	switch Direction(raw) {
	case Up, Down:
		return Direction(raw), nil
	default:
		return "", fmt.Errorf("storage: unknown migration direction %q", raw)
	}
}

func MigrateUp(db *sqlx.DB) error {
	_, err := Migrate(db, Up)
	return err
}

func MigrateDown(db *sqlx.DB) error {
	_, err := Migrate(db, Down)
	return err
}

// Migrate applies every embedded migration for the direction and returns
// the file names in the order they ran. Down runs newest first.
func Migrate(db *sqlx.DB, dir Direction) ([]string, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*."+string(dir)+".sql")
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)
	if dir == Down {
		sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	}
	applied := make([]string, 0, len(entries))
	for _, name := range entries {
		sqlBytes, readErr := migrationFiles.ReadFile(name)
		if readErr != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, readErr)
		}
		if _, execErr := db.Exec(string(sqlBytes)); execErr != nil {
			return applied, fmt.Errorf("apply migration %s: %w", name, execErr)
		}
		applied = append(applied, name)
	}
	return applied, nil
}
