package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func openForMigrations(dbURL string) (*sql.DB, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	sqlDB, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("open db for migrations: %w", err)
	}
	return sqlDB, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, dbURL string) error {
	sqlDB, err := openForMigrations(dbURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration, or down to target when
// target is positive.
func MigrateDown(ctx context.Context, dbURL string, target int64) error {
	sqlDB, err := openForMigrations(dbURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if target > 0 {
		err = goose.DownToContext(ctx, sqlDB, migrationsDir, target)
	} else {
		err = goose.DownContext(ctx, sqlDB, migrationsDir)
	}
	if err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

func MigrateStatus(ctx context.Context, dbURL string) error {
	sqlDB, err := openForMigrations(dbURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return goose.StatusContext(ctx, sqlDB, migrationsDir)
}
