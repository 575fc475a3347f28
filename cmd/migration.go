package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/UGZ6/in-shadow-trader/config"
)

const migrationsPath = "file://migrations"

func migrationDSN(db config.Database) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.DBName,
		db.SSLMode)
}

func runMigrations(apply func(*migrate.Migrate) error, doneMsg string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.DB.Host == "" {
		log.Fatal("No database configured: set the database host before migrating")
	}

	m, err := migrate.New(migrationsPath, migrationDSN(cfg.DB))
	if err != nil {
		log.Fatalf("Failed to create migration instance: %v", err)
	}

	switch err := apply(m); {
	case err == nil:
		fmt.Println(doneMsg)
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Println("No schema changes to apply.")
	default:
		log.Fatalf("Migration failed: %v", err)
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("Migration source error on close: %v\n", srcErr)
	}
	if dbErr != nil {
		log.Printf("Migration database error on close: %v\n", dbErr)
	}
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all available database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations(func(m *migrate.Migrate) error { return m.Up() }, "Applied migrations successfully.")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the last database migration",
	Run: func(cmd *cobra.Command, args []string) {
		runMigrations(func(m *migrate.Migrate) error { return m.Steps(-1) }, "Reverted last migration successfully.")
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func init() {
	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
}
