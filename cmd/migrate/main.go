// Package main provides a CLI tool for running database migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wallet-insights/internal/config"
	"github.com/wallet-insights/internal/storage"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version, seed")
		dbType = flag.String("db", "postgres", "Database type: postgres, clickhouse")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch *dbType {
	case "postgres":
		if err := runPostgresMigrations(ctx, cfg, *action); err != nil {
			log.Fatalf("Postgres migration failed: %v", err)
		}
	case "clickhouse":
		if err := runClickHouseMigrations(ctx, cfg, *action); err != nil {
			log.Fatalf("ClickHouse migration failed: %v", err)
		}
	default:
		log.Fatalf("Unknown database type: %s", *dbType)
	}
}

func runPostgresMigrations(ctx context.Context, cfg *config.Config, action string) error {
	databaseURL := storage.PostgresURL(&cfg.Database.Postgres)
	migrationsPath := "migrations/postgres"

	switch action {
	case "up":
		log.Println("Running Postgres migrations...")
		if err := storage.RunMigrations(databaseURL, migrationsPath); err != nil {
			return err
		}
		log.Println("Postgres migrations completed successfully")
		return seedCatalog(ctx, cfg)

	case "down":
		log.Println("Rolling back Postgres migration...")
		if err := storage.RollbackMigrations(databaseURL, migrationsPath); err != nil {
			return err
		}
		log.Println("Postgres migration rolled back successfully")

	case "version":
		version, dirty, err := storage.MigrationVersion(databaseURL, migrationsPath)
		if err != nil {
			return err
		}
		log.Printf("Current Postgres migration version: %d (dirty: %v)", version, dirty)

	case "seed":
		return seedCatalog(ctx, cfg)

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return nil
}

// seedCatalog loads the embedded protocol catalog into an empty protocols table
func seedCatalog(ctx context.Context, cfg *config.Config) error {
	db, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer db.Close()

	written, err := storage.NewProtocolRepository(db).SeedFromEmbedded(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed protocol catalog: %w", err)
	}
	if written == 0 {
		log.Println("Protocol catalog already populated, skipping seed")
		return nil
	}
	log.Printf("Seeded %d protocols from the embedded catalog", written)
	return nil
}

func runClickHouseMigrations(ctx context.Context, cfg *config.Config, action string) error {
	if action != "up" {
		return fmt.Errorf("ClickHouse migrations only support 'up' action")
	}

	log.Println("Connecting to ClickHouse...")
	db, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing ClickHouse connection: %v", err)
		}
	}()

	migrationsPath := "migrations/clickhouse"
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory not found: %s", migrationsPath)
	}

	log.Println("Running ClickHouse migrations...")
	if err := storage.RunClickHouseMigrations(ctx, db, migrationsPath); err != nil {
		return err
	}

	log.Println("ClickHouse migrations completed successfully")
	return nil
}
