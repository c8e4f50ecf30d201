// Package main is the entry point for the Glimpse database migration tool.
// It manages the PostgreSQL schema; the SQLite backend migrates itself
// on server startup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/repository/postgres"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]

	switch command {
	case "version":
		fmt.Printf("Glimpse Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		db := mustConnect(*configPath)
		defer db.Close()
		if err := db.Migrate(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied")

	case "status":
		db := mustConnect(*configPath)
		defer db.Close()
		version, err := db.MigrationVersion(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read migration version: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Current schema version: %d\n", version)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustConnect(configPath string) *postgres.DB {
	cfg := config.MustLoad(configPath)

	if cfg.Database.Driver != "postgres" {
		fmt.Fprintln(os.Stderr, "This tool only manages the postgres driver; sqlite migrates on startup")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database, zerolog.New(os.Stderr).With().Timestamp().Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	return db
}

func printUsage() {
	fmt.Println(`Glimpse Migration Tool

Usage:
  glimpse-migrate [-config <path>] <command>

Commands:
  up          Run all pending migrations
  status      Show current migration status
  version     Print version information
  help        Show this help message

Environment Variables:
  GLIMPSE_DATABASE_HOST, GLIMPSE_DATABASE_PASSWORD, ...
              Override any configuration value

Examples:
  glimpse-migrate up
  glimpse-migrate -config ./configs/config.yaml status`)
}
