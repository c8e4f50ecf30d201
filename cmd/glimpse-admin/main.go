// Package main is the entry point for the Glimpse admin CLI.
// It provides account management commands against the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/repository"
	"github.com/glimpse-app/glimpse/internal/repository/postgres"
	"github.com/glimpse-app/glimpse/internal/repository/sqlite"
	"github.com/glimpse-app/glimpse/internal/service"
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

	switch args[0] {
	case "version":
		fmt.Printf("Glimpse Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if len(args) < 2 {
			printUsage()
			os.Exit(1)
		}
		runUserCommand(*configPath, args[1], args[2:])

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// User Commands
// =============================================================================

func runUserCommand(configPath, subcommand string, args []string) {
	svc, cleanup := mustUserService(configPath)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch subcommand {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		out, err := svc.Register(ctx, service.RegisterInput{
			Name:     *name,
			Email:    *email,
			Password: *password,
		})
		if err != nil {
			fail("Failed to create user: %v", err)
		}
		fmt.Printf("Created user %d (%s)\n", out.User.ID, out.User.Email)

	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		limit := fs.Int("limit", 50, "maximum users to list")
		offset := fs.Int("offset", 0, "listing offset")
		_ = fs.Parse(args)

		out, err := svc.List(ctx, service.ListUsersInput{Limit: *limit, Offset: *offset})
		if err != nil {
			fail("Failed to list users: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
		for _, u := range out.Users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format(time.RFC3339))
		}
		w.Flush()
		fmt.Printf("\n%d of %d users\n", len(out.Users), out.TotalCount)

	case "delete":
		fs := flag.NewFlagSet("user delete", flag.ExitOnError)
		id := fs.Int64("id", 0, "user ID")
		_ = fs.Parse(args)

		if err := svc.Delete(ctx, *id); err != nil {
			fail("Failed to delete user: %v", err)
		}
		fmt.Printf("Deleted user %d\n", *id)

	default:
		fmt.Fprintf(os.Stderr, "Unknown user subcommand: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// Setup
// =============================================================================

func mustUserService(configPath string) (*service.UserService, func()) {
	cfg := config.MustLoad(configPath)
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var userRepo repository.UserRepository
	var cleanup func()

	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			fail("Failed to connect: %v", err)
		}
		userRepo = postgres.NewUserRepository(db)
		cleanup = func() { db.Close() }

	case "sqlite", "":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			fail("Failed to open database: %v", err)
		}
		if err := db.Migrate(ctx); err != nil {
			fail("Failed to migrate: %v", err)
		}
		userRepo = sqlite.NewUserRepository(db)
		cleanup = func() { db.Close() }

	default:
		fail("Unsupported database driver: %s", cfg.Database.Driver)
	}

	return service.NewUserService(userRepo, cfg.Auth.BcryptCost, logger), cleanup
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`Glimpse Admin CLI

Usage:
  glimpse-admin [-config <path>] <command> [arguments]

Commands:
  user create   Create an account (--name, --email, --password)
  user list     List accounts (--limit, --offset)
  user delete   Delete an account (--id)
  version       Print version information
  help          Show this help message

Examples:
  glimpse-admin user create --name alice --email alice@example.com --password secret123
  glimpse-admin user list --limit 20
  glimpse-admin user delete --id 42`)
}
