package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vonout/Backend/config"
	"github.com/vonout/Backend/internal/repository"
	"github.com/vonout/Backend/pkg/database"

	"github.com/jackc/pgx/v5/pgxpool"
)

const usage = `
Vonout Backend - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Create the tables
  down        Drop the tables
  status      Show database connection and table status
  reset       Drop and re-create the tables (DANGEROUS, needs -force)

Flags:
  -database-url string  Overrides DATABASE_URL
  -force                Confirm destructive commands

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate status
  go run ./cmd/migrate -force reset
`

func main() {
	databaseURL := flag.String("database-url", "", "Overrides DATABASE_URL")
	force := flag.Bool("force", false, "Confirm destructive commands")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	url := cfg.DatabaseURL
	if *databaseURL != "" {
		url = *databaseURL
	}
	if url == "" {
		log.Fatal("❌ DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, url)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer pool.Close()

	switch command {
	case "up":
		runMigrationsUp(ctx, pool)
	case "down":
		runMigrationsDown(ctx, pool)
	case "status":
		showStatus(ctx, pool)
	case "reset":
		if !*force {
			log.Fatal("⚠️  reset drops every table; re-run with -force")
		}
		runMigrationsDown(ctx, pool)
		runMigrationsUp(ctx, pool)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("🚀 Running migrations UP...")

	if err := repository.InitSchema(ctx, pool); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func runMigrationsDown(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("⬇️  Rolling back migrations...")

	if err := repository.DropSchema(ctx, pool); err != nil {
		log.Fatalf("❌ Rollback failed: %v", err)
	}

	log.Println("✅ Rollback completed successfully!")
}

func showStatus(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("🔍 Checking database status...")

	if err := database.HealthCheck(ctx, pool); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	exists, count, err := repository.UsersTableStatus(ctx, pool)
	switch {
	case err != nil:
		log.Printf("⚠️  Error checking table discord_users: %v", err)
	case exists:
		log.Printf("✅ Table %-20s exists (%d rows)", "discord_users", count)
	default:
		log.Printf("❌ Table %-20s does not exist", "discord_users")
	}
}
