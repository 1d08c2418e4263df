package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/viktor-siropol/taskhub/internal/database"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (defaults to $MIGRATIONS_DIR or ./migrations)")
	flag.Parse()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	migrationsDir := *dir
	if migrationsDir == "" {
		migrationsDir = os.Getenv("MIGRATIONS_DIR")
	}
	if migrationsDir == "" {
		migrationsDir = "./migrations"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, databaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := database.ApplyMigrations(ctx, db, migrationsDir); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
}
