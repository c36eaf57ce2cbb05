package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	command := flag.String("command", "up", "one of: up, down, status")
	flag.Parse()

	if err := run(*command); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(command string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	switch command {
	case "up":
		return migrate.Up(ctx, db)
	case "down":
		return migrate.Down(ctx, db)
	case "status":
		return migrate.Status(ctx, db)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
