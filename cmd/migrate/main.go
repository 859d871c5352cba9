package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"chatbot/internal/config"
	"chatbot/migrations"
)

const usage = `Usage: migrate [up|down|status|version]

Manages the schema of the ClickHouse usage journal (USAGE_JOURNAL=clickhouse).
Connection settings come from CLICKHOUSE_* in config.env, .env or the environment.

  up       apply pending journal migrations (default)
  down     roll back the latest journal migration
  status   list journal migrations and whether they are applied
  version  print the journal schema version`

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	switch command {
	case "up", "down", "status", "version":
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		log.Fatalf("Unknown command %q\n\n%s", command, usage)
	}

	// config.env is written by cmd/setup; .env is the conventional fallback
	if err := godotenv.Load("config.env"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("No config.env or .env file found, using system environment variables")
		}
	}

	cfg, err := config.LoadClickHouseFromEnv()
	if err != nil {
		log.Fatalf("Invalid usage journal configuration: %v", err)
	}

	db, err := sql.Open("clickhouse", dsn(cfg))
	if err != nil {
		log.Fatalf("Failed to open usage journal: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to reach usage journal at %s:%d: %v", cfg.ClickHouseHost, cfg.ClickHousePort, err)
	}

	provider, err := migrations.NewProvider(db)
	if err != nil {
		log.Fatalf("Failed to load journal migrations: %v", err)
	}

	if err := run(ctx, provider, command); err != nil {
		log.Fatalf("Journal migrate %s failed: %v", command, err)
	}
}

func run(ctx context.Context, provider *goose.Provider, command string) error {
	switch command {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			log.Println("Usage journal schema is up to date")
		}
		for _, r := range results {
			log.Println(r)
		}
	case "down":
		result, err := provider.Down(ctx)
		if err != nil {
			return err
		}
		log.Println(result)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			log.Printf("%-30s %s", s.Source.Path, applied)
		}
	case "version":
		version, err := provider.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		log.Printf("Usage journal schema version: %d", version)
	}
	return nil
}

// dsn builds the clickhouse-go DSN for the journal database
func dsn(cfg *config.Config) string {
	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s?dial_timeout=10s&max_execution_time=60",
		cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.ClickHouseHost, cfg.ClickHousePort, cfg.ClickHouseDatabase)
	if cfg.ClickHouseUseTLS {
		dsn += "&secure=true"
	}
	return dsn
}
