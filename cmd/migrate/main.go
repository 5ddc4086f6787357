package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/ipmap/internal/pkg/config"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	// Migrations always target the database, whatever the API reads from.
	if os.Getenv("IPMAP_RECORDS_SOURCE") == "" {
		_ = os.Setenv("IPMAP_RECORDS_SOURCE", "postgres")
	}
	cfg, err := config.Load("ipmap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, pool, false)
	case "down":
		runMigrations(ctx, pool, true)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// runMigrations applies NNN_name.sql files in order, or NNN_name.down.sql files
// in reverse order when down is set.
func runMigrations(ctx context.Context, pool *pgxpool.Pool, down bool) {
	files, err := migrationFiles(migrationsDir, down)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no migrations found in %s", migrationsDir)
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	if down {
		log.Println("all migrations reverted")
		return
	}
	log.Println("all migrations applied")
}

func migrationFiles(dir string, down bool) ([]string, error) {
	all, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range all {
		if strings.HasSuffix(f, ".down.sql") == down {
			files = append(files, f)
		}
	}

	sort.Strings(files)
	if down {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}
	return files, nil
}
