package main

import (
	"context"
	"fmt"
	"os"

	"rentals/pkg/config"
	"rentals/pkg/db"
)

func main() {
	cfg := config.Load()
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "file://migrations"
	}

	// Uses DIRECT_URL when set; poolers do not handle migration DDL well.
	if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	// Sanity check the runtime connection (DATABASE_URL). DSNs are not printed.
	pool, err := db.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime db open failed: %v\n", err)
		os.Exit(1)
	}
	pool.Close()

	fmt.Println("migrations applied")
}
