package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Drops every inkwell table, including goose bookkeeping, so the next server
// start migrates from scratch. Destructive; meant for dev databases only.
func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	tables := []string{
		"versions",
		"file_contents",
		"nodes",
		"goose_db_version",
	}

	for _, table := range tables {
		fmt.Printf("Dropping table %s...\n", table)
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			log.Fatalf("Failed to drop %s: %v", table, err)
		}
	}

	fmt.Println("Done. Run the server to re-apply migrations.")
}
