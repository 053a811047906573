package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gostats/adapters/postgres"
	"gostats/domain/core"
	"gostats/domain/stats"
	"gostats/internal/errors"
	"gostats/internal/migration"
)

// migrate applies the schema and optionally imports stats tables exported
// as JSON (gostats ... -o table.json).
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [tables_dir]")
	}
	databaseURL := os.Args[1]

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Printf("Schema version %s applied", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	tablesDir := os.Args[2]

	files, err := findTableFiles(tablesDir)
	if err != nil {
		log.Fatalf("Failed to find table files: %v", err)
	}
	log.Printf("Found %d table files to import from %s", len(files), tablesDir)

	repo := postgres.NewStatsTableRepository(db)
	imported, skipped := 0, 0
	for _, file := range files {
		table, err := loadTableFromFile(file)
		if err != nil {
			log.Printf("Failed to load table from %s: %v", file, err)
			skipped++
			continue
		}

		if _, err := repo.GetTable(ctx, table.ID); err == nil {
			log.Printf("Table %s already stored, skipping %s", table.ID, filepath.Base(file))
			skipped++
			continue
		} else if errors.GetCode(err) != errors.CodeNotFound {
			log.Printf("Failed to look up table %s: %v", table.ID, err)
			skipped++
			continue
		}

		if err := repo.SaveTable(ctx, table); err != nil {
			log.Printf("Failed to save table %s: %v", table.ID, err)
			skipped++
			continue
		}
		imported++
		log.Printf("Imported table %s (%s, %d rows) from %s", table.ID, table.Test, table.Len(), filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findTableFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func loadTableFromFile(path string) (*stats.StatsTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var table stats.StatsTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}

	// tables written by hand may lack a usable id; derive a stable one from the path
	if _, err := core.ParseTableID(table.ID.String()); err != nil {
		table.ID = core.TableID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String())
	}
	return &table, nil
}
