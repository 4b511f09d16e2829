package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"charvault/internal/character"
	"charvault/internal/csvcodec"
	"charvault/pkg/database"
)

func main() {
	var (
		out = flag.String("out", "", "output CSV path (default game_db_sync_<date>.csv)")
	)
	flag.Parse()

	path := *out
	if path == "" {
		path = fmt.Sprintf("game_db_sync_%s.csv", time.Now().Format("2006-01-02"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := character.NewRepo(db)
	chars, err := repo.FetchAll(ctx)
	if err != nil {
		log.Fatalf("fetch characters: %v", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create %s: %v", dir, err)
		}
	}

	if err := os.WriteFile(path, []byte(csvcodec.Serialize(chars)), 0o644); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}

	log.Printf("✅ exported %d characters to %s", len(chars), path)
}
