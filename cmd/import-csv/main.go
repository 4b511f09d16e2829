package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"charvault/internal/character"
	"charvault/internal/csvcodec"
	"charvault/pkg/database"
)

func main() {
	var (
		in = flag.String("in", "data/characters.csv", "input CSV path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("read %s: %v", *in, err)
	}

	chars := csvcodec.Parse(string(data))
	if len(chars) == 0 {
		log.Fatalf("no valid records found in %s", *in)
	}

	repo := character.NewRepo(db)
	if _, err := repo.BulkInsert(ctx, chars); err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("✅ imported %d characters from %s", len(chars), *in)
}
