package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"charvault/internal/character"
	"charvault/internal/codegen"
	"charvault/pkg/database"
	"charvault/pkg/models"
)

func main() {
	var (
		out = flag.String("out", "OutfitInfos.cs", "output C# source path")
		ids = flag.String("ids", "", "comma-separated character ids (default: whole catalog)")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	repo := character.NewRepo(db)

	var (
		chars []models.Character
		err   error
	)
	if *ids != "" {
		chars, err = repo.GetByIDs(ctx, strings.Split(*ids, ","))
	} else {
		chars, err = repo.FetchAll(ctx)
	}
	if err != nil {
		log.Fatalf("fetch characters: %v", err)
	}

	if err := os.WriteFile(*out, []byte(codegen.Render(chars)), 0o644); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	log.Printf("✅ generated %s with %d entries", *out, len(chars))
}
