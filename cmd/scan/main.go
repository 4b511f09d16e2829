package main

import (
	"context"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charvault/internal/aiscan"
	"charvault/internal/character"
	"charvault/pkg/config"
	"charvault/pkg/database"
)

// scan reads card screenshots from a directory, asks the extractor for
// stats, and upserts whatever comes back with a readable name.
func main() {
	var (
		dir   = flag.String("dir", "cards", "directory of card screenshots (png)")
		batch = flag.Int("batch", 5, "images per extraction request")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AnthropicKey == "" {
		log.Fatal("CHARVAULT_ANTHROPIC_API_KEY is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	images, err := loadImages(*dir)
	if err != nil {
		log.Fatalf("load images: %v", err)
	}
	if len(images) == 0 {
		log.Fatalf("no png images in %s", *dir)
	}
	log.Printf("scanning %d images from %s", len(images), *dir)

	extractor := aiscan.NewAnthropicExtractor(cfg.AnthropicKey, cfg.AnthropicModel)
	repo := character.NewRepo(db)

	saved, skipped := 0, 0
	for start := 0; start < len(images); start += *batch {
		end := start + *batch
		if end > len(images) {
			end = len(images)
		}

		guesses, err := extractor.ExtractImages(ctx, images[start:end])
		if err != nil {
			log.Fatalf("extract batch %d-%d: %v", start, end, err)
		}

		for _, g := range guesses {
			char, ok := g.Character()
			if !ok {
				skipped++
				continue
			}
			if _, err := repo.Upsert(ctx, char); err != nil {
				log.Fatalf("save %s: %v", char.Name, err)
			}
			log.Printf("saved %s", char.Name)
			saved++
		}
	}

	log.Printf("✅ scanned %d images: %d saved, %d unreadable", len(images), saved, skipped)
}

func loadImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}
	return images, nil
}
