// Package aiscan asks a vision-capable LLM to read character cards and
// suggest stats. Everything the model returns is a best-effort estimate
// with no correctness contract, so guesses pass through the same coercion
// rules as CSV-sourced fields before anything downstream sees them.
package aiscan

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"charvault/internal/csvcodec"
	"charvault/pkg/models"
)

// Guess is one raw, untrusted extraction result keyed by field name.
type Guess map[string]any

// Extractor produces stat guesses from prompts or card screenshots.
type Extractor interface {
	// GenerateStats invents balanced stats for a named character.
	GenerateStats(ctx context.Context, name, description string) (Guess, error)
	// ExtractImage reads one card screenshot (base64 PNG).
	ExtractImage(ctx context.Context, imageBase64 string) (Guess, error)
	// ExtractImages reads a batch of card screenshots in one call.
	ExtractImages(ctx context.Context, imagesBase64 []string) ([]Guess, error)
}

// Character coerces the guess into a record. The bool reports whether the
// model produced a usable name; the partial record is returned either way
// so it can pre-fill a form.
func (g Guess) Character() (models.Character, bool) {
	fields := make(map[string]string, len(g))
	for k, v := range g {
		fields[k] = stringify(v)
	}
	return csvcodec.FromFields(fields)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// stripDataURL drops a "data:image/png;base64," style prefix when present,
// since browser clients tend to send whole data URLs.
func stripDataURL(image string) string {
	if i := strings.IndexByte(image, ','); i >= 0 && strings.Contains(image[:i], ";base64") {
		return image[i+1:]
	}
	return image
}
