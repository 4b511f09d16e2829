package models

import (
	"strings"
	"time"
)

// Character is the canonical record for one character/outfit.
//
// All external inputs (CSV imports, AI scans, form payloads) are coerced
// into this structure first, then we write to the DB from this
// representation. An empty ID means the record has not been persisted yet;
// IDs are assigned at save time.
type Character struct {
	ID      string `json:"id,omitempty"`
	Record  string `json:"record"` // free-text engine code, e.g. "1/2/1"
	Name    string `json:"name"`
	Image   string `json:"image"`
	PImage  string `json:"pimage"`
	Type    string `json:"type"`
	Release string `json:"release"`

	StrInit float64 `json:"str_init"`
	AgiInit float64 `json:"agi_init"`
	StaInit float64 `json:"sta_init"`
	StrMul  float64 `json:"str_mul_in"`
	AgiMul  float64 `json:"agi_mul_in"`
	StaMul  float64 `json:"sta_mul_in"`
	BmvStr  float64 `json:"bmv_str"`
	BmvAgi  float64 `json:"bmv_agi"`
	BmvSta  float64 `json:"bmv_sta"`

	Chinese bool `json:"chinese"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CharacterTypes lists the known tiers in rank order, weakest first.
// Ingestion is lenient: unknown tiers pass through as free text.
var CharacterTypes = []string{
	"Grey",
	"Blue",
	"Orange",
	"Shippuden",
	"Bankai",
	"Resurrected",
	"Espadas",
	"S-Rank",
	"Legends",
	"Limited Legends",
	"Lieutenants",
	"Akatsuki",
	"Heroes of the Villages",
	"Captains",
	"Kages",
	"Yonkos & Mugiwaras",
	"Mythics",
}

// ReleaseTypes lists the known elements.
var ReleaseTypes = []string{
	"Wind", "Fire", "Earth", "Lightning", "Tool", "Illusion",
	"Healing", "Sealing", "Taijutsu", "Water", "Void",
}

const (
	DefaultType    = "Grey"
	DefaultRelease = "Wind"
)

// TierRank returns the position of t in CharacterTypes. Unknown tiers sort
// after every known one.
func TierRank(t string) int {
	for i, known := range CharacterTypes {
		if known == t {
			return i
		}
	}
	return len(CharacterTypes)
}

// ResourceName derives the engine resource identifier for a character name
// by stripping all whitespace ("Ggio Vega" -> "GgioVega").
func ResourceName(name string) string {
	return strings.Join(strings.Fields(name), "")
}
