package codegen

import (
	"strings"
	"testing"

	"charvault/pkg/models"
)

func TestRenderEmptyKeepsAnchor(t *testing.T) {
	got := Render(nil)
	if got != staticEntry {
		t.Errorf("expected only the anchor entry, got:\n%s", got)
	}
	if !strings.Contains(got, `name = "Ggio Vega"`) || !strings.Contains(got, "id = 0,") {
		t.Errorf("anchor entry malformed:\n%s", got)
	}
}

func TestRenderEntry(t *testing.T) {
	chars := []models.Character{{
		Record:  "1/2/1",
		Name:    "Ggio Vega",
		Type:    "Grey",
		Release: "Wind",
		StrInit: 13, AgiInit: 22, StaInit: 13,
		StrMul: 0.654, AgiMul: 1.1, StaMul: 0.65,
		BmvStr: 17, BmvAgi: 10, BmvSta: 14,
	}}

	got := Render(chars)

	for _, want := range []string{
		"id = 1,", // resequenced after the anchor at 0
		"record = new int[3] { 1, 2, 1 },",
		`name = "Ggio Vega",`,
		"image = Resources.GgioVega,",
		"pimage = Resources.PGgioVega,",
		`release = "Wind",`,
		"str_init = 13,",
		"str_mul_init = 0.65,", // rounded to two decimals, trailing zeros dropped
		"agi_mul_init = 1.1,",
		"bmv_sta = 14",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderFallbacks(t *testing.T) {
	got := Render([]models.Character{{Name: "No Stats"}})

	for _, want := range []string{
		"record = new int[3] { 0, 0, 0 },",
		"image = Resources.NoStats,",
		`release = "None",`,
		"str_init = 10,",
		"bmv_str = 15,",
		"str_mul_init = 0,",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderSequencesIDs(t *testing.T) {
	got := Render([]models.Character{{Name: "A"}, {Name: "B"}, {Name: "C"}})
	for _, want := range []string{"id = 0,", "id = 1,", "id = 2,", "id = 3,"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q", want)
		}
	}
}
