package aiscan

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"charvault/pkg/models"
)

type fakeExtractor struct {
	guess   Guess
	guesses []Guess
	err     error
}

func (f *fakeExtractor) GenerateStats(ctx context.Context, name, description string) (Guess, error) {
	return f.guess, f.err
}

func (f *fakeExtractor) ExtractImage(ctx context.Context, imageBase64 string) (Guess, error) {
	return f.guess, f.err
}

func (f *fakeExtractor) ExtractImages(ctx context.Context, imagesBase64 []string) ([]Guess, error) {
	return f.guesses, f.err
}

func TestGuessCharacterCoercion(t *testing.T) {
	g := Guess{
		"name":       "Itachi",
		"type":       "",
		"str_mul_in": 0.65,
		"bmv_str":    "17 pts",
		"chinese":    true,
	}
	c, ok := g.Character()
	if !ok {
		t.Fatal("expected a usable name")
	}
	if c.Name != "Itachi" {
		t.Fatalf("name = %q", c.Name)
	}
	if c.Type != models.DefaultType {
		t.Fatalf("type = %q, want default %q", c.Type, models.DefaultType)
	}
	if c.StrMul != 0.65 {
		t.Fatalf("str_mul_in = %v", c.StrMul)
	}
	if c.BmvStr != 17 {
		t.Fatalf("bmv_str = %v", c.BmvStr)
	}
	if !c.Chinese {
		t.Fatal("chinese should be true")
	}
}

func TestGuessCharacterNoName(t *testing.T) {
	if _, ok := (Guess{"str_init": 30.0}).Character(); ok {
		t.Fatal("nameless guess should not be usable")
	}
}

func TestStripDataURL(t *testing.T) {
	if got := stripDataURL("data:image/png;base64,AAAA"); got != "AAAA" {
		t.Fatalf("got %q", got)
	}
	if got := stripDataURL("AAAA"); got != "AAAA" {
		t.Fatalf("plain base64 should pass through, got %q", got)
	}
}

func TestDecodeGuessTolerantOfProse(t *testing.T) {
	g, err := decodeGuess("Here you go:\n```json\n{\"name\": \"Madara\", \"str_init\": 42}\n```")
	if err != nil {
		t.Fatal(err)
	}
	if g["name"] != "Madara" {
		t.Fatalf("name = %v", g["name"])
	}
}

func TestDecodeGuessListOrderPreserved(t *testing.T) {
	gs, err := decodeGuessList(`[{"name":"A"},{"name":"B"}]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(gs) != 2 || gs[0]["name"] != "A" || gs[1]["name"] != "B" {
		t.Fatalf("got %v", gs)
	}
}

func TestDecodeGuessNoJSON(t *testing.T) {
	if _, err := decodeGuess("sorry, I cannot read this image"); err == nil {
		t.Fatal("expected an error")
	}
}

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/scan"))
	return r
}

func TestHandlerUnconfigured(t *testing.T) {
	r := newTestRouter(&Handler{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scan/stats", bytes.NewBufferString(`{"name":"x"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHandlerStats(t *testing.T) {
	fake := &fakeExtractor{guess: Guess{"name": "wrong", "str_init": 30.0}}
	r := newTestRouter(&Handler{Extractor: fake})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scan/stats",
		bytes.NewBufferString(`{"name":"Itachi","description":"a shinobi"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var c models.Character
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatal(err)
	}
	if c.Name != "Itachi" {
		t.Fatalf("name should follow the request, got %q", c.Name)
	}
	if c.StrInit != 30 {
		t.Fatalf("str_init = %v", c.StrInit)
	}
}

func TestHandlerImagesSkipsNameless(t *testing.T) {
	fake := &fakeExtractor{guesses: []Guess{
		{"name": "Itachi"},
		{"str_init": 10.0},
	}}
	r := newTestRouter(&Handler{Extractor: fake})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/scan/images",
		bytes.NewBufferString(`{"images":["AAAA","BBBB"]}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Scanned int                `json:"scanned"`
		Items   []models.Character `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Scanned != 1 || len(resp.Items) != 1 {
		t.Fatalf("scanned = %d items = %d", resp.Scanned, len(resp.Items))
	}
}
