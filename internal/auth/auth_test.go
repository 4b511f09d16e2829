package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"charvault/pkg/database"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// every pooled connection would get its own :memory: database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepo(db)
}

func testTokens() TokenService {
	return TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "charvault-test",
		Duration: time.Hour,
	}
}

func TestSignAndParse(t *testing.T) {
	ts := testTokens()
	editor := &Editor{ID: "e1", Email: "ops@example.com", TokenVersion: 3}

	token, exp, err := ts.Sign(editor)
	if err != nil {
		t.Fatal(err)
	}
	if !exp.After(time.Now()) {
		t.Fatal("expiry should be in the future")
	}

	claims, err := ts.Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.EditorID != "e1" || claims.Email != "ops@example.com" || claims.TokenVersion != 3 {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := testTokens().Sign(&Editor{ID: "e1"})
	if err != nil {
		t.Fatal(err)
	}

	other := TokenService{Secret: []byte("different"), Issuer: "x", Duration: time.Hour}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected a signature error")
	}
}

func TestSeedAdminIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SeedAdmin(ctx, "Admin@Example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SeedAdmin(ctx, "admin@example.com", "other-password"); err != nil {
		t.Fatal(err)
	}

	editor, err := repo.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if editor == nil {
		t.Fatal("admin should exist")
	}
}

func TestLoginFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newTestRepo(t)
	ts := testTokens()
	ctx := context.Background()

	if err := repo.SeedAdmin(ctx, "admin@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	NewHandler(repo, ts).RegisterRoutes(r.Group("/auth"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"ADMIN@example.com","password":"hunter22"}`))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/login",
		bytes.NewBufferString(`{"email":"admin@example.com","password":"wrong"}`))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", w.Code)
	}
}

func TestMiddlewareTokenVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := newTestRepo(t)
	ts := testTokens()
	ctx := context.Background()

	if err := repo.SeedAdmin(ctx, "admin@example.com", "hunter22"); err != nil {
		t.Fatal(err)
	}
	editor, err := repo.GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := ts.Sign(editor)
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/protected", Middleware(ts, repo), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": MustGetClaims(c).Email})
	})

	hit := func(auth string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := hit(""); code != http.StatusUnauthorized {
		t.Fatalf("no header status = %d", code)
	}
	if code := hit("Bearer " + token); code != http.StatusOK {
		t.Fatalf("valid token status = %d", code)
	}

	// logout bumps token_version, so the old token stops working
	if err := repo.BumpTokenVersion(ctx, editor.ID); err != nil {
		t.Fatal(err)
	}
	if code := hit("Bearer " + token); code != http.StatusUnauthorized {
		t.Fatalf("stale token status = %d", code)
	}
}
