package character

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"charvault/pkg/models"
)

func newTestServer(t *testing.T) (*gin.Engine, *Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newTestRepo(t)
	h := NewHandler(repo, nil)

	r := gin.New()
	h.RegisterPublic(r.Group("/characters"))
	h.RegisterProtected(r.Group("/characters"))
	return r, repo
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBufferString(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	r.ServeHTTP(w, req)
	return w
}

func TestSaveRequiresName(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(t, r, http.MethodPost, "/characters", `{"name":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestSaveAppliesDefaults(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(t, r, http.MethodPost, "/characters", `{"name":"Itachi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var c models.Character
	if err := json.Unmarshal(w.Body.Bytes(), &c); err != nil {
		t.Fatal(err)
	}
	if c.ID == "" {
		t.Fatal("expected an assigned id")
	}
	if c.Type != models.DefaultType || c.Release != models.DefaultRelease {
		t.Fatalf("defaults not applied: type=%q release=%q", c.Type, c.Release)
	}
}

func TestImportThenExportRoundTrip(t *testing.T) {
	r, _ := newTestServer(t)

	csv := "name,element,STR Mult,chinese\nItachi,Fire,+0.65,TRUE\nSakura,Wind,0.40,\n"
	w := do(t, r, http.MethodPost, "/characters/import", csv)
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body %s", w.Code, w.Body.String())
	}

	var imported struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &imported); err != nil {
		t.Fatal(err)
	}
	if imported.Imported != 2 {
		t.Fatalf("imported = %d, want 2", imported.Imported)
	}

	w = do(t, r, http.MethodGet, "/characters/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"Itachi","","","Grey","Fire"`) || !strings.Contains(body, "TRUE") {
		t.Fatalf("export body:\n%s", body)
	}
}

func TestImportRejectsEmptyDocument(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(t, r, http.MethodPost, "/characters/import", "name,type\n")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestDeleteMissingReturns404(t *testing.T) {
	r, _ := newTestServer(t)

	w := do(t, r, http.MethodDelete, "/characters/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListEndpoint(t *testing.T) {
	r, repo := newTestServer(t)
	seed(t, repo,
		models.Character{Name: "Itachi", Type: "Akatsuki", Release: "Fire"},
		models.Character{Name: "Sakura", Type: "Grey", Release: "Wind"},
	)

	w := do(t, r, http.MethodGet, "/characters?q=itachi", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Total int                `json:"total"`
		Items []models.Character `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 || resp.Items[0].Name != "Itachi" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestCodeEndpoint(t *testing.T) {
	r, repo := newTestServer(t)
	seed(t, repo, models.Character{Name: "Toshiro", Type: "Bankai", Release: "Water"})

	w := do(t, r, http.MethodPost, "/characters/code", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Count int    `json:"count"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d", resp.Count)
	}
	if !strings.Contains(resp.Code, "Toshiro") || !strings.Contains(resp.Code, "GgioVega") {
		t.Fatalf("code:\n%s", resp.Code)
	}
}
