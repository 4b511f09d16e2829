package character

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"charvault/internal/codegen"
	"charvault/internal/csvcodec"
	"charvault/internal/events"
	"charvault/internal/metrics"
	"charvault/pkg/models"
)

// maxImportBytes bounds CSV upload bodies; spreadsheet exports for this
// catalog are a few hundred KB at most.
const maxImportBytes = 10 << 20

type Handler struct {
	Repo *Repo
	Hub  *events.Hub
}

func NewHandler(repo *Repo, hub *events.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

// RegisterPublic mounts the read-only routes.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/stats", h.stats)
	rg.GET("/export", h.exportCSV)
	rg.POST("/code", h.code)
	rg.GET("/:id", h.getByID)
}

// RegisterProtected mounts the mutating routes; callers wrap the group in
// the auth middleware.
func (h *Handler) RegisterProtected(rg *gin.RouterGroup) {
	rg.POST("", h.save)
	rg.PUT("/:id", h.save)
	rg.DELETE("/:id", h.remove)
	rg.POST("/delete-batch", h.removeBatch)
	rg.POST("/import", h.importCSV)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Q:       c.Query("q"),
		Type:    c.Query("type"),
		Release: c.Query("release"),
		Sort:    c.Query("sort"),
		Limit:   parseInt(c.Query("limit"), 50),
		Offset:  parseInt(c.Query("offset"), 0),
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) stats(c *gin.Context) {
	counts, err := h.Repo.CountByType(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"types":    counts,
		"tiers":    models.CharacterTypes,
		"elements": models.ReleaseTypes,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	ch, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if ch == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *Handler) save(c *gin.Context) {
	var payload models.Character
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if id := strings.TrimSpace(c.Param("id")); id != "" {
		payload.ID = id
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	if payload.Type == "" {
		payload.Type = models.DefaultType
	}
	if payload.Release == "" {
		payload.Release = models.DefaultRelease
	}

	stored, err := h.Repo.Upsert(c.Request.Context(), payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if h.Hub != nil {
		go h.Hub.Broadcast(events.Saved(stored.ID, stored.Name))
	}
	c.JSON(http.StatusOK, stored)
}

func (h *Handler) remove(c *gin.Context) {
	id := c.Param("id")
	found, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if h.Hub != nil {
		go h.Hub.Broadcast(events.Deleted(id))
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type deleteBatchReq struct {
	IDs []string `json:"ids"`
}

func (h *Handler) removeBatch(c *gin.Context) {
	var req deleteBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids required"})
		return
	}

	deleted, err := h.Repo.DeleteSet(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	if h.Hub != nil && deleted > 0 {
		go h.Hub.Broadcast(events.Cleared(int(deleted)))
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// importCSV ingests a delimited-text body. The parser itself never fails;
// an empty parse is reported as an error here because a human just uploaded
// a file expecting records out of it.
func (h *Handler) importCSV(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}

	parsed := csvcodec.Parse(string(body))
	if len(parsed) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid records found"})
		return
	}

	stored, err := h.Repo.BulkInsert(c.Request.Context(), parsed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}

	metrics.RecordsImported.Add(float64(len(stored)))
	if h.Hub != nil {
		go h.Hub.Broadcast(events.Imported(len(stored)))
	}

	c.JSON(http.StatusCreated, gin.H{
		"imported": len(stored),
		"items":    stored,
	})
}

func (h *Handler) exportCSV(c *gin.Context) {
	chars, err := h.Repo.FetchAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	metrics.RecordsExported.Add(float64(len(chars)))

	filename := fmt.Sprintf("game_db_sync_%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csvcodec.Serialize(chars)))
}

type codeReq struct {
	IDs []string `json:"ids"`
}

// code renders the C# Outfit list for the requested records, or for the
// whole catalog when no ids are given.
func (h *Handler) code(c *gin.Context) {
	var req codeReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	var (
		chars []models.Character
		err   error
	)
	if len(req.IDs) > 0 {
		chars, err = h.Repo.GetByIDs(c.Request.Context(), req.IDs)
	} else {
		chars, err = h.Repo.FetchAll(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(chars),
		"code":  codegen.Render(chars),
	})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
