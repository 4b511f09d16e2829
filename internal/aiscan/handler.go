package aiscan

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"charvault/internal/metrics"
	"charvault/pkg/models"
)

// Handler exposes the extraction endpoints. Extractor may be nil when no
// API key is configured; the routes then answer 503.
type Handler struct {
	Extractor Extractor
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stats", h.stats)
	rg.POST("/image", h.image)
	rg.POST("/images", h.images)
}

func (h *Handler) configured(c *gin.Context) bool {
	if h.Extractor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai extraction not configured"})
		return false
	}
	return true
}

func (h *Handler) stats(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	guess, err := h.Extractor.GenerateStats(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	char, _ := guess.Character()
	char.Name = req.Name
	metrics.RecordsScanned.Inc()
	c.JSON(http.StatusOK, char)
}

func (h *Handler) image(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	guess, err := h.Extractor.ExtractImage(c.Request.Context(), req.Image)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	char, ok := guess.Character()
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "could not read a character name from the image"})
		return
	}
	metrics.RecordsScanned.Inc()
	c.JSON(http.StatusOK, char)
}

func (h *Handler) images(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	var req struct {
		Images []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "images are required"})
		return
	}
	guesses, err := h.Extractor.ExtractImages(c.Request.Context(), req.Images)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	chars := make([]models.Character, 0, len(guesses))
	for _, g := range guesses {
		if char, ok := g.Character(); ok {
			chars = append(chars, char)
		}
	}
	metrics.RecordsScanned.Add(float64(len(chars)))
	c.JSON(http.StatusOK, gin.H{"scanned": len(chars), "items": chars})
}
