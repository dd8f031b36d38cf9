package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pearcestephens/catalogmatch/internal/domain"
	"github.com/pearcestephens/catalogmatch/internal/logging"
	"github.com/pearcestephens/catalogmatch/internal/usecase"
)

const serviceName = "catalogmatch"

// MaxBatchSize caps the number of products accepted by one batch request
const MaxBatchSize = 500

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service *usecase.MatchService
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *usecase.MatchService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logging.OrNop(logger),
	}
}

// MatchRequest is the body of a single match call
type MatchRequest struct {
	Name       string            `json:"name" binding:"required"`
	Brand      string            `json:"brand"`
	SKUOrModel string            `json:"sku_or_model"`
	ImageURL   string            `json:"image_url"`
	Attributes domain.Attributes `json:"attributes"`
}

func (r MatchRequest) toObserved() domain.ObservedProduct {
	return domain.ObservedProduct{
		Name:       r.Name,
		Brand:      r.Brand,
		SKUOrModel: r.SKUOrModel,
		ImageURL:   r.ImageURL,
		Attributes: r.Attributes,
	}
}

// BatchMatchRequest is the body of a batch match call
type BatchMatchRequest struct {
	Products []MatchRequest `json:"products" binding:"required,min=1"`
}

// ExtractRequest is the body of an extraction call
type ExtractRequest struct {
	Text string `json:"text" binding:"required"`
}

// HealthCheck returns the health status of the API.
// A matcher running on a degraded snapshot still answers, with status "degraded".
func (h *Handler) HealthCheck(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"service": serviceName,
			"error":   "match service not configured",
		})
		return
	}

	snap := h.service.Matcher().Snapshot()
	body := gin.H{
		"status":          "healthy",
		"service":         serviceName,
		"catalog_entries": snap.Len(),
		"generation":      snap.Generation(),
	}
	if err := snap.LoadErr(); err != nil {
		body["status"] = "degraded"
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

// Match scores one observed product against the catalog
func (h *Handler) Match(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.service.Match(c.Request.Context(), req.toObserved())
	if err != nil {
		h.writeMatchError(c, err, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MatchBatch scores many observed products against one snapshot, keeping input order
func (h *Handler) MatchBatch(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req BatchMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if len(req.Products) > MaxBatchSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "batch exceeds maximum size", "max": MaxBatchSize})
		return
	}

	observed := make([]domain.ObservedProduct, len(req.Products))
	for i, p := range req.Products {
		observed[i] = p.toObserved()
	}

	results, err := h.service.MatchBatch(c.Request.Context(), observed)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"results": results})
	case errors.Is(err, domain.ErrCatalogUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "results": results})
	default:
		h.logger.Warn("batch match aborted", zap.Int("size", len(observed)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

// Extract runs brand and nicotine extraction over free text
func (h *Handler) Extract(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	body := gin.H{}
	if brand, ok := h.service.Matcher().ExtractBrand(req.Text); ok {
		body["brand"] = brand
	}
	if nicotine, ok := usecase.ExtractNicotine(req.Text); ok {
		body["nicotine"] = nicotine
	}
	c.JSON(http.StatusOK, body)
}

// RefreshCatalog reloads the catalog snapshot from the store
func (h *Handler) RefreshCatalog(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	if err := h.service.Refresh(c.Request.Context()); err != nil {
		h.logger.Error("catalog refresh failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	h.CatalogInfo(c)
}

// CatalogInfo describes the snapshot currently in use
func (h *Handler) CatalogInfo(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	snap := h.service.Matcher().Snapshot()
	body := gin.H{
		"entries":    snap.Len(),
		"generation": snap.Generation(),
		"loaded_at":  snap.LoadedAt().UTC().Format(time.RFC3339),
	}
	if err := snap.LoadErr(); err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "match service not configured",
		})
		return false
	}
	return true
}

func (h *Handler) writeMatchError(c *gin.Context, err error, result *domain.MatchResult) {
	switch {
	case errors.Is(err, domain.ErrCatalogUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "result": result})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("match failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
