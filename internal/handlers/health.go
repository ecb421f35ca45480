package handlers

import (
	"net/http"

	"github.com/bookshelf-recommend-api/internal/corpus"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store   *corpus.Store
	backend string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *corpus.Store, backend string) *HealthHandler {
	return &HealthHandler{store: store, backend: backend}
}

// HealthResponse is the response for basic health check
type HealthResponse struct {
	Status string `json:"status"`
}

// CorpusHealthResponse is the response for the corpus health check
type CorpusHealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	corpus.Stats
}

// Health handles GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// CorpusHealth handles GET /health/corpus
func (h *HealthHandler) CorpusHealth(c echo.Context) error {
	if h.store == nil {
		return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "not_loaded"})
	}
	return c.JSON(http.StatusOK, CorpusHealthResponse{
		Status:  "loaded",
		Backend: h.backend,
		Stats:   h.store.Stats(),
	})
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/health", h.Health)
	g.GET("/health/corpus", h.CorpusHealth)
}
