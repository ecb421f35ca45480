package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bookshelf-recommend-api/internal/models"
	"github.com/bookshelf-recommend-api/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	msgInvalidBody = "Invalid request body."
	msgEmptyQuery  = "Query is empty."
)

// RecommendHandler handles recommendation and suggestion endpoints
type RecommendHandler struct {
	recommender *services.RecommendService
}

// NewRecommendHandler creates a new recommend handler
func NewRecommendHandler(recommender *services.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommender: recommender}
}

// Recommend handles POST /recommend
func (h *RecommendHandler) Recommend(c echo.Context) error {
	var req models.RecommendRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(msgInvalidBody)
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := c.Validate(&req); err != nil {
		return badRequest(msgEmptyQuery)
	}

	env, err := h.recommender.Recommend(c.Request().Context(), req.Query)
	if errors.Is(err, services.ErrEmptyQuery) {
		return badRequest(msgEmptyQuery)
	}
	if err != nil {
		return serverError(err)
	}
	return c.JSON(http.StatusOK, env)
}

// Suggestions handles GET /suggestions
func (h *RecommendHandler) Suggestions(c echo.Context) error {
	return c.JSON(http.StatusOK, models.SuggestionsResponse{
		Results: h.recommender.Suggest(c.QueryParam("query")),
	})
}

// RegisterRoutes registers recommendation routes
func (h *RecommendHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/recommend", h.Recommend)
	g.GET("/suggestions", h.Suggestions)
}
