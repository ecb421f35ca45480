package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bookshelf-recommend-api/internal/services"
	"github.com/labstack/echo/v4"
)

// MaxLimit caps the limit query parameter of the browsing endpoints.
const MaxLimit = 50

// BooksHandler serves the featured shelf and per-book similarity
type BooksHandler struct {
	recommender *services.RecommendService
}

// NewBooksHandler creates a new books handler
func NewBooksHandler(recommender *services.RecommendService) *BooksHandler {
	return &BooksHandler{recommender: recommender}
}

func parseLimit(c echo.Context) (int, error) {
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return 0, badRequest("Invalid limit.")
	}
	if limit < 0 {
		return 0, badRequest("Invalid limit.")
	}
	return min(limit, MaxLimit), nil
}

// Default handles GET /default
func (h *BooksHandler) Default(c echo.Context) error {
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.recommender.Defaults(limit))
}

// Similar handles GET /books/:index/similar
func (h *BooksHandler) Similar(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest("Invalid book index.")
	}
	limit, err := parseLimit(c)
	if err != nil {
		return err
	}

	env, err := h.recommender.Similar(c.Request().Context(), index, limit)
	if errors.Is(err, services.ErrBookNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Book not found.")
	}
	if err != nil {
		return serverError(err)
	}
	return c.JSON(http.StatusOK, env)
}

// RegisterRoutes registers browsing routes
func (h *BooksHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/default", h.Default)
	g.GET("/books/:index/similar", h.Similar)
}
