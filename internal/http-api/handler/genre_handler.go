package handler

import (
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"
	"reviewhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type GenreHandler struct {
	genreService service.GenreService
}

func NewGenreHandler(genreService service.GenreService) *GenreHandler {
	return &GenreHandler{genreService: genreService}
}

func (h *GenreHandler) RegisterRoutes(router *gin.RouterGroup) {
	genres := router.Group("/genres")
	{
		genres.GET("", h.List)
		genres.POST("", middleware.RequireAdmin(), h.Create)
		genres.DELETE("/:slug", middleware.RequireAdmin(), h.Delete)
	}
}

// GET /api/v1/genres
func (h *GenreHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	search := c.Query("search")

	genres, total, err := h.genreService.GetAll(c.Request.Context(), search, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := make([]dto.GenreResponse, 0, len(genres))
	for _, genre := range genres {
		data = append(data, dto.GenreFromModel(genre))
	}

	c.JSON(http.StatusOK, dto.NewPaginatedGenreResponse(data, int(total), page, pageSize))
}

// POST /api/v1/genres
func (h *GenreHandler) Create(c *gin.Context) {
	var req dto.CreateGenreDTO
	if !bindJSON(c, &req) {
		return
	}

	genre := models.Genre{Name: req.Name, Slug: req.Slug}
	if err := h.genreService.Create(c.Request.Context(), &genre); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.GenreFromModel(genre))
}

// DELETE /api/v1/genres/:slug
func (h *GenreHandler) Delete(c *gin.Context) {
	if err := h.genreService.DeleteBySlug(c.Request.Context(), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
