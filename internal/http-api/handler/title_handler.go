package handler

import (
	"errors"
	"net/http"
	"strconv"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"
	"reviewhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	titleService service.TitleService
}

func NewTitleHandler(titleService service.TitleService) *TitleHandler {
	return &TitleHandler{titleService: titleService}
}

func (h *TitleHandler) RegisterRoutes(router *gin.RouterGroup) {
	titles := router.Group("/titles")
	{
		titles.GET("", h.List)
		titles.GET("/:title_id", h.Get)
		titles.POST("", middleware.RequireAdmin(), h.Create)
		titles.PATCH("/:title_id", middleware.RequireAdmin(), h.Update)
		titles.DELETE("/:title_id", middleware.RequireAdmin(), h.Delete)
	}
}

// List returns titles with their computed ratings, filterable by category
// slug, genre slug, name substring and exact year.
// GET /api/v1/titles
func (h *TitleHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)

	filter := repository.TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     c.Query("name"),
	}
	if yearStr := c.Query("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		filter.Year = &year
	}

	titles, total, err := h.titleService.GetAll(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := make([]dto.TitleResponse, 0, len(titles))
	for _, title := range titles {
		data = append(data, *dto.FromModelToTitleResponse(&title))
	}

	c.JSON(http.StatusOK, dto.NewPaginatedTitleResponse(data, int(total), page, pageSize))
}

// GET /api/v1/titles/:title_id
func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}

	title, err := h.titleService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToTitleResponse(title))
}

// Create adds a title. Admin only. The payload names the category and genres
// by slug; the response embeds the resolved records.
// POST /api/v1/titles
func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.CreateTitleDTO
	if !bindJSON(c, &req) {
		return
	}

	title, err := h.titleService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrYearInFuture) {
			response.FieldError(c, "year", "year must not exceed the current year")
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromModelToTitleResponse(title))
}

// Update patches a title. Admin only. Absent fields are left untouched.
// PATCH /api/v1/titles/:title_id
func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}

	var req dto.UpdateTitleDTO
	if !bindJSON(c, &req) {
		return
	}

	title, err := h.titleService.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrYearInFuture) {
			response.FieldError(c, "year", "year must not exceed the current year")
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromModelToTitleResponse(title))
}

// DELETE /api/v1/titles/:title_id
func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}

	if err := h.titleService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
