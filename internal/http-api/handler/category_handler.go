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

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/categories")
	{
		categories.GET("", h.List)
		categories.POST("", middleware.RequireAdmin(), h.Create)
		categories.DELETE("/:slug", middleware.RequireAdmin(), h.Delete)
	}
}

// List returns categories ordered by name, optionally filtered by a
// case-insensitive name search.
// GET /api/v1/categories
func (h *CategoryHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	search := c.Query("search")

	categories, total, err := h.categoryService.GetAll(c.Request.Context(), search, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	data := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		data = append(data, dto.CategoryFromModel(category))
	}

	c.JSON(http.StatusOK, dto.NewPaginatedCategoryResponse(data, int(total), page, pageSize))
}

// Create adds a category. Admin only.
// POST /api/v1/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req dto.CreateCategoryDTO
	if !bindJSON(c, &req) {
		return
	}

	category := models.Category{Name: req.Name, Slug: req.Slug}
	if err := h.categoryService.Create(c.Request.Context(), &category); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CategoryFromModel(category))
}

// Delete removes a category by slug. Admin only.
// DELETE /api/v1/categories/:slug
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categoryService.DeleteBySlug(c.Request.Context(), c.Param("slug")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
