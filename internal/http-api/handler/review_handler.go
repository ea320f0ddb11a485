package handler

import (
	"errors"
	"fmt"
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"
	"reviewhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// RegisterRoutes mounts the review routes under the titles group.
func (h *ReviewHandler) RegisterRoutes(titles *gin.RouterGroup) {
	reviews := titles.Group("/:title_id/reviews")
	{
		reviews.GET("", h.List)
		reviews.GET("/:review_id", h.Get)
		reviews.POST("", middleware.RequireAuth(), h.Create)
		reviews.PATCH("/:review_id", middleware.RequireAuth(), h.Update)
		reviews.DELETE("/:review_id", middleware.RequireAuth(), h.Delete)
	}
}

// GET /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	reviews, err := h.reviewService.GetByTitle(c.Request.Context(), titleID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// GET /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}

	review, err := h.reviewService.GetByID(c.Request.Context(), titleID, reviewID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// Create posts a review on a title. One review per (title, author).
// POST /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	var req dto.CreateReviewDTO
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Create(c.Request.Context(), titleID, user, &req)
	if err != nil {
		if errors.Is(err, service.ErrScoreOutOfRange) {
			h.scoreFieldError(c)
			return
		}
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// Update patches a review. Author, moderator or admin only.
// PATCH /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	var req dto.UpdateReviewDTO
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), titleID, reviewID, user, c.Request.Method, &req)
	if err != nil {
		if errors.Is(err, service.ErrScoreOutOfRange) {
			h.scoreFieldError(c)
			return
		}
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// DELETE /api/v1/titles/:title_id/reviews/:review_id
func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, ok := parseIDParam(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseIDParam(c, "review_id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)

	if err := h.reviewService.Delete(c.Request.Context(), titleID, reviewID, user, c.Request.Method); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReviewHandler) scoreFieldError(c *gin.Context) {
	response.FieldError(c, "score",
		fmt.Sprintf("score must be between %d and %d", models.MinScore, models.MaxScore))
}
