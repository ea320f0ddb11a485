package handler

import (
	"errors"
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/service"
	"reviewhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/token", h.Token)
	}
}

// Signup issues a confirmation code for a (username, email) pair.
// POST /api/v1/auth/signup
//
// Requesting a code again for the same pair succeeds and re-sends a fresh
// code, so a lost email is recoverable without support intervention.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SignupResponse{
		Email:    user.Email,
		Username: user.Username,
	})
}

// Token exchanges a confirmation code for a signed access token.
// POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.authService.IssueToken(c.Request.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		// A wrong code for an existing user is a field error, not a 404;
		// the 404 is reserved for an unknown username.
		if errors.Is(err, service.ErrInvalidCode) {
			response.FieldError(c, "confirmation_code", "invalid or expired confirmation code")
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		Token:    token,
		Username: req.Username,
	})
}
