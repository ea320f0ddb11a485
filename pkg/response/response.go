package response

import (
	"log/slog"
	"net/http"

	"reviewhub/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Debug toggles raw error messages on 500 responses. Set once at startup
// from config; production keeps the generic message.
var Debug bool

// Error writes a standardized error response for the given error.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	if code == http.StatusInternalServerError {
		slog.Error("internal error", "path", c.FullPath(), "error", err)
		if !Debug {
			c.JSON(code, gin.H{"error": "internal server error"})
			return
		}
	}

	c.JSON(code, gin.H{"error": err.Error()})
}

// FieldError writes a 400 response keyed to a single field, the shape the
// API uses for per-field validation failures.
func FieldError(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, gin.H{field: []string{message}})
}
