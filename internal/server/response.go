package server

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": status, "message": message})
}

func badRequest(c *gin.Context, message string) { abort(c, http.StatusBadRequest, message) }

func notFound(c *gin.Context, message string) { abort(c, http.StatusNotFound, message) }

func conflict(c *gin.Context, message string) { abort(c, http.StatusConflict, message) }

// internalError hides err from the client and leaves it for the logger.
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	abort(c, http.StatusInternalServerError, "internal server error")
}

func attachment(c *gin.Context, fileName, contentType string, body []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	c.Data(http.StatusOK, contentType, body)
}
