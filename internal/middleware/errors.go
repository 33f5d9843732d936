package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/monthlypulse/internal/domain/dto"
	"github.com/guttosm/monthlypulse/internal/logger"
)

// ErrorHandler turns errors attached with c.Error into a JSON 500 when the
// handler did not write a response itself.
//
// Usage:
//
//	router.Use(middleware.ErrorHandler)
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}
	last := c.Errors.Last()
	rid, _ := c.Get(RequestIDKey)
	log := logger.Component("http")
	log.Error().
		Str("request_id", toString(rid)).
		Str("path", c.Request.URL.Path).
		Err(last.Err).
		Msg("request error")

	if c.Writer.Written() {
		return
	}
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("internal server error", last.Err))
}

// AbortWithError aborts the chain and writes a standardized error body.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
