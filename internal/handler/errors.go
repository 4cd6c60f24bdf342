package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the error taxonomy onto HTTP status codes. Business
// rejections carry their message; storage failures get a generic one and the
// cause is only logged.
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, apperr.ErrForbidden):
		status, message = http.StatusForbidden, "Insufficient role"
	case errors.Is(err, apperr.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, apperr.ErrUnknownStatus), errors.Is(err, apperr.ErrInvalidInput):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrConstraintViolation):
		status, message = http.StatusConflict, "Conflicts with existing data"
	case errors.Is(err, apperr.ErrStorageUnavailable):
		status, message = http.StatusServiceUnavailable, "Storage temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, err error) {
	logger.Log.Warn("Request parsing failed",
		zap.String("route", c.FullPath()),
		zap.String("ip", c.ClientIP()),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
