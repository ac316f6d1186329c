package handler

import (
	"errors"
	"net/http"

	"toolshed/internal/service"
	"toolshed/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps domain errors to HTTP outcomes: field-scoped
// validation failures carry their field map, terminal outcomes map to
// 403/404/409, anything else is a 500.
func respondServiceError(c *gin.Context, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, response.FieldErrors(http.StatusBadRequest, ve.Fields))
		return
	}

	switch {
	case errors.Is(err, service.ErrAlreadyAuthorized):
		// Grant uniqueness violations are field-scoped on "user"
		c.JSON(http.StatusConflict, response.FieldErrors(http.StatusConflict, map[string][]string{
			"user": {service.ErrAlreadyAuthorized.Error()},
		}))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// actorID extracts the authenticated user id set by the auth middleware
func actorID(c *gin.Context) string {
	v, _ := c.Get("userID")
	id, _ := v.(string)
	return id
}
