package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/services"
)

func errorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrSlotUnavailable),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrTourHasBookings):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err with the given status. Internal errors are logged
// through gin's error list and replaced by a generic message.
func respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, helpers.ErrorResponse("internal server error"))
		return
	}
	c.JSON(status, helpers.ErrorResponse(err.Error()))
}

func fail(c *gin.Context, err error) {
	respondError(c, errorStatus(err), err)
}

// failBadRequest reports every non-internal failure as 400, which booking
// clients expect regardless of cause.
func failBadRequest(c *gin.Context, err error) {
	status := errorStatus(err)
	if status < http.StatusInternalServerError {
		status = http.StatusBadRequest
	}
	respondError(c, status, err)
}

func identity(c *gin.Context) (helpers.Identity, bool) {
	id, ok := helpers.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return helpers.Identity{}, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
