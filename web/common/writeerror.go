package common

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"zentrix.com/portal/portal/core"
	v1 "zentrix.com/portal/sheets/v1"
)

// StatusOf maps a service error to its HTTP status
func StatusOf(err error) int {
	var verrs core.ValidationErrors
	var locErr *core.LocationError
	switch {
	case errors.As(err, &verrs), errors.As(err, &locErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrPendingOut),
		errors.Is(err, core.ErrNoPendingSession),
		errors.Is(err, core.ErrAdvanceNotPending):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFeedUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, v1.ErrGatewayRejected), errors.Is(err, v1.ErrUnacknowledged):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func WriteError(c *gin.Context, err error) {
	status := StatusOf(err)
	res := NewErrorResponse(err.Error())

	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		res.Message = "Please fix the form errors"
		res.Fields = verrs
	}
	var rejected *v1.RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		res.Message = rejected.Message
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err.Error())
		res.Message = "Something went wrong. Please try again."
	}
	c.AbortWithStatusJSON(status, res)
}

// BindingError answers a request that failed to bind
func BindingError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewErrorResponse(FormatBindingError(err)))
}
