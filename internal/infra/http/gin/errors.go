package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"travelstay/internal/app/middleware"
	"travelstay/internal/app/policies"
	"travelstay/internal/app/services/auth"
	"travelstay/internal/domain/shared/fault"
)

// statusFor maps an application error onto an HTTP status. The second value
// reports whether the error message is safe to show to the client.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, middleware.ErrUnauthenticated):
		return http.StatusUnauthorized, true
	case errors.Is(err, policies.ErrGatewayUnavailable):
		return http.StatusBadGateway, false
	}
	switch fault.KindOf(err) {
	case fault.ErrValidation:
		return http.StatusBadRequest, true
	case fault.ErrPermission:
		return http.StatusForbidden, true
	case fault.ErrNotFound:
		return http.StatusNotFound, true
	case fault.ErrConflict:
		return http.StatusConflict, true
	case fault.ErrState:
		return http.StatusUnprocessableEntity, true
	default:
		return http.StatusInternalServerError, false
	}
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, public := statusFor(err)
	_ = c.Error(err)
	if logger != nil && status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	switch {
	case public:
		c.JSON(status, gin.H{"error": err.Error()})
	case status == http.StatusBadGateway:
		c.JSON(status, gin.H{"error": policies.ErrGatewayUnavailable.Error()})
	default:
		c.JSON(status, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
