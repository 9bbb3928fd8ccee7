package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	models "github.com/phillip/event-easy-go/models"
)

// statusFor maps a service error onto an HTTP status. Order matters: malformed ids match
// both ErrValidation and ErrNotFound and must answer 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrPaymentNotCompleted):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, d *Deps, op string, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		d.Log.Error("request failed", "op", op, "err", err)
	}

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "internal server error"
	case http.StatusBadGateway:
		msg = "payment provider unavailable"
	case http.StatusPaymentRequired:
		c.JSON(status, gin.H{"success": false, "message": "payment not completed"})
		return
	}
	c.JSON(status, gin.H{"error": msg})
}
