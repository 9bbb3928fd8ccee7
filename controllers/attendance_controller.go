package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	middleware "github.com/phillip/event-easy-go/middleware"
	models "github.com/phillip/event-easy-go/models"
)

type payerInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (p payerInput) payer() models.Payer {
	return models.Payer{Email: p.Email, FirstName: p.FirstName, LastName: p.LastName}
}

// ---------------- PAYMENT ----------------
func InitiatePayment(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			payerInput
			Amount float64 `json:"amount"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		session, err := d.Attendance.InitiatePayment(c.Request.Context(), c.Param("id"), input.payer(), input.Amount)
		if err != nil {
			respondError(c, d, "payment.initiate", err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// VerifyPayment confirms tx_ref with the provider and registers the caller. The payer body is
// optional; the provider's answer is the only thing trusted.
func VerifyPayment(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input payerInput
		if c.Request.Body != nil && c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
				return
			}
		}

		ev, err := d.Attendance.VerifyAndRegister(c.Request.Context(), c.Param("id"), c.Query("tx_ref"), middleware.Credential(c), input.payer())
		if err != nil {
			respondError(c, d, "payment.verify", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Payment verified and attendance registered",
			"event":   ev,
		})
	}
}

// ---------------- ATTENDANCE ----------------
func AttendEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, err := d.Attendance.AttendDirect(c.Request.Context(), c.Param("id"), middleware.Credential(c))
		if err != nil {
			respondError(c, d, "attendance.attend", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Registered for event", "event": ev})
	}
}

func LeaveEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, err := d.Attendance.LeaveEvent(c.Request.Context(), c.Param("id"), middleware.Credential(c))
		if err != nil {
			respondError(c, d, "attendance.leave", err)
			return
		}
		c.JSON(http.StatusOK, ev)
	}
}
