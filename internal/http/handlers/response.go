// Package handlers provides the HTTP endpoints of the rental API.
//
// Every failure is written as an ErrorResponse with a stable code. Rental
// specific context rides along when it helps the client recover: the current
// state of the entity for an illegal lifecycle step, and the gateway's own
// error code when a payment call was rejected upstream.
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_state",
//	  "message": "invalid state transition: transaction: cannot start_rental from ACCEPTED",
//	  "state": "ACCEPTED"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/gateway"
	"github.com/tbourn/go-rental-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Machine-readable code (see errors.go)
	Code string `json:"code" example:"invalid_state"`
	// Human-readable message
	Message string `json:"message" example:"transaction: cannot accept from PAID"`
	// Current status of the transaction or payment, for invalid_state
	State string `json:"state,omitempty" example:"PAID"`
	// Error code reported by the payment gateway, for gateway_error
	GatewayCode string `json:"gateway_code,omitempty" example:"REJECT_CARD_COMPANY"`
}

// fail aborts with a plain error envelope.
func fail(c *gin.Context, status int, code, msg string) {
	abortWith(c, status, ErrorResponse{Code: code, Message: msg})
}

// Fail lets the router write envelopes for its fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error onto the envelope. Unclassified errors become
// a generic 500 and are attached to the Gin context for the access log, so
// internal details never reach the client.
func failErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	if code == ErrCodeInternal {
		_ = c.Error(err)
		fail(c, status, code, "internal server error")
		return
	}
	resp := ErrorResponse{Code: code, Message: err.Error()}
	var te *domain.TransitionError
	if errors.As(err, &te) {
		resp.State = te.From
	}
	var ge *gateway.Error
	if errors.As(err, &ge) {
		resp.GatewayCode = ge.Code
	}
	abortWith(c, status, resp)
}

func abortWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get(middleware.HeaderRequestID)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("gateway_code", resp.GatewayCode).
			Msg(resp.Message)
	}
	c.AbortWithStatusJSON(status, resp)
}

// ok writes body as JSON.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
