package helpers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinseokoh/socrates/internal/settlement"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// RespondWithSettlementError maps the settlement error taxonomy onto HTTP
// codes so clients can tell tampering, conflicts and gateway drift apart.
func RespondWithSettlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, settlement.ErrAmountMismatch):
		RespondWithError(c, http.StatusBadRequest, "Paid amount does not match the billed total.")
	case errors.Is(err, settlement.ErrUnknownGatewayStatus):
		RespondWithError(c, http.StatusBadRequest, "Payment gateway returned an unrecognized status. Please contact support.")
	case errors.Is(err, settlement.ErrConflict):
		RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, settlement.ErrNotFound):
		RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, settlement.ErrPreconditionFailed), errors.Is(err, settlement.ErrInvalidState):
		RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		RespondWithError(c, http.StatusInternalServerError, "Settlement failed. Please retry.")
	}
}
