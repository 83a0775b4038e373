package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinseokoh/socrates/internal/helpers"
	"github.com/jinseokoh/socrates/internal/middleware"
	"github.com/jinseokoh/socrates/internal/settlement"
)

type CheckoutRequest struct {
	OrderIDs   []uint `json:"order_ids" binding:"required,min=1"`
	GrantID    *uint  `json:"grant_id"`
	Country    string `json:"country" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
}

type CompleteRequest struct {
	TxnID       string `json:"imp_uid" binding:"required"`
	MerchantUID string `json:"merchant_uid" binding:"required"`
}

type WebhookRequest struct {
	TxnID       string `json:"imp_uid" binding:"required"`
	MerchantUID string `json:"merchant_uid" binding:"required"`
	// Status is what the gateway claims; settlement re-verifies and never
	// trusts it.
	Status string `json:"status"`
}

// CreatePayment bundles the caller's waiting orders into one payment.
func CreatePayment(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	engine := middleware.GetEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Settlement engine not found.")
		return
	}

	payment, err := engine.CreatePayment(c.Request.Context(), userID.(uint), req.OrderIDs, req.GrantID, settlement.Destination{
		Country:    req.Country,
		PostalCode: req.PostalCode,
	})
	if err != nil {
		helpers.RespondWithSettlementError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment_id":   payment.ID,
		"merchant_uid": payment.MerchantUID(),
		"grand_total":  payment.GrandTotal,
	})
}

// CompletePayment is the client-side verification call made right after the
// gateway redirect. It fails fast on tampering before any webhook lands.
func CompletePayment(c *gin.Context) {
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	engine := middleware.GetEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Settlement engine not found.")
		return
	}

	result, err := engine.Settle(c.Request.Context(), req.TxnID, req.MerchantUID)
	if err != nil {
		helpers.RespondWithSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": result})
}

// PaymentWebhook is the gateway's asynchronous notice. It is unauthenticated
// by contract, so settlement re-verifies against the gateway before touching
// anything.
func PaymentWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid webhook payload.")
		return
	}

	engine := middleware.GetEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Settlement engine not found.")
		return
	}

	if _, err := engine.Settle(c.Request.Context(), req.TxnID, req.MerchantUID); err != nil {
		helpers.RespondWithSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// GetPayment returns one payment with its orders, owner only.
func GetPayment(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	paymentID, err := helpers.StringToUint(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID.")
		return
	}

	engine := middleware.GetEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Settlement engine not found.")
		return
	}

	payment, err := engine.GetPayment(c.Request.Context(), userID.(uint), paymentID)
	if err != nil {
		helpers.RespondWithSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
