package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinseokoh/socrates/internal/helpers"
	"github.com/jinseokoh/socrates/internal/middleware"
	"github.com/jinseokoh/socrates/internal/settlement"
)

type BuyItNowRequest struct {
	Country    string `json:"country" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
}

// CreateOrderFromAuction turns an ended auction into a billable order for
// the winning bidder.
func CreateOrderFromAuction(c *gin.Context) {
	auctionID, err := helpers.StringToUint(c.Param("auctionId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid auction ID.")
		return
	}

	engine := middleware.GetEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Settlement engine not found.")
		return
	}

	order, err := engine.CreateOrderFromAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondWithSettlementError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order_id": order.ID,
		"price":    order.Price,
	})
}

// BuyItNow creates the order and its single-order payment in one step.
func BuyItNow(c *gin.Context) {
	var req BuyItNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	auctionID, err := helpers.StringToUint(c.Param("auctionId"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid auction ID.")
		return
	}

	engine := middleware.GetEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Settlement engine not found.")
		return
	}

	payment, err := engine.BuyItNow(c.Request.Context(), userID.(uint), auctionID, settlement.Destination{
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

// WithdrawOrder hard-deletes an unpaid buy-it-now order.
func WithdrawOrder(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	orderID, err := helpers.StringToUint(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	engine := middleware.GetEngine(c)
	if engine == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Settlement engine not found.")
		return
	}

	if err := engine.WithdrawOrder(c.Request.Context(), userID.(uint), orderID); err != nil {
		helpers.RespondWithSettlementError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order withdrawn successfully."})
}
