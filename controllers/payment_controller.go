package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cart-payment-service/middleware"
	"cart-payment-service/models"
	"cart-payment-service/services"
)

type PaymentController struct {
	Payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{Payments: payments}
}

// ProcessPayment runs checkout for the caller's cart
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")

	resp, err := pc.Payments.ProcessPayment(c.Request.Context(), ownerID, &req, idempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetHistory returns the caller's payments, newest first
func (pc *PaymentController) GetHistory(c *gin.Context) {
	ownerID := middleware.GetUserID(c)

	payments, err := pc.Payments.GetPaymentHistory(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// GetByTransactionID returns the payment behind a transaction reference
func (pc *PaymentController) GetByTransactionID(c *gin.Context) {
	transactionID := c.Param("transaction_id")

	payment, err := pc.Payments.GetByTransactionID(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
