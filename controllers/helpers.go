package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cart-payment-service/apperrors"
)

// respondError maps application errors to their HTTP status
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
