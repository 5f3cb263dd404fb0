package routes

import (
	"github.com/gin-gonic/gin"

	"cart-payment-service/controllers"
	"cart-payment-service/middleware"
)

func RegisterRoutes(r *gin.Engine, cc *controllers.CartController, pc *controllers.PaymentController, jwtSecret []byte) {
	auth := middleware.AuthMiddleware(jwtSecret)

	cart := r.Group("/cart")
	cart.Use(auth)
	{
		cart.GET("", cc.GetCart)
		cart.GET("/history", cc.GetHistory)
		cart.POST("/items", cc.AddItem)
		cart.PUT("/items/:item_id", cc.UpdateQuantity)
		cart.DELETE("/items/:item_id", cc.RemoveItem)
		cart.DELETE("", cc.ClearCart)
	}

	payments := r.Group("/payments")
	payments.Use(auth)
	{
		payments.POST("", pc.ProcessPayment)
		payments.GET("/history", pc.GetHistory)
		payments.GET("/:transaction_id", pc.GetByTransactionID)
	}
}
