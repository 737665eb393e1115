package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/metrics"
)

type Handlers struct {
	Products   *handlers.ProductHandler
	Categories *handlers.CategoryHandler
	Checkout   *handlers.CheckoutHandler
	Health     *handlers.HealthHandler
}

// NewRouter builds the engine with the middleware chain and all routes
func NewRouter(log *zap.Logger, m *metrics.Metrics, h Handlers) *gin.Engine {
	handlers.SetupValidator()

	router := gin.New()
	router.Use(
		logger.RequestID(),
		logger.GinMiddleware(log),
		m.GinMiddleware(),
		logger.Recovery(log),
	)

	RegisterRoutes(router, h)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	return router
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/healthz", h.Health.Health)

	api := router.Group("/api")
	{
		api.GET("/products", h.Products.ListProducts)
		api.POST("/products", h.Products.CreateProduct)
		api.GET("/products/:id", h.Products.GetProduct)
		api.PUT("/products/:id", h.Products.UpdateProduct)
		api.DELETE("/products/:id", h.Products.DeleteProduct)
		api.PATCH("/products/:id/stock", h.Products.UpdateStock)
		api.GET("/products/:id/reviews", h.Products.ListReviews)
		api.POST("/products/:id/reviews", h.Products.CreateReview)

		api.GET("/categories", h.Categories.ListCategories)

		api.GET("/checkout/summary", h.Checkout.Summary)
		api.POST("/orders", h.Checkout.PlaceOrder)
		api.GET("/orders/:id", h.Checkout.GetOrder)
	}
}
