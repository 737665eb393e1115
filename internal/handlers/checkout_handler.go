package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/checkout"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type CheckoutHandler struct {
	service *checkout.Service
	orders  repository.OrderStore
	cache   cache.Store
	metrics *metrics.Metrics
}

func NewCheckoutHandler(service *checkout.Service, orders repository.OrderStore, store cache.Store, m *metrics.Metrics) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		orders:  orders,
		cache:   store,
		metrics: m,
	}
}

// GET /api/checkout/summary?product=:id&quantity=:n
func (h *CheckoutHandler) Summary(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Query("product"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid product ID"})
		return
	}
	quantity, err := strconv.ParseInt(c.DefaultQuery("quantity", "1"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid quantity"})
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), id, quantity)
	if err != nil {
		h.fail(c, err, "Failed to build order summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// POST /api/orders
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, flattenErrors(err))
		return
	}

	order, err := h.service.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err, "Failed to place order")
		return
	}

	if err := cache.InvalidateProduct(c.Request.Context(), h.cache, order.ProductID.Hex()); err != nil {
		logger.FromGin(c).Warn("cache delete failed", zap.Error(err))
	}
	if err := h.cache.DeleteByPrefix(c.Request.Context(), cache.ProductListPrefix); err != nil {
		logger.FromGin(c).Warn("cache prefix delete failed", zap.Error(err))
	}
	h.metrics.OrderPlaced(order.Currency, order.TotalCents)

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// GET /api/orders/:id
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid order ID"})
		return
	}

	order, err := h.orders.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Order not found"})
			return
		}
		logger.FromGin(c).Error("get order failed", zap.String("order_id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *CheckoutHandler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Product not found"})
	case errors.Is(err, checkout.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid quantity"})
	case errors.Is(err, checkout.ErrUnsupportedPayment):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unsupported payment method"})
	case errors.Is(err, checkout.ErrProductUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Product is not available"})
	case errors.Is(err, checkout.ErrInsufficientStock):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Not enough stock"})
	default:
		logger.FromGin(c).Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: fallback})
	}
}
