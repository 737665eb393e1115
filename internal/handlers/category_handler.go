package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/logger"
	"storefront/internal/repository"
)

type CategoryHandler struct {
	categories repository.CategoryStore
}

func NewCategoryHandler(categories repository.CategoryStore) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// GET /api/categories
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categories.FindAll(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("list categories failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}
