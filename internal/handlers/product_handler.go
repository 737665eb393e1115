package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

type ProductHandler struct {
	products   repository.ProductStore
	categories repository.CategoryStore
	reviews    repository.ReviewStore
	cache      cache.Store
	productTTL time.Duration
	listTTL    time.Duration
}

func NewProductHandler(
	products repository.ProductStore,
	categories repository.CategoryStore,
	reviews repository.ReviewStore,
	store cache.Store,
	productTTL, listTTL time.Duration,
) *ProductHandler {
	return &ProductHandler{
		products:   products,
		categories: categories,
		reviews:    reviews,
		cache:      store,
		productTTL: productTTL,
		listTTL:    listTTL,
	}
}

type ProductListResponse struct {
	Data       []*models.Product `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int64             `json:"total_pages"`
}

// GET /api/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, pageSize := paginationParams(c)
	filter := repository.ProductFilter{
		Page:      page,
		PageSize:  pageSize,
		Category:  c.Query("category"),
		Status:    models.ProductStatus(c.Query("status")),
		Search:    c.Query("q"),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	filter.MinPriceCents, filter.MaxPriceCents = priceParams(c)
	if filter.Status != "" && !validStatus(filter.Status) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid status filter"})
		return
	}

	cacheKey := fmt.Sprintf("%sp%d_s%d_cat:%s_st:%s_q:%s_price:%d-%d_sort:%s_%s",
		cache.ProductListPrefix, page, pageSize, filter.Category, filter.Status,
		filter.Search, filter.MinPriceCents, filter.MaxPriceCents, filter.SortBy, filter.SortOrder)

	var cached ProductListResponse
	if found, err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && found {
		c.JSON(http.StatusOK, cached)
		return
	}

	products, total, err := h.products.FindAll(c.Request.Context(), filter)
	if err != nil {
		logger.FromGin(c).Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to list products"})
		return
	}

	totalPages := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	response := ProductListResponse{
		Data:       products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	h.cacheSet(c, cacheKey, response, h.listTTL)
	c.JSON(http.StatusOK, response)
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.ProductCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, flattenErrors(err))
		return
	}

	product := req.ToProduct()
	if err := h.products.Create(c.Request.Context(), product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, ErrorResponse{Message: "A product with this SKU already exists"})
			return
		}
		logger.FromGin(c).Error("create product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to create product"})
		return
	}

	h.invalidateLists(c)
	c.JSON(http.StatusCreated, product)
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid product ID"})
		return
	}
	ctx := c.Request.Context()
	log := logger.FromGin(c).With(zap.String("product_id", id.Hex()))

	// an empty key skips the cache for this request
	cacheKey, err := cache.ProductDetailKey(ctx, h.cache, id.Hex())
	if err != nil {
		log.Warn("product cache generation read failed", zap.Error(err))
		cacheKey = ""
	}
	if cacheKey != "" {
		var cached models.ProductDetail
		if found, err := h.cache.Get(ctx, cacheKey, &cached); err != nil {
			log.Warn("product cache read failed", zap.Error(err))
		} else if found {
			c.JSON(http.StatusOK, gin.H{"product": cached})
			return
		}
	}

	product, err := h.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Product not found"})
			return
		}
		log.Error("get product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	detail := models.ProductDetail{Product: *product}
	if product.CategoryID != nil {
		category, err := h.categories.FindByID(ctx, *product.CategoryID)
		switch {
		case err == nil:
			detail.Category = category
		case !errors.Is(err, repository.ErrNotFound):
			log.Error("get product category failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
			return
		}
	}

	ratings, err := h.reviews.RatingsForProduct(ctx, id)
	if err != nil {
		log.Error("get product reviews failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}
	detail.Reviews = models.SummarizeRatings(ratings)

	if cacheKey != "" {
		h.cacheSet(c, cacheKey, detail, h.productTTL)
	}
	c.JSON(http.StatusOK, gin.H{"product": detail})
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid product ID"})
		return
	}

	var update models.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, flattenErrors(err))
		return
	}
	if update.IsEmpty() {
		c.JSON(http.StatusBadRequest, formError("No fields to update"))
		return
	}

	product, err := h.products.Update(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Product not found"})
			return
		}
		logger.FromGin(c).Error("update product failed", zap.String("product_id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to update product"})
		return
	}

	h.invalidate(c, id.Hex())
	c.JSON(http.StatusOK, product)
}

// DELETE /api/products/:id (soft delete)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid product ID"})
		return
	}

	if err := h.products.Discontinue(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Product not found"})
			return
		}
		logger.FromGin(c).Error("discontinue product failed", zap.String("product_id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to delete product"})
		return
	}

	h.invalidate(c, id.Hex())
	c.JSON(http.StatusOK, gin.H{"message": "Product discontinued", "success": true})
}

// PATCH /api/products/:id/stock
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid product ID"})
		return
	}

	var req models.StockUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid stock value"})
		return
	}
	stock, ok := req.Value()
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid stock value"})
		return
	}

	product, err := h.products.SetStock(c.Request.Context(), id, stock)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Product not found"})
			return
		}
		logger.FromGin(c).Error("update stock failed", zap.String("product_id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}

	h.invalidate(c, id.Hex())
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GET /api/products/:id/reviews
func (h *ProductHandler) ListReviews(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid product ID"})
		return
	}
	if !h.productExists(c, id) {
		return
	}

	reviews, err := h.reviews.FindByProduct(c.Request.Context(), id)
	if err != nil {
		logger.FromGin(c).Error("list reviews failed", zap.String("product_id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews})
}

// POST /api/products/:id/reviews
func (h *ProductHandler) CreateReview(c *gin.Context) {
	id, ok := models.ParseObjectID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid product ID"})
		return
	}

	var req models.ReviewCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, flattenErrors(err))
		return
	}
	if !h.productExists(c, id) {
		return
	}

	review := &models.Review{
		ProductID: id,
		Author:    req.Author,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.reviews.Create(c.Request.Context(), review); err != nil {
		logger.FromGin(c).Error("create review failed", zap.String("product_id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Failed to create review"})
		return
	}

	h.invalidate(c, id.Hex())
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// productExists writes the error response itself when it returns false
func (h *ProductHandler) productExists(c *gin.Context, id primitive.ObjectID) bool {
	if _, err := h.products.FindByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "Product not found"})
			return false
		}
		logger.FromGin(c).Error("get product failed", zap.String("product_id", id.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
		return false
	}
	return true
}

func (h *ProductHandler) cacheSet(c *gin.Context, key string, value interface{}, ttl time.Duration) {
	if err := h.cache.Set(c.Request.Context(), key, value, ttl); err != nil {
		logger.FromGin(c).Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate retires the cached detail of a product and drops every list page
func (h *ProductHandler) invalidate(c *gin.Context, hexID string) {
	if err := cache.InvalidateProduct(c.Request.Context(), h.cache, hexID); err != nil {
		logger.FromGin(c).Warn("cache delete failed", zap.String("product_id", hexID), zap.Error(err))
	}
	h.invalidateLists(c)
}

func (h *ProductHandler) invalidateLists(c *gin.Context) {
	if err := h.cache.DeleteByPrefix(c.Request.Context(), cache.ProductListPrefix); err != nil {
		logger.FromGin(c).Warn("cache prefix delete failed", zap.Error(err))
	}
}

func paginationParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))

	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// priceParams reads min_price/max_price in cents; invalid or non-positive values are ignored
func priceParams(c *gin.Context) (minCents, maxCents int64) {
	if v, err := strconv.ParseInt(c.Query("min_price"), 10, 64); err == nil && v > 0 {
		minCents = v
	}
	if v, err := strconv.ParseInt(c.Query("max_price"), 10, 64); err == nil && v > 0 {
		maxCents = v
	}
	return minCents, maxCents
}

func validStatus(s models.ProductStatus) bool {
	switch s {
	case models.StatusDraft, models.StatusActive, models.StatusOutOfStock, models.StatusDiscontinued:
		return true
	}
	return false
}
