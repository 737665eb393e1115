// Package checkout quotes and places single-product orders.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/repository"
)

var (
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrProductUnavailable = errors.New("product is not available for purchase")
	ErrInsufficientStock  = errors.New("not enough stock")
	ErrUnsupportedPayment = errors.New("unsupported payment method")
)

type Service struct {
	products repository.ProductStore
	orders   repository.OrderStore
	pricing  Pricing
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(products repository.ProductStore, orders repository.OrderStore, pricing Pricing, logger *zap.Logger) *Service {
	return &Service{
		products: products,
		orders:   orders,
		pricing:  pricing,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Summary is what the checkout page shows next to the forms
type Summary struct {
	Product *models.Product `json:"product"`
	Quote   Quote           `json:"quote"`
}

// Summarize quotes a product for the order summary
func (s *Service) Summarize(ctx context.Context, productID primitive.ObjectID, quantity int64) (*Summary, error) {
	if !s.pricing.ValidQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := purchasable(product, quantity); err != nil {
		return nil, err
	}
	quote, err := s.pricing.Quote(product, quantity)
	if err != nil {
		return nil, err
	}
	return &Summary{Product: product, Quote: quote}, nil
}

// PlaceOrder reserves stock and records the order. The reservation is
// released when the order cannot be written.
func (s *Service) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.Order, error) {
	productID, ok := models.ParseObjectID(req.ProductID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	payment := req.PaymentMethod
	if payment == "" {
		payment = models.PaymentCard
	}
	if payment != models.PaymentCard {
		return nil, ErrUnsupportedPayment
	}
	if !s.pricing.ValidQuantity(quantity) {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := purchasable(product, quantity); err != nil {
		return nil, err
	}
	quote, err := s.pricing.Quote(product, quantity)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.ReserveStock(ctx, productID, quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("reserve stock: %w", err)
	}

	order := &models.Order{
		OrderNumber:     uuid.NewString(),
		ProductID:       product.ID,
		ProductName:     product.Name,
		Quantity:        quantity,
		UnitPriceCents:  quote.UnitPriceCents,
		SubtotalCents:   quote.SubtotalCents,
		ShippingCents:   quote.ShippingCents,
		TaxCents:        quote.TaxCents,
		TotalCents:      quote.TotalCents,
		Currency:        quote.Currency,
		ShippingAddress: normalizeAddress(req.ShippingAddress),
		SaveAddress:     req.SaveAddress,
		PaymentMethod:   payment,
		Status:          models.OrderPending,
		CreatedAt:       s.now(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// the request context may already be gone; the release must still run
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if relErr := s.products.ReleaseStock(releaseCtx, productID, quantity); relErr != nil {
			s.logger.Error("failed to release stock after order write failure",
				zap.String("product_id", productID.Hex()),
				zap.Int64("quantity", quantity),
				zap.Error(relErr),
			)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("product_id", productID.Hex()),
		zap.Int64("quantity", quantity),
		zap.Int64("total_cents", order.TotalCents),
	)
	return order, nil
}

func purchasable(product *models.Product, quantity int64) error {
	if product.Status != models.StatusActive {
		return ErrProductUnavailable
	}
	if quantity > 0 && product.Stock < quantity {
		return ErrInsufficientStock
	}
	return nil
}

func normalizeAddress(a models.ShippingAddress) models.ShippingAddress {
	return models.ShippingAddress{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}
