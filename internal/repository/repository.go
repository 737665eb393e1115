package repository

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductFilter holds the list query options
type ProductFilter struct {
	Page     int
	PageSize int
	Category string
	Status   models.ProductStatus
	Search   string
	// price bounds in cents; 0 means unbounded
	MinPriceCents int64
	MaxPriceCents int64
	SortBy        string
	SortOrder     string
}

type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]*models.Product, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error)
	Discontinue(ctx context.Context, id primitive.ObjectID) error
	SetStock(ctx context.Context, id primitive.ObjectID, stock int64) (*models.Product, error)
	ReserveStock(ctx context.Context, id primitive.ObjectID, quantity int64) (*models.Product, error)
	ReleaseStock(ctx context.Context, id primitive.ObjectID, quantity int64) error
}

type CategoryStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	FindAll(ctx context.Context) ([]*models.Category, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.Review, error)
	RatingsForProduct(ctx context.Context, productID primitive.ObjectID) ([]int, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
}
