package models

import (
	"encoding/json"
	"math"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus is the lifecycle state of a product
type ProductStatus string

const (
	StatusDraft        ProductStatus = "DRAFT"
	StatusActive       ProductStatus = "ACTIVE"
	StatusOutOfStock   ProductStatus = "OUT_OF_STOCK"
	StatusDiscontinued ProductStatus = "DISCONTINUED"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsObjectID reports whether s is a 24 character hexadecimal identifier
func IsObjectID(s string) bool {
	return objectIDPattern.MatchString(s)
}

// ParseObjectID validates the format before handing the id to the driver
func ParseObjectID(s string) (primitive.ObjectID, bool) {
	if !IsObjectID(s) {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// StockStatus derives the status a product takes after its stock is set
func StockStatus(stock int64) ProductStatus {
	if stock == 0 {
		return StatusOutOfStock
	}
	return StatusActive
}

// Product represents a product in the catalog
type Product struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SKU         string              `json:"sku" bson:"sku"`
	Name        string              `json:"name" bson:"name"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	CategoryID  *primitive.ObjectID `json:"categoryId,omitempty" bson:"category_id,omitempty"`
	PriceCents  int64               `json:"priceCents" bson:"price_cents"`
	Currency    string              `json:"currency" bson:"currency"`
	Stock       int64               `json:"stock" bson:"stock"`
	Images      []string            `json:"images,omitempty" bson:"images,omitempty"`
	Attributes  map[string]string   `json:"attributes,omitempty" bson:"attributes,omitempty"`
	Status      ProductStatus       `json:"status" bson:"status"`
	CreatedAt   time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updated_at"`
}

// ProductCreate is the body accepted by POST /api/products
type ProductCreate struct {
	SKU         string            `json:"sku" binding:"required,max=64"`
	Name        string            `json:"name" binding:"required,min=1,max=200"`
	Description string            `json:"description" binding:"max=5000"`
	CategoryID  string            `json:"categoryId" binding:"omitempty,objectid"`
	PriceCents  *int64            `json:"priceCents" binding:"required,gte=0"`
	Currency    string            `json:"currency" binding:"omitempty,len=3,uppercase"`
	Stock       int64             `json:"stock" binding:"gte=0"`
	Images      []string          `json:"images" binding:"omitempty,dive,url"`
	Attributes  map[string]string `json:"attributes"`
	Status      ProductStatus     `json:"status" binding:"omitempty,oneof=DRAFT ACTIVE"`
}

// ToProduct builds the stored document, filling defaults
func (p ProductCreate) ToProduct() *Product {
	product := &Product{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  *p.PriceCents,
		Currency:    p.Currency,
		Stock:       p.Stock,
		Images:      p.Images,
		Attributes:  p.Attributes,
		Status:      p.Status,
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}
	if product.Status == "" || (product.Status == StatusActive && product.Stock == 0) {
		product.Status = StockStatus(product.Stock)
	}
	if id, ok := ParseObjectID(p.CategoryID); ok {
		product.CategoryID = &id
	}
	return product
}

// ProductUpdate represents the updatable fields of a product
type ProductUpdate struct {
	Name        *string           `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Description *string           `json:"description,omitempty" binding:"omitempty,max=5000"`
	CategoryID  *string           `json:"categoryId,omitempty" binding:"omitempty,objectid"`
	PriceCents  *int64            `json:"priceCents,omitempty" binding:"omitempty,gte=0"`
	Currency    *string           `json:"currency,omitempty" binding:"omitempty,len=3,uppercase"`
	Stock       *int64            `json:"stock,omitempty" binding:"omitempty,gte=0"`
	Images      []string          `json:"images,omitempty" binding:"omitempty,dive,url"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Status      *ProductStatus    `json:"status,omitempty" binding:"omitempty,oneof=DRAFT ACTIVE OUT_OF_STOCK DISCONTINUED"`
}

// IsEmpty reports whether the update carries no field at all
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.CategoryID == nil &&
		u.PriceCents == nil && u.Currency == nil && u.Stock == nil &&
		u.Images == nil && u.Attributes == nil && u.Status == nil
}

// StockUpdate is the body accepted by PATCH /api/products/:id/stock.
// Stock is kept raw so integral numbers written as 5.0 or 1e2 are accepted.
type StockUpdate struct {
	Stock json.RawMessage `json:"stock"`
}

var maxStock = decimal.NewFromInt(math.MaxInt64)

// Value returns the requested stock when it is a JSON number with no
// fractional part, not negative and within int64.
func (s StockUpdate) Value() (int64, bool) {
	d, err := decimal.NewFromString(string(s.Stock))
	if err != nil {
		return 0, false
	}
	if d.IsZero() {
		return 0, true
	}
	// exponents outside this window are either fractional or out of range;
	// checking first avoids expanding them
	if d.Exponent() < -32 || d.Exponent() > 18 {
		return 0, false
	}
	if d.IsNegative() || !d.IsInteger() || d.GreaterThan(maxStock) {
		return 0, false
	}
	return d.IntPart(), true
}
