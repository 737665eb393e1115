package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const OrderPending OrderStatus = "PENDING"

const PaymentCard = "card"

// ShippingAddress is where an order gets delivered
type ShippingAddress struct {
	Street  string `json:"street" bson:"street" binding:"required,notblank,max=200"`
	City    string `json:"city" bson:"city" binding:"required,notblank,max=100"`
	State   string `json:"state" bson:"state" binding:"required,notblank,max=100"`
	ZipCode string `json:"zipCode" bson:"zip_code" binding:"required,notblank,max=20"`
	Country string `json:"country" bson:"country" binding:"required,notblank,max=100"`
}

// Order is a placed single-product order
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderNumber     string             `json:"orderNumber" bson:"order_number"`
	ProductID       primitive.ObjectID `json:"productId" bson:"product_id"`
	ProductName     string             `json:"productName" bson:"product_name"`
	Quantity        int64              `json:"quantity" bson:"quantity"`
	UnitPriceCents  int64              `json:"unitPriceCents" bson:"unit_price_cents"`
	SubtotalCents   int64              `json:"subtotalCents" bson:"subtotal_cents"`
	ShippingCents   int64              `json:"shippingCents" bson:"shipping_cents"`
	TaxCents        int64              `json:"taxCents" bson:"tax_cents"`
	TotalCents      int64              `json:"totalCents" bson:"total_cents"`
	Currency        string             `json:"currency" bson:"currency"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" bson:"shipping_address"`
	SaveAddress     bool               `json:"saveAddress" bson:"save_address"`
	PaymentMethod   string             `json:"paymentMethod" bson:"payment_method"`
	Status          OrderStatus        `json:"status" bson:"status"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
}

// PlaceOrderRequest is the body accepted by POST /api/orders
type PlaceOrderRequest struct {
	ProductID       string          `json:"productId" binding:"required,objectid"`
	Quantity        int64           `json:"quantity" binding:"omitempty,min=1"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	SaveAddress     bool            `json:"saveAddress"`
	PaymentMethod   string          `json:"paymentMethod" binding:"omitempty,oneof=card"`
}
