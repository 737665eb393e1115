package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"

	"storefront/internal/cache"
	"storefront/internal/handlers"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const validAddress = `{"street":"742 Evergreen Terrace","city":"Springfield","state":"OR","zipCode":"97403","country":"US"}`

func orderBody(productID string, quantity int) string {
	return fmt.Sprintf(`{"productId":%q,"quantity":%d,"shippingAddress":%s,"paymentMethod":"card"}`,
		productID, quantity, validAddress)
}

func TestCheckoutSummary(t *testing.T) {
	env := newTestEnv(t)
	p := sampleProduct()
	env.products.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil).Times(2)

	w := env.do(http.MethodGet, "/api/checkout/summary?product="+p.ID.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	quote := decode(t, w)["quote"].(map[string]interface{})
	assert.Equal(t, 500.0, quote["shippingCents"])
	assert.Equal(t, 9499.0, quote["totalCents"])
	assert.Equal(t, "94.99", quote["total"])

	w = env.do(http.MethodGet, "/api/checkout/summary?product="+p.ID.Hex()+"&quantity=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	quote = decode(t, w)["quote"].(map[string]interface{})
	assert.Equal(t, 0.0, quote["shippingCents"])
	assert.Equal(t, 17998.0, quote["totalCents"])
}

func TestCheckoutSummaryRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	id := primitive.NewObjectID().Hex()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing product", "", `{"message":"Invalid product ID"}`},
		{"malformed product", "?product=abc", `{"message":"Invalid product ID"}`},
		{"non numeric quantity", "?product=" + id + "&quantity=two", `{"message":"Invalid quantity"}`},
		{"zero quantity", "?product=" + id + "&quantity=0", `{"message":"Invalid quantity"}`},
		{"above the limit", "?product=" + id + "&quantity=6", `{"message":"Invalid quantity"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodGet, "/api/checkout/summary"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestCheckoutSummaryUnavailableProduct(t *testing.T) {
	env := newTestEnv(t)
	p := sampleProduct()
	p.Status = models.StatusDiscontinued
	env.products.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)

	w := env.do(http.MethodGet, "/api/checkout/summary?product="+p.ID.Hex(), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"Product is not available"}`, w.Body.String())
}

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	p := sampleProduct()
	ctx := context.Background()
	before := env.detailKey(t, p.ID)
	listKey := cache.ProductListPrefix + "p1"
	require.NoError(t, env.cache.Set(ctx, before, models.ProductDetail{}, 0))
	require.NoError(t, env.cache.Set(ctx, listKey, handlers.ProductListResponse{}, 0))

	gomock.InOrder(
		env.products.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil),
		env.products.EXPECT().ReserveStock(gomock.Any(), p.ID, int64(2)).Return(p, nil),
		env.orders.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, o *models.Order) error {
				o.ID = primitive.NewObjectID()
				return nil
			}),
	)

	w := env.do(http.MethodPost, "/api/orders", orderBody(p.ID.Hex(), 2))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order := decode(t, w)["order"].(map[string]interface{})
	assert.Equal(t, 17998.0, order["totalCents"])
	assert.Equal(t, "PENDING", order["status"])
	assert.NotEmpty(t, order["orderNumber"])
	assert.NotEqual(t, before, env.detailKey(t, p.ID))
	assert.False(t, env.cached(t, listKey))

	count, err := testutil.GatherAndCount(env.metrics.Registry(), "storefront_orders_placed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	id := primitive.NewObjectID().Hex()

	t.Run("missing address", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/orders", fmt.Sprintf(`{"productId":%q}`, id))
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp handlers.ValidationErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		for _, field := range []string{"street", "city", "state", "zipCode", "country"} {
			assert.Equal(t, []string{"Required"}, resp.Errors.FieldErrors["shippingAddress."+field], field)
		}
	})

	t.Run("blank street", func(t *testing.T) {
		body := fmt.Sprintf(`{"productId":%q,"shippingAddress":{"street":"   ","city":"a","state":"b","zipCode":"1","country":"US"}}`, id)
		w := env.do(http.MethodPost, "/api/orders", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp handlers.ValidationErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"Must not be blank"}, resp.Errors.FieldErrors["shippingAddress.street"])
	})

	t.Run("bad product and payment", func(t *testing.T) {
		body := fmt.Sprintf(`{"productId":"nope","shippingAddress":%s,"paymentMethod":"paypal","quantity":-1}`, validAddress)
		w := env.do(http.MethodPost, "/api/orders", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp handlers.ValidationErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{"Invalid id"}, resp.Errors.FieldErrors["productId"])
		assert.Equal(t, []string{"Must be one of: card"}, resp.Errors.FieldErrors["paymentMethod"])
		assert.Contains(t, resp.Errors.FieldErrors, "quantity")
	})

	t.Run("quantity above the limit", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/orders", orderBody(id, 6))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"message":"Invalid quantity"}`, w.Body.String())
	})
}

func TestPlaceOrderConflicts(t *testing.T) {
	t.Run("stock taken concurrently", func(t *testing.T) {
		env := newTestEnv(t)
		p := sampleProduct()
		env.products.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)
		env.products.EXPECT().ReserveStock(gomock.Any(), p.ID, int64(1)).Return(nil, repository.ErrInsufficientStock)

		w := env.do(http.MethodPost, "/api/orders", orderBody(p.ID.Hex(), 1))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"message":"Not enough stock"}`, w.Body.String())
	})

	t.Run("unknown product", func(t *testing.T) {
		env := newTestEnv(t)
		id := primitive.NewObjectID()
		env.products.EXPECT().FindByID(gomock.Any(), id).Return(nil, repository.ErrNotFound)

		w := env.do(http.MethodPost, "/api/orders", orderBody(id.Hex(), 1))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("order write fails", func(t *testing.T) {
		env := newTestEnv(t)
		p := sampleProduct()
		env.products.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)
		env.products.EXPECT().ReserveStock(gomock.Any(), p.ID, int64(1)).Return(p, nil)
		env.orders.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("write concern"))
		env.products.EXPECT().ReleaseStock(gomock.Any(), p.ID, int64(1)).Return(nil)

		w := env.do(http.MethodPost, "/api/orders", orderBody(p.ID.Hex(), 1))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"message":"Failed to place order"}`, w.Body.String())
	})
}

func TestGetOrder(t *testing.T) {
	env := newTestEnv(t)
	found, missing := primitive.NewObjectID(), primitive.NewObjectID()
	env.orders.EXPECT().FindByID(gomock.Any(), found).Return(&models.Order{ID: found, OrderNumber: "abc"}, nil)
	env.orders.EXPECT().FindByID(gomock.Any(), missing).Return(nil, repository.ErrNotFound)

	w := env.do(http.MethodGet, "/api/orders/"+found.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", decode(t, w)["order"].(map[string]interface{})["orderNumber"])

	w = env.do(http.MethodGet, "/api/orders/"+missing.Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Order not found"}`, w.Body.String())

	w = env.do(http.MethodGet, "/api/orders/42", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid order ID"}`, w.Body.String())
}
