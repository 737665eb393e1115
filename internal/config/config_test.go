package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "storefront", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ProductTTL)
	assert.Equal(t, int64(599), cfg.Checkout.ShippingFeeCents)
	assert.True(t, decimal.RequireFromString("0.08").Equal(cfg.Checkout.TaxRate))
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DB", "shop")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("CACHE_PRODUCT_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHECKOUT_TAX_RATE", "0.2")
	t.Setenv("CHECKOUT_MAX_QUANTITY", "3")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "shop", cfg.Mongo.Database)
	assert.Equal(t, "9000", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Cache.ProductTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0.2", cfg.Checkout.TaxRate.String())
	assert.Equal(t, int64(3), cfg.Checkout.MaxQuantity)
}

func TestLoadRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")

	_, err := load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("CHECKOUT_TAX_RATE", "eight percent")

	_, err := load(viper.New())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Mongo:    MongoConfig{URI: "mongodb://x", Database: "db"},
		Checkout: CheckoutConfig{TaxRate: decimal.NewFromFloat(-0.1), MaxQuantity: 0},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECKOUT_TAX_RATE")
	assert.Contains(t, err.Error(), "CHECKOUT_MAX_QUANTITY")
}

func TestLoadRejectsLongProductTTL(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("CACHE_PRODUCT_TTL", "48h")

	_, err := load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_PRODUCT_TTL")
}
