package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Checkout CheckoutConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	ShutdownTimeout time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig selects the shared cache; an empty Addr keeps the cache in process
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	ProductTTL time.Duration
	ListTTL    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type CheckoutConfig struct {
	ShippingFeeCents           int64
	FreeShippingThresholdCents int64
	TaxRate                    decimal.Decimal
	MaxQuantity                int64
}

// envAliases keeps the historical variable names working
var envAliases = map[string][]string{
	"app.port":       {"PORT", "APP_PORT"},
	"mongo.uri":      {"MONGO_URI"},
	"mongo.database": {"MONGO_DB", "MONGO_DATABASE"},
}

// LoadConfig reads .env when present, then the environment
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, err
		}
	}

	taxRate, err := decimal.NewFromString(v.GetString("checkout.tax_rate"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECKOUT_TAX_RATE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:            v.GetString("app.name"),
			Env:             v.GetString("app.env"),
			Port:            v.GetString("app.port"),
			ShutdownTimeout: v.GetDuration("app.shutdown_timeout"),
		},
		Mongo: MongoConfig{
			URI:            v.GetString("mongo.uri"),
			Database:       v.GetString("mongo.database"),
			ConnectTimeout: v.GetDuration("mongo.connect_timeout"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			ProductTTL: v.GetDuration("cache.product_ttl"),
			ListTTL:    v.GetDuration("cache.list_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Checkout: CheckoutConfig{
			ShippingFeeCents:           v.GetInt64("checkout.shipping_fee_cents"),
			FreeShippingThresholdCents: v.GetInt64("checkout.free_shipping_threshold_cents"),
			TaxRate:                    taxRate,
			MaxQuantity:                v.GetInt64("checkout.max_quantity"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "storefront")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "storefront")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.product_ttl", 5*time.Minute)
	v.SetDefault("cache.list_ttl", 2*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("checkout.shipping_fee_cents", 599)
	v.SetDefault("checkout.free_shipping_threshold_cents", 5000)
	v.SetDefault("checkout.tax_rate", "0.08")
	v.SetDefault("checkout.max_quantity", 10)
}

// Validate checks the settings the service cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("MONGO_DB must not be empty"))
	}
	if c.Checkout.ShippingFeeCents < 0 || c.Checkout.FreeShippingThresholdCents < 0 {
		errs = append(errs, errors.New("checkout amounts must not be negative"))
	}
	if c.Checkout.TaxRate.IsNegative() {
		errs = append(errs, errors.New("CHECKOUT_TAX_RATE must not be negative"))
	}
	if c.Cache.ProductTTL <= 0 || c.Cache.ProductTTL >= 24*time.Hour {
		errs = append(errs, errors.New("CACHE_PRODUCT_TTL must be positive and under 24h"))
	}
	if c.Checkout.MaxQuantity < 1 {
		errs = append(errs, errors.New("CHECKOUT_MAX_QUANTITY must be at least 1"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
