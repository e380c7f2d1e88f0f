package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Env         string `mapstructure:"ENV"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`

	DBHost     string `mapstructure:"POSTGRES_HOST"`
	DBPort     string `mapstructure:"POSTGRES_PORT"`
	DBUser     string `mapstructure:"POSTGRES_USER"`
	DBPassword string `mapstructure:"POSTGRES_PASSWORD"`
	DBName     string `mapstructure:"POSTGRES_DB"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	GatewayBaseURL    string `mapstructure:"GATEWAY_BASE_URL"`
	GatewayAPIKey     string `mapstructure:"GATEWAY_API_KEY"`
	GatewayTimeoutSec int    `mapstructure:"GATEWAY_TIMEOUT_SECONDS"`
	WebhookSecret     string `mapstructure:"WEBHOOK_SECRET"`

	Currency           string `mapstructure:"CURRENCY"`
	ShippingFee        string `mapstructure:"SHIPPING_FEE"`
	CheckoutSuccessURL string `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL  string `mapstructure:"CHECKOUT_CANCEL_URL"`
}

// Load reads configuration from an optional .env file, letting real
// environment variables take precedence. Config is read once at boot.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigParseError); ok {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		// a missing .env file is fine; env vars and defaults still apply
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := decimal.NewFromString(cfg.ShippingFee); err != nil {
		return nil, fmt.Errorf("invalid SHIPPING_FEE %q: %w", cfg.ShippingFee, err)
	}
	return cfg, nil
}

// ShippingFeeAmount parses the configured flat shipping fee.
func (c *Config) ShippingFeeAmount() decimal.Decimal {
	fee, err := decimal.NewFromString(c.ShippingFee)
	if err != nil {
		return decimal.Zero
	}
	return fee
}

func (c *Config) GatewayTimeout() time.Duration {
	if c.GatewayTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.GatewayTimeoutSec) * time.Second
}

func setDefaults() {
	viper.SetDefault("SERVICE_NAME", "minimarket")
	viper.SetDefault("ENV", "dev")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "minimarket")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("GATEWAY_BASE_URL", "https://gateway.example.com")
	viper.SetDefault("GATEWAY_API_KEY", "")
	viper.SetDefault("GATEWAY_TIMEOUT_SECONDS", 10)
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("CURRENCY", "usd")
	viper.SetDefault("SHIPPING_FEE", "5.00")
	viper.SetDefault("CHECKOUT_SUCCESS_URL", "https://shop.example.com/checkout/success")
	viper.SetDefault("CHECKOUT_CANCEL_URL", "https://shop.example.com/checkout/cancel")
}
