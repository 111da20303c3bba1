// Package config centralizes every environment-driven setting into one
// struct populated and validated once at boot, rather than scattering
// os.Getenv calls through the codebase.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopmini/paycore/internal/application/order"
	"github.com/shopmini/paycore/internal/application/payme"
)

type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	LogLevel     string
	LogFile      string
	TelegramToken string

	DBHost string
	DBPort int
	DBUser string
	DBPass string
	DBName string

	PaymeID            string
	PaymeKey           string
	PaymeURL           string
	PaymeAccountField  string
	PaymeMinAmount     int64
	ClickServiceID     string
	ClickServiceIDInt  int
	ClickMerchantID    string
	ClickSecretKey     string
	ClickMerchantUser  string
	ClickBaseURL       string
	FiscalURL          string

	OrderPaymentTimeout time.Duration
	DefaultPackageCode  string
	PickupAddress       string

	OutboxWorkers int
	OutboxBuffer  int
	ReaperInterval  time.Duration
	ReaperThreshold time.Duration
	LockTimeout     time.Duration
}

// Load reads every setting from the environment, applying sane production
// defaults where a value is not set.
func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		TelegramToken: os.Getenv("BOT_TOKEN"),

		DBHost: getenv("DB_HOST", "db"),
		DBPort: getenvInt("DB_PORT", 5432),
		DBUser: getenv("DB_USER", "postgres"),
		DBPass: getenv("DB_PASS", "postgres"),
		DBName: getenv("DB_NAME", "shop_db"),

		PaymeID:           os.Getenv("PAYME_ID"),
		PaymeKey:          os.Getenv("PAYME_KEY"),
		PaymeURL:          getenv("PAYME_URL", "https://checkout.paycom.uz"),
		PaymeAccountField: getenv("PAYME_ACCOUNT_FIELD", "order_id"),
		PaymeMinAmount:    int64(getenvInt("PAYME_MIN_AMOUNT", 100000)),
		ClickServiceID:    os.Getenv("CLICK_SERVICE_ID"),
		ClickServiceIDInt: getenvInt("CLICK_SERVICE_ID", 0),
		ClickMerchantID:   os.Getenv("CLICK_MERCHANT_ID"),
		ClickSecretKey:    os.Getenv("CLICK_SECRET_KEY"),
		ClickMerchantUser: os.Getenv("CLICK_MERCHANT_USER_ID"),
		ClickBaseURL:      getenv("CLICK_BASE_URL", "https://my.click.uz/services/pay"),
		FiscalURL:         os.Getenv("FISCAL_URL"),

		OrderPaymentTimeout: time.Duration(getenvInt("ORDER_PAYMENT_TIMEOUT_MINUTES", 20)) * time.Minute,
		DefaultPackageCode:  getenv("DEFAULT_PACKAGE_CODE", "000000"),
		PickupAddress:       getenv("PICKUP_ADDRESS", "Самовывоз: Чиланзар, 1"),

		OutboxWorkers:   getenvInt("OUTBOX_WORKERS", 4),
		OutboxBuffer:    getenvInt("OUTBOX_BUFFER", 256),
		ReaperInterval:  time.Duration(getenvInt("REAPER_INTERVAL_SECONDS", 60)) * time.Second,
		ReaperThreshold: time.Duration(getenvInt("ORDER_PAYMENT_TIMEOUT_MINUTES", 20)) * time.Minute,
		LockTimeout:     time.Duration(getenvInt("DB_LOCK_TIMEOUT_MS", 5000)) * time.Millisecond,
	}

	if c.PaymeKey == "" {
		return nil, fmt.Errorf("config: PAYME_KEY is required")
	}
	if c.ClickSecretKey == "" {
		return nil, fmt.Errorf("config: CLICK_SECRET_KEY is required")
	}
	return c, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}

func (c *Config) PaymeConfig() payme.Config {
	return payme.Config{
		MerchantAccountField: c.PaymeAccountField,
		PaymentTimeout:       c.OrderPaymentTimeout,
		FutureSkew:           60 * time.Second,
		DefaultPackageCode:   c.DefaultPackageCode,
	}
}

func (c *Config) PayURLs() order.PayURLConfig {
	return order.PayURLConfig{
		PaymeMerchantID: c.PaymeID,
		PaymeBaseURL:    c.PaymeURL,
		ClickServiceID:  c.ClickServiceID,
		ClickMerchantID: c.ClickMerchantID,
		ClickBaseURL:    c.ClickBaseURL,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
