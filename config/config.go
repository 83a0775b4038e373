package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jinseokoh/socrates/internal/models"
	"github.com/jinseokoh/socrates/internal/shipping"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
	}, nil
}

type GatewayConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

func LoadGatewayConfig() (*GatewayConfig, error) {
	cfg := &GatewayConfig{
		BaseURL:   os.Getenv("PG_BASE_URL"),
		APIKey:    os.Getenv("PG_API_KEY"),
		APISecret: os.Getenv("PG_API_SECRET"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.iamport.kr"
	}
	return cfg, nil
}

// LoadShippingConfig resolves the tariff table once at startup; the
// calculator never touches the environment afterwards.
func LoadShippingConfig() (shipping.Config, error) {
	cfg := shipping.Config{
		DomesticCost:      getEnvInt("SHIPPING_DOMESTIC_COST", 3000),
		RemoteCost:        getEnvInt("SHIPPING_REMOTE_COST", 6000),
		InternationalCost: getEnvInt("SHIPPING_INTL_COST", 25000),
		PackingFee:        getEnvInt("SHIPPING_PACKING_FEE", 1000),
		RemotePrefixes:    []string{"63"},
	}
	if prefixes := os.Getenv("SHIPPING_REMOTE_PREFIXES"); prefixes != "" {
		cfg.RemotePrefixes = strings.Split(prefixes, ",")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Auction{},
		&models.Order{},
		&models.Payment{},
		&models.LedgerEntry{},
		&models.Coupon{},
		&models.Grant{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
