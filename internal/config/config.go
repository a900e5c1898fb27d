package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clipzipship/czs-admin/internal/models"
)

type Config struct {
	ENV       string
	HTTP_ADDR string
	LOG_LEVEL string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	// Connection settings handed to the feature stored procedure so the
	// serving layer can reach the features database on its own.
	DB_NAME_FEATURES   string
	DB_SCHEMA_FEATURES string

	JWT_SECRET          string
	TOKEN_EXP_MINUTES   int
	REFRESH_EXP_MINUTES int

	CATALOG_URL string
	RELOAD_URL  string

	KAFKA_ADDRESS string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		ENV:                 getenv("ENV", "DEV"),
		HTTP_ADDR:           getenv("HTTP_ADDR", ":5001"),
		LOG_LEVEL:           getenv("LOG_LEVEL", "info"),
		DB_HOST:             os.Getenv("DB_HOST"),
		DB_PORT:             getenv("DB_PORT", "5432"),
		DB_USER:             os.Getenv("DB_USER"),
		DB_PASSWORD:         os.Getenv("DB_PASSWORD"),
		DB_NAME:             os.Getenv("DB_NAME"),
		DB_NAME_FEATURES:    os.Getenv("DB_NAME_FEATURES"),
		DB_SCHEMA_FEATURES:  getenv("DB_SCHEMA_FEATURES", "public"),
		JWT_SECRET:          os.Getenv("JWT_SECRET"),
		TOKEN_EXP_MINUTES:   getenvInt("TOKEN_EXP_MINUTES", 480),
		REFRESH_EXP_MINUTES: getenvInt("REFRESH_EXP_MINUTES", 1440),
		CATALOG_URL:         os.Getenv("CATALOG_URL"),
		RELOAD_URL:          os.Getenv("RELOAD_URL"),
		KAFKA_ADDRESS:       os.Getenv("KAFKA_ADDRESS"),
		ES_URL:              os.Getenv("ES_URL"),
		ES_USER:             os.Getenv("ES_USER"),
		ES_PASSWORD:         os.Getenv("ES_PASSWORD"),
	}

	return config, nil
}

func (c *Config) IsDev() bool {
	return c.ENV == "DEV"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func InitDB(c *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RevokedToken{}, &models.Theme{}, &models.Parent{}); err != nil {
		return nil, fmt.Errorf("cannot run migrations: %w", err)
	}
	return db, nil
}
