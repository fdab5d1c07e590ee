package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Keycloak KeycloakConfig
	JWT      JWTConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KeycloakConfig describes the identity provider. ClientID is the audience
// expected in bearer tokens; the Admin* pair is a service-account client
// allowed to create realm users.
type KeycloakConfig struct {
	URL               string
	Realm             string
	ClientID          string
	ClientSecret      string
	AdminClientID     string
	AdminClientSecret string
}

// Issuer returns the realm issuer URL, or URL itself when no realm is set.
func (k KeycloakConfig) Issuer() string {
	if k.Realm == "" {
		return k.URL
	}
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

// JWTConfig configures the HS256 verifier used in local development.
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "claimdesk")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:               viper.GetString("KEYCLOAK_URL"),
			Realm:             viper.GetString("KEYCLOAK_REALM"),
			ClientID:          viper.GetString("KEYCLOAK_CLIENT_ID"),
			ClientSecret:      viper.GetString("KEYCLOAK_CLIENT_SECRET"),
			AdminClientID:     viper.GetString("KEYCLOAK_ADMIN_CLIENT_ID"),
			AdminClientSecret: viper.GetString("KEYCLOAK_ADMIN_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
	}

	if cfg.Keycloak.AdminClientID == "" {
		cfg.Keycloak.AdminClientID = cfg.Keycloak.ClientID
		cfg.Keycloak.AdminClientSecret = cfg.Keycloak.ClientSecret
	}

	if cfg.MongoDB.URI == "" {
		return nil, fmt.Errorf("environment variable MONGODB_URI is required")
	}
	if cfg.Keycloak.URL == "" && cfg.JWT.Secret == "" {
		logger.Warn("neither KEYCLOAK_URL nor JWT_SECRET is set; protected routes will reject every token")
	}

	return cfg, nil
}
