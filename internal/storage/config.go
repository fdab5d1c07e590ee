package storage

import (
	"github.com/spf13/viper"
)

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL is the externally reachable base for object URLs. Empty means
	// derive it from Endpoint and UseSSL.
	PublicURL string
}

// LoadMinIOConfig loads MinIO config from environment
func LoadMinIOConfig() *MinIOConfig {
	viper.AutomaticEnv()
	viper.SetDefault("MINIO_BUCKET", "receipts")
	return &MinIOConfig{
		Endpoint:  viper.GetString("MINIO_ENDPOINT"),
		AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
		SecretKey: viper.GetString("MINIO_SECRET_KEY"),
		UseSSL:    viper.GetBool("MINIO_USE_SSL"),
		Bucket:    viper.GetString("MINIO_BUCKET"),
		PublicURL: viper.GetString("MINIO_PUBLIC_URL"),
	}
}

// BaseURL returns the public base URL for objects.
func (c *MinIOConfig) BaseURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	if c.UseSSL {
		return "https://" + c.Endpoint
	}
	return "http://" + c.Endpoint
}
