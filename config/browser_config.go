package config

import (
	"errors"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-ini/ini"
)

const (
	ProviderAWS   = "aws"
	ProviderAzure = "azure"
	ProviderGCP   = "gcp"
)

// Note: go-bucket-browser keeps a clear distinction between config and secrets.
// Config can live in version control (INI file). Secrets like AccessSecret are read
// exclusively from environment variables.
type BrowserConfig struct {
	// storage provider
	CloudProvider string `ini:"cloud_provider" env:"CLOUD_PROVIDER"`

	// aws
	AwsRegion string `ini:"aws_region" env:"AWS_REGION"`

	// Signed URL lifetime in seconds.
	UrlExpiresIn int `ini:"url_expires_in" env:"URL_EXPIRES_IN"`

	// azure
	AzureStorageAccount string `ini:"azure_storage_account" env:"AZURE_STORAGE_ACCOUNT"`
	AzureKeyVaultName   string `ini:"azure_key_vault_name" env:"AZURE_KEY_VAULT_NAME"`

	// gcp
	GcpProjectId string `ini:"gcp_project_id" env:"GCP_PROJECT_ID"`

	// http api
	HttpPort          string   `ini:"http_port" env:"HTTP_PORT"`
	AllowedOrigins    []string `ini:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	RequestsPerSecond float64  `ini:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	RequestBurst      int      `ini:"request_burst" env:"REQUEST_BURST"`

	// Issued API token lifetime in seconds.
	TokenTtlSeconds int `ini:"token_ttl_seconds" env:"TOKEN_TTL_SECONDS"`

	AccessSecret string `ini:"-" env:"ACCESS_SECRET"`
}

// NewBrowserConfig returns a config populated with defaults.
func NewBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		CloudProvider:     ProviderAWS,
		AwsRegion:         "us-east-1",
		UrlExpiresIn:      3600,
		HttpPort:          ":8081",
		AllowedOrigins:    []string{"*"},
		RequestsPerSecond: 20,
		RequestBurst:      40,
		TokenTtlSeconds:   86400,
	}
}

// Loads config into the target struct.
// Values already present in target act as defaults. When path is set, the INI section
// named by the ENV environment variable is mapped on top of them; environment
// variables are applied last. Don't put secrets in the INI file.
func LoadConfig[T any](path string, target *T) error {
	if target == nil {
		return errors.New("target cannot be nil")
	}

	if path != "" {
		file, err := ini.Load(path)
		if err != nil {
			return err
		}

		runMode := os.Getenv("ENV")

		// Step 1: Load from INI
		if err := file.Section(runMode).MapTo(target); err != nil {
			return err
		}
	}

	// Step 2: Override from ENV
	if err := env.Parse(target); err != nil {
		return err
	}

	return nil
}

// LoadBrowserConfig is LoadConfig over the default BrowserConfig.
func LoadBrowserConfig(path string) (*BrowserConfig, error) {
	cfg := NewBrowserConfig()
	if err := LoadConfig(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
