// Package config loads the gateway's process configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/mmstream/hlsgate/pkg/hlsgate"
)

// ServerConfig is the full process configuration.
//
// ACCOUNTS_JSON carries the tenant table: a JSON object keyed by account
// identifier, values {accessKeyId, secretAccessKey, accountId, bucketName}.
// Its absence or malformed content does not stop the process; media requests
// answer 500 until the environment is corrected.
type ServerConfig struct {
	Port               string        `env:"PORT" env-default:"8080"`
	Environment        string        `env:"ENVIRONMENT" env-default:"development"`
	AccountsJSON       string        `env:"ACCOUNTS_JSON"`
	StorageDomain      string        `env:"STORAGE_DOMAIN" env-default:"r2.cloudflarestorage.com"`
	ManifestExpiry     time.Duration `env:"MANIFEST_EXPIRY" env-default:"1h"`
	DownloadExpiry     time.Duration `env:"DOWNLOAD_EXPIRY" env-default:"4h"`
	RewriteConcurrency int           `env:"REWRITE_CONCURRENCY" env-default:"16"`
}

// Load reads the configuration from the environment.
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// BuildRegistry decodes ACCOUNTS_JSON and constructs the tenant registry with
// one presigner per account.
func (c *ServerConfig) BuildRegistry() (*hlsgate.Registry, error) {
	if c.AccountsJSON == "" {
		return nil, fmt.Errorf("%w: ACCOUNTS_JSON is not set", hlsgate.ErrConfiguration)
	}
	entries, err := hlsgate.ParseAccounts([]byte(c.AccountsJSON))
	if err != nil {
		return nil, err
	}
	return hlsgate.NewRegistry(entries, c.StorageDomain)
}
