package filestore

import "github.com/koustreak/cowclash/internal/errs"

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
)

// Config holds all settings needed to connect to a file storage backend.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider `yaml:"provider"`

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string `yaml:"endpoint"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool `yaml:"use_ssl"`

	// Region is used by region-aware backends (e.g. AWS S3).
	// Leave empty for MinIO.
	Region string `yaml:"region"`

	// DefaultBucket is checked by Ping when set.
	DefaultBucket string `yaml:"bucket"`
}

// DefaultConfig returns a sensible local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:  ProviderMinIO,
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    false,
	}
}

// Validate reports the first missing setting.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMinIO, "":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unsupported filestore provider %q", c.Provider)
	}
	if c.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "filestore endpoint is required")
	}
	return nil
}
