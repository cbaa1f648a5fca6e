package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// ErrMissingShop is returned when neither a shop URL nor fixtures are configured.
var ErrMissingShop = errors.New("PRESTASHOP_URL is required unless USE_FIXTURES is set")

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080" validate:"gt=0,lte=65535"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`

	// GatewayToken is the bearer token serve requires on /api requests.
	// Mandatory when serve forwards to a live shop.
	GatewayToken string `envconfig:"GATEWAY_TOKEN"`

	// PrestaShop
	PrestaShopURL        string        `envconfig:"PRESTASHOP_URL" validate:"omitempty,url"`
	PrestaShopKey        string        `envconfig:"PRESTASHOP_KEY"`
	PrestaShopDebug      bool          `envconfig:"PRESTASHOP_DEBUG" default:"false"`
	PrestaShopAPIVersion string        `envconfig:"PRESTASHOP_API_VERSION"`
	PrestaShopTimeout    time.Duration `envconfig:"PRESTASHOP_TIMEOUT" default:"30s"`

	// Fixtures
	UseFixtures     bool   `envconfig:"USE_FIXTURES" default:"false"`
	FixturesDir     string `envconfig:"FIXTURES_DIR"`
	FixturesVersion string `envconfig:"FIXTURES_VERSION" default:"1.5"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318" validate:"omitempty,url"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"stashop" validate:"required"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables. Overrides are
// applied in order before validation.
func Load(overrides ...func(*Config)) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and that a shop source is configured.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if c.PrestaShopTimeout < 0 {
		return fmt.Errorf("config validation failed: PRESTASHOP_TIMEOUT must not be negative")
	}
	if !c.UseFixtures && c.PrestaShopURL == "" {
		return ErrMissingShop
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.String("prestashop.url", c.PrestaShopURL),
		attribute.Bool("prestashop.fixtures", c.UseFixtures),
		attribute.Bool("prestashop.debug", c.PrestaShopDebug),
	}
}
