package main

import (
	"context"
	"errors"

	"github.com/tournevent/stashop/internal/config"
	"github.com/tournevent/stashop/internal/telemetry"
	"github.com/tournevent/stashop/pkg/webservice"
	"github.com/tournevent/stashop/pkg/webservice/fixture"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

func loadConfig() (*config.Config, error) {
	return config.Load(func(c *config.Config) {
		if useFixtures {
			c.UseFixtures = true
		}
	})
}

var errGatewayTokenRequired = errors.New("serve --live requires GATEWAY_TOKEN")

// loadGatewayConfig loads the serve configuration. The gateway answers from
// fixtures unless live is set, and a live gateway must carry a token since
// it forwards with the shop key.
func loadGatewayConfig(live bool) (*config.Config, error) {
	cfg, err := config.Load(func(c *config.Config) {
		c.UseFixtures = !live
	})
	if err != nil {
		return nil, err
	}
	if !cfg.UseFixtures && cfg.GatewayToken == "" {
		return nil, errGatewayTokenRequired
	}
	return cfg, nil
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func fixtureStore(cfg *config.Config) *fixture.Session {
	fsys := fixture.Embedded()
	if cfg.FixturesDir != "" {
		fsys = fixture.Dir(cfg.FixturesDir)
	}
	return fixture.NewSession(fsys, cfg.FixturesVersion)
}

// initSession returns the transport for the configured shop: fixtures when
// enabled, HTTP otherwise.
func initSession(cfg *config.Config, logger *otelzap.Logger) webservice.Session {
	if cfg.UseFixtures {
		return fixtureStore(cfg)
	}
	return webservice.NewHTTPSession(webservice.HTTPSessionConfig{
		Key:     cfg.PrestaShopKey,
		Timeout: cfg.PrestaShopTimeout,
		Debug:   cfg.PrestaShopDebug,
	}, logger)
}

func upstreamURL(cfg *config.Config) string {
	if cfg.UseFixtures {
		return "http://localhost:8080"
	}
	return cfg.PrestaShopURL
}

func initClient(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *webservice.Client {
	apiVersion := cfg.PrestaShopAPIVersion
	if cfg.UseFixtures {
		apiVersion = cfg.FixturesVersion
	}

	return webservice.NewWithSession(webservice.Config{
		BaseURL:    upstreamURL(cfg),
		Key:        cfg.PrestaShopKey,
		Debug:      cfg.PrestaShopDebug,
		APIVersion: apiVersion,
		Timeout:    cfg.PrestaShopTimeout,
	}, initSession(cfg, logger), logger, tracer)
}
