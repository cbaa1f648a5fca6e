package fixture

import (
	"io/fs"

	"github.com/tournevent/stashop/pkg/webservice"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
)

// Config configures an offline client.
type Config struct {
	// BaseURL only shapes the URLs handed to the session; nothing is
	// contacted. Defaults to http://localhost:8080.
	BaseURL string
	Key     string

	// Version selects the fixture subtree. Defaults to DefaultVersion.
	Version string

	// FS is the fixture tree. Defaults to Embedded().
	FS fs.FS
}

// NewClient creates a webservice client whose requests are answered from
// fixtures.
func NewClient(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *webservice.Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.FS == nil {
		cfg.FS = Embedded()
	}
	session := NewSession(cfg.FS, cfg.Version)

	return webservice.NewWithSession(webservice.Config{
		BaseURL:    cfg.BaseURL,
		Key:        cfg.Key,
		APIVersion: session.Version(),
	}, session, logger, tracer)
}
