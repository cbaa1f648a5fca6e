package webservice

import (
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Config holds the connection settings of a shop.
type Config struct {
	// BaseURL is the shop root, e.g. https://store.example.com/.
	BaseURL string

	// Key is the web service key generated in the back office under
	// Advanced Parameters > Webservice.
	Key string

	// Debug makes the HTTP session log request and response bodies at
	// info level.
	Debug bool

	// APIVersion is informational for live shops; fixture sessions use it
	// to pick their fixture tree.
	APIVersion string

	// Timeout bounds each HTTP exchange. Zero selects 30 seconds.
	Timeout time.Duration
}

// Client is the entry point to a shop's web service. It owns one Session,
// built at construction and shared by every Resource it returns.
type Client struct {
	config  Config
	session Session
	logger  *otelzap.Logger
	tracer  trace.Tracer
}

// New creates a client talking HTTP to cfg.BaseURL.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	session := NewHTTPSession(HTTPSessionConfig{
		Key:     cfg.Key,
		Timeout: cfg.Timeout,
		Debug:   cfg.Debug,
	}, logger)
	return NewWithSession(cfg, session, logger, tracer)
}

// NewWithSession creates a client issuing its requests through session.
// This is how fixture and scripted sessions are injected.
func NewWithSession(cfg Config, session Session, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		config:  cfg,
		session: session,
		logger:  logger,
		tracer:  tracer,
	}
}

// Resource returns the proxy for the named resource. Any name is accepted;
// the set of valid resources is defined by the shop.
func (c *Client) Resource(name string) Resource {
	return Resource{
		name:       name,
		url:        c.config.BaseURL + "/api/" + name,
		session:    c.session,
		apiVersion: c.config.APIVersion,
		logger:     c.logger,
		tracer:     c.tracer,
	}
}

// BaseURL returns the normalized shop root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Session returns the shared session.
func (c *Client) Session() Session {
	return c.session
}

// Debug reports whether debug mode is on.
func (c *Client) Debug() bool {
	return c.config.Debug
}

// APIVersion returns the configured API version.
func (c *Client) APIVersion() string {
	return c.config.APIVersion
}
