package webservice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// authPlaceholder is sent as the Basic auth password; the web service only
// reads the key sent as user name.
const authPlaceholder = "ignore"

// HTTPSession is the production Session, speaking HTTP to a live shop.
type HTTPSession struct {
	key        string
	debug      bool
	httpClient *http.Client
	logger     *otelzap.Logger
}

// HTTPSessionConfig holds configuration for the HTTP session.
type HTTPSessionConfig struct {
	Key     string
	Timeout time.Duration
	Debug   bool

	// HTTPClient overrides the default client, e.g. to add a transport.
	HTTPClient *http.Client
}

// NewHTTPSession creates a new HTTP session.
func NewHTTPSession(cfg HTTPSessionConfig, logger *otelzap.Logger) *HTTPSession {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	return &HTTPSession{
		key:        cfg.Key,
		debug:      cfg.Debug,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Get issues a GET with params merged into the URL query.
func (s *HTTPSession) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	target, err := withQuery(rawURL, params)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodGet, target, "", nil)
}

// Post issues a form-encoded POST.
func (s *HTTPSession) Post(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	return s.do(ctx, http.MethodPost, rawURL, "application/x-www-form-urlencoded", []byte(form.Encode()))
}

// Put issues a PUT with a raw XML body.
func (s *HTTPSession) Put(ctx context.Context, rawURL string, body []byte) (*Response, error) {
	return s.do(ctx, http.MethodPut, rawURL, "text/xml", body)
}

// Delete issues a DELETE without body.
func (s *HTTPSession) Delete(ctx context.Context, rawURL string) (*Response, error) {
	return s.do(ctx, http.MethodDelete, rawURL, "", nil)
}

// ============================================================================
// HTTP Helpers
// ============================================================================

func (s *HTTPSession) do(ctx context.Context, method, target, contentType string, body []byte) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.key, authPlaceholder)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if s.debug {
		s.logger.Ctx(ctx).Info("PrestaShop request",
			zap.String("method", method),
			zap.String("url", target),
			zap.ByteString("body", body),
		)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if s.debug {
		s.logger.Ctx(ctx).Info("PrestaShop response",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", data),
		)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func withQuery(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ Session = (*HTTPSession)(nil)
