package telemetry

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tournevent/stashop/pkg/webservice"
)

// InstrumentedSession records metrics for every call made through a
// webservice.Session.
type InstrumentedSession struct {
	next    webservice.Session
	metrics *Metrics
}

// InstrumentSession wraps next so that its calls are counted and timed.
func InstrumentSession(next webservice.Session, metrics *Metrics) *InstrumentedSession {
	return &InstrumentedSession{next: next, metrics: metrics}
}

func (s *InstrumentedSession) Get(ctx context.Context, rawURL string, params url.Values) (*webservice.Response, error) {
	start := time.Now()
	resp, err := s.next.Get(ctx, rawURL, params)
	s.record(http.MethodGet, rawURL, start, resp, err)
	return resp, err
}

func (s *InstrumentedSession) Post(ctx context.Context, rawURL string, form url.Values) (*webservice.Response, error) {
	start := time.Now()
	resp, err := s.next.Post(ctx, rawURL, form)
	s.record(http.MethodPost, rawURL, start, resp, err)
	return resp, err
}

func (s *InstrumentedSession) Put(ctx context.Context, rawURL string, body []byte) (*webservice.Response, error) {
	start := time.Now()
	resp, err := s.next.Put(ctx, rawURL, body)
	s.record(http.MethodPut, rawURL, start, resp, err)
	return resp, err
}

func (s *InstrumentedSession) Delete(ctx context.Context, rawURL string) (*webservice.Response, error) {
	start := time.Now()
	resp, err := s.next.Delete(ctx, rawURL)
	s.record(http.MethodDelete, rawURL, start, resp, err)
	return resp, err
}

func (s *InstrumentedSession) record(method, rawURL string, start time.Time, resp *webservice.Response, err error) {
	resource := webservice.ResourceFromURL(rawURL)
	if err != nil {
		s.metrics.RecordError(method, resource)
		return
	}
	s.metrics.RecordCall(method, resource, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
}

var _ webservice.Session = (*InstrumentedSession)(nil)
