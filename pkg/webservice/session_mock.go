package webservice

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
)

// MockCall records one request made through a MockSession.
type MockCall struct {
	Method string
	URL    string
	Params url.Values
	Form   url.Values
	Body   []byte
}

// MockSession is a scripted Session for testing. Hooks override the
// default replies; every request is recorded in Calls.
type MockSession struct {
	SimulateErrors bool

	OnGet    func(ctx context.Context, rawURL string, params url.Values) (*Response, error)
	OnPost   func(ctx context.Context, rawURL string, form url.Values) (*Response, error)
	OnPut    func(ctx context.Context, rawURL string, body []byte) (*Response, error)
	OnDelete func(ctx context.Context, rawURL string) (*Response, error)

	mu    sync.Mutex
	calls []MockCall
}

// errSimulated is returned by every method when SimulateErrors is set.
var errSimulated = errors.New("simulated transport error")

// NewMockSession creates a new mock session with default behavior.
func NewMockSession() *MockSession {
	return &MockSession{}
}

// Calls returns the requests recorded so far.
func (m *MockSession) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// LastCall returns the most recent request, or false when none was made.
func (m *MockSession) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return MockCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Get returns an empty collection named after the requested resource.
func (m *MockSession) Get(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	m.record(MockCall{Method: http.MethodGet, URL: rawURL, Params: params})

	if m.SimulateErrors {
		return nil, errSimulated
	}
	if m.OnGet != nil {
		return m.OnGet(ctx, rawURL, params)
	}

	name := ResourceFromURL(rawURL)
	return &Response{
		StatusCode: http.StatusOK,
		Body:       []byte("<prestashop><" + name + "/></prestashop>"),
	}, nil
}

// Post echoes the posted envelope back with 201 Created.
func (m *MockSession) Post(ctx context.Context, rawURL string, form url.Values) (*Response, error) {
	m.record(MockCall{Method: http.MethodPost, URL: rawURL, Form: form})

	if m.SimulateErrors {
		return nil, errSimulated
	}
	if m.OnPost != nil {
		return m.OnPost(ctx, rawURL, form)
	}

	return &Response{
		StatusCode: http.StatusCreated,
		Body:       []byte(form.Get("xml")),
	}, nil
}

// Put echoes the sent envelope back with 200 OK.
func (m *MockSession) Put(ctx context.Context, rawURL string, body []byte) (*Response, error) {
	m.record(MockCall{Method: http.MethodPut, URL: rawURL, Body: body})

	if m.SimulateErrors {
		return nil, errSimulated
	}
	if m.OnPut != nil {
		return m.OnPut(ctx, rawURL, body)
	}

	return &Response{StatusCode: http.StatusOK, Body: body}, nil
}

// Delete answers 200 OK with an empty body.
func (m *MockSession) Delete(ctx context.Context, rawURL string) (*Response, error) {
	m.record(MockCall{Method: http.MethodDelete, URL: rawURL})

	if m.SimulateErrors {
		return nil, errSimulated
	}
	if m.OnDelete != nil {
		return m.OnDelete(ctx, rawURL)
	}

	return &Response{StatusCode: http.StatusOK}, nil
}

func (m *MockSession) record(call MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

var _ Session = (*MockSession)(nil)
