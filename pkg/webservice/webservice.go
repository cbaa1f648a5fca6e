// Package webservice provides a client for the PrestaShop web service.
//
// The web service exposes dozens of resources (customers, orders, products,
// addresses, ...) that share one XML protocol. Rather than one type per
// resource, a Client hands out a Resource bound to any resource name:
//
//	client := webservice.New(webservice.Config{
//	    BaseURL: "https://store.example.com/",
//	    Key:     "ZR92FNY5UFRERNI3O9Z5QDHWKTP3Y",
//	}, logger, nil)
//
//	customer, err := client.Resource("customers").Get(ctx, 1)
//
// Entity documents are *etree.Element values. The Resource wraps outbound
// documents in the prestashop envelope and unwraps inbound ones.
package webservice

import (
	"context"
	"net/url"
	"strings"
)

// Session is the transport a Resource issues its requests through.
// HTTPSession talks to a live shop; the fixture package serves canned XML.
type Session interface {
	// Get issues a GET to rawURL with the given query parameters.
	Get(ctx context.Context, rawURL string, params url.Values) (*Response, error)

	// Post issues a form-encoded POST to rawURL.
	Post(ctx context.Context, rawURL string, form url.Values) (*Response, error)

	// Put issues a PUT to rawURL with a raw XML body.
	Put(ctx context.Context, rawURL string, body []byte) (*Response, error)

	// Delete issues a DELETE to rawURL.
	Delete(ctx context.Context, rawURL string) (*Response, error)
}

// Response is a transport response: a status code and the raw body.
type Response struct {
	StatusCode int
	Body       []byte
}

// ResourceFromURL returns the resource name of a web service URL, i.e. the
// path segment following "api". It returns an empty string when the URL has
// no such segment.
func ResourceFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "api" {
			return segments[i+1]
		}
	}
	return ""
}
