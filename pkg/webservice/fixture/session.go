// Package fixture serves canned web service replies from an XML fixture
// tree instead of a live shop.
//
// The tree is rooted per API version. A request for /api/customers/1 is
// answered from {version}/customers/1.xml and a request for /api/customers
// from {version}/customers.xml. Missing fixtures are answered with 404 and
// {version}/error.xml. Only reads are served; mutating calls fail with
// webservice.ErrUnsupportedOperation.
package fixture

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tournevent/stashop/pkg/webservice"
)

// DefaultVersion is the API version of the bundled fixtures.
const DefaultVersion = "1.5"

const errorFixture = "error.xml"

//go:embed xml
var bundled embed.FS

// Embedded returns the bundled fixture tree. Its top-level directories are
// API versions.
func Embedded() fs.FS {
	sub, err := fs.Sub(bundled, "xml")
	if err != nil {
		panic(err)
	}
	return sub
}

// Dir returns the fixture tree rooted at the directory dir.
func Dir(dir string) fs.FS {
	return os.DirFS(dir)
}

// ResolvePath maps a request path or URL to its fixture file, relative to
// the version root. A trailing numeric segment selects a record fixture:
//
//	/api/customers/1 -> customers/1.xml
//	/api/customers   -> customers.xml
func ResolvePath(requestPath string) string {
	p := requestPath
	if u, err := url.Parse(requestPath); err == nil {
		p = u.Path
	}
	segments := strings.Split(strings.Trim(p, "/"), "/")

	last := segments[len(segments)-1]
	if len(segments) > 1 && isDecimal(last) {
		return path.Join(segments[len(segments)-2], last+".xml")
	}
	return last + ".xml"
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Session is a webservice.Session answering GETs from a fixture tree.
type Session struct {
	fsys    fs.FS
	version string
}

// NewSession creates a session reading the version subtree of fsys. An
// empty version selects DefaultVersion.
func NewSession(fsys fs.FS, version string) *Session {
	if version == "" {
		version = DefaultVersion
	}
	return &Session{fsys: fsys, version: version}
}

// Version returns the API version the session serves.
func (s *Session) Version() string {
	return s.version
}

// Get answers with the fixture resolved from rawURL. Query parameters are
// ignored: no filtering, sorting or paging is simulated.
func (s *Session) Get(_ context.Context, rawURL string, _ url.Values) (*webservice.Response, error) {
	body, err := fs.ReadFile(s.fsys, path.Join(s.version, ResolvePath(rawURL)))
	if err == nil {
		return &webservice.Response{StatusCode: http.StatusOK, Body: body}, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	body, err = fs.ReadFile(s.fsys, path.Join(s.version, errorFixture))
	if err != nil {
		return nil, fmt.Errorf("reading %s fixture for version %s: %w", errorFixture, s.version, err)
	}
	return &webservice.Response{StatusCode: http.StatusNotFound, Body: body}, nil
}

// Post is not supported.
func (s *Session) Post(context.Context, string, url.Values) (*webservice.Response, error) {
	return nil, &webservice.UnsupportedOperationError{Op: http.MethodPost}
}

// Put is not supported.
func (s *Session) Put(context.Context, string, []byte) (*webservice.Response, error) {
	return nil, &webservice.UnsupportedOperationError{Op: http.MethodPut}
}

// Delete is not supported.
func (s *Session) Delete(context.Context, string) (*webservice.Response, error) {
	return nil, &webservice.UnsupportedOperationError{Op: http.MethodDelete}
}

// Resources lists the resources with a collection fixture, sorted by name.
func (s *Session) Resources() ([]string, error) {
	matches, err := doublestar.Glob(s.fsys, path.Join(s.version, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("listing fixtures: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := path.Base(m)
		if base == errorFixture {
			continue
		}
		names = append(names, strings.TrimSuffix(base, ".xml"))
	}
	sort.Strings(names)
	return names, nil
}

// IDs lists the record fixtures of resource in ascending id order.
func (s *Session) IDs(resource string) ([]int, error) {
	matches, err := doublestar.Glob(s.fsys, path.Join(s.version, resource, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("listing %s fixtures: %w", resource, err)
	}

	ids := make([]int, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(strings.TrimSuffix(path.Base(m), ".xml"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

var _ webservice.Session = (*Session)(nil)
