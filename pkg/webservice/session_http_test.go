package webservice_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/stashop/pkg/webservice"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type capturedRequest struct {
	method      string
	path        string
	query       url.Values
	contentType string
	user        string
	password    string
	body        []byte
	form        url.Values
}

func newCapturingServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.Query()
		captured.contentType = r.Header.Get("Content-Type")
		captured.user, captured.password, _ = r.BasicAuth()
		if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
			_ = r.ParseForm()
			captured.form = r.PostForm
		} else {
			captured.body, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestSession(debug bool) *webservice.HTTPSession {
	return webservice.NewHTTPSession(webservice.HTTPSessionConfig{Key: "WSKEY", Debug: debug}, otelzap.New(zap.NewNop()))
}

func TestHTTPSession_Get(t *testing.T) {
	srv, captured := newCapturingServer(t, http.StatusOK, "<prestashop/>")

	resp, err := newTestSession(false).Get(context.Background(), srv.URL+"/api/customers", url.Values{
		"display":          {"[id,lastname]"},
		"filter[lastname]": {"[Doe]"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<prestashop/>", string(resp.Body))

	assert.Equal(t, http.MethodGet, captured.method)
	assert.Equal(t, "/api/customers", captured.path)
	assert.Equal(t, "[id,lastname]", captured.query.Get("display"))
	assert.Equal(t, "[Doe]", captured.query.Get("filter[lastname]"))
	assert.Equal(t, "WSKEY", captured.user)
	assert.Equal(t, "ignore", captured.password)
}

func TestHTTPSession_Get_KeepsExistingQuery(t *testing.T) {
	srv, captured := newCapturingServer(t, http.StatusOK, "")

	_, err := newTestSession(false).Get(context.Background(), srv.URL+"/api/orders?output_format=XML", url.Values{"limit": {"10"}})

	require.NoError(t, err)
	assert.Equal(t, "XML", captured.query.Get("output_format"))
	assert.Equal(t, "10", captured.query.Get("limit"))
}

func TestHTTPSession_Post(t *testing.T) {
	srv, captured := newCapturingServer(t, http.StatusCreated, "<prestashop><customer/></prestashop>")

	resp, err := newTestSession(true).Post(context.Background(), srv.URL+"/api/customers", url.Values{
		"xml": {"<prestashop><customer/></prestashop>"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "<prestashop><customer/></prestashop>", captured.form.Get("xml"))
}

func TestHTTPSession_DebugLogsBodiesAtInfo(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusOK, "<prestashop><customers/></prestashop>")
	core, logs := observer.New(zapcore.InfoLevel)
	session := webservice.NewHTTPSession(webservice.HTTPSessionConfig{Key: "WSKEY", Debug: true}, otelzap.New(zap.New(core)))

	_, err := session.Get(context.Background(), srv.URL+"/api/customers", nil)

	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("PrestaShop request").Len())
	responses := logs.FilterMessage("PrestaShop response").All()
	require.Len(t, responses, 1)
	assert.Equal(t, "<prestashop><customers/></prestashop>", responses[0].ContextMap()["body"])
}

func TestHTTPSession_NoBodyLogsWithoutDebug(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusOK, "<prestashop/>")
	core, logs := observer.New(zapcore.DebugLevel)
	session := webservice.NewHTTPSession(webservice.HTTPSessionConfig{Key: "WSKEY"}, otelzap.New(zap.New(core)))

	_, err := session.Get(context.Background(), srv.URL+"/api/customers", nil)

	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestHTTPSession_Put(t *testing.T) {
	srv, captured := newCapturingServer(t, http.StatusOK, "<prestashop><customer/></prestashop>")

	_, err := newTestSession(false).Put(context.Background(), srv.URL+"/api/customers/4", []byte("<prestashop><customer/></prestashop>"))

	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, captured.method)
	assert.Equal(t, "/api/customers/4", captured.path)
	assert.Equal(t, "text/xml", captured.contentType)
	assert.Equal(t, "<prestashop><customer/></prestashop>", string(captured.body))
}

func TestHTTPSession_Delete(t *testing.T) {
	srv, captured := newCapturingServer(t, http.StatusOK, "")

	resp, err := newTestSession(false).Delete(context.Background(), srv.URL+"/api/customers/4")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.MethodDelete, captured.method)
	assert.Empty(t, captured.body)
}

func TestHTTPSession_PassesFailureStatusThrough(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusUnauthorized, "<prestashop><errors/></prestashop>")

	resp, err := newTestSession(false).Get(context.Background(), srv.URL+"/api/customers", nil)

	require.NoError(t, err, "status checking belongs to the resource")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPSession_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := newTestSession(false).Get(context.Background(), srv.URL+"/api/customers", nil)

	assert.Error(t, err)
}

func TestClient_EndToEndOverHTTP(t *testing.T) {
	srv, captured := newCapturingServer(t, http.StatusOK, `<prestashop><customer><id>1</id></customer></prestashop>`)
	client := webservice.New(webservice.Config{BaseURL: srv.URL + "/", Key: "WSKEY"}, otelzap.New(zap.NewNop()), nil)

	doc, err := client.Resource("customers").Get(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "1", doc.SelectElement("id").Text())
	assert.Equal(t, "/api/customers/1", captured.path)
	assert.Equal(t, "WSKEY", captured.user)
}
