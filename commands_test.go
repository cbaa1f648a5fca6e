package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/stashop/pkg/webservice"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("USE_FIXTURES", "true")
	t.Setenv("PRESTASHOP_URL", "")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"lastname=Doe", "id=[1,5]"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lastname": "Doe", "id": "[1,5]"}, filters)

	_, err = parseFilters([]string{"lastname"})
	assert.Error(t, err)

	filters, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, filters)
}

func TestParseSort(t *testing.T) {
	fields, err := parseSort([]string{"id:desc", "lastname", "date_add:ASC"})

	require.NoError(t, err)
	assert.Equal(t, []webservice.SortField{
		{Field: "id", Direction: webservice.Descending},
		{Field: "lastname", Direction: webservice.Ascending},
		{Field: "date_add", Direction: webservice.Ascending},
	}, fields)

	_, err = parseSort([]string{"id:sideways"})
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	for _, bad := range []string{"0", "-1", "abc"} {
		_, err := parseID(bad)
		assert.True(t, errors.Is(err, webservice.ErrInvalidID), bad)
	}
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	wrapped := filepath.Join(dir, "wrapped.xml")
	require.NoError(t, os.WriteFile(wrapped, []byte("<prestashop><customer><lastname>DOE</lastname></customer></prestashop>"), 0o600))

	doc, err := readDocument(nil, wrapped)
	require.NoError(t, err)
	assert.Equal(t, "customer", doc.Tag)

	doc, err = readDocument(strings.NewReader("<address><city>Paris</city></address>"), "-")
	require.NoError(t, err)
	assert.Equal(t, "address", doc.Tag)

	_, err = readDocument(nil, filepath.Join(dir, "missing.xml"))
	assert.Error(t, err)
}

func TestCommand_Get(t *testing.T) {
	out, err := runCommand(t, "get", "customers", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "<customer>")
	assert.Contains(t, out, "John")
}

func TestCommand_ListIDs(t *testing.T) {
	out, err := runCommand(t, "list", "orders", "--ids")

	require.NoError(t, err)
	assert.Equal(t, "3\n1\n2\n", out)
}

func TestCommand_Fixtures(t *testing.T) {
	out, err := runCommand(t, "fixtures")
	require.NoError(t, err)
	assert.Equal(t, "addresses\ncustomers\norders\nproducts\n", out)

	out, err = runCommand(t, "fixtures", "customers")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)
}

func TestCommand_DeleteUnsupportedOnFixtures(t *testing.T) {
	_, err := runCommand(t, "delete", "customers", "1")

	assert.True(t, errors.Is(err, webservice.ErrUnsupportedOperation))
}

func setShopEnv(t *testing.T, token string) {
	t.Helper()
	t.Setenv("USE_FIXTURES", "false")
	t.Setenv("PRESTASHOP_URL", "https://shop.example.com")
	t.Setenv("PRESTASHOP_KEY", "SECRETKEY")
	t.Setenv("GATEWAY_TOKEN", token)
}

func TestLoadGatewayConfig_DefaultsToFixtures(t *testing.T) {
	setShopEnv(t, "")

	cfg, err := loadGatewayConfig(false)

	require.NoError(t, err)
	assert.True(t, cfg.UseFixtures)
	assert.Equal(t, "http://localhost:8080", upstreamURL(cfg))
}

func TestLoadGatewayConfig_LiveRequiresToken(t *testing.T) {
	setShopEnv(t, "")

	_, err := loadGatewayConfig(true)

	assert.True(t, errors.Is(err, errGatewayTokenRequired))
}

func TestLoadGatewayConfig_LiveWithToken(t *testing.T) {
	setShopEnv(t, "gw-token")

	cfg, err := loadGatewayConfig(true)

	require.NoError(t, err)
	assert.False(t, cfg.UseFixtures)
	assert.Equal(t, "gw-token", cfg.GatewayToken)
	assert.Equal(t, "https://shop.example.com", upstreamURL(cfg))
}
