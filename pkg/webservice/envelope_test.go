package webservice_test

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/stashop/pkg/webservice"
)

func parseElement(t *testing.T, s string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(s))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func render(t *testing.T, el *etree.Element) string {
	t.Helper()
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	require.NoError(t, err)
	return s
}

const customerXML = `<customer><id>7</id><firstname>John</firstname><lastname>DOE</lastname><email>pub@prestashop.com</email></customer>`

func TestWrap_RoundTrip(t *testing.T) {
	el := parseElement(t, customerXML)

	wrapped := webservice.Wrap(el)
	require.Equal(t, webservice.EnvelopeTag, wrapped.Root().Tag)

	child, err := webservice.UnwrapSingle("test", wrapped.Root())
	require.NoError(t, err)
	assert.Equal(t, render(t, el), render(t, child))
	assert.Len(t, child.ChildElements(), 4)
}

func TestWrap_LeavesCallerTreeAlone(t *testing.T) {
	outer := parseElement(t, `<holder>`+customerXML+`</holder>`)
	el := outer.SelectElement("customer")

	webservice.Wrap(el)

	assert.Same(t, outer, el.Parent())
	assert.Len(t, outer.ChildElements(), 1)
}

func TestWrap_RedeclaresInheritedNamespaces(t *testing.T) {
	root := parseElement(t, `<prestashop xmlns:xlink="http://www.w3.org/1999/xlink" xmlns:py="http://codespeak.net/lxml/objectify/pytype">
<customer><id_lang xlink:href="http://store.example.com/api/languages/1">1</id_lang></customer>
</prestashop>`)
	customer := root.SelectElement("customer")

	envelope := webservice.Wrap(customer).Root()

	assert.Equal(t, "http://www.w3.org/1999/xlink", envelope.SelectAttrValue("xmlns:xlink", ""))
	assert.Nil(t, envelope.SelectAttr("xmlns:py"))
	assert.Len(t, root.ChildElements(), 1, "source tree untouched")
}

func TestWrap_KeepsOwnNamespaces(t *testing.T) {
	el := parseElement(t, `<customer xmlns:xlink="http://www.w3.org/1999/xlink"><id_lang xlink:href="x">1</id_lang></customer>`)

	envelope := webservice.Wrap(el).Root()

	assert.Nil(t, envelope.SelectAttr("xmlns:xlink"))
	assert.NotNil(t, envelope.SelectElement("customer").SelectAttr("xmlns:xlink"))
}

func TestDeannotate(t *testing.T) {
	el := parseElement(t, `<customer xmlns:py="http://codespeak.net/lxml/objectify/pytype"
		xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
		py:pytype="TREE"><id py:pytype="int">1</id><note xsi:type="xsd:string">hi</note></customer>`)

	webservice.Deannotate(el)

	assert.Nil(t, el.SelectAttr("py:pytype"))
	assert.Nil(t, el.SelectAttr("xmlns:py"))
	assert.NotNil(t, el.SelectAttr("xmlns:xsi"))
	assert.Nil(t, el.SelectElement("id").SelectAttr("py:pytype"))
	assert.Nil(t, el.SelectElement("note").SelectAttr("xsi:type"))
	assert.Equal(t, "hi", el.SelectElement("note").Text())
}

func TestSerialize(t *testing.T) {
	b, err := webservice.Serialize(parseElement(t, `<address><city>Paris</city></address>`))

	require.NoError(t, err)
	assert.Equal(t, `<prestashop><address><city>Paris</city></address></prestashop>`, string(b))
}

func TestSerialize_NilDocument(t *testing.T) {
	_, err := webservice.Serialize(nil)

	assert.True(t, errors.Is(err, webservice.ErrNilDocument))
}

func TestParse_Invalid(t *testing.T) {
	_, err := webservice.Parse("get", []byte("<prestashop><customer>"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, webservice.ErrProtocol))
}

func TestParse_Empty(t *testing.T) {
	_, err := webservice.Parse("get", []byte("  "))

	assert.True(t, errors.Is(err, webservice.ErrProtocol))
}

func TestUnwrapSingle_ChildCount(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		wantErr bool
	}{
		{"one child", `<prestashop><customer/></prestashop>`, false},
		{"one child with whitespace", "<prestashop>\n  <customer/>\n</prestashop>", false},
		{"no child", `<prestashop>text only</prestashop>`, true},
		{"two children", `<prestashop><customer/><customer/></prestashop>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child, err := webservice.UnwrapSingle("get", parseElement(t, tt.xml))
			if tt.wantErr {
				var protoErr *webservice.ProtocolError
				require.True(t, errors.As(err, &protoErr))
				assert.Equal(t, "get", protoErr.Op)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "customer", child.Tag)
		})
	}
}
