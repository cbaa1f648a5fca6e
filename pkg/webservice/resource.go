package webservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Resource performs CRUD operations against one named web service
// resource. It holds no per-call state; Client.Resource may be called as
// often as convenient.
type Resource struct {
	name       string
	url        string
	session    Session
	apiVersion string
	logger     *otelzap.Logger
	tracer     trace.Tracer
}

// ListResult is the outcome of GetList: IDs when ids were requested,
// Documents otherwise.
type ListResult struct {
	IDs       []int
	Documents []*etree.Element
}

// Name returns the resource name, e.g. "customers".
func (r Resource) Name() string {
	return r.name
}

// URL returns {base_url}/api/{name}.
func (r Resource) URL() string {
	return r.url
}

// Session returns the session shared with the owning Client.
func (r Resource) Session() Session {
	return r.session
}

// APIVersion returns the API version the owning Client was configured with.
func (r Resource) APIVersion() string {
	return r.apiVersion
}

// Create posts doc as a new record and returns the record the service
// stored.
func (r Resource) Create(ctx context.Context, doc *etree.Element) (_ *etree.Element, err error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	ctx, span := r.startSpan(ctx, "create")
	defer func() { endSpan(span, err) }()

	body, err := Serialize(doc)
	if err != nil {
		return nil, err
	}

	r.logger.Ctx(ctx).Info("Creating PrestaShop record",
		zap.String("resource", r.name),
		zap.String("tag", doc.Tag),
	)

	resp, err := r.session.Post(ctx, r.url, url.Values{"xml": {string(body)}})
	if err != nil {
		r.logger.Ctx(ctx).Error("PrestaShop create failed", zap.String("resource", r.name), zap.Error(err))
		return nil, err
	}
	return r.decodeSingle("create", resp)
}

// GetSchema returns the blank schema of the resource.
func (r Resource) GetSchema(ctx context.Context) (_ *etree.Element, err error) {
	ctx, span := r.startSpan(ctx, "get_schema")
	defer func() { endSpan(span, err) }()

	resp, err := r.session.Get(ctx, r.url, url.Values{"schema": {"blank"}})
	if err != nil {
		return nil, err
	}
	return r.decodeSingle("get_schema", resp)
}

// Get reads the record with the given id.
func (r Resource) Get(ctx context.Context, id int) (_ *etree.Element, err error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	ctx, span := r.startSpan(ctx, "get", attribute.Int("webservice.id", id))
	defer func() { endSpan(span, err) }()

	r.logger.Ctx(ctx).Debug("Getting PrestaShop record",
		zap.String("resource", r.name),
		zap.Int("id", id),
	)

	resp, err := r.session.Get(ctx, r.itemURL(id), nil)
	if err != nil {
		return nil, err
	}
	return r.decodeSingle("get", resp)
}

// List returns the records of the collection, in document order. Records
// hold only an id attribute unless opts.Display asks for fields.
func (r Resource) List(ctx context.Context, opts ListOptions) (_ []*etree.Element, err error) {
	ctx, span := r.startSpan(ctx, "list")
	defer func() { endSpan(span, err) }()

	collection, err := r.fetchCollection(ctx, "list", opts)
	if err != nil {
		return nil, err
	}
	return collection.ChildElements(), nil
}

// IDs returns the ids of the records of the collection, in document order.
// When opts.Display is set, the id field is always requested.
func (r Resource) IDs(ctx context.Context, opts ListOptions) (_ []int, err error) {
	ctx, span := r.startSpan(ctx, "ids")
	defer func() { endSpan(span, err) }()

	collection, err := r.fetchCollection(ctx, "ids", opts.withID())
	if err != nil {
		return nil, err
	}

	children := collection.ChildElements()
	ids := make([]int, 0, len(children))
	for _, child := range children {
		id, err := recordID(child)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GetList dispatches to IDs when asIDs is set and to List otherwise.
func (r Resource) GetList(ctx context.Context, asIDs bool, opts ListOptions) (*ListResult, error) {
	if asIDs {
		ids, err := r.IDs(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &ListResult{IDs: ids}, nil
	}

	docs, err := r.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &ListResult{Documents: docs}, nil
}

// Update replaces the record with the given id by doc and returns the
// stored record.
func (r Resource) Update(ctx context.Context, id int, doc *etree.Element) (_ *etree.Element, err error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if doc == nil {
		return nil, ErrNilDocument
	}

	ctx, span := r.startSpan(ctx, "update", attribute.Int("webservice.id", id))
	defer func() { endSpan(span, err) }()

	body, err := Serialize(doc)
	if err != nil {
		return nil, err
	}

	r.logger.Ctx(ctx).Info("Updating PrestaShop record",
		zap.String("resource", r.name),
		zap.Int("id", id),
	)

	resp, err := r.session.Put(ctx, r.itemURL(id), body)
	if err != nil {
		r.logger.Ctx(ctx).Error("PrestaShop update failed", zap.String("resource", r.name), zap.Error(err))
		return nil, err
	}
	return r.decodeSingle("update", resp)
}

// Delete removes the record with the given id. It reports true only for
// 200 OK; a 201 reply yields false and any other status a *ServiceError.
func (r Resource) Delete(ctx context.Context, id int) (_ bool, err error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	ctx, span := r.startSpan(ctx, "delete", attribute.Int("webservice.id", id))
	defer func() { endSpan(span, err) }()

	r.logger.Ctx(ctx).Info("Deleting PrestaShop record",
		zap.String("resource", r.name),
		zap.Int("id", id),
	)

	resp, err := r.session.Delete(ctx, r.itemURL(id))
	if err != nil {
		r.logger.Ctx(ctx).Error("PrestaShop delete failed", zap.String("resource", r.name), zap.Error(err))
		return false, err
	}
	if err := CheckStatus(resp); err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusOK, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (r Resource) itemURL(id int) string {
	return r.url + "/" + strconv.Itoa(id)
}

func (r Resource) decodeSingle(op string, resp *Response) (*etree.Element, error) {
	if err := CheckStatus(resp); err != nil {
		return nil, err
	}
	root, err := Parse(op, resp.Body)
	if err != nil {
		return nil, err
	}
	return UnwrapSingle(op, root)
}

func (r Resource) fetchCollection(ctx context.Context, op string, opts ListOptions) (*etree.Element, error) {
	params, err := opts.Params()
	if err != nil {
		return nil, err
	}

	r.logger.Ctx(ctx).Debug("Listing PrestaShop records",
		zap.String("resource", r.name),
		zap.String("params", params.Encode()),
	)

	resp, err := r.session.Get(ctx, r.url, params)
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(resp); err != nil {
		return nil, err
	}

	root, err := Parse(op, resp.Body)
	if err != nil {
		return nil, err
	}
	collection := root.SelectElement(r.name)
	if collection == nil {
		return nil, newProtocolError(op, fmt.Sprintf("no <%s> collection in response", r.name))
	}
	return collection, nil
}

// recordID reads the id attribute of a list entry, falling back to an <id>
// child when the list was requested with display fields.
func recordID(el *etree.Element) (int, error) {
	raw := el.SelectAttrValue("id", "")
	if raw == "" {
		raw = childText(el, "id")
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ProtocolError{Op: "ids", Message: fmt.Sprintf("bad id on <%s>", el.Tag), Cause: err}
	}
	return id, nil
}

func (r Resource) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("webservice.resource", r.name))
	return r.tracer.Start(ctx, "webservice."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
