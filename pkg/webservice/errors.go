package webservice

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/beevik/etree"
)

// Sentinel errors for web service failures.
var (
	// ErrServiceFailure matches every *ServiceError.
	ErrServiceFailure = errors.New("web service failure")

	// ErrProtocol matches every *ProtocolError.
	ErrProtocol = errors.New("unexpected web service payload")

	// ErrUnsupportedOperation matches every *UnsupportedOperationError.
	ErrUnsupportedOperation = errors.New("operation not supported")

	// ErrInvalidID indicates a record id that is not a positive integer.
	ErrInvalidID = errors.New("invalid record id")

	// ErrOffsetWithoutLimit indicates a list offset given without a limit.
	ErrOffsetWithoutLimit = errors.New("offset requires a limit")

	// ErrInvalidPagination indicates a negative limit or offset.
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrInvalidSortDirection indicates a sort direction other than ASC or DESC.
	ErrInvalidSortDirection = errors.New("invalid sort direction")

	// ErrNilDocument indicates a nil entity document passed to a write.
	ErrNilDocument = errors.New("nil entity document")
)

// APIMessage is one entry of a PrestaShop <errors> body.
type APIMessage struct {
	Code    string
	Message string
}

// ServiceError is returned when the web service answers with a status
// other than 200 or 201. Body holds the raw response for diagnostics.
type ServiceError struct {
	StatusCode int
	Body       []byte
	Errors     []APIMessage
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("web service error (HTTP %d)", e.StatusCode)
	}
	msgs := make([]string, len(e.Errors))
	for i, m := range e.Errors {
		if m.Code != "" {
			msgs[i] = m.Code + ": " + m.Message
		} else {
			msgs[i] = m.Message
		}
	}
	return fmt.Sprintf("web service error (HTTP %d): %s", e.StatusCode, strings.Join(msgs, "; "))
}

// Is reports whether target is ErrServiceFailure or a *ServiceError with
// the same status code.
func (e *ServiceError) Is(target error) bool {
	if target == ErrServiceFailure {
		return true
	}
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// ProtocolError is returned when a successful response does not have the
// shape the operation expects.
type ProtocolError struct {
	Op      string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// UnsupportedOperationError is returned by transports that deliberately do
// not implement an operation.
type UnsupportedOperationError struct {
	Op string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrUnsupportedOperation)
}

// Is implements errors.Is for UnsupportedOperationError.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

func newProtocolError(op, message string) *ProtocolError {
	return &ProtocolError{Op: op, Message: message}
}

// CheckStatus returns a *ServiceError unless resp carries 200 OK or
// 201 Created. It never parses a failure body as a success body.
func CheckStatus(resp *Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}
	return &ServiceError{
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
		Errors:     parseAPIMessages(resp.Body),
	}
}

// IsNotFound reports whether err is a *ServiceError carrying 404.
func IsNotFound(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.StatusCode == http.StatusNotFound
	}
	return false
}

// parseAPIMessages extracts <errors><error> entries; unparsable bodies
// yield nil.
func parseAPIMessages(body []byte) []APIMessage {
	if len(body) == 0 {
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}

	var msgs []APIMessage
	for _, el := range root.FindElements("./errors/error") {
		msgs = append(msgs, APIMessage{
			Code:    childText(el, "code"),
			Message: childText(el, "message"),
		})
	}
	return msgs
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}
