package webservice

import (
	"fmt"

	"github.com/beevik/etree"
)

// EnvelopeTag is the root tag every outbound document is wrapped in.
const EnvelopeTag = "prestashop"

// Wrap returns a new document whose prestashop root holds a deannotated
// copy of el. el itself is left attached to its own tree. Namespace
// declarations el inherits from its ancestors, such as xmlns:xlink on a
// response root, are redeclared on the envelope root.
func Wrap(el *etree.Element) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement(EnvelopeTag)
	for _, ns := range inheritedNamespaces(el) {
		root.CreateAttr(ns.FullKey(), ns.Value)
	}
	root.AddChild(Deannotate(el.Copy()))
	return doc
}

// inheritedNamespaces returns the namespace declarations in scope on el
// that el does not declare itself, nearest ancestor first.
func inheritedNamespaces(el *etree.Element) []etree.Attr {
	seen := map[string]bool{}
	for _, a := range el.Attr {
		if isNamespaceDecl(a) {
			seen[a.FullKey()] = true
		}
	}

	var decls []etree.Attr
	for p := el.Parent(); p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			if !isNamespaceDecl(a) || isAnnotation(a) || seen[a.FullKey()] {
				continue
			}
			seen[a.FullKey()] = true
			decls = append(decls, a)
		}
	}
	return decls
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// Deannotate strips type annotations (py:* attributes, xsi:type and the py
// namespace declaration) from el and its descendants, in place.
func Deannotate(el *etree.Element) *etree.Element {
	kept := el.Attr[:0]
	for _, a := range el.Attr {
		if isAnnotation(a) {
			continue
		}
		kept = append(kept, a)
	}
	el.Attr = kept

	for _, child := range el.ChildElements() {
		Deannotate(child)
	}
	return el
}

func isAnnotation(a etree.Attr) bool {
	switch {
	case a.Space == "py":
		return true
	case a.Space == "xmlns" && a.Key == "py":
		return true
	case a.Space == "xsi" && a.Key == "type":
		return true
	}
	return false
}

// Serialize wraps el in the envelope and renders it as XML.
func Serialize(el *etree.Element) ([]byte, error) {
	if el == nil {
		return nil, ErrNilDocument
	}
	b, err := Wrap(el).WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing envelope: %w", err)
	}
	return b, nil
}

// Parse reads a response body and returns its root element.
func Parse(op string, body []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, &ProtocolError{Op: op, Message: "invalid XML", Cause: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, newProtocolError(op, "empty document")
	}
	return root, nil
}

// UnwrapSingle returns the only child element of root. Zero or several
// children are a *ProtocolError.
func UnwrapSingle(op string, root *etree.Element) (*etree.Element, error) {
	children := root.ChildElements()
	if len(children) != 1 {
		return nil, newProtocolError(op,
			fmt.Sprintf("expected exactly one element under <%s>, got %d", root.Tag, len(children)))
	}
	return children[0], nil
}
