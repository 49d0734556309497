package dom

import "github.com/heathj/html5bridge/parser"

// Attr is one attribute of an element.
// https://dom.spec.whatwg.org/#attr
type Attr struct {
	Namespace parser.Namespace
	LocalName string
	Value     string
}

// Element is an individual element that gets added to the DOM.
// https://dom.spec.whatwg.org/#interface-element
type Element struct {
	Namespace  parser.Namespace
	LocalName  string
	Attributes []Attr
	// TemplateContents is the fragment holding the children of an HTML
	// template element.
	TemplateContents *Node
}

// GetAttribute returns the value of the attribute with no namespace named
// name.
func (e *Element) GetAttribute(name string) (string, bool) {
	return e.GetAttributeNS(parser.NoNamespace, name)
}

func (e *Element) GetAttributeNS(space parser.Namespace, local string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Namespace == space && a.LocalName == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttributeIfMissing adds the attribute unless one with the same
// namespace and local name exists. It reports whether it was added.
func (e *Element) SetAttributeIfMissing(space parser.Namespace, local, value string) bool {
	if _, ok := e.GetAttributeNS(space, local); ok {
		return false
	}
	e.Attributes = append(e.Attributes, Attr{Namespace: space, LocalName: local, Value: value})
	return true
}

// QualifiedName returns the attribute name as written in HTML.
func (a Attr) QualifiedName() string {
	switch a.Namespace {
	case parser.XLinkNamespace:
		return "xlink:" + a.LocalName
	case parser.XMLNamespace:
		return "xml:" + a.LocalName
	case parser.XMLNSNamespace:
		if a.LocalName == "xmlns" {
			return a.LocalName
		}
		return "xmlns:" + a.LocalName
	}
	return a.LocalName
}
