package dom

import "github.com/heathj/html5bridge/parser"

// Document is https://dom.spec.whatwg.org/#interface-document
type Document struct {
	// QuirksMode is the mode the parser settled on.
	QuirksMode parser.QuirksMode
}

// DocumentType is https://dom.spec.whatwg.org/#documenttype
type DocumentType struct {
	Name     string
	PublicID string
	SystemID string
}

// Doctype returns the doctype child of a document, if any.
func (n *Node) Doctype() *Node {
	for _, c := range n.ChildNodes {
		if c.NodeType == DocumentTypeNode {
			return c
		}
	}
	return nil
}

// DocumentElement returns the root element of a document, if any.
func (n *Node) DocumentElement() *Node {
	for _, c := range n.ChildNodes {
		if c.NodeType == ElementNode {
			return c
		}
	}
	return nil
}
