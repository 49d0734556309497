package parser

import "golang.org/x/net/html/atom"

// Namespace is a namespace URL as used by element and attribute names.
type Namespace string

const (
	NoNamespace     Namespace = ""
	HTMLNamespace   Namespace = "http://www.w3.org/1999/xhtml"
	MathMLNamespace Namespace = "http://www.w3.org/1998/Math/MathML"
	SVGNamespace    Namespace = "http://www.w3.org/2000/svg"
	XLinkNamespace  Namespace = "http://www.w3.org/1999/xlink"
	XMLNamespace    Namespace = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace  Namespace = "http://www.w3.org/2000/xmlns/"
)

// QualName is a namespaced element or attribute name. Atom is the interned
// local name when it is a known HTML name and zero otherwise.
type QualName struct {
	Space Namespace
	Local string
	Atom  atom.Atom
}

// NewQualName builds a QualName and interns its local name.
func NewQualName(space Namespace, local string) QualName {
	return QualName{Space: space, Local: local, Atom: atom.Lookup([]byte(local))}
}

// Is reports whether the name is the HTML element a.
func (q QualName) Is(a atom.Atom) bool {
	return q.Space == HTMLNamespace && q.Atom == a && a != 0
}

// Attribute is a single attribute of a start tag, in source order.
type Attribute struct {
	Name  QualName
	Value string
}

// QuirksMode is the document compatibility mode decided by the doctype.
type QuirksMode uint

const (
	NoQuirks QuirksMode = iota
	LimitedQuirks
	Quirks
)

func (q QuirksMode) String() string {
	switch q {
	case LimitedQuirks:
		return "limited-quirks"
	case Quirks:
		return "quirks"
	default:
		return "no-quirks"
	}
}

// NodeOrText is the payload of an append or insert operation: either a node
// handle or a run of text.
type NodeOrText[H any] struct {
	Node   H
	Text   string
	IsText bool
}

// AppendNode wraps a node handle as an append payload.
func AppendNode[H any](h H) NodeOrText[H] {
	return NodeOrText[H]{Node: h}
}

// AppendText wraps text as an append payload.
func AppendText[H any](s string) NodeOrText[H] {
	return NodeOrText[H]{Text: s, IsText: true}
}

// TreeSink receives the tree construction operations of the parser. H is the
// sink's node handle type; the parser never looks inside it.
//
// Handles returned by GetDocument, GetTemplateContents, CreateElement,
// CreateComment and CloneHandle are owned by the parser, which gives each one
// back exactly once through ReleaseHandle. Handles passed as arguments are
// borrowed for the duration of the call.
type TreeSink[H any] interface {
	// ParseError reports an authoring conformance error. Parsing continues.
	ParseError(msg string)
	GetDocument() H
	GetTemplateContents(target H) H
	SetQuirksMode(mode QuirksMode)
	SameNode(x, y H) bool
	// ElemName is only called with handles that came from CreateElement.
	ElemName(target H) QualName
	CreateElement(name QualName, attrs []Attribute) H
	CreateComment(text string) H
	Append(parent H, child NodeOrText[H])
	// AppendBeforeSibling inserts child before sibling. When sibling has no
	// parent nothing is inserted and child is handed back unchanged with
	// inserted set to false.
	AppendBeforeSibling(sibling H, child NodeOrText[H]) (rest NodeOrText[H], inserted bool)
	AppendDoctypeToDocument(name, publicID, systemID string)
	AddAttrsIfMissing(target H, attrs []Attribute)
	RemoveFromParent(target H)
	ReparentChildren(node, newParent H)
	MarkScriptAlreadyStarted(target H)
	CloneHandle(h H) H
	ReleaseHandle(h H)
}
