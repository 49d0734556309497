package dom

import (
	"sort"
	"strings"

	"github.com/heathj/html5bridge/bridge"
	"github.com/heathj/html5bridge/parser"
)

type NodeType uint16

const (
	ElementNode NodeType = iota + 1
	AttrNode
	TextNode
	CDATASectionNode
	ProcessingInstructionNode
	CommentNode
	DocumentNode
	DocumentTypeNode
	DocumentFragmentNode
)

// https://dom.spec.whatwg.org/#node
type Node struct {
	NodeType   NodeType
	NodeName   string
	ParentNode *Node
	ChildNodes NodeList

	// ref is the live host identity of the node, zero when the bridge holds
	// no reference to it.
	ref bridge.NodeRef

	// Node types
	*Element
	*Text
	*Comment
	*Document
	*DocumentType
}

// NodeList is an ordered list of child nodes.
type NodeList []*Node

// Contains returns the index of n in the list or -1.
func (l NodeList) Contains(n *Node) int {
	for i, c := range l {
		if c == n {
			return i
		}
	}
	return -1
}

// Remove deletes and returns the node at i.
func (l *NodeList) Remove(i int) *Node {
	n := (*l)[i]
	*l = append((*l)[:i], (*l)[i+1:]...)
	return n
}

// NewDocument returns an empty document node.
func NewDocument() *Node {
	return &Node{NodeType: DocumentNode, NodeName: "#document", Document: &Document{}}
}

// NewDocumentFragment returns an empty fragment, used for template contents.
func NewDocumentFragment() *Node {
	return &Node{NodeType: DocumentFragmentNode, NodeName: "#document-fragment"}
}

// NewElement returns an element with no attributes. HTML template elements
// get an empty contents fragment.
func NewElement(space parser.Namespace, local string) *Node {
	n := &Node{
		NodeType: ElementNode,
		NodeName: local,
		Element:  &Element{Namespace: space, LocalName: local},
	}
	if space == parser.HTMLNamespace && local == "template" {
		n.TemplateContents = NewDocumentFragment()
	}
	return n
}

// NewTextNode returns a text node holding data.
func NewTextNode(data string) *Node {
	return &Node{NodeType: TextNode, NodeName: "#text", Text: &Text{CharacterData{Data: data}}}
}

// NewComment returns a comment node with its Data section filled.
func NewComment(data string) *Node {
	return &Node{NodeType: CommentNode, NodeName: "#comment", Comment: &Comment{CharacterData{Data: data}}}
}

// NewDocTypeNode returns a doctype node.
func NewDocTypeNode(name, pub, sys string) *Node {
	return &Node{
		NodeType:     DocumentTypeNode,
		NodeName:     name,
		DocumentType: &DocumentType{Name: name, PublicID: pub, SystemID: sys},
	}
}

func (n *Node) HasChildNodes() bool {
	return len(n.ChildNodes) > 0
}

func (n *Node) FirstChild() *Node {
	if len(n.ChildNodes) == 0 {
		return nil
	}
	return n.ChildNodes[0]
}

func (n *Node) LastChild() *Node {
	if len(n.ChildNodes) == 0 {
		return nil
	}
	return n.ChildNodes[len(n.ChildNodes)-1]
}

// PreviousSibling returns the child of n's parent just before n.
func (n *Node) PreviousSibling() *Node {
	if n.ParentNode == nil {
		return nil
	}
	if i := n.ParentNode.ChildNodes.Contains(n); i > 0 {
		return n.ParentNode.ChildNodes[i-1]
	}
	return nil
}

// AppendChild adds on as the last child of n, first removing it from its
// current parent.
// https://dom.spec.whatwg.org/#concept-node-append
func (n *Node) AppendChild(on *Node) *Node {
	on.Detach()
	on.ParentNode = n
	n.ChildNodes = append(n.ChildNodes, on)
	return on
}

// InsertBefore inserts on before child, which must be a child of n.
func (n *Node) InsertBefore(on, child *Node) *Node {
	on.Detach()
	i := n.ChildNodes.Contains(child)
	if i == -1 {
		return n.AppendChild(on)
	}
	n.ChildNodes = append(n.ChildNodes, nil)
	copy(n.ChildNodes[i+1:], n.ChildNodes[i:])
	n.ChildNodes[i] = on
	on.ParentNode = n
	return on
}

// RemoveChild removes child from n and returns it.
func (n *Node) RemoveChild(child *Node) *Node {
	i := n.ChildNodes.Contains(child)
	if i == -1 {
		return nil
	}
	n.ChildNodes.Remove(i)
	child.ParentNode = nil
	return child
}

// Detach removes n from its parent, if it has one.
func (n *Node) Detach() {
	if n.ParentNode != nil {
		n.ParentNode.RemoveChild(n)
	}
}

var namespacePrefixes = map[parser.Namespace]string{
	parser.SVGNamespace:    "svg ",
	parser.MathMLNamespace: "math ",
	parser.XLinkNamespace:  "xlink ",
	parser.XMLNamespace:    "xml ",
	parser.XMLNSNamespace:  "xmlns ",
}

func serializeNodeType(node *Node, indent string) string {
	switch node.NodeType {
	case ElementNode:
		e := indent + "<"
		if node.Element.Namespace != parser.HTMLNamespace {
			e += namespacePrefixes[node.Element.Namespace]
		}
		e += node.Element.LocalName + ">\n"

		names := make([]string, 0, len(node.Attributes))
		values := make(map[string]string, len(node.Attributes))
		for _, attr := range node.Attributes {
			name := namespacePrefixes[attr.Namespace] + attr.LocalName
			names = append(names, name)
			values[name] = attr.Value
		}
		sort.Strings(names)
		for _, name := range names {
			e += indent + "  " + name + "=\"" + values[name] + "\"\n"
		}
		return e
	case TextNode:
		return indent + "\"" + node.Text.Data + "\"\n"
	case CommentNode:
		return indent + "<!-- " + node.Comment.Data + " -->\n"
	case DocumentTypeNode:
		d := indent + "<!DOCTYPE " + node.DocumentType.Name
		if node.PublicID != "" || node.SystemID != "" {
			d += " \"" + node.PublicID + "\" \"" + node.SystemID + "\""
		}
		return d + ">\n"
	case DocumentNode:
		return "#document\n"
	case DocumentFragmentNode:
		return "#document-fragment\n"
	}
	return ""
}

func (node *Node) serialize(b *strings.Builder, depth int) {
	indent := "| " + strings.Repeat("  ", depth)
	b.WriteString(serializeNodeType(node, indent))

	childDepth := depth + 1
	if node.NodeType == DocumentNode || node.NodeType == DocumentFragmentNode {
		childDepth = depth
	}
	if node.NodeType == ElementNode && node.TemplateContents != nil {
		b.WriteString(indent + "  content\n")
		for _, child := range node.TemplateContents.ChildNodes {
			child.serialize(b, depth+2)
		}
	}
	for _, child := range node.ChildNodes {
		child.serialize(b, childDepth)
	}
}

// String dumps the tree rooted at node in the html5lib test format.
func (node *Node) String() string {
	var b strings.Builder
	node.serialize(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}
