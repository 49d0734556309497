package dom

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/heathj/html5bridge/parser"
)

var (
	attrEscaper = strings.NewReplacer("&", "&amp;", "\u00A0", "&nbsp;", "\"", "&quot;")
	textEscaper = strings.NewReplacer("&", "&amp;", "\u00A0", "&nbsp;", "<", "&lt;", ">", "&gt;")
)

func isVoidElement(n *Node) bool {
	if n.Element.Namespace != parser.HTMLNamespace {
		return false
	}
	switch n.LocalName {
	case "area", "base", "basefont", "bgsound", "br", "col", "embed", "frame", "hr", "img",
		"input", "keygen", "link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

func isRawTextParent(n *Node, scripting bool) bool {
	if n == nil || n.NodeType != ElementNode || n.Element.Namespace != parser.HTMLNamespace {
		return false
	}
	switch n.LocalName {
	case "style", "script", "xmp", "iframe", "noembed", "noframes", "plaintext":
		return true
	case "noscript":
		return scripting
	}
	return false
}

// Render writes n and its descendants as HTML. scripting selects how
// noscript content is escaped.
// https://html.spec.whatwg.org/multipage/parsing.html#serialising-html-fragments
func Render(w io.Writer, n *Node, scripting bool) error {
	bw := bufio.NewWriter(w)
	r := renderer{w: bw, scripting: scripting}
	if n.NodeType == DocumentNode || n.NodeType == DocumentFragmentNode {
		r.children(n)
	} else {
		r.node(n)
	}
	if r.err != nil {
		return errors.Wrap(r.err, "render")
	}
	return errors.Wrap(bw.Flush(), "render")
}

type renderer struct {
	w         *bufio.Writer
	scripting bool
	err       error
}

func (r *renderer) write(parts ...string) {
	for _, s := range parts {
		if r.err != nil {
			return
		}
		_, r.err = r.w.WriteString(s)
	}
}

func (r *renderer) children(n *Node) {
	for _, child := range n.ChildNodes {
		r.node(child)
	}
}

func (r *renderer) node(n *Node) {
	switch n.NodeType {
	case ElementNode:
		r.write("<", n.LocalName)
		for _, a := range n.Attributes {
			r.write(" ", a.QualifiedName(), "=\"", attrEscaper.Replace(a.Value), "\"")
		}
		r.write(">")
		if isVoidElement(n) {
			return
		}
		if n.TemplateContents != nil {
			r.children(n.TemplateContents)
		}
		r.children(n)
		r.write("</", n.LocalName, ">")
	case TextNode:
		if isRawTextParent(n.ParentNode, r.scripting) {
			r.write(n.Text.Data)
		} else {
			r.write(textEscaper.Replace(n.Text.Data))
		}
	case CommentNode:
		r.write("<!--", n.Comment.Data, "-->")
	case DocumentTypeNode:
		r.write("<!DOCTYPE ", n.DocumentType.Name, ">")
	}
}
