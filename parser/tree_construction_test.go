package parser

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recNode struct {
	name     QualName
	text     string
	comment  bool
	isText   bool
	attrs    []Attribute
	parent   *recNode
	children []*recNode
	contents *recNode
}

func (n *recNode) detach() {
	if p := n.parent; p != nil {
		for i, c := range p.children {
			if c == n {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
		n.parent = nil
	}
}

func (n *recNode) insert(i int, child *recNode) {
	child.detach()
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
}

func (n *recNode) indexOf(child *recNode) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *recNode) dump(b *strings.Builder, depth int) {
	indent := "| " + strings.Repeat("  ", depth)
	switch {
	case n.isText:
		fmt.Fprintf(b, "%s%q\n", indent, n.text)
		return
	case n.comment:
		fmt.Fprintf(b, "%s<!-- %s -->\n", indent, n.text)
		return
	}
	prefix := map[Namespace]string{SVGNamespace: "svg ", MathMLNamespace: "math "}[n.name.Space]
	fmt.Fprintf(b, "%s<%s%s>\n", indent, prefix, n.name.Local)
	attrs := make([]string, 0, len(n.attrs))
	for _, a := range n.attrs {
		attrs = append(attrs, fmt.Sprintf("%s  %s=%q", indent, a.Name.Local, a.Value))
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		b.WriteString(a + "\n")
	}
	if n.contents != nil {
		b.WriteString(indent + "  content\n")
		for _, c := range n.contents.children {
			c.dump(b, depth+2)
		}
	}
	for _, c := range n.children {
		c.dump(b, depth+1)
	}
}

// recHandle is one counted reference to a recNode.
type recHandle struct {
	node     *recNode
	released bool
}

// recordingSink builds a tree of recNodes, counts handles and logs the
// operations it receives.
type recordingSink struct {
	t         *testing.T
	document  *recNode
	doctype   string
	quirks    QuirksMode
	errs      []string
	events    []string
	live      int
	orphanAll bool
}

func newRecordingSink(t *testing.T) *recordingSink {
	return &recordingSink{t: t, document: &recNode{}}
}

var _ TreeSink[*recHandle] = (*recordingSink)(nil)

func (s *recordingSink) handle(n *recNode) *recHandle {
	s.live++
	return &recHandle{node: n}
}

func (s *recordingSink) use(h *recHandle) *recNode {
	require.False(s.t, h.released, "handle used after release")
	return h.node
}

func (s *recordingSink) log(format string, args ...interface{}) {
	s.events = append(s.events, fmt.Sprintf(format, args...))
}

func (s *recordingSink) ParseError(msg string) { s.errs = append(s.errs, msg) }

func (s *recordingSink) GetDocument() *recHandle {
	s.log("get_document")
	return s.handle(s.document)
}

func (s *recordingSink) GetTemplateContents(target *recHandle) *recHandle {
	n := s.use(target)
	if n.contents == nil {
		n.contents = &recNode{}
	}
	return s.handle(n.contents)
}

func (s *recordingSink) SetQuirksMode(mode QuirksMode) {
	s.log("quirks %s", mode)
	s.quirks = mode
}

func (s *recordingSink) SameNode(x, y *recHandle) bool {
	return s.use(x) == s.use(y)
}

func (s *recordingSink) ElemName(target *recHandle) QualName {
	return s.use(target).name
}

func (s *recordingSink) CreateElement(name QualName, attrs []Attribute) *recHandle {
	s.log("create %s", name.Local)
	return s.handle(&recNode{name: name, attrs: append([]Attribute(nil), attrs...)})
}

func (s *recordingSink) CreateComment(text string) *recHandle {
	return s.handle(&recNode{comment: true, text: text})
}

func (s *recordingSink) child(c NodeOrText[*recHandle]) *recNode {
	if c.IsText {
		return &recNode{isText: true, text: c.Text}
	}
	return s.use(c.Node)
}

func (s *recordingSink) Append(parent *recHandle, child NodeOrText[*recHandle]) {
	p := s.use(parent)
	if child.IsText {
		if k := len(p.children); k > 0 && p.children[k-1].isText {
			p.children[k-1].text += child.Text
			return
		}
	}
	c := s.child(child)
	s.log("append %s <- %s", p.name.Local, describe(c))
	p.insert(len(p.children), c)
}

func (s *recordingSink) AppendBeforeSibling(sibling *recHandle, child NodeOrText[*recHandle]) (NodeOrText[*recHandle], bool) {
	sib := s.use(sibling)
	if s.orphanAll || sib.parent == nil {
		return child, false
	}
	p := sib.parent
	i := p.indexOf(sib)
	if child.IsText && i > 0 && p.children[i-1].isText {
		p.children[i-1].text += child.Text
		return child, true
	}
	p.insert(i, s.child(child))
	return child, true
}

func (s *recordingSink) AppendDoctypeToDocument(name, publicID, systemID string) {
	s.doctype = name
}

func (s *recordingSink) AddAttrsIfMissing(target *recHandle, attrs []Attribute) {
	n := s.use(target)
next:
	for _, a := range attrs {
		for _, have := range n.attrs {
			if have.Name == a.Name {
				continue next
			}
		}
		n.attrs = append(n.attrs, a)
	}
}

func (s *recordingSink) RemoveFromParent(target *recHandle) {
	s.use(target).detach()
}

func (s *recordingSink) ReparentChildren(node, newParent *recHandle) {
	n, p := s.use(node), s.use(newParent)
	for len(n.children) > 0 {
		p.insert(len(p.children), n.children[0])
	}
}

func (s *recordingSink) MarkScriptAlreadyStarted(*recHandle) {}

func (s *recordingSink) CloneHandle(h *recHandle) *recHandle {
	return s.handle(s.use(h))
}

func (s *recordingSink) ReleaseHandle(h *recHandle) {
	require.False(s.t, h.released, "handle released twice")
	h.released = true
	s.live--
}

func (s *recordingSink) String() string {
	var b strings.Builder
	for _, c := range s.document.children {
		c.dump(&b, 0)
	}
	return strings.TrimRight(b.String(), "\n")
}

func describe(n *recNode) string {
	switch {
	case n.isText:
		return fmt.Sprintf("%q", n.text)
	case n.comment:
		return "comment"
	}
	return n.name.Local
}

func parseWith(s *recordingSink, in string, opts Options) {
	p := NewParser[*recHandle](s, opts)
	p.Feed(in)
	p.End()
}

func TestTreeBuilderHandleBalance(t *testing.T) {
	inputs := []string{
		"",
		"<!DOCTYPE html><p>x",
		"<b><p>Bold </b> Not bold</p>",
		"<a><p>X<a>Y</a>Z</p></a>",
		"<table><tr><td><form><input></form></td></tr>x</table>",
		"<template><td>a</template><frameset>",
		"<svg><foreignObject><p>x</svg><math><mi>y",
		"<select><option>a<select>b",
		"<html><head><title>t</title><body><table><caption>c</caption><colgroup><col></table>",
		"<frameset><frame><noframes>x</noframes></frameset>",
		"<p><b><i><u><s>text</p>more",
	}
	for _, in := range inputs {
		in := in
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			s := newRecordingSink(t)
			parseWith(s, in, Options{})
			assert.Zero(t, s.live, "every handle is released")
		})
	}
}

func TestTreeBuilderEventOrder(t *testing.T) {
	t.Parallel()
	s := newRecordingSink(t)
	parseWith(s, "<p>x", Options{})

	require.NotEmpty(t, s.events)
	assert.Equal(t, "get_document", s.events[0])
	assert.Equal(t, []string{
		"get_document",
		"quirks quirks",
		"create html",
		"append  <- html",
		"create head",
		"append html <- head",
		"create body",
		"append html <- body",
		"create p",
		"append body <- p",
		`append p <- "x"`,
	}, s.events)
	assert.Equal(t, Quirks, s.quirks)
}

func TestTreeBuilderFosterParentFallback(t *testing.T) {
	t.Parallel()
	s := newRecordingSink(t)
	s.orphanAll = true
	parseWith(s, "<table>A</table>", Options{})

	assert.Equal(t, strings.Join([]string{
		"| <html>",
		"|   <head>",
		"|   <body>",
		"|     <table>",
		`|     "A"`,
	}, "\n"), s.String())
	assert.Zero(t, s.live)
}

func TestTreeBuilderDump(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"<b>1<i>2</b>3</i>", []string{
			"| <html>",
			"|   <head>",
			"|   <body>",
			"|     <b>",
			`|       "1"`,
			"|       <i>",
			`|         "2"`,
			"|     <i>",
			`|       "3"`,
		}},
		{`<html a="1"><body b="2"><html c="3" a="x">`, []string{
			"| <html>",
			`|   a="1"`,
			`|   c="3"`,
			"|   <head>",
			"|   <body>",
			`|     b="2"`,
		}},
		{"<table><tr><td>a<td>b</table>", []string{
			"| <html>",
			"|   <head>",
			"|   <body>",
			"|     <table>",
			"|       <tbody>",
			"|         <tr>",
			"|           <td>",
			`|             "a"`,
			"|           <td>",
			`|             "b"`,
		}},
		{"<svg><clippath/></svg>", []string{
			"| <html>",
			"|   <head>",
			"|   <body>",
			"|     <svg svg>",
			"|       <svg clipPath>",
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			s := newRecordingSink(t)
			parseWith(s, tt.in, Options{})
			assert.Equal(t, strings.Join(tt.want, "\n"), s.String())
		})
	}
}

func TestTreeBuilderDoctype(t *testing.T) {
	t.Parallel()
	s := newRecordingSink(t)
	parseWith(s, "<!DOCTYPE html><p>", Options{})
	assert.Equal(t, "html", s.doctype)
	assert.Equal(t, NoQuirks, s.quirks)
	assert.Empty(t, s.errs)
}

func TestTreeBuilderExactErrors(t *testing.T) {
	t.Parallel()
	s := newRecordingSink(t)
	parseWith(s, "<!DOCTYPE html><p>x</div>", Options{ExactErrors: true})
	require.Len(t, s.errs, 1)
	assert.Contains(t, s.errs[0], "</div>")
	assert.Contains(t, s.errs[0], "in insertion mode in body")

	s = newRecordingSink(t)
	parseWith(s, "<!DOCTYPE html><p>x</div>", Options{})
	require.Len(t, s.errs, 1)
	assert.NotContains(t, s.errs[0], "insertion mode")
}

func TestTreeBuilderUnacknowledgedSelfClosing(t *testing.T) {
	t.Parallel()
	s := newRecordingSink(t)
	parseWith(s, "<!DOCTYPE html><div/>", Options{})
	assert.NotEmpty(t, s.errs)

	s = newRecordingSink(t)
	parseWith(s, "<!DOCTYPE html><br/><svg/>", Options{})
	assert.Empty(t, s.errs)
}
