package parser

import "golang.org/x/net/html/atom"

// openElement is an entry on the stack of open elements. The stack owns
// node and releases it when the entry is popped.
type openElement[H any] struct {
	node             H
	name             QualName
	integrationPoint bool
}

// formattingElement is an entry in the list of active formatting elements.
// node is a clone owned by the list. The token is kept so the element can be
// recreated.
type formattingElement[H any] struct {
	marker bool
	node   H
	name   QualName
	token  Token
}

// insertionKind says where a node goes relative to the insertion point.
type insertionKind uint

const (
	lastChild insertionKind = iota
	fosterParent
)

// insertionPoint is the appropriate place for inserting a node. For foster
// parenting, table is tried first and prev is the fallback when table has no
// parent. ownsParent is set when parent is template contents fetched for
// this insertion only.
type insertionPoint[H any] struct {
	kind       insertionKind
	parent     H
	table      H
	prev       H
	ownsParent bool
}

func (c *HTMLTreeConstructor[H]) currentNode() *openElement[H] {
	if len(c.openElements) == 0 {
		return nil
	}
	return &c.openElements[len(c.openElements)-1]
}

// adjustedCurrentNode is the current node; there is no context element
// since fragments are not parsed.
func (c *HTMLTreeConstructor[H]) adjustedCurrentNode() *openElement[H] {
	return c.currentNode()
}

func (c *HTMLTreeConstructor[H]) currentIs(a atom.Atom) bool {
	cur := c.currentNode()
	return cur != nil && cur.name.Is(a)
}

// push puts an owned handle on the stack of open elements.
func (c *HTMLTreeConstructor[H]) push(node H, t *Token) {
	name := c.sink.ElemName(node)
	c.openElements = append(c.openElements, openElement[H]{
		node:             node,
		name:             name,
		integrationPoint: isHTMLIntegrationPoint(name, t),
	})
}

// pop drops the current node. The entry leaves the stack before its handle
// is released, so a failed release is never retried.
func (c *HTMLTreeConstructor[H]) pop() {
	last := len(c.openElements) - 1
	node := c.openElements[last].node
	c.openElements = c.openElements[:last]
	c.sink.ReleaseHandle(node)
}

// removeOpenElement removes the entry at i wherever it is on the stack.
func (c *HTMLTreeConstructor[H]) removeOpenElement(i int) {
	node := c.openElements[i].node
	c.openElements = append(c.openElements[:i], c.openElements[i+1:]...)
	c.sink.ReleaseHandle(node)
}

// popUntil pops elements until one matching pred has been popped.
func (c *HTMLTreeConstructor[H]) popUntil(pred func(QualName) bool) {
	for len(c.openElements) > 0 {
		name := c.currentNode().name
		c.pop()
		if pred(name) {
			return
		}
	}
}

func (c *HTMLTreeConstructor[H]) popUntilNamed(a atom.Atom) {
	c.popUntil(func(q QualName) bool { return q.Is(a) })
}

// popUntilCurrent pops until pred matches the current node, leaving it on
// the stack.
func (c *HTMLTreeConstructor[H]) popUntilCurrent(pred func(QualName) bool) {
	for len(c.openElements) > 0 && !pred(c.currentNode().name) {
		c.pop()
	}
}

func (c *HTMLTreeConstructor[H]) indexOfOpenElement(node H) int {
	for i := len(c.openElements) - 1; i >= 0; i-- {
		if c.sink.SameNode(c.openElements[i].node, node) {
			return i
		}
	}
	return -1
}

func (c *HTMLTreeConstructor[H]) hasOpenElement(a atom.Atom) bool {
	for _, e := range c.openElements {
		if e.name.Is(a) {
			return true
		}
	}
	return false
}

// inScopeFunc reports whether an element matching pred is in the given
// scope.
func (c *HTMLTreeConstructor[H]) inScopeFunc(kind scopeKind, pred func(QualName) bool) bool {
	for i := len(c.openElements) - 1; i >= 0; i-- {
		name := c.openElements[i].name
		if pred(name) {
			return true
		}
		if isScopeBoundary(kind, name) {
			return false
		}
	}
	return false
}

func (c *HTMLTreeConstructor[H]) inScope(kind scopeKind, a atom.Atom) bool {
	return c.inScopeFunc(kind, func(q QualName) bool { return q.Is(a) })
}

// indexInScope reports whether the stack entry at idx is in the default
// scope.
func (c *HTMLTreeConstructor[H]) indexInScope(idx int) bool {
	for i := len(c.openElements) - 1; i >= 0; i-- {
		if i == idx {
			return true
		}
		if isScopeBoundary(defaultScope, c.openElements[i].name) {
			return false
		}
	}
	return false
}

func (c *HTMLTreeConstructor[H]) generateImpliedEndTags(except atom.Atom) {
	for cur := c.currentNode(); cur != nil; cur = c.currentNode() {
		if !hasImpliedEndTag(cur.name, false) || (except != 0 && cur.name.Is(except)) {
			return
		}
		c.pop()
	}
}

func (c *HTMLTreeConstructor[H]) generateImpliedEndTagsThoroughly() {
	for cur := c.currentNode(); cur != nil && hasImpliedEndTag(cur.name, true); cur = c.currentNode() {
		c.pop()
	}
}

// closePElement closes a p element in button scope, if there is one.
func (c *HTMLTreeConstructor[H]) closePElement() parseError {
	if !c.inScope(buttonScope, atom.P) {
		return noError
	}
	err := noError
	c.generateImpliedEndTags(atom.P)
	if !c.currentIs(atom.P) {
		err = errUnexpectedOpenElement
	}
	c.popUntilNamed(atom.P)
	return err
}

func isTableContext(q QualName) bool {
	return q.Is(atom.Table) || q.Is(atom.Template) || q.Is(atom.Html)
}

func isTableBodyContext(q QualName) bool {
	return q.Is(atom.Tbody) || q.Is(atom.Tfoot) || q.Is(atom.Thead) || q.Is(atom.Template) || q.Is(atom.Html)
}

func isTableRowContext(q QualName) bool {
	return q.Is(atom.Tr) || q.Is(atom.Template) || q.Is(atom.Html)
}

// pushFormattingElement adds an entry to the list of active formatting
// elements. Only three elements with the same name and attributes may follow
// the last marker; the earliest is dropped to make room for a fourth.
func (c *HTMLTreeConstructor[H]) pushFormattingElement(node H, t *Token) {
	name := c.sink.ElemName(node)
	matches, earliest := 0, -1
	for i := len(c.activeFormattingElements) - 1; i >= 0; i-- {
		e := c.activeFormattingElements[i]
		if e.marker {
			break
		}
		if e.name == name && sameAttributes(e.token.Attributes, t.Attributes) {
			matches++
			earliest = i
		}
	}
	if matches >= 3 {
		c.removeFormattingElement(earliest)
	}
	c.activeFormattingElements = append(c.activeFormattingElements, formattingElement[H]{
		node:  c.sink.CloneHandle(node),
		name:  name,
		token: *t,
	})
}

func sameAttributes(a, b []Attribute) bool {
	if len(a) != len(b) {
		return false
	}
outer:
	for _, x := range a {
		for _, y := range b {
			if x.Name == y.Name {
				if x.Value != y.Value {
					return false
				}
				continue outer
			}
		}
		return false
	}
	return true
}

func (c *HTMLTreeConstructor[H]) insertMarker() {
	c.activeFormattingElements = append(c.activeFormattingElements, formattingElement[H]{marker: true})
}

func (c *HTMLTreeConstructor[H]) removeFormattingElement(i int) {
	e := c.activeFormattingElements[i]
	c.activeFormattingElements = append(c.activeFormattingElements[:i], c.activeFormattingElements[i+1:]...)
	if !e.marker {
		c.sink.ReleaseHandle(e.node)
	}
}

func (c *HTMLTreeConstructor[H]) clearActiveFormattingElementsToLastMarker() {
	for len(c.activeFormattingElements) > 0 {
		last := len(c.activeFormattingElements) - 1
		marker := c.activeFormattingElements[last].marker
		c.removeFormattingElement(last)
		if marker {
			return
		}
	}
}

func (c *HTMLTreeConstructor[H]) indexOfFormattingElement(node H) int {
	for i := len(c.activeFormattingElements) - 1; i >= 0; i-- {
		e := c.activeFormattingElements[i]
		if !e.marker && c.sink.SameNode(e.node, node) {
			return i
		}
	}
	return -1
}

// lastFormattingElementNamed finds the last entry after the last marker with
// the given HTML name.
func (c *HTMLTreeConstructor[H]) lastFormattingElementNamed(a atom.Atom) int {
	for i := len(c.activeFormattingElements) - 1; i >= 0; i-- {
		e := c.activeFormattingElements[i]
		if e.marker {
			return -1
		}
		if e.name.Is(a) {
			return i
		}
	}
	return -1
}

// https://html.spec.whatwg.org/multipage/parsing.html#reconstruct-the-active-formatting-elements
func (c *HTMLTreeConstructor[H]) reconstructActiveFormattingElements() {
	n := len(c.activeFormattingElements)
	if n == 0 {
		return
	}
	last := c.activeFormattingElements[n-1]
	if last.marker || c.indexOfOpenElement(last.node) != -1 {
		return
	}

	i := n - 1
	for i > 0 {
		e := c.activeFormattingElements[i-1]
		if e.marker || c.indexOfOpenElement(e.node) != -1 {
			break
		}
		i--
	}

	for ; i < n; i++ {
		e := &c.activeFormattingElements[i]
		token := e.token
		node := c.insertElementForToken(&token, e.name)
		stale := e.node
		e.node = c.sink.CloneHandle(node)
		c.sink.ReleaseHandle(stale)
	}
}

// appropriatePlace finds where the next node goes. target overrides the
// current node when non-nil.
// https://html.spec.whatwg.org/multipage/parsing.html#appropriate-place-for-inserting-a-node
func (c *HTMLTreeConstructor[H]) appropriatePlace(target *openElement[H]) insertionPoint[H] {
	if target == nil {
		target = c.currentNode()
	}

	if c.fosterParenting {
		switch {
		case target.name.Is(atom.Table), target.name.Is(atom.Tbody), target.name.Is(atom.Tfoot),
			target.name.Is(atom.Thead), target.name.Is(atom.Tr):
			lastTemplate, lastTable := -1, -1
			for i := len(c.openElements) - 1; i >= 0; i-- {
				name := c.openElements[i].name
				if lastTemplate == -1 && name.Is(atom.Template) {
					lastTemplate = i
				}
				if lastTable == -1 && name.Is(atom.Table) {
					lastTable = i
				}
			}
			switch {
			case lastTemplate != -1 && (lastTable == -1 || lastTemplate > lastTable):
				target = &c.openElements[lastTemplate]
			case lastTable == -1:
				target = &c.openElements[0]
			default:
				return insertionPoint[H]{
					kind:  fosterParent,
					table: c.openElements[lastTable].node,
					prev:  c.openElements[lastTable-1].node,
				}
			}
		}
	}

	if target.name.Is(atom.Template) {
		return insertionPoint[H]{parent: c.sink.GetTemplateContents(target.node), ownsParent: true}
	}
	return insertionPoint[H]{parent: target.node}
}

func (c *HTMLTreeConstructor[H]) insertAt(ip insertionPoint[H], child NodeOrText[H]) {
	switch ip.kind {
	case fosterParent:
		if rest, inserted := c.sink.AppendBeforeSibling(ip.table, child); !inserted {
			c.sink.Append(ip.prev, rest)
		}
	default:
		if ip.ownsParent {
			defer c.sink.ReleaseHandle(ip.parent)
		}
		c.sink.Append(ip.parent, child)
	}
}

// insertElementForToken creates an element for t, inserts it at the
// appropriate place and pushes it. The returned handle is borrowed from the
// stack.
func (c *HTMLTreeConstructor[H]) insertElementForToken(t *Token, name QualName) H {
	node := c.sink.CreateElement(name, t.Attributes)
	ip := c.appropriatePlace(nil)
	c.push(node, t)
	c.insertAt(ip, AppendNode(node))
	return node
}

func (c *HTMLTreeConstructor[H]) insertHTMLElement(t *Token) H {
	return c.insertElementForToken(t, NewQualName(HTMLNamespace, t.TagName))
}

// insertSyntheticElement inserts an HTML element for a start tag the source
// left out.
func (c *HTMLTreeConstructor[H]) insertSyntheticElement(a atom.Atom) H {
	t := &Token{TokenType: startTagToken, TagName: a.String(), DataAtom: a}
	return c.insertHTMLElement(t)
}

func (c *HTMLTreeConstructor[H]) insertForeignElement(t *Token, space Namespace) {
	name := NewQualName(space, t.TagName)
	c.insertElementForToken(t, name)
	if t.SelfClosing {
		c.selfClosingAcked = true
		c.pop()
	}
}

func (c *HTMLTreeConstructor[H]) insertCharacters(s string) {
	if len(c.openElements) == 0 || s == "" {
		return
	}
	c.insertAt(c.appropriatePlace(nil), AppendText[H](s))
}

func (c *HTMLTreeConstructor[H]) insertComment(t *Token) {
	node := c.sink.CreateComment(t.Data)
	defer c.sink.ReleaseHandle(node)
	c.insertAt(c.appropriatePlace(nil), AppendNode(node))
}

// appendComment appends a comment as the last child of parent.
func (c *HTMLTreeConstructor[H]) appendComment(parent H, t *Token) {
	node := c.sink.CreateComment(t.Data)
	defer c.sink.ReleaseHandle(node)
	c.sink.Append(parent, AppendNode(node))
}

// https://html.spec.whatwg.org/multipage/parsing.html#reset-the-insertion-mode-appropriately
func (c *HTMLTreeConstructor[H]) resetInsertionMode() insertionMode {
	for i := len(c.openElements) - 1; i >= 0; i-- {
		last := i == 0
		name := c.openElements[i].name
		if name.Space != HTMLNamespace {
			if last {
				return inBody
			}
			continue
		}
		switch name.Atom {
		case atom.Select:
			if !last {
				for j := i - 1; j > 0; j-- {
					ancestor := c.openElements[j].name
					if ancestor.Is(atom.Template) {
						break
					}
					if ancestor.Is(atom.Table) {
						return inSelectInTable
					}
				}
			}
			return inSelect
		case atom.Td, atom.Th:
			if !last {
				return inCell
			}
		case atom.Tr:
			return inRow
		case atom.Tbody, atom.Thead, atom.Tfoot:
			return inTableBody
		case atom.Caption:
			return inCaption
		case atom.Colgroup:
			return inColumnGroup
		case atom.Table:
			return inTable
		case atom.Template:
			return c.templateModes[len(c.templateModes)-1]
		case atom.Head:
			if !last {
				return inHead
			}
		case atom.Body:
			return inBody
		case atom.Frameset:
			return inFrameset
		case atom.Html:
			if c.headElement == nil {
				return beforeHead
			}
			return afterHead
		}
		if last {
			return inBody
		}
	}
	return inBody
}

// adoptionAgency runs the adoption agency algorithm for an end tag. It
// returns false when the tag should be handled like any other end tag.
// https://html.spec.whatwg.org/multipage/parsing.html#adoption-agency-algorithm
func (c *HTMLTreeConstructor[H]) adoptionAgency(t *Token) (bool, parseError) {
	subject := t.DataAtom
	err := noError
	if cur := c.currentNode(); cur != nil && cur.name.Is(subject) && c.indexOfFormattingElement(cur.node) == -1 {
		c.pop()
		return true, noError
	}

	for outer := 0; outer < 8; outer++ {
		fmtIdx := c.lastFormattingElementNamed(subject)
		if fmtIdx == -1 {
			return false, err
		}
		formatting := c.activeFormattingElements[fmtIdx]

		stackIdx := c.indexOfOpenElement(formatting.node)
		if stackIdx == -1 {
			c.removeFormattingElement(fmtIdx)
			return true, errAdoptionAgencyMismatch
		}
		if !c.indexInScope(stackIdx) {
			return true, errAdoptionAgencyMismatch
		}
		if stackIdx != len(c.openElements)-1 {
			err = errAdoptionAgencyMismatch
		}

		furthestBlock := -1
		for i := stackIdx + 1; i < len(c.openElements); i++ {
			if isSpecial(c.openElements[i].name) {
				furthestBlock = i
				break
			}
		}
		if furthestBlock == -1 {
			for len(c.openElements) > stackIdx {
				c.pop()
			}
			c.removeFormattingElement(c.indexOfFormattingElement(formatting.node))
			return true, err
		}

		commonAncestor := c.openElements[stackIdx-1]
		bookmark := fmtIdx
		lastNode := c.openElements[furthestBlock].node
		lastIsFurthest := true
		nodeIdx := furthestBlock

		for inner := 1; ; inner++ {
			nodeIdx--
			if nodeIdx == stackIdx {
				break
			}
			node := c.openElements[nodeIdx]
			afeIdx := c.indexOfFormattingElement(node.node)
			if inner > 3 && afeIdx != -1 {
				c.removeFormattingElement(afeIdx)
				if afeIdx < bookmark {
					bookmark--
				}
				afeIdx = -1
			}
			if afeIdx == -1 {
				c.removeOpenElement(nodeIdx)
				furthestBlock--
				continue
			}

			entry := &c.activeFormattingElements[afeIdx]
			replacement := c.sink.CreateElement(entry.name, entry.token.Attributes)
			staleOpen := c.openElements[nodeIdx].node
			c.openElements[nodeIdx].node = replacement
			staleEntry := entry.node
			entry.node = c.sink.CloneHandle(replacement)
			c.sink.ReleaseHandle(staleOpen)
			c.sink.ReleaseHandle(staleEntry)

			if lastIsFurthest {
				bookmark = afeIdx + 1
			}
			c.sink.RemoveFromParent(lastNode)
			c.sink.Append(replacement, AppendNode(lastNode))
			lastNode = replacement
			lastIsFurthest = false
		}

		c.sink.RemoveFromParent(lastNode)
		c.insertAt(c.appropriatePlace(&commonAncestor), AppendNode(lastNode))

		furthest := c.openElements[furthestBlock].node
		adopted := c.sink.CreateElement(formatting.name, formatting.token.Attributes)
		c.sink.ReparentChildren(furthest, adopted)
		c.sink.Append(furthest, AppendNode(adopted))

		oldIdx := c.indexOfFormattingElement(formatting.node)
		c.removeFormattingElement(oldIdx)
		if oldIdx < bookmark {
			bookmark--
		}
		entry := formattingElement[H]{node: c.sink.CloneHandle(adopted), name: formatting.name, token: formatting.token}
		c.activeFormattingElements = append(c.activeFormattingElements, formattingElement[H]{})
		copy(c.activeFormattingElements[bookmark+1:], c.activeFormattingElements[bookmark:])
		c.activeFormattingElements[bookmark] = entry

		c.removeOpenElement(stackIdx)
		furthestBlock--
		adoptedEntry := openElement[H]{node: adopted, name: formatting.name}
		c.openElements = append(c.openElements, openElement[H]{})
		copy(c.openElements[furthestBlock+2:], c.openElements[furthestBlock+1:])
		c.openElements[furthestBlock+1] = adoptedEntry
	}
	return true, err
}
