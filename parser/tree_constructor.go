package parser

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/atom"
)

// parseError is a tree construction error. The zero value means no error.
type parseError string

const (
	noError                      parseError = ""
	errUnexpectedToken           parseError = "Unexpected token"
	errUnexpectedOpenElement     parseError = "Unexpected open element"
	errAdoptionAgencyMismatch    parseError = "Adoption agency mismatch"
	errBadDoctype                parseError = "Bad DOCTYPE"
	errMissingDoctype            parseError = "Missing DOCTYPE"
	errUnexpectedNull            parseError = "Unexpected NULL character"
	errUnexpectedEOF             parseError = "Unexpected end of file"
	errUnexpectedOpenAtEOF       parseError = "Unexpected open element at end of body"
	errNonSpaceInTable           parseError = "Non-space table text"
	errUnacknowledgedSelfClosing parseError = "Unacknowledged self-closing tag"
	errFormattingElementOpen     parseError = "Formatting element not closed"
)

// HTMLTreeConstructor holds the state for various state of the tree construction phase.
// It drives a TreeSink and owns every handle it keeps between tokens.
type HTMLTreeConstructor[H any] struct {
	sink                     TreeSink[H]
	opts                     Options
	log                      logrus.FieldLogger
	debug                    bool
	mode, originalMode       insertionMode
	templateModes            []insertionMode
	document                 H
	openElements             []openElement[H]
	activeFormattingElements []formattingElement[H]
	headElement, formElement *H
	quirksMode               QuirksMode
	framesetOK               bool
	fosterParenting          bool
	ignoreLF                 bool
	selfClosingAcked         bool
	pendingTableText         []string
	tokenizerState           *tokenizerState
	done, closed             bool
	mappings                 map[insertionMode]treeConstructionModeHandler
}

// NewHTMLTreeConstructor creates an HTMLTreeConstructor that builds into sink.
func NewHTMLTreeConstructor[H any](sink TreeSink[H], opts Options) *HTMLTreeConstructor[H] {
	log := opts.logger().WithField("component", "tree")
	tr := HTMLTreeConstructor[H]{
		sink:       sink,
		opts:       opts,
		log:        log,
		debug:      debugEnabled(log),
		document:   sink.GetDocument(),
		framesetOK: true,
	}

	tr.createMappings()
	return &tr
}

func (c *HTMLTreeConstructor[H]) createMappings() {
	c.mappings = map[insertionMode]treeConstructionModeHandler{
		initial:            c.initialModeHandler,
		beforeHTML:         c.beforeHTMLModeHandler,
		beforeHead:         c.beforeHeadModeHandler,
		inHead:             c.inHeadModeHandler,
		inHeadNoScript:     c.inHeadNoScriptModeHandler,
		afterHead:          c.afterHeadModeHandler,
		inBody:             c.inBodyModeHandler,
		text:               c.textModeHandler,
		inTable:            c.inTableModeHandler,
		inTableText:        c.inTableTextModeHandler,
		inCaption:          c.inCaptionModeHandler,
		inColumnGroup:      c.inColumnGroupModeHandler,
		inTableBody:        c.inTableBodyModeHandler,
		inRow:              c.inRowModeHandler,
		inCell:             c.inCellModeHandler,
		inSelect:           c.inSelectModeHandler,
		inSelectInTable:    c.inSelectInTableModeHandler,
		inTemplate:         c.inTemplateModeHandler,
		afterBody:          c.afterBodyModeHandler,
		inFrameset:         c.inFramesetModeHandler,
		afterFrameset:      c.afterFramesetModeHandler,
		afterAfterBody:     c.afterAfterBodyModeHandler,
		afterAfterFrameset: c.afterAfterFramesetModeHandler,
	}
}

// QuirksMode returns the document mode decided so far.
func (c *HTMLTreeConstructor[H]) QuirksMode() QuirksMode {
	return c.quirksMode
}

// Done reports whether parsing has stopped.
func (c *HTMLTreeConstructor[H]) Done() bool {
	return c.done
}

// ProcessToken runs one token through tree construction and tells the
// tokenizer how to continue.
func (c *HTMLTreeConstructor[H]) ProcessToken(t *Token) *Progress {
	if c.done || c.closed {
		return nil
	}
	if c.ignoreLF {
		c.ignoreLF = false
		if t.TokenType == characterToken && strings.HasPrefix(t.Data, "\n") {
			t.Data = t.Data[1:]
			if t.Data == "" {
				return c.progress()
			}
		}
	}

	c.selfClosingAcked = false
	reprocess := true
	for reprocess && !c.done {
		var (
			next insertionMode
			err  parseError
			mode = c.mode
		)
		if c.useHTMLRules(t) {
			reprocess, next, err = c.mappings[c.mode](t)
		} else {
			reprocess, next, err = c.foreignContentHandler(t)
		}
		if c.debug && next != mode {
			c.log.Debugf("[TREE] %s -> %s on %s", mode, next, describeToken(t))
		}
		c.mode = next
		c.reportError(t, mode, err)
	}

	if t.TokenType == startTagToken && t.SelfClosing && !c.selfClosingAcked {
		c.reportError(t, c.mode, errUnacknowledgedSelfClosing)
	}
	return c.progress()
}

func (c *HTMLTreeConstructor[H]) progress() *Progress {
	acn := c.adjustedCurrentNode()
	p := &Progress{
		ForeignContent: acn != nil && acn.name.Space != HTMLNamespace,
		TokenizerState: c.tokenizerState,
	}
	c.tokenizerState = nil
	return p
}

func (c *HTMLTreeConstructor[H]) reportError(t *Token, mode insertionMode, err parseError) {
	if err == noError {
		return
	}
	msg := string(err)
	if c.opts.ExactErrors {
		msg = fmt.Sprintf("%s: %s in insertion mode %s", err, describeToken(t), mode)
	}
	c.sink.ParseError(msg)
}

func describeToken(t *Token) string {
	switch t.TokenType {
	case startTagToken:
		return fmt.Sprintf("<%s>", t.TagName)
	case endTagToken:
		return fmt.Sprintf("</%s>", t.TagName)
	case characterToken, commentToken:
		return fmt.Sprintf("%s %q", t.TokenType, t.Data)
	}
	return t.TokenType.String()
}

// Close releases every handle the tree constructor still holds. It is safe
// to call more than once.
func (c *HTMLTreeConstructor[H]) Close() {
	if c.closed {
		return
	}
	c.closed = true

	// A failing release must not keep the rest from being given back; the
	// first failure is raised again once everything has been released.
	var failure any
	release := func(h H) {
		defer func() {
			if r := recover(); r != nil && failure == nil {
				failure = r
			}
		}()
		c.sink.ReleaseHandle(h)
	}

	open, formatting := c.openElements, c.activeFormattingElements
	c.openElements, c.activeFormattingElements = nil, nil
	for i := len(open) - 1; i >= 0; i-- {
		release(open[i].node)
	}
	for i := len(formatting) - 1; i >= 0; i-- {
		if !formatting[i].marker {
			release(formatting[i].node)
		}
	}
	if c.headElement != nil {
		head := *c.headElement
		c.headElement = nil
		release(head)
	}
	if c.formElement != nil {
		form := *c.formElement
		c.formElement = nil
		release(form)
	}
	release(c.document)
	if failure != nil {
		panic(failure)
	}
}

func (c *HTMLTreeConstructor[H]) switchTokenizer(state tokenizerState) {
	c.tokenizerState = &state
}

func (c *HTMLTreeConstructor[H]) setQuirksMode(mode QuirksMode) {
	c.quirksMode = mode
	c.sink.SetQuirksMode(mode)
}

func (c *HTMLTreeConstructor[H]) setHeadElement(node H) {
	h := c.sink.CloneHandle(node)
	c.headElement = &h
}

func (c *HTMLTreeConstructor[H]) setFormElement(node H) {
	h := c.sink.CloneHandle(node)
	stale := c.formElement
	c.formElement = &h
	if stale != nil {
		c.sink.ReleaseHandle(*stale)
	}
}

// useRulesFor processes t using the rules of mode while leaving the current
// insertion mode unchanged.
func (c *HTMLTreeConstructor[H]) useRulesFor(t *Token, mode insertionMode) (bool, insertionMode, parseError) {
	return c.mappings[mode](t)
}

func isWhitespaceOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isASCIIWhitespace(rune(s[i])) {
			return false
		}
	}
	return true
}

func splitLeadingWhitespace(s string) (string, string) {
	i := 0
	for i < len(s) && isASCIIWhitespace(rune(s[i])) {
		i++
	}
	return s[:i], s[i:]
}

// skipWhitespace drops leading whitespace from a character token. It
// reports whether nothing is left to process.
func (c *HTMLTreeConstructor[H]) skipWhitespace(t *Token) bool {
	_, t.Data = splitLeadingWhitespace(t.Data)
	return t.Data == ""
}

// insertWhitespace inserts the leading whitespace of a character token and
// leaves the rest on the token. It reports whether nothing is left.
func (c *HTMLTreeConstructor[H]) insertWhitespace(t *Token) bool {
	ws, rest := splitLeadingWhitespace(t.Data)
	c.insertCharacters(ws)
	t.Data = rest
	return rest == ""
}

func htmlNamed(name string) func(QualName) bool {
	return func(q QualName) bool {
		return q.Space == HTMLNamespace && q.Local == name
	}
}

func isHTMLHeading(q QualName) bool {
	return q.Space == HTMLNamespace && isHeading(q.Atom)
}

func isCell(q QualName) bool {
	return q.Is(atom.Td) || q.Is(atom.Th)
}

// parseRawText is the generic raw text and RCDATA element parsing algorithm.
func (c *HTMLTreeConstructor[H]) parseRawText(t *Token, state tokenizerState) insertionMode {
	c.insertHTMLElement(t)
	c.switchTokenizer(state)
	c.originalMode = c.mode
	return text
}

func (c *HTMLTreeConstructor[H]) insertVoid(t *Token) {
	c.insertHTMLElement(t)
	c.pop()
	c.selfClosingAcked = true
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-initial-insertion-mode
func (c *HTMLTreeConstructor[H]) initialModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if c.skipWhitespace(t) {
			return false, c.mode, noError
		}
	case commentToken:
		c.appendComment(c.document, t)
		return false, c.mode, noError
	case docTypeToken:
		err := noError
		if isDoctypeError(t) {
			err = errBadDoctype
		}
		c.sink.AppendDoctypeToDocument(t.TagName, t.PublicIdentifier, t.SystemIdentifier)
		c.setQuirksMode(quirksModeFor(t))
		return false, beforeHTML, err
	}

	c.setQuirksMode(Quirks)
	return true, beforeHTML, errMissingDoctype
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-before-html-insertion-mode
func (c *HTMLTreeConstructor[H]) beforeHTMLModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case commentToken:
		c.appendComment(c.document, t)
		return false, c.mode, noError
	case characterToken:
		if c.skipWhitespace(t) {
			return false, c.mode, noError
		}
	case startTagToken:
		if t.DataAtom == atom.Html {
			c.insertRoot(t)
			return false, beforeHead, noError
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Head, atom.Body, atom.Html, atom.Br:
		default:
			return false, c.mode, errUnexpectedToken
		}
	}

	c.insertRoot(&Token{TokenType: startTagToken, TagName: "html", DataAtom: atom.Html})
	return true, beforeHead, noError
}

func (c *HTMLTreeConstructor[H]) insertRoot(t *Token) {
	node := c.sink.CreateElement(NewQualName(HTMLNamespace, "html"), t.Attributes)
	c.push(node, t)
	c.sink.Append(c.document, AppendNode(node))
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-before-head-insertion-mode
func (c *HTMLTreeConstructor[H]) beforeHeadModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if c.skipWhitespace(t) {
			return false, c.mode, noError
		}
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Head:
			c.setHeadElement(c.insertHTMLElement(t))
			return false, inHead, noError
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Head, atom.Body, atom.Html, atom.Br:
		default:
			return false, c.mode, errUnexpectedToken
		}
	}

	c.setHeadElement(c.insertSyntheticElement(atom.Head))
	return true, inHead, noError
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inhead
func (c *HTMLTreeConstructor[H]) inHeadModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if c.insertWhitespace(t) {
			return false, c.mode, noError
		}
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Base, atom.Basefont, atom.Bgsound, atom.Link, atom.Meta:
			c.insertVoid(t)
			return false, c.mode, noError
		case atom.Title:
			return false, c.parseRawText(t, rcDataState), noError
		case atom.Noscript:
			if c.opts.Scripting {
				return false, c.parseRawText(t, rawTextState), noError
			}
			c.insertHTMLElement(t)
			return false, inHeadNoScript, noError
		case atom.Noframes, atom.Style:
			return false, c.parseRawText(t, rawTextState), noError
		case atom.Script:
			return false, c.parseRawText(t, scriptDataState), noError
		case atom.Template:
			c.insertHTMLElement(t)
			c.insertMarker()
			c.framesetOK = false
			c.templateModes = append(c.templateModes, inTemplate)
			return false, inTemplate, noError
		case atom.Head:
			return false, c.mode, errUnexpectedToken
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Head:
			c.pop()
			return false, afterHead, noError
		case atom.Body, atom.Html, atom.Br:
		case atom.Template:
			return c.closeTemplate()
		default:
			return false, c.mode, errUnexpectedToken
		}
	}

	c.pop()
	return true, afterHead, noError
}

func (c *HTMLTreeConstructor[H]) closeTemplate() (bool, insertionMode, parseError) {
	if !c.hasOpenElement(atom.Template) {
		return false, c.mode, errUnexpectedToken
	}
	err := noError
	c.generateImpliedEndTagsThoroughly()
	if !c.currentIs(atom.Template) {
		err = errUnexpectedOpenElement
	}
	c.popUntilNamed(atom.Template)
	c.clearActiveFormattingElementsToLastMarker()
	c.templateModes = c.templateModes[:len(c.templateModes)-1]
	return false, c.resetInsertionMode(), err
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inheadnoscript
func (c *HTMLTreeConstructor[H]) inHeadNoScriptModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case characterToken:
		if c.insertWhitespace(t) {
			return false, c.mode, noError
		}
	case commentToken:
		return c.useRulesFor(t, inHead)
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Basefont, atom.Bgsound, atom.Link, atom.Meta, atom.Noframes, atom.Style:
			return c.useRulesFor(t, inHead)
		case atom.Head, atom.Noscript:
			return false, c.mode, errUnexpectedToken
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Noscript:
			c.pop()
			return false, inHead, noError
		case atom.Br:
		default:
			return false, c.mode, errUnexpectedToken
		}
	}

	c.pop()
	return true, inHead, errUnexpectedToken
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-after-head-insertion-mode
func (c *HTMLTreeConstructor[H]) afterHeadModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if c.insertWhitespace(t) {
			return false, c.mode, noError
		}
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Body:
			c.insertHTMLElement(t)
			c.framesetOK = false
			return false, inBody, noError
		case atom.Frameset:
			c.insertHTMLElement(t)
			return false, inFrameset, noError
		case atom.Base, atom.Basefont, atom.Bgsound, atom.Link, atom.Meta, atom.Noframes,
			atom.Script, atom.Style, atom.Template, atom.Title:
			head := *c.headElement
			c.push(c.sink.CloneHandle(head), nil)
			reprocess, next, _ := c.useRulesFor(t, inHead)
			if i := c.indexOfOpenElement(head); i != -1 {
				c.removeOpenElement(i)
			}
			return reprocess, next, errUnexpectedToken
		case atom.Head:
			return false, c.mode, errUnexpectedToken
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Template:
			return c.useRulesFor(t, inHead)
		case atom.Body, atom.Html, atom.Br:
		default:
			return false, c.mode, errUnexpectedToken
		}
	}

	c.insertSyntheticElement(atom.Body)
	return true, inBody, noError
}

func isBlockStartTag(t *Token) bool {
	switch t.DataAtom {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Center, atom.Details,
		atom.Dialog, atom.Dir, atom.Div, atom.Dl, atom.Fieldset, atom.Figcaption, atom.Figure,
		atom.Footer, atom.Header, atom.Hgroup, atom.Main, atom.Menu, atom.Nav, atom.Ol, atom.P,
		atom.Section, atom.Summary, atom.Ul:
		return true
	}
	return t.TagName == "search"
}

func isBlockEndTag(t *Token) bool {
	switch t.DataAtom {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Button, atom.Center,
		atom.Details, atom.Dialog, atom.Dir, atom.Div, atom.Dl, atom.Fieldset, atom.Figcaption,
		atom.Figure, atom.Footer, atom.Header, atom.Hgroup, atom.Listing, atom.Main, atom.Menu,
		atom.Nav, atom.Ol, atom.Pre, atom.Section, atom.Summary, atom.Ul:
		return true
	}
	return t.TagName == "search"
}

// bodyEndOK reports whether the open elements are all ones that may be left
// open when the body ends.
func (c *HTMLTreeConstructor[H]) bodyEndOK() bool {
	for _, e := range c.openElements {
		if e.name.Space != HTMLNamespace {
			return false
		}
		switch e.name.Atom {
		case atom.Dd, atom.Dt, atom.Li, atom.Optgroup, atom.Option, atom.P, atom.Rb, atom.Rp,
			atom.Rt, atom.Rtc, atom.Tbody, atom.Td, atom.Tfoot, atom.Th, atom.Thead, atom.Tr,
			atom.Body, atom.Html:
		default:
			return false
		}
	}
	return true
}

func (c *HTMLTreeConstructor[H]) inBodyCharacters(s string) {
	c.reconstructActiveFormattingElements()
	c.insertCharacters(s)
	if !isWhitespaceOnly(s) {
		c.framesetOK = false
	}
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inbody
func (c *HTMLTreeConstructor[H]) inBodyModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if t.Data == "\u0000" {
			return false, c.mode, errUnexpectedNull
		}
		c.inBodyCharacters(t.Data)
		return false, c.mode, noError
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case endOfFileToken:
		if len(c.templateModes) > 0 {
			return c.useRulesFor(t, inTemplate)
		}
		err := noError
		if !c.bodyEndOK() {
			err = errUnexpectedOpenAtEOF
		}
		c.done = true
		return false, c.mode, err
	case startTagToken:
		return c.inBodyStartTag(t)
	case endTagToken:
		return c.inBodyEndTag(t)
	}
	return false, c.mode, noError
}

func (c *HTMLTreeConstructor[H]) inBodyStartTag(t *Token) (bool, insertionMode, parseError) {
	switch t.DataAtom {
	case atom.Html:
		if !c.hasOpenElement(atom.Template) {
			c.sink.AddAttrsIfMissing(c.openElements[0].node, t.Attributes)
		}
		return false, c.mode, errUnexpectedToken
	case atom.Base, atom.Basefont, atom.Bgsound, atom.Link, atom.Meta, atom.Noframes,
		atom.Script, atom.Style, atom.Template, atom.Title:
		return c.useRulesFor(t, inHead)
	case atom.Body:
		if len(c.openElements) < 2 || !c.openElements[1].name.Is(atom.Body) || c.hasOpenElement(atom.Template) {
			return false, c.mode, errUnexpectedToken
		}
		c.framesetOK = false
		c.sink.AddAttrsIfMissing(c.openElements[1].node, t.Attributes)
		return false, c.mode, errUnexpectedToken
	case atom.Frameset:
		if len(c.openElements) < 2 || !c.openElements[1].name.Is(atom.Body) || !c.framesetOK {
			return false, c.mode, errUnexpectedToken
		}
		c.sink.RemoveFromParent(c.openElements[1].node)
		for len(c.openElements) > 1 {
			c.pop()
		}
		c.insertHTMLElement(t)
		return false, inFrameset, errUnexpectedToken
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		err := c.closePElement()
		if cur := c.currentNode(); cur != nil && isHTMLHeading(cur.name) {
			err = errUnexpectedOpenElement
			c.pop()
		}
		c.insertHTMLElement(t)
		return false, c.mode, err
	case atom.Pre, atom.Listing:
		err := c.closePElement()
		c.insertHTMLElement(t)
		c.ignoreLF = true
		c.framesetOK = false
		return false, c.mode, err
	case atom.Form:
		templateOpen := c.hasOpenElement(atom.Template)
		if c.formElement != nil && !templateOpen {
			return false, c.mode, errUnexpectedToken
		}
		err := c.closePElement()
		node := c.insertHTMLElement(t)
		if !templateOpen {
			c.setFormElement(node)
		}
		return false, c.mode, err
	case atom.Li:
		return false, c.mode, c.startListItem(t, func(q QualName) bool { return q.Is(atom.Li) })
	case atom.Dd, atom.Dt:
		return false, c.mode, c.startListItem(t, func(q QualName) bool { return q.Is(atom.Dd) || q.Is(atom.Dt) })
	case atom.Plaintext:
		err := c.closePElement()
		c.insertHTMLElement(t)
		c.switchTokenizer(plaintextState)
		return false, c.mode, err
	case atom.Button:
		err := noError
		if c.inScope(defaultScope, atom.Button) {
			err = errUnexpectedToken
			c.generateImpliedEndTags(0)
			c.popUntilNamed(atom.Button)
		}
		c.reconstructActiveFormattingElements()
		c.insertHTMLElement(t)
		c.framesetOK = false
		return false, c.mode, err
	case atom.A:
		err := noError
		if i := c.lastFormattingElementNamed(atom.A); i != -1 {
			err = errFormattingElementOpen
			stale := c.sink.CloneHandle(c.activeFormattingElements[i].node)
			end := Token{TokenType: endTagToken, TagName: "a", DataAtom: atom.A}
			c.adoptionAgency(&end)
			if j := c.indexOfFormattingElement(stale); j != -1 {
				c.removeFormattingElement(j)
			}
			if j := c.indexOfOpenElement(stale); j != -1 {
				c.removeOpenElement(j)
			}
			c.sink.ReleaseHandle(stale)
		}
		c.reconstructActiveFormattingElements()
		c.pushFormattingElement(c.insertHTMLElement(t), t)
		return false, c.mode, err
	case atom.B, atom.Big, atom.Code, atom.Em, atom.Font, atom.I, atom.S, atom.Small,
		atom.Strike, atom.Strong, atom.Tt, atom.U:
		c.reconstructActiveFormattingElements()
		c.pushFormattingElement(c.insertHTMLElement(t), t)
		return false, c.mode, noError
	case atom.Nobr:
		err := noError
		c.reconstructActiveFormattingElements()
		if c.inScope(defaultScope, atom.Nobr) {
			err = errFormattingElementOpen
			end := Token{TokenType: endTagToken, TagName: "nobr", DataAtom: atom.Nobr}
			c.adoptionAgency(&end)
			c.reconstructActiveFormattingElements()
		}
		c.pushFormattingElement(c.insertHTMLElement(t), t)
		return false, c.mode, err
	case atom.Applet, atom.Marquee, atom.Object:
		c.reconstructActiveFormattingElements()
		c.insertHTMLElement(t)
		c.insertMarker()
		c.framesetOK = false
		return false, c.mode, noError
	case atom.Table:
		err := noError
		if c.quirksMode != Quirks {
			err = c.closePElement()
		}
		c.insertHTMLElement(t)
		c.framesetOK = false
		return false, inTable, err
	case atom.Area, atom.Br, atom.Embed, atom.Img, atom.Keygen, atom.Wbr:
		c.reconstructActiveFormattingElements()
		c.insertVoid(t)
		c.framesetOK = false
		return false, c.mode, noError
	case atom.Input:
		c.reconstructActiveFormattingElements()
		c.insertVoid(t)
		if v, ok := t.Attr("type"); !ok || !strings.EqualFold(v, "hidden") {
			c.framesetOK = false
		}
		return false, c.mode, noError
	case atom.Param, atom.Source, atom.Track:
		c.insertVoid(t)
		return false, c.mode, noError
	case atom.Hr:
		err := c.closePElement()
		c.insertVoid(t)
		c.framesetOK = false
		return false, c.mode, err
	case atom.Image:
		t.TagName, t.DataAtom = "img", atom.Img
		return true, c.mode, errUnexpectedToken
	case atom.Textarea:
		c.insertHTMLElement(t)
		c.ignoreLF = true
		c.switchTokenizer(rcDataState)
		c.originalMode = c.mode
		c.framesetOK = false
		return false, text, noError
	case atom.Xmp:
		err := c.closePElement()
		c.reconstructActiveFormattingElements()
		c.framesetOK = false
		return false, c.parseRawText(t, rawTextState), err
	case atom.Iframe:
		c.framesetOK = false
		return false, c.parseRawText(t, rawTextState), noError
	case atom.Noembed:
		return false, c.parseRawText(t, rawTextState), noError
	case atom.Noscript:
		if c.opts.Scripting {
			return false, c.parseRawText(t, rawTextState), noError
		}
	case atom.Select:
		c.reconstructActiveFormattingElements()
		c.insertHTMLElement(t)
		c.framesetOK = false
		switch c.mode {
		case inTable, inCaption, inTableBody, inRow, inCell:
			return false, inSelectInTable, noError
		}
		return false, inSelect, noError
	case atom.Optgroup, atom.Option:
		if c.currentIs(atom.Option) {
			c.pop()
		}
		c.reconstructActiveFormattingElements()
		c.insertHTMLElement(t)
		return false, c.mode, noError
	case atom.Rb, atom.Rtc:
		err := noError
		if c.inScope(defaultScope, atom.Ruby) {
			c.generateImpliedEndTags(0)
			if !c.currentIs(atom.Ruby) {
				err = errUnexpectedOpenElement
			}
		}
		c.insertHTMLElement(t)
		return false, c.mode, err
	case atom.Rp, atom.Rt:
		err := noError
		if c.inScope(defaultScope, atom.Ruby) {
			c.generateImpliedEndTags(atom.Rtc)
			if !c.currentIs(atom.Rtc) && !c.currentIs(atom.Ruby) {
				err = errUnexpectedOpenElement
			}
		}
		c.insertHTMLElement(t)
		return false, c.mode, err
	case atom.Math:
		c.reconstructActiveFormattingElements()
		adjustMathMLAttributes(t.Attributes)
		adjustForeignAttributes(t.Attributes)
		c.insertForeignElement(t, MathMLNamespace)
		return false, c.mode, noError
	case atom.Svg:
		c.reconstructActiveFormattingElements()
		adjustSVGAttributes(t.Attributes)
		adjustForeignAttributes(t.Attributes)
		c.insertForeignElement(t, SVGNamespace)
		return false, c.mode, noError
	case atom.Caption, atom.Col, atom.Colgroup, atom.Frame, atom.Head, atom.Tbody, atom.Td,
		atom.Tfoot, atom.Th, atom.Thead, atom.Tr:
		return false, c.mode, errUnexpectedToken
	}

	if isBlockStartTag(t) {
		err := c.closePElement()
		c.insertHTMLElement(t)
		return false, c.mode, err
	}

	c.reconstructActiveFormattingElements()
	c.insertHTMLElement(t)
	return false, c.mode, noError
}

// startListItem closes an open li, dd or dt before starting a new one.
func (c *HTMLTreeConstructor[H]) startListItem(t *Token, closes func(QualName) bool) parseError {
	err := noError
	c.framesetOK = false
	for i := len(c.openElements) - 1; i >= 0; i-- {
		name := c.openElements[i].name
		if closes(name) {
			c.generateImpliedEndTags(name.Atom)
			if !c.currentIs(name.Atom) {
				err = errUnexpectedOpenElement
			}
			c.popUntilNamed(name.Atom)
			break
		}
		if isSpecial(name) && !name.Is(atom.Address) && !name.Is(atom.Div) && !name.Is(atom.P) {
			break
		}
	}
	if perr := c.closePElement(); err == noError {
		err = perr
	}
	c.insertHTMLElement(t)
	return err
}

func (c *HTMLTreeConstructor[H]) inBodyEndTag(t *Token) (bool, insertionMode, parseError) {
	switch t.DataAtom {
	case atom.Template:
		return c.useRulesFor(t, inHead)
	case atom.Body:
		if !c.inScope(defaultScope, atom.Body) {
			return false, c.mode, errUnexpectedToken
		}
		if !c.bodyEndOK() {
			return false, afterBody, errUnexpectedOpenElement
		}
		return false, afterBody, noError
	case atom.Html:
		if !c.inScope(defaultScope, atom.Body) {
			return false, c.mode, errUnexpectedToken
		}
		if !c.bodyEndOK() {
			return true, afterBody, errUnexpectedOpenElement
		}
		return true, afterBody, noError
	case atom.Form:
		return c.closeForm()
	case atom.P:
		err := noError
		if !c.inScope(buttonScope, atom.P) {
			err = errUnexpectedToken
			c.insertSyntheticElement(atom.P)
		}
		if perr := c.closePElement(); err == noError {
			err = perr
		}
		return false, c.mode, err
	case atom.Li:
		if !c.inScope(listItemScope, atom.Li) {
			return false, c.mode, errUnexpectedToken
		}
		return false, c.mode, c.closeElement(atom.Li)
	case atom.Dd, atom.Dt:
		if !c.inScope(defaultScope, t.DataAtom) {
			return false, c.mode, errUnexpectedToken
		}
		return false, c.mode, c.closeElement(t.DataAtom)
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		if !c.inScopeFunc(defaultScope, isHTMLHeading) {
			return false, c.mode, errUnexpectedToken
		}
		err := noError
		c.generateImpliedEndTags(0)
		if !c.currentIs(t.DataAtom) {
			err = errUnexpectedOpenElement
		}
		c.popUntil(isHTMLHeading)
		return false, c.mode, err
	case atom.A, atom.B, atom.Big, atom.Code, atom.Em, atom.Font, atom.I, atom.Nobr, atom.S,
		atom.Small, atom.Strike, atom.Strong, atom.Tt, atom.U:
		if handled, err := c.adoptionAgency(t); handled {
			return false, c.mode, err
		}
		return c.anyOtherEndTag(t)
	case atom.Applet, atom.Marquee, atom.Object:
		if !c.inScope(defaultScope, t.DataAtom) {
			return false, c.mode, errUnexpectedToken
		}
		err := c.closeElement(t.DataAtom)
		c.clearActiveFormattingElementsToLastMarker()
		return false, c.mode, err
	case atom.Br:
		*t = Token{TokenType: startTagToken, TagName: "br", DataAtom: atom.Br}
		c.reconstructActiveFormattingElements()
		c.insertVoid(t)
		c.framesetOK = false
		return false, c.mode, errUnexpectedToken
	}

	if isBlockEndTag(t) {
		if !c.inScopeFunc(defaultScope, htmlNamed(t.TagName)) {
			return false, c.mode, errUnexpectedToken
		}
		err := noError
		c.generateImpliedEndTags(0)
		if !htmlNamed(t.TagName)(c.currentNode().name) {
			err = errUnexpectedOpenElement
		}
		c.popUntil(htmlNamed(t.TagName))
		return false, c.mode, err
	}
	return c.anyOtherEndTag(t)
}

// closeElement generates implied end tags except for a and pops up to and
// including the element a.
func (c *HTMLTreeConstructor[H]) closeElement(a atom.Atom) parseError {
	err := noError
	c.generateImpliedEndTags(a)
	if !c.currentIs(a) {
		err = errUnexpectedOpenElement
	}
	c.popUntilNamed(a)
	return err
}

func (c *HTMLTreeConstructor[H]) closeForm() (bool, insertionMode, parseError) {
	if c.hasOpenElement(atom.Template) {
		if !c.inScope(defaultScope, atom.Form) {
			return false, c.mode, errUnexpectedToken
		}
		return false, c.mode, c.closeElement(atom.Form)
	}

	if c.formElement == nil {
		return false, c.mode, errUnexpectedToken
	}
	form := *c.formElement
	c.formElement = nil
	defer c.sink.ReleaseHandle(form)

	idx := c.indexOfOpenElement(form)
	if idx == -1 || !c.indexInScope(idx) {
		return false, c.mode, errUnexpectedToken
	}
	err := noError
	c.generateImpliedEndTags(0)
	if !c.sink.SameNode(c.currentNode().node, form) {
		err = errUnexpectedOpenElement
	}
	c.removeOpenElement(c.indexOfOpenElement(form))
	return false, c.mode, err
}

func (c *HTMLTreeConstructor[H]) anyOtherEndTag(t *Token) (bool, insertionMode, parseError) {
	for i := len(c.openElements) - 1; i >= 0; i-- {
		name := c.openElements[i].name
		if name.Space == HTMLNamespace && name.Local == t.TagName {
			err := noError
			c.generateImpliedEndTags(t.DataAtom)
			if i != len(c.openElements)-1 {
				err = errUnexpectedOpenElement
			}
			for len(c.openElements) > i {
				c.pop()
			}
			return false, c.mode, err
		}
		if isSpecial(name) {
			return false, c.mode, errUnexpectedToken
		}
	}
	return false, c.mode, noError
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-incdata
func (c *HTMLTreeConstructor[H]) textModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		c.insertCharacters(t.Data)
		return false, c.mode, noError
	case endOfFileToken:
		if cur := c.currentNode(); cur.name.Is(atom.Script) {
			c.sink.MarkScriptAlreadyStarted(cur.node)
		}
		c.pop()
		return true, c.originalMode, errUnexpectedEOF
	case endTagToken:
		c.pop()
		return false, c.originalMode, noError
	}
	return false, c.mode, noError
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intable
func (c *HTMLTreeConstructor[H]) inTableModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if cur := c.currentNode(); cur != nil {
			switch {
			case cur.name.Is(atom.Table), cur.name.Is(atom.Tbody), cur.name.Is(atom.Template),
				cur.name.Is(atom.Tfoot), cur.name.Is(atom.Thead), cur.name.Is(atom.Tr):
				c.pendingTableText = c.pendingTableText[:0]
				c.originalMode = c.mode
				return true, inTableText, noError
			}
		}
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		switch t.DataAtom {
		case atom.Caption:
			c.popUntilCurrent(isTableContext)
			c.insertMarker()
			c.insertHTMLElement(t)
			return false, inCaption, noError
		case atom.Colgroup:
			c.popUntilCurrent(isTableContext)
			c.insertHTMLElement(t)
			return false, inColumnGroup, noError
		case atom.Col:
			c.popUntilCurrent(isTableContext)
			c.insertSyntheticElement(atom.Colgroup)
			return true, inColumnGroup, noError
		case atom.Tbody, atom.Tfoot, atom.Thead:
			c.popUntilCurrent(isTableContext)
			c.insertHTMLElement(t)
			return false, inTableBody, noError
		case atom.Td, atom.Th, atom.Tr:
			c.popUntilCurrent(isTableContext)
			c.insertSyntheticElement(atom.Tbody)
			return true, inTableBody, noError
		case atom.Table:
			if !c.inScope(tableScope, atom.Table) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilNamed(atom.Table)
			return true, c.resetInsertionMode(), errUnexpectedToken
		case atom.Style, atom.Script, atom.Template:
			return c.useRulesFor(t, inHead)
		case atom.Input:
			if v, ok := t.Attr("type"); ok && strings.EqualFold(v, "hidden") {
				c.insertVoid(t)
				return false, c.mode, errUnexpectedToken
			}
		case atom.Form:
			if c.hasOpenElement(atom.Template) || c.formElement != nil {
				return false, c.mode, errUnexpectedToken
			}
			c.setFormElement(c.insertHTMLElement(t))
			c.pop()
			return false, c.mode, errUnexpectedToken
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Table:
			if !c.inScope(tableScope, atom.Table) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilNamed(atom.Table)
			return false, c.resetInsertionMode(), noError
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html, atom.Tbody, atom.Td,
			atom.Tfoot, atom.Th, atom.Thead, atom.Tr:
			return false, c.mode, errUnexpectedToken
		case atom.Template:
			return c.useRulesFor(t, inHead)
		}
	case endOfFileToken:
		return c.useRulesFor(t, inBody)
	}

	c.fosterParenting = true
	reprocess, next, _ := c.useRulesFor(t, inBody)
	c.fosterParenting = false
	return reprocess, next, errUnexpectedToken
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intabletext
func (c *HTMLTreeConstructor[H]) inTableTextModeHandler(t *Token) (bool, insertionMode, parseError) {
	if t.TokenType == characterToken {
		if t.Data == "\u0000" {
			return false, c.mode, errUnexpectedNull
		}
		c.pendingTableText = append(c.pendingTableText, t.Data)
		return false, c.mode, noError
	}

	err := noError
	pending := strings.Join(c.pendingTableText, "")
	c.pendingTableText = c.pendingTableText[:0]
	if isWhitespaceOnly(pending) {
		c.insertCharacters(pending)
	} else {
		err = errNonSpaceInTable
		c.fosterParenting = true
		c.inBodyCharacters(pending)
		c.fosterParenting = false
	}
	return true, c.originalMode, err
}

func (c *HTMLTreeConstructor[H]) closeCaption() (bool, parseError) {
	if !c.inScope(tableScope, atom.Caption) {
		return false, errUnexpectedToken
	}
	err := noError
	c.generateImpliedEndTags(0)
	if !c.currentIs(atom.Caption) {
		err = errUnexpectedOpenElement
	}
	c.popUntilNamed(atom.Caption)
	c.clearActiveFormattingElementsToLastMarker()
	return true, err
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-incaption
func (c *HTMLTreeConstructor[H]) inCaptionModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case startTagToken:
		switch t.DataAtom {
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Td, atom.Tfoot, atom.Th,
			atom.Thead, atom.Tr:
			if ok, err := c.closeCaption(); ok {
				return true, inTable, err
			}
			return false, c.mode, errUnexpectedToken
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Caption:
			if ok, err := c.closeCaption(); ok {
				return false, inTable, err
			}
			return false, c.mode, errUnexpectedToken
		case atom.Table:
			if ok, err := c.closeCaption(); ok {
				return true, inTable, err
			}
			return false, c.mode, errUnexpectedToken
		case atom.Body, atom.Col, atom.Colgroup, atom.Html, atom.Tbody, atom.Td, atom.Tfoot,
			atom.Th, atom.Thead, atom.Tr:
			return false, c.mode, errUnexpectedToken
		}
	}
	return c.useRulesFor(t, inBody)
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-incolgroup
func (c *HTMLTreeConstructor[H]) inColumnGroupModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if c.insertWhitespace(t) {
			return false, c.mode, noError
		}
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Col:
			c.insertVoid(t)
			return false, c.mode, noError
		case atom.Template:
			return c.useRulesFor(t, inHead)
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Colgroup:
			if !c.currentIs(atom.Colgroup) {
				return false, c.mode, errUnexpectedToken
			}
			c.pop()
			return false, inTable, noError
		case atom.Col:
			return false, c.mode, errUnexpectedToken
		case atom.Template:
			return c.useRulesFor(t, inHead)
		}
	case endOfFileToken:
		return c.useRulesFor(t, inBody)
	}

	if !c.currentIs(atom.Colgroup) {
		return false, c.mode, errUnexpectedToken
	}
	c.pop()
	return true, inTable, noError
}

func (c *HTMLTreeConstructor[H]) tableSectionInScope() bool {
	return c.inScope(tableScope, atom.Tbody) || c.inScope(tableScope, atom.Thead) || c.inScope(tableScope, atom.Tfoot)
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intbody
func (c *HTMLTreeConstructor[H]) inTableBodyModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case startTagToken:
		switch t.DataAtom {
		case atom.Tr:
			c.popUntilCurrent(isTableBodyContext)
			c.insertHTMLElement(t)
			return false, inRow, noError
		case atom.Th, atom.Td:
			c.popUntilCurrent(isTableBodyContext)
			c.insertSyntheticElement(atom.Tr)
			return true, inRow, errUnexpectedToken
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Tfoot, atom.Thead:
			if !c.tableSectionInScope() {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilCurrent(isTableBodyContext)
			c.pop()
			return true, inTable, noError
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Tbody, atom.Tfoot, atom.Thead:
			if !c.inScope(tableScope, t.DataAtom) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilCurrent(isTableBodyContext)
			c.pop()
			return false, inTable, noError
		case atom.Table:
			if !c.tableSectionInScope() {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilCurrent(isTableBodyContext)
			c.pop()
			return true, inTable, noError
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html, atom.Td, atom.Th, atom.Tr:
			return false, c.mode, errUnexpectedToken
		}
	}
	return c.useRulesFor(t, inTable)
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intr
func (c *HTMLTreeConstructor[H]) inRowModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case startTagToken:
		switch t.DataAtom {
		case atom.Th, atom.Td:
			c.popUntilCurrent(isTableRowContext)
			c.insertHTMLElement(t)
			c.insertMarker()
			return false, inCell, noError
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr:
			if !c.inScope(tableScope, atom.Tr) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilCurrent(isTableRowContext)
			c.pop()
			return true, inTableBody, noError
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Tr:
			if !c.inScope(tableScope, atom.Tr) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilCurrent(isTableRowContext)
			c.pop()
			return false, inTableBody, noError
		case atom.Table:
			if !c.inScope(tableScope, atom.Tr) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilCurrent(isTableRowContext)
			c.pop()
			return true, inTableBody, noError
		case atom.Tbody, atom.Tfoot, atom.Thead:
			if !c.inScope(tableScope, t.DataAtom) {
				return false, c.mode, errUnexpectedToken
			}
			if !c.inScope(tableScope, atom.Tr) {
				return false, c.mode, noError
			}
			c.popUntilCurrent(isTableRowContext)
			c.pop()
			return true, inTableBody, noError
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html, atom.Td, atom.Th:
			return false, c.mode, errUnexpectedToken
		}
	}
	return c.useRulesFor(t, inTable)
}

func (c *HTMLTreeConstructor[H]) closeCell() parseError {
	err := noError
	c.generateImpliedEndTags(0)
	if cur := c.currentNode(); !isCell(cur.name) {
		err = errUnexpectedOpenElement
	}
	c.popUntil(isCell)
	c.clearActiveFormattingElementsToLastMarker()
	return err
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intd
func (c *HTMLTreeConstructor[H]) inCellModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case startTagToken:
		switch t.DataAtom {
		case atom.Caption, atom.Col, atom.Colgroup, atom.Tbody, atom.Td, atom.Tfoot, atom.Th,
			atom.Thead, atom.Tr:
			if !c.inScopeFunc(tableScope, isCell) {
				return false, c.mode, errUnexpectedToken
			}
			return true, inRow, c.closeCell()
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Td, atom.Th:
			if !c.inScope(tableScope, t.DataAtom) {
				return false, c.mode, errUnexpectedToken
			}
			err := noError
			c.generateImpliedEndTags(0)
			if !c.currentIs(t.DataAtom) {
				err = errUnexpectedOpenElement
			}
			c.popUntilNamed(t.DataAtom)
			c.clearActiveFormattingElementsToLastMarker()
			return false, inRow, err
		case atom.Body, atom.Caption, atom.Col, atom.Colgroup, atom.Html:
			return false, c.mode, errUnexpectedToken
		case atom.Table, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr:
			if !c.inScope(tableScope, t.DataAtom) {
				return false, c.mode, errUnexpectedToken
			}
			return true, inRow, c.closeCell()
		}
	}
	return c.useRulesFor(t, inBody)
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inselect
func (c *HTMLTreeConstructor[H]) inSelectModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if t.Data == "\u0000" {
			return false, c.mode, errUnexpectedNull
		}
		c.insertCharacters(t.Data)
		return false, c.mode, noError
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Option:
			if c.currentIs(atom.Option) {
				c.pop()
			}
			c.insertHTMLElement(t)
			return false, c.mode, noError
		case atom.Optgroup:
			if c.currentIs(atom.Option) {
				c.pop()
			}
			if c.currentIs(atom.Optgroup) {
				c.pop()
			}
			c.insertHTMLElement(t)
			return false, c.mode, noError
		case atom.Hr:
			if c.currentIs(atom.Option) {
				c.pop()
			}
			if c.currentIs(atom.Optgroup) {
				c.pop()
			}
			c.insertVoid(t)
			return false, c.mode, noError
		case atom.Select:
			if !c.inScope(selectScope, atom.Select) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilNamed(atom.Select)
			return false, c.resetInsertionMode(), errUnexpectedToken
		case atom.Input, atom.Keygen, atom.Textarea:
			if !c.inScope(selectScope, atom.Select) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilNamed(atom.Select)
			return true, c.resetInsertionMode(), errUnexpectedToken
		case atom.Script, atom.Template:
			return c.useRulesFor(t, inHead)
		}
	case endTagToken:
		switch t.DataAtom {
		case atom.Optgroup:
			n := len(c.openElements)
			if c.currentIs(atom.Option) && n > 1 && c.openElements[n-2].name.Is(atom.Optgroup) {
				c.pop()
			}
			if !c.currentIs(atom.Optgroup) {
				return false, c.mode, errUnexpectedToken
			}
			c.pop()
			return false, c.mode, noError
		case atom.Option:
			if !c.currentIs(atom.Option) {
				return false, c.mode, errUnexpectedToken
			}
			c.pop()
			return false, c.mode, noError
		case atom.Select:
			if !c.inScope(selectScope, atom.Select) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilNamed(atom.Select)
			return false, c.resetInsertionMode(), noError
		case atom.Template:
			return c.useRulesFor(t, inHead)
		}
	case endOfFileToken:
		return c.useRulesFor(t, inBody)
	}
	return false, c.mode, errUnexpectedToken
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inselectintable
func (c *HTMLTreeConstructor[H]) inSelectInTableModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.DataAtom {
	case atom.Caption, atom.Table, atom.Tbody, atom.Tfoot, atom.Thead, atom.Tr, atom.Td, atom.Th:
		switch t.TokenType {
		case startTagToken:
			c.popUntilNamed(atom.Select)
			return true, c.resetInsertionMode(), errUnexpectedToken
		case endTagToken:
			if !c.inScope(tableScope, t.DataAtom) {
				return false, c.mode, errUnexpectedToken
			}
			c.popUntilNamed(atom.Select)
			return true, c.resetInsertionMode(), errUnexpectedToken
		}
	}
	return c.useRulesFor(t, inSelect)
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-intemplate
func (c *HTMLTreeConstructor[H]) inTemplateModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken, commentToken, docTypeToken:
		return c.useRulesFor(t, inBody)
	case startTagToken:
		var next insertionMode
		switch t.DataAtom {
		case atom.Base, atom.Basefont, atom.Bgsound, atom.Link, atom.Meta, atom.Noframes,
			atom.Script, atom.Style, atom.Template, atom.Title:
			return c.useRulesFor(t, inHead)
		case atom.Caption, atom.Colgroup, atom.Tbody, atom.Tfoot, atom.Thead:
			next = inTable
		case atom.Col:
			next = inColumnGroup
		case atom.Tr:
			next = inTableBody
		case atom.Td, atom.Th:
			next = inRow
		default:
			next = inBody
		}
		c.templateModes[len(c.templateModes)-1] = next
		return true, next, noError
	case endTagToken:
		if t.DataAtom == atom.Template {
			return c.useRulesFor(t, inHead)
		}
		return false, c.mode, errUnexpectedToken
	case endOfFileToken:
		if !c.hasOpenElement(atom.Template) {
			c.done = true
			return false, c.mode, noError
		}
		c.popUntilNamed(atom.Template)
		c.clearActiveFormattingElementsToLastMarker()
		c.templateModes = c.templateModes[:len(c.templateModes)-1]
		return true, c.resetInsertionMode(), errUnexpectedEOF
	}
	return false, c.mode, noError
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-afterbody
func (c *HTMLTreeConstructor[H]) afterBodyModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if isWhitespaceOnly(t.Data) {
			return c.useRulesFor(t, inBody)
		}
	case commentToken:
		c.appendComment(c.openElements[0].node, t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		if t.DataAtom == atom.Html {
			return c.useRulesFor(t, inBody)
		}
	case endTagToken:
		if t.DataAtom == atom.Html {
			return false, afterAfterBody, noError
		}
	case endOfFileToken:
		c.done = true
		return false, c.mode, noError
	}
	return true, inBody, errUnexpectedToken
}

// framesetWhitespace keeps only the whitespace of a character token.
func framesetWhitespace(s string) (string, bool) {
	var b strings.Builder
	dropped := false
	for _, r := range s {
		if isASCIIWhitespace(r) {
			b.WriteRune(r)
		} else {
			dropped = true
		}
	}
	return b.String(), dropped
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inframeset
func (c *HTMLTreeConstructor[H]) inFramesetModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		ws, dropped := framesetWhitespace(t.Data)
		c.insertCharacters(ws)
		if dropped {
			return false, c.mode, errUnexpectedToken
		}
		return false, c.mode, noError
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Frameset:
			c.insertHTMLElement(t)
			return false, c.mode, noError
		case atom.Frame:
			c.insertVoid(t)
			return false, c.mode, noError
		case atom.Noframes:
			return c.useRulesFor(t, inHead)
		}
	case endTagToken:
		if t.DataAtom == atom.Frameset {
			if len(c.openElements) == 1 {
				return false, c.mode, errUnexpectedToken
			}
			c.pop()
			if !c.currentIs(atom.Frameset) {
				return false, afterFrameset, noError
			}
			return false, c.mode, noError
		}
	case endOfFileToken:
		err := noError
		if len(c.openElements) > 1 {
			err = errUnexpectedOpenAtEOF
		}
		c.done = true
		return false, c.mode, err
	}
	return false, c.mode, errUnexpectedToken
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-afterframeset
func (c *HTMLTreeConstructor[H]) afterFramesetModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		ws, dropped := framesetWhitespace(t.Data)
		c.insertCharacters(ws)
		if dropped {
			return false, c.mode, errUnexpectedToken
		}
		return false, c.mode, noError
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Noframes:
			return c.useRulesFor(t, inHead)
		}
	case endTagToken:
		if t.DataAtom == atom.Html {
			return false, afterAfterFrameset, noError
		}
	case endOfFileToken:
		c.done = true
		return false, c.mode, noError
	}
	return false, c.mode, errUnexpectedToken
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-after-after-body-insertion-mode
func (c *HTMLTreeConstructor[H]) afterAfterBodyModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case commentToken:
		c.appendComment(c.document, t)
		return false, c.mode, noError
	case docTypeToken:
		return c.useRulesFor(t, inBody)
	case characterToken:
		if isWhitespaceOnly(t.Data) {
			return c.useRulesFor(t, inBody)
		}
	case startTagToken:
		if t.DataAtom == atom.Html {
			return c.useRulesFor(t, inBody)
		}
	case endOfFileToken:
		c.done = true
		return false, c.mode, noError
	}
	return true, inBody, errUnexpectedToken
}

// https://html.spec.whatwg.org/multipage/parsing.html#the-after-after-frameset-insertion-mode
func (c *HTMLTreeConstructor[H]) afterAfterFramesetModeHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case commentToken:
		c.appendComment(c.document, t)
		return false, c.mode, noError
	case docTypeToken:
		return c.useRulesFor(t, inBody)
	case characterToken:
		ws, dropped := framesetWhitespace(t.Data)
		t.Data = ws
		if ws != "" {
			c.useRulesFor(t, inBody)
		}
		if !dropped {
			return false, c.mode, noError
		}
	case startTagToken:
		switch t.DataAtom {
		case atom.Html:
			return c.useRulesFor(t, inBody)
		case atom.Noframes:
			return c.useRulesFor(t, inHead)
		}
	case endOfFileToken:
		c.done = true
		return false, c.mode, noError
	}
	return false, c.mode, errUnexpectedToken
}

// useHTMLRules is the tree construction dispatcher: it reports whether t is
// processed by the current insertion mode rather than the rules for foreign
// content.
func (c *HTMLTreeConstructor[H]) useHTMLRules(t *Token) bool {
	acn := c.adjustedCurrentNode()
	if acn == nil || acn.name.Space == HTMLNamespace || t.TokenType == endOfFileToken {
		return true
	}
	if isMathMLTextIntegrationPoint(acn.name) {
		if t.TokenType == characterToken {
			return true
		}
		if t.TokenType == startTagToken && t.TagName != "mglyph" && t.TagName != "malignmark" {
			return true
		}
	}
	if acn.name.Space == MathMLNamespace && acn.name.Local == "annotation-xml" &&
		t.TokenType == startTagToken && t.TagName == "svg" {
		return true
	}
	if acn.integrationPoint && (t.TokenType == startTagToken || t.TokenType == characterToken) {
		return true
	}
	return false
}

// https://html.spec.whatwg.org/multipage/parsing.html#parsing-main-inforeign
func (c *HTMLTreeConstructor[H]) foreignContentHandler(t *Token) (bool, insertionMode, parseError) {
	switch t.TokenType {
	case characterToken:
		if t.Data == "\u0000" {
			c.insertCharacters("\uFFFD")
			return false, c.mode, errUnexpectedNull
		}
		c.insertCharacters(t.Data)
		if !isWhitespaceOnly(t.Data) {
			c.framesetOK = false
		}
		return false, c.mode, noError
	case commentToken:
		c.insertComment(t)
		return false, c.mode, noError
	case docTypeToken:
		return false, c.mode, errUnexpectedToken
	case startTagToken:
		if isForeignBreakout(t) {
			return c.breakOutOfForeignContent(t)
		}
		acn := c.adjustedCurrentNode()
		space := acn.name.Space
		switch space {
		case MathMLNamespace:
			adjustMathMLAttributes(t.Attributes)
		case SVGNamespace:
			if name, ok := svgTagNameAdjustments[t.TagName]; ok {
				t.TagName = name
			}
			adjustSVGAttributes(t.Attributes)
		}
		adjustForeignAttributes(t.Attributes)
		c.insertForeignElement(t, space)
		return false, c.mode, noError
	case endTagToken:
		if t.DataAtom == atom.Br || t.DataAtom == atom.P {
			return c.breakOutOfForeignContent(t)
		}
		cur := c.currentNode()
		if t.TagName == "script" && cur.name.Space == SVGNamespace && cur.name.Local == "script" {
			c.pop()
			return false, c.mode, noError
		}

		err := noError
		if asciiLower(cur.name.Local) != t.TagName {
			err = errUnexpectedToken
		}
		for i := len(c.openElements) - 1; i > 0; {
			if asciiLower(c.openElements[i].name.Local) == t.TagName {
				for len(c.openElements) > i {
					c.pop()
				}
				return false, c.mode, err
			}
			i--
			if c.openElements[i].name.Space == HTMLNamespace {
				reprocess, next, herr := c.mappings[c.mode](t)
				if err == noError {
					err = herr
				}
				return reprocess, next, err
			}
		}
		return false, c.mode, err
	}
	return false, c.mode, noError
}

func (c *HTMLTreeConstructor[H]) breakOutOfForeignContent(t *Token) (bool, insertionMode, parseError) {
	for cur := c.currentNode(); cur != nil; cur = c.currentNode() {
		if cur.name.Space == HTMLNamespace || cur.integrationPoint || isMathMLTextIntegrationPoint(cur.name) {
			break
		}
		c.pop()
	}
	reprocess, next, _ := c.mappings[c.mode](t)
	return reprocess, next, errUnexpectedToken
}

type insertionMode uint

const (
	initial insertionMode = iota
	beforeHTML
	beforeHead
	inHead
	inHeadNoScript
	afterHead
	inBody
	text
	inTable
	inTableText
	inCaption
	inColumnGroup
	inTableBody
	inRow
	inCell
	inSelect
	inSelectInTable
	inTemplate
	afterBody
	inFrameset
	afterFrameset
	afterAfterBody
	afterAfterFrameset
)

var insertionModeNames = [...]string{
	initial:            "initial",
	beforeHTML:         "before html",
	beforeHead:         "before head",
	inHead:             "in head",
	inHeadNoScript:     "in head noscript",
	afterHead:          "after head",
	inBody:             "in body",
	text:               "text",
	inTable:            "in table",
	inTableText:        "in table text",
	inCaption:          "in caption",
	inColumnGroup:      "in column group",
	inTableBody:        "in table body",
	inRow:              "in row",
	inCell:             "in cell",
	inSelect:           "in select",
	inSelectInTable:    "in select in table",
	inTemplate:         "in template",
	afterBody:          "after body",
	inFrameset:         "in frameset",
	afterFrameset:      "after frameset",
	afterAfterBody:     "after after body",
	afterAfterFrameset: "after after frameset",
}

func (m insertionMode) String() string {
	if int(m) < len(insertionModeNames) {
		return insertionModeNames[m]
	}
	return "unknown"
}

// treeConstructionModeHandler processes a token in one insertion mode. It
// returns whether to reprocess the token, the next insertion mode and the
// parse error, if any.
type treeConstructionModeHandler func(t *Token) (bool, insertionMode, parseError)
