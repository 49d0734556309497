package parser

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Tokenizer parse errors, named after the error codes of the HTML standard.
const (
	errUnexpectedNullCharacter                            = "unexpected-null-character"
	errUnexpectedQuestionMarkInsteadOfTagName             = "unexpected-question-mark-instead-of-tag-name"
	errEOFBeforeTagName                                   = "eof-before-tag-name"
	errInvalidFirstCharacterOfTagName                     = "invalid-first-character-of-tag-name"
	errMissingEndTagName                                  = "missing-end-tag-name"
	errEOFInTag                                           = "eof-in-tag"
	errEOFInScriptHTMLCommentLikeText                     = "eof-in-script-html-comment-like-text"
	errUnexpectedEqualsSignBeforeAttributeName            = "unexpected-equals-sign-before-attribute-name"
	errUnexpectedCharacterInAttributeName                 = "unexpected-character-in-attribute-name"
	errDuplicateAttribute                                 = "duplicate-attribute"
	errMissingAttributeValue                              = "missing-attribute-value"
	errUnexpectedCharacterInUnquotedAttributeValue        = "unexpected-character-in-unquoted-attribute-value"
	errMissingWhitespaceBetweenAttributes                 = "missing-whitespace-between-attributes"
	errUnexpectedSolidusInTag                             = "unexpected-solidus-in-tag"
	errEndTagWithAttributes                               = "end-tag-with-attributes"
	errEndTagWithTrailingSolidus                          = "end-tag-with-trailing-solidus"
	errCDATAInHTMLContent                                 = "cdata-in-html-content"
	errIncorrectlyOpenedComment                           = "incorrectly-opened-comment"
	errAbruptClosingOfEmptyComment                        = "abrupt-closing-of-empty-comment"
	errEOFInComment                                       = "eof-in-comment"
	errNestedComment                                      = "nested-comment"
	errIncorrectlyClosedComment                           = "incorrectly-closed-comment"
	errEOFInDoctype                                       = "eof-in-doctype"
	errMissingWhitespaceBeforeDoctypeName                 = "missing-whitespace-before-doctype-name"
	errMissingDoctypeName                                 = "missing-doctype-name"
	errInvalidCharacterSequenceAfterDoctypeName           = "invalid-character-sequence-after-doctype-name"
	errMissingWhitespaceAfterDoctypePublicKeyword         = "missing-whitespace-after-doctype-public-keyword"
	errMissingWhitespaceAfterDoctypeSystemKeyword         = "missing-whitespace-after-doctype-system-keyword"
	errMissingDoctypePublicIdentifier                     = "missing-doctype-public-identifier"
	errMissingDoctypeSystemIdentifier                     = "missing-doctype-system-identifier"
	errMissingQuoteBeforeDoctypePublicIdentifier          = "missing-quote-before-doctype-public-identifier"
	errMissingQuoteBeforeDoctypeSystemIdentifier          = "missing-quote-before-doctype-system-identifier"
	errAbruptDoctypePublicIdentifier                      = "abrupt-doctype-public-identifier"
	errAbruptDoctypeSystemIdentifier                      = "abrupt-doctype-system-identifier"
	errMissingWhitespaceBetweenDoctypePublicAndSystemIDs  = "missing-whitespace-between-doctype-public-and-system-identifiers"
	errUnexpectedCharacterAfterDoctypeSystemIdentifier    = "unexpected-character-after-doctype-system-identifier"
	errEOFInCDATA                                         = "eof-in-cdata"
	errMissingSemicolonAfterCharacterReference            = "missing-semicolon-after-character-reference"
	errUnknownNamedCharacterReference                     = "unknown-named-character-reference"
	errAbsenceOfDigitsInNumericCharacterReference         = "absence-of-digits-in-numeric-character-reference"
	errNullCharacterReference                             = "null-character-reference"
	errCharacterReferenceOutsideUnicodeRange              = "character-reference-outside-unicode-range"
	errSurrogateCharacterReference                        = "surrogate-character-reference"
	errNoncharacterCharacterReference                     = "noncharacter-character-reference"
	errControlCharacterReference                          = "control-character-reference"
)

// HTMLTokenizer holds state for the various state of the tokenizer. It is
// push driven: input arrives through Feed and tokens leave through the
// emit callback as soon as they are complete. A state that needs to look
// further ahead than the buffered input suspends until more input or the
// end of input arrives.
type HTMLTokenizer struct {
	done                      bool
	returnState, currentState tokenizerState
	input                     []rune
	pos                       int
	eof                       bool
	skipLF                    bool
	suspended                 bool
	foreignContent            bool
	emittedTokens             []Token
	text                      strings.Builder
	tokenBuilder              *TokenBuilder
	lastEmittedStartTagName   string
	tokenHandler              func(t *Token) *Progress
	errorHandler              func(msg string)
	log                       logrus.FieldLogger
	debug                     bool
}

// NewHTMLTokenizer creates a tokenizer that hands every complete token to
// handler. errs receives tokenizer parse errors and may be nil.
func NewHTMLTokenizer(handler func(t *Token) *Progress, errs func(msg string), log logrus.FieldLogger) *HTMLTokenizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTMLTokenizer{
		tokenBuilder: newTokenBuilder(),
		tokenHandler: handler,
		errorHandler: errs,
		log:          log.WithField("component", "tokenizer"),
		debug:        debugEnabled(log),
	}
}

// Feed appends s to the input stream and tokenizes as much of it as
// possible.
func (p *HTMLTokenizer) Feed(s string) {
	if p.done || p.eof {
		return
	}
	p.appendInput(s)
	p.run()
}

// End marks the end of the input stream and tokenizes whatever is left,
// ending with the end-of-file token.
func (p *HTMLTokenizer) End() {
	if p.done {
		return
	}
	p.eof = true
	p.run()
}

// Done reports whether the end-of-file token has been emitted.
func (p *HTMLTokenizer) Done() bool {
	return p.done
}

// appendInput normalizes newlines as the input is buffered. A CR at the end
// of one chunk swallows a LF at the start of the next.
func (p *HTMLTokenizer) appendInput(s string) {
	for _, r := range s {
		if p.skipLF {
			p.skipLF = false
			if r == '\n' {
				continue
			}
		}
		if r == '\r' {
			p.skipLF = true
			r = '\n'
		}
		p.input = append(p.input, r)
	}
}

func (p *HTMLTokenizer) run() {
	p.suspended = false
	for !p.done && !p.suspended {
		if p.pos >= len(p.input) {
			if !p.eof {
				break
			}
			p.processRune(0, true)
			continue
		}
		r := p.input[p.pos]
		p.pos++
		p.processRune(r, false)
	}
	if !p.done {
		p.flushText()
		p.drain()
	}
	if p.pos > 0 {
		p.input = append(p.input[:0], p.input[p.pos:]...)
		p.pos = 0
	}
}

func (p *HTMLTokenizer) processRune(r rune, eof bool) {
	reconsume := true
	for reconsume && !p.done {
		var next tokenizerState
		reconsume, next = p.stateToParser(p.currentState)(r, eof)
		p.currentState = next
		if p.suspended {
			if !eof {
				p.pos--
			}
			return
		}
		p.drain()
	}
}

// suspend stops tokenizing until more input arrives. The current rune is
// handed back so that state sees it again on resume.
func (p *HTMLTokenizer) suspend(state tokenizerState) (bool, tokenizerState) {
	p.suspended = true
	return false, state
}

type lookaheadResult uint

const (
	lookMatch lookaheadResult = iota
	lookMismatch
	lookShort
)

// lookahead compares the runes after the current one with want, folding
// ASCII case when fold is set. want must be lower case when folding.
func (p *HTMLTokenizer) lookahead(want string, fold bool) lookaheadResult {
	i := p.pos
	for _, w := range want {
		if i >= len(p.input) {
			if p.eof {
				return lookMismatch
			}
			return lookShort
		}
		r := p.input[i]
		if fold {
			r = toASCIILower(r)
		}
		if r != w {
			return lookMismatch
		}
		i++
	}
	return lookMatch
}

func (p *HTMLTokenizer) peekRune() (rune, bool) {
	if p.pos < len(p.input) {
		return p.input[p.pos], true
	}
	return 0, false
}

func (p *HTMLTokenizer) parseErr(msg string) {
	if p.errorHandler != nil {
		p.errorHandler(msg)
	}
}

func (p *HTMLTokenizer) stateToParser(state tokenizerState) parserStateHandler {
	switch state {
	case dataState:
		return p.dataStateParser
	case rcDataState:
		return p.rcDataStateParser
	case rawTextState:
		return p.rawTextStateParser
	case scriptDataState:
		return p.scriptDataStateParser
	case plaintextState:
		return p.plaintextStateParser
	case tagOpenState:
		return p.tagOpenStateParser
	case endTagOpenState:
		return p.endTagOpenStateParser
	case tagNameState:
		return p.tagNameStateParser
	case rcDataLessThanSignState:
		return p.rcDataLessThanSignStateParser
	case rcDataEndTagOpenState:
		return p.rcDataEndTagOpenStateParser
	case rcDataEndTagNameState:
		return p.rcDataEndTagNameStateParser
	case rawTextLessThanSignState:
		return p.rawTextLessThanSignStateParser
	case rawTextEndTagOpenState:
		return p.rawTextEndTagOpenStateParser
	case rawTextEndTagNameState:
		return p.rawTextEndTagNameStateParser
	case scriptDataLessThanSignState:
		return p.scriptDataLessThanSignStateParser
	case scriptDataEndTagOpenState:
		return p.scriptDataEndTagOpenStateParser
	case scriptDataEndTagNameState:
		return p.scriptDataEndTagNameStateParser
	case scriptDataEscapeStartState:
		return p.scriptDataEscapeStartStateParser
	case scriptDataEscapeStartDashState:
		return p.scriptDataEscapeStartDashStateParser
	case scriptDataEscapedState:
		return p.scriptDataEscapedStateParser
	case scriptDataEscapedDashState:
		return p.scriptDataEscapedDashStateParser
	case scriptDataEscapedDashDashState:
		return p.scriptDataEscapedDashDashStateParser
	case scriptDataEscapedLessThanSignState:
		return p.scriptDataEscapedLessThanSignStateParser
	case scriptDataEscapedEndTagOpenState:
		return p.scriptDataEscapedEndTagOpenStateParser
	case scriptDataEscapedEndTagNameState:
		return p.scriptDataEscapedEndTagNameStateParser
	case scriptDataDoubleEscapeStartState:
		return p.scriptDataDoubleEscapeStartStateParser
	case scriptDataDoubleEscapedState:
		return p.scriptDataDoubleEscapedStateParser
	case scriptDataDoubleEscapedDashState:
		return p.scriptDataDoubleEscapedDashStateParser
	case scriptDataDoubleEscapedDashDashState:
		return p.scriptDataDoubleEscapedDashDashStateParser
	case scriptDataDoubleEscapedLessThanSignState:
		return p.scriptDataDoubleEscapedLessThanSignStateParser
	case scriptDataDoubleEscapeEndState:
		return p.scriptDataDoubleEscapeEndStateParser
	case beforeAttributeNameState:
		return p.beforeAttributeNameStateParser
	case attributeNameState:
		return p.attributeNameStateParser
	case afterAttributeNameState:
		return p.afterAttributeNameStateParser
	case beforeAttributeValueState:
		return p.beforeAttributeValueStateParser
	case attributeValueDoubleQuotedState:
		return p.attributeValueDoubleQuotedStateParser
	case attributeValueSingleQuotedState:
		return p.attributeValueSingleQuotedStateParser
	case attributeValueUnquotedState:
		return p.attributeValueUnquotedStateParser
	case afterAttributeValueQuotedState:
		return p.afterAttributeValueQuotedStateParser
	case selfClosingStartTagState:
		return p.selfClosingStartTagStateParser
	case bogusCommentState:
		return p.bogusCommentStateParser
	case markupDeclarationOpenState:
		return p.markupDeclarationOpenStateParser
	case commentStartState:
		return p.commentStartStateParser
	case commentStartDashState:
		return p.commentStartDashStateParser
	case commentState:
		return p.commentStateParser
	case commentLessThanSignState:
		return p.commentLessThanSignStateParser
	case commentLessThanSignBangState:
		return p.commentLessThanSignBangStateParser
	case commentLessThanSignBangDashState:
		return p.commentLessThanSignBangDashStateParser
	case commentLessThanSignBangDashDashState:
		return p.commentLessThanSignBangDashDashStateParser
	case commentEndDashState:
		return p.commentEndDashStateParser
	case commentEndState:
		return p.commentEndStateParser
	case commentEndBangState:
		return p.commentEndBangStateParser
	case doctypeState:
		return p.doctypeStateParser
	case beforeDoctypeNameState:
		return p.beforeDoctypeNameStateParser
	case doctypeNameState:
		return p.doctypeNameStateParser
	case afterDoctypeNameState:
		return p.afterDoctypeNameStateParser
	case afterDoctypePublicKeywordState:
		return p.afterDoctypePublicKeywordStateParser
	case beforeDoctypePublicIdentifierState:
		return p.beforeDoctypePublicIdentifierStateParser
	case doctypePublicIdentifierDoubleQuotedState:
		return p.doctypePublicIdentifierDoubleQuotedStateParser
	case doctypePublicIdentifierSingleQuotedState:
		return p.doctypePublicIdentifierSingleQuotedStateParser
	case afterDoctypePublicIdentifierState:
		return p.afterDoctypePublicIdentifierStateParser
	case betweenDoctypePublicAndSystemIdentifiersState:
		return p.betweenDoctypePublicAndSystemIdentifiersStateParser
	case afterDoctypeSystemKeywordState:
		return p.afterDoctypeSystemKeywordStateParser
	case beforeDoctypeSystemIdentifierState:
		return p.beforeDoctypeSystemIdentifierStateParser
	case doctypeSystemIdentifierDoubleQuotedState:
		return p.doctypeSystemIdentifierDoubleQuotedStateParser
	case doctypeSystemIdentifierSingleQuotedState:
		return p.doctypeSystemIdentifierSingleQuotedStateParser
	case afterDoctypeSystemIdentifierState:
		return p.afterDoctypeSystemIdentifierStateParser
	case bogusDoctypeState:
		return p.bogusDoctypeStateParser
	case cdataSectionState:
		return p.cdataSectionStateParser
	case cdataSectionBracketState:
		return p.cdataSectionBracketStateParser
	case cdataSectionEndState:
		return p.cdataSectionEndStateParser
	case characterReferenceState:
		return p.characterReferenceStateParser
	case namedCharacterReferenceState:
		return p.namedCharacterReferenceStateParser
	case ambiguousAmpersandState:
		return p.ambiguousAmpersandStateParser
	case numericCharacterReferenceState:
		return p.numericCharacterReferenceStateParser
	case hexadecimalCharacterReferenceStartState:
		return p.hexadecimalCharacterReferenceStartStateParser
	case decimalCharacterReferenceStartState:
		return p.decimalCharacterReferenceStartStateParser
	case hexadecimalCharacterReferenceState:
		return p.hexadecimalCharacterReferenceStateParser
	case decimalCharacterReferenceState:
		return p.decimalCharacterReferenceStateParser
	}

	return nil
}

func wasConsumedByAttribute(returnState tokenizerState) bool {
	switch returnState {
	case attributeValueDoubleQuotedState, attributeValueSingleQuotedState, attributeValueUnquotedState:
		return true
	}
	return false
}

func (p *HTMLTokenizer) flushCodePointsAsCharacterReference() {
	if wasConsumedByAttribute(p.returnState) {
		p.tokenBuilder.WriteAttributeValueString(p.tokenBuilder.TempBuffer())
	} else {
		p.emitString(p.tokenBuilder.TempBuffer())
	}
}

func (p *HTMLTokenizer) isApprEndTagToken() bool {
	return p.lastEmittedStartTagName != "" && p.lastEmittedStartTagName == p.tokenBuilder.TagName()
}

// emitChar buffers character data; consecutive characters leave the
// tokenizer as a single character token.
func (p *HTMLTokenizer) emitChar(r rune) {
	p.text.WriteRune(r)
}

func (p *HTMLTokenizer) emitString(s string) {
	p.text.WriteString(s)
}

// emitNull emits a U+0000 on its own so the tree builder can apply the rules
// for NULL characters without scanning every run of text.
func (p *HTMLTokenizer) emitNull() {
	p.flushText()
	p.emittedTokens = append(p.emittedTokens, p.tokenBuilder.CharacterToken("\u0000"))
}

func (p *HTMLTokenizer) flushText() {
	if p.text.Len() == 0 {
		return
	}
	p.emittedTokens = append(p.emittedTokens, p.tokenBuilder.CharacterToken(p.text.String()))
	p.text.Reset()
}

func (p *HTMLTokenizer) emit(tokens ...Token) {
	p.flushText()
	for _, token := range tokens {
		if token.TokenType == startTagToken {
			p.lastEmittedStartTagName = token.TagName
		}
		p.emittedTokens = append(p.emittedTokens, token)
	}
}

func (p *HTMLTokenizer) emitEOF() {
	p.emit(p.tokenBuilder.EndOfFileToken())
}

// drain hands the emitted tokens to the tree builder, applying the tokenizer
// state changes it asks for.
func (p *HTMLTokenizer) drain() {
	for len(p.emittedTokens) > 0 {
		token := p.emittedTokens[0]
		p.emittedTokens = p.emittedTokens[1:]
		if p.debug {
			p.log.Debugf("[TOKEN] %s %q state: %d", token.TokenType, token.TagName+token.Data, p.currentState)
		}
		if p.tokenHandler != nil {
			if progress := p.tokenHandler(&token); progress != nil {
				p.foreignContent = progress.ForeignContent
				if progress.TokenizerState != nil {
					p.currentState = *progress.TokenizerState
				}
			}
		}
		if token.TokenType == endOfFileToken {
			p.done = true
			p.emittedTokens = nil
			return
		}
	}
}

func (p *HTMLTokenizer) emitCurrentTag() tokenizerState {
	switch p.tokenBuilder.curTagType {
	case startTag:
		p.emit(p.tokenBuilder.StartTagToken())
	case endTag:
		p.tokenBuilder.CommitAttribute()
		if len(p.tokenBuilder.attributes) > 0 {
			p.parseErr(errEndTagWithAttributes)
		}
		if p.tokenBuilder.selfClosing {
			p.parseErr(errEndTagWithTrailingSolidus)
		}
		p.emit(p.tokenBuilder.EndTagToken())
	}

	return dataState
}

func (p *HTMLTokenizer) emitCurrentComment() {
	p.emit(p.tokenBuilder.CommentToken())
}

func (p *HTMLTokenizer) emitCurrentDoctype() {
	p.emit(p.tokenBuilder.DocTypeToken())
}

func (p *HTMLTokenizer) startTag(kind tagType) {
	p.tokenBuilder.Reset()
	p.tokenBuilder.curTagType = kind
}

func (p *HTMLTokenizer) dataStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '&':
		p.returnState = dataState
		return false, characterReferenceState
	case '<':
		return false, tagOpenState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitNull()
		return false, dataState
	default:
		p.emitChar(r)
		return false, dataState
	}
}

func (p *HTMLTokenizer) rcDataStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.emitEOF()
		return false, rcDataState
	}
	switch r {
	case '&':
		p.returnState = rcDataState
		return false, characterReferenceState
	case '<':
		return false, rcDataLessThanSignState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
		return false, rcDataState
	default:
		p.emitChar(r)
		return false, rcDataState
	}
}

func (p *HTMLTokenizer) rawTextStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.emitEOF()
		return false, rawTextState
	}
	switch r {
	case '<':
		return false, rawTextLessThanSignState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
		return false, rawTextState
	default:
		p.emitChar(r)
		return false, rawTextState
	}
}

func (p *HTMLTokenizer) scriptDataStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.emitEOF()
		return false, scriptDataState
	}
	switch r {
	case '<':
		return false, scriptDataLessThanSignState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
		return false, scriptDataState
	default:
		p.emitChar(r)
		return false, scriptDataState
	}
}

func (p *HTMLTokenizer) plaintextStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.emitEOF()
		return false, plaintextState
	}
	switch r {
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, plaintextState
}

func (p *HTMLTokenizer) tagOpenStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFBeforeTagName)
		p.emitChar('<')
		p.emitEOF()
		return false, dataState
	}
	switch {
	case r == '!':
		return false, markupDeclarationOpenState
	case r == '/':
		return false, endTagOpenState
	case isASCIIAlpha(r):
		p.startTag(startTag)
		return true, tagNameState
	case r == '?':
		p.parseErr(errUnexpectedQuestionMarkInsteadOfTagName)
		p.tokenBuilder.Reset()
		return true, bogusCommentState
	default:
		p.parseErr(errInvalidFirstCharacterOfTagName)
		p.emitChar('<')
		return true, dataState
	}
}

func (p *HTMLTokenizer) endTagOpenStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFBeforeTagName)
		p.emitString("</")
		p.emitEOF()
		return false, dataState
	}
	switch {
	case isASCIIAlpha(r):
		p.startTag(endTag)
		return true, tagNameState
	case r == '>':
		p.parseErr(errMissingEndTagName)
		return false, dataState
	default:
		p.parseErr(errInvalidFirstCharacterOfTagName)
		p.tokenBuilder.Reset()
		return true, bogusCommentState
	}
}

func (p *HTMLTokenizer) tagNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ': // tab, line feed, form feed, space
		return false, beforeAttributeNameState
	case '/':
		return false, selfClosingStartTagState
	case '>':
		return false, p.emitCurrentTag()
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteName('�')
		return false, tagNameState
	default:
		p.tokenBuilder.WriteName(toASCIILower(r))
		return false, tagNameState
	}
}

// lessThanSign, endTagOpen and endTagName share their shape across the
// RCDATA, RAWTEXT, script data and escaped script data states; only the
// state to fall back to differs.

func (p *HTMLTokenizer) lessThanSign(r rune, eof bool, endTagOpen, fallback tokenizerState) (bool, tokenizerState) {
	if !eof && r == '/' {
		p.tokenBuilder.ResetTempBuffer()
		return false, endTagOpen
	}
	p.emitChar('<')
	return true, fallback
}

func (p *HTMLTokenizer) endTagOpen(r rune, eof bool, endTagName, fallback tokenizerState) (bool, tokenizerState) {
	if !eof && isASCIIAlpha(r) {
		p.startTag(endTag)
		return true, endTagName
	}
	p.emitString("</")
	return true, fallback
}

func (p *HTMLTokenizer) endTagName(r rune, eof bool, self, fallback tokenizerState) (bool, tokenizerState) {
	if !eof {
		switch {
		case isASCIIWhitespace(r) && r != '\r':
			if p.isApprEndTagToken() {
				return false, beforeAttributeNameState
			}
		case r == '/':
			if p.isApprEndTagToken() {
				return false, selfClosingStartTagState
			}
		case r == '>':
			if p.isApprEndTagToken() {
				return false, p.emitCurrentTag()
			}
		case isASCIIAlpha(r):
			p.tokenBuilder.WriteName(toASCIILower(r))
			p.tokenBuilder.WriteTempBuffer(r)
			return false, self
		}
	}
	p.emitString("</")
	p.emitString(p.tokenBuilder.TempBuffer())
	return true, fallback
}

func (p *HTMLTokenizer) rcDataLessThanSignStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.lessThanSign(r, eof, rcDataEndTagOpenState, rcDataState)
}

func (p *HTMLTokenizer) rcDataEndTagOpenStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagOpen(r, eof, rcDataEndTagNameState, rcDataState)
}

func (p *HTMLTokenizer) rcDataEndTagNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagName(r, eof, rcDataEndTagNameState, rcDataState)
}

func (p *HTMLTokenizer) rawTextLessThanSignStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.lessThanSign(r, eof, rawTextEndTagOpenState, rawTextState)
}

func (p *HTMLTokenizer) rawTextEndTagOpenStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagOpen(r, eof, rawTextEndTagNameState, rawTextState)
}

func (p *HTMLTokenizer) rawTextEndTagNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagName(r, eof, rawTextEndTagNameState, rawTextState)
}

func (p *HTMLTokenizer) scriptDataLessThanSignStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r == '!' {
		p.emitString("<!")
		return false, scriptDataEscapeStartState
	}
	return p.lessThanSign(r, eof, scriptDataEndTagOpenState, scriptDataState)
}

func (p *HTMLTokenizer) scriptDataEndTagOpenStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagOpen(r, eof, scriptDataEndTagNameState, scriptDataState)
}

func (p *HTMLTokenizer) scriptDataEndTagNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagName(r, eof, scriptDataEndTagNameState, scriptDataState)
}

func (p *HTMLTokenizer) scriptDataEscapeStartStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r == '-' {
		p.emitChar('-')
		return false, scriptDataEscapeStartDashState
	}
	return true, scriptDataState
}

func (p *HTMLTokenizer) scriptDataEscapeStartDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r == '-' {
		p.emitChar('-')
		return false, scriptDataEscapedDashDashState
	}
	return true, scriptDataState
}

func (p *HTMLTokenizer) scriptDataEscapedStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataEscapedDashState
	case '<':
		return false, scriptDataEscapedLessThanSignState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataEscapedState
}

func (p *HTMLTokenizer) scriptDataEscapedDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataEscapedDashDashState
	case '<':
		return false, scriptDataEscapedLessThanSignState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataEscapedState
}

func (p *HTMLTokenizer) scriptDataEscapedDashDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataEscapedDashDashState
	case '<':
		return false, scriptDataEscapedLessThanSignState
	case '>':
		p.emitChar('>')
		return false, scriptDataState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataEscapedState
}

func (p *HTMLTokenizer) scriptDataEscapedLessThanSignStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && isASCIIAlpha(r) {
		p.tokenBuilder.ResetTempBuffer()
		p.emitChar('<')
		return true, scriptDataDoubleEscapeStartState
	}
	return p.lessThanSign(r, eof, scriptDataEscapedEndTagOpenState, scriptDataEscapedState)
}

func (p *HTMLTokenizer) scriptDataEscapedEndTagOpenStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagOpen(r, eof, scriptDataEscapedEndTagNameState, scriptDataEscapedState)
}

func (p *HTMLTokenizer) scriptDataEscapedEndTagNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.endTagName(r, eof, scriptDataEscapedEndTagNameState, scriptDataEscapedState)
}

// doubleEscapeBoundary drives the two states that decide whether a "script"
// tag name switches in or out of double escaping.
func (p *HTMLTokenizer) doubleEscapeBoundary(r rune, eof bool, self, onScript, otherwise tokenizerState) (bool, tokenizerState) {
	if eof {
		return true, otherwise
	}
	switch {
	case r == '\u0009', r == '\u000A', r == '\u000C', r == ' ', r == '/', r == '>':
		p.emitChar(r)
		if p.tokenBuilder.TempBuffer() == "script" {
			return false, onScript
		}
		return false, otherwise
	case isASCIIAlpha(r):
		p.tokenBuilder.WriteTempBuffer(toASCIILower(r))
		p.emitChar(r)
		return false, self
	default:
		return true, otherwise
	}
}

func (p *HTMLTokenizer) scriptDataDoubleEscapeStartStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.doubleEscapeBoundary(r, eof, scriptDataDoubleEscapeStartState, scriptDataDoubleEscapedState, scriptDataEscapedState)
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataDoubleEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataDoubleEscapedDashState
	case '<':
		p.emitChar('<')
		return false, scriptDataDoubleEscapedLessThanSignState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataDoubleEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataDoubleEscapedDashDashState
	case '<':
		p.emitChar('<')
		return false, scriptDataDoubleEscapedLessThanSignState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedDashDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInScriptHTMLCommentLikeText)
		p.emitEOF()
		return false, scriptDataDoubleEscapedState
	}
	switch r {
	case '-':
		p.emitChar('-')
		return false, scriptDataDoubleEscapedDashDashState
	case '<':
		p.emitChar('<')
		return false, scriptDataDoubleEscapedLessThanSignState
	case '>':
		p.emitChar('>')
		return false, scriptDataState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.emitChar('�')
	default:
		p.emitChar(r)
	}
	return false, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapedLessThanSignStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r == '/' {
		p.tokenBuilder.ResetTempBuffer()
		p.emitChar('/')
		return false, scriptDataDoubleEscapeEndState
	}
	return true, scriptDataDoubleEscapedState
}

func (p *HTMLTokenizer) scriptDataDoubleEscapeEndStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.doubleEscapeBoundary(r, eof, scriptDataDoubleEscapeEndState, scriptDataEscapedState, scriptDataDoubleEscapedState)
}

func (p *HTMLTokenizer) beforeAttributeNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return true, afterAttributeNameState
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeAttributeNameState
	case '/', '>':
		return true, afterAttributeNameState
	case '=':
		p.parseErr(errUnexpectedEqualsSignBeforeAttributeName)
		p.tokenBuilder.StartAttribute()
		p.tokenBuilder.WriteAttributeName(r)
		return false, attributeNameState
	default:
		p.tokenBuilder.StartAttribute()
		return true, attributeNameState
	}
}

func (p *HTMLTokenizer) leaveAttributeName() {
	if p.tokenBuilder.RemoveDuplicateAttributeName() {
		p.parseErr(errDuplicateAttribute)
	}
}

func (p *HTMLTokenizer) attributeNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.leaveAttributeName()
		return true, afterAttributeNameState
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ', '/', '>':
		p.leaveAttributeName()
		return true, afterAttributeNameState
	case '=':
		p.leaveAttributeName()
		return false, beforeAttributeValueState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteAttributeName('�')
	case '"', '\'', '<':
		p.parseErr(errUnexpectedCharacterInAttributeName)
		p.tokenBuilder.WriteAttributeName(r)
	default:
		p.tokenBuilder.WriteAttributeName(toASCIILower(r))
	}
	return false, attributeNameState
}

func (p *HTMLTokenizer) afterAttributeNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, afterAttributeNameState
	case '/':
		return false, selfClosingStartTagState
	case '=':
		return false, beforeAttributeValueState
	case '>':
		return false, p.emitCurrentTag()
	default:
		p.tokenBuilder.StartAttribute()
		return true, attributeNameState
	}
}

func (p *HTMLTokenizer) beforeAttributeValueStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return true, attributeValueUnquotedState
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeAttributeValueState
	case '"':
		return false, attributeValueDoubleQuotedState
	case '\'':
		return false, attributeValueSingleQuotedState
	case '>':
		p.parseErr(errMissingAttributeValue)
		return false, p.emitCurrentTag()
	default:
		return true, attributeValueUnquotedState
	}
}

func (p *HTMLTokenizer) quotedAttributeValue(r rune, eof bool, quote rune, self tokenizerState) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case quote:
		return false, afterAttributeValueQuotedState
	case '&':
		p.returnState = self
		return false, characterReferenceState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteAttributeValue('�')
	default:
		p.tokenBuilder.WriteAttributeValue(r)
	}
	return false, self
}

func (p *HTMLTokenizer) attributeValueDoubleQuotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.quotedAttributeValue(r, eof, '"', attributeValueDoubleQuotedState)
}

func (p *HTMLTokenizer) attributeValueSingleQuotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.quotedAttributeValue(r, eof, '\'', attributeValueSingleQuotedState)
}

func (p *HTMLTokenizer) attributeValueUnquotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeAttributeNameState
	case '&':
		p.returnState = attributeValueUnquotedState
		return false, characterReferenceState
	case '>':
		return false, p.emitCurrentTag()
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteAttributeValue('�')
	case '"', '\'', '<', '=', '`':
		p.parseErr(errUnexpectedCharacterInUnquotedAttributeValue)
		p.tokenBuilder.WriteAttributeValue(r)
	default:
		p.tokenBuilder.WriteAttributeValue(r)
	}
	return false, attributeValueUnquotedState
}

func (p *HTMLTokenizer) afterAttributeValueQuotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeAttributeNameState
	case '/':
		return false, selfClosingStartTagState
	case '>':
		return false, p.emitCurrentTag()
	default:
		p.parseErr(errMissingWhitespaceBetweenAttributes)
		return true, beforeAttributeNameState
	}
}

func (p *HTMLTokenizer) selfClosingStartTagStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInTag)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '>':
		p.tokenBuilder.EnableSelfClosing()
		return false, p.emitCurrentTag()
	default:
		p.parseErr(errUnexpectedSolidusInTag)
		return true, beforeAttributeNameState
	}
}

func (p *HTMLTokenizer) bogusCommentStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.emitCurrentComment()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '>':
		p.emitCurrentComment()
		return false, dataState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteData('�')
	default:
		p.tokenBuilder.WriteData(r)
	}
	return false, bogusCommentState
}

func (p *HTMLTokenizer) defaultMarkupDeclarationOpenStateParser() (bool, tokenizerState) {
	p.parseErr(errIncorrectlyOpenedComment)
	p.tokenBuilder.Reset()
	return true, bogusCommentState
}

// markupDeclarationOpenStateParser runs on the first character after "<!".
func (p *HTMLTokenizer) markupDeclarationOpenStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.defaultMarkupDeclarationOpenStateParser()
	}

	var want string
	fold := false
	switch r {
	case '-':
		want = "-"
	case 'D', 'd':
		want, fold = "octype", true
	case '[':
		want = "CDATA["
	default:
		return p.defaultMarkupDeclarationOpenStateParser()
	}

	switch p.lookahead(want, fold) {
	case lookShort:
		return p.suspend(markupDeclarationOpenState)
	case lookMismatch:
		return p.defaultMarkupDeclarationOpenStateParser()
	}
	p.pos += len(want)

	switch r {
	case '-':
		p.tokenBuilder.Reset()
		return false, commentStartState
	case '[':
		if p.foreignContent {
			return false, cdataSectionState
		}
		p.parseErr(errCDATAInHTMLContent)
		p.tokenBuilder.Reset()
		p.tokenBuilder.WriteDataString("[CDATA[")
		return false, bogusCommentState
	default:
		return false, doctypeState
	}
}

func (p *HTMLTokenizer) commentStartStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof {
		switch r {
		case '-':
			return false, commentStartDashState
		case '>':
			p.parseErr(errAbruptClosingOfEmptyComment)
			p.emitCurrentComment()
			return false, dataState
		}
	}
	return true, commentState
}

func (p *HTMLTokenizer) commentStartDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInComment)
		p.emitCurrentComment()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '-':
		return false, commentEndState
	case '>':
		p.parseErr(errAbruptClosingOfEmptyComment)
		p.emitCurrentComment()
		return false, dataState
	default:
		p.tokenBuilder.WriteData('-')
		return true, commentState
	}
}

func (p *HTMLTokenizer) commentStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInComment)
		p.emitCurrentComment()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '<':
		p.tokenBuilder.WriteData(r)
		return false, commentLessThanSignState
	case '-':
		return false, commentEndDashState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteData('�')
	default:
		p.tokenBuilder.WriteData(r)
	}
	return false, commentState
}

func (p *HTMLTokenizer) commentLessThanSignStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof {
		switch r {
		case '!':
			p.tokenBuilder.WriteData(r)
			return false, commentLessThanSignBangState
		case '<':
			p.tokenBuilder.WriteData(r)
			return false, commentLessThanSignState
		}
	}
	return true, commentState
}

func (p *HTMLTokenizer) commentLessThanSignBangStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r == '-' {
		return false, commentLessThanSignBangDashState
	}
	return true, commentState
}

func (p *HTMLTokenizer) commentLessThanSignBangDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r == '-' {
		return false, commentLessThanSignBangDashDashState
	}
	return true, commentEndDashState
}

func (p *HTMLTokenizer) commentLessThanSignBangDashDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r != '>' {
		p.parseErr(errNestedComment)
	}
	return true, commentEndState
}

func (p *HTMLTokenizer) commentEndDashStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInComment)
		p.emitCurrentComment()
		p.emitEOF()
		return false, dataState
	}
	if r == '-' {
		return false, commentEndState
	}
	p.tokenBuilder.WriteData('-')
	return true, commentState
}

func (p *HTMLTokenizer) commentEndStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInComment)
		p.emitCurrentComment()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '>':
		p.emitCurrentComment()
		return false, dataState
	case '!':
		return false, commentEndBangState
	case '-':
		p.tokenBuilder.WriteData('-')
		return false, commentEndState
	default:
		p.tokenBuilder.WriteDataString("--")
		return true, commentState
	}
}

func (p *HTMLTokenizer) commentEndBangStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInComment)
		p.emitCurrentComment()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '-':
		p.tokenBuilder.WriteDataString("--!")
		return false, commentEndDashState
	case '>':
		p.parseErr(errIncorrectlyClosedComment)
		p.emitCurrentComment()
		return false, dataState
	default:
		p.tokenBuilder.WriteDataString("--!")
		return true, commentState
	}
}

// eofInDoctype emits the doctype being built, in quirks mode, followed by
// the end-of-file token.
func (p *HTMLTokenizer) eofInDoctype() (bool, tokenizerState) {
	p.parseErr(errEOFInDoctype)
	p.tokenBuilder.EnableForceQuirks()
	p.emitCurrentDoctype()
	p.emitEOF()
	return false, dataState
}

func (p *HTMLTokenizer) doctypeStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.tokenBuilder.Reset()
		return p.eofInDoctype()
	}
	p.tokenBuilder.Reset()
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeDoctypeNameState
	case '>':
		return true, beforeDoctypeNameState
	default:
		p.parseErr(errMissingWhitespaceBeforeDoctypeName)
		return true, beforeDoctypeNameState
	}
}

func (p *HTMLTokenizer) beforeDoctypeNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeDoctypeNameState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteName('�')
		return false, doctypeNameState
	case '>':
		p.parseErr(errMissingDoctypeName)
		p.tokenBuilder.EnableForceQuirks()
		p.emitCurrentDoctype()
		return false, dataState
	default:
		p.tokenBuilder.WriteName(toASCIILower(r))
		return false, doctypeNameState
	}
}

func (p *HTMLTokenizer) doctypeNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, afterDoctypeNameState
	case '>':
		p.emitCurrentDoctype()
		return false, dataState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		p.tokenBuilder.WriteName('�')
	default:
		p.tokenBuilder.WriteName(toASCIILower(r))
	}
	return false, doctypeNameState
}

func (p *HTMLTokenizer) afterDoctypeNameStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, afterDoctypeNameState
	case '>':
		p.emitCurrentDoctype()
		return false, dataState
	}

	var want string
	var next tokenizerState
	switch toASCIILower(r) {
	case 'p':
		want, next = "ublic", afterDoctypePublicKeywordState
	case 's':
		want, next = "ystem", afterDoctypeSystemKeywordState
	}
	if want != "" {
		switch p.lookahead(want, true) {
		case lookShort:
			return p.suspend(afterDoctypeNameState)
		case lookMatch:
			p.pos += len(want)
			return false, next
		}
	}
	p.parseErr(errInvalidCharacterSequenceAfterDoctypeName)
	p.tokenBuilder.EnableForceQuirks()
	return true, bogusDoctypeState
}

// missingQuote handles an identifier that does not start with a quote.
func (p *HTMLTokenizer) missingQuote(msg string) (bool, tokenizerState) {
	p.parseErr(msg)
	p.tokenBuilder.EnableForceQuirks()
	return true, bogusDoctypeState
}

func (p *HTMLTokenizer) missingIdentifier(msg string) (bool, tokenizerState) {
	p.parseErr(msg)
	p.tokenBuilder.EnableForceQuirks()
	p.emitCurrentDoctype()
	return false, dataState
}

func (p *HTMLTokenizer) afterDoctypePublicKeywordStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeDoctypePublicIdentifierState
	case '"':
		p.parseErr(errMissingWhitespaceAfterDoctypePublicKeyword)
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierDoubleQuotedState
	case '\'':
		p.parseErr(errMissingWhitespaceAfterDoctypePublicKeyword)
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypePublicIdentifier)
	default:
		return p.missingQuote(errMissingQuoteBeforeDoctypePublicIdentifier)
	}
}

func (p *HTMLTokenizer) beforeDoctypePublicIdentifierStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeDoctypePublicIdentifierState
	case '"':
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierDoubleQuotedState
	case '\'':
		p.tokenBuilder.StartPublicIdentifier()
		return false, doctypePublicIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypePublicIdentifier)
	default:
		return p.missingQuote(errMissingQuoteBeforeDoctypePublicIdentifier)
	}
}

func (p *HTMLTokenizer) quotedDoctypeIdentifier(r rune, eof bool, quote rune, self, after tokenizerState, public bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	write := p.tokenBuilder.WriteSystemIdentifier
	abrupt := errAbruptDoctypeSystemIdentifier
	if public {
		write = p.tokenBuilder.WritePublicIdentifier
		abrupt = errAbruptDoctypePublicIdentifier
	}
	switch r {
	case quote:
		return false, after
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
		write('�')
	case '>':
		return p.missingIdentifier(abrupt)
	default:
		write(r)
	}
	return false, self
}

func (p *HTMLTokenizer) doctypePublicIdentifierDoubleQuotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.quotedDoctypeIdentifier(r, eof, '"', doctypePublicIdentifierDoubleQuotedState, afterDoctypePublicIdentifierState, true)
}

func (p *HTMLTokenizer) doctypePublicIdentifierSingleQuotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.quotedDoctypeIdentifier(r, eof, '\'', doctypePublicIdentifierSingleQuotedState, afterDoctypePublicIdentifierState, true)
}

func (p *HTMLTokenizer) afterDoctypePublicIdentifierStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, betweenDoctypePublicAndSystemIdentifiersState
	case '>':
		p.emitCurrentDoctype()
		return false, dataState
	case '"':
		p.parseErr(errMissingWhitespaceBetweenDoctypePublicAndSystemIDs)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.parseErr(errMissingWhitespaceBetweenDoctypePublicAndSystemIDs)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	default:
		return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
	}
}

func (p *HTMLTokenizer) betweenDoctypePublicAndSystemIdentifiersStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, betweenDoctypePublicAndSystemIdentifiersState
	case '>':
		p.emitCurrentDoctype()
		return false, dataState
	case '"':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	default:
		return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
	}
}

func (p *HTMLTokenizer) afterDoctypeSystemKeywordStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeDoctypeSystemIdentifierState
	case '"':
		p.parseErr(errMissingWhitespaceAfterDoctypeSystemKeyword)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.parseErr(errMissingWhitespaceAfterDoctypeSystemKeyword)
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypeSystemIdentifier)
	default:
		return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
	}
}

func (p *HTMLTokenizer) beforeDoctypeSystemIdentifierStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, beforeDoctypeSystemIdentifierState
	case '"':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierDoubleQuotedState
	case '\'':
		p.tokenBuilder.StartSystemIdentifier()
		return false, doctypeSystemIdentifierSingleQuotedState
	case '>':
		return p.missingIdentifier(errMissingDoctypeSystemIdentifier)
	default:
		return p.missingQuote(errMissingQuoteBeforeDoctypeSystemIdentifier)
	}
}

func (p *HTMLTokenizer) doctypeSystemIdentifierDoubleQuotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.quotedDoctypeIdentifier(r, eof, '"', doctypeSystemIdentifierDoubleQuotedState, afterDoctypeSystemIdentifierState, false)
}

func (p *HTMLTokenizer) doctypeSystemIdentifierSingleQuotedStateParser(r rune, eof bool) (bool, tokenizerState) {
	return p.quotedDoctypeIdentifier(r, eof, '\'', doctypeSystemIdentifierSingleQuotedState, afterDoctypeSystemIdentifierState, false)
}

func (p *HTMLTokenizer) afterDoctypeSystemIdentifierStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		return p.eofInDoctype()
	}
	switch r {
	case '\u0009', '\u000A', '\u000C', ' ':
		return false, afterDoctypeSystemIdentifierState
	case '>':
		p.emitCurrentDoctype()
		return false, dataState
	default:
		p.parseErr(errUnexpectedCharacterAfterDoctypeSystemIdentifier)
		return true, bogusDoctypeState
	}
}

func (p *HTMLTokenizer) bogusDoctypeStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.emitCurrentDoctype()
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case '>':
		p.emitCurrentDoctype()
		return false, dataState
	case '\u0000':
		p.parseErr(errUnexpectedNullCharacter)
	}
	return false, bogusDoctypeState
}

func (p *HTMLTokenizer) cdataSectionStateParser(r rune, eof bool) (bool, tokenizerState) {
	if eof {
		p.parseErr(errEOFInCDATA)
		p.emitEOF()
		return false, dataState
	}
	switch r {
	case ']':
		return false, cdataSectionBracketState
	case '\u0000':
		p.emitNull()
	default:
		p.emitChar(r)
	}
	return false, cdataSectionState
}

func (p *HTMLTokenizer) cdataSectionBracketStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && r == ']' {
		return false, cdataSectionEndState
	}
	p.emitChar(']')
	return true, cdataSectionState
}

func (p *HTMLTokenizer) cdataSectionEndStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof {
		switch r {
		case ']':
			p.emitChar(']')
			return false, cdataSectionEndState
		case '>':
			return false, dataState
		}
	}
	p.emitString("]]")
	return true, cdataSectionState
}

func (p *HTMLTokenizer) characterReferenceStateParser(r rune, eof bool) (bool, tokenizerState) {
	p.tokenBuilder.ResetTempBuffer()
	p.tokenBuilder.WriteTempBuffer('&')
	if !eof {
		switch {
		case isASCIIAlphanumeric(r):
			return true, namedCharacterReferenceState
		case r == '#':
			p.tokenBuilder.WriteTempBuffer(r)
			return false, numericCharacterReferenceState
		}
	}
	p.flushCodePointsAsCharacterReference()
	return true, p.returnState
}

// namedCharacterReferenceStateParser runs on the first alphanumeric after
// the ampersand. It needs the whole run of alphanumerics, and the semicolon
// that may end it, before it can pick the longest matching reference.
func (p *HTMLTokenizer) namedCharacterReferenceStateParser(r rune, eof bool) (bool, tokenizerState) {
	start := p.pos - 1
	end := start
	terminated := false
	for end < len(p.input) && end-start <= longestReferenceName {
		c := p.input[end]
		if isASCIIAlphanumeric(c) {
			end++
			continue
		}
		if c == ';' {
			end++
		}
		terminated = true
		break
	}
	if !terminated && end == len(p.input) && !p.eof && end-start <= longestReferenceName {
		return p.suspend(namedCharacterReferenceState)
	}

	name := string(p.input[start:end])
	decoded, n := matchNamedReference(name)
	if n == 0 {
		p.flushCodePointsAsCharacterReference()
		return true, ambiguousAmpersandState
	}
	matched := name[:n]
	p.pos = start + n

	if !strings.HasSuffix(matched, ";") {
		if wasConsumedByAttribute(p.returnState) {
			if next, ok := p.peekRune(); ok && (next == '=' || isASCIIAlphanumeric(next)) {
				p.tokenBuilder.WriteAttributeValueString("&" + matched)
				return false, p.returnState
			}
		}
		p.parseErr(errMissingSemicolonAfterCharacterReference)
	}
	p.tokenBuilder.ResetTempBuffer()
	for _, d := range decoded {
		p.tokenBuilder.WriteTempBuffer(d)
	}
	p.flushCodePointsAsCharacterReference()
	return false, p.returnState
}

func (p *HTMLTokenizer) ambiguousAmpersandStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof {
		switch {
		case isASCIIAlphanumeric(r):
			if wasConsumedByAttribute(p.returnState) {
				p.tokenBuilder.WriteAttributeValue(r)
			} else {
				p.emitChar(r)
			}
			return false, ambiguousAmpersandState
		case r == ';':
			p.parseErr(errUnknownNamedCharacterReference)
		}
	}
	return true, p.returnState
}

func (p *HTMLTokenizer) numericCharacterReferenceStateParser(r rune, eof bool) (bool, tokenizerState) {
	p.tokenBuilder.SetCharRef(0)
	if !eof && (r == 'x' || r == 'X') {
		p.tokenBuilder.WriteTempBuffer(r)
		return false, hexadecimalCharacterReferenceStartState
	}
	return true, decimalCharacterReferenceStartState
}

func (p *HTMLTokenizer) hexadecimalCharacterReferenceStartStateParser(r rune, eof bool) (bool, tokenizerState) {
	if _, ok := hexDigitValue(r); ok && !eof {
		return true, hexadecimalCharacterReferenceState
	}
	p.parseErr(errAbsenceOfDigitsInNumericCharacterReference)
	p.flushCodePointsAsCharacterReference()
	return true, p.returnState
}

func (p *HTMLTokenizer) decimalCharacterReferenceStartStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof && isASCIIDigit(r) {
		return true, decimalCharacterReferenceState
	}
	p.parseErr(errAbsenceOfDigitsInNumericCharacterReference)
	p.flushCodePointsAsCharacterReference()
	return true, p.returnState
}

func (p *HTMLTokenizer) hexadecimalCharacterReferenceStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof {
		if v, ok := hexDigitValue(r); ok {
			p.tokenBuilder.AccumulateCharRef(16, v)
			return false, hexadecimalCharacterReferenceState
		}
		if r == ';' {
			p.finishNumericCharacterReference()
			return false, p.returnState
		}
	}
	p.parseErr(errMissingSemicolonAfterCharacterReference)
	p.finishNumericCharacterReference()
	return true, p.returnState
}

func (p *HTMLTokenizer) decimalCharacterReferenceStateParser(r rune, eof bool) (bool, tokenizerState) {
	if !eof {
		if isASCIIDigit(r) {
			p.tokenBuilder.AccumulateCharRef(10, int(r-'0'))
			return false, decimalCharacterReferenceState
		}
		if r == ';' {
			p.finishNumericCharacterReference()
			return false, p.returnState
		}
	}
	p.parseErr(errMissingSemicolonAfterCharacterReference)
	p.finishNumericCharacterReference()
	return true, p.returnState
}

// finishNumericCharacterReference is the numeric character reference end
// state. It consumes nothing so it runs inline from the digit states.
func (p *HTMLTokenizer) finishNumericCharacterReference() {
	code := p.tokenBuilder.GetCharRef()
	switch {
	case code == 0:
		p.parseErr(errNullCharacterReference)
		code = 0xFFFD
	case code > 0x10FFFF:
		p.parseErr(errCharacterReferenceOutsideUnicodeRange)
		code = 0xFFFD
	case isSurrogate(code):
		p.parseErr(errSurrogateCharacterReference)
		code = 0xFFFD
	case isNonCharacter(code):
		p.parseErr(errNoncharacterCharacterReference)
	case code == 0x0D || (isControl(code) && !isASCIIWhitespace(rune(code))):
		p.parseErr(errControlCharacterReference)
		if replacement, ok := numericCharacterReferenceEndStateTable[code]; ok {
			code = int(replacement)
		}
	}

	p.tokenBuilder.ResetTempBuffer()
	p.tokenBuilder.WriteTempBuffer(rune(code))
	p.flushCodePointsAsCharacterReference()
}

// a stateHandler is a func that takes in a rune and a bool representing the endoffile
// and returns whether to reconsume the rune and the next state to transition to.
type parserStateHandler func(in rune, eof bool) (bool, tokenizerState)

//go:generate stringer -type=tokenizerState
type tokenizerState uint

const (
	dataState tokenizerState = iota
	rcDataState
	rawTextState
	scriptDataState
	plaintextState
	tagOpenState
	endTagOpenState
	tagNameState
	rcDataLessThanSignState
	rcDataEndTagOpenState
	rcDataEndTagNameState
	rawTextLessThanSignState
	rawTextEndTagOpenState
	rawTextEndTagNameState
	scriptDataLessThanSignState
	scriptDataEndTagOpenState
	scriptDataEndTagNameState
	scriptDataEscapeStartState
	scriptDataEscapeStartDashState
	scriptDataEscapedState
	scriptDataEscapedDashState
	scriptDataEscapedDashDashState
	scriptDataEscapedLessThanSignState
	scriptDataEscapedEndTagOpenState
	scriptDataEscapedEndTagNameState
	scriptDataDoubleEscapeStartState
	scriptDataDoubleEscapedState
	scriptDataDoubleEscapedDashState
	scriptDataDoubleEscapedDashDashState
	scriptDataDoubleEscapedLessThanSignState
	scriptDataDoubleEscapeEndState
	beforeAttributeNameState
	attributeNameState
	afterAttributeNameState
	beforeAttributeValueState
	attributeValueDoubleQuotedState
	attributeValueSingleQuotedState
	attributeValueUnquotedState
	afterAttributeValueQuotedState
	selfClosingStartTagState
	bogusCommentState
	markupDeclarationOpenState
	commentStartState
	commentStartDashState
	commentState
	commentLessThanSignState
	commentLessThanSignBangState
	commentLessThanSignBangDashState
	commentLessThanSignBangDashDashState
	commentEndDashState
	commentEndState
	commentEndBangState
	doctypeState
	beforeDoctypeNameState
	doctypeNameState
	afterDoctypeNameState
	afterDoctypePublicKeywordState
	beforeDoctypePublicIdentifierState
	doctypePublicIdentifierDoubleQuotedState
	doctypePublicIdentifierSingleQuotedState
	afterDoctypePublicIdentifierState
	betweenDoctypePublicAndSystemIdentifiersState
	afterDoctypeSystemKeywordState
	beforeDoctypeSystemIdentifierState
	doctypeSystemIdentifierDoubleQuotedState
	doctypeSystemIdentifierSingleQuotedState
	afterDoctypeSystemIdentifierState
	bogusDoctypeState
	cdataSectionState
	cdataSectionBracketState
	cdataSectionEndState
	characterReferenceState
	namedCharacterReferenceState
	ambiguousAmpersandState
	numericCharacterReferenceState
	hexadecimalCharacterReferenceStartState
	decimalCharacterReferenceStartState
	hexadecimalCharacterReferenceState
	decimalCharacterReferenceState
)
