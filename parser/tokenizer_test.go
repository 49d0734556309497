package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenRecorder collects the tokens and errors of one tokenizer run.
type tokenRecorder struct {
	tokens  []Token
	errs    []string
	foreign map[string]bool
}

func (r *tokenRecorder) handle(t *Token) *Progress {
	r.tokens = append(r.tokens, *t)
	if t.TokenType == startTagToken && r.foreign[t.TagName] {
		return &Progress{ForeignContent: true}
	}
	return nil
}

// tokenize feeds in to a new tokenizer chunkSize runes at a time, or all
// at once when chunkSize is zero, and merges adjacent character tokens so
// runs are comparable across chunkings.
func tokenize(in string, chunkSize int, setup func(*HTMLTokenizer), foreign ...string) *tokenRecorder {
	r := &tokenRecorder{foreign: map[string]bool{}}
	for _, name := range foreign {
		r.foreign[name] = true
	}
	p := NewHTMLTokenizer(r.handle, func(msg string) { r.errs = append(r.errs, msg) }, nil)
	if setup != nil {
		setup(p)
	}

	runes := []rune(in)
	if chunkSize <= 0 {
		chunkSize = len(runes) + 1
	}
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		p.Feed(string(runes[i:end]))
	}
	p.End()

	var merged []Token
	for _, t := range r.tokens {
		if n := len(merged); n > 0 && t.TokenType == characterToken && merged[n-1].TokenType == characterToken {
			merged[n-1].Data += t.Data
			continue
		}
		merged = append(merged, t)
	}
	r.tokens = merged
	return r
}

var chunkSizes = []int{0, 1, 2, 7}

type tokenizerAttributeAccuracyTestcase struct {
	inHTML string            // snippet of HTML to tokenize (should only be one element)
	attrs  map[string]string // expected attributes to collected from the first token that is produced
}

var tokenizerAttributeAccuracyTests = []tokenizerAttributeAccuracyTestcase{
	{"<head></head>", map[string]string{}},
	{"<script src='123' onload='test'></script>", map[string]string{
		"src":    "123",
		"onload": "test",
	}},
	{"<a href='https://google.com' onclick='alert(1)'>Click this</a>", map[string]string{
		"href":    "https://google.com",
		"onclick": "alert(1)",
	}},
	{"<script src='123' src='456'></script>", map[string]string{
		"src": "123",
	}},
	{"<script src=123 onload=test></script>", map[string]string{
		"src":    "123",
		"onload": "test",
	}},
	{"<script =src='123'onload='test' ></script>", map[string]string{
		"=src":   "123",
		"onload": "test",
	}},
	{"<script src test></script>", map[string]string{
		"src":  "",
		"test": "",
	}},
	{"<script <asd></script>", map[string]string{
		"<asd": "",
	}},
	{"<script ABC=123></script>", map[string]string{
		"abc": "123",
	}},
	{"<script abc='\u0000123'></script>", map[string]string{
		"abc": "\uFFFD123",
	}},
	{"<script abc=></script>", map[string]string{
		"abc": "",
	}},
	{"<a href='?a=1&amp;b=2&copy=3'>", map[string]string{
		"href": "?a=1&b=2&copy=3",
	}},
}

// TestTokenizerAttributeAccuracy makes sure that we have the correct
// attribute names and values on the first token.
func TestTokenizerAttributeAccuracy(t *testing.T) {
	for _, tt := range tokenizerAttributeAccuracyTests {
		tt := tt
		t.Run(tt.inHTML, func(t *testing.T) {
			t.Parallel()
			for _, size := range chunkSizes {
				r := tokenize(tt.inHTML, size, nil)
				require.NotEmpty(t, r.tokens)
				first := r.tokens[0]
				require.Equal(t, startTagToken, first.TokenType)
				assert.Len(t, first.Attributes, len(tt.attrs), "chunk size %d", size)
				for k, v := range tt.attrs {
					got, ok := first.Attr(k)
					assert.True(t, ok, "attribute %q missing", k)
					assert.Equal(t, v, got, "attribute %q", k)
				}
			}
		})
	}
}

func TestTokenizerTokens(t *testing.T) {
	tests := []struct {
		in     string
		tokens []Token
	}{
		{"<!DOCTYPE html>", []Token{
			{TokenType: docTypeToken, TagName: "html"},
		}},
		{`<!DOCTYPE html PUBLIC "pub" 'sys'>`, []Token{
			{TokenType: docTypeToken, TagName: "html", PublicIdentifier: "pub", SystemIdentifier: "sys",
				HasPublicIdentifier: true, HasSystemIdentifier: true},
		}},
		{"<!DOCTYPE>", []Token{
			{TokenType: docTypeToken, ForceQuirks: true},
		}},
		{"<!-- hi -->", []Token{
			{TokenType: commentToken, Data: " hi "},
		}},
		{"a&amp;b&lt;&#x41;&#66;", []Token{
			{TokenType: characterToken, Data: "a&b<AB"},
		}},
		{"x &amp y", []Token{
			{TokenType: characterToken, Data: "x & y"},
		}},
		{"&#0;&#x80;", []Token{
			{TokenType: characterToken, Data: "\uFFFD\u20AC"},
		}},
		{"a\r\nb\rc", []Token{
			{TokenType: characterToken, Data: "a\nb\nc"},
		}},
		{"<br/></p>", []Token{
			{TokenType: startTagToken, TagName: "br", SelfClosing: true},
			{TokenType: endTagToken, TagName: "p"},
		}},
		{"<?php x ?>", []Token{
			{TokenType: commentToken, Data: "?php x ?"},
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			for _, size := range chunkSizes {
				r := tokenize(tt.in, size, nil)
				want := append(append([]Token(nil), tt.tokens...), Token{TokenType: endOfFileToken})
				require.Len(t, r.tokens, len(want), "chunk size %d", size)
				for i := range want {
					got := r.tokens[i]
					assert.Equal(t, want[i].TokenType, got.TokenType)
					assert.Equal(t, want[i].TagName, got.TagName)
					assert.Equal(t, want[i].Data, got.Data)
					assert.Equal(t, want[i].SelfClosing, got.SelfClosing)
					assert.Equal(t, want[i].ForceQuirks, got.ForceQuirks)
					assert.Equal(t, want[i].PublicIdentifier, got.PublicIdentifier)
					assert.Equal(t, want[i].SystemIdentifier, got.SystemIdentifier)
					assert.Equal(t, want[i].HasPublicIdentifier, got.HasPublicIdentifier)
					assert.Equal(t, want[i].HasSystemIdentifier, got.HasSystemIdentifier)
				}
			}
		})
	}
}

func TestTokenizerTextStates(t *testing.T) {
	tests := []struct {
		name  string
		state tokenizerState
		tag   string
		in    string
		text  string
	}{
		{"rcdata", rcDataState, "title", "a&amp;<b></title>", "a&<b>"},
		{"rawtext", rawTextState, "style", "a&amp;<b></x></style>", "a&amp;<b></x>"},
		{"script", scriptDataState, "script", "if (a<b) {}<!--</script>", "if (a<b) {}<!--"},
		{"plaintext", plaintextState, "plaintext", "</plaintext>", "</plaintext>"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for _, size := range chunkSizes {
				r := tokenize(tt.in, size, func(p *HTMLTokenizer) {
					p.currentState = tt.state
					p.lastEmittedStartTagName = tt.tag
				})
				require.NotEmpty(t, r.tokens)
				assert.Equal(t, characterToken, r.tokens[0].TokenType)
				assert.Equal(t, tt.text, r.tokens[0].Data, "chunk size %d", size)
				if tt.state != plaintextState {
					require.Len(t, r.tokens, 3)
					assert.Equal(t, endTagToken, r.tokens[1].TokenType)
					assert.Equal(t, tt.tag, r.tokens[1].TagName)
				}
			}
		})
	}
}

func TestTokenizerCDATA(t *testing.T) {
	t.Parallel()
	r := tokenize("<svg><![CDATA[x<y]]>", 0, nil, "svg")
	require.Len(t, r.tokens, 3)
	assert.Equal(t, "x<y", r.tokens[1].Data)
	assert.Equal(t, characterToken, r.tokens[1].TokenType)
	assert.Empty(t, r.errs)

	r = tokenize("<div><![CDATA[x]]>", 0, nil, "svg")
	require.Len(t, r.tokens, 3)
	assert.Equal(t, commentToken, r.tokens[1].TokenType)
	assert.Equal(t, "[CDATA[x]]", r.tokens[1].Data)
	assert.Contains(t, r.errs, errCDATAInHTMLContent)
}

func TestTokenizerErrors(t *testing.T) {
	tests := []struct {
		in  string
		err string
	}{
		{"<p a a>", errDuplicateAttribute},
		{"</p x=1>", errEndTagWithAttributes},
		{"&#0;", errNullCharacterReference},
		{"<!-->", errAbruptClosingOfEmptyComment},
		{"<p", errEOFInTag},
		{"a\u0000", errUnexpectedNullCharacter},
		{"</>", errMissingEndTagName},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			for _, size := range chunkSizes {
				r := tokenize(tt.in, size, nil)
				assert.Contains(t, r.errs, tt.err, "chunk size %d", size)
			}
		})
	}
}

func TestTokenizerEnd(t *testing.T) {
	t.Parallel()
	var tokens []Token
	p := NewHTMLTokenizer(func(t *Token) *Progress {
		tokens = append(tokens, *t)
		return nil
	}, nil, nil)

	p.Feed("<p>a")
	assert.False(t, p.Done())
	p.End()
	assert.True(t, p.Done())
	count := len(tokens)
	assert.Equal(t, endOfFileToken, tokens[count-1].TokenType)

	p.Feed("<b>")
	p.End()
	assert.Len(t, tokens, count, "input after the end is ignored")
	assert.Equal(t, "a", strings.TrimSpace(tokens[1].Data))
}
