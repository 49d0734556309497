package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/html5bridge/bridge"
)

func TestRender(t *testing.T) {
	tests := []struct {
		in        string
		scripting bool
		out       string
	}{
		{
			in:  `<!DOCTYPE html><p class="a&amp;b">x &lt; y<br></p>`,
			out: `<!DOCTYPE html><html><head></head><body><p class="a&amp;b">x &lt; y<br></p></body></html>`,
		},
		{
			in:  `<script>a<b</script>`,
			out: `<html><head><script>a<b</script></head><body></body></html>`,
		},
		{
			in:  `<p title='"'>&nbsp;</p><!--c-->`,
			out: `<html><head></head><body><p title="&quot;">&nbsp;</p><!--c--></body></html>`,
		},
		{
			in:  `<template><b>x</b></template>`,
			out: `<html><head><template><b>x</b></template></head><body></body></html>`,
		},
		{
			in:        `<noscript>a&lt;</noscript>`,
			scripting: true,
			out:       `<html><head><noscript>a&lt;</noscript></head><body></body></html>`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			doc, err := ParseString(tt.in, bridge.WithScripting(tt.scripting))
			require.NoError(t, err)
			var b strings.Builder
			require.NoError(t, Render(&b, doc, tt.scripting))
			assert.Equal(t, tt.out, b.String())
		})
	}
}

func TestTreePrint(t *testing.T) {
	t.Parallel()
	doc, err := ParseString(`<!DOCTYPE html><svg><g></g></svg>Hi<!--c-->`)
	require.NoError(t, err)

	out := TreePrint(doc)
	for _, want := range []string{"#document", "<!DOCTYPE html>", "<html>", "<svg svg>", "<svg g>", `"Hi"`, "<!-- c -->"} {
		assert.Contains(t, out, want)
	}
}

func TestNodeString(t *testing.T) {
	t.Parallel()
	doc := NewDocument()
	doc.AppendChild(NewDocTypeNode("html", "pub", ""))
	html := doc.AppendChild(NewElement("http://www.w3.org/1999/xhtml", "html"))
	html.SetAttributeIfMissing("", "lang", "en")
	html.SetAttributeIfMissing("http://www.w3.org/1999/xlink", "href", "#")
	html.AppendChild(NewTextNode("a"))

	assert.Equal(t, strings.Join([]string{
		"#document",
		`| <!DOCTYPE html "pub" "">`,
		"| <html>",
		`|   lang="en"`,
		`|   xlink href="#"`,
		`|   "a"`,
	}, "\n"), doc.String())
}
