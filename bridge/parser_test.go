package bridge_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/html5bridge/bridge"
	"github.com/heathj/html5bridge/parser"
	"github.com/heathj/html5bridge/parser/dom"
)

// newParser declares cb, which should build into h, and starts a parser on
// the document of h.
func newParser(t *testing.T, h *dom.Host, cb bridge.Callbacks, opts ...bridge.Option) *bridge.Parser {
	t.Helper()
	table, err := bridge.DeclareCallbacks(cb)
	require.NoError(t, err)
	p, err := bridge.NewParser(table, 0, h.Root(), opts...)
	require.NoError(t, err)
	return p
}

func TestParserLifecycle(t *testing.T) {
	t.Parallel()
	h := dom.NewHost()
	p := newParser(t, h, h.Callbacks())

	require.NoError(t, p.Feed([]byte("<!DOCTYPE html><p>Hi")))
	require.NoError(t, p.Feed(nil))
	require.NoError(t, p.End())
	assert.Equal(t, 1, h.Leaks(), "only the root reference is left after End")

	assert.ErrorIs(t, p.Feed([]byte("x")), bridge.ErrParserEnded)
	assert.ErrorIs(t, p.End(), bridge.ErrParserEnded)

	require.NoError(t, p.Destroy())
	assert.Zero(t, h.Leaks())
	assert.ErrorIs(t, p.Destroy(), bridge.ErrParserDestroyed)
	assert.ErrorIs(t, p.Feed([]byte("x")), bridge.ErrParserDestroyed)
	assert.ErrorIs(t, p.End(), bridge.ErrParserDestroyed)

	assert.Equal(t, strings.Join([]string{
		"#document",
		"| <!DOCTYPE html>",
		"| <html>",
		"|   <head>",
		"|   <body>",
		"|     <p>",
		`|       "Hi"`,
	}, "\n"), h.Document.String())
}

func TestParserDestroyMidStream(t *testing.T) {
	t.Parallel()
	h := dom.NewHost()
	p := newParser(t, h, h.Callbacks())

	require.NoError(t, p.Feed([]byte("<table><tr><td><b><i>x")))
	assert.Greater(t, h.Leaks(), 1)
	require.NoError(t, p.Destroy())
	assert.Zero(t, h.Leaks(), "destroy gives back every open element")
}

func TestNewParserInvalidArguments(t *testing.T) {
	t.Parallel()
	h := dom.NewHost()
	table, err := bridge.DeclareCallbacks(h.Callbacks())
	require.NoError(t, err)

	_, err = bridge.NewParser(nil, 0, h.Root())
	assert.ErrorIs(t, err, bridge.ErrInvalidArgument)

	_, err = bridge.NewParser(table, 0, 0)
	assert.ErrorIs(t, err, bridge.ErrInvalidArgument)

	_, err = bridge.NewParser(table, 0, h.Root(), bridge.WithEncoding("klingon"))
	assert.ErrorIs(t, err, bridge.ErrInvalidArgument)
	assert.Equal(t, 2, h.Leaks(), "a failed NewParser leaves the root with the caller")
}

func TestDeclareCallbacksMissing(t *testing.T) {
	t.Parallel()
	cb := dom.NewHost().Callbacks()
	cb.AppendText = nil
	cb.RemoveFromParent = nil

	table, err := bridge.DeclareCallbacks(cb)
	assert.Nil(t, table)
	require.ErrorIs(t, err, bridge.ErrMissingCallback)
	assert.Contains(t, err.Error(), "AppendText")
	assert.Contains(t, err.Error(), "RemoveFromParent")

	_, err = bridge.DeclareCallbacks(bridge.Callbacks{})
	assert.ErrorIs(t, err, bridge.ErrMissingCallback)
}

func TestOptionalCallbackDefaults(t *testing.T) {
	t.Parallel()
	h := dom.NewHost()
	cb := h.Callbacks()
	cb.CloneNodeRef = nil
	cb.DestroyNodeRef = nil
	cb.SameNode = nil
	cb.ParseError = nil

	p := newParser(t, h, cb)
	require.NoError(t, p.Feed([]byte("<b><p>x</b>y")))
	require.NoError(t, p.End())
	require.NoError(t, p.Destroy())

	assert.Equal(t, strings.Join([]string{
		"#document",
		"| <html>",
		"|   <head>",
		"|   <body>",
		"|     <b>",
		"|     <p>",
		"|       <b>",
		`|         "x"`,
		`|       "y"`,
	}, "\n"), h.Document.String())
}

func TestContractViolations(t *testing.T) {
	tests := []struct {
		name     string
		sabotage func(cb *bridge.Callbacks)
		in       string
		status   bridge.Status
	}{
		{
			name: "null element",
			sabotage: func(cb *bridge.Callbacks) {
				cb.CreateElement = func(bridge.UserData, *bridge.QualifiedName) bridge.NodeRef { return 0 }
			},
			in: "<p>",
		},
		{
			name: "null comment",
			sabotage: func(cb *bridge.Callbacks) {
				cb.CreateComment = func(bridge.UserData, []byte) bridge.NodeRef { return 0 }
			},
			in: "<!-- c -->",
		},
		{
			name: "failing append",
			sabotage: func(cb *bridge.Callbacks) {
				cb.AppendNode = func(bridge.UserData, bridge.NodeRef, bridge.NodeRef) bridge.Status { return -7 }
			},
			in:     "<p>",
			status: -7,
		},
		{
			name: "failing text",
			sabotage: func(cb *bridge.Callbacks) {
				cb.AppendText = func(bridge.UserData, bridge.NodeRef, []byte) bridge.Status { return -1 }
			},
			in:     "text",
			status: -1,
		},
		{
			name: "null clone",
			sabotage: func(cb *bridge.Callbacks) {
				clone, calls := cb.CloneNodeRef, 0
				cb.CloneNodeRef = func(ud bridge.UserData, n bridge.NodeRef) bridge.NodeRef {
					// the first clone is the document, taken by NewParser
					if calls++; calls == 1 {
						return clone(ud, n)
					}
					return 0
				}
			},
			in: "<p>",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := dom.NewHost()
			cb := h.Callbacks()
			tt.sabotage(&cb)
			log, hook := logtest.NewNullLogger()
			p := newParser(t, h, cb, bridge.WithLogger(log))

			err := p.Feed([]byte(tt.in))
			if err == nil {
				err = p.End()
			}
			require.Error(t, err)
			assert.True(t, bridge.IsContractViolation(err))
			var ce *bridge.ContractError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.status, ce.Status)

			assert.ErrorIs(t, p.Feed([]byte("<p>")), bridge.ErrParserPoisoned)
			assert.ErrorIs(t, p.End(), bridge.ErrParserPoisoned)
			assert.NoError(t, p.Destroy())

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, logrus.ErrorLevel, entry.Level)
			assert.Contains(t, entry.Data, "op")
		})
	}
}

func TestCallbackPanicIsContained(t *testing.T) {
	t.Parallel()
	h := dom.NewHost()
	cb := h.Callbacks()
	cb.AppendText = func(bridge.UserData, bridge.NodeRef, []byte) bridge.Status {
		panic("boom")
	}
	log, _ := logtest.NewNullLogger()
	p := newParser(t, h, cb, bridge.WithLogger(log))

	err := p.Feed([]byte("<p>x"))
	if err == nil {
		err = p.End()
	}
	require.ErrorIs(t, err, bridge.ErrInternal)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, bridge.IsContractViolation(err))
	assert.ErrorIs(t, p.End(), bridge.ErrParserPoisoned)
	assert.NoError(t, p.Destroy())
}

func TestFeedSplitsUTF8(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		text   string
	}{
		{"split sequence", []string{"<p>caf", "\xc3", "\xa9!"}, "café!"},
		{"four bytes", []string{"<p>\xf0\x9f", "\x98", "\x80"}, "\U0001F600"},
		{"truncated at end", []string{"<p>a\xc3"}, "a\uFFFD"},
		{"invalid byte", []string{"<p>a\xffb"}, "a\uFFFDb"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := dom.NewHost()
			p := newParser(t, h, h.Callbacks())
			for _, c := range tt.chunks {
				require.NoError(t, p.Feed([]byte(c)))
			}
			require.NoError(t, p.End())
			require.NoError(t, p.Destroy())

			body := h.Document.DocumentElement().LastChild()
			require.NotNil(t, body.FirstChild())
			assert.Equal(t, tt.text, body.FirstChild().FirstChild().Text.Data)
		})
	}
}

func TestQualifiedNames(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, bridge.DestroyQualifiedName(nil), bridge.ErrInvalidArgument)

	h := dom.NewHost()
	cb := h.Callbacks()
	create := cb.CreateElement
	var kept []*bridge.QualifiedName
	cb.CreateElement = func(ud bridge.UserData, name *bridge.QualifiedName) bridge.NodeRef {
		kept = append(kept, &bridge.QualifiedName{Namespace: name.Namespace, Local: name.Local})
		return create(ud, name)
	}
	p := newParser(t, h, cb)
	require.NoError(t, p.Feed([]byte("<svg>")))
	require.NoError(t, p.End())
	require.NoError(t, p.Destroy())

	require.Len(t, kept, 4)
	assert.Equal(t, string(parser.HTMLNamespace), kept[0].Namespace)
	assert.Equal(t, "html", kept[0].Local)
	assert.Equal(t, string(parser.SVGNamespace), kept[3].Namespace)
	assert.Equal(t, "svg", kept[3].Local)

	name := kept[3]
	require.NoError(t, bridge.DestroyQualifiedName(name))
	assert.True(t, name.Destroyed())
	assert.ErrorIs(t, bridge.DestroyQualifiedName(name), bridge.ErrNameDestroyed)
}

func TestParserQuirksMode(t *testing.T) {
	t.Parallel()
	h := dom.NewHost()
	p := newParser(t, h, h.Callbacks())
	assert.Equal(t, parser.NoQuirks, p.QuirksMode())
	require.NoError(t, p.Feed([]byte("<p>")))
	assert.Equal(t, parser.Quirks, p.QuirksMode())
	require.NoError(t, p.Destroy())
}

func TestSharedTable(t *testing.T) {
	t.Parallel()
	var hosts [2]*dom.Host
	for i := range hosts {
		hosts[i] = dom.NewHost()
	}
	at := func(ud bridge.UserData) bridge.Callbacks { return hosts[ud].Callbacks() }
	table, err := bridge.DeclareCallbacks(bridge.Callbacks{
		CloneNodeRef:   func(ud bridge.UserData, n bridge.NodeRef) bridge.NodeRef { return at(ud).CloneNodeRef(ud, n) },
		DestroyNodeRef: func(ud bridge.UserData, n bridge.NodeRef) bridge.Status { return at(ud).DestroyNodeRef(ud, n) },
		CreateElement: func(ud bridge.UserData, name *bridge.QualifiedName) bridge.NodeRef {
			return at(ud).CreateElement(ud, name)
		},
		GetTemplateContents: func(ud bridge.UserData, n bridge.NodeRef) bridge.NodeRef {
			return at(ud).GetTemplateContents(ud, n)
		},
		AddAttributeIfMissing: func(ud bridge.UserData, el bridge.NodeRef, ns, local, value []byte) bridge.Status {
			return at(ud).AddAttributeIfMissing(ud, el, ns, local, value)
		},
		CreateComment: func(ud bridge.UserData, text []byte) bridge.NodeRef { return at(ud).CreateComment(ud, text) },
		AppendDoctypeToDocument: func(ud bridge.UserData, name, pub, sys []byte) bridge.Status {
			return at(ud).AppendDoctypeToDocument(ud, name, pub, sys)
		},
		AppendNode: func(ud bridge.UserData, parent, child bridge.NodeRef) bridge.Status {
			return at(ud).AppendNode(ud, parent, child)
		},
		AppendText: func(ud bridge.UserData, parent bridge.NodeRef, text []byte) bridge.Status {
			return at(ud).AppendText(ud, parent, text)
		},
		InsertNodeBeforeSibling: func(ud bridge.UserData, sibling, node bridge.NodeRef) bridge.Status {
			return at(ud).InsertNodeBeforeSibling(ud, sibling, node)
		},
		InsertTextBeforeSibling: func(ud bridge.UserData, sibling bridge.NodeRef, text []byte) bridge.Status {
			return at(ud).InsertTextBeforeSibling(ud, sibling, text)
		},
		ReparentChildren: func(ud bridge.UserData, node, parent bridge.NodeRef) bridge.Status {
			return at(ud).ReparentChildren(ud, node, parent)
		},
		RemoveFromParent: func(ud bridge.UserData, node bridge.NodeRef) bridge.Status {
			return at(ud).RemoveFromParent(ud, node)
		},
	})
	require.NoError(t, err)

	inputs := [2]string{"<p>one", "<ul><li>two"}
	done := make(chan error, len(hosts))
	for i := range hosts {
		go func(i int) {
			p, err := bridge.NewParser(table, bridge.UserData(i), hosts[i].Root())
			if err == nil {
				if err = p.Feed([]byte(inputs[i])); err == nil {
					err = p.End()
				}
				if derr := p.Destroy(); err == nil {
					err = derr
				}
			}
			done <- err
		}(i)
	}
	for range hosts {
		require.NoError(t, <-done)
	}
	assert.Contains(t, hosts[0].Document.String(), `"one"`)
	assert.Contains(t, hosts[1].Document.String(), `"two"`)
	for _, h := range hosts {
		assert.Zero(t, h.Leaks())
	}
}

// eventLog wraps the callbacks of a host and records the tree operations
// they receive, naming nodes by element name.
type eventLog struct {
	labels     map[bridge.NodeRef]string
	events     []string
	rootClones []bridge.NodeRef
}

func (l *eventLog) add(format string, args ...interface{}) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func recordEvents(cb bridge.Callbacks, root bridge.NodeRef) (*eventLog, bridge.Callbacks) {
	l := &eventLog{labels: map[bridge.NodeRef]string{root: "#document"}}

	clone := cb.CloneNodeRef
	cb.CloneNodeRef = func(ud bridge.UserData, n bridge.NodeRef) bridge.NodeRef {
		out := clone(ud, n)
		if n == root {
			l.rootClones = append(l.rootClones, out)
		}
		return out
	}
	create := cb.CreateElement
	cb.CreateElement = func(ud bridge.UserData, name *bridge.QualifiedName) bridge.NodeRef {
		local := name.Local
		ref := create(ud, name)
		l.labels[ref] = local
		l.add("create %s", local)
		return ref
	}
	doctype := cb.AppendDoctypeToDocument
	cb.AppendDoctypeToDocument = func(ud bridge.UserData, name, publicID, systemID []byte) bridge.Status {
		l.add("doctype %q %q %q", name, publicID, systemID)
		return doctype(ud, name, publicID, systemID)
	}
	appendNode := cb.AppendNode
	cb.AppendNode = func(ud bridge.UserData, parent, child bridge.NodeRef) bridge.Status {
		l.add("append %s <- %s", l.labels[parent], l.labels[child])
		return appendNode(ud, parent, child)
	}
	appendText := cb.AppendText
	cb.AppendText = func(ud bridge.UserData, parent bridge.NodeRef, text []byte) bridge.Status {
		l.add("text %s <- %q", l.labels[parent], text)
		return appendText(ud, parent, text)
	}
	return l, cb
}

func TestParserEventOrder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		in     string
		events []string
	}{
		{
			name: "doctype and body text",
			in:   "<!doctype html><html><body>Hi</body></html>",
			events: []string{
				`doctype "html" "" ""`,
				"create html",
				"append #document <- html",
				"create head",
				"append html <- head",
				"create body",
				"append html <- body",
				`text body <- "Hi"`,
			},
		},
		{
			name: "implied elements",
			in:   "<p>x",
			events: []string{
				"create html",
				"append #document <- html",
				"create head",
				"append html <- head",
				"create body",
				"append html <- body",
				"create p",
				"append body <- p",
				`text p <- "x"`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		for _, chunk := range []int{0, 1} {
			chunk := chunk
			t.Run(fmt.Sprintf("%s/chunk %d", tt.name, chunk), func(t *testing.T) {
				t.Parallel()
				h := dom.NewHost()
				root := h.Root()
				l, cb := recordEvents(h.Callbacks(), root)
				table, err := bridge.DeclareCallbacks(cb)
				require.NoError(t, err)
				p, err := bridge.NewParser(table, 0, root)
				require.NoError(t, err)

				in := []byte(tt.in)
				if chunk == 0 {
					require.NoError(t, p.Feed(in))
				} else {
					for i := range in {
						require.NoError(t, p.Feed(in[i:i+1]))
					}
				}
				require.NoError(t, p.End())
				require.NoError(t, p.Destroy())

				assert.Equal(t, tt.events, mergeText(l.events))
				assert.Zero(t, h.Leaks())
			})
		}
	}
}

// mergeText joins consecutive text events for the same parent, since
// character data may arrive in several calls when input is fed in pieces.
func mergeText(events []string) []string {
	var out []string
	for _, e := range events {
		if n := len(out); n > 0 && strings.HasPrefix(e, "text ") && strings.HasPrefix(out[n-1], "text ") {
			prev, cur := out[n-1], e
			pi, ci := strings.Index(prev, ` <- "`), strings.Index(cur, ` <- "`)
			if prev[:pi] == cur[:ci] {
				out[n-1] = prev[:len(prev)-1] + cur[ci+len(` <- "`):]
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func TestParserDocumentIsRoot(t *testing.T) {
	t.Parallel()
	h := dom.NewHost()
	root := h.Root()
	l, cb := recordEvents(h.Callbacks(), root)
	table, err := bridge.DeclareCallbacks(cb)
	require.NoError(t, err)
	p, err := bridge.NewParser(table, 0, root)
	require.NoError(t, err)

	require.NoError(t, p.Feed([]byte("<!-- before --><p>x")))
	require.NotEmpty(t, l.rootClones, "the document is taken from the root")
	for _, ref := range l.rootClones {
		assert.Equal(t, bridge.Status(1), cb.SameNode(0, root, ref))
	}
	require.NoError(t, p.End())
	require.NoError(t, p.Destroy())
	assert.Zero(t, h.Leaks())
	assert.Equal(t, "| <!--  before  -->", strings.Split(h.Document.String(), "\n")[1])
}

func TestDestroyAfterFailedRelease(t *testing.T) {
	tests := []struct {
		name   string
		failAt int
		end    bool
		// failedIn is the call that reports the violation.
		failedIn string
	}{
		{name: "during feed", failAt: 1, end: true, failedIn: "feed"},
		{name: "during end", failAt: 4, end: true, failedIn: "end"},
		{name: "during destroy", failAt: 4, failedIn: "destroy"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := dom.NewHost()
			cb := h.Callbacks()
			destroy, calls := cb.DestroyNodeRef, 0
			cb.DestroyNodeRef = func(ud bridge.UserData, n bridge.NodeRef) bridge.Status {
				// the host gives the reference back but reports a failure
				st := destroy(ud, n)
				if calls++; calls == tt.failAt {
					return -5
				}
				return st
			}
			log, _ := logtest.NewNullLogger()
			p := newParser(t, h, cb, bridge.WithLogger(log))

			feedErr := p.Feed([]byte("<p><b>x"))
			var endErr error
			if tt.end {
				endErr = p.End()
			}
			destroyErr := p.Destroy()

			errs := map[string]error{"feed": feedErr, "end": endErr, "destroy": destroyErr}
			for stage, err := range errs {
				switch {
				case stage == tt.failedIn:
					assert.True(t, bridge.IsContractViolation(err), "%s: %v", stage, err)
				case stage == "end" && tt.failedIn == "feed":
					assert.ErrorIs(t, err, bridge.ErrParserPoisoned)
				default:
					assert.NoError(t, err, stage)
				}
			}
			assert.Zero(t, h.Leaks(), "every reference is given back once")
			assert.ErrorIs(t, p.Destroy(), bridge.ErrParserDestroyed)
		})
	}
}
