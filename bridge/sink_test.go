package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/heathj/html5bridge/parser"
)

func TestSinkAppendBeforeSibling(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		text     bool
		status   Status
		inserted bool
	}{
		{name: "node without parent", status: 0},
		{name: "node inserted", status: 1, inserted: true},
		{name: "text without parent", text: true, status: 0},
		{name: "text inserted", text: true, status: 1, inserted: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			refs := map[NodeRef]int{3: 1, 4: 1}
			table := countingTable(t, refs)
			var calls int
			table.cb.InsertNodeBeforeSibling = func(_ UserData, sibling, node NodeRef) Status {
				calls++
				assert.Equal(t, NodeRef(3), sibling)
				assert.Equal(t, NodeRef(4), node)
				return tt.status
			}
			table.cb.InsertTextBeforeSibling = func(_ UserData, sibling NodeRef, text []byte) Status {
				calls++
				assert.Equal(t, NodeRef(3), sibling)
				assert.Equal(t, "x", string(text))
				return tt.status
			}
			s := &sink{table: table, log: defaultLogger()}

			sibling := wrap(table, 0, 3)
			child := parser.AppendNode(wrap(table, 0, 4))
			if tt.text {
				child = parser.AppendText[*NodeHandle]("x")
			}
			rest, inserted := s.AppendBeforeSibling(sibling, child)
			assert.Equal(t, 1, calls)
			assert.Equal(t, tt.inserted, inserted)
			assert.Equal(t, child.IsText, rest.IsText)
			assert.Equal(t, child.Text, rest.Text)
			assert.Same(t, child.Node, rest.Node, "the payload comes back untouched")
			assert.Equal(t, map[NodeRef]int{3: 1, 4: 1}, refs, "no reference changes hands")
		})
	}
}

func TestSinkAppendBeforeSiblingFailure(t *testing.T) {
	t.Parallel()
	table := countingTable(t, map[NodeRef]int{3: 1})
	table.cb.InsertTextBeforeSibling = func(UserData, NodeRef, []byte) Status { return -2 }
	s := &sink{table: table, log: defaultLogger()}

	ce := contractPanic(t, func() {
		s.AppendBeforeSibling(wrap(table, 0, 3), parser.AppendText[*NodeHandle]("x"))
	})
	assert.Equal(t, "insert_text_before_sibling", ce.Op)
	assert.Equal(t, Status(-2), ce.Status)
}

func TestSinkGetDocumentIsRoot(t *testing.T) {
	t.Parallel()
	refs := map[NodeRef]int{9: 1}
	table := countingTable(t, refs)
	table.cb.SameNode = func(_ UserData, x, y NodeRef) Status {
		if x == y {
			return 1
		}
		return 0
	}
	root := wrap(table, 0, 9)
	s := &sink{table: table, root: root, log: defaultLogger()}

	first, second := s.GetDocument(), s.GetDocument()
	assert.True(t, s.SameNode(first, root))
	assert.True(t, s.SameNode(second, root))
	assert.True(t, s.SameNode(first, second))
	assert.Equal(t, 3, refs[9], "each document handle is its own reference")

	first.Release()
	second.Release()
	root.Release()
	assert.Zero(t, refs[9])
}
