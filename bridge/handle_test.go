package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/html5bridge/parser"
)

// countingTable returns a table whose reference callbacks count live
// references per identity.
func countingTable(t *testing.T, refs map[NodeRef]int) *CallbackTable {
	stubNode := func(UserData, []byte) NodeRef { return 1 }
	stubStatus := func(UserData, NodeRef, NodeRef) Status { return 0 }
	table, err := DeclareCallbacks(Callbacks{
		CloneNodeRef: func(_ UserData, n NodeRef) NodeRef {
			refs[n]++
			return n
		},
		DestroyNodeRef: func(_ UserData, n NodeRef) Status {
			if refs[n] == 0 {
				return -1
			}
			refs[n]--
			return 0
		},
		CreateElement:           func(UserData, *QualifiedName) NodeRef { return 1 },
		GetTemplateContents:     func(UserData, NodeRef) NodeRef { return 1 },
		AddAttributeIfMissing:   func(UserData, NodeRef, []byte, []byte, []byte) Status { return 0 },
		CreateComment:           stubNode,
		AppendDoctypeToDocument: func(UserData, []byte, []byte, []byte) Status { return 0 },
		AppendNode:              stubStatus,
		AppendText:              func(UserData, NodeRef, []byte) Status { return 0 },
		InsertNodeBeforeSibling: stubStatus,
		InsertTextBeforeSibling: func(UserData, NodeRef, []byte) Status { return 0 },
		ReparentChildren:        stubStatus,
		RemoveFromParent:        func(UserData, NodeRef) Status { return 0 },
	})
	require.NoError(t, err)
	return table
}

func contractPanic(t *testing.T, f func()) *ContractError {
	t.Helper()
	var got interface{}
	func() {
		defer func() { got = recover() }()
		f()
	}()
	ce, ok := got.(*ContractError)
	require.True(t, ok, "expected a contract violation, got %v", got)
	return ce
}

func TestNodeHandleCloneRelease(t *testing.T) {
	t.Parallel()
	refs := map[NodeRef]int{7: 1}
	table := countingTable(t, refs)

	h := wrap(table, 0, 7)
	h.setName(parser.NewQualName(parser.HTMLNamespace, "div"))
	c := h.Clone()
	assert.Equal(t, 2, refs[7])
	assert.Equal(t, h.Ref(), c.Ref())

	name, ok := c.Name()
	require.True(t, ok, "clones share the cached name")
	assert.Equal(t, "div", name.Local)

	c.Release()
	h.Release()
	assert.Zero(t, refs[7])

	ce := contractPanic(t, h.Release)
	assert.Equal(t, errDoubleRelease, ce.Err)
	ce = contractPanic(t, func() { h.Clone() })
	assert.Equal(t, errUseAfterFree, ce.Err)
}

func TestNodeHandleFailures(t *testing.T) {
	t.Parallel()
	table := countingTable(t, map[NodeRef]int{})

	h := wrap(table, 0, 9)
	ce := contractPanic(t, h.Release)
	assert.Equal(t, Status(-1), ce.Status)
	assert.Equal(t, "destroy_node_ref", ce.Op)

	h = wrap(table, 0, 9)
	_, ok := h.Name()
	assert.False(t, ok)
	h.setName(parser.NewQualName(parser.SVGNamespace, "g"))
	ce = contractPanic(t, func() { h.setName(parser.NewQualName(parser.SVGNamespace, "g")) })
	assert.Equal(t, errNameSetTwice, ce.Err)
}

func TestSinkElemNameWithoutName(t *testing.T) {
	t.Parallel()
	table := countingTable(t, map[NodeRef]int{})
	s := &sink{table: table, log: defaultLogger()}

	comment := s.CreateComment("x")
	ce := contractPanic(t, func() { s.ElemName(comment) })
	assert.Equal(t, errNoElementName, ce.Err)

	el := s.CreateElement(parser.NewQualName(parser.MathMLNamespace, "mi"), nil)
	assert.Equal(t, parser.MathMLNamespace, s.ElemName(el).Space)
}

func TestRecoverAt(t *testing.T) {
	t.Parallel()
	failed := false
	run := func(v interface{}) (err error) {
		defer recoverAt("test", defaultLogger(), &err, func() { failed = true })
		panic(v)
	}

	err := run(&ContractError{Op: "append_node", Status: -3, Err: errFailureStatus})
	assert.True(t, IsContractViolation(err))
	assert.True(t, failed)

	err = run("plain")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "test: plain")

	err = run(assert.AnError)
	assert.ErrorIs(t, err, ErrInternal)
	assert.False(t, IsContractViolation(err))
}
