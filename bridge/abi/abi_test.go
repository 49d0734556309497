package abi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/html5bridge/bridge"
	"github.com/heathj/html5bridge/parser/dom"
)

// flatHost adapts a dom.Host to the flat callbacks. Names are given back
// right away unless keep is set.
func flatHost(h *dom.Host, keep *[]NameID) Callbacks {
	cb := h.Callbacks()
	create := cb.CreateElement
	return Callbacks{
		Callbacks: cb,
		CreateElement: func(ud bridge.UserData, name NameID, ns, local []byte) bridge.NodeRef {
			if keep != nil {
				*keep = append(*keep, name)
			} else if DestroyQualifiedName(name) != StatusOK {
				return 0
			}
			return create(ud, &bridge.QualifiedName{Namespace: string(ns), Local: string(local)})
		},
	}
}

func TestRegistry(t *testing.T) {
	var r registry[string]
	a := r.add("a")
	b := r.add("b")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.len())

	v, ok := r.get(a)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = r.remove(a)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	_, ok = r.get(a)
	assert.False(t, ok, "removed id")
	_, ok = r.remove(a)
	assert.False(t, ok)

	c := r.add("c")
	assert.Equal(t, uint32(a), uint32(c), "the slot is reused")
	assert.NotEqual(t, a, c, "with a new generation")
	_, ok = r.get(a)
	assert.False(t, ok, "a stale id does not alias the new value")

	for _, id := range []uint64{0, 1 << 32, 99} {
		_, ok = r.get(id)
		assert.False(t, ok, "id %#x", id)
	}
	assert.Equal(t, 2, r.len())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want bridge.Status
	}{
		{nil, StatusOK},
		{&bridge.ContractError{Op: "append_node", Status: -1}, StatusContractViolation},
		{errors.Wrap(&bridge.ContractError{Op: "x"}, "feed"), StatusContractViolation},
		{bridge.ErrParserEnded, StatusInvalidState},
		{bridge.ErrParserDestroyed, StatusInvalidState},
		{bridge.ErrParserPoisoned, StatusInvalidState},
		{bridge.ErrNameDestroyed, StatusInvalidState},
		{errors.Wrap(bridge.ErrInvalidArgument, "null root node"), StatusInvalidArgument},
		{errors.Wrap(bridge.ErrMissingCallback, "AppendNode"), StatusInvalidArgument},
		{errors.Wrap(bridge.ErrInternal, "feed: boom"), StatusParseFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), "%v", tt.err)
	}
}

func TestFlatLifecycle(t *testing.T) {
	parsersBefore, namesBefore := LiveParsers(), LiveNames()
	h := dom.NewHost()

	table := DeclareCallbacks(flatHost(h, nil))
	require.NotZero(t, table)
	p := NewParser(table, 0, h.Root())
	require.NotZero(t, p)
	assert.Equal(t, parsersBefore+1, LiveParsers())

	assert.Equal(t, StatusOK, FeedParser(p, []byte("<!DOCTYPE html><svg><circle/></svg>")))
	assert.Equal(t, StatusOK, EndParser(p))
	assert.Equal(t, StatusInvalidState, FeedParser(p, []byte("x")))
	assert.Equal(t, StatusInvalidState, EndParser(p))
	assert.Equal(t, StatusOK, DestroyParser(p))

	assert.Equal(t, StatusInvalidHandle, DestroyParser(p))
	assert.Equal(t, StatusInvalidHandle, FeedParser(p, nil))
	assert.Equal(t, StatusInvalidHandle, EndParser(p))
	assert.Equal(t, parsersBefore, LiveParsers())
	assert.Equal(t, namesBefore, LiveNames())
	assert.Zero(t, h.Leaks())
	assert.Contains(t, h.Document.String(), "<svg circle>")
}

func TestFlatNames(t *testing.T) {
	namesBefore := LiveNames()
	h := dom.NewHost()
	var kept []NameID

	table := DeclareCallbacks(flatHost(h, &kept))
	p := NewParser(table, 0, h.Root())
	require.NotZero(t, p)
	require.Equal(t, StatusOK, FeedParser(p, []byte("<p>")))
	require.Equal(t, StatusOK, DestroyParser(p))

	require.Len(t, kept, 4)
	assert.Equal(t, namesBefore+4, LiveNames(), "names outlive the parser")
	for _, id := range kept {
		assert.Equal(t, StatusOK, DestroyQualifiedName(id))
		assert.Equal(t, StatusInvalidHandle, DestroyQualifiedName(id))
	}
	assert.Equal(t, namesBefore, LiveNames())
	assert.Equal(t, StatusInvalidHandle, DestroyQualifiedName(0))
}

func TestFlatFailures(t *testing.T) {
	h := dom.NewHost()

	missing := flatHost(h, nil)
	missing.CreateElement = nil
	assert.Zero(t, DeclareCallbacks(missing))

	assert.Zero(t, NewParser(0, 0, h.Root()))
	assert.Zero(t, NewParser(TableID(1<<40|1), 0, h.Root()))

	table := DeclareCallbacks(flatHost(h, nil))
	require.NotZero(t, table)
	assert.Zero(t, NewParser(table, 0, 0))

	broken := flatHost(h, nil)
	broken.AppendNode = func(bridge.UserData, bridge.NodeRef, bridge.NodeRef) bridge.Status { return -2 }
	table = DeclareCallbacks(broken)
	p := NewParser(table, 0, h.Root())
	require.NotZero(t, p)
	assert.Equal(t, StatusContractViolation, FeedParser(p, []byte("<p>")))
	assert.Equal(t, StatusInvalidState, FeedParser(p, []byte("<p>")))
	assert.Equal(t, StatusOK, DestroyParser(p))
}

func TestGuard(t *testing.T) {
	run := func() (st bridge.Status) {
		defer guard("test", &st)
		panic("boom")
	}
	assert.Equal(t, StatusParseFailed, run())
}
