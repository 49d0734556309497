package bridge

import "github.com/heathj/html5bridge/parser"

// NodeHandle is one counted reference to a host node. Every handle is
// released exactly once; Clone asks the host for another reference.
type NodeHandle struct {
	ref      NodeRef
	ud       UserData
	table    *CallbackTable
	name     *parser.QualName
	released bool
}

// wrap takes over a reference the host already counted for us.
func wrap(table *CallbackTable, ud UserData, ref NodeRef) *NodeHandle {
	return &NodeHandle{ref: ref, ud: ud, table: table}
}

// Ref returns the host identity of the node.
func (h *NodeHandle) Ref() NodeRef {
	return h.ref
}

// Name returns the element name cached at creation. Only element handles
// have one.
func (h *NodeHandle) Name() (parser.QualName, bool) {
	if h.name == nil {
		return parser.QualName{}, false
	}
	return *h.name, true
}

func (h *NodeHandle) setName(name parser.QualName) {
	if h.name != nil {
		violation("create_element", 0, errNameSetTwice)
	}
	h.name = &name
}

// Clone returns a new handle to the same node. The cached name is shared.
func (h *NodeHandle) Clone() *NodeHandle {
	if h.released {
		violation("clone_node_ref", 0, errUseAfterFree)
	}
	ref := h.table.cloneNodeRef(h.ud, h.ref)
	if ref == 0 {
		violation("clone_node_ref", 0, errNullIdentity)
	}
	return &NodeHandle{ref: ref, ud: h.ud, table: h.table, name: h.name}
}

// Release gives the reference back to the host.
func (h *NodeHandle) Release() {
	if h.released {
		violation("destroy_node_ref", 0, errDoubleRelease)
	}
	h.released = true
	if st := h.table.destroyNodeRef(h.ud, h.ref); st < 0 {
		violation("destroy_node_ref", st, errFailureStatus)
	}
}
