package bridge

import (
	"strings"

	"github.com/pkg/errors"
)

// NodeRef is an opaque host node identity. The bridge never dereferences
// it. Zero is the null identity.
type NodeRef uintptr

// UserData is the host context passed back to every callback.
type UserData uintptr

// Status is a callback result. Negative values signal failure.
type Status int32

// Callback signatures. Byte slices are UTF-8 and only valid during the call.
type (
	CloneNodeRefFunc            func(ud UserData, n NodeRef) NodeRef
	DestroyNodeRefFunc          func(ud UserData, n NodeRef) Status
	SameNodeFunc                func(ud UserData, x, y NodeRef) Status
	ParseErrorFunc              func(ud UserData, msg []byte) Status
	CreateElementFunc           func(ud UserData, name *QualifiedName) NodeRef
	GetTemplateContentsFunc     func(ud UserData, template NodeRef) NodeRef
	AddAttributeIfMissingFunc   func(ud UserData, el NodeRef, ns, local, value []byte) Status
	CreateCommentFunc           func(ud UserData, text []byte) NodeRef
	AppendDoctypeToDocumentFunc func(ud UserData, name, publicID, systemID []byte) Status
	AppendNodeFunc              func(ud UserData, parent, child NodeRef) Status
	AppendTextFunc              func(ud UserData, parent NodeRef, text []byte) Status
	// InsertNodeBeforeSiblingFunc returns 1 when node was inserted and 0
	// when sibling has no parent.
	InsertNodeBeforeSiblingFunc func(ud UserData, sibling, node NodeRef) Status
	InsertTextBeforeSiblingFunc func(ud UserData, sibling NodeRef, text []byte) Status
	ReparentChildrenFunc        func(ud UserData, node, newParent NodeRef) Status
	RemoveFromParentFunc        func(ud UserData, node NodeRef) Status
)

// Callbacks is the set of host operations the bridge calls. The first four
// are optional; every other slot must be set.
type Callbacks struct {
	// CloneNodeRef defaults to reusing the identity.
	CloneNodeRef CloneNodeRefFunc
	// DestroyNodeRef defaults to doing nothing.
	DestroyNodeRef DestroyNodeRefFunc
	// SameNode returns non-zero for the same node. It defaults to comparing
	// identities.
	SameNode SameNodeFunc
	// ParseError defaults to discarding the message.
	ParseError ParseErrorFunc

	CreateElement           CreateElementFunc
	GetTemplateContents     GetTemplateContentsFunc
	AddAttributeIfMissing   AddAttributeIfMissingFunc
	CreateComment           CreateCommentFunc
	AppendDoctypeToDocument AppendDoctypeToDocumentFunc
	AppendNode              AppendNodeFunc
	AppendText              AppendTextFunc
	InsertNodeBeforeSibling InsertNodeBeforeSiblingFunc
	InsertTextBeforeSibling InsertTextBeforeSiblingFunc
	ReparentChildren        ReparentChildrenFunc
	RemoveFromParent        RemoveFromParentFunc
}

func (c Callbacks) missing() []string {
	var names []string
	check := func(set bool, name string) {
		if !set {
			names = append(names, name)
		}
	}
	check(c.CreateElement != nil, "CreateElement")
	check(c.GetTemplateContents != nil, "GetTemplateContents")
	check(c.AddAttributeIfMissing != nil, "AddAttributeIfMissing")
	check(c.CreateComment != nil, "CreateComment")
	check(c.AppendDoctypeToDocument != nil, "AppendDoctypeToDocument")
	check(c.AppendNode != nil, "AppendNode")
	check(c.AppendText != nil, "AppendText")
	check(c.InsertNodeBeforeSibling != nil, "InsertNodeBeforeSibling")
	check(c.InsertTextBeforeSibling != nil, "InsertTextBeforeSibling")
	check(c.ReparentChildren != nil, "ReparentChildren")
	check(c.RemoveFromParent != nil, "RemoveFromParent")
	return names
}

// CallbackTable is a validated, immutable set of callbacks. It may be
// shared by any number of parsers, including concurrent ones.
type CallbackTable struct {
	cb Callbacks
}

// DeclareCallbacks validates cb and freezes it into a table.
func DeclareCallbacks(cb Callbacks) (table *CallbackTable, err error) {
	defer recoverAt("declare_callbacks", defaultLogger(), &err, nil)

	if missing := cb.missing(); len(missing) > 0 {
		return nil, errors.Wrap(ErrMissingCallback, strings.Join(missing, ", "))
	}
	return &CallbackTable{cb: cb}, nil
}

func (t *CallbackTable) cloneNodeRef(ud UserData, n NodeRef) NodeRef {
	if t.cb.CloneNodeRef == nil {
		return n
	}
	return t.cb.CloneNodeRef(ud, n)
}

func (t *CallbackTable) destroyNodeRef(ud UserData, n NodeRef) Status {
	if t.cb.DestroyNodeRef == nil {
		return 0
	}
	return t.cb.DestroyNodeRef(ud, n)
}

func (t *CallbackTable) sameNode(ud UserData, x, y NodeRef) Status {
	if t.cb.SameNode == nil {
		if x == y {
			return 1
		}
		return 0
	}
	return t.cb.SameNode(ud, x, y)
}

func (t *CallbackTable) parseError(ud UserData, msg []byte) Status {
	if t.cb.ParseError == nil {
		return 0
	}
	return t.cb.ParseError(ud, msg)
}
