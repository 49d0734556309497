package dom

import (
	"github.com/heathj/html5bridge/bridge"
	"github.com/heathj/html5bridge/parser"
)

// refSlot is one entry of the host's reference table.
type refSlot struct {
	node  *Node
	gen   uint32
	count int
}

// Host builds a Node tree from bridge callbacks. Nodes are identified to
// the bridge by slot and generation in a reference table, and every
// reference the bridge holds is counted, so a test can check that all of
// them were given back. A Host builds one document.
type Host struct {
	Document *Node
	// Errors collects the parse errors reported during parsing.
	Errors []string

	slots []refSlot
	free  []uint32
	live  int
}

// NewHost returns a host with an empty document.
func NewHost() *Host {
	return &Host{Document: NewDocument()}
}

// Root returns a new reference to the document node, for bridge.NewParser.
func (h *Host) Root() bridge.NodeRef {
	return h.acquire(h.Document)
}

// Leaks returns the number of references handed out and not yet destroyed.
func (h *Host) Leaks() int {
	return h.live
}

func refFor(idx, gen uint32) bridge.NodeRef {
	return bridge.NodeRef(uint64(gen)<<32 | uint64(idx+1))
}

func (h *Host) slot(ref bridge.NodeRef) *refSlot {
	low := uint32(uint64(ref))
	if low == 0 || int(low-1) >= len(h.slots) {
		return nil
	}
	s := &h.slots[low-1]
	if s.count == 0 || s.gen != uint32(uint64(ref)>>32) {
		return nil
	}
	return s
}

// acquire returns a counted reference to n, reusing its identity when the
// bridge already holds one.
func (h *Host) acquire(n *Node) bridge.NodeRef {
	h.live++
	if n.ref != 0 {
		h.slot(n.ref).count++
		return n.ref
	}

	var idx uint32
	if k := len(h.free); k > 0 {
		idx = h.free[k-1]
		h.free = h.free[:k-1]
	} else {
		idx = uint32(len(h.slots))
		h.slots = append(h.slots, refSlot{gen: 1})
	}
	s := &h.slots[idx]
	s.node, s.count = n, 1
	n.ref = refFor(idx, s.gen)
	return n.ref
}

func (h *Host) retain(ref bridge.NodeRef) bridge.NodeRef {
	s := h.slot(ref)
	if s == nil {
		return 0
	}
	s.count++
	h.live++
	return ref
}

func (h *Host) release(ref bridge.NodeRef) bridge.Status {
	s := h.slot(ref)
	if s == nil {
		return -1
	}
	h.live--
	if s.count--; s.count == 0 {
		s.node.ref = 0
		s.node = nil
		s.gen++
		h.free = append(h.free, uint32(uint64(ref))-1)
	}
	return 0
}

// node resolves a live reference.
func (h *Host) node(ref bridge.NodeRef) *Node {
	if s := h.slot(ref); s != nil {
		return s.node
	}
	return nil
}

func (h *Host) nodes(refs ...bridge.NodeRef) ([]*Node, bool) {
	out := make([]*Node, len(refs))
	for i, ref := range refs {
		if out[i] = h.node(ref); out[i] == nil {
			return nil, false
		}
	}
	return out, true
}

func appendText(parent *Node, text string) {
	if last := parent.LastChild(); last != nil && last.NodeType == TextNode {
		last.Text.appendData(text)
		return
	}
	parent.AppendChild(NewTextNode(text))
}

// Callbacks returns the callback set that builds into h.
func (h *Host) Callbacks() bridge.Callbacks {
	return bridge.Callbacks{
		CloneNodeRef: func(_ bridge.UserData, n bridge.NodeRef) bridge.NodeRef {
			return h.retain(n)
		},
		DestroyNodeRef: func(_ bridge.UserData, n bridge.NodeRef) bridge.Status {
			return h.release(n)
		},
		SameNode: func(_ bridge.UserData, x, y bridge.NodeRef) bridge.Status {
			n, ok := h.nodes(x, y)
			switch {
			case !ok:
				return -1
			case n[0] == n[1]:
				return 1
			}
			return 0
		},
		ParseError: func(_ bridge.UserData, msg []byte) bridge.Status {
			h.Errors = append(h.Errors, string(msg))
			return 0
		},
		CreateElement: func(_ bridge.UserData, name *bridge.QualifiedName) bridge.NodeRef {
			n := NewElement(parser.Namespace(name.Namespace), name.Local)
			if err := bridge.DestroyQualifiedName(name); err != nil {
				return 0
			}
			return h.acquire(n)
		},
		GetTemplateContents: func(_ bridge.UserData, template bridge.NodeRef) bridge.NodeRef {
			n := h.node(template)
			if n == nil || n.NodeType != ElementNode || n.TemplateContents == nil {
				return 0
			}
			return h.acquire(n.TemplateContents)
		},
		AddAttributeIfMissing: func(_ bridge.UserData, el bridge.NodeRef, ns, local, value []byte) bridge.Status {
			n := h.node(el)
			if n == nil || n.NodeType != ElementNode {
				return -1
			}
			n.SetAttributeIfMissing(parser.Namespace(ns), string(local), string(value))
			return 0
		},
		CreateComment: func(_ bridge.UserData, text []byte) bridge.NodeRef {
			return h.acquire(NewComment(string(text)))
		},
		AppendDoctypeToDocument: func(_ bridge.UserData, name, publicID, systemID []byte) bridge.Status {
			h.Document.AppendChild(NewDocTypeNode(string(name), string(publicID), string(systemID)))
			return 0
		},
		AppendNode: func(_ bridge.UserData, parent, child bridge.NodeRef) bridge.Status {
			n, ok := h.nodes(parent, child)
			if !ok {
				return -1
			}
			n[0].AppendChild(n[1])
			return 0
		},
		AppendText: func(_ bridge.UserData, parent bridge.NodeRef, text []byte) bridge.Status {
			p := h.node(parent)
			if p == nil {
				return -1
			}
			appendText(p, string(text))
			return 0
		},
		InsertNodeBeforeSibling: func(_ bridge.UserData, sibling, node bridge.NodeRef) bridge.Status {
			n, ok := h.nodes(sibling, node)
			if !ok {
				return -1
			}
			if n[0].ParentNode == nil {
				return 0
			}
			n[0].ParentNode.InsertBefore(n[1], n[0])
			return 1
		},
		InsertTextBeforeSibling: func(_ bridge.UserData, sibling bridge.NodeRef, text []byte) bridge.Status {
			s := h.node(sibling)
			if s == nil {
				return -1
			}
			if s.ParentNode == nil {
				return 0
			}
			if prev := s.PreviousSibling(); prev != nil && prev.NodeType == TextNode {
				prev.Text.appendData(string(text))
				return 1
			}
			s.ParentNode.InsertBefore(NewTextNode(string(text)), s)
			return 1
		},
		ReparentChildren: func(_ bridge.UserData, node, newParent bridge.NodeRef) bridge.Status {
			n, ok := h.nodes(node, newParent)
			if !ok {
				return -1
			}
			for len(n[0].ChildNodes) > 0 {
				n[1].AppendChild(n[0].ChildNodes[0])
			}
			return 0
		},
		RemoveFromParent: func(_ bridge.UserData, node bridge.NodeRef) bridge.Status {
			n := h.node(node)
			if n == nil {
				return -1
			}
			n.Detach()
			return 0
		},
	}
}
