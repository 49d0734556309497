package bridge

import (
	"github.com/sirupsen/logrus"

	"github.com/heathj/html5bridge/parser"
)

// sink forwards tree construction to the host callbacks.
type sink struct {
	table  *CallbackTable
	ud     UserData
	root   *NodeHandle
	quirks parser.QuirksMode
	log    logrus.FieldLogger
}

var _ parser.TreeSink[*NodeHandle] = (*sink)(nil)

func (s *sink) cb() *Callbacks {
	return &s.table.cb
}

func (s *sink) node(op string, ref NodeRef) *NodeHandle {
	if ref == 0 {
		violation(op, 0, errNullIdentity)
	}
	return wrap(s.table, s.ud, ref)
}

func check(op string, st Status) Status {
	if st < 0 {
		violation(op, st, errFailureStatus)
	}
	return st
}

func (s *sink) ParseError(msg string) {
	if st := s.table.parseError(s.ud, []byte(msg)); st < 0 {
		s.log.WithField("op", "parse_error").Debugf("host rejected parse error %q (status %d)", msg, st)
	}
}

func (s *sink) GetDocument() *NodeHandle {
	return s.root.Clone()
}

func (s *sink) GetTemplateContents(target *NodeHandle) *NodeHandle {
	return s.node("get_template_contents", s.cb().GetTemplateContents(s.ud, target.ref))
}

func (s *sink) SetQuirksMode(mode parser.QuirksMode) {
	s.quirks = mode
}

func (s *sink) SameNode(x, y *NodeHandle) bool {
	return check("same_node", s.table.sameNode(s.ud, x.ref, y.ref)) != 0
}

func (s *sink) ElemName(target *NodeHandle) parser.QualName {
	name, ok := target.Name()
	if !ok {
		violation("elem_name", 0, errNoElementName)
	}
	return name
}

func (s *sink) CreateElement(name parser.QualName, attrs []parser.Attribute) *NodeHandle {
	qn := &QualifiedName{Namespace: string(name.Space), Local: name.Local}
	h := s.node("create_element", s.cb().CreateElement(s.ud, qn))
	h.setName(name)
	s.addAttributes("create_element", h, attrs)
	return h
}

// addAttributes sends every attribute, duplicates included, in order. The
// host keeps the first value of each name.
func (s *sink) addAttributes(op string, target *NodeHandle, attrs []parser.Attribute) {
	for _, a := range attrs {
		check(op, s.cb().AddAttributeIfMissing(s.ud, target.ref,
			[]byte(a.Name.Space), []byte(a.Name.Local), []byte(a.Value)))
	}
}

func (s *sink) CreateComment(text string) *NodeHandle {
	return s.node("create_comment", s.cb().CreateComment(s.ud, []byte(text)))
}

func (s *sink) Append(parent *NodeHandle, child parser.NodeOrText[*NodeHandle]) {
	if child.IsText {
		check("append_text", s.cb().AppendText(s.ud, parent.ref, []byte(child.Text)))
		return
	}
	check("append_node", s.cb().AppendNode(s.ud, parent.ref, child.Node.ref))
}

func (s *sink) AppendBeforeSibling(sibling *NodeHandle, child parser.NodeOrText[*NodeHandle]) (parser.NodeOrText[*NodeHandle], bool) {
	var st Status
	if child.IsText {
		st = check("insert_text_before_sibling", s.cb().InsertTextBeforeSibling(s.ud, sibling.ref, []byte(child.Text)))
	} else {
		st = check("insert_node_before_sibling", s.cb().InsertNodeBeforeSibling(s.ud, sibling.ref, child.Node.ref))
	}
	return child, st != 0
}

func (s *sink) AppendDoctypeToDocument(name, publicID, systemID string) {
	check("append_doctype_to_document", s.cb().AppendDoctypeToDocument(s.ud,
		[]byte(name), []byte(publicID), []byte(systemID)))
}

func (s *sink) AddAttrsIfMissing(target *NodeHandle, attrs []parser.Attribute) {
	s.addAttributes("add_attrs_if_missing", target, attrs)
}

func (s *sink) RemoveFromParent(target *NodeHandle) {
	check("remove_from_parent", s.cb().RemoveFromParent(s.ud, target.ref))
}

func (s *sink) ReparentChildren(node, newParent *NodeHandle) {
	check("reparent_children", s.cb().ReparentChildren(s.ud, node.ref, newParent.ref))
}

// MarkScriptAlreadyStarted has no host callback; scripts never run.
func (s *sink) MarkScriptAlreadyStarted(*NodeHandle) {}

func (s *sink) CloneHandle(h *NodeHandle) *NodeHandle {
	return h.Clone()
}

func (s *sink) ReleaseHandle(h *NodeHandle) {
	h.Release()
}
