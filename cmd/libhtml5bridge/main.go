// Command libhtml5bridge builds the bridge as a C shared library:
//
//	go build -buildmode=c-shared -o libhtml5bridge.so ./cmd/libhtml5bridge
//
// Hosts fill an html5bridge_callbacks struct with function pointers, declare
// it once and drive parsers through the returned ids.
package main

/*
#include <stdint.h>
#include <stddef.h>

typedef uintptr_t (*html5bridge_clone_node_ref_fn)(uintptr_t ud, uintptr_t node);
typedef int32_t (*html5bridge_destroy_node_ref_fn)(uintptr_t ud, uintptr_t node);
typedef int32_t (*html5bridge_same_node_fn)(uintptr_t ud, uintptr_t x, uintptr_t y);
typedef int32_t (*html5bridge_parse_error_fn)(uintptr_t ud, const char *msg, size_t len);
typedef uintptr_t (*html5bridge_create_element_fn)(uintptr_t ud, uint64_t name,
	const char *ns, size_t ns_len, const char *local, size_t local_len);
typedef uintptr_t (*html5bridge_get_template_contents_fn)(uintptr_t ud, uintptr_t tmpl);
typedef int32_t (*html5bridge_add_attribute_if_missing_fn)(uintptr_t ud, uintptr_t el,
	const char *ns, size_t ns_len, const char *local, size_t local_len,
	const char *value, size_t value_len);
typedef uintptr_t (*html5bridge_create_comment_fn)(uintptr_t ud, const char *text, size_t len);
typedef int32_t (*html5bridge_append_doctype_to_document_fn)(uintptr_t ud,
	const char *name, size_t name_len, const char *public_id, size_t public_id_len,
	const char *system_id, size_t system_id_len);
typedef int32_t (*html5bridge_append_node_fn)(uintptr_t ud, uintptr_t parent, uintptr_t child);
typedef int32_t (*html5bridge_append_text_fn)(uintptr_t ud, uintptr_t parent, const char *text, size_t len);
typedef int32_t (*html5bridge_insert_node_before_sibling_fn)(uintptr_t ud, uintptr_t sibling, uintptr_t node);
typedef int32_t (*html5bridge_insert_text_before_sibling_fn)(uintptr_t ud, uintptr_t sibling, const char *text, size_t len);
typedef int32_t (*html5bridge_reparent_children_fn)(uintptr_t ud, uintptr_t node, uintptr_t new_parent);
typedef int32_t (*html5bridge_remove_from_parent_fn)(uintptr_t ud, uintptr_t node);

typedef struct {
	html5bridge_clone_node_ref_fn clone_node_ref;
	html5bridge_destroy_node_ref_fn destroy_node_ref;
	html5bridge_same_node_fn same_node;
	html5bridge_parse_error_fn parse_error;
	html5bridge_create_element_fn create_element;
	html5bridge_get_template_contents_fn get_template_contents;
	html5bridge_add_attribute_if_missing_fn add_attribute_if_missing;
	html5bridge_create_comment_fn create_comment;
	html5bridge_append_doctype_to_document_fn append_doctype_to_document;
	html5bridge_append_node_fn append_node;
	html5bridge_append_text_fn append_text;
	html5bridge_insert_node_before_sibling_fn insert_node_before_sibling;
	html5bridge_insert_text_before_sibling_fn insert_text_before_sibling;
	html5bridge_reparent_children_fn reparent_children;
	html5bridge_remove_from_parent_fn remove_from_parent;
} html5bridge_callbacks;

static uintptr_t call_clone_node_ref(html5bridge_clone_node_ref_fn f, uintptr_t ud, uintptr_t n) { return f(ud, n); }
static int32_t call_destroy_node_ref(html5bridge_destroy_node_ref_fn f, uintptr_t ud, uintptr_t n) { return f(ud, n); }
static int32_t call_same_node(html5bridge_same_node_fn f, uintptr_t ud, uintptr_t x, uintptr_t y) { return f(ud, x, y); }
static int32_t call_parse_error(html5bridge_parse_error_fn f, uintptr_t ud, const char *m, size_t n) { return f(ud, m, n); }
static uintptr_t call_create_element(html5bridge_create_element_fn f, uintptr_t ud, uint64_t name,
	const char *ns, size_t ns_len, const char *local, size_t local_len) {
	return f(ud, name, ns, ns_len, local, local_len);
}
static uintptr_t call_get_template_contents(html5bridge_get_template_contents_fn f, uintptr_t ud, uintptr_t t) { return f(ud, t); }
static int32_t call_add_attribute_if_missing(html5bridge_add_attribute_if_missing_fn f, uintptr_t ud, uintptr_t el,
	const char *ns, size_t ns_len, const char *local, size_t local_len, const char *value, size_t value_len) {
	return f(ud, el, ns, ns_len, local, local_len, value, value_len);
}
static uintptr_t call_create_comment(html5bridge_create_comment_fn f, uintptr_t ud, const char *t, size_t n) { return f(ud, t, n); }
static int32_t call_append_doctype_to_document(html5bridge_append_doctype_to_document_fn f, uintptr_t ud,
	const char *name, size_t name_len, const char *pub, size_t pub_len, const char *sys, size_t sys_len) {
	return f(ud, name, name_len, pub, pub_len, sys, sys_len);
}
static int32_t call_append_node(html5bridge_append_node_fn f, uintptr_t ud, uintptr_t p, uintptr_t c) { return f(ud, p, c); }
static int32_t call_append_text(html5bridge_append_text_fn f, uintptr_t ud, uintptr_t p, const char *t, size_t n) { return f(ud, p, t, n); }
static int32_t call_insert_node_before_sibling(html5bridge_insert_node_before_sibling_fn f, uintptr_t ud, uintptr_t s, uintptr_t n) { return f(ud, s, n); }
static int32_t call_insert_text_before_sibling(html5bridge_insert_text_before_sibling_fn f, uintptr_t ud, uintptr_t s, const char *t, size_t n) { return f(ud, s, t, n); }
static int32_t call_reparent_children(html5bridge_reparent_children_fn f, uintptr_t ud, uintptr_t n, uintptr_t p) { return f(ud, n, p); }
static int32_t call_remove_from_parent(html5bridge_remove_from_parent_fn f, uintptr_t ud, uintptr_t n) { return f(ud, n); }
*/
import "C"

import (
	"unsafe"

	"github.com/heathj/html5bridge/bridge"
	"github.com/heathj/html5bridge/bridge/abi"
)

// cbytes passes b to C without copying. C must not keep the pointer.
func cbytes(b []byte) (*C.char, C.size_t) {
	if len(b) == 0 {
		return nil, 0
	}
	return (*C.char)(unsafe.Pointer(&b[0])), C.size_t(len(b))
}

func ud(u bridge.UserData) C.uintptr_t    { return C.uintptr_t(u) }
func ref(n bridge.NodeRef) C.uintptr_t    { return C.uintptr_t(n) }
func status(s C.int32_t) bridge.Status    { return bridge.Status(s) }
func noderef(n C.uintptr_t) bridge.NodeRef { return bridge.NodeRef(n) }

// callbacks wraps the C function pointers; a NULL optional pointer leaves
// the bridge default in place.
func callbacks(c *C.html5bridge_callbacks) abi.Callbacks {
	var cb abi.Callbacks
	if f := c.clone_node_ref; f != nil {
		cb.CloneNodeRef = func(u bridge.UserData, n bridge.NodeRef) bridge.NodeRef {
			return noderef(C.call_clone_node_ref(f, ud(u), ref(n)))
		}
	}
	if f := c.destroy_node_ref; f != nil {
		cb.DestroyNodeRef = func(u bridge.UserData, n bridge.NodeRef) bridge.Status {
			return status(C.call_destroy_node_ref(f, ud(u), ref(n)))
		}
	}
	if f := c.same_node; f != nil {
		cb.SameNode = func(u bridge.UserData, x, y bridge.NodeRef) bridge.Status {
			return status(C.call_same_node(f, ud(u), ref(x), ref(y)))
		}
	}
	if f := c.parse_error; f != nil {
		cb.ParseError = func(u bridge.UserData, msg []byte) bridge.Status {
			p, n := cbytes(msg)
			return status(C.call_parse_error(f, ud(u), p, n))
		}
	}
	if f := c.create_element; f != nil {
		cb.CreateElement = func(u bridge.UserData, name abi.NameID, ns, local []byte) bridge.NodeRef {
			nsp, nsn := cbytes(ns)
			lp, ln := cbytes(local)
			return noderef(C.call_create_element(f, ud(u), C.uint64_t(name), nsp, nsn, lp, ln))
		}
	}
	if f := c.get_template_contents; f != nil {
		cb.GetTemplateContents = func(u bridge.UserData, t bridge.NodeRef) bridge.NodeRef {
			return noderef(C.call_get_template_contents(f, ud(u), ref(t)))
		}
	}
	if f := c.add_attribute_if_missing; f != nil {
		cb.AddAttributeIfMissing = func(u bridge.UserData, el bridge.NodeRef, ns, local, value []byte) bridge.Status {
			nsp, nsn := cbytes(ns)
			lp, ln := cbytes(local)
			vp, vn := cbytes(value)
			return status(C.call_add_attribute_if_missing(f, ud(u), ref(el), nsp, nsn, lp, ln, vp, vn))
		}
	}
	if f := c.create_comment; f != nil {
		cb.CreateComment = func(u bridge.UserData, text []byte) bridge.NodeRef {
			p, n := cbytes(text)
			return noderef(C.call_create_comment(f, ud(u), p, n))
		}
	}
	if f := c.append_doctype_to_document; f != nil {
		cb.AppendDoctypeToDocument = func(u bridge.UserData, name, publicID, systemID []byte) bridge.Status {
			np, nn := cbytes(name)
			pp, pn := cbytes(publicID)
			sp, sn := cbytes(systemID)
			return status(C.call_append_doctype_to_document(f, ud(u), np, nn, pp, pn, sp, sn))
		}
	}
	if f := c.append_node; f != nil {
		cb.AppendNode = func(u bridge.UserData, parent, child bridge.NodeRef) bridge.Status {
			return status(C.call_append_node(f, ud(u), ref(parent), ref(child)))
		}
	}
	if f := c.append_text; f != nil {
		cb.AppendText = func(u bridge.UserData, parent bridge.NodeRef, text []byte) bridge.Status {
			p, n := cbytes(text)
			return status(C.call_append_text(f, ud(u), ref(parent), p, n))
		}
	}
	if f := c.insert_node_before_sibling; f != nil {
		cb.InsertNodeBeforeSibling = func(u bridge.UserData, sibling, node bridge.NodeRef) bridge.Status {
			return status(C.call_insert_node_before_sibling(f, ud(u), ref(sibling), ref(node)))
		}
	}
	if f := c.insert_text_before_sibling; f != nil {
		cb.InsertTextBeforeSibling = func(u bridge.UserData, sibling bridge.NodeRef, text []byte) bridge.Status {
			p, n := cbytes(text)
			return status(C.call_insert_text_before_sibling(f, ud(u), ref(sibling), p, n))
		}
	}
	if f := c.reparent_children; f != nil {
		cb.ReparentChildren = func(u bridge.UserData, node, newParent bridge.NodeRef) bridge.Status {
			return status(C.call_reparent_children(f, ud(u), ref(node), ref(newParent)))
		}
	}
	if f := c.remove_from_parent; f != nil {
		cb.RemoveFromParent = func(u bridge.UserData, node bridge.NodeRef) bridge.Status {
			return status(C.call_remove_from_parent(f, ud(u), ref(node)))
		}
	}
	return cb
}

//export html5bridge_declare_callbacks
func html5bridge_declare_callbacks(c *C.html5bridge_callbacks) C.uint64_t {
	if c == nil {
		return 0
	}
	return C.uint64_t(abi.DeclareCallbacks(callbacks(c)))
}

//export html5bridge_new_parser
func html5bridge_new_parser(table C.uint64_t, userData C.uintptr_t, root C.uintptr_t) C.uint64_t {
	return C.uint64_t(abi.NewParser(abi.TableID(table), uintptr(userData), bridge.NodeRef(root)))
}

//export html5bridge_feed_parser
func html5bridge_feed_parser(parser C.uint64_t, data *C.char, n C.size_t) C.int32_t {
	chunk, ok := abi.CopyBytes(unsafe.Pointer(data), uint64(n))
	if !ok {
		return C.int32_t(abi.StatusInvalidArgument)
	}
	return C.int32_t(abi.FeedParser(abi.ParserID(parser), chunk))
}

//export html5bridge_end_parser
func html5bridge_end_parser(parser C.uint64_t) C.int32_t {
	return C.int32_t(abi.EndParser(abi.ParserID(parser)))
}

//export html5bridge_destroy_parser
func html5bridge_destroy_parser(parser C.uint64_t) C.int32_t {
	return C.int32_t(abi.DestroyParser(abi.ParserID(parser)))
}

//export html5bridge_destroy_qualified_name
func html5bridge_destroy_qualified_name(name C.uint64_t) C.int32_t {
	return C.int32_t(abi.DestroyQualifiedName(abi.NameID(name)))
}

func main() {}
