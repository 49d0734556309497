// Package abi is the flat, integer-only surface of the bridge for hosts
// that cannot hold Go values, such as C callers through cgo. Tables,
// parsers and qualified names are referred to by registry ids, and every
// failure is reported as a negative Status.
package abi

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/html5bridge/bridge"
)

// Status codes returned by every ABI function.
const (
	StatusOK                bridge.Status = 0
	StatusParseFailed       bridge.Status = -1
	StatusContractViolation bridge.Status = -2
	StatusInvalidState      bridge.Status = -3
	StatusInvalidHandle     bridge.Status = -4
	StatusInvalidArgument   bridge.Status = -5
)

type (
	TableID  uint64
	ParserID uint64
	NameID   uint64
)

// CreateElementFunc receives the element name as an id the host destroys
// with DestroyQualifiedName, plus its parts for immediate use.
type CreateElementFunc func(ud bridge.UserData, name NameID, ns, local []byte) bridge.NodeRef

// Callbacks are the bridge callbacks with a flat CreateElement. The
// embedded CreateElement is ignored.
type Callbacks struct {
	bridge.Callbacks
	CreateElement CreateElementFunc
}

var (
	tables  registry[*bridge.CallbackTable]
	parsers registry[*bridge.Parser]
	names   registry[*bridge.QualifiedName]
)

// StatusOf maps an error from the bridge to its ABI status.
func StatusOf(err error) bridge.Status {
	if err == nil {
		return StatusOK
	}
	if bridge.IsContractViolation(err) {
		return StatusContractViolation
	}
	switch errors.Cause(err) {
	case bridge.ErrParserEnded, bridge.ErrParserDestroyed, bridge.ErrParserPoisoned, bridge.ErrNameDestroyed:
		return StatusInvalidState
	case bridge.ErrInvalidArgument, bridge.ErrMissingCallback:
		return StatusInvalidArgument
	}
	return StatusParseFailed
}

// guard is deferred by every ABI function so that nothing panics across
// the boundary.
func guard(op string, st *bridge.Status) {
	if r := recover(); r != nil {
		logrus.WithField("op", op).Errorf("recovered at ABI boundary: %v", r)
		*st = StatusParseFailed
	}
}

// DeclareCallbacks validates cb and returns the id of its table, or 0.
func DeclareCallbacks(cb Callbacks) (id TableID) {
	var st bridge.Status
	defer func() {
		if st != StatusOK {
			id = 0
		}
	}()
	defer guard("declare_callbacks", &st)

	flat := cb.Callbacks
	flat.CreateElement = nil
	if create := cb.CreateElement; create != nil {
		flat.CreateElement = func(ud bridge.UserData, name *bridge.QualifiedName) bridge.NodeRef {
			nid := NameID(names.add(name))
			return create(ud, nid, []byte(name.Namespace), []byte(name.Local))
		}
	}
	table, err := bridge.DeclareCallbacks(flat)
	if st = StatusOf(err); st != StatusOK {
		return 0
	}
	return TableID(tables.add(table))
}

// NewParser creates a parser on a declared table and returns its id, or 0.
func NewParser(table TableID, ud uintptr, root bridge.NodeRef, opts ...bridge.Option) (id ParserID) {
	var st bridge.Status
	defer func() {
		if st != StatusOK {
			id = 0
		}
	}()
	defer guard("new_parser", &st)

	t, ok := tables.get(uint64(table))
	if !ok {
		st = StatusInvalidHandle
		return 0
	}
	p, err := bridge.NewParser(t, bridge.UserData(ud), root, opts...)
	if st = StatusOf(err); st != StatusOK {
		return 0
	}
	return ParserID(parsers.add(p))
}

// FeedParser parses the next chunk of input.
func FeedParser(id ParserID, data []byte) (st bridge.Status) {
	defer guard("feed_parser", &st)

	p, ok := parsers.get(uint64(id))
	if !ok {
		return StatusInvalidHandle
	}
	return StatusOf(p.Feed(data))
}

// EndParser finishes the input of a parser.
func EndParser(id ParserID) (st bridge.Status) {
	defer guard("end_parser", &st)

	p, ok := parsers.get(uint64(id))
	if !ok {
		return StatusInvalidHandle
	}
	return StatusOf(p.End())
}

// DestroyParser destroys a parser and retires its id. Destroying an id
// twice reports StatusInvalidHandle.
func DestroyParser(id ParserID) (st bridge.Status) {
	defer guard("destroy_parser", &st)

	p, ok := parsers.remove(uint64(id))
	if !ok {
		return StatusInvalidHandle
	}
	return StatusOf(p.Destroy())
}

// DestroyQualifiedName gives back a name received by CreateElement.
func DestroyQualifiedName(id NameID) (st bridge.Status) {
	defer guard("destroy_qualified_name", &st)

	name, ok := names.remove(uint64(id))
	if !ok {
		return StatusInvalidHandle
	}
	return StatusOf(bridge.DestroyQualifiedName(name))
}

// LiveNames returns how many qualified names the host has not destroyed.
func LiveNames() int {
	return names.len()
}

// LiveParsers returns how many parsers have not been destroyed.
func LiveParsers() int {
	return parsers.len()
}
