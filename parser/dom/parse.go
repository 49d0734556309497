package dom

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/heathj/html5bridge/bridge"
)

const defaultChunkSize = 32 * 1024

// Parse reads r to the end and returns the parsed document.
func Parse(r io.Reader, opts ...bridge.Option) (*Node, error) {
	h := NewHost()
	if err := h.Parse(r, 0, opts...); err != nil {
		return nil, err
	}
	return h.Document, nil
}

// ParseString parses s and returns the document.
func ParseString(s string, opts ...bridge.Option) (*Node, error) {
	return Parse(strings.NewReader(s), opts...)
}

// Parse feeds r to a bridge parser building into h, chunkSize bytes at a
// time. A chunkSize of zero or less picks a default.
func (h *Host) Parse(r io.Reader, chunkSize int, opts ...bridge.Option) (err error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	table, err := bridge.DeclareCallbacks(h.Callbacks())
	if err != nil {
		return err
	}
	root := h.Root()
	p, err := bridge.NewParser(table, 0, root, opts...)
	if err != nil {
		h.release(root)
		return err
	}
	defer func() {
		h.Document.Document.QuirksMode = p.QuirksMode()
		if derr := p.Destroy(); err == nil {
			err = derr
		}
	}()

	buf := make([]byte, chunkSize)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if err := p.Feed(buf[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return errors.Wrap(rerr, "read input")
		}
	}
	return p.End()
}
