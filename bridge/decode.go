package bridge

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// streamDecoder decodes fed bytes to UTF-8 text across chunk boundaries. An
// incomplete sequence at the end of a chunk waits for the next one and is
// only replaced with U+FFFD if the stream ends first.
type streamDecoder struct {
	t     transform.Transformer
	carry []byte
	buf   []byte
}

func newStreamDecoder(label string) (*streamDecoder, error) {
	var enc encoding.Encoding = unicode.UTF8
	if label != "" {
		e, err := htmlindex.Get(label)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidArgument, "unknown encoding %q", label)
		}
		enc = e
	}
	return &streamDecoder{t: enc.NewDecoder(), buf: make([]byte, 4096)}, nil
}

func (d *streamDecoder) decode(chunk []byte, atEOF bool) string {
	src := chunk
	if len(d.carry) > 0 {
		src = append(d.carry, chunk...)
		d.carry = nil
	}

	var out strings.Builder
	for {
		nDst, nSrc, err := d.t.Transform(d.buf, src, atEOF)
		out.Write(d.buf[:nDst])
		src = src[nSrc:]
		switch {
		case err == nil:
		case err == transform.ErrShortDst:
			continue
		case err == transform.ErrShortSrc && !atEOF:
			d.carry = append([]byte(nil), src...)
		default:
			// An undecodable byte becomes U+FFFD and decoding resumes after it.
			out.WriteString("\uFFFD")
			d.t.Reset()
			if len(src) > 0 {
				src = src[1:]
				continue
			}
		}
		break
	}
	if atEOF {
		d.t.Reset()
	}
	return out.String()
}
