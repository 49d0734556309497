package abi

import (
	"math"
	"unsafe"
)

// CopyBytes copies the n bytes at p into Go memory, for input handed over
// as a pointer and length. It reports false when p is nil with a non-zero
// length, or when n does not fit in an int.
func CopyBytes(p unsafe.Pointer, n uint64) ([]byte, bool) {
	switch {
	case n > math.MaxInt:
		return nil, false
	case n == 0:
		return nil, true
	case p == nil:
		return nil, false
	}
	return append([]byte(nil), unsafe.Slice((*byte)(p), int(n))...), true
}
