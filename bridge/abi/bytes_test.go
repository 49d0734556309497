package abi

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestCopyBytes(t *testing.T) {
	t.Parallel()
	src := []byte("<p>hello")
	tests := []struct {
		name string
		p    unsafe.Pointer
		n    uint64
		want []byte
		ok   bool
	}{
		{name: "whole buffer", p: unsafe.Pointer(&src[0]), n: uint64(len(src)), want: src, ok: true},
		{name: "prefix", p: unsafe.Pointer(&src[0]), n: 3, want: []byte("<p>"), ok: true},
		{name: "empty", p: unsafe.Pointer(&src[0]), n: 0, ok: true},
		{name: "null empty", ok: true},
		{name: "null with length", n: 4},
		{name: "length past int", p: unsafe.Pointer(&src[0]), n: math.MaxInt + 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := CopyBytes(tt.p, tt.n)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCopyBytesOwnsCopy(t *testing.T) {
	t.Parallel()
	src := []byte("abc")
	got, ok := CopyBytes(unsafe.Pointer(&src[0]), uint64(len(src)))
	assert.True(t, ok)
	src[0] = 'x'
	assert.Equal(t, []byte("abc"), got, "the caller may reuse its buffer")
}
