package abi

import "sync"

// registry maps ids to values for callers that can only hold integers.
// An id packs a slot index with the slot's generation, so an id that was
// removed, or never issued, is rejected instead of aliasing a newer value.
type registry[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	live  int
}

type slot[T any] struct {
	val  T
	gen  uint32
	used bool
}

func makeID(idx, gen uint32) uint64 {
	return uint64(gen)<<32 | uint64(idx+1)
}

func splitID(id uint64) (uint32, uint32, bool) {
	low := uint32(id)
	if low == 0 {
		return 0, 0, false
	}
	return low - 1, uint32(id >> 32), true
}

func (r *registry[T]) add(v T) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot[T]{gen: 1})
	}
	s := &r.slots[idx]
	s.val, s.used = v, true
	r.live++
	return makeID(idx, s.gen)
}

func (r *registry[T]) lookup(id uint64) (*slot[T], uint32, bool) {
	idx, gen, ok := splitID(id)
	if !ok || int(idx) >= len(r.slots) {
		return nil, 0, false
	}
	s := &r.slots[idx]
	if !s.used || s.gen != gen {
		return nil, 0, false
	}
	return s, idx, true
}

func (r *registry[T]) get(id uint64) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, _, ok := r.lookup(id)
	if !ok {
		var zero T
		return zero, false
	}
	return s.val, true
}

func (r *registry[T]) remove(id uint64) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	s, idx, ok := r.lookup(id)
	if !ok {
		return zero, false
	}
	v := s.val
	s.val, s.used = zero, false
	s.gen++
	r.free = append(r.free, idx)
	r.live--
	return v, true
}

func (r *registry[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}
