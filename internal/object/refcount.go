package object

import (
	"log/slog"
	"sync/atomic"
)

// live counts heap payloads that have been allocated and not yet freed.
var live atomic.Int64

// header carries the reference count shared by every heap-backed value.
type header struct {
	refs  atomic.Int32
	freed atomic.Bool
}

func (h *header) init() {
	h.refs.Store(1)
	live.Add(1)
}

func (h *header) hdr() *header { return h }

type heapObject interface {
	Object
	hdr() *header
	// children lists the values this payload owns one reference to.
	children() []Object
}

// destroyer is implemented by payloads holding host resources.
type destroyer interface {
	destroy()
}

// Retain adds one owner to v and returns it. Scalars are returned unchanged.
// A freed payload stays freed: the retain is logged and the count untouched.
func Retain(v Object) Object {
	h, ok := v.(heapObject)
	if !ok {
		return v
	}
	hd := h.hdr()
	if hd.freed.Load() {
		slog.Warn("retain of freed value", slog.String("type", string(v.Type())))
		return v
	}
	hd.refs.Add(1)
	return v
}

// Release drops one owner from v. At zero the payload is marked freed and
// every owned child is released. Function environments are not children.
func Release(v Object) {
	h, ok := v.(heapObject)
	if !ok {
		return
	}
	hd := h.hdr()
	if hd.freed.Load() {
		slog.Debug("release of freed value", slog.String("type", string(v.Type())))
		return
	}
	n := hd.refs.Add(-1)
	switch {
	case n == 0:
		if !hd.freed.CompareAndSwap(false, true) {
			return
		}
		live.Add(-1)
		for _, c := range h.children() {
			Release(c)
		}
		if d, ok := v.(destroyer); ok {
			d.destroy()
		}
	case n < 0:
		hd.refs.Add(1)
		slog.Debug("release below zero", slog.String("type", string(v.Type())))
	}
}

// RefCount reports the current count of a heap value, or 0 for scalars.
func RefCount(v Object) int32 {
	if h, ok := v.(heapObject); ok {
		return h.hdr().refs.Load()
	}
	return 0
}

// IsFreed reports whether a heap value's count has reached zero.
func IsFreed(v Object) bool {
	if h, ok := v.(heapObject); ok {
		return h.hdr().freed.Load()
	}
	return false
}

// IsHeap reports whether v carries a reference count.
func IsHeap(v Object) bool {
	_, ok := v.(heapObject)
	return ok
}

// Live returns the number of heap payloads currently allocated.
func Live() int64 {
	return live.Load()
}

// Free destroys an array or record immediately regardless of its count.
// Later retains and releases are no-ops on the emptied payload.
func Free(v Object) {
	h, ok := v.(heapObject)
	if !ok {
		return
	}
	hd := h.hdr()
	if !hd.freed.CompareAndSwap(false, true) {
		return
	}
	live.Add(-1)
	hd.refs.Store(0)
	switch v := v.(type) {
	case *Array:
		ReleaseAll(v.drain())
	case *Record:
		ReleaseAll(v.drain())
	case *Buffer:
		v.Free()
	default:
		ReleaseAll(h.children())
	}
}

// ReleaseAll releases every value in vs.
func ReleaseAll(vs []Object) {
	for _, v := range vs {
		Release(v)
	}
}
