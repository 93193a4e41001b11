package object

import (
	"errors"
	"fmt"
)

// MaxAllocSize is the largest block, buffer or array a program may request.
const MaxAllocSize = 1 << 30

var (
	ErrUseAfterFree = errors.New("Use after free")
	ErrNullPointer  = errors.New("Null pointer dereference")
)

// Memory is a raw block handed out by alloc and talloc.
type Memory struct {
	Data  []byte
	Base  uint64
	Freed bool
}

func Alloc(size int) Ptr {
	return Ptr{Block: &Memory{Data: make([]byte, size), Base: nextAddress(size)}}
}

func (p Ptr) Add(n int) Ptr {
	if p.Block == nil {
		return p
	}
	return Ptr{Block: p.Block, Offset: p.Offset + n}
}

// Bytes returns n bytes starting at the pointer.
func (p Ptr) Bytes(n int) ([]byte, error) {
	if p.Block == nil {
		return nil, ErrNullPointer
	}
	if p.Block.Freed {
		return nil, ErrUseAfterFree
	}
	if p.Offset < 0 || n < 0 || p.Offset > len(p.Block.Data) || n > len(p.Block.Data)-p.Offset {
		return nil, fmt.Errorf("pointer access out of bounds: offset %d size %d (block size %d)", p.Offset, n, len(p.Block.Data))
	}
	return p.Block.Data[p.Offset : p.Offset+n], nil
}

func (p Ptr) Free() error {
	if p.Block == nil {
		return ErrNullPointer
	}
	if p.Block.Freed {
		return ErrUseAfterFree
	}
	p.Block.Freed = true
	p.Block.Data = nil
	return nil
}

// Realloc returns a pointer to a new block of size bytes holding the old contents.
func (p Ptr) Realloc(size int) (Ptr, error) {
	if p.Block == nil {
		return Alloc(size), nil
	}
	if p.Block.Freed {
		return Ptr{}, ErrUseAfterFree
	}
	next := Alloc(size)
	copy(next.Block.Data, p.Block.Data[p.Offset:])
	p.Block.Freed = true
	p.Block.Data = nil
	return next, nil
}
