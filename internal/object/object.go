package object

import (
	"bytes"
	"fmt"
	"hemlock/internal/ast"
	"math"
	"net"
	"os"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

const (
	I8_OBJ  = "i8"
	I16_OBJ = "i16"
	I32_OBJ = "i32"
	I64_OBJ = "i64"
	U8_OBJ  = "u8"
	U16_OBJ = "u16"
	U32_OBJ = "u32"
	U64_OBJ = "u64"
	F32_OBJ = "f32"
	F64_OBJ = "f64"

	BOOL_OBJ    = "bool"
	RUNE_OBJ    = "rune"
	NULL_OBJ    = "null"
	PTR_OBJ     = "ptr"
	TYPE_OBJ    = "type"
	BUILTIN_OBJ = "builtin"

	STRING_OBJ   = "string"
	BUFFER_OBJ   = "buffer"
	ARRAY_OBJ    = "array"
	RECORD_OBJ   = "object"
	FUNCTION_OBJ = "function"
	TASK_OBJ     = "task"
	CHANNEL_OBJ  = "channel"
	FILE_OBJ     = "file"
	SOCKET_OBJ   = "socket"
)

var (
	NULL  = Null{}
	TRUE  = Bool(true)
	FALSE = Bool(false)
)

type ObjectType string

// Object is the closed set of runtime values. Only this package can add variants.
type Object interface {
	Type() ObjectType
	Inspect() string
	value()
}

type I8 int8
type I16 int16
type I32 int32
type I64 int64
type U8 uint8
type U16 uint16
type U32 uint32
type U64 uint64
type F32 float32
type F64 float64
type Bool bool
type Rune rune
type Null struct{}

func (I8) Type() ObjectType   { return I8_OBJ }
func (I16) Type() ObjectType  { return I16_OBJ }
func (I32) Type() ObjectType  { return I32_OBJ }
func (I64) Type() ObjectType  { return I64_OBJ }
func (U8) Type() ObjectType   { return U8_OBJ }
func (U16) Type() ObjectType  { return U16_OBJ }
func (U32) Type() ObjectType  { return U32_OBJ }
func (U64) Type() ObjectType  { return U64_OBJ }
func (F32) Type() ObjectType  { return F32_OBJ }
func (F64) Type() ObjectType  { return F64_OBJ }
func (Bool) Type() ObjectType { return BOOL_OBJ }
func (Rune) Type() ObjectType { return RUNE_OBJ }
func (Null) Type() ObjectType { return NULL_OBJ }

func (v I8) Inspect() string  { return strconv.FormatInt(int64(v), 10) }
func (v I16) Inspect() string { return strconv.FormatInt(int64(v), 10) }
func (v I32) Inspect() string { return strconv.FormatInt(int64(v), 10) }
func (v I64) Inspect() string { return strconv.FormatInt(int64(v), 10) }
func (v U8) Inspect() string  { return strconv.FormatUint(uint64(v), 10) }
func (v U16) Inspect() string { return strconv.FormatUint(uint64(v), 10) }
func (v U32) Inspect() string { return strconv.FormatUint(uint64(v), 10) }
func (v U64) Inspect() string { return strconv.FormatUint(uint64(v), 10) }
func (v F32) Inspect() string { return formatFloat(float64(v), 32) }
func (v F64) Inspect() string { return formatFloat(float64(v), 64) }
func (v Bool) Inspect() string {
	if v {
		return "true"
	}
	return "false"
}
func (v Rune) Inspect() string {
	if v >= 32 && v < 127 {
		return "'" + string(rune(v)) + "'"
	}
	return fmt.Sprintf("U+%04X", uint32(v))
}
func (Null) Inspect() string { return "null" }

func (I8) value()   {}
func (I16) value()  {}
func (I32) value()  {}
func (I64) value()  {}
func (U8) value()   {}
func (U16) value()  {}
func (U32) value()  {}
func (U64) value()  {}
func (F32) value()  {}
func (F64) value()  {}
func (Bool) value() {}
func (Rune) value() {}
func (Null) value() {}

// formatFloat renders like C's %g: six significant digits, trailing zeros dropped.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', 6, bits)
}

// Ptr is a raw pointer into a Memory block. A nil Block is the null pointer.
type Ptr struct {
	Block  *Memory
	Offset int
}

func (Ptr) Type() ObjectType { return PTR_OBJ }
func (p Ptr) Inspect() string {
	if p.Block == nil {
		return "(nil)"
	}
	return fmt.Sprintf("0x%x", p.Address())
}
func (Ptr) value() {}

func (p Ptr) Address() uint64 {
	if p.Block == nil {
		return 0
	}
	return p.Block.Base + uint64(p.Offset)
}

func (p Ptr) IsNull() bool { return p.Block == nil }

// TypeValue is the runtime value of a type keyword such as i32 or string.
type TypeValue struct {
	Name string
}

func (TypeValue) Type() ObjectType  { return TYPE_OBJ }
func (t TypeValue) Inspect() string { return "<type " + t.Name + ">" }
func (TypeValue) value()            {}

type BuiltinFunction func(ctx BuiltinContext, args ...Object) Object

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "<builtin function>" }
func (b *Builtin) value()           {}

// heap values

type String struct {
	header
	Value string
}

func NewString(s string) *String {
	str := &String{Value: s}
	str.init()
	return str
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }
func (s *String) value()           {}
func (s *String) children() []Object {
	return nil
}

// RuneCount is the length of the string in codepoints.
func (s *String) RuneCount() int { return utf8.RuneCountInString(s.Value) }

type Buffer struct {
	header
	Data  []byte
	Base  uint64
	Freed bool
}

func NewBuffer(size int) *Buffer {
	b := &Buffer{Data: make([]byte, size), Base: nextAddress(size)}
	b.init()
	return b
}

func NewBufferFrom(data []byte) *Buffer {
	b := &Buffer{Data: data, Base: nextAddress(len(data))}
	b.init()
	return b
}

func (b *Buffer) Type() ObjectType { return BUFFER_OBJ }
func (b *Buffer) Inspect() string {
	return fmt.Sprintf("<buffer 0x%x length=%d capacity=%d>", b.Base, len(b.Data), cap(b.Data))
}
func (b *Buffer) value()             {}
func (b *Buffer) children() []Object { return nil }

// Free drops the buffer's storage; later accesses fail with use after free.
func (b *Buffer) Free() {
	b.Data = nil
	b.Freed = true
}

// MaxArrayLength bounds how far an index assignment may grow an array.
const MaxArrayLength = 1 << 26

// Array is a growable sequence of values. The element slice is guarded by mu
// so tasks sharing an array never observe it mid-update; element refcounts
// follow the usual ownership rules.
type Array struct {
	header
	mu    sync.RWMutex
	items []Object
	// ElementType is set for typed arrays (array<T>) and checked on push.
	ElementType string
}

// NewArray takes ownership of the given elements.
func NewArray(elements []Object) *Array {
	if elements == nil {
		elements = []Object{}
	}
	a := &Array{items: elements}
	a.init()
	return a
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	return a.render(Inspect)
}
func (a *Array) value() {}
func (a *Array) children() []Object {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items)
}

func (a *Array) render(f func(Object) string) string {
	items := a.Snapshot()
	defer ReleaseAll(items)

	var out bytes.Buffer
	out.WriteString("[")
	for i, e := range items {
		if i > 0 {
			out.WriteString(", ")
		}
		if e == Object(a) {
			out.WriteString("[...]")
			continue
		}
		out.WriteString(f(e))
	}
	out.WriteString("]")
	return out.String()
}

func (a *Array) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// At returns an owned reference to the element at i.
func (a *Array) At(i int) (Object, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	return Retain(a.items[i]), true
}

// Snapshot returns the current elements, each retained for the caller.
func (a *Array) Snapshot() []Object {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Object, len(a.items))
	for i, e := range a.items {
		out[i] = Retain(e)
	}
	return out
}

// Set stores v at i, growing the array with nulls as needed.
func (a *Array) Set(i int, v Object) {
	a.mu.Lock()
	for len(a.items) <= i {
		a.items = append(a.items, NULL)
	}
	old := a.items[i]
	a.items[i] = Retain(v)
	a.mu.Unlock()
	Release(old)
}

func (a *Array) Push(v Object) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, Retain(v))
}

// Insert retains v and places it before index i.
func (a *Array) Insert(i int, v Object) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i > len(a.items) {
		return false
	}
	a.items = slices.Insert(a.items, i, Retain(v))
	return true
}

// Remove takes the element at i out of the array and hands it to the caller.
func (a *Array) Remove(i int) (Object, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.items) {
		return nil, false
	}
	v := a.items[i]
	a.items = slices.Delete(a.items, i, i+1)
	return v, true
}

func (a *Array) Pop() (Object, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.items) == 0 {
		return nil, false
	}
	v := a.items[len(a.items)-1]
	a.items = a.items[:len(a.items)-1]
	return v, true
}

func (a *Array) Shift() (Object, bool) {
	return a.Remove(0)
}

func (a *Array) Reverse() {
	a.mu.Lock()
	defer a.mu.Unlock()
	slices.Reverse(a.items)
}

// Clear empties the array, releasing every element.
func (a *Array) Clear() {
	ReleaseAll(a.drain())
}

func (a *Array) drain() []Object {
	a.mu.Lock()
	defer a.mu.Unlock()
	old := a.items
	a.items = []Object{}
	return old
}

// Record is a heap object with ordered named fields, guarded like Array.
type Record struct {
	header
	TypeName string
	mu       sync.RWMutex
	keys     []string
	fields   map[string]Object
}

func NewRecord() *Record {
	r := &Record{fields: make(map[string]Object)}
	r.init()
	return r
}

func (r *Record) Type() ObjectType { return RECORD_OBJ }
func (r *Record) Inspect() string {
	if r.TypeName != "" {
		return "<object:" + r.TypeName + ">"
	}
	return "<object>"
}
func (r *Record) value() {}
func (r *Record) children() []Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Object, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.fields[k])
	}
	return out
}

// Get returns the field value without retaining it.
func (r *Record) Get(name string) (Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.fields[name]
	return v, ok
}

// Set retains v and stores it, releasing any previous value.
func (r *Record) Set(name string, v Object) {
	r.mu.Lock()
	old, ok := r.fields[name]
	r.fields[name] = Retain(v)
	if !ok {
		r.keys = append(r.keys, name)
	}
	r.mu.Unlock()
	if ok {
		Release(old)
	}
}

func (r *Record) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

func (r *Record) drain() []Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := make([]Object, 0, len(r.keys))
	for _, k := range r.keys {
		old = append(old, r.fields[k])
	}
	r.keys = nil
	r.fields = make(map[string]Object)
	return old
}

type Function struct {
	header
	Name       string
	Parameters []*ast.FunctionParameter
	ReturnType *ast.TypeAnnotation
	Body       *ast.BlockStatement
	IsAsync    bool
	// File and Source locate the defining module for stack traces.
	File   string
	Source string
	// Env is the captured environment. It is retained on capture and only
	// released by BreakCycles, never by the function's own destruction.
	Env *Environment
}

func NewFunction(lit *ast.FunctionLiteral, env *Environment) *Function {
	fn := &Function{
		Name:       lit.Name,
		Parameters: lit.Parameters,
		ReturnType: lit.ReturnType,
		Body:       lit.Body,
		IsAsync:    lit.IsAsync,
		Env:        env,
	}
	fn.init()
	if env != nil {
		env.Retain()
	}
	return fn
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string  { return "<function>" }
func (f *Function) value()           {}
func (f *Function) children() []Object {
	return nil
}

func (f *Function) MinArity() int {
	n := 0
	for _, p := range f.Parameters {
		if p.Optional || p.Default != nil {
			break
		}
		n++
	}
	return n
}

type File struct {
	header
	Path   string
	Mode   string
	Handle *os.File
	Closed bool
}

func NewFile(path, mode string, handle *os.File) *File {
	f := &File{Path: path, Mode: mode, Handle: handle}
	f.init()
	return f
}

func (f *File) Type() ObjectType { return FILE_OBJ }
func (f *File) Inspect() string {
	if f.Closed {
		return "<file (closed)>"
	}
	return fmt.Sprintf("<file '%s' mode='%s'>", f.Path, f.Mode)
}
func (f *File) value()             {}
func (f *File) children() []Object { return nil }

func (f *File) Close() error {
	if f.Closed {
		return nil
	}
	f.Closed = true
	return f.Handle.Close()
}

func (f *File) destroy() {
	_ = f.Close()
}

// Socket is a TCP connection or a listening endpoint. Exactly one of Conn
// and Listener is set.
type Socket struct {
	header
	Address  string
	Conn     net.Conn
	Listener net.Listener
	closed   atomic.Bool
}

func NewConnSocket(conn net.Conn) *Socket {
	s := &Socket{Address: conn.RemoteAddr().String(), Conn: conn}
	s.init()
	return s
}

func NewListenerSocket(l net.Listener) *Socket {
	s := &Socket{Address: l.Addr().String(), Listener: l}
	s.init()
	return s
}

func (s *Socket) Type() ObjectType { return SOCKET_OBJ }
func (s *Socket) Inspect() string {
	kind := "connection"
	if s.Listener != nil {
		kind = "listener"
	}
	if s.Closed() {
		return fmt.Sprintf("<socket %s (closed)>", kind)
	}
	return fmt.Sprintf("<socket %s %s>", kind, s.Address)
}
func (s *Socket) value()             {}
func (s *Socket) children() []Object { return nil }

func (s *Socket) Closed() bool { return s.closed.Load() }

// Close is safe to call from several tasks; only the first call closes.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.Listener != nil {
		return s.Listener.Close()
	}
	return s.Conn.Close()
}

func (s *Socket) destroy() {
	_ = s.Close()
}

var address atomic.Uint64

func init() {
	address.Store(0x10000000)
}

// nextAddress hands out synthetic, 16-byte aligned base addresses.
func nextAddress(size int) uint64 {
	n := uint64(size+15) &^ 15
	if n == 0 {
		n = 16
	}
	return address.Add(n) - n
}

// Inspect renders v for print.
func Inspect(v Object) string {
	if v == nil {
		return "null"
	}
	return v.Inspect()
}

// ToString renders v for concatenation and interpolation: runes become their
// character, everything else prints as Inspect.
func ToString(v Object) string {
	switch v := v.(type) {
	case Rune:
		return string(rune(v))
	case *Array:
		return v.render(ToString)
	case nil:
		return "null"
	default:
		return v.Inspect()
	}
}

// TypeName is the name reported by typeof.
func TypeName(v Object) string {
	switch v := v.(type) {
	case *Record:
		if v.TypeName != "" {
			return v.TypeName
		}
		return RECORD_OBJ
	case nil:
		return NULL_OBJ
	default:
		return string(v.Type())
	}
}
