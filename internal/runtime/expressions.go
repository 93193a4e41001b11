package runtime

import (
	"hemlock/internal/ast"
	"hemlock/internal/object"
	"hemlock/internal/types"
	"math"
	"strings"
)

func (e *Evaluator) evalExpr(node ast.Expression, env *object.Environment) object.Object {
	switch node := node.(type) {

	case *ast.Identifier:
		return e.evalIdentifier(node.Value, env)

	case *ast.Self:
		return e.evalIdentifier("self", env)

	case *ast.NumberLiteral:
		if node.IsFloat {
			return object.F64(node.Float)
		}
		if node.Int >= math.MinInt32 && node.Int <= math.MaxInt32 {
			return object.I32(node.Int)
		}
		return object.I64(node.Int)

	case *ast.StringLiteral:
		return object.NewString(node.Value)

	case *ast.RuneLiteral:
		return object.Rune(node.Value)

	case *ast.Boolean:
		return object.Bool(node.Value)

	case *ast.Null:
		return object.NULL

	case *ast.TypeLiteral:
		return object.TypeValue{Name: node.Name}

	case *ast.TemplateLiteral:
		return e.evalTemplate(node, env)

	case *ast.ArrayLiteral:
		elements := make([]object.Object, 0, len(node.Elements))
		for _, el := range node.Elements {
			v := e.evalExpr(el, env)
			if e.ctx.Throwing {
				object.Release(v)
				releaseAll(elements)
				return object.NULL
			}
			elements = append(elements, v)
		}
		return object.NewArray(elements)

	case *ast.ObjectLiteral:
		rec := object.NewRecord()
		for i, key := range node.Keys {
			v := e.evalExpr(node.Values[i], env)
			if e.ctx.Throwing {
				object.Release(v)
				object.Release(rec)
				return object.NULL
			}
			rec.Set(key, v)
			object.Release(v)
		}
		return rec

	case *ast.FunctionLiteral:
		fn := object.NewFunction(node, env)
		fn.File, fn.Source = e.file, e.src
		return fn

	case *ast.PrefixExpression:
		return e.evalPrefix(node, env)

	case *ast.InfixExpression:
		return e.evalInfix(node, env)

	case *ast.TernaryExpression:
		cond := e.evalExpr(node.Condition, env)
		if e.ctx.Throwing {
			object.Release(cond)
			return object.NULL
		}
		truthy := object.Truthy(cond)
		object.Release(cond)
		if truthy {
			return e.evalExpr(node.Consequence, env)
		}
		return e.evalExpr(node.Alternative, env)

	case *ast.AssignExpression:
		return e.evalAssign(node, env)

	case *ast.UpdateExpression:
		return e.evalUpdate(node, env)

	case *ast.CallExpression:
		return e.evalCall(node, env)

	case *ast.PropertyExpression:
		recv := e.evalExpr(node.Object, env)
		if e.ctx.Throwing {
			object.Release(recv)
			return object.NULL
		}
		defer object.Release(recv)
		if node.Optional && isNull(recv) {
			return object.NULL
		}
		return e.getProperty(recv, node.Property)

	case *ast.IndexExpression:
		recv := e.evalExpr(node.Left, env)
		if e.ctx.Throwing {
			object.Release(recv)
			return object.NULL
		}
		defer object.Release(recv)
		if node.Optional && isNull(recv) {
			return object.NULL
		}
		idx := e.evalExpr(node.Index, env)
		if e.ctx.Throwing {
			object.Release(idx)
			return object.NULL
		}
		defer object.Release(idx)
		return e.getIndex(recv, idx)

	case *ast.AwaitExpression:
		v := e.evalExpr(node.Value, env)
		if e.ctx.Throwing {
			object.Release(v)
			return object.NULL
		}
		task, ok := v.(*object.Task)
		if !ok {
			return v
		}
		defer object.Release(task)
		return e.joinTask(task)
	}

	return e.Throw("Unknown expression type %T", node)
}

func releaseAll(values []object.Object) {
	for _, v := range values {
		object.Release(v)
	}
}

func isNull(v object.Object) bool {
	_, ok := v.(object.Null)
	return ok || v == nil
}

func (e *Evaluator) evalIdentifier(name string, env *object.Environment) object.Object {
	v, err := env.Get(name)
	if err != nil {
		return e.throwError(err)
	}
	return v
}

func (e *Evaluator) evalTemplate(node *ast.TemplateLiteral, env *object.Environment) object.Object {
	var out strings.Builder
	for _, part := range node.Parts {
		if s, ok := part.(*ast.StringLiteral); ok {
			out.WriteString(s.Value)
			continue
		}
		v := e.evalExpr(part, env)
		if e.ctx.Throwing {
			object.Release(v)
			return object.NULL
		}
		out.WriteString(object.ToString(v))
		object.Release(v)
	}
	return object.NewString(out.String())
}

func (e *Evaluator) evalPrefix(node *ast.PrefixExpression, env *object.Environment) object.Object {
	right := e.evalExpr(node.Right, env)
	if e.ctx.Throwing {
		object.Release(right)
		return object.NULL
	}
	defer object.Release(right)

	var (
		out object.Object
		err error
	)
	switch node.Operator {
	case "!":
		return object.Bool(!object.Truthy(right))
	case "-":
		out, err = types.Negate(right)
	case "~":
		out, err = types.Complement(right)
	default:
		return e.Throw("Unknown prefix operator '%s'", node.Operator)
	}
	if err != nil {
		return e.throwError(err)
	}
	return out
}

func (e *Evaluator) evalInfix(node *ast.InfixExpression, env *object.Environment) object.Object {
	left := e.evalExpr(node.Left, env)
	if e.ctx.Throwing {
		object.Release(left)
		return object.NULL
	}

	switch node.Operator {
	case "&&", "||":
		truthy := object.Truthy(left)
		object.Release(left)
		if node.Operator == "&&" && !truthy {
			return object.FALSE
		}
		if node.Operator == "||" && truthy {
			return object.TRUE
		}
		right := e.evalExpr(node.Right, env)
		if e.ctx.Throwing {
			object.Release(right)
			return object.NULL
		}
		truthy = object.Truthy(right)
		object.Release(right)
		return object.Bool(truthy)
	case "??":
		if !isNull(left) {
			return left
		}
		return e.evalExpr(node.Right, env)
	}

	right := e.evalExpr(node.Right, env)
	if e.ctx.Throwing {
		object.Release(left)
		object.Release(right)
		return object.NULL
	}
	out := e.binary(node.Operator, left, right)
	object.Release(left)
	object.Release(right)
	return out
}

// binary applies op to borrowed operands.
func (e *Evaluator) binary(op string, left, right object.Object) object.Object {
	if op == "+" {
		if s, ok := concat(left, right); ok {
			return object.NewString(s)
		}
	}

	if p, ok := left.(object.Ptr); ok && object.IsInteger(right) {
		n, _ := object.ToInt64(right)
		switch op {
		case "+":
			return p.Add(int(n))
		case "-":
			return p.Add(-int(n))
		}
	}
	if p, ok := right.(object.Ptr); ok && object.IsInteger(left) && op == "+" {
		n, _ := object.ToInt64(left)
		return p.Add(int(n))
	}

	if object.IsNumeric(left) && object.IsNumeric(right) {
		out, err := types.Binary(op, left, right)
		if err != nil {
			return e.throwError(err)
		}
		return out
	}

	switch op {
	case "==":
		return object.Bool(object.Equal(left, right))
	case "!=":
		return object.Bool(!object.Equal(left, right))
	}

	if l, ok := left.(object.Rune); ok {
		if r, ok := right.(object.Rune); ok {
			out, err := types.Binary(op, object.I32(l), object.I32(r))
			if err != nil {
				return e.throwError(err)
			}
			if b, ok := out.(object.Bool); ok {
				return b
			}
			return e.Throw("Binary operation requires numeric operands")
		}
	}

	return e.throwError(types.ErrNotNumeric)
}

// concat implements string + string, string + rune and string + scalar in
// either order.
func concat(left, right object.Object) (string, bool) {
	ls, lok := left.(*object.String)
	rs, rok := right.(*object.String)
	switch {
	case lok && rok:
		return ls.Value + rs.Value, true
	case lok && concatenable(right):
		return ls.Value + object.ToString(right), true
	case rok && concatenable(left):
		return object.ToString(left) + rs.Value, true
	}
	return "", false
}

func concatenable(v object.Object) bool {
	switch v.(type) {
	case object.Rune, object.Bool:
		return true
	}
	return object.IsNumeric(v)
}

// indexOf converts an index operand to an int.
func (e *Evaluator) indexOf(idx object.Object) (int, bool) {
	if !object.IsInteger(idx) {
		e.Throw("Index must be an integer, got %s", object.TypeName(idx))
		return 0, false
	}
	i, _ := object.ToInt64(idx)
	return int(i), true
}

// getIndex reads recv[idx] and returns an owned value.
func (e *Evaluator) getIndex(recv, idx object.Object) object.Object {
	switch r := recv.(type) {
	case *object.Array:
		i, ok := e.indexOf(idx)
		if !ok {
			return object.NULL
		}
		if i < 0 {
			return e.Throw("Negative array index not supported")
		}
		v, ok := r.At(i)
		if !ok {
			return e.Throw("Array index %d out of bounds (length %d)", i, r.Len())
		}
		return v

	case *object.String:
		i, ok := e.indexOf(idx)
		if !ok {
			return object.NULL
		}
		runes := []rune(r.Value)
		if i < 0 || i >= len(runes) {
			return e.Throw("String index %d out of bounds (length %d)", i, len(runes))
		}
		return object.Rune(runes[i])

	case *object.Buffer:
		i, ok := e.indexOf(idx)
		if !ok {
			return object.NULL
		}
		if r.Freed {
			return e.throwError(object.ErrUseAfterFree)
		}
		if i < 0 || i >= len(r.Data) {
			return e.Throw("Buffer index %d out of bounds (length %d)", i, len(r.Data))
		}
		return object.U8(r.Data[i])

	case *object.Record:
		key, ok := idx.(*object.String)
		if !ok {
			return e.Throw("Object index must be a string, got %s", object.TypeName(idx))
		}
		if v, ok := r.Get(key.Value); ok {
			return object.Retain(v)
		}
		return object.NULL

	case object.Ptr:
		i, ok := e.indexOf(idx)
		if !ok {
			return object.NULL
		}
		b, err := r.Add(i).Bytes(1)
		if err != nil {
			return e.throwError(err)
		}
		return object.U8(b[0])
	}

	return e.Throw("Cannot index into %s", object.TypeName(recv))
}

// byteValue converts an integer or rune operand to a byte.
func (e *Evaluator) byteValue(v object.Object) (byte, bool) {
	if r, ok := v.(object.Rune); ok {
		return byte(r), true
	}
	if !object.IsInteger(v) {
		e.Throw("Byte value must be an integer, got %s", object.TypeName(v))
		return 0, false
	}
	i, _ := object.ToInt64(v)
	return byte(i), true
}

// setIndex stores a borrowed value at recv[idx].
func (e *Evaluator) setIndex(recv, idx, v object.Object) {
	switch r := recv.(type) {
	case *object.Array:
		i, ok := e.indexOf(idx)
		if !ok {
			return
		}
		if i < 0 {
			e.Throw("Negative array index not supported")
			return
		}
		if i >= object.MaxArrayLength {
			e.Throw("Array index %d exceeds maximum length %d", i, object.MaxArrayLength)
			return
		}
		if r.ElementType != "" {
			converted := e.convertName(object.Retain(v), r.ElementType, nil)
			if e.ctx.Throwing {
				return
			}
			r.Set(i, converted)
			object.Release(converted)
			return
		}
		r.Set(i, v)

	case *object.String:
		i, ok := e.indexOf(idx)
		if !ok {
			return
		}
		if i < 0 || i >= len(r.Value) {
			e.Throw("String index %d out of bounds (length %d)", i, len(r.Value))
			return
		}
		b, ok := e.byteValue(v)
		if !ok {
			return
		}
		data := []byte(r.Value)
		data[i] = b
		r.Value = string(data)

	case *object.Buffer:
		i, ok := e.indexOf(idx)
		if !ok {
			return
		}
		if r.Freed {
			e.throwError(object.ErrUseAfterFree)
			return
		}
		if i < 0 || i >= len(r.Data) {
			e.Throw("Buffer index %d out of bounds (length %d)", i, len(r.Data))
			return
		}
		if b, ok := e.byteValue(v); ok {
			r.Data[i] = b
		}

	case *object.Record:
		key, ok := idx.(*object.String)
		if !ok {
			e.Throw("Object index must be a string, got %s", object.TypeName(idx))
			return
		}
		r.Set(key.Value, v)

	case object.Ptr:
		i, ok := e.indexOf(idx)
		if !ok {
			return
		}
		b, err := r.Add(i).Bytes(1)
		if err != nil {
			e.throwError(err)
			return
		}
		if byteVal, ok := e.byteValue(v); ok {
			b[0] = byteVal
		}

	default:
		e.Throw("Cannot assign index on %s", object.TypeName(recv))
	}
}

// getProperty reads recv.name and returns an owned value.
func (e *Evaluator) getProperty(recv object.Object, name string) object.Object {
	switch r := recv.(type) {
	case *object.String:
		switch name {
		case "length":
			return object.I32(r.RuneCount())
		case "byte_length":
			return object.I32(len(r.Value))
		}
	case *object.Buffer:
		switch name {
		case "length":
			return object.I32(len(r.Data))
		case "capacity":
			return object.I32(cap(r.Data))
		}
	case *object.Array:
		if name == "length" {
			return object.I32(r.Len())
		}
	case *object.File:
		switch name {
		case "path":
			return object.NewString(r.Path)
		case "mode":
			return object.NewString(r.Mode)
		case "closed":
			return object.Bool(r.Closed)
		}
	case *object.Socket:
		switch name {
		case "address":
			return object.NewString(r.Address)
		case "closed":
			return object.Bool(r.Closed())
		}
	case *object.Channel:
		switch name {
		case "capacity":
			return object.I32(r.Capacity)
		case "length":
			return object.I32(r.Len())
		case "closed":
			return object.Bool(r.IsClosed())
		}
	case *object.Task:
		switch name {
		case "id":
			return object.I64(r.ID)
		case "state":
			return object.NewString(r.State().String())
		}
	case *object.Record:
		if v, ok := r.Get(name); ok {
			return object.Retain(v)
		}
		return e.Throw("Object has no field '%s'", name)
	}
	return e.Throw("Cannot access property '%s' on %s", name, object.TypeName(recv))
}

func (e *Evaluator) setProperty(recv object.Object, name string, v object.Object) {
	r, ok := recv.(*object.Record)
	if !ok {
		e.Throw("Only objects can have properties set")
		return
	}
	r.Set(name, v)
}

// location is an assignable place whose receiver and index were evaluated once.
type location struct {
	name string
	env  *object.Environment
	recv object.Object
	idx  object.Object
	prop string
	kind int
}

const (
	locVariable = iota
	locIndex
	locProperty
)

func (e *Evaluator) resolveLocation(target ast.Expression, env *object.Environment) (*location, bool) {
	switch t := target.(type) {
	case *ast.Identifier:
		return &location{kind: locVariable, name: t.Value, env: env}, true
	case *ast.IndexExpression:
		recv := e.evalExpr(t.Left, env)
		if e.ctx.Throwing {
			object.Release(recv)
			return nil, false
		}
		idx := e.evalExpr(t.Index, env)
		if e.ctx.Throwing {
			object.Release(recv)
			object.Release(idx)
			return nil, false
		}
		return &location{kind: locIndex, recv: recv, idx: idx}, true
	case *ast.PropertyExpression:
		recv := e.evalExpr(t.Object, env)
		if e.ctx.Throwing {
			object.Release(recv)
			return nil, false
		}
		return &location{kind: locProperty, recv: recv, prop: t.Property}, true
	}
	e.Throw("Invalid assignment target")
	return nil, false
}

func (l *location) release() {
	if l.recv != nil {
		object.Release(l.recv)
	}
	if l.idx != nil {
		object.Release(l.idx)
	}
}

func (e *Evaluator) load(l *location) object.Object {
	switch l.kind {
	case locIndex:
		return e.getIndex(l.recv, l.idx)
	case locProperty:
		return e.getProperty(l.recv, l.prop)
	}
	return e.evalIdentifier(l.name, l.env)
}

func (e *Evaluator) store(l *location, v object.Object) {
	switch l.kind {
	case locIndex:
		e.setIndex(l.recv, l.idx, v)
	case locProperty:
		e.setProperty(l.recv, l.prop, v)
	default:
		if err := l.env.Set(l.name, v); err != nil {
			e.throwError(err)
		}
	}
}

func (e *Evaluator) evalAssign(node *ast.AssignExpression, env *object.Environment) object.Object {
	loc, ok := e.resolveLocation(node.Target, env)
	if !ok {
		return object.NULL
	}
	defer loc.release()

	var current object.Object
	if node.Operator != "=" {
		current = e.load(loc)
		if e.ctx.Throwing {
			object.Release(current)
			return object.NULL
		}
		defer object.Release(current)
	}

	value := e.evalExpr(node.Value, env)
	if e.ctx.Throwing {
		object.Release(value)
		return object.NULL
	}
	if current != nil {
		combined := e.binary(strings.TrimSuffix(node.Operator, "="), current, value)
		object.Release(value)
		if e.ctx.Throwing {
			return object.NULL
		}
		value = combined
	}

	e.store(loc, value)
	if e.ctx.Throwing {
		object.Release(value)
		return object.NULL
	}
	return value
}

func (e *Evaluator) evalUpdate(node *ast.UpdateExpression, env *object.Environment) object.Object {
	loc, ok := e.resolveLocation(node.Target, env)
	if !ok {
		return object.NULL
	}
	defer loc.release()

	current := e.load(loc)
	if e.ctx.Throwing {
		object.Release(current)
		return object.NULL
	}
	delta := int64(1)
	if node.Operator == "--" {
		delta = -1
	}
	next, err := types.Step(current, delta)
	if err != nil {
		object.Release(current)
		return e.throwError(err)
	}
	e.store(loc, next)
	if e.ctx.Throwing {
		object.Release(current)
		return object.NULL
	}
	if node.Prefix {
		object.Release(current)
		return next
	}
	return current
}
