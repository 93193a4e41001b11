package runtime

import (
	"errors"
	"hemlock/internal/ast"
	"hemlock/internal/object"
	"hemlock/internal/types"
	"log/slog"
)

// objectType is a `define` declaration registered by name.
type objectType struct {
	Name   string
	Fields []*ast.FieldDefinition
	env    *object.Environment
}

func (r *Runtime) defineType(node *ast.DefineStatement, env *object.Environment) {
	t := &objectType{Name: node.Name.Value, Fields: node.Fields, env: env.Retain()}

	r.typeMu.Lock()
	old, ok := r.types[t.Name]
	r.types[t.Name] = t
	r.typeMu.Unlock()

	if ok {
		old.env.Release()
	}
	slog.Debug("object type defined",
		slog.String("name", t.Name),
		slog.Int("fields", len(t.Fields)))
}

func (r *Runtime) lookupType(name string) (*objectType, bool) {
	r.typeMu.RLock()
	defer r.typeMu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// convert applies an annotation to an owned value and returns an owned value.
// On failure v is released and an exception is pending.
func (e *Evaluator) convert(v object.Object, ta *ast.TypeAnnotation, env *object.Environment) object.Object {
	if types.Canonical(ta.Name) == "array" {
		arr, ok := v.(*object.Array)
		if !ok {
			object.Release(v)
			return e.throwError(types.ErrConversion)
		}
		if ta.Element == nil {
			return arr
		}
		for i := range arr.Len() {
			cur, ok := arr.At(i)
			if !ok {
				break
			}
			el := e.convert(cur, ta.Element, env)
			if e.ctx.Throwing {
				object.Release(arr)
				return object.NULL
			}
			arr.Set(i, el)
			object.Release(el)
		}
		arr.ElementType = ta.Element.Name
		return arr
	}
	return e.convertName(v, ta.Name, env)
}

func (e *Evaluator) convertName(v object.Object, name string, env *object.Environment) object.Object {
	out, err := types.Convert(v, name)
	if errors.Is(err, types.ErrUnknownType) {
		return e.checkObjectType(v, name)
	}
	if err != nil {
		object.Release(v)
		return e.throwError(err)
	}
	if out != v {
		object.Release(v)
	}
	return out
}

// checkObjectType duck-types a record against a defined type, filling in
// optional fields, and stamps the record with the type name.
func (e *Evaluator) checkObjectType(v object.Object, name string) object.Object {
	def, ok := e.Runtime.lookupType(name)
	if !ok {
		object.Release(v)
		return e.Throw("Unknown type '%s'", name)
	}
	rec, ok := v.(*object.Record)
	if !ok {
		object.Release(v)
		return e.Throw("Expected object for type '%s', got non-object", name)
	}

	for _, f := range def.Fields {
		field := f.Name.Value
		value, present := rec.Get(field)
		if !present {
			if !f.Optional && f.Default == nil {
				object.Release(rec)
				return e.Throw("Object missing required field '%s' for type '%s'", field, name)
			}
			var d object.Object = object.NULL
			if f.Default != nil {
				d = e.evalExpr(f.Default, def.env)
				if e.ctx.Throwing {
					object.Release(d)
					object.Release(rec)
					return object.NULL
				}
			}
			rec.Set(field, d)
			object.Release(d)
			continue
		}
		if f.Type != nil && !fieldTypeMatches(value, f.Type.Name) {
			object.Release(rec)
			return e.Throw("Field '%s' has wrong type for '%s'", field, name)
		}
	}

	rec.TypeName = name
	return rec
}

func fieldTypeMatches(v object.Object, typeName string) bool {
	switch types.Canonical(typeName) {
	case "i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64":
		return object.IsInteger(v)
	case "f32", "f64":
		return object.IsFloat(v)
	case "bool":
		return v.Type() == object.BOOL_OBJ
	case "string":
		return v.Type() == object.STRING_OBJ
	case "ptr":
		return v.Type() == object.PTR_OBJ
	case "buffer":
		return v.Type() == object.BUFFER_OBJ
	case "rune":
		return v.Type() == object.RUNE_OBJ
	case "array":
		return v.Type() == object.ARRAY_OBJ
	}
	return true
}
