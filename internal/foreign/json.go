package foreign

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hemlock/internal/object"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrCircular       = errors.New("serialize() detected circular reference")
	ErrUnserializable = errors.New("Cannot serialize value of this type")
)

func fnJsonSerialize() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "serialize", "(value)") {
				return object.NULL
			}
			text, err := Serialize(args[0])
			if err != nil {
				return throwErr(ctx, err)
			}
			return object.NewString(text)
		},
	}
}

func fnJsonDeserialize() *object.Builtin {
	return &object.Builtin{
		Fn: func(ctx object.BuiltinContext, args ...object.Object) object.Object {
			if !arity(ctx, args, 1, "deserialize", "(json string)") {
				return object.NULL
			}
			text, err := unpackString(args[0], "deserialize", "argument")
			if err != nil {
				return throwErr(ctx, err)
			}
			v, err := Deserialize(text)
			if err != nil {
				return throwErr(ctx, err)
			}
			return v
		},
	}
}

// Serialize renders records, arrays, strings, numbers, bools and null as
// compact JSON with record fields in insertion order.
func Serialize(v object.Object) (string, error) {
	var out bytes.Buffer
	s := &serializer{out: &out, visiting: make(map[object.Object]bool)}
	if err := s.value(v); err != nil {
		return "", err
	}
	return out.String(), nil
}

type serializer struct {
	out      *bytes.Buffer
	visiting map[object.Object]bool
}

func (s *serializer) value(v object.Object) error {
	switch v := v.(type) {
	case object.I8, object.I16, object.I32, object.I64,
		object.U8, object.U16, object.U32, object.U64:
		s.out.WriteString(v.Inspect())
	case object.F32, object.F64:
		f, _ := object.ToFloat64(v)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return ErrUnserializable
		}
		s.out.WriteString(v.Inspect())
	case object.Bool:
		s.out.WriteString(v.Inspect())
	case object.Null:
		s.out.WriteString("null")
	case *object.String:
		s.str(v.Value)
	case *object.Record:
		if s.visiting[v] {
			return ErrCircular
		}
		s.visiting[v] = true
		defer delete(s.visiting, v)
		s.out.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				s.out.WriteByte(',')
			}
			s.str(k)
			s.out.WriteByte(':')
			field, _ := v.Get(k)
			if err := s.value(field); err != nil {
				return err
			}
		}
		s.out.WriteByte('}')
	case *object.Array:
		if s.visiting[v] {
			return ErrCircular
		}
		s.visiting[v] = true
		defer delete(s.visiting, v)
		s.out.WriteByte('[')
		items := v.Snapshot()
		defer object.ReleaseAll(items)
		for i, e := range items {
			if i > 0 {
				s.out.WriteByte(',')
			}
			if err := s.value(e); err != nil {
				return err
			}
		}
		s.out.WriteByte(']')
	default:
		return ErrUnserializable
	}
	return nil
}

func (s *serializer) str(value string) {
	enc := json.NewEncoder(s.out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(value)
	// Encode terminates with a newline
	s.out.Truncate(s.out.Len() - 1)
}

// Deserialize parses JSON text. Integers become i32 when they fit, then
// i64; other numbers become f64.
func Deserialize(text string) (object.Object, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		object.Release(v)
		return nil, errors.New("Unexpected trailing characters in JSON")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (object.Object, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, jsonError(err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		return nil, fmt.Errorf("Unexpected character in JSON: '%c'", rune(t))
	case string:
		return object.NewString(t), nil
	case json.Number:
		return number(t)
	case bool:
		return object.Bool(t), nil
	case nil:
		return object.NULL, nil
	}
	return nil, fmt.Errorf("Unexpected token in JSON: %v", tok)
}

func parseObject(dec *json.Decoder) (object.Object, error) {
	rec := object.NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			object.Release(rec)
			return nil, jsonError(err)
		}
		key, ok := tok.(string)
		if !ok {
			object.Release(rec)
			return nil, errors.New("Expected '\"' in JSON")
		}
		v, err := parseValue(dec)
		if err != nil {
			object.Release(rec)
			return nil, err
		}
		rec.Set(key, v)
		object.Release(v)
	}
	if _, err := dec.Token(); err != nil {
		object.Release(rec)
		return nil, errors.New("Unterminated object in JSON")
	}
	return rec, nil
}

func parseArray(dec *json.Decoder) (object.Object, error) {
	var elements []object.Object
	for dec.More() {
		v, err := parseValue(dec)
		if err != nil {
			object.Release(object.NewArray(elements))
			return nil, err
		}
		elements = append(elements, v)
	}
	if _, err := dec.Token(); err != nil {
		object.Release(object.NewArray(elements))
		return nil, errors.New("Unterminated array in JSON")
	}
	return object.NewArray(elements), nil
}

func number(n json.Number) (object.Object, error) {
	text := n.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return object.I32(i), nil
			}
			return object.I64(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("Invalid number in JSON: %s", text)
	}
	return object.F64(f), nil
}

func jsonError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.New("Unexpected end of JSON input")
	}
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		return fmt.Errorf("Invalid JSON at offset %d: %s", syntax.Offset, syntax.Error())
	}
	return err
}
