package foreign

import (
	"hemlock/internal/object"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stringMethod indexes by codepoint except find and byte_at, which work on
// byte offsets.
func stringMethod(ctx object.BuiltinContext, s *object.String, name string, args []object.Object) (object.Object, bool) {
	str := s.Value

	switch name {
	case "substr":
		if !arity(ctx, args, 2, "substr", "(start, length)") {
			return object.NULL, true
		}
		if !object.IsInteger(args[0]) || !object.IsInteger(args[1]) {
			return ctx.Throw("substr() arguments must be integers"), true
		}
		runes := []rune(str)
		st, _ := object.ToInt64(args[0])
		n, _ := object.ToInt64(args[1])
		start, count := int(st), int(n)
		if start < 0 || start >= len(runes) {
			return ctx.Throw("substr() start index %d out of bounds (length=%d)", start, len(runes)), true
		}
		if count < 0 {
			return ctx.Throw("substr() length cannot be negative"), true
		}
		end := start + min(count, len(runes)-start)
		return object.NewString(string(runes[start:end])), true

	case "slice":
		runes := []rune(str)
		start, end, ok := bounds(ctx, "slice", args, len(runes))
		if !ok {
			return object.NULL, true
		}
		return object.NewString(string(runes[start:end])), true

	case "find", "contains", "starts_with", "ends_with":
		usage := "(substring)"
		switch name {
		case "starts_with":
			usage = "(prefix)"
		case "ends_with":
			usage = "(suffix)"
		}
		if !arity(ctx, args, 1, name, usage) {
			return object.NULL, true
		}
		needle, err := unpackString(args[0], name, "argument")
		if err != nil {
			return throwErr(ctx, err), true
		}
		switch name {
		case "find":
			return object.I32(strings.Index(str, needle)), true
		case "contains":
			return object.Bool(strings.Contains(str, needle)), true
		case "starts_with":
			return object.Bool(strings.HasPrefix(str, needle)), true
		}
		return object.Bool(strings.HasSuffix(str, needle)), true

	case "split":
		if !arity(ctx, args, 1, "split", "(delimiter)") {
			return object.NULL, true
		}
		sep, err := unpackString(args[0], "split", "delimiter")
		if err != nil {
			return throwErr(ctx, err), true
		}
		return stringArray(strings.Split(str, sep)), true

	case "trim":
		if !arity(ctx, args, 0, "trim", "") {
			return object.NULL, true
		}
		return object.NewString(strings.Trim(str, " \t\n\r")), true

	case "to_upper":
		if !arity(ctx, args, 0, "to_upper", "") {
			return object.NULL, true
		}
		// casers are stateful, one per call
		return object.NewString(cases.Upper(language.Und).String(str)), true

	case "to_lower":
		if !arity(ctx, args, 0, "to_lower", "") {
			return object.NULL, true
		}
		return object.NewString(cases.Lower(language.Und).String(str)), true

	case "replace", "replace_all":
		if !arity(ctx, args, 2, name, "(old, new)") {
			return object.NULL, true
		}
		from, ok1 := args[0].(*object.String)
		to, ok2 := args[1].(*object.String)
		if !ok1 || !ok2 {
			return ctx.Throw("%s() arguments must be strings", name), true
		}
		if from.Value == "" {
			return object.NewString(str), true
		}
		n := 1
		if name == "replace_all" {
			n = -1
		}
		return object.NewString(strings.Replace(str, from.Value, to.Value, n)), true

	case "repeat":
		if !arity(ctx, args, 1, "repeat", "(count)") {
			return object.NULL, true
		}
		n, err := unpackInt(args[0], "repeat", "count")
		if err != nil {
			return throwErr(ctx, err), true
		}
		if n < 0 {
			return ctx.Throw("repeat() count cannot be negative"), true
		}
		if len(str) > 0 && n > object.MaxAllocSize/len(str) {
			return ctx.Throw("repeat() result exceeds maximum length of %d bytes", object.MaxAllocSize), true
		}
		return object.NewString(strings.Repeat(str, n)), true

	case "char_at":
		if !arity(ctx, args, 1, "char_at", "(index)") {
			return object.NULL, true
		}
		i, err := unpackInt(args[0], "char_at", "index")
		if err != nil {
			return throwErr(ctx, err), true
		}
		runes := []rune(str)
		if i < 0 || i >= len(runes) {
			return ctx.Throw("char_at() index %d out of bounds (length=%d)", i, len(runes)), true
		}
		return object.Rune(runes[i]), true

	case "byte_at":
		if !arity(ctx, args, 1, "byte_at", "(index)") {
			return object.NULL, true
		}
		i, err := unpackInt(args[0], "byte_at", "index")
		if err != nil {
			return throwErr(ctx, err), true
		}
		if i < 0 || i >= len(str) {
			return ctx.Throw("byte_at() index %d out of bounds (byte_length=%d)", i, len(str)), true
		}
		return object.U8(str[i]), true

	case "chars":
		if !arity(ctx, args, 0, "chars", "") {
			return object.NULL, true
		}
		elements := make([]object.Object, 0, utf8.RuneCountInString(str))
		for _, r := range str {
			elements = append(elements, object.Rune(r))
		}
		return object.NewArray(elements), true

	case "bytes":
		if !arity(ctx, args, 0, "bytes", "") {
			return object.NULL, true
		}
		elements := make([]object.Object, len(str))
		for i := 0; i < len(str); i++ {
			elements[i] = object.U8(str[i])
		}
		return object.NewArray(elements), true

	case "to_bytes":
		if !arity(ctx, args, 0, "to_bytes", "") {
			return object.NULL, true
		}
		return object.NewBufferFrom([]byte(str)), true

	case "deserialize":
		if !arity(ctx, args, 0, "deserialize", "") {
			return object.NULL, true
		}
		v, err := Deserialize(str)
		if err != nil {
			return throwErr(ctx, err), true
		}
		return v, true
	}
	return nil, false
}
