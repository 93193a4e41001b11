package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hemlock/internal/ast"
	"os"
	"reflect"
)

// WalkAST recursively traverses an AST and serializes it into a machine-centric map structure.
// This output is designed for stability, canonical representation, and tool-chain consumption.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type":       "Program",
			"statements": walkStatements(n.Statements),
		}

	case *ast.LetStatement:
		return map[string]interface{}{
			"type":     "LetStatement",
			"position": n.Pos(),
			"const":    n.IsConst,
			"name":     n.Name.Value,
			"typeAnn":  walkType(n.Type),
			"value":    WalkAST(n.Value),
		}

	case *ast.ReturnStatement:
		return map[string]interface{}{
			"type":        "ReturnStatement",
			"position":    n.Pos(),
			"returnValue": WalkAST(n.ReturnValue),
		}

	case *ast.ExpressionStatement:
		return map[string]interface{}{
			"type":       "ExpressionStatement",
			"position":   n.Pos(),
			"expression": WalkAST(n.Expression),
		}

	case *ast.BlockStatement:
		return map[string]interface{}{
			"type":       "BlockStatement",
			"position":   n.Pos(),
			"statements": walkStatements(n.Statements),
		}

	case *ast.IfStatement:
		return map[string]interface{}{
			"type":        "IfStatement",
			"position":    n.Pos(),
			"condition":   WalkAST(n.Condition),
			"consequence": WalkAST(n.Consequence),
			"alternative": WalkAST(n.Alternative),
		}

	case *ast.WhileStatement:
		return map[string]interface{}{
			"type":      "WhileStatement",
			"position":  n.Pos(),
			"condition": WalkAST(n.Condition),
			"body":      WalkAST(n.Body),
		}

	case *ast.ForStatement:
		return map[string]interface{}{
			"type":      "ForStatement",
			"position":  n.Pos(),
			"init":      WalkAST(n.Init),
			"condition": WalkAST(n.Condition),
			"update":    WalkAST(n.Update),
			"body":      WalkAST(n.Body),
		}

	case *ast.ForInStatement:
		return map[string]interface{}{
			"type":     "ForInStatement",
			"position": n.Pos(),
			"key":      WalkAST(n.Key),
			"value":    WalkAST(n.Value),
			"iterable": WalkAST(n.Iterable),
			"body":     WalkAST(n.Body),
		}

	case *ast.BreakStatement:
		return map[string]interface{}{"type": "BreakStatement", "position": n.Pos()}

	case *ast.ContinueStatement:
		return map[string]interface{}{"type": "ContinueStatement", "position": n.Pos()}

	case *ast.TryStatement:
		return map[string]interface{}{
			"type":       "TryStatement",
			"position":   n.Pos(),
			"block":      WalkAST(n.Block),
			"catchParam": WalkAST(n.CatchParam),
			"catch":      WalkAST(n.CatchBlock),
			"finally":    WalkAST(n.FinallyBlock),
		}

	case *ast.ThrowStatement:
		return map[string]interface{}{
			"type":     "ThrowStatement",
			"position": n.Pos(),
			"value":    WalkAST(n.Value),
		}

	case *ast.DeferStatement:
		return map[string]interface{}{
			"type":     "DeferStatement",
			"position": n.Pos(),
			"call":     WalkAST(n.Call),
		}

	case *ast.SwitchStatement:
		cases := make([]interface{}, len(n.Cases))
		for i, c := range n.Cases {
			cases[i] = map[string]interface{}{
				"type":  "SwitchCase",
				"value": WalkAST(c.Value),
				"body":  walkStatements(c.Body),
			}
		}
		return map[string]interface{}{
			"type":     "SwitchStatement",
			"position": n.Pos(),
			"subject":  WalkAST(n.Subject),
			"cases":    cases,
		}

	case *ast.DefineStatement:
		fields := make([]interface{}, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = map[string]interface{}{
				"name":     f.Name.Value,
				"typeAnn":  walkType(f.Type),
				"optional": f.Optional,
				"default":  WalkAST(f.Default),
			}
		}
		return map[string]interface{}{
			"type":     "DefineStatement",
			"position": n.Pos(),
			"name":     n.Name.Value,
			"fields":   fields,
		}

	case *ast.EnumStatement:
		members := make([]interface{}, len(n.Members))
		for i, m := range n.Members {
			members[i] = map[string]interface{}{
				"name":  m.Name.Value,
				"value": WalkAST(m.Value),
			}
		}
		return map[string]interface{}{
			"type":     "EnumStatement",
			"position": n.Pos(),
			"name":     n.Name.Value,
			"members":  members,
		}

	case *ast.ImportStatement:
		return map[string]interface{}{
			"type":      "ImportStatement",
			"position":  n.Pos(),
			"path":      n.Path,
			"symbols":   walkSymbols(n.Symbols),
			"namespace": WalkAST(n.Namespace),
		}

	case *ast.ExportStatement:
		return map[string]interface{}{
			"type":        "ExportStatement",
			"position":    n.Pos(),
			"declaration": WalkAST(n.Declaration),
			"symbols":     walkSymbols(n.Symbols),
			"path":        n.Path,
		}

	case *ast.ImportFFIStatement:
		return map[string]interface{}{
			"type":     "ImportFFIStatement",
			"position": n.Pos(),
			"library":  n.Library,
		}

	case *ast.ExternStatement:
		return map[string]interface{}{
			"type":       "ExternStatement",
			"position":   n.Pos(),
			"name":       n.Name.Value,
			"parameters": walkParameters(n.Parameters),
			"returnType": walkType(n.ReturnType),
		}

	case *ast.Identifier:
		return map[string]interface{}{
			"type":  "Identifier",
			"value": n.Value,
		}

	case *ast.Boolean:
		return map[string]interface{}{
			"type":  "Boolean",
			"value": n.Value,
		}

	case *ast.Null:
		return map[string]interface{}{"type": "Null"}

	case *ast.Self:
		return map[string]interface{}{"type": "Self"}

	case *ast.NumberLiteral:
		if n.IsFloat {
			return map[string]interface{}{"type": "NumberLiteral", "float": true, "value": n.Float}
		}
		return map[string]interface{}{"type": "NumberLiteral", "float": false, "value": n.Int}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"type":  "StringLiteral",
			"value": n.Value,
		}

	case *ast.TemplateLiteral:
		parts := make([]interface{}, len(n.Parts))
		for i, part := range n.Parts {
			parts[i] = WalkAST(part)
		}
		return map[string]interface{}{
			"type":  "TemplateLiteral",
			"parts": parts,
		}

	case *ast.RuneLiteral:
		return map[string]interface{}{
			"type":  "RuneLiteral",
			"value": string(n.Value),
		}

	case *ast.TypeLiteral:
		return map[string]interface{}{
			"type": "TypeLiteral",
			"name": n.Name,
		}

	case *ast.PrefixExpression:
		return map[string]interface{}{
			"type":     "PrefixExpression",
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		}

	case *ast.InfixExpression:
		return map[string]interface{}{
			"type":     "InfixExpression",
			"operator": n.Operator,
			"left":     WalkAST(n.Left),
			"right":    WalkAST(n.Right),
		}

	case *ast.TernaryExpression:
		return map[string]interface{}{
			"type":        "TernaryExpression",
			"condition":   WalkAST(n.Condition),
			"consequence": WalkAST(n.Consequence),
			"alternative": WalkAST(n.Alternative),
		}

	case *ast.AssignExpression:
		return map[string]interface{}{
			"type":     "AssignExpression",
			"operator": n.Operator,
			"target":   WalkAST(n.Target),
			"value":    WalkAST(n.Value),
		}

	case *ast.UpdateExpression:
		return map[string]interface{}{
			"type":     "UpdateExpression",
			"operator": n.Operator,
			"prefix":   n.Prefix,
			"target":   WalkAST(n.Target),
		}

	case *ast.FunctionLiteral:
		return map[string]interface{}{
			"type":       "FunctionLiteral",
			"position":   n.Pos(),
			"name":       n.Name,
			"async":      n.IsAsync,
			"parameters": walkParameters(n.Parameters),
			"returnType": walkType(n.ReturnType),
			"body":       WalkAST(n.Body),
		}

	case *ast.CallExpression:
		args := make([]interface{}, len(n.Arguments))
		for i, a := range n.Arguments {
			args[i] = WalkAST(a)
		}
		return map[string]interface{}{
			"type":      "CallExpression",
			"position":  n.Pos(),
			"function":  WalkAST(n.Function),
			"arguments": args,
			"optional":  n.Optional,
		}

	case *ast.PropertyExpression:
		return map[string]interface{}{
			"type":     "PropertyExpression",
			"object":   WalkAST(n.Object),
			"property": n.Property,
			"optional": n.Optional,
		}

	case *ast.IndexExpression:
		return map[string]interface{}{
			"type":     "IndexExpression",
			"left":     WalkAST(n.Left),
			"index":    WalkAST(n.Index),
			"optional": n.Optional,
		}

	case *ast.ArrayLiteral:
		elements := make([]interface{}, len(n.Elements))
		for i, e := range n.Elements {
			elements[i] = WalkAST(e)
		}
		return map[string]interface{}{
			"type":     "ArrayLiteral",
			"elements": elements,
		}

	case *ast.ObjectLiteral:
		fields := make([]interface{}, len(n.Keys))
		for i, k := range n.Keys {
			fields[i] = map[string]interface{}{
				"key":   k,
				"value": WalkAST(n.Values[i]),
			}
		}
		return map[string]interface{}{
			"type":   "ObjectLiteral",
			"fields": fields,
		}

	case *ast.AwaitExpression:
		return map[string]interface{}{
			"type":  "AwaitExpression",
			"value": WalkAST(n.Value),
		}

	default:
		return map[string]interface{}{
			"type": "Unknown",
			"node": fmt.Sprintf("%T", n),
		}
	}
}

func walkStatements(statements []ast.Statement) []interface{} {
	result := make([]interface{}, len(statements))
	for i, s := range statements {
		result[i] = WalkAST(s)
	}
	return result
}

func walkType(t *ast.TypeAnnotation) interface{} {
	if t == nil {
		return nil
	}
	return t.String()
}

func walkParameters(params []*ast.FunctionParameter) []interface{} {
	result := make([]interface{}, len(params))
	for i, p := range params {
		result[i] = map[string]interface{}{
			"name":     p.Name.Value,
			"typeAnn":  walkType(p.Type),
			"optional": p.Optional,
			"default":  WalkAST(p.Default),
		}
	}
	return result
}

func walkSymbols(symbols []*ast.ImportSymbol) []interface{} {
	result := make([]interface{}, len(symbols))
	for i, s := range symbols {
		result[i] = s.String()
	}
	return result
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)
	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %v", err)
	}
	return buf.String(), nil
}

// WriteASTToJSON takes a root AST node and writes it to a JSON file.
func WriteASTToJSON(node ast.Node, filename string) error {
	rendered, err := RenderASTAsJSON(node)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("failed to write JSON: %v", err)
	}
	return nil
}
