package ast

import (
	"bytes"
	"hemlock/internal/token"
	"strconv"
	"strings"
)

// The base Node interface
type Node interface {
	TokenLiteral() string
	String() string
	Pos() int
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	} else {
		return ""
	}
}

func (p *Program) Pos() int { return 0 }

func (p *Program) String() string {
	var out bytes.Buffer

	for _, s := range p.Statements {
		out.WriteString(s.String())
	}

	return out.String()
}

// TypeAnnotation is a type written after ':' in declarations, parameters and
// return positions. Element is set for array<T>.
type TypeAnnotation struct {
	Token   token.Token
	Name    string
	Element *TypeAnnotation
}

func (ta *TypeAnnotation) String() string {
	if ta == nil {
		return ""
	}
	if ta.Element != nil {
		return ta.Name + "<" + ta.Element.String() + ">"
	}
	return ta.Name
}

// Statements

type LetStatement struct {
	Token   token.Token // the 'let' or 'const' token
	IsConst bool
	Name    *Identifier
	Type    *TypeAnnotation
	Value   Expression
}

func (ls *LetStatement) statementNode()       {}
func (ls *LetStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LetStatement) Pos() int             { return ls.Token.Position }
func (ls *LetStatement) String() string {
	var out bytes.Buffer

	out.WriteString(ls.TokenLiteral() + " ")
	out.WriteString(ls.Name.String())
	if ls.Type != nil {
		out.WriteString(": " + ls.Type.String())
	}
	if ls.Value != nil {
		out.WriteString(" = ")
		out.WriteString(ls.Value.String())
	}
	out.WriteString(";")

	return out.String()
}

type ReturnStatement struct {
	Token       token.Token // the 'return' token
	ReturnValue Expression
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Pos() int             { return rs.Token.Position }
func (rs *ReturnStatement) String() string {
	var out bytes.Buffer

	out.WriteString(rs.TokenLiteral())

	if rs.ReturnValue != nil {
		out.WriteString(" ")
		out.WriteString(rs.ReturnValue.String())
	}

	out.WriteString(";")

	return out.String()
}

type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Pos() int             { return es.Token.Position }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String() + ";"
	}
	return ""
}

type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Pos() int             { return bs.Token.Position }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer

	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")

	return out.String()
}

type IfStatement struct {
	Token       token.Token // the 'if' token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Statement // *BlockStatement or *IfStatement for else-if chains
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Pos() int             { return is.Token.Position }
func (is *IfStatement) String() string {
	var out bytes.Buffer

	out.WriteString("if (")
	out.WriteString(is.Condition.String())
	out.WriteString(") ")
	out.WriteString(is.Consequence.String())

	if is.Alternative != nil {
		out.WriteString(" else ")
		out.WriteString(is.Alternative.String())
	}

	return out.String()
}

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Pos() int             { return ws.Token.Position }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Condition.String() + ") " + ws.Body.String()
}

// ForStatement is the C-style loop. Any of Init, Condition and Update may be nil.
type ForStatement struct {
	Token     token.Token
	Init      Statement
	Condition Expression
	Update    Expression
	Body      *BlockStatement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Pos() int             { return fs.Token.Position }
func (fs *ForStatement) String() string {
	var out bytes.Buffer

	out.WriteString("for (")
	if fs.Init != nil {
		out.WriteString(strings.TrimSuffix(fs.Init.String(), ";"))
	}
	out.WriteString("; ")
	if fs.Condition != nil {
		out.WriteString(fs.Condition.String())
	}
	out.WriteString("; ")
	if fs.Update != nil {
		out.WriteString(fs.Update.String())
	}
	out.WriteString(") ")
	out.WriteString(fs.Body.String())

	return out.String()
}

// ForInStatement iterates arrays, objects and strings. Key is nil for the
// single-variable form.
type ForInStatement struct {
	Token    token.Token
	Key      *Identifier
	Value    *Identifier
	Iterable Expression
	Body     *BlockStatement
}

func (fs *ForInStatement) statementNode()       {}
func (fs *ForInStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForInStatement) Pos() int             { return fs.Token.Position }
func (fs *ForInStatement) String() string {
	var out bytes.Buffer

	out.WriteString("for (let ")
	if fs.Key != nil {
		out.WriteString(fs.Key.String() + ", ")
	}
	out.WriteString(fs.Value.String())
	out.WriteString(" in ")
	out.WriteString(fs.Iterable.String())
	out.WriteString(") ")
	out.WriteString(fs.Body.String())

	return out.String()
}

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Pos() int             { return bs.Token.Position }
func (bs *BreakStatement) String() string       { return "break;" }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Pos() int             { return cs.Token.Position }
func (cs *ContinueStatement) String() string       { return "continue;" }

type TryStatement struct {
	Token        token.Token
	Block        *BlockStatement
	CatchParam   *Identifier // nil when the catch clause binds nothing
	CatchBlock   *BlockStatement
	FinallyBlock *BlockStatement
}

func (ts *TryStatement) statementNode()       {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) Pos() int             { return ts.Token.Position }
func (ts *TryStatement) String() string {
	var out bytes.Buffer

	out.WriteString("try ")
	out.WriteString(ts.Block.String())
	if ts.CatchBlock != nil {
		out.WriteString(" catch ")
		if ts.CatchParam != nil {
			out.WriteString("(" + ts.CatchParam.String() + ") ")
		}
		out.WriteString(ts.CatchBlock.String())
	}
	if ts.FinallyBlock != nil {
		out.WriteString(" finally ")
		out.WriteString(ts.FinallyBlock.String())
	}

	return out.String()
}

type ThrowStatement struct {
	Token token.Token
	Value Expression
}

func (ts *ThrowStatement) statementNode()       {}
func (ts *ThrowStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *ThrowStatement) Pos() int             { return ts.Token.Position }
func (ts *ThrowStatement) String() string       { return "throw " + ts.Value.String() + ";" }

type DeferStatement struct {
	Token token.Token
	Call  Expression
}

func (ds *DeferStatement) statementNode()       {}
func (ds *DeferStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DeferStatement) Pos() int             { return ds.Token.Position }
func (ds *DeferStatement) String() string       { return "defer " + ds.Call.String() + ";" }

// SwitchCase with a nil Value is the default clause.
type SwitchCase struct {
	Token token.Token
	Value Expression
	Body  []Statement
}

func (sc *SwitchCase) String() string {
	var out bytes.Buffer

	if sc.Value == nil {
		out.WriteString("default:")
	} else {
		out.WriteString("case " + sc.Value.String() + ":")
	}
	for _, s := range sc.Body {
		out.WriteString(" " + s.String())
	}

	return out.String()
}

type SwitchStatement struct {
	Token   token.Token
	Subject Expression
	Cases   []*SwitchCase
}

func (ss *SwitchStatement) statementNode()       {}
func (ss *SwitchStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *SwitchStatement) Pos() int             { return ss.Token.Position }
func (ss *SwitchStatement) String() string {
	var out bytes.Buffer

	out.WriteString("switch (" + ss.Subject.String() + ") { ")
	for _, c := range ss.Cases {
		out.WriteString(c.String())
		out.WriteString(" ")
	}
	out.WriteString("}")

	return out.String()
}

type FieldDefinition struct {
	Name     *Identifier
	Type     *TypeAnnotation
	Optional bool
	Default  Expression
}

func (fd *FieldDefinition) String() string {
	var out bytes.Buffer

	out.WriteString(fd.Name.String())
	if fd.Optional {
		out.WriteString("?")
	}
	if fd.Type != nil {
		out.WriteString(": " + fd.Type.String())
	}
	if fd.Default != nil {
		out.WriteString(" = " + fd.Default.String())
	}

	return out.String()
}

// DefineStatement declares a named object type checked by duck typing.
type DefineStatement struct {
	Token  token.Token
	Name   *Identifier
	Fields []*FieldDefinition
}

func (ds *DefineStatement) statementNode()       {}
func (ds *DefineStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DefineStatement) Pos() int             { return ds.Token.Position }
func (ds *DefineStatement) String() string {
	fields := []string{}
	for _, f := range ds.Fields {
		fields = append(fields, f.String())
	}
	return "define " + ds.Name.String() + " { " + strings.Join(fields, ", ") + " }"
}

type EnumMember struct {
	Name  *Identifier
	Value Expression
}

type EnumStatement struct {
	Token   token.Token
	Name    *Identifier
	Members []*EnumMember
}

func (es *EnumStatement) statementNode()       {}
func (es *EnumStatement) TokenLiteral() string { return es.Token.Literal }
func (es *EnumStatement) Pos() int             { return es.Token.Position }
func (es *EnumStatement) String() string {
	members := []string{}
	for _, m := range es.Members {
		if m.Value != nil {
			members = append(members, m.Name.String()+" = "+m.Value.String())
		} else {
			members = append(members, m.Name.String())
		}
	}
	return "enum " + es.Name.String() + " { " + strings.Join(members, ", ") + " }"
}

type ImportSymbol struct {
	Name  *Identifier
	Alias *Identifier
}

func (is *ImportSymbol) String() string {
	if is.Alias != nil {
		return is.Name.String() + " as " + is.Alias.String()
	}
	return is.Name.String()
}

// ImportStatement is either `import { a, b as c } from "p"` or
// `import * as ns from "p"`.
type ImportStatement struct {
	Token     token.Token
	Path      string
	Symbols   []*ImportSymbol
	Namespace *Identifier
}

func (is *ImportStatement) statementNode()       {}
func (is *ImportStatement) TokenLiteral() string { return is.Token.Literal }
func (is *ImportStatement) Pos() int             { return is.Token.Position }
func (is *ImportStatement) String() string {
	var out bytes.Buffer

	out.WriteString("import ")
	if is.Namespace != nil {
		out.WriteString("* as " + is.Namespace.String())
	} else {
		symbols := []string{}
		for _, s := range is.Symbols {
			symbols = append(symbols, s.String())
		}
		out.WriteString("{ " + strings.Join(symbols, ", ") + " }")
	}
	out.WriteString(" from " + strconv.Quote(is.Path) + ";")

	return out.String()
}

// ExportStatement wraps a declaration, lists names already bound, or
// re-exports names from another module when Path is set.
type ExportStatement struct {
	Token       token.Token
	Declaration Statement
	Symbols     []*ImportSymbol
	Path        string
}

func (es *ExportStatement) statementNode()       {}
func (es *ExportStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExportStatement) Pos() int             { return es.Token.Position }
func (es *ExportStatement) String() string {
	if es.Declaration != nil {
		return "export " + es.Declaration.String()
	}
	symbols := []string{}
	for _, s := range es.Symbols {
		symbols = append(symbols, s.String())
	}
	out := "export { " + strings.Join(symbols, ", ") + " }"
	if es.Path != "" {
		out += " from " + strconv.Quote(es.Path)
	}
	return out + ";"
}

// ImportFFIStatement is `import "libfoo.so";`.
type ImportFFIStatement struct {
	Token   token.Token
	Library string
}

func (is *ImportFFIStatement) statementNode()       {}
func (is *ImportFFIStatement) TokenLiteral() string { return is.Token.Literal }
func (is *ImportFFIStatement) Pos() int             { return is.Token.Position }
func (is *ImportFFIStatement) String() string {
	return "import " + strconv.Quote(is.Library) + ";"
}

type ExternStatement struct {
	Token      token.Token
	Name       *Identifier
	Parameters []*FunctionParameter
	ReturnType *TypeAnnotation
}

func (es *ExternStatement) statementNode()       {}
func (es *ExternStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExternStatement) Pos() int             { return es.Token.Position }
func (es *ExternStatement) String() string {
	params := []string{}
	for _, p := range es.Parameters {
		params = append(params, p.String())
	}
	out := "extern fn " + es.Name.String() + "(" + strings.Join(params, ", ") + ")"
	if es.ReturnType != nil {
		out += ": " + es.ReturnType.String()
	}
	return out + ";"
}

// Expressions

type Identifier struct {
	Token token.Token // the token.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() int             { return i.Token.Position }
func (i *Identifier) String() string       { return i.Value }

type Boolean struct {
	Token token.Token
	Value bool
}

func (b *Boolean) expressionNode()      {}
func (b *Boolean) TokenLiteral() string { return b.Token.Literal }
func (b *Boolean) Pos() int             { return b.Token.Position }
func (b *Boolean) String() string       { return b.Token.Literal }

type Null struct {
	Token token.Token
}

func (n *Null) expressionNode()      {}
func (n *Null) TokenLiteral() string { return n.Token.Literal }
func (n *Null) Pos() int             { return n.Token.Position }
func (n *Null) String() string       { return "null" }

type Self struct {
	Token token.Token
}

func (s *Self) expressionNode()      {}
func (s *Self) TokenLiteral() string { return s.Token.Literal }
func (s *Self) Pos() int             { return s.Token.Position }
func (s *Self) String() string       { return "self" }

// NumberLiteral holds either an integer (Int) or, when IsFloat is set, a
// float (Float).
type NumberLiteral struct {
	Token   token.Token
	IsFloat bool
	Int     int64
	Float   float64
}

func (n *NumberLiteral) expressionNode()      {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) Pos() int             { return n.Token.Position }
func (n *NumberLiteral) String() string       { return n.Token.Literal }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Pos() int             { return sl.Token.Position }
func (sl *StringLiteral) String() string       { return strconv.Quote(sl.Value) }

// TemplateLiteral alternates text (*StringLiteral) and interpolated expressions.
type TemplateLiteral struct {
	Token token.Token
	Parts []Expression
}

func (tl *TemplateLiteral) expressionNode()      {}
func (tl *TemplateLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TemplateLiteral) Pos() int             { return tl.Token.Position }
func (tl *TemplateLiteral) String() string {
	var out bytes.Buffer

	out.WriteString("`")
	for _, part := range tl.Parts {
		if s, ok := part.(*StringLiteral); ok {
			out.WriteString(s.Value)
		} else {
			out.WriteString("${" + part.String() + "}")
		}
	}
	out.WriteString("`")

	return out.String()
}

type RuneLiteral struct {
	Token token.Token
	Value rune
}

func (rl *RuneLiteral) expressionNode()      {}
func (rl *RuneLiteral) TokenLiteral() string { return rl.Token.Literal }
func (rl *RuneLiteral) Pos() int             { return rl.Token.Position }
func (rl *RuneLiteral) String() string       { return strconv.QuoteRune(rl.Value) }

// TypeLiteral is a type keyword in value position, as in sizeof(i32).
type TypeLiteral struct {
	Token token.Token
	Name  string
}

func (tl *TypeLiteral) expressionNode()      {}
func (tl *TypeLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TypeLiteral) Pos() int             { return tl.Token.Position }
func (tl *TypeLiteral) String() string       { return tl.Name }

type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. !
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Pos() int             { return pe.Token.Position }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Pos() int             { return ie.Token.Position }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

type TernaryExpression struct {
	Token       token.Token // the '?' token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (te *TernaryExpression) expressionNode()      {}
func (te *TernaryExpression) TokenLiteral() string { return te.Token.Literal }
func (te *TernaryExpression) Pos() int             { return te.Token.Position }
func (te *TernaryExpression) String() string {
	return "(" + te.Condition.String() + " ? " + te.Consequence.String() + " : " + te.Alternative.String() + ")"
}

// AssignExpression covers `=` and the compound operators. Target is an
// *Identifier, *IndexExpression or *PropertyExpression.
type AssignExpression struct {
	Token    token.Token
	Target   Expression
	Operator string
	Value    Expression
}

func (ae *AssignExpression) expressionNode()      {}
func (ae *AssignExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignExpression) Pos() int             { return ae.Token.Position }
func (ae *AssignExpression) String() string {
	return "(" + ae.Target.String() + " " + ae.Operator + " " + ae.Value.String() + ")"
}

// UpdateExpression is ++ or -- in prefix or postfix position.
type UpdateExpression struct {
	Token    token.Token
	Operator string
	Target   Expression
	Prefix   bool
}

func (ue *UpdateExpression) expressionNode()      {}
func (ue *UpdateExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UpdateExpression) Pos() int             { return ue.Token.Position }
func (ue *UpdateExpression) String() string {
	if ue.Prefix {
		return "(" + ue.Operator + ue.Target.String() + ")"
	}
	return "(" + ue.Target.String() + ue.Operator + ")"
}

type FunctionParameter struct {
	Name     *Identifier
	Type     *TypeAnnotation
	Optional bool
	Default  Expression
}

func (p *FunctionParameter) String() string {
	var out bytes.Buffer

	out.WriteString(p.Name.String())
	if p.Type != nil {
		out.WriteString(": " + p.Type.String())
	}
	if p.Default != nil {
		out.WriteString(" = " + p.Default.String())
	} else if p.Optional {
		out.WriteString("?")
	}

	return out.String()
}

type FunctionLiteral struct {
	Token      token.Token // The 'fn' token
	Name       string      // set when declared as `fn name() {}`
	Parameters []*FunctionParameter
	ReturnType *TypeAnnotation
	Body       *BlockStatement
	IsAsync    bool
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FunctionLiteral) Pos() int             { return fl.Token.Position }
func (fl *FunctionLiteral) String() string {
	var out bytes.Buffer

	params := []string{}
	for _, p := range fl.Parameters {
		params = append(params, p.String())
	}

	if fl.IsAsync {
		out.WriteString("async ")
	}
	out.WriteString("fn")
	if fl.Name != "" {
		out.WriteString(" " + fl.Name)
	}
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	if fl.ReturnType != nil {
		out.WriteString(": " + fl.ReturnType.String())
	}
	out.WriteString(" ")
	out.WriteString(fl.Body.String())

	return out.String()
}

// MinArity is the number of leading parameters without defaults.
func (fl *FunctionLiteral) MinArity() int {
	n := 0
	for _, p := range fl.Parameters {
		if p.Optional || p.Default != nil {
			break
		}
		n++
	}
	return n
}

type CallExpression struct {
	Token     token.Token // The '(' token
	Function  Expression  // Identifier, PropertyExpression or any callee expression
	Arguments []Expression
	Optional  bool // f?.(args)
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Pos() int             { return ce.Token.Position }
func (ce *CallExpression) String() string {
	args := []string{}
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}

	sep := "("
	if ce.Optional {
		sep = "?.("
	}
	return ce.Function.String() + sep + strings.Join(args, ", ") + ")"
}

type PropertyExpression struct {
	Token    token.Token // the '.' or '?.' token
	Object   Expression
	Property string
	Optional bool
}

func (pe *PropertyExpression) expressionNode()      {}
func (pe *PropertyExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PropertyExpression) Pos() int             { return pe.Token.Position }
func (pe *PropertyExpression) String() string {
	if pe.Optional {
		return pe.Object.String() + "?." + pe.Property
	}
	return pe.Object.String() + "." + pe.Property
}

type IndexExpression struct {
	Token    token.Token // The [ token
	Left     Expression
	Index    Expression
	Optional bool
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Pos() int             { return ie.Token.Position }
func (ie *IndexExpression) String() string {
	if ie.Optional {
		return "(" + ie.Left.String() + "?.[" + ie.Index.String() + "])"
	}
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

type ArrayLiteral struct {
	Token    token.Token // the '[' token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) Pos() int             { return al.Token.Position }
func (al *ArrayLiteral) String() string {
	elements := []string{}
	for _, el := range al.Elements {
		elements = append(elements, el.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

// ObjectLiteral keeps fields in source order.
type ObjectLiteral struct {
	Token  token.Token // the '{' token
	Keys   []string
	Values []Expression
}

func (ol *ObjectLiteral) expressionNode()      {}
func (ol *ObjectLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *ObjectLiteral) Pos() int             { return ol.Token.Position }
func (ol *ObjectLiteral) String() string {
	pairs := []string{}
	for i, key := range ol.Keys {
		pairs = append(pairs, key+": "+ol.Values[i].String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type AwaitExpression struct {
	Token token.Token // The 'await' token
	Value Expression
}

func (ae *AwaitExpression) expressionNode()      {}
func (ae *AwaitExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AwaitExpression) Pos() int             { return ae.Token.Position }
func (ae *AwaitExpression) String() string       { return "(await " + ae.Value.String() + ")" }
