// Package parser builds a pkg/ast expression tree from Jsonnet source
// using a standard operator-precedence (Pratt) parser over the token
// stream produced by pkg/lexer.
package parser

import (
	"fmt"

	"github.com/go-rtk/rtk/pkg/ast"
	"github.com/go-rtk/rtk/pkg/lexer"
)

// Error is a parse failure with source position, distinct from a lexer
// Error so callers can tell which stage produced it.
type Error struct {
	Message string
	Line    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}

type parser struct {
	file string
	toks []lexer.Token
	pos  int
}

// Parse lexes and parses a complete Jsonnet document, returning its root
// expression.
func Parse(file, src string) (ast.Node, error) {
	lx := lexer.New(file, src)
	var toks []lexer.Token
	for {
		t, err := lx.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == lexer.EOF {
			break
		}
	}
	p := &parser{file: file, toks: toks}
	expr, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != lexer.EOF {
		return nil, p.errf("unexpected trailing token %q", p.cur().Text)
	}
	return expr, nil
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) peekN(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}
func (p *parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errf(format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: p.cur().Line}
}

func (p *parser) expectSym(sym string) error {
	if p.cur().Kind == lexer.Symbol && p.cur().Text == sym {
		p.advance()
		return nil
	}
	return p.errf("expected %q, found %q", sym, p.cur().Text)
}

func (p *parser) isSym(sym string) bool {
	return p.cur().Kind == lexer.Symbol && p.cur().Text == sym
}

func (p *parser) isKeyword(kw string) bool {
	return p.cur().Kind == lexer.Keyword && p.cur().Text == kw
}

func (p *parser) span(start lexer.Token) ast.Span {
	end := p.toks[p.pos-1]
	return ast.NewSpan(p.file, start.Start, end.End, start.Line)
}

// binaryPrec returns the precedence of a binary operator (higher binds
// tighter), matching spec §4.A's table:
//   || && | ^ & == != < <= > >= in << >> + - * / %  unary ! ~ - +
func binaryPrec(op string) int {
	switch op {
	case "||":
		return 1
	case "&&":
		return 2
	case "|":
		return 3
	case "^":
		return 4
	case "&":
		return 5
	case "==", "!=":
		return 6
	case "<", "<=", ">", ">=", "in":
		return 7
	case "<<", ">>":
		return 8
	case "+", "-":
		return 9
	case "*", "/", "%":
		return 10
	}
	return -1
}

func (p *parser) curBinaryOp() (string, bool) {
	t := p.cur()
	if t.Kind == lexer.Symbol {
		switch t.Text {
		case "||", "&&", "|", "^", "&", "==", "!=", "<", "<=", ">", ">=", "<<", ">>", "+", "-", "*", "/", "%":
			return t.Text, true
		}
	}
	if t.Kind == lexer.Keyword && t.Text == "in" {
		return "in", true
	}
	return "", false
}

func (p *parser) parseExpr(minPrec int) (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.curBinaryOp()
		if !ok {
			break
		}
		prec := binaryPrec(op)
		if prec < minPrec {
			break
		}
		if op == "in" && p.peekN(1).Kind == lexer.Keyword && p.peekN(1).Text == "super" {
			p.advance() // 'in'
			p.advance() // 'super'
			left = &ast.InSuper{Expr: left}
			continue
		}
		p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Node, error) {
	t := p.cur()
	if t.Kind == lexer.Symbol && (t.Text == "-" || t.Text == "+" || t.Text == "!" || t.Text == "~") {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: t.Text, Expr: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isSym("."):
			p.advance()
			if p.cur().Kind != lexer.Ident && p.cur().Kind != lexer.Keyword {
				return nil, p.errf("expected field name after '.'")
			}
			name := p.advance().Text
			expr = &ast.Index{Target: expr, Field: name}
		case p.isSym("["):
			idxExpr, err := p.parseIndexOrSlice(expr)
			if err != nil {
				return nil, err
			}
			expr = idxExpr
		case p.isSym("("):
			call, err := p.parseCall(expr)
			if err != nil {
				return nil, err
			}
			expr = call
		case p.isSym("{"):
			// `e { ... }` object-application sugar, desugars to `e + { ... }`
			obj, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			expr = &ast.BinaryOp{Op: "+", Left: expr, Right: obj}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parseIndexOrSlice(target ast.Node) (ast.Node, error) {
	p.advance() // '['
	if p.isSym(":") {
		return p.parseSliceRest(target, nil)
	}
	first, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.isSym(":") {
		return p.parseSliceRest(target, first)
	}
	if err := p.expectSym("]"); err != nil {
		return nil, err
	}
	return &ast.Index{Target: target, Index: first}, nil
}

func (p *parser) parseSliceRest(target ast.Node, from ast.Node) (ast.Node, error) {
	p.advance() // ':'
	var to, step ast.Node
	var err error
	if !p.isSym(":") && !p.isSym("]") {
		to, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if p.isSym(":") {
		p.advance()
		if !p.isSym("]") {
			step, err = p.parseExpr(0)
			if err != nil {
				return nil, err
			}
		}
	}
	if err := p.expectSym("]"); err != nil {
		return nil, err
	}
	return &ast.Index{Target: target, IsSlice: true, From: from, To: to, Step: step}, nil
}

func (p *parser) parseCall(fn ast.Node) (ast.Node, error) {
	p.advance() // '('
	var args []ast.Arg
	for !p.isSym(")") {
		if len(args) > 0 {
			if err := p.expectSym(","); err != nil {
				return nil, err
			}
			if p.isSym(")") {
				break
			}
		}
		name := ""
		if (p.cur().Kind == lexer.Ident) && p.peekN(1).Kind == lexer.Symbol && p.peekN(1).Text == "=" {
			name = p.advance().Text
			p.advance() // '='
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Arg{Name: name, Expr: e})
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	tailStrict := false
	if p.isKeyword("tailstrict") {
		p.advance()
		tailStrict = true
	}
	return &ast.Apply{Func: fn, Args: args, TailStrict: tailStrict}, nil
}

func (p *parser) parsePrimary() (ast.Node, error) {
	start := p.cur()
	switch {
	case start.Kind == lexer.Number:
		p.advance()
		var f float64
		fmt.Sscanf(start.Text, "%g", &f)
		return &ast.NumberLit{Value: f}, nil
	case start.Kind == lexer.String:
		p.advance()
		return &ast.StringLit{Value: start.StringValue, IsBlock: start.IsBlockString}, nil
	case start.Kind == lexer.Keyword:
		return p.parseKeywordPrimary()
	case start.Kind == lexer.Ident:
		p.advance()
		return &ast.Var{Name: start.Text}, nil
	case p.isSym("("):
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expectSym(")"); err != nil {
			return nil, err
		}
		return e, nil
	case p.isSym("["):
		return p.parseArray()
	case p.isSym("{"):
		return p.parseObject()
	case p.isSym("$"):
		return p.parseDollarOrIntrinsic()
	}
	return nil, p.errf("unexpected token %q", start.Text)
}

// parseDollarOrIntrinsic handles `$`, and the three host-reserved
// intrinsic forms `$intrinsicThisFile`, `$intrinsicId`, and
// `$intrinsic(name)` that surface pkg/natives entries directly (spec
// §4.C "Natives").
func (p *parser) parseDollarOrIntrinsic() (ast.Node, error) {
	p.advance() // '$'
	if p.cur().Kind == lexer.Ident {
		switch p.cur().Text {
		case "intrinsicThisFile":
			p.advance()
			return &ast.Intrinsic{Kind: ast.IntrinsicThisFile}, nil
		case "intrinsicId":
			p.advance()
			return &ast.Intrinsic{Kind: ast.IntrinsicID}, nil
		case "intrinsic":
			p.advance()
			if err := p.expectSym("("); err != nil {
				return nil, err
			}
			if p.cur().Kind != lexer.String {
				return nil, p.errf("expected native function name string")
			}
			name := p.advance().StringValue
			if err := p.expectSym(")"); err != nil {
				return nil, err
			}
			return &ast.Intrinsic{Kind: ast.IntrinsicNative, Name: name}, nil
		}
	}
	return &ast.DollarExpr{}, nil
}

func (p *parser) parseKeywordPrimary() (ast.Node, error) {
	kw := p.advance().Text
	switch kw {
	case "null":
		return &ast.NullLit{}, nil
	case "true":
		return &ast.BoolLit{Value: true}, nil
	case "false":
		return &ast.BoolLit{Value: false}, nil
	case "self":
		return &ast.SelfExpr{}, nil
	case "function":
		return p.parseFunctionLit()
	case "if":
		return p.parseIf()
	case "local":
		return p.parseLocal()
	case "assert":
		return p.parseAssertExpr()
	case "error":
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		return &ast.ErrorExpr{Expr: e}, nil
	case "import", "importstr", "importbin":
		if p.cur().Kind != lexer.String {
			return nil, p.errf("expected string literal path after %q", kw)
		}
		path := p.advance().StringValue
		switch kw {
		case "import":
			return &ast.Import{Path: path}, nil
		case "importstr":
			return &ast.Importstr{Path: path}, nil
		default:
			return &ast.Importbin{Path: path}, nil
		}
	case "super":
		if !p.isSym(".") && !p.isSym("[") {
			return nil, p.errf("'super' may only appear as 'super.field', 'super[e]' or 'e in super'")
		}
		return &ast.SuperExpr{}, nil
	}
	return nil, p.errf("unexpected keyword %q", kw)
}

func (p *parser) parseParams() ([]ast.Param, error) {
	if err := p.expectSym("("); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.isSym(")") {
		if len(params) > 0 {
			if err := p.expectSym(","); err != nil {
				return nil, err
			}
			if p.isSym(")") {
				break
			}
		}
		if p.cur().Kind != lexer.Ident {
			return nil, p.errf("expected parameter name")
		}
		name := p.advance().Text
		var def ast.Node
		if p.isSym("=") {
			p.advance()
			var err error
			def, err = p.parseExpr(0)
			if err != nil {
				return nil, err
			}
		}
		params = append(params, ast.Param{Name: name, Default: def})
	}
	if err := p.expectSym(")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *parser) parseFunctionLit() (ast.Node, error) {
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Function{Params: params, Body: body}, nil
}

func (p *parser) parseIf() (ast.Node, error) {
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("then") {
		return nil, p.errf("expected 'then'")
	}
	p.advance()
	thenE, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	var elseE ast.Node
	if p.isKeyword("else") {
		p.advance()
		elseE, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: thenE, Else: elseE}, nil
}

func (p *parser) parseAssertExpr() (ast.Node, error) {
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	var msg ast.Node
	if p.isSym(":") {
		p.advance()
		msg, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectSym(";"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Assert{Cond: cond, Msg: msg, Body: body}, nil
}

func (p *parser) parseLocal() (ast.Node, error) {
	var binds []ast.LocalBind
	for {
		bind, err := p.parseLocalBind()
		if err != nil {
			return nil, err
		}
		binds = append(binds, bind)
		if p.isSym(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSym(";"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return &ast.Local{Binds: binds, Body: body}, nil
}

func (p *parser) parseLocalBind() (ast.LocalBind, error) {
	if p.isSym("[") || p.isSym("{") {
		pat, err := p.parseDestructurePattern()
		if err != nil {
			return ast.LocalBind{}, err
		}
		if err := p.expectSym("="); err != nil {
			return ast.LocalBind{}, err
		}
		body, err := p.parseExpr(0)
		if err != nil {
			return ast.LocalBind{}, err
		}
		return ast.LocalBind{Destructure: pat, Body: body}, nil
	}
	if p.cur().Kind != lexer.Ident {
		return ast.LocalBind{}, p.errf("expected identifier in local binding")
	}
	name := p.advance().Text
	var params []ast.Param
	if p.isSym("(") {
		var err error
		params, err = p.parseParams()
		if err != nil {
			return ast.LocalBind{}, err
		}
	}
	if err := p.expectSym("="); err != nil {
		return ast.LocalBind{}, err
	}
	body, err := p.parseExpr(0)
	if err != nil {
		return ast.LocalBind{}, err
	}
	return ast.LocalBind{Name: name, Params: params, Body: body}, nil
}

func (p *parser) parseDestructurePattern() (*ast.DestructurePattern, error) {
	isObject := p.isSym("{")
	closeSym := "]"
	if isObject {
		closeSym = "}"
	}
	p.advance()
	pat := &ast.DestructurePattern{IsObject: isObject}
	for !p.isSym(closeSym) {
		if len(pat.Names) > 0 || pat.Rest != "" {
			if err := p.expectSym(","); err != nil {
				return nil, err
			}
			if p.isSym(closeSym) {
				break
			}
		}
		if p.isSym("...") {
			p.advance()
			if p.cur().Kind != lexer.Ident {
				return nil, p.errf("expected identifier after '...'")
			}
			pat.Rest = p.advance().Text
			continue
		}
		if p.cur().Kind != lexer.Ident {
			return nil, p.errf("expected identifier in destructuring pattern")
		}
		pat.Names = append(pat.Names, p.advance().Text)
	}
	if err := p.expectSym(closeSym); err != nil {
		return nil, err
	}
	return pat, nil
}

func (p *parser) parseArray() (ast.Node, error) {
	p.advance() // '['
	if p.isSym("]") {
		p.advance()
		return &ast.ArrayLit{}, nil
	}
	first, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		specs, err := p.parseCompSpecs()
		if err != nil {
			return nil, err
		}
		if err := p.expectSym("]"); err != nil {
			return nil, err
		}
		return &ast.ArrayComp{Body: first, Specs: specs}, nil
	}
	elems := []ast.Node{first}
	for p.isSym(",") {
		p.advance()
		if p.isSym("]") {
			break
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if err := p.expectSym("]"); err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Elements: elems}, nil
}

func (p *parser) parseCompSpecs() ([]ast.CompSpec, error) {
	var specs []ast.CompSpec
	for p.isKeyword("for") || p.isKeyword("if") {
		if p.isKeyword("for") {
			p.advance()
			if p.cur().Kind != lexer.Ident {
				return nil, p.errf("expected identifier after 'for'")
			}
			name := p.advance().Text
			if !p.isKeyword("in") {
				return nil, p.errf("expected 'in' in comprehension")
			}
			p.advance()
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			specs = append(specs, ast.CompSpec{IsFor: true, Var: name, Expr: e})
		} else {
			p.advance()
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			specs = append(specs, ast.CompSpec{Expr: e})
		}
	}
	return specs, nil
}

func (p *parser) parseObject() (ast.Node, error) {
	p.advance() // '{'
	obj := &ast.ObjectLit{}
	var compKey, compVal ast.Node
	var compLocals []ast.LocalBind
	isComp := false
	first := true
	for !p.isSym("}") {
		if !first {
			if err := p.expectSym(","); err != nil {
				return nil, err
			}
			if p.isSym("}") {
				break
			}
		}
		first = false

		if p.isKeyword("local") {
			p.advance()
			bind, err := p.parseLocalBind()
			if err != nil {
				return nil, err
			}
			if isComp {
				compLocals = append(compLocals, bind)
			} else {
				obj.Locals = append(obj.Locals, bind)
			}
			continue
		}
		if p.isKeyword("assert") {
			p.advance()
			cond, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			var msg ast.Node
			if p.isSym(":") {
				p.advance()
				msg, err = p.parseExpr(0)
				if err != nil {
					return nil, err
				}
			}
			obj.Asserts = append(obj.Asserts, ast.Assert{Cond: cond, Msg: msg})
			continue
		}

		field, isCompField, key, val, err := p.parseObjectField()
		if err != nil {
			return nil, err
		}
		if isCompField {
			isComp = true
			compKey, compVal = key, val
			if err := p.expectCompForAhead(); err != nil {
				return nil, err
			}
			specs, err := p.parseCompSpecs()
			if err != nil {
				return nil, err
			}
			if err := p.expectSym("}"); err != nil {
				return nil, err
			}
			return &ast.ObjectComp{Locals: compLocals, KeyExpr: compKey, ValueExpr: compVal, Specs: specs}, nil
		}
		obj.Fields = append(obj.Fields, field)
	}
	if err := p.expectSym("}"); err != nil {
		return nil, err
	}
	return obj, nil
}

// expectCompForAhead is a no-op hook kept for symmetry with parseArray's
// comprehension detection; object comprehensions are recognized by the
// presence of `for` immediately after the single computed field.
func (p *parser) expectCompForAhead() error { return nil }

func (p *parser) parseObjectField() (ast.ObjectField, bool, ast.Node, ast.Node, error) {
	var f ast.ObjectField
	switch {
	case p.cur().Kind == lexer.String:
		f.Name = p.advance().StringValue
	case p.isSym("["):
		p.advance()
		key, err := p.parseExpr(0)
		if err != nil {
			return f, false, nil, nil, err
		}
		if err := p.expectSym("]"); err != nil {
			return f, false, nil, nil, err
		}
		f.KeyExpr = key
		f.Computed = true
	case p.cur().Kind == lexer.Ident || p.cur().Kind == lexer.Keyword:
		f.Name = p.advance().Text
	default:
		return f, false, nil, nil, p.errf("expected object field name, found %q", p.cur().Text)
	}

	if p.isSym("(") {
		params, err := p.parseParams()
		if err != nil {
			return f, false, nil, nil, err
		}
		f.Params = params
	}

	switch {
	case p.isSym(":::"):
		p.advance()
		f.ForceVisible = true
	case p.isSym("::"):
		p.advance()
		f.Hidden = true
	case p.isSym("+:"):
		p.advance()
		f.Plus = true
	case p.isSym(":"):
		p.advance()
	default:
		return f, false, nil, nil, p.errf("expected ':', '::', ':::' or '+:' after field name")
	}

	body, err := p.parseExpr(0)
	if err != nil {
		return f, false, nil, nil, err
	}

	if f.Computed {
		// Look ahead: an object comprehension has exactly one field of the
		// form `[k]: v` immediately followed by `for`.
		if p.isKeyword("for") {
			return f, true, f.KeyExpr, body, nil
		}
	}
	f.Body = body
	return f, false, nil, nil, nil
}
