// Package ast defines the Jsonnet expression tree produced by pkg/parser
// and consumed by pkg/eval. Every node carries a Span identifying the
// source file and byte range it was parsed from, so that runtime errors
// can report a precise location (spec §4.A "Parsing").
package ast

// Span identifies a byte range within a named source file.
type Span struct {
	File       string
	Start, End int
	Line       int // 1-based line of Start, filled in by the lexer
}

// Node is implemented by every expression tree node.
type Node interface {
	span() Span
}

// Span returns n's source location.
func NodeSpan(n Node) Span { return n.span() }

type base struct{ Sp Span }

func (b base) span() Span { return b.Sp }

// Null, True, False, Self, Dollar, and the numeric/string/self-recursion
// literals.
type (
	NullLit struct {
		base
	}
	BoolLit struct {
		base
		Value bool
	}
	NumberLit struct {
		base
		Value float64
	}
	StringLit struct {
		base
		Value    string
		IsBlock  bool // `|||` text block
		Verbatim bool // `@"..."` verbatim string
	}
	SelfExpr struct {
		base
	}
	DollarExpr struct {
		base
	}
	// SuperExpr appears only as the Target of an Index -- `super.field` or
	// `super[e]`. Bare `super` with no following field/index is a parse
	// error, since super is not a first-class value.
	SuperExpr struct {
		base
	}
)

// Var is a reference to a local or parameter binding.
type Var struct {
	base
	Name string
}

// UnaryOp is one of `-`, `+`, `!`, `~`.
type UnaryOp struct {
	base
	Op   string
	Expr Node
}

// BinaryOp covers the full precedence table: || && | ^ & == != < <= > >=
// in << >> + - * / %.
type BinaryOp struct {
	base
	Op          string
	Left, Right Node
}

// If/then/else. Else is nil when omitted, in which case evaluating a
// false condition yields Null.
type If struct {
	base
	Cond, Then, Else Node
}

// Param is one formal parameter of a function literal, with an optional
// default-value expression.
type Param struct {
	Name    string
	Default Node // nil if required
}

// Function is a `function(params) body` literal.
type Function struct {
	base
	Params []Param
	Body   Node
}

// Arg is one actual argument of a call; Name is non-empty for named args.
type Arg struct {
	Name string
	Expr Node
}

// Apply is a function call `f(args)`, optionally with `tailstrict` (used
// internally by std for certain builtins to force strict evaluation).
type Apply struct {
	base
	Func       Node
	Args       []Arg
	TailStrict bool
}

// Index is `e[i]`, `e.field`, or a slice `e[from:to:step]`.
type Index struct {
	base
	Target Node
	Index  Node // nil for slices; set for `.field`/`[expr]`
	Field  string
	IsSlice      bool
	From, To, Step Node // any may be nil
}

// LocalBind is one binding of a `local` block: `name(params) = body` --
// Params is non-empty only for the function-sugar form `local f(x) = ...`.
type LocalBind struct {
	Name    string
	Params  []Param // non-nil => sugar for `local name = function(params) body`
	Body    Node
	// Destructure is set for `local [a, b] = expr;` / `local {a, b} = expr;`
	// style bindings; when non-nil, Name is ignored and each target gets
	// its own synthetic binding sourced from Body via the given path.
	Destructure *DestructurePattern
}

// DestructurePattern describes an array- or object-destructuring target.
type DestructurePattern struct {
	IsObject bool
	Names    []string // array element binding names, or object field names
	Rest     string    // name bound to the remainder, "" if no `...rest`
}

// Local is `local binds; body`.
type Local struct {
	base
	Binds []LocalBind
	Body  Node
}

// Assert is a standalone `assert cond : msg; body` expression.
type Assert struct {
	base
	Cond, Msg, Body Node // Msg may be nil
}

// ErrorExpr is `error expr`.
type ErrorExpr struct {
	base
	Expr Node
}

// ArrayLit is `[e1, e2, ...]`.
type ArrayLit struct {
	base
	Elements []Node
}

// ArrayComp is `[expr for x in arr if cond ...]` -- ForSpecs/IfSpecs are in
// source order and may interleave (each `for` may be followed by zero or
// more `if`s before the next `for`).
type ArrayComp struct {
	base
	Body  Node
	Specs []CompSpec
}

// CompSpec is one clause of a comprehension: either `for Var in Expr` or
// `if Expr`.
type CompSpec struct {
	IsFor bool
	Var   string
	Expr  Node
}

// ObjectField is one field of an object literal.
type ObjectField struct {
	// Key forms: plain identifier (Name set), quoted/computed (KeyExpr
	// set), or `[e]:` computed key (KeyExpr set, Computed true).
	Name     string
	KeyExpr  Node
	Computed bool

	Hidden      bool // `::`
	ForceVisible bool // `:::`
	Plus        bool // `+:`
	Params      []Param // non-nil => method sugar `f(x): body`

	Body Node
}

// ObjectLit is `{ fields..., [local binds,]... asserts... }`. Locals
// declared inside an object body are visible to every field's binder and
// to each other (spec §3).
type ObjectLit struct {
	base
	Locals  []LocalBind
	Fields  []ObjectField
	Asserts []Assert
}

// ObjectComp is `{ [k]: v for x in arr if cond }` -- object comprehensions
// allow exactly one computed-key field and the same CompSpec grammar as
// ArrayComp.
type ObjectComp struct {
	base
	Locals []LocalBind
	KeyExpr, ValueExpr Node
	Specs  []CompSpec
}

// Import, Importstr, Importbin load another file's content: Import
// parses+evaluates it (cached by canonical path), Importstr/Importbin
// read it verbatim as a string/byte array.
type (
	Import struct {
		base
		Path string
	}
	Importstr struct {
		base
		Path string
	}
	Importbin struct {
		base
		Path string
	}
)

// Intrinsic covers the three `$intrinsic*` forms the parser recognizes
// directly: `$intrinsicThisFile`, `$intrinsicId`, and `$intrinsic(name)`
// (a reference to a pkg/natives-registered builtin by name).
type Intrinsic struct {
	base
	Kind IntrinsicKind
	Name string // set when Kind == IntrinsicNative
}

type IntrinsicKind int

const (
	IntrinsicThisFile IntrinsicKind = iota
	IntrinsicID
	IntrinsicNative
)

// InSuper is `e in super`, a membership test against the enclosing
// object's parent layer rather than an arbitrary object value.
type InSuper struct {
	base
	Expr Node
}

func NewSpan(file string, start, end, line int) Span {
	return Span{File: file, Start: start, End: end, Line: line}
}

func WithSpan(sp Span) base { return base{Sp: sp} }
