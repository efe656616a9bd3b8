// Package eval walks a pkg/ast expression tree and produces pkg/value
// Values, implementing Jsonnet's lazy, pure-functional evaluation rules
// (spec §4.B). The evaluator is single-threaded and cooperative: there is
// no goroutine fan-out inside a single evaluation -- concurrency, where it
// exists, is at the export/diff layer, each with its own Evaluator.
package eval

import (
	"fmt"
	"sync"

	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

// Importer resolves import/importstr/importbin paths to file content,
// given the path of the file doing the importing (for relative
// resolution). pkg/discover supplies the real filesystem-backed
// implementation; tests can substitute an in-memory one.
type Importer interface {
	Resolve(fromFile, path string) (canonical string, err error)
	Read(canonical string) (string, error)
	ReadBinary(canonical string) ([]byte, error)
}

// Evaluator owns the per-run caches (parsed imports, string-interning is
// global in pkg/value) and the stack-depth guard described in spec §4.B
// "Scheduling: ... a configurable maximum stack depth, defaulting to 500
// frames, raises ErrStackOverflow rather than exhausting the OS stack."
type Evaluator struct {
	Importer Importer
	ExtVars  map[string]string
	TLAs     map[string]value.Value
	MaxDepth int

	// Std is the `std` object every Jsonnet program has implicit access
	// to without a binding in scope. Set once via SetStd before
	// evaluation begins; pkg/stdlib.Build constructs it from this same
	// Evaluator so its natives/manifest helpers can recurse back in.
	Std *value.Object

	mu          sync.Mutex
	importCache map[string]*value.Thunk // canonical path -> cached result
	callStack   []Frame
	natives     NativeRegistry
}

// SetStd wires the `std` object. Must be called before evaluating any
// expression that references std.
func (ev *Evaluator) SetStd(std *value.Object) { ev.Std = std }

// Frame is one entry of the evaluator's logical call stack, used to build
// the "during evaluation of ..." trace attached to runtime errors.
type Frame struct {
	Desc string
	File string
	Line int
}

// New builds an Evaluator with the default 500-frame stack limit.
func New(importer Importer) *Evaluator {
	return &Evaluator{
		Importer:    importer,
		ExtVars:     map[string]string{},
		TLAs:        map[string]value.Value{},
		MaxDepth:    500,
		importCache: map[string]*value.Thunk{},
	}
}

// RuntimeError wraps an evaluation failure with the call-stack trace
// active when it occurred.
type RuntimeError struct {
	Err   error
	Trace []Frame
}

func (e *RuntimeError) Error() string {
	s := e.Err.Error()
	for i := len(e.Trace) - 1; i >= 0; i-- {
		f := e.Trace[i]
		s += fmt.Sprintf("\n\tduring evaluation of %s at %s:%d", f.Desc, f.File, f.Line)
	}
	return s
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func (ev *Evaluator) push(desc, file string, line int) func() {
	ev.callStack = append(ev.callStack, Frame{Desc: desc, File: file, Line: line})
	if len(ev.callStack) > ev.MaxDepth {
		panic(&RuntimeError{Err: kureerrors.ErrStackOverflow, Trace: append([]Frame(nil), ev.callStack...)})
	}
	depth := len(ev.callStack)
	return func() {
		if len(ev.callStack) == depth {
			ev.callStack = ev.callStack[:depth-1]
		}
	}
}

func (ev *Evaluator) wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*RuntimeError); ok {
		return err
	}
	return &RuntimeError{Err: err, Trace: append([]Frame(nil), ev.callStack...)}
}

// EvalFile parses and evaluates a top-level Jsonnet document, applying
// TLAs if the result is a function (spec §4.D "Top-level arguments").
// file is the canonical path used to resolve relative imports from the
// document's own local/import expressions.
func (ev *Evaluator) EvalFile(file string, parse func() (ast.Node, error)) (v value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()
	root, perr := parse()
	if perr != nil {
		return nil, perr
	}
	ctx := value.Root().WithFile(file)
	v, err = ev.Eval(ctx, root)
	if err != nil {
		return nil, ev.wrapErr(err)
	}
	if fn, ok := v.(*value.Function); ok && len(ev.TLAs) > 0 {
		return ev.applyTLAs(fn)
	}
	return v, nil
}

func (ev *Evaluator) applyTLAs(fn *value.Function) (value.Value, error) {
	args := make([]*value.Thunk, 0, len(fn.Params))
	for _, p := range fn.Params {
		if v, ok := ev.TLAs[p.Name]; ok {
			args = append(args, value.Ready(v))
			continue
		}
		if p.Default != nil {
			args = append(args, p.Default)
			continue
		}
		return nil, kureerrors.New(kureerrors.ErrUndefinedExtVar, "missing top-level argument: "+p.Name)
	}
	return fn.Call(args)
}

// Eval evaluates a single expression node in context ctx.
func (ev *Evaluator) Eval(ctx *value.Context, n ast.Node) (value.Value, error) {
	switch e := n.(type) {
	case *ast.NullLit:
		return value.Null{}, nil
	case *ast.BoolLit:
		return value.Bool(e.Value), nil
	case *ast.NumberLit:
		return value.Number(e.Value), nil
	case *ast.StringLit:
		return value.Intern(e.Value), nil
	case *ast.SelfExpr:
		if ctx.This == nil {
			return nil, kureerrors.CreateError("'self' used outside an object")
		}
		return ctx.This, nil
	case *ast.DollarExpr:
		if ctx.Dollar == nil {
			return nil, kureerrors.CreateError("'$' used outside an object")
		}
		return ctx.Dollar, nil
	case *ast.Var:
		return ev.evalVar(ctx, e)
	case *ast.UnaryOp:
		return ev.evalUnary(ctx, e)
	case *ast.BinaryOp:
		return ev.evalBinary(ctx, e)
	case *ast.InSuper:
		return ev.evalInSuper(ctx, e)
	case *ast.If:
		return ev.evalIf(ctx, e)
	case *ast.Local:
		return ev.evalLocal(ctx, e)
	case *ast.Assert:
		return ev.evalAssert(ctx, e)
	case *ast.ErrorExpr:
		return ev.evalError(ctx, e)
	case *ast.Function:
		return ev.evalFunctionLit(ctx, e), nil
	case *ast.Apply:
		return ev.evalApply(ctx, e)
	case *ast.Index:
		return ev.evalIndex(ctx, e)
	case *ast.ArrayLit:
		return ev.evalArrayLit(ctx, e)
	case *ast.ArrayComp:
		return ev.evalArrayComp(ctx, e)
	case *ast.ObjectLit:
		return ev.evalObjectLit(ctx, e), nil
	case *ast.ObjectComp:
		return ev.evalObjectComp(ctx, e)
	case *ast.Import:
		return ev.evalImport(ctx, e)
	case *ast.Importstr:
		return ev.evalImportstr(ctx, e)
	case *ast.Importbin:
		return ev.evalImportbin(ctx, e)
	case *ast.Intrinsic:
		return ev.evalIntrinsic(ctx, e)
	}
	return nil, kureerrors.CreateError(fmt.Sprintf("unhandled AST node %T", n))
}

// force evaluates n immediately to a Value (not a Thunk); used wherever
// the language requires strict evaluation (conditions, operator operands).
func (ev *Evaluator) force(ctx *value.Context, n ast.Node) (value.Value, error) {
	return ev.Eval(ctx, n)
}

// thunk defers evaluation of n under ctx -- this is how laziness enters
// the graph: array elements, object field bodies, local bindings and
// function arguments are all wrapped this way rather than evaluated
// eagerly.
func (ev *Evaluator) thunk(ctx *value.Context, n ast.Node) *value.Thunk {
	return value.NewThunk(func() (value.Value, error) {
		return ev.Eval(ctx, n)
	})
}

func (ev *Evaluator) evalVar(ctx *value.Context, e *ast.Var) (value.Value, error) {
	t, ok := ctx.Lookup(e.Name)
	if !ok {
		if e.Name == "std" && ev.Std != nil {
			return ev.Std, nil
		}
		return nil, kureerrors.CreateError("unknown variable: " + e.Name)
	}
	return t.Force()
}

func (ev *Evaluator) evalIf(ctx *value.Context, e *ast.If) (value.Value, error) {
	c, err := ev.force(ctx, e.Cond)
	if err != nil {
		return nil, err
	}
	b, ok := c.(value.Bool)
	if !ok {
		return nil, kureerrors.CreateError("condition must be a boolean, got " + value.TypeName(c))
	}
	if bool(b) {
		return ev.Eval(ctx, e.Then)
	}
	if e.Else != nil {
		return ev.Eval(ctx, e.Else)
	}
	return value.Null{}, nil
}

func (ev *Evaluator) evalAssert(ctx *value.Context, e *ast.Assert) (value.Value, error) {
	c, err := ev.force(ctx, e.Cond)
	if err != nil {
		return nil, err
	}
	b, ok := c.(value.Bool)
	if !ok {
		return nil, kureerrors.CreateError("assert condition must be a boolean")
	}
	if !bool(b) {
		msg := "assertion failed"
		if e.Msg != nil {
			mv, err := ev.force(ctx, e.Msg)
			if err != nil {
				return nil, err
			}
			msg = ev.stringify(mv)
		}
		return nil, kureerrors.CreateError(msg)
	}
	return ev.Eval(ctx, e.Body)
}

func (ev *Evaluator) evalError(ctx *value.Context, e *ast.ErrorExpr) (value.Value, error) {
	v, err := ev.force(ctx, e.Expr)
	if err != nil {
		return nil, err
	}
	return nil, kureerrors.CreateError(ev.stringify(v))
}

// stringify renders v the way `error` and assert messages do: strings
// pass through; every other value is rendered as its type name
// (value.TypeName), not as its manifested JSON.
func (ev *Evaluator) stringify(v value.Value) string {
	if s, ok := v.(value.String); ok {
		return string(s)
	}
	return value.TypeName(v)
}
