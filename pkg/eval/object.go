package eval

import (
	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

// evalObjectLit builds a value.Object whose field Binders close over a
// pointer to the eventual self object, letting `self`/`$` inside a field
// body resolve to the fully composed object even though Go can't
// construct a genuinely self-referential struct literal directly (spec
// §3 "self refers to the object as seen after every layer of `+` has been
// applied, not just the layer currently executing").
func (ev *Evaluator) evalObjectLit(ctx *value.Context, e *ast.ObjectLit) *value.Object {
	fields := make(map[string]*value.Field, len(e.Fields))
	order := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		f := f
		vis := value.VisibilityNormal
		switch {
		case f.ForceVisible:
			vis = value.VisibilityForceVisible
		case f.Hidden:
			vis = value.VisibilityHidden
		}
		name := f.Name
		binder := func(super, self *value.Object) (value.Value, error) {
			fctx := ev.objectFieldContext(ctx, e.Locals, super, self)
			if f.Computed {
				kv, err := ev.force(fctx, f.KeyExpr)
				if err != nil {
					return nil, err
				}
				_ = kv // computed-name fields resolve their key once, at build time below
			}
			if len(f.Params) > 0 {
				return ev.evalFunctionLit(fctx, &ast.Function{Params: f.Params, Body: f.Body}), nil
			}
			return ev.Eval(fctx, f.Body)
		}
		if f.Computed {
			// Computed keys `[e]: v` must be evaluated once, eagerly,
			// against the definition context (no self/super yet needed for
			// the key itself in the common case) to determine the field
			// name up front.
			kv, err := ev.Eval(ev.objectFieldContext(ctx, e.Locals, nil, nil), f.KeyExpr)
			if err == nil {
				if ks, ok := kv.(value.String); ok {
					name = string(ks)
				}
			}
		}
		if _, dup := fields[name]; !dup {
			order = append(order, name)
		}
		fields[name] = &value.Field{Visibility: vis, Plus: f.Plus, Binder: binder}
	}

	var asserts []value.Assertion
	for _, a := range e.Asserts {
		a := a
		asserts = append(asserts, func(super, self *value.Object) error {
			fctx := ev.objectFieldContext(ctx, e.Locals, super, self)
			c, err := ev.force(fctx, a.Cond)
			if err != nil {
				return err
			}
			b, ok := c.(value.Bool)
			if !ok {
				return kureerrors.CreateError("object assert condition must be a boolean")
			}
			if !bool(b) {
				msg := "object assertion failed"
				if a.Msg != nil {
					mv, err := ev.force(fctx, a.Msg)
					if err != nil {
						return err
					}
					msg = ev.stringify(mv)
				}
				return kureerrors.CreateError(msg)
			}
			return nil
		})
	}

	return value.NewObject(fields, order, asserts)
}

// objectFieldContext builds the context a field binder, assertion, or
// nested local sees: the object's own locals bound (mutually recursive,
// and able to see self/super), then super/self/$ installed.
func (ev *Evaluator) objectFieldContext(defCtx *value.Context, locals []ast.LocalBind, super, self *value.Object) *value.Context {
	c := defCtx.WithObject(super, self, nil)
	if self != nil && c.Dollar == nil {
		c = c.WithObject(super, self, self)
	}
	if len(locals) > 0 {
		child, _ := ev.bindLocals(c, locals)
		c = child
	}
	return c
}

// evalObjectComp implements `{ [k]: v for x in arr if cond }`. Unlike a
// plain object literal, comprehension-produced objects have no `self`
// meaningful beyond what each iteration's locals provide; fields are
// bound eagerly per iteration rather than via deferred binders.
func (ev *Evaluator) evalObjectComp(ctx *value.Context, e *ast.ObjectComp) (value.Value, error) {
	fields := map[string]*value.Field{}
	var order []string
	err := ev.expandComp(ctx, e.Specs, func(c *value.Context) error {
		if len(e.Locals) > 0 {
			var lerr error
			c, lerr = ev.bindLocals(c, e.Locals)
			if lerr != nil {
				return lerr
			}
		}
		kv, err := ev.force(c, e.KeyExpr)
		if err != nil {
			return err
		}
		ks, ok := kv.(value.String)
		if !ok {
			return kureerrors.CreateError("object comprehension key must be a string")
		}
		valExpr := e.ValueExpr
		capturedCtx := c
		key := string(ks)
		if _, dup := fields[key]; !dup {
			order = append(order, key)
		}
		fields[key] = &value.Field{
			Binder: func(super, self *value.Object) (value.Value, error) {
				return ev.Eval(capturedCtx, valExpr)
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value.NewObject(fields, order, nil), nil
}
