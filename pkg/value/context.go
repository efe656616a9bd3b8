package value

// Context is the immutable lexical environment an expression is evaluated
// in: its local bindings, and the `super`/`self`/`$` object references
// visible at that point in the source (spec §4.B "Context composition").
// Contexts are built by extension -- a `local` or object body produces a
// child Context that links to its parent rather than mutating it, so a
// closure captured before a shadowing bind still sees the outer binding.
type Context struct {
	parent *Context
	name   string
	thunk  *Thunk

	Super  *Object
	This   *Object
	Dollar *Object
	File   string // canonical path of the file being evaluated, for relative imports
}

// Root returns the empty context an evaluation starts from: no locals, no
// self/super/dollar. Top-level expressions and `std` itself evaluate here.
func Root() *Context {
	return &Context{}
}

// Bind extends c with a single local variable, returning a new Context.
// The parent is left untouched.
func (c *Context) Bind(name string, t *Thunk) *Context {
	return &Context{
		parent: c,
		name:   name,
		thunk:  t,
		Super:  c.Super,
		This:   c.This,
		Dollar: c.Dollar,
		File:   c.File,
	}
}

// WithFile returns a new Context identical to c but for the current file,
// used when entering an imported file's root expression.
func (c *Context) WithFile(file string) *Context {
	cp := *c
	cp.File = file
	return &cp
}

// BindAll extends c with several local variables at once (the bindings of
// a single `local a = ..., b = ...;` block), preserving mutual visibility:
// every thunk in binds may reference every name in binds, since they share
// this same returned context as their defining scope.
func (c *Context) BindAll(binds map[string]*Thunk) *Context {
	cur := c
	for name, t := range binds {
		cur = cur.Bind(name, t)
	}
	return cur
}

// WithObject returns a new Context with super/self/dollar swapped in for
// evaluating a field binder of an object body. When dollar is nil, the
// enclosing $ (if any) is inherited -- `$` always refers to the outermost
// object, not the innermost one.
func (c *Context) WithObject(super, this *Object, dollar *Object) *Context {
	if dollar == nil {
		dollar = c.Dollar
	}
	return &Context{
		parent: c.parent,
		name:   c.name,
		thunk:  c.thunk,
		Super:  super,
		This:   this,
		Dollar: dollar,
		File:   c.File,
	}
}

// Lookup resolves a local variable by walking the binding chain from the
// innermost scope outward, matching ordinary lexical shadowing.
func (c *Context) Lookup(name string) (*Thunk, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.thunk, true
		}
	}
	return nil, false
}
