package value

import (
	"sort"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

// Visibility controls whether a field is included when the object is
// manifested to JSON/YAML.
type Visibility int

const (
	VisibilityNormal      Visibility = iota // visible unless hidden by `::`
	VisibilityHidden                        // `::` -- excluded from manifestation, present to explicit access
	VisibilityForceVisible                  // `:::` -- always visible even if a parent hid it
)

// Binder produces a field's value given the super object in scope and the
// fully composed `self`/`this` object, per spec §3 "A field's value is
// produced by invoking its binder with (super, this) supplied at
// evaluation time."
type Binder func(super, self *Object) (Value, error)

// Field is one entry of an Object's field map.
type Field struct {
	Visibility Visibility
	Plus       bool // `+:` -- additively merges with the same-named field in super
	Binder     Binder
}

// Assertion is run once, after the object's fields are bound, with `self`
// and `super` available exactly as a field binder would see them.
type Assertion func(super, self *Object) error

// Object is a single layer of the inheritance chain described in spec §3
// and §9 ("implement as a linked list of layers"). Super points to the
// immediate parent layer; `A + B` produces a new Object whose Super is A
// and whose Fields are B's, so that `super` references inside B's binders
// resolve against A.
type Object struct {
	Fields  map[string]*Field
	Order   []string // declaration order of Fields' keys; see AllFields
	Super   *Object
	Asserts []Assertion
}

func (*Object) Kind() Kind { return KindObject }

// NewObject builds a root-layer object (no super) from field definitions.
// order must list each key of fields exactly once, in declaration order
// (spec §3 "observable iteration order is insertion order unless sorting
// is explicitly requested"); pass nil only for synthetic objects whose
// field order is never observed.
func NewObject(fields map[string]*Field, order []string, asserts []Assertion) *Object {
	return &Object{Fields: fields, Order: order, Asserts: asserts}
}

// Concat implements `A + B`: the result's Fields are B's, its Super is A.
// plus-flagged fields in B additively merge with A's same-named field at
// access time (see GetField), not eagerly here.
func Concat(a, b *Object) *Object {
	return &Object{
		Fields:  b.Fields,
		Order:   b.Order,
		Super:   a,
		Asserts: b.Asserts,
	}
}

// GetField resolves field `name` starting at `self` (the outermost/most
// derived layer) and walking down the Super chain, per spec §4.B:
//
//  1. Start at the outermost object in the chain; walk down looking for f.
//  2. At the first occurrence, if its plus flag is set, evaluate both the
//     child's value and the parent's value for f, then combine.
//  3. Otherwise return the child's value.
//  4. If f is not present anywhere, raise NoSuchField with a suggestion.
func GetField(self *Object, name string) (Value, error) {
	layer := self
	for layer != nil {
		if fd, ok := layer.Fields[name]; ok {
			val, err := fd.Binder(layer.Super, self)
			if err != nil {
				return nil, err
			}
			if fd.Plus && layer.Super != nil {
				if _, ok := lookupField(layer.Super, name); ok {
					parentVal, err := GetField(layer.Super, name)
					if err == nil {
						return Add(parentVal, val)
					}
				}
			}
			return val, nil
		}
		layer = layer.Super
	}
	return nil, kureerrors.New(kureerrors.ErrNoSuchField, suggestField(self, name))
}

func lookupField(o *Object, name string) (*Field, bool) {
	for layer := o; layer != nil; layer = layer.Super {
		if fd, ok := layer.Fields[name]; ok {
			return fd, true
		}
	}
	return nil, false
}

// HasField reports whether name is present anywhere in the chain,
// regardless of visibility.
func HasField(o *Object, name string) bool {
	_, ok := lookupField(o, name)
	return ok
}

// VisibilityOf returns the visibility of the first occurrence of name in
// the chain, walking exactly like GetField.
func VisibilityOf(o *Object, name string) (Visibility, bool) {
	fd, ok := lookupField(o, name)
	if !ok {
		return VisibilityNormal, false
	}
	return fd.Visibility, true
}

// AllFields returns every field name reachable anywhere in the chain, in
// first-occurrence (insertion) order unless sorted is requested -- this
// backs std.objectFieldsEx's preserve_order option (spec §5).
func AllFields(o *Object, includeHidden bool, sorted bool) []string {
	seen := make(map[string]bool)
	var order []string
	for layer := o; layer != nil; layer = layer.Super {
		names := layer.Order
		if names == nil {
			// No declared order recorded (synthetic/internal object):
			// fall back to a stable per-layer ordering rather than Go's
			// undefined map iteration order.
			names = make([]string, 0, len(layer.Fields))
			for n := range layer.Fields {
				names = append(names, n)
			}
			sort.Strings(names)
		}
		for _, n := range names {
			if seen[n] {
				continue
			}
			seen[n] = true
			fd, ok := layer.Fields[n]
			if !ok {
				continue
			}
			if !includeHidden && fd.Visibility == VisibilityHidden {
				continue
			}
			order = append(order, n)
		}
	}
	if sorted {
		return SortedStrings(order)
	}
	return order
}

// VisibleFields is AllFields(o, false, false).
func VisibleFields(o *Object) []string { return AllFields(o, false, false) }

// RunAsserts runs every assertion in the chain (outermost first) against
// self, short-circuiting on the first failure.
func RunAsserts(self *Object) error {
	for layer := self; layer != nil; layer = layer.Super {
		for _, a := range layer.Asserts {
			if err := a(layer.Super, self); err != nil {
				return err
			}
		}
	}
	return nil
}

// suggestField implements the "did-you-mean" part of NoSuchField by
// picking the closest name (Levenshtein distance <= 3) among all fields
// reachable in the chain.
func suggestField(o *Object, name string) string {
	best := ""
	bestDist := 4
	for _, n := range AllFields(o, true, false) {
		d := levenshtein(name, n)
		if d < bestDist {
			bestDist = d
			best = n
		}
	}
	if best == "" {
		return "field does not exist: " + name
	}
	return "field does not exist: " + name + " (did you mean: " + best + "?)"
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}
