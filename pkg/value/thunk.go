package value

import (
	"sync"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

type thunkState int

const (
	thunkPending thunkState = iota
	thunkEvaluating
	thunkDone
)

// Thunk is a suspended computation producing a Value on demand. It stores
// either a compute function (expression + capturing context, supplied by
// pkg/eval) or an already-materialized Value. Thunks are evaluated at-most
// once; repeated Force calls return the cached Value. Re-entrant Force
// calls (a thunk depending on itself) are a cycle and raise
// ErrInfiniteRecursion, matching the "thunks need cycle detection" design
// note.
type Thunk struct {
	mu      sync.Mutex
	state   thunkState
	value   Value
	err     error
	compute func() (Value, error)
}

// NewThunk wraps a deferred computation. The compute func is invoked at
// most once, the first time Force is called.
func NewThunk(compute func() (Value, error)) *Thunk {
	return &Thunk{compute: compute}
}

// Ready wraps an already-computed Value in a Thunk with no further work.
func Ready(v Value) *Thunk {
	return &Thunk{state: thunkDone, value: v}
}

// Force evaluates the thunk if needed and returns its cached Value.
//
// The evaluator is single-threaded and cooperative (spec §4.B Scheduling),
// so the mutex here only guards the cycle-detection state machine, not
// concurrent producers; export workers each get their own evaluator
// instance and therefore their own thunk graphs (spec §5).
func (t *Thunk) Force() (Value, error) {
	t.mu.Lock()
	switch t.state {
	case thunkDone:
		v, err := t.value, t.err
		t.mu.Unlock()
		return v, err
	case thunkEvaluating:
		t.mu.Unlock()
		return nil, kureerrors.ErrInfiniteRecursion
	}
	t.state = thunkEvaluating
	compute := t.compute
	t.mu.Unlock()

	v, err := compute()

	t.mu.Lock()
	t.state = thunkDone
	t.value, t.err = v, err
	t.compute = nil
	t.mu.Unlock()
	return v, err
}
