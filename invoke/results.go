package invoke

import (
	"fmt"

	"github.com/wippyai/trigger-call/value"
)

// Results is the result buffer handed to a host call. It has exactly one
// slot per declared result and records which slots were written.
type Results struct {
	types   []value.Type
	values  []value.Value
	written []bool
	// breach is the first rejected Set, kept even if the host drops it.
	breach error
}

// NewResults allocates an unwritten buffer for the given result types.
func NewResults(types []value.Type) *Results {
	return &Results{
		types:   types,
		values:  make([]value.Value, len(types)),
		written: make([]bool, len(types)),
	}
}

// Len returns the number of slots.
func (r *Results) Len() int { return len(r.types) }

// Set writes slot i. Writing outside the buffer or writing a slot twice
// is an error, and the first such error is also recorded on r.
func (r *Results) Set(i int, v value.Value) error {
	var err error
	switch {
	case i < 0 || i >= len(r.values):
		err = fmt.Errorf("result slot %d out of range [0, %d)", i, len(r.values))
	case r.written[i]:
		err = fmt.Errorf("result slot %d written twice", i)
	}
	if err != nil {
		if r.breach == nil {
			r.breach = err
		}
		return err
	}
	r.values[i] = v
	r.written[i] = true
	return nil
}

// Written reports whether slot i has been written.
func (r *Results) Written(i int) bool {
	return i >= 0 && i < len(r.written) && r.written[i]
}

// Err returns the first rejected write, or nil.
func (r *Results) Err() error { return r.breach }

// Get returns the value of slot i and whether it was written.
func (r *Results) Get(i int) (value.Value, bool) {
	if !r.Written(i) {
		return nil, false
	}
	return r.values[i], true
}
