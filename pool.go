package flowpool

import "iter"

type (
	// Policy releases values the [Pool] relinquishes.
	// Release is called exactly once per value,
	// from whichever path drops it: [Pool.Remove],
	// [Pool.Replace], [Pool.Clear], or [Pool.Close].
	// Implementations must not call back into the pool.
	Policy[Value any] interface {
		Release(Value)
	}
	// PolicyFunc adapts a function to a [Policy].
	PolicyFunc[Value any] func(Value)
	// Pool maps flow identifiers to owned values,
	// stored densely in insertion slots that are
	// compacted by swapping the tail into removed slots.
	// Concurrent access must be guarded by the caller.
	// Constructed by [New].
	Pool[Value any] struct {
		policy  Policy[Value]
		locator map[string]int
		ids     []string
		slots   []Value
	}
)

func (fn PolicyFunc[Value]) Release(value Value) { fn(value) }

// New creates an empty [Pool] that releases values through policy.
// The size hint pre-sizes the tables and may be 0.
func New[Value any](policy Policy[Value], sizeHint int) (*Pool[Value], error) {
	if policy == nil {
		return nil, ErrNilPolicy
	}
	if sizeHint < 0 {
		return nil, sizeHintError(sizeHint)
	}
	return &Pool[Value]{
		policy:  policy,
		locator: make(map[string]int, sizeHint),
		ids:     make([]string, 0, sizeHint),
		slots:   make([]Value, 0, sizeHint),
	}, nil
}

// Insert appends value to the tail of the pool under id
// and takes ownership of it.
// If id already has a live entry, nothing is stored,
// the existing value is kept, and [ErrDuplicateFlow] is returned;
// value remains owned by the caller.
func (p *Pool[Value]) Insert(id string, value Value) error {
	if _, found := p.locator[id]; found {
		return duplicateError(id)
	}
	p.append(id, value)
	return nil
}

// Replace stores value under id, taking ownership of it.
// If id already had a live entry, its slot is reused
// and the previous value is released.
// value must not be the handle already stored under id;
// the pool cannot compare values, so that handle would be
// released while still live and released again on removal.
// Reports whether a previous value was replaced.
func (p *Pool[Value]) Replace(id string, value Value) bool {
	index, found := p.locator[id]
	if !found {
		p.append(id, value)
		return false
	}
	previous := p.slots[index]
	p.slots[index] = value
	p.release(previous)
	return true
}

func (p *Pool[Value]) append(id string, value Value) {
	p.locator[id] = len(p.slots)
	p.slots = append(p.slots, value)
	p.ids = append(p.ids, id)
	p.checkInvariants()
}

// Remove releases the value stored under id.
// The entry at the tail of the pool is moved into the freed slot,
// so its index changes; no other entry moves.
// Reports whether id had a live entry.
func (p *Pool[Value]) Remove(id string) bool {
	index, found := p.locator[id]
	if !found {
		return false
	}
	var (
		zero  Value
		last  = len(p.slots) - 1
		value = p.slots[index]
		tail  = p.ids[last]
	)
	p.slots[index] = p.slots[last]
	p.slots[last] = zero
	p.slots = p.slots[:last]
	// When index == last, tail == id and the
	// delete below undoes this self-assignment.
	p.locator[tail] = index
	delete(p.locator, id)
	p.ids[index] = tail
	p.ids[last] = ""
	p.ids = p.ids[:last]
	p.checkInvariants()
	p.release(value)
	return true
}

// Clear releases every value in table order
// and empties the pool.
func (p *Pool[Value]) Clear() {
	for _, value := range p.slots {
		p.release(value)
	}
	clear(p.locator)
	clear(p.slots)
	clear(p.ids)
	p.slots = p.slots[:0]
	p.ids = p.ids[:0]
	p.checkInvariants()
}

// Close releases every remaining value, as [Pool.Clear] does.
// It should be deferred by whoever constructs the pool,
// so values are released on every exit path.
// The pool remains usable after Close.
func (p *Pool[_]) Close() error {
	p.Clear()
	return nil
}

// release is the only place values are handed to the policy.
func (p *Pool[Value]) release(value Value) {
	p.policy.Release(value)
}

// Get returns the value stored under id.
func (p *Pool[Value]) Get(id string) (Value, bool) {
	if index, ok := p.locator[id]; ok {
		return p.slots[index], true
	}
	var zero Value
	return zero, false
}

// Len returns the number of live entries.
func (p *Pool[_]) Len() int {
	return len(p.slots)
}

// IDs returns the identifier table in its current order.
// Order is not insertion order once entries have been removed.
// The returned slice must not be modified,
// and is invalidated by any call that mutates the pool.
func (p *Pool[_]) IDs() []string {
	return p.ids[:len(p.ids):len(p.ids)]
}

// Values returns the dense value table, index-aligned with [Pool.IDs].
// It is intended for loops that visit every value by index.
// The same restrictions as [Pool.IDs] apply.
func (p *Pool[Value]) Values() []Value {
	return p.slots[:len(p.slots):len(p.slots)]
}

// At returns the identifier and value at index i.
// It panics if i is out of range.
func (p *Pool[Value]) At(i int) (string, Value) {
	return p.ids[i], p.slots[i]
}

// Keys returns an iterator over the live identifiers, in table order.
// The pool must not be mutated during iteration.
func (p *Pool[_]) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, id := range p.ids {
			if !yield(id) {
				return
			}
		}
	}
}

// All returns an iterator over identifier and value pairs, in table order.
// The pool must not be mutated during iteration.
func (p *Pool[Value]) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for i, id := range p.ids {
			if !yield(id, p.slots[i]) {
				return
			}
		}
	}
}

func (p *Pool[_]) checkInvariants() {
	if !debugging {
		return
	}
	assert(len(p.locator) == len(p.slots) && len(p.slots) == len(p.ids),
		"locator and tables out of step")
	for id, index := range p.locator {
		assert(index >= 0 && index < len(p.ids),
			"locator index out of range")
		assert(p.ids[index] == id,
			"locator points at another identifier")
	}
}
