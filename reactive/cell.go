package reactive

import (
	"reflect"
)

// EqualFunc decides whether a write changes the cell.
type EqualFunc[T any] func(a, b T) bool

// Identical compares values with ==. Values which cannot be compared, for
// example slices or structs holding slices in interface fields, never
// compare equal.
func Identical[T any](a, b T) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return any(a) == any(b)
}

// Deep compares values structurally, used for cells holding IR trees.
func Deep[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// Readable is a cell which can be read, tracked or not.
type Readable[T any] interface {
	// Get returns current value registering dependency of the tracking
	// observer.
	Get() T
	// Peek returns current value without registering dependency.
	Peek() T
}

// Cell is a settable observable value.
type Cell[T any] struct {
	node
	value T
	eq    EqualFunc[T]
}

// NewCell creates settable cell, nil eq means Identical.
func NewCell[T any](g *Graph, value T, eq EqualFunc[T]) *Cell[T] {
	if eq == nil {
		eq = Identical[T]
	}
	return &Cell[T]{node: newNode(g), value: value, eq: eq}
}

func (c *Cell[T]) Get() T {
	c.read()
	return c.value
}

func (c *Cell[T]) Peek() T {
	return c.value
}

// Set stores value. When it differs from the current one dependent derived
// cells are recomputed and affected effects notified (or scheduled when
// inside Batch). Returns false when value was equal to the current one.
func (c *Cell[T]) Set(value T) bool {
	if c.eq(c.value, value) {
		return false
	}
	c.value = value
	c.g.propagate(&c.node)
	return true
}

// Update sets value computed from the current one.
func (c *Cell[T]) Update(fn func(T) T) bool {
	return c.Set(fn(c.value))
}

// Derived is a lazily computed cell. While observed it is recomputed
// whenever any of the cells it read changes, unobserved it is recomputed on
// every read.
type Derived[T any] struct {
	node
	fn    func() T
	eq    EqualFunc[T]
	value T
	valid bool
}

// NewDerived creates derived cell, nil eq means Identical.
func NewDerived[T any](g *Graph, fn func() T, eq EqualFunc[T]) *Derived[T] {
	if eq == nil {
		eq = Identical[T]
	}
	d := &Derived[T]{node: newNode(g), fn: fn, eq: eq}
	d.deps = make(map[*node]struct{})
	d.refresh = d.recompute
	d.invalidate = func() { d.valid = false }
	return d
}

func (d *Derived[T]) recompute() bool {
	prev, had := d.value, d.valid
	d.run(func() { d.value = d.fn() })
	d.valid = true
	return !had || !d.eq(prev, d.value)
}

func (d *Derived[T]) Get() T {
	d.read()
	if !d.valid {
		d.recompute()
	}
	d.release()
	return d.value
}

func (d *Derived[T]) Peek() T {
	if !d.valid {
		d.recompute()
		d.release()
	}
	return d.value
}

var (
	_ Readable[int] = (*Cell[int])(nil)
	_ Readable[int] = (*Derived[int])(nil)
)
