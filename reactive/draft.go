package reactive

// Draft builds a new version of a slice element by element. While every
// pushed element equals the element at the same position of the previous
// version nothing is allocated, and Commit returns the previous slice
// itself, so unchanged results keep their identity.
type Draft[T any] struct {
	prev    []T
	next    []T
	eq      EqualFunc[T]
	n       int
	changed bool
}

// NewDraft starts draft over previous version, nil eq means Identical.
func NewDraft[T any](prev []T, eq EqualFunc[T]) *Draft[T] {
	if eq == nil {
		eq = Identical[T]
	}
	return &Draft[T]{prev: prev, eq: eq}
}

// Push appends element.
func (d *Draft[T]) Push(v T) {
	if !d.changed {
		if d.n < len(d.prev) && d.eq(d.prev[d.n], v) {
			d.n++
			return
		}
		d.changed = true
		d.next = make([]T, d.n, max(len(d.prev), d.n+1))
		copy(d.next, d.prev[:d.n])
	}
	d.next = append(d.next, v)
	d.n++
}

// Len returns number of pushed elements.
func (d *Draft[T]) Len() int {
	return d.n
}

// Commit returns the resulting slice and reports whether it differs from
// the previous version.
func (d *Draft[T]) Commit() ([]T, bool) {
	if !d.changed {
		if d.n == len(d.prev) {
			return d.prev, false
		}
		// truncated
		return d.prev[:d.n:d.n], true
	}
	return d.next, true
}

// Keep returns prev when it equals next according to eq, so that unchanged
// values keep their identity.
func Keep[T any](prev, next T, eq EqualFunc[T]) (T, bool) {
	if eq == nil {
		eq = Identical[T]
	}
	if eq(prev, next) {
		return prev, false
	}
	return next, true
}
