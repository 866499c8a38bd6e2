package link

// Ring is a bounded FIFO over a fixed backing array. Pushing onto a full ring
// is refused and leaves it untouched.
type Ring[T any] struct {
	items []T
	head  int
	count int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

func (r *Ring[T]) Push(v T) bool {
	if r.count == len(r.items) {
		return false
	}
	r.items[(r.head+r.count)%len(r.items)] = v
	r.count++
	return true
}

func (r *Ring[T]) Pop() (v T, ok bool) {
	if r.count == 0 {
		return v, false
	}
	v = r.items[r.head]
	var zero T
	r.items[r.head] = zero
	r.head = (r.head + 1) % len(r.items)
	r.count--
	return v, true
}

// Front returns a pointer to the head element so callers can walk it in place.
func (r *Ring[T]) Front() (v *T, ok bool) {
	if r.count == 0 {
		return nil, false
	}
	return &r.items[r.head], true
}

func (r *Ring[T]) Len() int    { return r.count }
func (r *Ring[T]) Cap() int    { return len(r.items) }
func (r *Ring[T]) Full() bool  { return r.count == len(r.items) }
func (r *Ring[T]) Empty() bool { return r.count == 0 }
