package tracking

// RollingBuffer is a fixed-capacity FIFO history. Pushing into a full buffer evicts the
// oldest entry. It is not safe for concurrent use; the Sampler serializes access.
type RollingBuffer[T any] struct {
	values []T
	size   int
	index  int
	count  int
}

// NewRollingBuffer creates a buffer holding at most capacity entries (minimum 1).
func NewRollingBuffer[T any](capacity int) *RollingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingBuffer[T]{
		values: make([]T, capacity),
		size:   capacity,
	}
}

// Push appends v at the tail.
func (b *RollingBuffer[T]) Push(v T) {
	if b.count < b.size {
		b.count++
	}
	b.values[b.index] = v
	b.index = (b.index + 1) % b.size
}

// Len returns the number of entries held.
func (b *RollingBuffer[T]) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *RollingBuffer[T]) Cap() int {
	return b.size
}

// Snapshot returns a copy of the entries ordered oldest to newest.
func (b *RollingBuffer[T]) Snapshot() []T {
	out := make([]T, b.count)
	start := (b.index - b.count + b.size) % b.size
	for i := 0; i < b.count; i++ {
		out[i] = b.values[(start+i)%b.size]
	}
	return out
}

// Reset empties the buffer.
func (b *RollingBuffer[T]) Reset() {
	var zero T
	for i := range b.values {
		b.values[i] = zero
	}
	b.index = 0
	b.count = 0
}
