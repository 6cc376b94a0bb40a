package sequence

// Queue is a FIFO queue backed by a growable ring buffer. It is not safe for
// concurrent use; callers provide their own locking.
type Queue[T any] struct {
	items []T
	head  int
	size  int
}

func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{items: make([]T, capacity)}
}

func (q *Queue[T]) Enqueue(value T) {
	if q.items == nil {
		q.items = make([]T, 1)
	}
	if q.size == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.size)%len(q.items)] = value
	q.size++
}

func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	value := q.items[q.head]
	q.items[q.head] = zero // avoid memory leak
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return value, true
}

func (q *Queue[T]) Peek() (T, bool) {
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.items[q.head], true
}

func (q *Queue[T]) Len() int {
	return q.size
}

func (q *Queue[T]) IsEmpty() bool {
	return q.size == 0
}

// Clear drops every element and returns them in FIFO order.
func (q *Queue[T]) Clear() []T {
	out := q.Snapshot()
	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.head, q.size = 0, 0
	return out
}

// Snapshot copies the elements in FIFO order without removing them.
func (q *Queue[T]) Snapshot() []T {
	out := make([]T, q.size)
	for i := range out {
		out[i] = q.items[(q.head+i)%len(q.items)]
	}
	return out
}

func (q *Queue[T]) grow() {
	items := make([]T, len(q.items)*2)
	copy(items, q.Snapshot())
	q.items = items
	q.head = 0
}
