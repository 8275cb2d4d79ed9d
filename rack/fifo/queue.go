package fifo

import "sync/atomic"

// DefaultCapacity is the number of slots used for control-port and wet/dry
// queues.
const DefaultCapacity = 128

// Queue is a lock-free SPSC ring of float64 values.
type Queue struct {
	_     [64]byte
	write atomic.Uint64
	_     [56]byte
	read  atomic.Uint64
	_     [56]byte

	mask uint64
	buf  []float64
}

// New returns a Queue holding at least capacity values. The capacity is
// rounded up to the next power of two; values <= 0 select DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	size := nextPow2(capacity)

	return &Queue{
		mask: uint64(size - 1),
		buf:  make([]float64, size),
	}
}

// Enqueue appends v. It returns false, discarding v, when the queue is full.
// Only the producer may call Enqueue.
func (q *Queue) Enqueue(v float64) bool {
	w := q.write.Load()
	if w-q.read.Load() > q.mask {
		return false
	}

	q.buf[w&q.mask] = v
	q.write.Store(w + 1)

	return true
}

// DrainApply dequeues every value currently queued and calls fn for each in
// FIFO order. It returns the number of values delivered. Only the consumer
// may call DrainApply.
func (q *Queue) DrainApply(fn func(float64)) int {
	r := q.read.Load()
	w := q.write.Load()

	n := 0
	for ; r != w; r++ {
		fn(q.buf[r&q.mask])
		n++
	}

	q.read.Store(r)

	return n
}

// DrainLast dequeues every queued value and returns the most recent one.
// ok is false if the queue was empty. Only the consumer may call DrainLast.
func (q *Queue) DrainLast() (last float64, ok bool) {
	r := q.read.Load()
	w := q.write.Load()

	if r == w {
		return 0, false
	}

	last = q.buf[(w-1)&q.mask]
	q.read.Store(w)

	return last, true
}

// Len reports the number of queued values. The result is a snapshot and may
// be stale by the time it is used.
func (q *Queue) Len() int {
	return int(q.write.Load() - q.read.Load())
}

// Cap returns the fixed number of slots.
func (q *Queue) Cap() int {
	return len(q.buf)
}

func nextPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
