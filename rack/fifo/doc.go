// Package fifo provides the bounded single-producer/single-consumer queue
// that carries scalar parameter updates from the control path into the
// real-time audio path.
//
// A Queue never blocks, never grows and never allocates after New. Exactly
// one goroutine may call Enqueue and exactly one (other) goroutine may call
// the Drain methods. A full queue rejects the incoming value and keeps the
// values already queued.
package fifo
