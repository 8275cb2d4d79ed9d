package control

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned for operations submitted after Close.
var ErrClosed = errors.New("control: dispatcher closed")

// Op is one control-path operation. It runs on the dispatcher's worker and
// receives a context canceled on shutdown.
type Op interface {
	Apply(ctx context.Context) error
}

// Func adapts a function into an Op.
type Func func(ctx context.Context) error

// Apply calls f.
func (f Func) Apply(ctx context.Context) error { return f(ctx) }

// worker runs ops in submission order and calls tick periodically.
type worker struct {
	ch     chan Op
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	interval time.Duration
	tick     func()
	failed   func(error)
}

func newWorker(buffer int, interval time.Duration, tick func(), failed func(error)) *worker {
	if buffer <= 0 {
		buffer = 32
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &worker{
		ch:       make(chan Op, buffer),
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
		tick:     tick,
		failed:   failed,
	}
}

func (w *worker) start() {
	w.once.Do(func() {
		w.wg.Add(1)

		go w.run()
	})
}

func (w *worker) run() {
	defer w.wg.Done()

	var tick <-chan time.Time

	if w.interval > 0 && w.tick != nil {
		t := time.NewTicker(w.interval)
		defer t.Stop()

		tick = t.C
	}

	for {
		select {
		case <-w.ctx.Done():
			// Best effort: run what is already queued, then stop.
			for {
				select {
				case op := <-w.ch:
					w.apply(op)
				default:
					return
				}
			}
		case op := <-w.ch:
			w.apply(op)
		case <-tick:
			w.tick()
		}
	}
}

func (w *worker) apply(op Op) {
	if op == nil {
		return
	}

	if err := op.Apply(w.ctx); err != nil && w.failed != nil {
		w.failed(err)
	}
}

func (w *worker) enqueue(op Op) error {
	if w.ctx.Err() != nil {
		return ErrClosed
	}

	select {
	case w.ch <- op:
		return nil
	case <-w.ctx.Done():
		return ErrClosed
	}
}

// runSync enqueues fn and waits for its result.
func (w *worker) runSync(fn Func) error {
	done := make(chan error, 1)

	err := w.enqueue(Func(func(ctx context.Context) error {
		done <- fn(ctx)
		return nil
	}))
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-w.ctx.Done():
		// The op may still have run during the shutdown drain.
		select {
		case err := <-done:
			return err
		default:
			return ErrClosed
		}
	}
}

func (w *worker) close() {
	w.cancel()
	w.wg.Wait()
}
