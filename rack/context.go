package rack

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Context is the processing context of one audio pipeline: its channel
// layout, sample rate, cycle size, the Chain and the optional collaborators
// entries are constructed against.
type Context struct {
	cfg   Config
	chain *Chain

	cycles atomic.Uint64

	// real-time scratch, sized at construction
	inputs  [][]float64
	silence []float64

	mu       sync.Mutex
	live     map[*Plugin]struct{}
	retired  []*Plugin
	ordinals map[uint64]map[int]struct{}
	closed   bool
}

// New creates a Context from the default configuration and opts.
func New(opts ...Option) (*Context, error) {
	return NewWithConfig(ApplyOptions(opts...))
}

// NewWithConfig creates a Context from an explicit configuration.
func NewWithConfig(cfg Config) (*Context, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Fatal == nil {
		cfg.Fatal = panicFatal(cfg.Logger)
	}

	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultConfig().QueueCapacity
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Context{
		cfg:      cfg,
		inputs:   make([][]float64, cfg.Channels),
		silence:  make([]float64, cfg.BufferSize),
		live:     make(map[*Plugin]struct{}),
		ordinals: make(map[uint64]map[int]struct{}),
	}
	c.chain = newChain(c)

	return c, nil
}

// Channels returns the host channel count.
func (c *Context) Channels() int { return c.cfg.Channels }

// SampleRate returns the processing sample rate.
func (c *Context) SampleRate() float64 { return c.cfg.SampleRate }

// BufferSize returns the number of frames per cycle.
func (c *Context) BufferSize() int { return c.cfg.BufferSize }

// Ports returns the auxiliary port registrar, or nil.
func (c *Context) Ports() PortRegistrar { return c.cfg.Ports }

// Logger returns the control-path logger.
func (c *Context) Logger() *slog.Logger { return c.cfg.Logger }

// Chain returns the context's plugin chain.
func (c *Context) Chain() *Chain { return c.chain }

// Cycles returns the number of completed processing cycles.
func (c *Context) Cycles() uint64 { return c.cycles.Load() }

// Retire schedules p, which must already be removed from the chain, for
// disposal once a processing cycle has completed after this call.
func (c *Context) Retire(p *Plugin) error {
	if p == nil {
		return nil
	}

	if p.ctx != c {
		return ErrForeign
	}

	if p.InChain() {
		return ErrInChain
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p.retiredAt = c.cycles.Load()
	c.retired = append(c.retired, p)

	return nil
}

// Reap disposes every retired entry that the real-time path can no longer
// reference and returns how many were disposed.
func (c *Context) Reap() int {
	now := c.cycles.Load()

	c.mu.Lock()

	var due []*Plugin

	keep := c.retired[:0]
	for _, p := range c.retired {
		if now > p.retiredAt {
			due = append(due, p)
			continue
		}

		keep = append(keep, p)
	}

	for i := len(keep); i < len(c.retired); i++ {
		c.retired[i] = nil
	}

	c.retired = keep
	c.mu.Unlock()

	for _, p := range due {
		if err := c.Dispose(p); err != nil {
			c.cfg.Logger.Warn("rack: dispose retired entry", "plugin", p.desc.Label, "err", err)
		}
	}

	return len(due)
}

// Pending returns the number of retired entries awaiting disposal.
func (c *Context) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.retired)
}

// Close removes every entry from the chain and disposes all live entries,
// including retired ones. The real-time path must be stopped first.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	c.closed = true
	c.retired = nil
	c.mu.Unlock()

	for _, p := range c.chain.Entries() {
		c.chain.Remove(p)
	}

	c.mu.Lock()
	all := make([]*Plugin, 0, len(c.live))
	for p := range c.live {
		all = append(all, p)
	}
	c.mu.Unlock()

	for _, p := range all {
		if err := c.Dispose(p); err != nil {
			return fmt.Errorf("rack: close: %w", err)
		}
	}

	return nil
}

func (c *Context) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *Context) allocOrdinal(typeID uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	used := c.ordinals[typeID]
	if used == nil {
		used = make(map[int]struct{})
		c.ordinals[typeID] = used
	}

	ord := 1
	for {
		if _, taken := used[ord]; !taken {
			break
		}
		ord++
	}

	used[ord] = struct{}{}

	return ord
}

func (c *Context) releaseOrdinal(typeID uint64, ord int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.ordinals[typeID], ord)
}
