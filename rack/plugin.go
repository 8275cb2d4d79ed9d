package rack

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-rack/rack/descriptor"
	"github.com/cwbudde/algo-rack/rack/fifo"
)

// Plugin is one chain entry: all native copies of a plugin type needed to
// cover the host's channels, their control state, the entry's output
// buffers and its wet/dry mix state.
type Plugin struct {
	id     uuid.UUID
	ctx    *Context
	desc   *descriptor.Descriptor
	module Module

	holders []holder

	enabled       atomic.Bool
	wetDryEnabled atomic.Bool

	wetDryQueues []*fifo.Queue
	wetDry       []atomicFloat
	outputs      [][]float64

	// real-time scratch
	scratch []float64
	discard []float64

	// control-path state, guarded by the chain mutex
	slot      int
	retiredAt uint64
	disposed  atomic.Bool
}

// Instantiate opens d through the context's loader and creates an entry
// with enough copies to cover every host channel. Every control port starts
// at its default value, already pushed into the native instances. The entry
// is not linked into the chain and starts disabled with wet/dry off.
//
// On failure nothing created along the way remains alive.
//
//nolint:cyclop,funlen
func (c *Context) Instantiate(d *descriptor.Descriptor) (*Plugin, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}

	if d == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrOpen)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, d.Label, err)
	}

	if c.cfg.Loader == nil {
		return nil, fmt.Errorf("%w: %s: no loader configured", ErrOpen, d.Label)
	}

	module, err := c.cfg.Loader.Open(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, d.Label, err)
	}

	copies := d.Copies(c.cfg.Channels)
	effects := make([]Effect, 0, copies)

	for range copies {
		fx, err := module.Instantiate(d, c.cfg.SampleRate)
		if err != nil {
			releaseEffects(effects)
			c.closeModule(d, module)

			return nil, fmt.Errorf("%w: %s: %w", ErrInstantiate, d.Label, err)
		}

		fx.SetSampleRate(c.cfg.SampleRate)
		effects = append(effects, fx)
	}

	p := &Plugin{
		id:      uuid.New(),
		ctx:     c,
		desc:    d,
		module:  module,
		holders: make([]holder, copies),
		slot:    noSlot,
	}

	for i, fx := range effects {
		p.initHolder(i, fx)
	}

	if c.cfg.Ports != nil && d.AuxChannels > 0 {
		if err := p.createAuxPorts(); err != nil {
			releaseEffects(effects)
			c.closeModule(d, module)

			return nil, err
		}
	}

	channels := c.cfg.Channels
	frames := c.cfg.BufferSize

	p.outputs = make([][]float64, channels)
	p.wetDryQueues = make([]*fifo.Queue, channels)
	p.wetDry = make([]atomicFloat, channels)

	for ch := range channels {
		p.outputs[ch] = make([]float64, frames)
		p.wetDryQueues[ch] = fifo.New(c.cfg.QueueCapacity)
		p.wetDry[ch].Store(1.0)
	}

	p.scratch = make([]float64, frames)
	p.discard = make([]float64, frames)

	for _, fx := range effects {
		if a, ok := fx.(Activator); ok {
			a.Activate()
		}
	}

	c.mu.Lock()
	c.live[p] = struct{}{}
	c.mu.Unlock()

	c.cfg.Logger.Debug("rack: instantiated plugin",
		"plugin", d.Label, "id", p.id, "copies", copies)

	return p, nil
}

func (p *Plugin) initHolder(copyIndex int, fx Effect) {
	d := p.desc
	h := &p.holders[copyIndex]
	h.effect = fx

	if n := len(d.ControlPorts); n > 0 {
		h.queues = make([]*fifo.Queue, n)
		h.control = make([]atomicFloat, n)
	}

	for i, port := range d.ControlPorts {
		h.queues[i] = fifo.New(p.ctx.cfg.QueueCapacity)

		v := d.DefaultValue(port, p.ctx.cfg.SampleRate)
		h.control[i].Store(v)
		fx.SetParameter(d.NativeParameter(port), v)
	}

	if n := len(d.StatusPorts); n > 0 {
		h.status = make([]atomicFloat, n)
	}
}

func (p *Plugin) createAuxPorts() error {
	d := p.desc
	ports := p.ctx.cfg.Ports
	ordinal := p.ctx.allocOrdinal(d.ID)

	var registered []Port

	for copyIndex := range p.holders {
		set := &auxSet{ordinal: ordinal, ports: make([]Port, d.AuxChannels)}

		for ch := range d.AuxChannels {
			name := auxPortName(d, ordinal, copyIndex, ch)

			port, err := ports.Register(name, d.AuxDirection)
			if err != nil || port == nil {
				if err == nil {
					err = errors.New("registrar returned no port")
				}

				p.ctx.cfg.Fatal(fmt.Sprintf("could not register port %q", name), err)

				for _, reg := range registered {
					_ = ports.Unregister(reg)
				}

				p.ctx.releaseOrdinal(d.ID, ordinal)

				return fmt.Errorf("%w: %s: %w", ErrPortRegister, name, err)
			}

			set.ports[ch] = port
			registered = append(registered, port)
		}

		p.holders[copyIndex].aux.Store(set)
	}

	return nil
}

// auxPortName builds the physical port name for one auxiliary channel:
// the first seven characters of the plugin name, lower-cased with spaces
// replaced, the ordinal among same-type entries, the 1-based copy, a
// direction marker and the 1-based aux channel.
func auxPortName(d *descriptor.Descriptor, ordinal, copyIndex, channel int) string {
	name := []rune(d.Name)
	if len(name) > 7 {
		name = name[:7]
	}

	short := strings.Map(func(r rune) rune {
		if r == ' ' {
			return '_'
		}

		return unicode.ToLower(r)
	}, string(name))

	return fmt.Sprintf("%s_%d-%d_%c%d", short, ordinal, copyIndex+1, d.AuxDirection.Marker(), channel+1)
}

// Dispose releases every resource of p: native instances, auxiliary ports
// and the opened module. p must not be in the chain, and the real-time path
// must have completed a cycle since it was removed (see Retire). Teardown
// failures are logged and do not stop the remaining teardown.
func (c *Context) Dispose(p *Plugin) error {
	if p == nil {
		return nil
	}

	if p.ctx != c {
		return ErrForeign
	}

	if p.InChain() {
		return ErrInChain
	}

	if p.disposed.Swap(true) {
		return nil
	}

	c.mu.Lock()
	delete(c.live, p)

	var others []*Plugin
	for q := range c.live {
		if q.desc.ID == p.desc.ID {
			others = append(others, q)
		}
	}
	c.mu.Unlock()

	c.chain.compactAux(p, others)

	d := p.desc
	logger := c.cfg.Logger
	releasedOrdinal := 0

	for i := range p.holders {
		h := &p.holders[i]

		if a, ok := h.effect.(Activator); ok {
			a.Deactivate()
		}

		if set := h.aux.Swap(nil); set != nil {
			releasedOrdinal = set.ordinal

			for _, port := range set.ports {
				if err := c.cfg.Ports.Unregister(port); err != nil {
					logger.Warn("rack: could not unregister aux port",
						"plugin", d.Label, "port", port.Name(), "err", err)
				}
			}
		}

		if r, ok := h.effect.(Releaser); ok {
			r.Release()
		}

		h.effect = nil
		h.queues = nil
	}

	if releasedOrdinal > 0 {
		c.releaseOrdinal(d.ID, releasedOrdinal)
	}

	c.closeModule(d, p.module)

	p.holders = nil
	p.outputs = nil
	p.wetDryQueues = nil
	p.module = nil

	logger.Debug("rack: disposed plugin", "plugin", d.Label, "id", p.id)

	return nil
}

func (c *Context) closeModule(d *descriptor.Descriptor, m Module) {
	if m == nil {
		return
	}

	if err := m.Close(); err != nil {
		c.cfg.Logger.Warn("rack: error closing plugin module",
			"plugin", d.Label, "object", d.ObjectFile, "err", err)
	}
}

func releaseEffects(effects []Effect) {
	for _, fx := range effects {
		if r, ok := fx.(Releaser); ok {
			r.Release()
		}
	}
}

// ID returns the stable identifier of the entry.
func (p *Plugin) ID() uuid.UUID { return p.id }

// Descriptor returns the shared descriptor of the entry's plugin type.
func (p *Plugin) Descriptor() *descriptor.Descriptor { return p.desc }

// Copies returns the number of native instances.
func (p *Plugin) Copies() int { return len(p.holders) }

// Enabled reports whether the entry processes audio.
func (p *Plugin) Enabled() bool { return p.enabled.Load() }

// WetDryEnabled reports whether the wet/dry blend is applied.
func (p *Plugin) WetDryEnabled() bool { return p.wetDryEnabled.Load() }

// Disposed reports whether Dispose has run.
func (p *Plugin) Disposed() bool { return p.disposed.Load() }

// InChain reports whether the entry is linked into its context's chain.
func (p *Plugin) InChain() bool {
	p.ctx.chain.mu.Lock()
	defer p.ctx.chain.mu.Unlock()

	return p.slot != noSlot
}

// PushControl queues a value for control slot port (an index into the
// descriptor's ControlPorts) of one copy. It returns false if the slot does
// not exist or the queue is full; the value is then dropped.
func (p *Plugin) PushControl(copyIndex, port int, value float64) bool {
	if copyIndex < 0 || copyIndex >= len(p.holders) {
		return false
	}

	h := &p.holders[copyIndex]
	if port < 0 || port >= len(h.queues) {
		return false
	}

	return h.queues[port].Enqueue(value)
}

// PushControlAll queues value for control slot port of every copy. It
// returns true only if every copy accepted it.
func (p *Plugin) PushControlAll(port int, value float64) bool {
	if len(p.holders) == 0 {
		return false
	}

	ok := true
	for i := range p.holders {
		if !p.PushControl(i, port, value) {
			ok = false
		}
	}

	return ok
}

// PushWetDry queues a wet/dry value (0 dry, 1 wet) for a host channel.
func (p *Plugin) PushWetDry(channel int, value float64) bool {
	if channel < 0 || channel >= len(p.wetDryQueues) {
		return false
	}

	return p.wetDryQueues[channel].Enqueue(value)
}

// ControlValue returns the value last applied to a copy's control slot.
func (p *Plugin) ControlValue(copyIndex, port int) float64 {
	if copyIndex < 0 || copyIndex >= len(p.holders) {
		return 0
	}

	h := &p.holders[copyIndex]
	if port < 0 || port >= len(h.control) {
		return 0
	}

	return h.control[port].Load()
}

// StatusValue returns the value a copy last reported on a status slot (an
// index into the descriptor's StatusPorts).
func (p *Plugin) StatusValue(copyIndex, port int) float64 {
	if copyIndex < 0 || copyIndex >= len(p.holders) {
		return 0
	}

	h := &p.holders[copyIndex]
	if port < 0 || port >= len(h.status) {
		return 0
	}

	return h.status[port].Load()
}

// WetDry returns the wet/dry value last applied to a host channel.
func (p *Plugin) WetDry(channel int) float64 {
	if channel < 0 || channel >= len(p.wetDry) {
		return 0
	}

	return p.wetDry[channel].Load()
}

// AuxPorts returns the auxiliary ports currently held by a copy.
func (p *Plugin) AuxPorts(copyIndex int) []Port {
	if copyIndex < 0 || copyIndex >= len(p.holders) {
		return nil
	}

	set := p.holders[copyIndex].aux.Load()
	if set == nil {
		return nil
	}

	return set.ports
}

// AuxOrdinal returns the same-type position encoded in the entry's
// auxiliary port names, or 0 without auxiliary ports.
func (p *Plugin) AuxOrdinal() int {
	return p.auxOrdinal()
}

// Output returns the entry's output buffer for a host channel. It is owned
// by the real-time path and only stable between cycles.
func (p *Plugin) Output(channel int) []float64 {
	if channel < 0 || channel >= len(p.outputs) {
		return nil
	}

	return p.outputs[channel]
}
