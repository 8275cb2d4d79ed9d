package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

var (
	// ErrNotFound is returned for IDs that name no entry of the dispatcher.
	ErrNotFound = errors.New("control: no such entry")
	// ErrUnknownType is returned for labels missing from the registry.
	ErrUnknownType = errors.New("control: unknown plugin type")
	// ErrNoControl is returned for control names the plugin type lacks.
	ErrNoControl = errors.New("control: no such control")
	// ErrQueueFull is returned when a parameter queue dropped a value.
	ErrQueueFull = errors.New("control: parameter queue full")
)

// DefaultReapInterval is how often retired entries are checked for disposal.
const DefaultReapInterval = 50 * time.Millisecond

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBuffer sets how many operations may wait for the worker.
func WithBuffer(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.buffer = n
		}
	}
}

// WithReapInterval sets the disposal tick. Zero disables the ticker;
// Reap must then be called explicitly.
func WithReapInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval >= 0 {
			d.reapEvery = interval
		}
	}
}

// Entry describes one chain entry.
type Entry struct {
	ID            uuid.UUID
	Label         string
	Copies        int
	Enabled       bool
	WetDryEnabled bool
}

// Dispatcher applies control operations to a rack.Context on a single
// worker goroutine. Call Start once and Close when done.
type Dispatcher struct {
	rack     *rack.Context
	registry *descriptor.Registry
	logger   *slog.Logger

	buffer    int
	reapEvery time.Duration
	w         *worker

	// worker-owned
	entries map[uuid.UUID]*rack.Plugin
}

// New creates a dispatcher resolving plugin labels through reg.
func New(c *rack.Context, reg *descriptor.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		rack:      c,
		registry:  reg,
		logger:    c.Logger(),
		buffer:    32,
		reapEvery: DefaultReapInterval,
		entries:   make(map[uuid.UUID]*rack.Plugin),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	d.w = newWorker(d.buffer, d.reapEvery, d.reap, func(err error) {
		d.logger.Warn("control: operation failed", "err", err)
	})

	return d
}

// Start begins the worker goroutine. Safe to call more than once.
func (d *Dispatcher) Start() { d.w.start() }

// Close stops the worker after running already queued operations. Entries
// stay in the context; closing the context disposes them.
func (d *Dispatcher) Close() { d.w.close() }

// Enqueue schedules op on the worker without waiting. A failing op is
// logged.
func (d *Dispatcher) Enqueue(op Op) error { return d.w.enqueue(op) }

// RunSync runs fn on the worker and returns its error.
func (d *Dispatcher) RunSync(fn Func) error { return d.w.runSync(fn) }

// Reap disposes retired entries the real-time path has moved past and
// returns how many were disposed. It runs on the worker.
func (d *Dispatcher) Reap() (int, error) {
	var n int

	err := d.RunSync(func(context.Context) error {
		n = d.rack.Reap()
		return nil
	})

	return n, err
}

func (d *Dispatcher) reap() {
	if n := d.rack.Reap(); n > 0 {
		d.logger.Debug("control: reaped retired entries", "count", n)
	}
}

// Add instantiates the plugin type label, enables it and appends it to the
// chain.
func (d *Dispatcher) Add(label string) (uuid.UUID, error) {
	return d.Insert(label, uuid.Nil)
}

// Insert is Add placing the new entry before the entry before. uuid.Nil
// appends.
func (d *Dispatcher) Insert(label string, before uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID

	err := d.RunSync(func(context.Context) error {
		var next *rack.Plugin
		if before != uuid.Nil {
			var err error
			if next, err = d.lookup(before); err != nil {
				return err
			}
		}

		p, err := d.instantiate(label)
		if err != nil {
			return err
		}

		chain := d.rack.Chain()
		chain.SetEnabled(p, true)
		chain.Insert(p, next)

		d.entries[p.ID()] = p
		id = p.ID()

		d.logger.Info("control: added plugin", "plugin", label, "id", id)

		return nil
	})

	return id, err
}

// Remove unlinks the entry and schedules its disposal.
func (d *Dispatcher) Remove(id uuid.UUID) error {
	return d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		d.rack.Chain().Remove(p)
		delete(d.entries, id)

		d.logger.Info("control: removed plugin", "plugin", p.Descriptor().Label, "id", id)

		return d.rack.Retire(p)
	})
}

// Move shifts the entry one position. Moving past either end does nothing.
func (d *Dispatcher) Move(id uuid.UUID, dir rack.MoveDirection) error {
	return d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		d.rack.Chain().Move(p, dir)

		return nil
	})
}

// Replace puts a new entry of type label in place of id, carrying over the
// enabled and wet/dry flags and wet/dry values, and schedules the old
// entry's disposal.
func (d *Dispatcher) Replace(id uuid.UUID, label string) (uuid.UUID, error) {
	var newID uuid.UUID

	err := d.RunSync(func(context.Context) error {
		old, err := d.lookup(id)
		if err != nil {
			return err
		}

		p, err := d.instantiate(label)
		if err != nil {
			return err
		}

		chain := d.rack.Chain()
		chain.SetEnabled(p, old.Enabled())
		chain.SetWetDryEnabled(p, old.WetDryEnabled())

		for ch := range d.rack.Channels() {
			p.PushWetDry(ch, old.WetDry(ch))
		}

		chain.Replace(old, p)
		delete(d.entries, id)
		d.entries[p.ID()] = p
		newID = p.ID()

		d.logger.Info("control: replaced plugin",
			"old", old.Descriptor().Label, "new", label, "id", newID)

		return d.rack.Retire(old)
	})

	return newID, err
}

// SetEnabled switches processing of the entry.
func (d *Dispatcher) SetEnabled(id uuid.UUID, enabled bool) error {
	return d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		d.rack.Chain().SetEnabled(p, enabled)

		return nil
	})
}

// SetWetDryEnabled switches the entry's wet/dry blend.
func (d *Dispatcher) SetWetDryEnabled(id uuid.UUID, enabled bool) error {
	return d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		d.rack.Chain().SetWetDryEnabled(p, enabled)

		return nil
	})
}

// SetControl queues value for the named control of every copy of the
// entry, clamped to the port's range.
func (d *Dispatcher) SetControl(id uuid.UUID, name string, value float64) error {
	return d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		desc := p.Descriptor()

		slot := desc.ControlPortByName(name)
		if slot < 0 {
			return fmt.Errorf("%w: %s has no %q", ErrNoControl, desc.Label, name)
		}

		if hint, ok := desc.Hints[desc.ControlPorts[slot]]; ok {
			value = hint.Clamp(value, d.rack.SampleRate())
		}

		if !p.PushControlAll(slot, value) {
			return fmt.Errorf("%w: %s.%s", ErrQueueFull, desc.Label, name)
		}

		return nil
	})
}

// SetWetDry queues the wet/dry value for every channel of the entry.
func (d *Dispatcher) SetWetDry(id uuid.UUID, value float64) error {
	return d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		value = min(max(value, 0), 1)

		for ch := range d.rack.Channels() {
			if !p.PushWetDry(ch, value) {
				return fmt.Errorf("%w: %s wet/dry", ErrQueueFull, p.Descriptor().Label)
			}
		}

		return nil
	})
}

// Control returns the value last applied to the named control of one copy.
func (d *Dispatcher) Control(id uuid.UUID, copyIndex int, name string) (float64, error) {
	var v float64

	err := d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		slot := p.Descriptor().ControlPortByName(name)
		if slot < 0 {
			return fmt.Errorf("%w: %s has no %q", ErrNoControl, p.Descriptor().Label, name)
		}

		v = p.ControlValue(copyIndex, slot)

		return nil
	})

	return v, err
}

// Status returns the value one copy last reported on the named status port.
func (d *Dispatcher) Status(id uuid.UUID, copyIndex int, name string) (float64, error) {
	var v float64

	err := d.RunSync(func(context.Context) error {
		p, err := d.lookup(id)
		if err != nil {
			return err
		}

		desc := p.Descriptor()
		for slot, port := range desc.StatusPorts {
			if desc.PortNames[port] == name {
				v = p.StatusValue(copyIndex, slot)
				return nil
			}
		}

		return fmt.Errorf("%w: %s has no status %q", ErrNoControl, desc.Label, name)
	})

	return v, err
}

// Entries returns the chain in processing order.
func (d *Dispatcher) Entries() ([]Entry, error) {
	var out []Entry

	err := d.RunSync(func(context.Context) error {
		for _, p := range d.rack.Chain().Entries() {
			out = append(out, Entry{
				ID:            p.ID(),
				Label:         p.Descriptor().Label,
				Copies:        p.Copies(),
				Enabled:       p.Enabled(),
				WetDryEnabled: p.WetDryEnabled(),
			})
		}

		return nil
	})

	return out, err
}

func (d *Dispatcher) lookup(id uuid.UUID) (*rack.Plugin, error) {
	p, ok := d.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return p, nil
}

func (d *Dispatcher) instantiate(label string) (*rack.Plugin, error) {
	desc := d.registry.LookupLabel(label)
	if desc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, label)
	}

	p, err := d.rack.Instantiate(desc)
	if err != nil {
		return nil, fmt.Errorf("control: add %s: %w", label, err)
	}

	return p, nil
}
