package builtin

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

// ObjectFile is the object file name reported by every built-in descriptor.
const ObjectFile = "builtin"

// Type IDs of the built-in effects.
const (
	GainID uint64 = 4301 + iota
	DelayID
	LowpassID
	AnalyzerID
	SendID
	ReturnID
)

// ErrUnknown is returned by Loader.Open for descriptors it has no effect for.
var ErrUnknown = errors.New("builtin: unknown plugin type")

type factory func(d *descriptor.Descriptor) rack.Effect

var factories = map[uint64]factory{
	GainID:     newGain,
	DelayID:    newDelay,
	LowpassID:  newLowpass,
	AnalyzerID: newAnalyzer,
	SendID:     newSend,
	ReturnID:   newReturn,
}

// Descriptors returns fresh descriptors of all built-in effects in ID order.
func Descriptors() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{
		gainDescriptor(),
		delayDescriptor(),
		lowpassDescriptor(),
		analyzerDescriptor(),
		sendDescriptor(),
		returnDescriptor(),
	}
}

// Registry returns a descriptor registry holding every built-in effect.
func Registry() *descriptor.Registry {
	reg := descriptor.NewRegistry()
	for _, d := range Descriptors() {
		reg.MustRegister(d)
	}

	return reg
}

// Loader opens built-in effects by type ID. The zero value is ready to use.
type Loader struct{}

// Open returns the module for d, or ErrUnknown.
func (Loader) Open(d *descriptor.Descriptor) (rack.Module, error) {
	f, ok := factories[d.ID]
	if !ok || d.ObjectFile != ObjectFile {
		return nil, fmt.Errorf("%w: %s (%d)", ErrUnknown, d.Label, d.ID)
	}

	return module{newEffect: f}, nil
}

type module struct {
	newEffect factory
}

func (m module) Instantiate(d *descriptor.Descriptor, sampleRate float64) (rack.Effect, error) {
	fx := m.newEffect(d)
	fx.SetSampleRate(sampleRate)

	return fx, nil
}

func (module) Close() error { return nil }

// base holds port bindings and parameter storage shared by all effects.
// Parameters are stored clamped to their port's range.
type base struct {
	desc   *descriptor.Descriptor
	rate   float64
	ports  [][]float64
	params []float64
}

func newBase(d *descriptor.Descriptor) base {
	audio := d.AudioPortCount()
	n := audio + len(d.ControlPorts) + len(d.StatusPorts)

	return base{
		desc:   d,
		rate:   48000,
		ports:  make([][]float64, audio),
		params: make([]float64, n-audio),
	}
}

func (b *base) SetSampleRate(rate float64) {
	if rate > 0 {
		b.rate = rate
	}
}

func (b *base) ConnectPort(port int, buf []float64) {
	if port >= 0 && port < len(b.ports) {
		b.ports[port] = buf
	}
}

func (b *base) SetParameter(index int, value float64) {
	if index < 0 || index >= len(b.params) {
		return
	}

	if hint, ok := b.desc.Hints[index+len(b.ports)]; ok {
		value = hint.Clamp(value, b.rate)
	}

	b.params[index] = value
}

func (b *base) Parameter(index int) float64 {
	if index < 0 || index >= len(b.params) {
		return 0
	}

	return b.params[index]
}

func (b *base) param(port int) float64 {
	return b.params[port-len(b.ports)]
}

func (b *base) setStatus(port int, v float64) {
	b.params[port-len(b.ports)] = v
}

func bounded(lower, upper float64, def descriptor.HintFlags) descriptor.PortHint {
	return descriptor.PortHint{
		Flags: descriptor.BoundedBelow | descriptor.BoundedAbove | def,
		Lower: lower,
		Upper: upper,
	}
}

// mono returns a one-channel descriptor skeleton with ports 0 in and 1 out.
func mono(id uint64, label, name string, index int) *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID:           id,
		Label:        label,
		Name:         name,
		ObjectFile:   ObjectFile,
		Index:        index,
		Channels:     1,
		AudioInputs:  []int{0},
		AudioOutputs: []int{1},
		Hints:        map[int]descriptor.PortHint{},
		PortNames:    map[int]string{0: "in", 1: "out"},
	}
}
