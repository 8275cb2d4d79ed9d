package rack

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/cwbudde/algo-rack/rack/descriptor"
)

const (
	testRate   = 48000.0
	testFrames = 16
)

var (
	errFakeOpen        = errors.New("fake: cannot open")
	errFakeInstantiate = errors.New("fake: cannot instantiate")
	errFakeRegister    = errors.New("fake: cannot register")
	errFakeUnregister  = errors.New("fake: cannot unregister")
)

func gainHint() descriptor.PortHint {
	return descriptor.PortHint{
		Flags: descriptor.BoundedBelow | descriptor.BoundedAbove | descriptor.Default1,
		Lower: 0,
		Upper: 4,
	}
}

// monoGain: 0 in, 1 out, 2 control "gain", 3 status "count".
func monoGain() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID:           10,
		Label:        "gain",
		Name:         "Test Gain",
		Channels:     1,
		AudioInputs:  []int{0},
		AudioOutputs: []int{1},
		ControlPorts: []int{2},
		StatusPorts:  []int{3},
		Hints:        map[int]descriptor.PortHint{2: gainHint()},
		PortNames:    map[int]string{2: "gain", 3: "count"},
	}
}

// stereoGain: 0,1 in, 2,3 out, 4 control "gain", 5 status "count".
func stereoGain() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID:           20,
		Label:        "stereo",
		Name:         "Stereo Gain",
		Channels:     2,
		AudioInputs:  []int{0, 1},
		AudioOutputs: []int{2, 3},
		ControlPorts: []int{4},
		StatusPorts:  []int{5},
		Hints:        map[int]descriptor.PortHint{4: gainHint()},
		PortNames:    map[int]string{4: "gain", 5: "count"},
	}
}

// auxSend: 0 in, 1 out, 2 aux output, 3 control "gain".
func auxSend() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID:           30,
		Label:        "send",
		Name:         "Aux Send Test",
		Channels:     1,
		AudioInputs:  []int{0},
		AudioOutputs: []int{1},
		AuxChannels:  1,
		AuxDirection: descriptor.Output,
		AuxPorts:     []int{2},
		ControlPorts: []int{3},
		Hints:        map[int]descriptor.PortHint{3: gainHint()},
	}
}

// auxReturn: 0 in, 1 out, 2 aux input.
func auxReturn() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID:           40,
		Label:        "return",
		Name:         "Return",
		Channels:     1,
		AudioInputs:  []int{0},
		AudioOutputs: []int{1},
		AuxChannels:  1,
		AuxDirection: descriptor.Input,
		AuxPorts:     []int{2},
	}
}

// fakeEffect multiplies every main input by its first control parameter
// (1 without controls), copies main input 0 to aux outputs, adds aux inputs
// to main output 0 and reports its process count on the first status port.
type fakeEffect struct {
	desc *descriptor.Descriptor

	rate      float64
	ports     [][]float64
	params    []float64
	setCalls  int
	processed int

	active      bool
	activations int
	released    bool
}

func newFakeEffect(d *descriptor.Descriptor) *fakeEffect {
	n := d.AudioPortCount() + len(d.ControlPorts) + len(d.StatusPorts)

	return &fakeEffect{
		desc:   d,
		ports:  make([][]float64, n),
		params: make([]float64, n-d.AudioPortCount()),
	}
}

func (f *fakeEffect) SetSampleRate(rate float64)            { f.rate = rate }
func (f *fakeEffect) ConnectPort(port int, buf []float64)   { f.ports[port] = buf }
func (f *fakeEffect) Parameter(index int) float64           { return f.params[index] }
func (f *fakeEffect) Activate()                             { f.active = true; f.activations++ }
func (f *fakeEffect) Deactivate()                           { f.active = false }
func (f *fakeEffect) Release()                              { f.released = true }
func (f *fakeEffect) SetParameter(index int, value float64) { f.params[index] = value; f.setCalls++ }

func (f *fakeEffect) gain() float64 {
	if len(f.desc.ControlPorts) == 0 {
		return 1
	}

	return f.params[f.desc.NativeParameter(f.desc.ControlPorts[0])]
}

func (f *fakeEffect) Process(frames int) {
	d := f.desc
	g := f.gain()

	for j := range d.Channels {
		in, out := f.ports[d.AudioInputs[j]], f.ports[d.AudioOutputs[j]]
		for i := range frames {
			out[i] = in[i] * g
		}
	}

	for _, port := range d.AuxPorts {
		aux := f.ports[port]
		if d.AuxDirection == descriptor.Output {
			copy(aux[:frames], f.ports[d.AudioInputs[0]][:frames])
			continue
		}

		out := f.ports[d.AudioOutputs[0]]
		for i := range frames {
			out[i] += aux[i]
		}
	}

	f.processed++
	if len(d.StatusPorts) > 0 {
		f.params[d.NativeParameter(d.StatusPorts[0])] = float64(f.processed)
	}
}

type fakeModule struct {
	desc      *descriptor.Descriptor
	failAt    int
	closeErr  error
	instances []*fakeEffect
	closed    bool
}

func (m *fakeModule) Instantiate(d *descriptor.Descriptor, _ float64) (Effect, error) {
	if m.failAt >= 0 && len(m.instances) == m.failAt {
		return nil, errFakeInstantiate
	}

	fx := newFakeEffect(d)
	m.instances = append(m.instances, fx)

	return fx, nil
}

func (m *fakeModule) Close() error {
	m.closed = true

	return m.closeErr
}

// fakeLoader opens a fresh fakeModule per Open and remembers them in order.
type fakeLoader struct {
	mu       sync.Mutex
	failOpen bool
	failAt   int
	closeErr error
	modules  []*fakeModule
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{failAt: -1}
}

func (l *fakeLoader) Open(d *descriptor.Descriptor) (Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failOpen {
		return nil, errFakeOpen
	}

	m := &fakeModule{desc: d, failAt: l.failAt, closeErr: l.closeErr}
	l.modules = append(l.modules, m)

	return m, nil
}

func (l *fakeLoader) last() *fakeModule {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.modules[len(l.modules)-1]
}

type fakePort struct {
	name string
	dir  descriptor.Direction
	buf  []float64
}

func (p *fakePort) Name() string                { return p.name }
func (p *fakePort) Buffer(frames int) []float64 { return p.buf[:frames] }

type fakeRegistrar struct {
	mu            sync.Mutex
	failName      string
	unregisterErr error
	ports         map[string]*fakePort
	unregistered  []string
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{ports: make(map[string]*fakePort)}
}

func (r *fakeRegistrar) Register(name string, dir descriptor.Direction) (Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == r.failName {
		return nil, errFakeRegister
	}

	if _, dup := r.ports[name]; dup {
		return nil, fmt.Errorf("fake: port %q exists", name)
	}

	p := &fakePort{name: name, dir: dir, buf: make([]float64, testFrames)}
	r.ports[name] = p

	return p, nil
}

func (r *fakeRegistrar) Unregister(p Port) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ports, p.Name())
	r.unregistered = append(r.unregistered, p.Name())

	return r.unregisterErr
}

func (r *fakeRegistrar) port(name string) *fakePort {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ports[name]
}

func (r *fakeRegistrar) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.ports)
}

func newTestContext(t *testing.T, opts ...Option) (*Context, *fakeLoader) {
	t.Helper()

	loader := newFakeLoader()
	base := []Option{
		WithSampleRate(testRate),
		WithBufferSize(testFrames),
		WithLoader(loader),
		WithLogger(slog.New(slog.DiscardHandler)),
	}

	c, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(func() { _ = c.Close() })

	return c, loader
}

func mustInstantiate(t *testing.T, c *Context, d *descriptor.Descriptor) *Plugin {
	t.Helper()

	p, err := c.Instantiate(d)
	if err != nil {
		t.Fatalf("Instantiate(%s): %v", d.Label, err)
	}

	return p
}

// addEnabled instantiates d, enables it and appends it to the chain.
func addEnabled(t *testing.T, c *Context, d *descriptor.Descriptor) *Plugin {
	t.Helper()

	p := mustInstantiate(t, c, d)
	c.Chain().SetEnabled(p, true)
	c.Chain().Append(p)

	return p
}

func effectOf(p *Plugin, copyIndex int) *fakeEffect {
	return p.holders[copyIndex].effect.(*fakeEffect)
}

func typeIDs(entries []*Plugin) []uint64 {
	out := make([]uint64, len(entries))
	for i, p := range entries {
		out[i] = p.desc.ID
	}

	return out
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer

	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}
