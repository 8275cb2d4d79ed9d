package rack

import "github.com/cwbudde/algo-rack/rack/descriptor"

// Effect is one native plugin instance. Port indices are descriptor port
// indices; parameter indices are native parameter indices
// (see descriptor.Descriptor.NativeParameter).
//
// All methods except SetSampleRate may be called from the real-time path and
// must not block or allocate.
type Effect interface {
	SetSampleRate(rate float64)
	ConnectPort(port int, buf []float64)
	SetParameter(index int, value float64)
	Parameter(index int) float64
	Process(frames int)
}

// Activator is implemented by effects that need activation before the first
// cycle and deactivation before release.
type Activator interface {
	Activate()
	Deactivate()
}

// Releaser is implemented by effects that hold resources beyond the garbage
// collector's reach.
type Releaser interface {
	Release()
}

// Module is an opened plugin binary from which instances are created.
type Module interface {
	Instantiate(d *descriptor.Descriptor, sampleRate float64) (Effect, error)
	Close() error
}

// Loader opens plugin modules by descriptor.
type Loader interface {
	Open(d *descriptor.Descriptor) (Module, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(d *descriptor.Descriptor) (Module, error)

// Open calls f.
func (f LoaderFunc) Open(d *descriptor.Descriptor) (Module, error) {
	return f(d)
}

// Port is a physical auxiliary port owned by the audio driver.
type Port interface {
	Name() string
	// Buffer returns the port's sample memory for the current cycle. It is
	// called from the real-time path.
	Buffer(frames int) []float64
}

// PortRegistrar registers and unregisters physical auxiliary ports.
// A Context without a registrar never creates auxiliary ports.
type PortRegistrar interface {
	Register(name string, dir descriptor.Direction) (Port, error)
	Unregister(p Port) error
}
