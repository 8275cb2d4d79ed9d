package builtin

import (
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

// Ports of send and return: 0 in, 1 out, 2 aux, 3 level.
const (
	auxPort   = 2
	levelPort = 3
)

func sendDescriptor() *descriptor.Descriptor {
	d := mono(SendID, "send", "Aux Send", 4)
	d.AuxChannels = 1
	d.AuxDirection = descriptor.Output
	d.AuxPorts = []int{auxPort}
	d.ControlPorts = []int{levelPort}
	d.Hints[levelPort] = bounded(0, 1, descriptor.Default1)
	d.PortNames[auxPort] = "send"
	d.PortNames[levelPort] = "level"

	return d
}

func returnDescriptor() *descriptor.Descriptor {
	d := mono(ReturnID, "return", "Aux Return", 5)
	d.AuxChannels = 1
	d.AuxDirection = descriptor.Input
	d.AuxPorts = []int{auxPort}
	d.ControlPorts = []int{levelPort}
	d.Hints[levelPort] = bounded(0, 1, descriptor.Default1)
	d.PortNames[auxPort] = "return"
	d.PortNames[levelPort] = "level"

	return d
}

// send passes audio through and copies it, scaled by level, to its aux port.
type send struct {
	base
}

func newSend(d *descriptor.Descriptor) rack.Effect {
	return &send{base: newBase(d)}
}

func (s *send) Process(frames int) {
	in := s.ports[0][:frames]
	copy(s.ports[1][:frames], in)

	if aux := s.ports[auxPort]; aux != nil {
		vecmath.ScaleBlock(aux[:frames], in, s.param(levelPort))
	}
}

// ret mixes its aux input, scaled by level, into the main signal. Input and
// output must not share memory.
type ret struct {
	base
}

func newReturn(d *descriptor.Descriptor) rack.Effect {
	return &ret{base: newBase(d)}
}

func (r *ret) Process(frames int) {
	out := r.ports[1][:frames]

	aux := r.ports[auxPort]
	if aux == nil {
		copy(out, r.ports[0][:frames])
		return
	}

	vecmath.ScaleBlock(out, aux[:frames], r.param(levelPort))
	vecmath.AddBlockInPlace(out, r.ports[0][:frames])
}
