package builtin

import (
	"github.com/cwbudde/algo-rack/dsp/filter/biquad"
	"github.com/cwbudde/algo-rack/dsp/filter/design"
	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

// Ports: 0,1 in; 2,3 out; 4 cutoff; 5 q.
const (
	lowpassCutoffPort = 4
	lowpassQPort      = 5
)

func lowpassDescriptor() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		ID:           LowpassID,
		Label:        "lowpass",
		Name:         "Stereo Lowpass",
		ObjectFile:   ObjectFile,
		Index:        2,
		Channels:     2,
		AudioInputs:  []int{0, 1},
		AudioOutputs: []int{2, 3},
		ControlPorts: []int{lowpassCutoffPort, lowpassQPort},
		Hints: map[int]descriptor.PortHint{
			lowpassCutoffPort: {
				Flags: descriptor.BoundedBelow | descriptor.BoundedAbove | descriptor.SampleRate |
					descriptor.Logarithmic | descriptor.Default440,
				Lower: 0.0005,
				Upper: 0.45,
			},
			lowpassQPort: bounded(0.1, 10, descriptor.Default1|descriptor.Logarithmic),
		},
		PortNames: map[int]string{
			0: "in_l", 1: "in_r", 2: "out_l", 3: "out_r",
			lowpassCutoffPort: "cutoff_hz",
			lowpassQPort:      "q",
		},
	}
}

type lowpass struct {
	base

	sections   [2]biquad.Section
	cutoff, q  float64
	designedAt float64
}

func newLowpass(d *descriptor.Descriptor) rack.Effect {
	return &lowpass{base: newBase(d)}
}

func (l *lowpass) Process(frames int) {
	cutoff, q := l.param(lowpassCutoffPort), l.param(lowpassQPort)
	if cutoff != l.cutoff || q != l.q || l.rate != l.designedAt {
		l.cutoff, l.q, l.designedAt = cutoff, q, l.rate
		c := design.Lowpass(cutoff, q, l.rate)
		for i := range l.sections {
			l.sections[i].SetCoefficients(c)
		}
	}

	for ch := range l.sections {
		l.sections[ch].ProcessBlockTo(l.ports[ch+2][:frames], l.ports[ch][:frames])
	}
}
