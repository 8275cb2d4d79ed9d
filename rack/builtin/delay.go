package builtin

import (
	"math"

	"github.com/cwbudde/algo-rack/dsp/delay"
	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

const (
	delayTimePort     = 2
	delayFeedbackPort = 3

	maxDelayMS = 2000
)

func delayDescriptor() *descriptor.Descriptor {
	d := mono(DelayID, "delay", "Feedback Delay", 1)
	d.ControlPorts = []int{delayTimePort, delayFeedbackPort}
	d.Hints[delayTimePort] = bounded(1, maxDelayMS, descriptor.Default100)
	d.Hints[delayFeedbackPort] = bounded(0, 0.95, descriptor.DefaultLow)
	d.PortNames[delayTimePort] = "time_ms"
	d.PortNames[delayFeedbackPort] = "feedback"

	return d
}

// feedbackDelay is a feedback delay line. Its output is the delayed signal
// only.
type feedbackDelay struct {
	base

	line *delay.Line
}

func newDelay(d *descriptor.Descriptor) rack.Effect {
	return &feedbackDelay{base: newBase(d)}
}

// Activate sizes the line for the longest delay at the current rate.
func (d *feedbackDelay) Activate() {
	size := int(math.Ceil(maxDelayMS * d.rate / 1000))
	if d.line != nil && d.line.Len() == size {
		d.line.Reset()
		return
	}

	line, err := delay.New(size)
	if err != nil {
		d.line = nil
		return
	}

	d.line = line
}

// Deactivate clears the line.
func (d *feedbackDelay) Deactivate() {
	if d.line != nil {
		d.line.Reset()
	}
}

func (d *feedbackDelay) Process(frames int) {
	in, out := d.ports[0][:frames], d.ports[1][:frames]

	if d.line == nil {
		clear(out)
		return
	}

	samples := int(math.Round(d.param(delayTimePort) * d.rate / 1000))
	samples = min(max(samples, 1), d.line.Len())
	fb := d.param(delayFeedbackPort)

	for i, x := range in {
		out[i] = d.line.Feedback(x, samples, fb)
	}
}
