package builtin

import (
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rack/dsp/window"
	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

const (
	analyzerPeakPort     = 2
	analyzerRMSPort      = 3
	analyzerCentroidPort = 4

	analyzerFFTSize = 1024
)

func analyzerDescriptor() *descriptor.Descriptor {
	d := mono(AnalyzerID, "analyzer", "Level Analyzer", 3)
	d.StatusPorts = []int{analyzerPeakPort, analyzerRMSPort, analyzerCentroidPort}
	d.PortNames[analyzerPeakPort] = "peak"
	d.PortNames[analyzerRMSPort] = "rms"
	d.PortNames[analyzerCentroidPort] = "centroid_hz"

	return d
}

// analyzer passes audio through and reports the block's peak and RMS level
// and the spectral centroid of the most recent analyzerFFTSize samples.
type analyzer struct {
	base

	plan     *algofft.Plan[complex128]
	history  []float64
	window   []float64
	spectrum []complex128
	pos      int
}

func newAnalyzer(d *descriptor.Descriptor) rack.Effect {
	a := &analyzer{
		base:     newBase(d),
		history:  make([]float64, analyzerFFTSize),
		spectrum: make([]complex128, analyzerFFTSize),
	}

	a.window, _ = window.Hann(analyzerFFTSize, window.WithPeriodic())

	plan, err := algofft.NewPlan64(analyzerFFTSize)
	if err == nil {
		a.plan = plan
	}

	return a
}

func (a *analyzer) Process(frames int) {
	in, out := a.ports[0][:frames], a.ports[1][:frames]
	copy(out, in)

	if frames == 0 {
		return
	}

	a.setStatus(analyzerPeakPort, vecmath.MaxAbs(in))
	a.setStatus(analyzerRMSPort, math.Sqrt(vecmath.DotProduct(in, in)/float64(frames)))

	for _, x := range in {
		a.history[a.pos] = x
		a.pos = (a.pos + 1) % analyzerFFTSize
	}

	if c, ok := a.centroid(); ok {
		a.setStatus(analyzerCentroidPort, c)
	}
}

func (a *analyzer) centroid() (float64, bool) {
	if a.plan == nil {
		return 0, false
	}

	for i := range a.spectrum {
		x := a.history[(a.pos+i)%analyzerFFTSize]
		a.spectrum[i] = complex(x*a.window[i], 0)
	}

	if err := a.plan.Forward(a.spectrum, a.spectrum); err != nil {
		return 0, false
	}

	binHz := a.rate / analyzerFFTSize

	var weighted, total float64
	for k := 1; k <= analyzerFFTSize/2; k++ {
		mag := cmplx.Abs(a.spectrum[k])
		weighted += float64(k) * binHz * mag
		total += mag
	}

	if total == 0 {
		return 0, true
	}

	return weighted / total, true
}
