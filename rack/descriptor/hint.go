package descriptor

import "math"

// HintFlags describe the range and default of a control port.
type HintFlags uint32

const (
	BoundedBelow HintFlags = 1 << iota
	BoundedAbove
	Toggled
	SampleRate
	Logarithmic
	Integer
)

// Default selectors occupy their own bit field.
const (
	DefaultNone    HintFlags = 0x000
	DefaultMinimum HintFlags = 0x040
	DefaultLow     HintFlags = 0x080
	DefaultMiddle  HintFlags = 0x0C0
	DefaultHigh    HintFlags = 0x100
	DefaultMaximum HintFlags = 0x140
	Default0       HintFlags = 0x200
	Default1       HintFlags = 0x240
	Default100     HintFlags = 0x280
	Default440     HintFlags = 0x2C0

	defaultMask HintFlags = 0x3C0
)

// PortHint is the range description of one control port. Lower and Upper
// are multiples of the sample rate when SampleRate is set.
type PortHint struct {
	Flags HintFlags
	Lower float64
	Upper float64
}

// Range returns the bounds of the port at the given sample rate.
func (h PortHint) Range(sampleRate float64) (lower, upper float64) {
	lower, upper = h.Lower, h.Upper
	if h.Flags&SampleRate != 0 {
		lower *= sampleRate
		upper *= sampleRate
	}

	return lower, upper
}

// Clamp limits v to the bounded side(s) of the port.
func (h PortHint) Clamp(v, sampleRate float64) float64 {
	lower, upper := h.Range(sampleRate)
	if h.Flags&BoundedBelow != 0 && v < lower {
		v = lower
	}

	if h.Flags&BoundedAbove != 0 && v > upper {
		v = upper
	}

	return v
}

// Default computes the initial value of the port at the given sample rate.
//
//nolint:cyclop
func (h PortHint) Default(sampleRate float64) float64 {
	lower, upper := h.Range(sampleRate)
	logScale := h.Flags&Logarithmic != 0 && lower > 0 && upper > 0

	var v float64

	switch h.Flags & defaultMask {
	case DefaultMinimum:
		v = lower
	case DefaultLow:
		v = interpolate(lower, upper, 0.25, logScale)
	case DefaultMiddle:
		v = interpolate(lower, upper, 0.5, logScale)
	case DefaultHigh:
		v = interpolate(lower, upper, 0.75, logScale)
	case DefaultMaximum:
		v = upper
	case Default0:
		v = 0
	case Default1:
		v = 1
	case Default100:
		v = 100
	case Default440:
		v = 440
	default:
		switch {
		case h.Flags&BoundedBelow != 0:
			v = lower
		case h.Flags&BoundedAbove != 0:
			v = upper
		}
	}

	if h.Flags&Integer != 0 {
		v = math.Round(v)
	}

	if h.Flags&Toggled != 0 {
		if v > 0 {
			v = 1
		} else {
			v = 0
		}
	}

	return v
}

func interpolate(lower, upper, t float64, logScale bool) float64 {
	if logScale {
		return math.Exp(math.Log(lower)*(1-t) + math.Log(upper)*t)
	}

	return lower*(1-t) + upper*t
}

// DefaultValue returns the initial value of a control port at sampleRate.
// Ports without a hint default to 0.
func (d *Descriptor) DefaultValue(port int, sampleRate float64) float64 {
	hint, ok := d.Hints[port]
	if !ok {
		return 0
	}

	return hint.Default(sampleRate)
}
