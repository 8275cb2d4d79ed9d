package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/control"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

// renderer drives a rack with a test tone one cycle at a time and hands the
// result out as interleaved little-endian float32 frames.
type renderer struct {
	rack *rack.Context

	in, out     [][]float64
	step, phase float64

	interleaved []float32
	pos         int

	frames int
	peak   []float64
	energy []float64
}

func newRenderer(r *rack.Context, toneHz float64) *renderer {
	channels, frames := r.Channels(), r.BufferSize()

	rd := &renderer{
		rack:        r,
		in:          make([][]float64, channels),
		out:         make([][]float64, channels),
		step:        2 * math.Pi * toneHz / r.SampleRate(),
		interleaved: make([]float32, channels*frames),
		peak:        make([]float64, channels),
		energy:      make([]float64, channels),
	}
	rd.pos = len(rd.interleaved)

	for ch := range channels {
		rd.in[ch] = make([]float64, frames)
		rd.out[ch] = make([]float64, frames)
	}

	return rd
}

// cycle generates one buffer of tone, processes it and interleaves the
// output. Channel ch carries the tone's ch+1 harmonic.
func (r *renderer) cycle() {
	frames := r.rack.BufferSize()

	for i := range frames {
		for ch, buf := range r.in {
			buf[i] = 0.25 * math.Sin(float64(ch+1)*r.phase)
		}

		r.phase += r.step
		if r.phase > 2*math.Pi {
			r.phase -= 2 * math.Pi
		}
	}

	r.rack.Process(r.in, r.out)

	channels := len(r.out)
	for ch, buf := range r.out {
		for i, v := range buf {
			r.interleaved[i*channels+ch] = float32(v)
			r.peak[ch] = math.Max(r.peak[ch], math.Abs(v))
			r.energy[ch] += v * v
		}
	}

	r.frames += frames
	r.pos = 0
}

// Read fills p with whole frames. It never fails.
func (r *renderer) Read(p []byte) (int, error) {
	frameBytes := 4 * len(r.out)
	n := len(p) / frameBytes * frameBytes

	for off := 0; off < n; off += 4 {
		if r.pos == len(r.interleaved) {
			r.cycle()
		}

		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(r.interleaved[r.pos]))
		r.pos++
	}

	return n, nil
}

type report struct {
	frames int
	peak   []float64
	rms    []float64
}

// render runs whole cycles until seconds of audio have been processed.
func (r *renderer) render(seconds float64) report {
	target := int(math.Ceil(seconds * r.rack.SampleRate()))
	for r.frames < target {
		r.cycle()
	}

	rep := report{frames: r.frames, peak: append([]float64(nil), r.peak...)}
	for _, e := range r.energy {
		rep.rms = append(rep.rms, math.Sqrt(e/float64(max(r.frames, 1))))
	}

	return rep
}

func printReport(w io.Writer, d *control.Dispatcher, reg *descriptor.Registry, entries []control.Entry, rep report) error {
	fmt.Fprintf(w, "rendered %d frames\n", rep.frames)

	for ch := range rep.peak {
		fmt.Fprintf(w, "  out %d: peak %.4f rms %.4f\n", ch+1, rep.peak[ch], rep.rms[ch])
	}

	for i, e := range entries {
		desc := reg.LookupLabel(e.Label)
		if desc == nil || len(desc.StatusPorts) == 0 {
			continue
		}

		for copyIndex := range e.Copies {
			var parts []string

			for _, port := range desc.StatusPorts {
				name := desc.PortName(port)

				v, err := d.Status(e.ID, copyIndex, name)
				if err != nil {
					return err
				}

				parts = append(parts, fmt.Sprintf("%s=%.4f", name, v))
			}

			fmt.Fprintf(w, "  %d %s copy %d: %s\n", i+1, e.Label, copyIndex+1, strings.Join(parts, " "))
		}
	}

	return nil
}
