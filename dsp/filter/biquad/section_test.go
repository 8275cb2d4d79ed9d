package biquad

import (
	"math"
	"testing"
)

const eps = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNewSection(t *testing.T) {
	c := Coefficients{B0: 1, B1: 2, B2: 3, A1: 4, A2: 5}

	s := NewSection(c)
	if s.Coefficients != c {
		t.Fatalf("coefficients mismatch: got %v, want %v", s.Coefficients, c)
	}

	if st := s.State(); st != [2]float64{} {
		t.Fatalf("initial state not zero: %v", st)
	}
}

func TestProcessSampleDFIIT(t *testing.T) {
	s := NewSection(Coefficients{B0: 0.5, B1: 0.25, B2: 0.125, A1: -0.5, A2: 0.25})

	// y0 = 0.5
	// d0 = 0.25 + 0.25 = 0.5, d1 = 0.125 - 0.125 = 0
	// y1 = 0.5, d0 = 0 + 0.25 + 0 = 0.25, d1 = -0.125
	want := []float64{0.5, 0.5, 0.25}
	in := []float64{1, 0, 0}

	for i, x := range in {
		if y := s.ProcessSample(x); !almostEqual(y, want[i], eps) {
			t.Fatalf("sample %d: got %v, want %v", i, y, want[i])
		}
	}
}

func TestProcessBlockMatchesSample(t *testing.T) {
	t.Parallel()

	c := Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.3, A2: 0.1}
	ref := NewSection(c)
	blk := NewSection(c)

	src := make([]float64, 37)
	for i := range src {
		src[i] = math.Sin(float64(i) * 0.3)
	}

	dst := make([]float64, len(src))
	blk.ProcessBlockTo(dst, src)

	inPlace := NewSection(c)
	buf := append([]float64(nil), src...)
	inPlace.ProcessBlock(buf)

	for i, x := range src {
		want := ref.ProcessSample(x)
		if !almostEqual(dst[i], want, eps) || !almostEqual(buf[i], want, eps) {
			t.Fatalf("sample %d: to=%v inplace=%v want %v", i, dst[i], buf[i], want)
		}
	}

	if blk.State() != ref.State() {
		t.Fatalf("state: got %v want %v", blk.State(), ref.State())
	}
}

func TestSetCoefficientsKeepsState(t *testing.T) {
	s := NewSection(Coefficients{B0: 1, B1: 1})
	s.ProcessSample(1)

	before := s.State()
	s.SetCoefficients(Coefficients{B0: 0.5})

	if s.State() != before {
		t.Fatalf("state changed: %v -> %v", before, s.State())
	}

	s.Reset()

	if s.State() != [2]float64{} {
		t.Fatalf("reset state: %v", s.State())
	}
}

func TestSetStateRoundTrip(t *testing.T) {
	s := NewSection(Coefficients{B0: 1})
	s.SetState([2]float64{0.25, -0.5})

	if got := s.State(); got != [2]float64{0.25, -0.5} {
		t.Fatalf("state: %v", got)
	}
}

func TestMagnitudePassthrough(t *testing.T) {
	c := Coefficients{B0: 1}
	for _, f := range []float64{10, 1000, 20000} {
		if db := c.MagnitudeDB(f, 48000); !almostEqual(db, 0, 1e-9) {
			t.Fatalf("%v Hz: %v dB", f, db)
		}
	}
}
