package descriptor

import (
	"math"
	"testing"
)

func TestHintDefault(t *testing.T) {
	t.Parallel()

	const rate = 48000.0

	bounded := BoundedBelow | BoundedAbove

	tests := []struct {
		name string
		hint PortHint
		want float64
	}{
		{"minimum", PortHint{Flags: bounded | DefaultMinimum, Lower: 2, Upper: 10}, 2},
		{"maximum", PortHint{Flags: bounded | DefaultMaximum, Lower: 2, Upper: 10}, 10},
		{"low linear", PortHint{Flags: bounded | DefaultLow, Lower: 0, Upper: 8}, 2},
		{"middle linear", PortHint{Flags: bounded | DefaultMiddle, Lower: 0, Upper: 8}, 4},
		{"high linear", PortHint{Flags: bounded | DefaultHigh, Lower: 0, Upper: 8}, 6},
		{"middle log", PortHint{Flags: bounded | Logarithmic | DefaultMiddle, Lower: 10, Upper: 1000}, 100},
		{"log with zero bound falls back to linear", PortHint{Flags: bounded | Logarithmic | DefaultMiddle, Lower: 0, Upper: 10}, 5},
		{"constant 0", PortHint{Flags: Default0}, 0},
		{"constant 1", PortHint{Flags: Default1}, 1},
		{"constant 100", PortHint{Flags: Default100}, 100},
		{"constant 440", PortHint{Flags: Default440 | SampleRate, Lower: 0, Upper: 0.5}, 440},
		{"sample rate maximum", PortHint{Flags: bounded | SampleRate | DefaultMaximum, Lower: 0, Upper: 0.5}, 24000},
		{"integer rounding", PortHint{Flags: bounded | Integer | DefaultLow, Lower: 0, Upper: 3}, 1},
		{"toggled", PortHint{Flags: Toggled | Default1}, 1},
		{"no default bounded below", PortHint{Flags: BoundedBelow, Lower: -3}, -3},
		{"no default bounded above", PortHint{Flags: BoundedAbove, Upper: 7}, 7},
		{"no default unbounded", PortHint{}, 0},
	}

	for _, tt := range tests {
		got := tt.hint.Default(rate)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: Default = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHintClamp(t *testing.T) {
	t.Parallel()

	h := PortHint{Flags: BoundedBelow | BoundedAbove | SampleRate, Lower: 0, Upper: 0.5}

	if got := h.Clamp(30000, 48000); got != 24000 {
		t.Errorf("Clamp above = %v, want 24000", got)
	}

	if got := h.Clamp(-1, 48000); got != 0 {
		t.Errorf("Clamp below = %v, want 0", got)
	}

	open := PortHint{}
	if got := open.Clamp(1e9, 48000); got != 1e9 {
		t.Errorf("unbounded Clamp changed value: %v", got)
	}
}

func TestDescriptorDefaultValue(t *testing.T) {
	t.Parallel()

	d := stereoFixture()
	if got := d.DefaultValue(4, 44100); got != 5 {
		t.Errorf("DefaultValue(4) = %v, want 5", got)
	}

	if got := d.DefaultValue(5, 44100); got != 0 {
		t.Errorf("DefaultValue of unhinted port = %v, want 0", got)
	}
}
