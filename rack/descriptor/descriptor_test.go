package descriptor

import (
	"errors"
	"testing"
)

func TestCopies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		native   int
		channels int
		want     int
	}{
		{1, 1, 1},
		{1, 2, 2},
		{2, 2, 1},
		{2, 4, 2},
		{2, 5, 3},
		{2, 1, 1},
		{4, 6, 2},
		{6, 6, 1},
	}

	for _, tt := range tests {
		d := &Descriptor{Channels: tt.native}

		got := d.Copies(tt.channels)
		if got != tt.want {
			t.Errorf("Copies(native=%d, channels=%d) = %d, want %d", tt.native, tt.channels, got, tt.want)
		}

		if got*tt.native < tt.channels {
			t.Errorf("copies %d x %d does not cover %d channels", got, tt.native, tt.channels)
		}

		if (got-1)*tt.native >= tt.channels {
			t.Errorf("copies %d is not minimal for native=%d channels=%d", got, tt.native, tt.channels)
		}
	}
}

func TestValidateAcceptsFixtures(t *testing.T) {
	t.Parallel()

	for _, d := range []*Descriptor{stereoFixture(), auxFixture()} {
		if err := d.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", d.Label, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(d *Descriptor)
		want   error
	}{
		{"empty label", func(d *Descriptor) { d.Label = "" }, ErrInvalid},
		{"zero channels", func(d *Descriptor) { d.Channels = 0 }, ErrInvalid},
		{"missing output", func(d *Descriptor) { d.AudioOutputs = []int{2} }, ErrPortLayout},
		{"control among audio", func(d *Descriptor) { d.ControlPorts = []int{1} }, ErrPortLayout},
		{"audio after control", func(d *Descriptor) { d.AudioInputs = []int{0, 7} }, ErrPortLayout},
		{"duplicate control", func(d *Descriptor) { d.StatusPorts = []int{4} }, ErrPortLayout},
		{"negative port", func(d *Descriptor) { d.ControlPorts = []int{-1} }, ErrPortLayout},
		{"aux count mismatch", func(d *Descriptor) { d.AuxChannels = 1 }, ErrPortLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := stereoFixture()
			tt.mutate(d)

			err := d.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNativeParameter(t *testing.T) {
	t.Parallel()

	d := auxFixture()
	if d.AudioPortCount() != 4 {
		t.Fatalf("AudioPortCount = %d, want 4", d.AudioPortCount())
	}

	if got := d.NativeParameter(d.ControlPorts[0]); got != 0 {
		t.Errorf("NativeParameter = %d, want 0", got)
	}
}

func TestControlPortByName(t *testing.T) {
	t.Parallel()

	d := stereoFixture()
	if got := d.ControlPortByName("amount"); got != 0 {
		t.Errorf("ControlPortByName(amount) = %d, want 0", got)
	}

	if got := d.ControlPortByName("level"); got != -1 {
		t.Errorf("status port must not resolve as control slot, got %d", got)
	}

	if d.PortName(99) != "port 99" {
		t.Errorf("unexpected generated name %q", d.PortName(99))
	}
}

func TestDirectionMarker(t *testing.T) {
	t.Parallel()

	if Input.Marker() != 'i' || Output.Marker() != 'o' {
		t.Errorf("markers = %c/%c", Input.Marker(), Output.Marker())
	}

	if Input.String() != "input" || Output.String() != "output" {
		t.Errorf("strings = %s/%s", Input, Output)
	}
}
