package descriptor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid is returned for descriptors with unusable basic fields.
	ErrInvalid = errors.New("descriptor: invalid")
	// ErrPortLayout is returned when port indices break the numbering
	// convention: audio ports first, control and status ports after them.
	ErrPortLayout = errors.New("descriptor: port layout")
)

// Direction is the signal direction of an auxiliary port.
type Direction uint8

const (
	// Input ports carry audio into the plugin.
	Input Direction = iota
	// Output ports carry audio out of the plugin.
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}

	return "output"
}

// Marker returns the single character used in port names.
func (d Direction) Marker() byte {
	if d == Input {
		return 'i'
	}

	return 'o'
}

// Descriptor is the shared metadata of one plugin type.
//
// Port indices follow the native numbering convention: every audio port
// (main inputs, main outputs, auxiliary) is numbered in [0, AudioPortCount()),
// control and status ports come after them. The native parameter index of a
// control or status port is its port index minus AudioPortCount().
type Descriptor struct {
	ID         uint64
	Label      string
	Name       string
	ObjectFile string
	Index      int

	// Channels is the number of main audio channels one native instance
	// processes.
	Channels     int
	AudioInputs  []int
	AudioOutputs []int

	AuxChannels  int
	AuxDirection Direction
	AuxPorts     []int

	ControlPorts []int
	StatusPorts  []int

	Hints     map[int]PortHint
	PortNames map[int]string
}

// AudioPortCount returns the number of audio ports including auxiliary ones.
func (d *Descriptor) AudioPortCount() int {
	return len(d.AudioInputs) + len(d.AudioOutputs) + len(d.AuxPorts)
}

// NativeParameter maps a control or status port index to the parameter index
// used by the native plugin.
func (d *Descriptor) NativeParameter(port int) int {
	return port - d.AudioPortCount()
}

// Copies returns how many native instances are needed to cover channels
// host channels: the smallest n with n*d.Channels >= channels.
func (d *Descriptor) Copies(channels int) int {
	if d.Channels <= 0 || channels <= 0 {
		return 1
	}

	return (channels + d.Channels - 1) / d.Channels
}

// PortName returns the human-readable name of a port, or a generated one.
func (d *Descriptor) PortName(port int) string {
	if name, ok := d.PortNames[port]; ok {
		return name
	}

	return fmt.Sprintf("port %d", port)
}

// ControlPortByName returns the control slot (index into ControlPorts)
// whose port carries name, or -1.
func (d *Descriptor) ControlPortByName(name string) int {
	for i, port := range d.ControlPorts {
		if d.PortNames[port] == name {
			return i
		}
	}

	return -1
}

// Validate checks the descriptor for internal consistency, including the
// port numbering convention the host relies on when mapping port indices
// to native parameter indices.
//
//nolint:cyclop
func (d *Descriptor) Validate() error {
	if d.Label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalid)
	}

	if d.Channels <= 0 {
		return fmt.Errorf("%w: %s: channel count %d", ErrInvalid, d.Label, d.Channels)
	}

	if len(d.AudioInputs) != d.Channels || len(d.AudioOutputs) != d.Channels {
		return fmt.Errorf("%w: %s: %d inputs and %d outputs for %d channels",
			ErrPortLayout, d.Label, len(d.AudioInputs), len(d.AudioOutputs), d.Channels)
	}

	if d.AuxChannels < 0 || len(d.AuxPorts) != d.AuxChannels {
		return fmt.Errorf("%w: %s: %d aux ports for %d aux channels",
			ErrPortLayout, d.Label, len(d.AuxPorts), d.AuxChannels)
	}

	audio := d.AudioPortCount()
	seen := make(map[int]struct{}, audio+len(d.ControlPorts)+len(d.StatusPorts))

	claim := func(port int, isAudio bool) error {
		if port < 0 {
			return fmt.Errorf("%w: %s: negative port index %d", ErrPortLayout, d.Label, port)
		}

		if isAudio && port >= audio {
			return fmt.Errorf("%w: %s: audio port %d numbered after control ports",
				ErrPortLayout, d.Label, port)
		}

		if !isAudio && port < audio {
			return fmt.Errorf("%w: %s: control port %d numbered among audio ports",
				ErrPortLayout, d.Label, port)
		}

		if _, dup := seen[port]; dup {
			return fmt.Errorf("%w: %s: port %d used twice", ErrPortLayout, d.Label, port)
		}

		seen[port] = struct{}{}

		return nil
	}

	for _, group := range [][]int{d.AudioInputs, d.AudioOutputs, d.AuxPorts} {
		for _, port := range group {
			if err := claim(port, true); err != nil {
				return err
			}
		}
	}

	for _, group := range [][]int{d.ControlPorts, d.StatusPorts} {
		for _, port := range group {
			if err := claim(port, false); err != nil {
				return err
			}
		}
	}

	return nil
}
