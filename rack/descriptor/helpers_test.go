package descriptor

// stereoFixture returns a valid two-channel descriptor with one control port,
// one status port and no aux ports. Ports: 0,1 in; 2,3 out; 4 control; 5 status.
func stereoFixture() *Descriptor {
	return &Descriptor{
		ID:           1001,
		Label:        "fixture",
		Name:         "Fixture Stereo",
		Channels:     2,
		AudioInputs:  []int{0, 1},
		AudioOutputs: []int{2, 3},
		ControlPorts: []int{4},
		StatusPorts:  []int{5},
		Hints: map[int]PortHint{
			4: {Flags: BoundedBelow | BoundedAbove | DefaultMiddle, Lower: 0, Upper: 10},
		},
		PortNames: map[int]string{4: "amount", 5: "level"},
	}
}

// auxFixture returns a mono descriptor with two aux output channels.
// Ports: 0 in; 1 out; 2,3 aux; 4 control.
func auxFixture() *Descriptor {
	return &Descriptor{
		ID:           1002,
		Label:        "auxfixture",
		Name:         "Aux Fixture",
		Channels:     1,
		AudioInputs:  []int{0},
		AudioOutputs: []int{1},
		AuxChannels:  2,
		AuxDirection: Output,
		AuxPorts:     []int{2, 3},
		ControlPorts: []int{4},
	}
}
