package rack_test

import (
	"fmt"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

// halfGain halves its single channel.
type halfGain struct {
	in, out []float64
}

func (h *halfGain) SetSampleRate(float64)     {}
func (h *halfGain) SetParameter(int, float64) {}
func (h *halfGain) Parameter(int) float64     { return 0 }
func (h *halfGain) ConnectPort(port int, buf []float64) {
	if port == 0 {
		h.in = buf
	} else {
		h.out = buf
	}
}

func (h *halfGain) Process(frames int) {
	for i := range frames {
		h.out[i] = h.in[i] / 2
	}
}

type halfGainModule struct{}

func (halfGainModule) Instantiate(*descriptor.Descriptor, float64) (rack.Effect, error) {
	return &halfGain{}, nil
}

func (halfGainModule) Close() error { return nil }

func ExampleContext_Process() {
	desc := &descriptor.Descriptor{
		ID:           1,
		Label:        "half",
		Channels:     1,
		AudioInputs:  []int{0},
		AudioOutputs: []int{1},
	}

	loader := rack.LoaderFunc(func(*descriptor.Descriptor) (rack.Module, error) {
		return halfGainModule{}, nil
	})

	ctx, err := rack.New(rack.WithChannels(2), rack.WithBufferSize(4), rack.WithLoader(loader))
	if err != nil {
		panic(err)
	}
	defer ctx.Close()

	p, err := ctx.Instantiate(desc)
	if err != nil {
		panic(err)
	}

	ctx.Chain().SetEnabled(p, true)
	ctx.Chain().SetWetDryEnabled(p, true)
	ctx.Chain().Append(p)
	p.PushWetDry(1, 0)

	in := [][]float64{{1, 2, 3, 4}, {1, 2, 3, 4}}
	out := [][]float64{make([]float64, 4), make([]float64, 4)}
	ctx.Process(in, out)

	fmt.Println(p.Copies(), out[0], out[1])

	// Output:
	// 2 [0.5 1 1.5 2] [1 2 3 4]
}
