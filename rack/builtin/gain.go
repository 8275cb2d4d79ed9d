package builtin

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

const gainPort = 2

func gainDescriptor() *descriptor.Descriptor {
	d := mono(GainID, "gain", "Gain", 0)
	d.ControlPorts = []int{gainPort}
	d.Hints[gainPort] = bounded(-60, 24, descriptor.Default0)
	d.PortNames[gainPort] = "gain_db"

	return d
}

type gain struct {
	base

	lastDB float64
	factor float64
}

func newGain(d *descriptor.Descriptor) rack.Effect {
	return &gain{base: newBase(d), factor: 1}
}

func (g *gain) Process(frames int) {
	if db := g.param(gainPort); db != g.lastDB {
		g.lastDB = db
		g.factor = math.Pow(10, db/20)
	}

	vecmath.ScaleBlock(g.ports[1][:frames], g.ports[0][:frames], g.factor)
}
