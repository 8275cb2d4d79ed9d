package rack

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-rack/rack/fifo"
)

// atomicFloat is a float64 readable from one path while the other writes it.
type atomicFloat struct {
	bits atomic.Uint64
}

func (a *atomicFloat) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

// auxSet is the group of registered auxiliary ports of one copy. The
// ordinal is the position among same-type entries the port names encode;
// it travels with the ports when sets are swapped between entries.
type auxSet struct {
	ordinal int
	ports   []Port
}

// holder is the per-copy state of an entry.
type holder struct {
	effect Effect

	queues  []*fifo.Queue
	control []atomicFloat
	status  []atomicFloat

	aux atomic.Pointer[auxSet]
}

// swapAux exchanges the auxiliary port sets of two same-type entries, copy
// by copy.
func swapAux(a, b *Plugin) {
	n := min(len(a.holders), len(b.holders))
	for i := range n {
		ha, hb := &a.holders[i], &b.holders[i]

		pa := ha.aux.Load()
		pb := hb.aux.Load()
		ha.aux.Store(pb)
		hb.aux.Store(pa)
	}
}

// auxOrdinal returns the ordinal of the aux set held by the first copy, or 0.
func (p *Plugin) auxOrdinal() int {
	if len(p.holders) == 0 {
		return 0
	}

	set := p.holders[0].aux.Load()
	if set == nil {
		return 0
	}

	return set.ordinal
}
