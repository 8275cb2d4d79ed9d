package rack

import "github.com/cwbudde/algo-rack/rack/descriptor"

// Process runs one cycle of the chain. inputs and outputs hold one buffer
// per host channel; missing input channels read silence and missing output
// channels are skipped. The cycle length is the buffer size, shortened to the
// shortest buffer supplied.
//
// Process is the real-time path: it takes no locks and does not allocate.
// It must not be called concurrently with itself.
func (c *Context) Process(inputs, outputs [][]float64) {
	frames := c.cfg.BufferSize
	for _, buf := range inputs {
		if buf != nil && len(buf) < frames {
			frames = len(buf)
		}
	}

	for _, buf := range outputs {
		if buf != nil && len(buf) < frames {
			frames = len(buf)
		}
	}

	for ch := range c.inputs {
		if ch < len(inputs) && inputs[ch] != nil {
			c.inputs[ch] = inputs[ch][:frames]
		} else {
			c.inputs[ch] = c.silence[:frames]
		}
	}

	src := c.inputs
	entries := *c.chain.snap.Load()

	for _, p := range entries {
		p.drainQueues()

		if !p.enabled.Load() {
			continue
		}

		p.run(src, frames)
		src = p.outputs
	}

	for ch, dst := range outputs {
		if dst == nil || ch >= len(src) {
			continue
		}

		copy(dst[:frames], src[ch][:frames])
	}

	c.cycles.Add(1)
}

// drainQueues applies every value queued by the control path since the last
// cycle. Only the newest value per queue reaches the native instance.
func (p *Plugin) drainQueues() {
	for ch, q := range p.wetDryQueues {
		if v, ok := q.DrainLast(); ok {
			p.wetDry[ch].Store(v)
		}
	}

	d := p.desc
	for i := range p.holders {
		h := &p.holders[i]

		for slot, q := range h.queues {
			v, ok := q.DrainLast()
			if !ok {
				continue
			}

			h.control[slot].Store(v)
			h.effect.SetParameter(d.NativeParameter(d.ControlPorts[slot]), v)
		}
	}
}

// run binds every copy to its slice of the host channels, processes it and
// applies the wet/dry blend against src.
func (p *Plugin) run(src [][]float64, frames int) {
	d := p.desc
	channels := len(p.outputs)
	silence := p.ctx.silence[:frames]
	discard := p.discard[:frames]

	for k := range p.holders {
		h := &p.holders[k]
		fx := h.effect

		for j := range d.Channels {
			ch := k*d.Channels + j
			if ch < channels {
				fx.ConnectPort(d.AudioInputs[j], src[ch][:frames])
				fx.ConnectPort(d.AudioOutputs[j], p.outputs[ch][:frames])
			} else {
				fx.ConnectPort(d.AudioInputs[j], silence)
				fx.ConnectPort(d.AudioOutputs[j], discard)
			}
		}

		if set := h.aux.Load(); set != nil {
			for i, port := range set.ports {
				fx.ConnectPort(d.AuxPorts[i], port.Buffer(frames)[:frames])
			}
		} else {
			for _, port := range d.AuxPorts {
				if d.AuxDirection == descriptor.Input {
					fx.ConnectPort(port, silence)
				} else {
					fx.ConnectPort(port, discard)
				}
			}
		}

		fx.Process(frames)

		for i, port := range d.StatusPorts {
			h.status[i].Store(fx.Parameter(d.NativeParameter(port)))
		}
	}

	if !p.wetDryEnabled.Load() {
		return
	}

	for ch := range channels {
		blend(p.outputs[ch][:frames], src[ch][:frames], p.scratch, p.wetDry[ch].Load())
	}
}
