package rack

// Auxiliary port identity follows chain position: among entries of one
// type, the set with the lowest ordinal belongs to the first entry, and so
// on. Every structural mutation restores that order by swapping whole sets
// between entries, so physical connections made to a name stay attached to
// the same position. All helpers except compactAux run with the chain
// mutex held.

func (ch *Chain) auxRouted(p *Plugin) bool {
	return ch.ctx.cfg.Ports != nil && p.desc.AuxChannels > 0
}

// cascadeAux hands the sets of the removed entry p down the chain: starting
// at from, every entry of p's type swaps with p, so each takes over its
// same-type predecessor's set and p ends up holding the highest one.
func (ch *Chain) cascadeAux(p *Plugin, from int) {
	if !ch.auxRouted(p) {
		return
	}

	for idx := from; idx != noSlot; idx = ch.slots[idx].next {
		if q := ch.slots[idx].p; q.desc.ID == p.desc.ID {
			swapAux(p, q)
		}
	}
}

// siftAux moves the set of a newly linked entry p into ordinal order
// relative to the other entries of its type.
func (ch *Chain) siftAux(p *Plugin) {
	if !ch.auxRouted(p) {
		return
	}

	typeID := p.desc.ID

	// The travelling set starts at p and moves with each swap.
	cur := p
	for idx := ch.slots[p.slot].prev; idx != noSlot; idx = ch.slots[idx].prev {
		q := ch.slots[idx].p
		if q.desc.ID != typeID {
			continue
		}

		if q.auxOrdinal() <= cur.auxOrdinal() {
			break
		}

		swapAux(cur, q)
		cur = q
	}

	if cur != p {
		return
	}

	for idx := ch.slots[p.slot].next; idx != noSlot; idx = ch.slots[idx].next {
		q := ch.slots[idx].p
		if q.desc.ID != typeID {
			continue
		}

		if q.auxOrdinal() >= cur.auxOrdinal() {
			break
		}

		swapAux(cur, q)
		cur = q
	}
}

// compactAux runs before the disposed entry p gives up its sets. p trades
// down until it holds the highest ordinal of its type, so the ordinals left
// behind stay contiguous from 1. Linked entries above p's ordinal cascade in
// chain order, which keeps them sorted; others holds the remaining
// undisposed entries of the type, linked or not.
func (ch *Chain) compactAux(p *Plugin, others []*Plugin) {
	if !ch.auxRouted(p) || p.auxOrdinal() == 0 {
		return
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	for idx := ch.head; idx != noSlot; idx = ch.slots[idx].next {
		q := ch.slots[idx].p
		if q.desc.ID == p.desc.ID && q.auxOrdinal() > p.auxOrdinal() {
			swapAux(p, q)
		}
	}

	for _, q := range others {
		if !ch.member(q) && q.auxOrdinal() > p.auxOrdinal() {
			swapAux(p, q)
		}
	}
}
