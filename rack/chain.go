package rack

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const noSlot = -1

// MoveDirection selects the neighbour an entry is swapped with by Move.
type MoveDirection int

const (
	// Earlier moves an entry one position towards the head.
	Earlier MoveDirection = iota
	// Later moves an entry one position towards the tail.
	Later
)

func (d MoveDirection) String() string {
	switch d {
	case Earlier:
		return "earlier"
	case Later:
		return "later"
	default:
		return fmt.Sprintf("MoveDirection(%d)", int(d))
	}
}

type slot struct {
	p          *Plugin
	prev, next int
}

// Chain is the ordered sequence of entries audio flows through. Entries live
// in an index arena linked by prev/next indices. Mutations are serialised by
// an internal mutex and publish an immutable order snapshot that the
// real-time path loads once per cycle.
//
// Calls that violate the chain's contract (entries of another context,
// entries not in the chain where membership is required, entries already in
// the chain where it is not) are ignored.
type Chain struct {
	ctx *Context

	mu    sync.Mutex
	slots []slot
	free  []int
	head  int
	tail  int
	n     int

	snap atomic.Pointer[[]*Plugin]
}

func newChain(ctx *Context) *Chain {
	ch := &Chain{ctx: ctx, head: noSlot, tail: noSlot}
	empty := []*Plugin{}
	ch.snap.Store(&empty)

	return ch
}

// Append links p at the tail.
func (ch *Chain) Append(p *Plugin) {
	ch.Insert(p, nil)
}

// Insert links p immediately before the entry before, or at the tail when
// before is nil.
func (ch *Chain) Insert(p, before *Plugin) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.detached(p) {
		return
	}

	if before != nil && !ch.member(before) {
		return
	}

	idx := ch.alloc(p)

	if before == nil {
		ch.linkAfter(idx, ch.tail)
	} else {
		ch.linkAfter(idx, ch.slots[before.slot].prev)
	}

	ch.siftAux(p)
	ch.publish()
}

// Remove unlinks p and returns it, or returns nil if p is not in the chain.
// Every later entry of the same type takes over the auxiliary ports of its
// same-type predecessor, so port names keep following chain position.
// The caller must Retire the returned entry before disposing it.
func (ch *Chain) Remove(p *Plugin) *Plugin {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.member(p) {
		return nil
	}

	next := ch.slots[p.slot].next
	ch.unlink(p.slot)
	ch.release(p)
	ch.cascadeAux(p, next)
	ch.publish()

	return p
}

// Move shifts p one position in dir. At the boundary it does nothing.
func (ch *Chain) Move(p *Plugin, dir MoveDirection) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.member(p) {
		return
	}

	idx := p.slot

	var other int

	switch dir {
	case Earlier:
		other = ch.slots[idx].prev
		if other == noSlot {
			return
		}

		ch.unlink(idx)
		ch.linkAfter(idx, ch.slots[other].prev)
	case Later:
		other = ch.slots[idx].next
		if other == noSlot {
			return
		}

		ch.unlink(idx)
		ch.linkAfter(idx, other)
	default:
		return
	}

	if q := ch.slots[other].p; ch.auxRouted(p) && q.desc.ID == p.desc.ID {
		swapAux(p, q)
	}

	ch.publish()
}

// Replace puts repl at old's position and returns old detached, or nil if
// old is not in the chain or repl is already linked.
//
// When repl has old's type, the two exchange auxiliary port sets: repl
// keeps old's port names and later same-type entries are untouched, unlike
// Remove followed by Insert. For a different type, later entries of old's
// type shift down as in Remove and repl's sets are sorted into place.
func (ch *Chain) Replace(old, repl *Plugin) *Plugin {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.member(old) || !ch.detached(repl) || old == repl {
		return nil
	}

	idx := old.slot
	next := ch.slots[idx].next

	ch.slots[idx].p = repl
	repl.slot = idx
	old.slot = noSlot

	if old.desc.ID == repl.desc.ID {
		if ch.auxRouted(old) {
			swapAux(old, repl)
		}
	} else {
		ch.cascadeAux(old, next)
		ch.siftAux(repl)
	}

	ch.publish()

	return old
}

// SetEnabled switches processing of p on or off. A disabled entry is
// bypassed.
func (ch *Chain) SetEnabled(p *Plugin, enabled bool) {
	if p == nil || p.ctx != ch.ctx {
		return
	}

	p.enabled.Store(enabled)
}

// SetWetDryEnabled switches the wet/dry blend of p on or off.
func (ch *Chain) SetWetDryEnabled(p *Plugin, enabled bool) {
	if p == nil || p.ctx != ch.ctx {
		return
	}

	p.wetDryEnabled.Store(enabled)
}

// Len returns the number of linked entries.
func (ch *Chain) Len() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.n
}

// Head returns the first entry, or nil.
func (ch *Chain) Head() *Plugin {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.at(ch.head)
}

// Tail returns the last entry, or nil.
func (ch *Chain) Tail() *Plugin {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.at(ch.tail)
}

// Next returns the entry after p, or nil.
func (ch *Chain) Next(p *Plugin) *Plugin {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.member(p) {
		return nil
	}

	return ch.at(ch.slots[p.slot].next)
}

// Prev returns the entry before p, or nil.
func (ch *Chain) Prev(p *Plugin) *Plugin {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if !ch.member(p) {
		return nil
	}

	return ch.at(ch.slots[p.slot].prev)
}

// Contains reports whether p is linked into the chain.
func (ch *Chain) Contains(p *Plugin) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	return ch.member(p)
}

// Entries returns the entries in processing order.
func (ch *Chain) Entries() []*Plugin {
	snap := *ch.snap.Load()
	out := make([]*Plugin, len(snap))
	copy(out, snap)

	return out
}

// Check verifies the linked structure: head and tail terminate the order,
// prev and next agree, every linked entry is reached exactly once and the
// published snapshot matches.
func (ch *Chain) Check() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if (ch.head == noSlot) != (ch.tail == noSlot) {
		return errors.New("rack: chain: head and tail disagree on emptiness")
	}

	if ch.head != noSlot && ch.slots[ch.head].prev != noSlot {
		return errors.New("rack: chain: head has a predecessor")
	}

	if ch.tail != noSlot && ch.slots[ch.tail].next != noSlot {
		return errors.New("rack: chain: tail has a successor")
	}

	seen := make(map[int]bool, ch.n)
	prev := noSlot
	count := 0

	for idx := ch.head; idx != noSlot; idx = ch.slots[idx].next {
		if seen[idx] {
			return fmt.Errorf("rack: chain: slot %d reached twice", idx)
		}

		seen[idx] = true
		s := ch.slots[idx]

		if s.prev != prev {
			return fmt.Errorf("rack: chain: slot %d prev=%d, want %d", idx, s.prev, prev)
		}

		if s.p == nil || s.p.slot != idx {
			return fmt.Errorf("rack: chain: slot %d entry does not point back", idx)
		}

		prev = idx
		count++
	}

	if prev != ch.tail {
		return fmt.Errorf("rack: chain: walk ended at %d, tail is %d", prev, ch.tail)
	}

	if count != ch.n {
		return fmt.Errorf("rack: chain: walked %d entries, length is %d", count, ch.n)
	}

	snap := *ch.snap.Load()
	if len(snap) != count {
		return fmt.Errorf("rack: chain: snapshot has %d entries, chain has %d", len(snap), count)
	}

	i := 0
	for idx := ch.head; idx != noSlot; idx = ch.slots[idx].next {
		if snap[i] != ch.slots[idx].p {
			return fmt.Errorf("rack: chain: snapshot differs at position %d", i)
		}
		i++
	}

	return nil
}

func (ch *Chain) member(p *Plugin) bool {
	return p != nil && p.ctx == ch.ctx && p.slot != noSlot &&
		p.slot < len(ch.slots) && ch.slots[p.slot].p == p
}

func (ch *Chain) detached(p *Plugin) bool {
	return p != nil && p.ctx == ch.ctx && p.slot == noSlot && !p.disposed.Load()
}

func (ch *Chain) at(idx int) *Plugin {
	if idx == noSlot {
		return nil
	}

	return ch.slots[idx].p
}

func (ch *Chain) alloc(p *Plugin) int {
	var idx int

	if n := len(ch.free); n > 0 {
		idx = ch.free[n-1]
		ch.free = ch.free[:n-1]
	} else {
		idx = len(ch.slots)
		ch.slots = append(ch.slots, slot{})
	}

	ch.slots[idx] = slot{p: p, prev: noSlot, next: noSlot}
	p.slot = idx

	return idx
}

func (ch *Chain) release(p *Plugin) {
	ch.slots[p.slot] = slot{prev: noSlot, next: noSlot}
	ch.free = append(ch.free, p.slot)
	p.slot = noSlot
}

// linkAfter links idx after prev, or at the head when prev is noSlot.
func (ch *Chain) linkAfter(idx, prev int) {
	var next int
	if prev == noSlot {
		next = ch.head
		ch.head = idx
	} else {
		next = ch.slots[prev].next
		ch.slots[prev].next = idx
	}

	if next == noSlot {
		ch.tail = idx
	} else {
		ch.slots[next].prev = idx
	}

	ch.slots[idx].prev = prev
	ch.slots[idx].next = next
	ch.n++
}

func (ch *Chain) unlink(idx int) {
	s := ch.slots[idx]

	if s.prev == noSlot {
		ch.head = s.next
	} else {
		ch.slots[s.prev].next = s.next
	}

	if s.next == noSlot {
		ch.tail = s.prev
	} else {
		ch.slots[s.next].prev = s.prev
	}

	ch.slots[idx].prev = noSlot
	ch.slots[idx].next = noSlot
	ch.n--
}

func (ch *Chain) publish() {
	order := make([]*Plugin, 0, ch.n)
	for idx := ch.head; idx != noSlot; idx = ch.slots[idx].next {
		order = append(order, ch.slots[idx].p)
	}

	ch.snap.Store(&order)
}
