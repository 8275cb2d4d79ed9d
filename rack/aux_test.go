package rack

import (
	"slices"
	"testing"

	"github.com/cwbudde/algo-rack/rack/descriptor"
)

func portNames(p *Plugin, copyIndex int) []string {
	var names []string
	for _, port := range p.AuxPorts(copyIndex) {
		names = append(names, port.Name())
	}

	return names
}

func TestAuxPortNames(t *testing.T) {
	t.Parallel()

	c, _ := newTestContext(t, WithChannels(2), WithPorts(newFakeRegistrar()))

	a := addEnabled(t, c, auxSend())
	b := addEnabled(t, c, auxSend())
	r := addEnabled(t, c, auxReturn())

	tests := []struct {
		p         *Plugin
		copyIndex int
		want      string
	}{
		{a, 0, "aux_sen_1-1_o1"},
		{a, 1, "aux_sen_1-2_o1"},
		{b, 0, "aux_sen_2-1_o1"},
		{b, 1, "aux_sen_2-2_o1"},
		{r, 0, "return_1-1_i1"},
		{r, 1, "return_1-2_i1"},
	}

	for _, tt := range tests {
		got := portNames(tt.p, tt.copyIndex)
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("copy %d of %s: ports %v, want %s", tt.copyIndex, tt.p.Descriptor().Label, got, tt.want)
		}
	}

	if a.AuxOrdinal() != 1 || b.AuxOrdinal() != 2 {
		t.Fatalf("ordinals = %d, %d", a.AuxOrdinal(), b.AuxOrdinal())
	}
}

func TestAuxPortNameShortening(t *testing.T) {
	t.Parallel()

	d := auxSend()
	d.Name = "Grand Reverb"
	d.AuxDirection = descriptor.Output

	if got := auxPortName(d, 3, 0, 1); got != "grand_r_3-1_o2" {
		t.Fatalf("auxPortName = %q", got)
	}

	d.Name = "Ab"
	if got := auxPortName(d, 1, 1, 0); got != "ab_1-2_o1" {
		t.Fatalf("auxPortName = %q", got)
	}
}

func TestAuxIdentityShiftsOnRemove(t *testing.T) {
	t.Parallel()

	ports := newFakeRegistrar()
	c, _ := newTestContext(t, WithChannels(1), WithPorts(ports))
	ch := c.Chain()

	a := addEnabled(t, c, auxSend())
	g := addEnabled(t, c, monoGain())
	b := addEnabled(t, c, auxSend())
	d := addEnabled(t, c, auxSend())

	a1 := a.AuxPorts(0)[0]
	a2 := b.AuxPorts(0)[0]
	a3 := d.AuxPorts(0)[0]

	ch.Remove(a)

	if b.AuxPorts(0)[0] != a1 || d.AuxPorts(0)[0] != a2 {
		t.Fatalf("after remove: b=%s d=%s, want the first two port sets",
			b.AuxPorts(0)[0].Name(), d.AuxPorts(0)[0].Name())
	}

	if a.AuxPorts(0)[0] != a3 {
		t.Fatal("removed entry should hold the last port set")
	}

	if err := c.Retire(a); err != nil {
		t.Fatal(err)
	}

	c.Process([][]float64{make([]float64, testFrames)}, [][]float64{make([]float64, testFrames)})
	c.Reap()

	if ports.port(a3.Name()) != nil || ports.port(a1.Name()) == nil {
		t.Fatal("disposal released the wrong port set")
	}

	// The freed ordinal goes to the next entry added at the tail.
	e := addEnabled(t, c, auxSend())
	if e.AuxOrdinal() != 3 || ch.Next(g) != b {
		t.Fatalf("new entry ordinal = %d, want 3", e.AuxOrdinal())
	}
}

func TestAuxGapClosesOnDispose(t *testing.T) {
	t.Parallel()

	cycle := func(c *Context) {
		c.Process([][]float64{make([]float64, testFrames)}, [][]float64{make([]float64, testFrames)})
	}

	t.Run("entry added while another awaits disposal", func(t *testing.T) {
		t.Parallel()

		ports := newFakeRegistrar()
		c, _ := newTestContext(t, WithChannels(1), WithPorts(ports))
		ch := c.Chain()

		a := addEnabled(t, c, auxSend())
		b := addEnabled(t, c, auxSend())

		ch.Remove(a)
		if err := c.Retire(a); err != nil {
			t.Fatal(err)
		}

		d := addEnabled(t, c, auxSend())
		if d.AuxOrdinal() != 3 {
			t.Fatalf("ordinal while a awaits disposal = %d, want 3", d.AuxOrdinal())
		}

		cycle(c)
		c.Reap()

		if b.AuxOrdinal() != 1 || d.AuxOrdinal() != 2 {
			t.Fatalf("after reap: b=%d d=%d, want 1 and 2", b.AuxOrdinal(), d.AuxOrdinal())
		}

		if got := portNames(d, 0); !slices.Equal(got, []string{"aux_sen_2-1_o1"}) {
			t.Fatalf("d ports = %v", got)
		}

		if ports.port("aux_sen_3-1_o1") != nil || ports.port("aux_sen_2-1_o1") == nil {
			t.Fatal("disposal unregistered the wrong set")
		}

		if e := addEnabled(t, c, auxSend()); e.AuxOrdinal() != 3 {
			t.Fatalf("next ordinal = %d, want 3", e.AuxOrdinal())
		}
	})

	t.Run("detached entry takes the lower set", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestContext(t, WithChannels(1), WithPorts(newFakeRegistrar()))
		ch := c.Chain()

		a := addEnabled(t, c, auxSend())
		b := addEnabled(t, c, auxSend())
		x := mustInstantiate(t, c, auxSend())

		ch.Remove(a)
		if err := c.Retire(a); err != nil {
			t.Fatal(err)
		}

		cycle(c)
		c.Reap()

		if b.AuxOrdinal() != 1 || x.AuxOrdinal() != 2 {
			t.Fatalf("after reap: b=%d x=%d, want 1 and 2", b.AuxOrdinal(), x.AuxOrdinal())
		}

		ch.Insert(x, b)

		got := []int{x.AuxOrdinal(), b.AuxOrdinal()}
		if !slices.Equal(got, []int{1, 2}) {
			t.Fatalf("ordinals by position = %v, want [1 2]", got)
		}
	})
}

func TestAuxFollowsMove(t *testing.T) {
	t.Parallel()

	c, _ := newTestContext(t, WithChannels(1), WithPorts(newFakeRegistrar()))
	ch := c.Chain()

	a := addEnabled(t, c, auxSend())
	b := addEnabled(t, c, auxSend())
	g := addEnabled(t, c, monoGain())

	first := a.AuxPorts(0)[0]
	second := b.AuxPorts(0)[0]

	ch.Move(b, Earlier)

	if b.AuxPorts(0)[0] != first || a.AuxPorts(0)[0] != second {
		t.Fatal("moving past a same-type entry should swap port sets")
	}

	// Moving past a different type keeps the sets.
	ch.Move(a, Later)
	requireOrder(t, ch, b, g, a)

	if b.AuxPorts(0)[0] != first || a.AuxPorts(0)[0] != second {
		t.Fatal("moving past another type changed port sets")
	}

	// Boundary moves change nothing.
	ch.Move(b, Earlier)
	ch.Move(a, Later)

	if b.AuxOrdinal() != 1 || a.AuxOrdinal() != 2 {
		t.Fatal("boundary move changed ordinals")
	}
}

func TestAuxReplace(t *testing.T) {
	t.Parallel()

	t.Run("same type takes over ports", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestContext(t, WithChannels(1), WithPorts(newFakeRegistrar()))
		ch := c.Chain()

		a := addEnabled(t, c, auxSend())
		b := addEnabled(t, c, auxSend())
		repl := mustInstantiate(t, c, auxSend())

		first := a.AuxPorts(0)[0]
		ch.Replace(a, repl)

		if repl.AuxPorts(0)[0] != first || repl.AuxOrdinal() != 1 || b.AuxOrdinal() != 2 {
			t.Fatal("replacement did not take over the replaced entry's ports")
		}

		if a.AuxOrdinal() != 3 {
			t.Fatalf("replaced entry ordinal = %d, want 3", a.AuxOrdinal())
		}
	})

	t.Run("other type shifts later entries", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestContext(t, WithChannels(1), WithPorts(newFakeRegistrar()))
		ch := c.Chain()

		a := addEnabled(t, c, auxSend())
		b := addEnabled(t, c, auxSend())
		repl := mustInstantiate(t, c, monoGain())

		first := a.AuxPorts(0)[0]
		ch.Replace(a, repl)

		if b.AuxPorts(0)[0] != first {
			t.Fatal("later same-type entry did not shift down")
		}
	})
}

func TestAuxOrderAfterInsert(t *testing.T) {
	t.Parallel()

	c, _ := newTestContext(t, WithChannels(1), WithPorts(newFakeRegistrar()))
	ch := c.Chain()

	a := addEnabled(t, c, auxSend())
	b := addEnabled(t, c, auxSend())

	// Gets ordinal 3 but lands first, so it takes ordinal 1.
	x := mustInstantiate(t, c, auxSend())
	ch.Insert(x, a)

	got := []int{x.AuxOrdinal(), a.AuxOrdinal(), b.AuxOrdinal()}
	if !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("ordinals by position = %v, want [1 2 3]", got)
	}

	if name := x.AuxPorts(0)[0].Name(); name != "aux_sen_1-1_o1" {
		t.Fatalf("first entry holds %s", name)
	}
}

func TestAuxWithoutRegistrar(t *testing.T) {
	t.Parallel()

	c, _ := newTestContext(t, WithChannels(1))
	p := addEnabled(t, c, auxSend())

	if p.AuxPorts(0) != nil || p.AuxOrdinal() != 0 {
		t.Fatal("aux ports created without a registrar")
	}

	in := [][]float64{make([]float64, testFrames)}
	in[0][0] = 1
	out := [][]float64{make([]float64, testFrames)}
	c.Process(in, out)

	if out[0][0] != 1 {
		t.Fatalf("out = %v", out[0][0])
	}
}
