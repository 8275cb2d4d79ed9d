//go:build jack

package jackport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xthexder/go-jack"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

var (
	// ErrServer is returned when no JACK server can be reached.
	ErrServer = errors.New("jackport: cannot open client")
	// ErrPort is returned when JACK refuses a port.
	ErrPort = errors.New("jackport: port registration failed")
)

// Client is a JACK client acting as the rack's audio driver and auxiliary
// port registrar.
type Client struct {
	jc     *jack.Client
	logger *slog.Logger

	mu   sync.Mutex
	aux  map[*port]struct{}
	live atomic.Pointer[[]*port]

	rack     *rack.Context
	mainIn   []*jack.Port
	mainOut  []*jack.Port
	in, out  [][]float64
	inView   [][]float64
	outView  [][]float64
	bufSize  int
	sampRate float64
}

// Open connects to a running JACK server under name.
func Open(name string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	jc, status := jack.ClientOpen(name, jack.NoStartServer)
	if jc == nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrServer, name, jack.StrError(status))
	}

	c := &Client{
		jc:       jc,
		logger:   logger,
		aux:      make(map[*port]struct{}),
		bufSize:  int(jc.GetBufferSize()),
		sampRate: float64(jc.GetSampleRate()),
	}

	empty := []*port{}
	c.live.Store(&empty)

	return c, nil
}

// SampleRate returns the server's sample rate.
func (c *Client) SampleRate() float64 { return c.sampRate }

// BufferSize returns the server's period in frames.
func (c *Client) BufferSize() int { return c.bufSize }

// port is an auxiliary JACK port with a float64 staging buffer.
type port struct {
	jp   *jack.Port
	name string
	dir  descriptor.Direction
	buf  []float64
	n    int
}

func (p *port) Name() string { return p.name }

// Buffer returns the staging buffer. Input ports are filled from JACK
// first; output ports are copied to JACK after the cycle.
func (p *port) Buffer(frames int) []float64 {
	frames = min(frames, len(p.buf))
	if p.dir == descriptor.Input {
		widen(p.buf[:frames], p.jp.GetBuffer(uint32(frames)))
	}

	p.n = frames

	return p.buf[:frames]
}

// Register creates a JACK port for a plugin's auxiliary channel. Auxiliary
// inputs of a plugin are JACK input ports.
func (c *Client) Register(name string, dir descriptor.Direction) (rack.Port, error) {
	jp := c.jc.PortRegister(name, jack.DEFAULT_AUDIO_TYPE, portFlags(dir), 0)
	if jp == nil {
		return nil, fmt.Errorf("%w: %s", ErrPort, name)
	}

	p := &port{jp: jp, name: name, dir: dir, buf: make([]float64, c.bufSize)}

	c.mu.Lock()
	c.aux[p] = struct{}{}
	c.publishLocked()
	c.mu.Unlock()

	return p, nil
}

// Unregister removes an auxiliary port from the server.
func (c *Client) Unregister(rp rack.Port) error {
	p, ok := rp.(*port)
	if !ok {
		return fmt.Errorf("%w: foreign port %q", ErrPort, rp.Name())
	}

	c.mu.Lock()
	delete(c.aux, p)
	c.publishLocked()
	c.mu.Unlock()

	if status := c.jc.PortUnregister(p.jp); status != 0 {
		return fmt.Errorf("%w: unregister %s: %w", ErrPort, p.name, jack.StrError(status))
	}

	return nil
}

// portFlags maps a direction seen from the rack to JACK port flags: data
// the rack reads arrives on a JACK input port.
func portFlags(dir descriptor.Direction) uint64 {
	if dir == descriptor.Input {
		return uint64(jack.PortIsInput)
	}

	return uint64(jack.PortIsOutput)
}

func (c *Client) publishLocked() {
	ports := make([]*port, 0, len(c.aux))
	for p := range c.aux {
		if p.dir == descriptor.Output {
			ports = append(ports, p)
		}
	}

	c.live.Store(&ports)
}

// Start registers one main input and output port per rack channel and
// starts processing r from the JACK callback.
func (c *Client) Start(r *rack.Context) error {
	channels := r.Channels()
	c.rack = r
	c.in = make([][]float64, channels)
	c.out = make([][]float64, channels)
	c.inView = make([][]float64, channels)
	c.outView = make([][]float64, channels)

	for ch := range channels {
		in := c.jc.PortRegister(fmt.Sprintf("in_%d", ch+1), jack.DEFAULT_AUDIO_TYPE, portFlags(descriptor.Input), 0)
		out := c.jc.PortRegister(fmt.Sprintf("out_%d", ch+1), jack.DEFAULT_AUDIO_TYPE, portFlags(descriptor.Output), 0)

		if in == nil || out == nil {
			return fmt.Errorf("%w: main ports for channel %d", ErrPort, ch+1)
		}

		c.mainIn = append(c.mainIn, in)
		c.mainOut = append(c.mainOut, out)
		c.in[ch] = make([]float64, c.bufSize)
		c.out[ch] = make([]float64, c.bufSize)
	}

	if status := c.jc.SetProcessCallback(c.process); status != 0 {
		return fmt.Errorf("jackport: set process callback: %w", jack.StrError(status))
	}

	if status := c.jc.Activate(); status != 0 {
		return fmt.Errorf("jackport: activate: %w", jack.StrError(status))
	}

	c.logger.Info("jackport: running", "channels", channels,
		"rate", c.sampRate, "frames", c.bufSize)

	return nil
}

func (c *Client) process(nframes uint32) int {
	frames := min(int(nframes), c.bufSize)

	for ch, jp := range c.mainIn {
		c.inView[ch] = c.in[ch][:frames]
		c.outView[ch] = c.out[ch][:frames]
		widen(c.inView[ch], jp.GetBuffer(uint32(frames)))
	}

	c.rack.Process(c.inView, c.outView)

	for ch, jp := range c.mainOut {
		narrow(jp.GetBuffer(uint32(frames)), c.out[ch][:frames])
	}

	for _, p := range *c.live.Load() {
		narrow(p.jp.GetBuffer(uint32(frames)), p.buf[:p.n])
	}

	return 0
}

// Close disconnects from the server. The rack must not be processed
// afterwards.
func (c *Client) Close() error {
	if status := c.jc.Close(); status != 0 {
		return fmt.Errorf("jackport: close: %w", jack.StrError(status))
	}

	return nil
}
