//go:build jack

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/builtin"
	"github.com/cwbudde/algo-rack/rack/control"
	"github.com/cwbudde/algo-rack/rack/descriptor"
	"github.com/cwbudde/algo-rack/rack/jackport"
)

// runJack runs the chain as a JACK client until interrupted or, with a
// positive -seconds, for that long.
func runJack(opts options, reg *descriptor.Registry, logger *slog.Logger) error {
	client, err := jackport.Open("rackhost", logger)
	if err != nil {
		return err
	}

	closeClient := sync.OnceValue(client.Close)
	defer closeClient()

	r, err := rack.New(
		rack.WithChannels(opts.channels),
		rack.WithSampleRate(client.SampleRate()),
		rack.WithBufferSize(client.BufferSize()),
		rack.WithLoader(builtin.Loader{}),
		rack.WithPorts(client),
		rack.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	d := control.New(r, reg)
	d.Start()
	defer d.Close()

	if _, err := buildChain(d, opts); err != nil {
		return err
	}

	if err := client.Start(r); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	var timeout <-chan time.Time
	if opts.seconds > 0 {
		timeout = time.After(time.Duration(opts.seconds * float64(time.Second)))
	}

	select {
	case <-stop:
	case <-timeout:
	}

	// The process callback must be gone before entries are disposed.
	closeLogged(logger, "JACK client", closeClient)

	return r.Close()
}
