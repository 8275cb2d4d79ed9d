//go:build !headless

package main

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// play streams src through the default audio device for seconds.
func play(src *renderer, seconds float64) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(src.rack.SampleRate()),
		ChannelCount: src.rack.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(src.rack.BufferSize()) * time.Second / time.Duration(src.rack.SampleRate()),
	})
	if err != nil {
		return fmt.Errorf("rackhost: audio device: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.Play()

	time.Sleep(time.Duration(seconds * float64(time.Second)))

	if err := player.Close(); err != nil {
		return fmt.Errorf("rackhost: close player: %w", err)
	}

	return nil
}
