//go:build !jack

package main

import (
	"errors"
	"log/slog"

	"github.com/cwbudde/algo-rack/rack/descriptor"
)

func runJack(options, *descriptor.Registry, *slog.Logger) error {
	return errors.New("rackhost: built without JACK support, rebuild with -tags jack")
}
