//go:build headless

package main

import "errors"

func play(*renderer, float64) error {
	return errors.New("rackhost: built without audio output, use -offline")
}
