// Package jackport connects a rack to a JACK server: it registers the
// rack's main and auxiliary ports as JACK ports and runs the rack from the
// JACK process callback.
//
// The JACK binding needs libjack and is only built with the jack build tag.
package jackport
