// Package builtin provides a module loader with a small set of in-process
// effects. They follow the same port conventions as native plugins and are
// used by rackhost and in tests to drive a rack end to end.
package builtin
