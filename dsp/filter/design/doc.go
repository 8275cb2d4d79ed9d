// Package design provides biquad coefficient designers for the built-in
// effects. The results are consumed by dsp/filter/biquad.
package design
