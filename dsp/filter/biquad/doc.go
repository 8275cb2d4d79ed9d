// Package biquad provides the second-order IIR section used by the rack's
// built-in filters.
//
// A [Section] implements Direct Form II Transposed processing for one
// section defined by [Coefficients]. Coefficient design lives in
// dsp/filter/design.
package biquad
