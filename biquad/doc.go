// Package biquad provides second-order IIR filter sections (biquads),
// cascades of sections, and pole/zero and frequency-response utilities.
//
// A Coefficients value describes one causal second-order transfer function
// with a0 normalized to 1. Section adds Direct Form II Transposed state for
// sample processing; Chain cascades sections in series.
package biquad
