// Package response analyzes the realized frequency response of a
// designed cascade: it runs a unit impulse through the filter,
// transforms the result and derives the quantities a verification step
// cares about, such as the achieved -3 dB edges and the DC gain.
package response

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-iir/design"
)

// DefaultFFTSize trades frequency resolution against work; at 44.1 kHz
// it resolves bins of about 5 Hz.
const DefaultFFTSize = 8192

const minFFTSize = 64

// Analysis holds the single-sided magnitude response of a cascade.
// Bins run from DC to Nyquist inclusive.
type Analysis struct {
	SampleRate float64
	Magnitude  []float64
}

// Analyze computes the magnitude response with the default FFT size.
func Analyze(c *design.Cascade) (*Analysis, error) {
	return AnalyzeSize(c, DefaultFFTSize)
}

// AnalyzeSize computes the magnitude response from an fftSize-point
// transform of the cascade's impulse response. fftSize must be a power
// of two of at least 64 so that the response tail has decayed within
// the window for any supported order.
func AnalyzeSize(c *design.Cascade, fftSize int) (*Analysis, error) {
	if fftSize < minFFTSize || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("response: fft size %d is not a power of two >= %d", fftSize, minFFTSize)
	}

	impulse := c.Chain().ImpulseResponse(fftSize)

	in := make([]complex128, fftSize)
	for i, v := range impulse {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}

	half := fftSize/2 + 1
	re := make([]float64, half)
	im := make([]float64, half)
	for i := range half {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mag := make([]float64, half)
	vecmath.Magnitude(mag, re, im)

	return &Analysis{SampleRate: c.SampleRate, Magnitude: mag}, nil
}

// NumBins returns the number of single-sided frequency bins.
func (a *Analysis) NumBins() int { return len(a.Magnitude) }

// Frequency returns the center frequency of bin i in Hz.
func (a *Analysis) Frequency(i int) float64 {
	return float64(i) * a.SampleRate / float64(2*(len(a.Magnitude)-1))
}

// DCGainDB returns the response at 0 Hz in decibels.
func (a *Analysis) DCGainDB() float64 {
	return toDB(a.Magnitude[0])
}

// PeakGainDB returns the largest magnitude across all bins in decibels.
// For a well-scaled passband design it sits near 0 dB.
func (a *Analysis) PeakGainDB() float64 {
	peak := 0.0
	for _, m := range a.Magnitude {
		if m > peak {
			peak = m
		}
	}
	return toDB(peak)
}

// CutoffFrequencies returns the frequencies where the response crosses
// 3 dB below its peak, linearly interpolated between bins. A lowpass or
// highpass yields one edge, a bandpass two, a bandstop two band edges
// around the notch.
func (a *Analysis) CutoffFrequencies() []float64 {
	peak := 0.0
	for _, m := range a.Magnitude {
		if m > peak {
			peak = m
		}
	}
	if peak == 0 {
		return nil
	}

	level := peak / math.Sqrt2
	var edges []float64

	for i := 1; i < len(a.Magnitude); i++ {
		lo, hi := a.Magnitude[i-1], a.Magnitude[i]
		crossesDown := lo >= level && hi < level
		crossesUp := lo < level && hi >= level
		if !crossesDown && !crossesUp {
			continue
		}

		frac := (level - lo) / (hi - lo)
		edges = append(edges, a.Frequency(i-1)+frac*(a.Frequency(i)-a.Frequency(i-1)))
	}

	return edges
}

// GainAtDB returns the interpolated response at frequency f in decibels.
func (a *Analysis) GainAtDB(f float64) float64 {
	nyquist := a.SampleRate / 2
	if f < 0 || f > nyquist {
		return math.Inf(-1)
	}

	pos := f / nyquist * float64(len(a.Magnitude)-1)
	i := int(pos)
	if i >= len(a.Magnitude)-1 {
		return toDB(a.Magnitude[len(a.Magnitude)-1])
	}

	frac := pos - float64(i)

	return toDB(a.Magnitude[i]*(1-frac) + a.Magnitude[i+1]*frac)
}

func toDB(m float64) float64 {
	if m <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(m)
}
