// Package spec defines the filter request record consumed by the design
// pipeline and validates it before any design work begins.
package spec

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSpecification is the sentinel wrapped by every validation
// failure. Callers test with errors.Is.
var ErrInvalidSpecification = errors.New("spec: invalid specification")

// MaxOrder bounds the requested filter order. Higher orders make the
// prototype computation ill-conditioned long before they become useful.
const MaxOrder = 20

// MaxBesselOrder bounds the Bessel prototype order. The delay-normalized
// pole locations are tabulated and the table ends at order 10.
const MaxBesselOrder = 10

// minFractionalBandwidth rejects degenerate bandpass/bandstop requests
// whose band edges nearly coincide.
const minFractionalBandwidth = 1e-3

// BandType selects the frequency band shape of the filter.
type BandType int

const (
	Lowpass BandType = iota
	Highpass
	Bandpass
	Bandstop
)

// String returns the lower-case band name used in export metadata.
func (b BandType) String() string {
	switch b {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case Bandstop:
		return "bandstop"
	default:
		return fmt.Sprintf("bandtype(%d)", int(b))
	}
}

// cutoffArity returns how many cutoff frequencies the band type takes.
func (b BandType) cutoffArity() int {
	if b == Bandpass || b == Bandstop {
		return 2
	}
	return 1
}

// Family selects the classical approximation used for the analog prototype.
type Family int

const (
	Butterworth Family = iota
	Chebyshev1
	Chebyshev2
	Elliptic
	Bessel
)

// String returns the lower-case family name used in export metadata.
func (f Family) String() string {
	switch f {
	case Butterworth:
		return "butterworth"
	case Chebyshev1:
		return "chebyshev1"
	case Chebyshev2:
		return "chebyshev2"
	case Elliptic:
		return "elliptic"
	case Bessel:
		return "bessel"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// NeedsRipple reports whether the family requires a passband ripple value.
func (f Family) NeedsRipple() bool {
	return f == Chebyshev1 || f == Elliptic
}

// NeedsAttenuation reports whether the family requires a stopband
// attenuation value.
func (f Family) NeedsAttenuation() bool {
	return f == Chebyshev2 || f == Elliptic
}

// Filter is an immutable filter request. Cutoffs holds one frequency for
// lowpass/highpass and two strictly increasing frequencies for
// bandpass/bandstop, all in Hz and strictly inside (0, SampleRate/2).
//
// RippleDB is the passband ripple (required > 0 for Chebyshev I and
// elliptic designs); AttenuationDB is the minimum stopband attenuation
// (required > 0 for Chebyshev II and elliptic designs).
type Filter struct {
	Band          BandType
	Family        Family
	Order         int
	Cutoffs       []float64
	SampleRate    float64
	RippleDB      float64
	AttenuationDB float64
}

// Validate checks the request for mathematical sanity. It fails fast on
// the first violation with an error wrapping ErrInvalidSpecification and
// a specific reason. A validated Filter is safe to hand to the design
// engine; no further range checking happens there.
func (f *Filter) Validate() error {
	if want, got := f.Band.cutoffArity(), len(f.Cutoffs); want != got {
		return invalid("%s needs %d cutoff frequencies, got %d", f.Band, want, got)
	}

	if f.SampleRate <= 0 || math.IsNaN(f.SampleRate) || math.IsInf(f.SampleRate, 0) {
		return invalid("sample rate must be positive and finite, got %g", f.SampleRate)
	}

	nyquist := f.SampleRate / 2
	prev := 0.0
	for i, fc := range f.Cutoffs {
		if math.IsNaN(fc) || fc <= 0 || fc >= nyquist {
			return invalid("cutoff %d (%g Hz) outside (0, %g Hz)", i, fc, nyquist)
		}
		if fc <= prev {
			return invalid("cutoff frequencies must be strictly increasing")
		}
		prev = fc
	}

	if f.Order < 1 {
		return invalid("order must be at least 1, got %d", f.Order)
	}
	if f.Order > MaxOrder {
		return invalid("order %d exceeds maximum %d", f.Order, MaxOrder)
	}
	if f.Family == Bessel {
		// Band filters consume a prototype of half the overall order.
		n := f.Order
		if f.Band == Bandpass || f.Band == Bandstop {
			n = f.Order / 2
		}
		if n > MaxBesselOrder {
			return invalid("bessel prototype order %d exceeds maximum %d", n, MaxBesselOrder)
		}
	}

	if f.Family.NeedsRipple() && f.RippleDB <= 0 {
		return invalid("%s design requires ripple > 0 dB", f.Family)
	}
	if f.Family.NeedsAttenuation() && f.AttenuationDB <= 0 {
		return invalid("%s design requires attenuation > 0 dB", f.Family)
	}
	if f.Family == Elliptic && f.AttenuationDB <= f.RippleDB {
		return invalid("elliptic design requires attenuation (%g dB) > ripple (%g dB)",
			f.AttenuationDB, f.RippleDB)
	}

	if f.Band == Bandpass || f.Band == Bandstop {
		lo, hi := f.Cutoffs[0], f.Cutoffs[1]
		center := math.Sqrt(lo * hi)
		if (hi-lo)/center < minFractionalBandwidth {
			return invalid("band [%g, %g] Hz is too narrow (fractional bandwidth below %g)",
				lo, hi, minFractionalBandwidth)
		}
		if f.Order%2 != 0 {
			return invalid("%s requires an even order, got %d", f.Band, f.Order)
		}
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpecification, fmt.Sprintf(format, args...))
}
