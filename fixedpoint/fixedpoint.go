// Package fixedpoint maps floating-point section coefficients onto Q15
// or Q31 integers with explicit scale exponents. Quantization is the
// only stage of the pipeline that deliberately loses precision, and it
// never does so silently: a coefficient too large for the target width
// is an error, not a wraparound.
package fixedpoint

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-iir/biquad"
	"github.com/cwbudde/algo-iir/realize"
)

// ErrQuantizationOverflow reports a coefficient whose magnitude exceeds
// the representable range even at scale exponent zero. A stable design
// within normal gain bounds never triggers it.
var ErrQuantizationOverflow = errors.New("fixedpoint: coefficient exceeds representable range")

// Width selects the fixed-point word size.
type Width int

const (
	Q15 Width = 16
	Q31 Width = 32
)

func (w Width) String() string {
	switch w {
	case Q15:
		return "q15"
	case Q31:
		return "q31"
	default:
		return "unknown"
	}
}

func (w Width) valid() bool { return w == Q15 || w == Q31 }

// ScalePolicy decides whether each section carries its own exponent or
// all sections share one. Per-section scaling minimizes quantization
// error; a global exponent spares the runtime from rescaling between
// stages.
type ScalePolicy int

const (
	PerSection ScalePolicy = iota
	Global
)

func (p ScalePolicy) String() string {
	if p == Global {
		return "global"
	}
	return "per-section"
}

// Section holds one quantized biquad. Integer values are stored in
// int32 regardless of width; for Q15 they occupy the low 16 bits. The
// real-valued coefficient is integer * 2^-Exponent.
type Section struct {
	B0, B1, B2 int32
	A1, A2     int32
	Exponent   int
}

// Set is a quantized cascade bound to a structural form and width.
type Set struct {
	Width      Width
	Policy     ScalePolicy
	Form       realize.Form
	Sections   []Section
	SampleRate float64
}

// NumSections returns the number of quantized sections.
func (s *Set) NumSections() int { return len(s.Sections) }

// Dequantize recovers the floating-point coefficients the integers
// represent. The result carries the quantization error of the set; it is
// meant for verification, not for redesign.
func (s *Set) Dequantize() []biquad.Coefficients {
	out := make([]biquad.Coefficients, len(s.Sections))
	for i, q := range s.Sections {
		inv := math.Ldexp(1, -q.Exponent)
		out[i] = biquad.Coefficients{
			B0: float64(q.B0) * inv,
			B1: float64(q.B1) * inv,
			B2: float64(q.B2) * inv,
			A1: float64(q.A1) * inv,
			A2: float64(q.A2) * inv,
		}
	}
	return out
}

type config struct {
	policy ScalePolicy
}

// Option configures the quantizer.
type Option func(*config)

// WithGlobalScale makes every section share the smallest per-section
// exponent instead of carrying its own.
func WithGlobalScale() Option {
	return func(cfg *config) { cfg.policy = Global }
}

// Quantize maps a realization's coefficients to width-bit integers.
// Each section gets the largest scale exponent that keeps all five
// coefficients within the signed range with one guard bit of headroom;
// rounding is to nearest with ties away from zero.
func Quantize(r *realize.Realization, width Width, opts ...Option) (*Set, error) {
	if !width.valid() {
		return nil, fmt.Errorf("fixedpoint: unsupported width %d", int(width))
	}

	cfg := config{policy: PerSection}
	for _, o := range opts {
		o(&cfg)
	}

	exponents := make([]int, len(r.Sections))
	for i := range r.Sections {
		e, err := chooseExponent(&r.Sections[i], width)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		exponents[i] = e
	}

	if cfg.policy == Global {
		min := exponents[0]
		for _, e := range exponents[1:] {
			if e < min {
				min = e
			}
		}
		for i := range exponents {
			exponents[i] = min
		}
	}

	set := &Set{
		Width:      width,
		Policy:     cfg.policy,
		Form:       r.Form,
		Sections:   make([]Section, len(r.Sections)),
		SampleRate: r.SampleRate,
	}
	for i := range r.Sections {
		set.Sections[i] = quantizeSection(&r.Sections[i], exponents[i])
	}

	return set, nil
}

// chooseExponent returns the largest exponent in [0, width-2] for which
// every coefficient fits within half the signed range (the guard bit).
// When not even exponent 0 leaves headroom, the full range is accepted
// at exponent 0 before giving up.
func chooseExponent(s *biquad.Coefficients, width Width) (int, error) {
	maxAbs := 0.0
	for _, v := range [5]float64{s.B0, s.B1, s.B2, s.A1, s.A2} {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}

	guard := float64(int64(1)<<(int(width)-2) - 1)
	for e := int(width) - 2; e >= 0; e-- {
		if math.Round(maxAbs*math.Ldexp(1, e)) <= guard {
			return e, nil
		}
	}

	full := float64(int64(1)<<(int(width)-1) - 1)
	if math.Round(maxAbs) <= full {
		return 0, nil
	}

	return 0, fmt.Errorf("%w: |%g| at exponent 0 in %s", ErrQuantizationOverflow, maxAbs, width)
}

func quantizeSection(s *biquad.Coefficients, exponent int) Section {
	scale := math.Ldexp(1, exponent)

	return Section{
		B0:       int32(math.Round(s.B0 * scale)),
		B1:       int32(math.Round(s.B1 * scale)),
		B2:       int32(math.Round(s.B2 * scale)),
		A1:       int32(math.Round(s.A1 * scale)),
		A2:       int32(math.Round(s.A2 * scale)),
		Exponent: exponent,
	}
}
