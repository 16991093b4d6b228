// Package design turns a validated filter specification into a cascade of
// second-order sections: analog prototype, band transformation, bilinear
// discretization with frequency prewarping, and factorization into
// biquads ordered for numerical conditioning.
//
// All internal computation runs in double precision regardless of the
// eventual export width; deliberate precision loss happens only in the
// fixedpoint package.
package design

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-iir/biquad"
	"github.com/cwbudde/algo-iir/spec"
)

// ErrDesignDivergence reports that the prototype computation produced
// non-finite or ill-conditioned coefficients. It indicates an infeasible
// specification (for example an excessive order for the requested band
// ratio) and is never retried.
var ErrDesignDivergence = errors.New("design: prototype computation diverged")

// Cascade is an ordered sequence of second-order sections produced from
// one validated specification. It is immutable once returned: downstream
// stages derive new values and never mutate a cascade in place.
type Cascade struct {
	Sections   []biquad.Coefficients
	SampleRate float64
	Request    spec.Filter
}

// NumSections returns the number of biquad sections.
func (c *Cascade) NumSections() int { return len(c.Sections) }

// Order returns the realized filter order: the sum of all section orders.
func (c *Cascade) Order() int {
	n := 0
	for i := range c.Sections {
		n += c.Sections[i].Order()
	}
	return n
}

// Chain builds a runnable biquad chain over the cascade's sections.
func (c *Cascade) Chain() *biquad.Chain {
	return biquad.NewChain(c.Sections)
}

// SectionLess compares two sections for cascade ordering.
type SectionLess func(a, b biquad.Coefficients) bool

// ByAscendingPoleMagnitude is the default ordering policy: sections whose
// poles sit closest to the unit circle process last, minimizing
// intermediate signal growth through the cascade.
func ByAscendingPoleMagnitude(a, b biquad.Coefficients) bool {
	return a.MaxPoleMagnitude() < b.MaxPoleMagnitude()
}

type config struct {
	less SectionLess
}

// Option configures the design engine.
type Option func(*config)

// WithSectionOrdering replaces the default pole-magnitude section
// ordering with a custom comparator, e.g. for dynamic-range pairing.
func WithSectionOrdering(less SectionLess) Option {
	return func(cfg *config) { cfg.less = less }
}

// prototypes maps each family to its analog lowpass prototype builder.
// Dispatch is a plain function table; families share the signature
// "order plus the request's ripple parameters in".
var prototypes = map[spec.Family]func(n int, f *spec.Filter) (zpk, bool){
	spec.Butterworth: func(n int, _ *spec.Filter) (zpk, bool) {
		return butterworthProto(n)
	},
	spec.Chebyshev1: func(n int, f *spec.Filter) (zpk, bool) {
		return chebyshev1Proto(n, f.RippleDB)
	},
	spec.Chebyshev2: func(n int, f *spec.Filter) (zpk, bool) {
		return chebyshev2Proto(n, f.AttenuationDB)
	},
	spec.Elliptic: func(n int, f *spec.Filter) (zpk, bool) {
		return ellipticProto(n, f.RippleDB, f.AttenuationDB)
	},
	spec.Bessel: func(n int, _ *spec.Filter) (zpk, bool) {
		return besselProto(n)
	},
}

// Design computes the section cascade for a validated specification.
// Callers must run spec.Filter.Validate first; Design assumes its input
// ranges are sane and reports only numerical failures.
func Design(f spec.Filter, opts ...Option) (*Cascade, error) {
	cfg := config{less: ByAscendingPoleMagnitude}
	for _, o := range opts {
		o(&cfg)
	}

	proto, ok := prototypes[f.Family]
	if !ok {
		return nil, fmt.Errorf("%w: unknown design family %v", ErrDesignDivergence, f.Family)
	}

	n := f.Order
	if f.Band == spec.Bandpass || f.Band == spec.Bandstop {
		n = f.Order / 2
	}

	analog, ok := proto(n, &f)
	if !ok {
		return nil, fmt.Errorf("%w: %s prototype of order %d not representable",
			ErrDesignDivergence, f.Family, n)
	}

	shaped, ok := applyBandTransform(analog, &f)
	if !ok {
		return nil, fmt.Errorf("%w: %s band transform failed", ErrDesignDivergence, f.Band)
	}

	digital, ok := bilinear(shaped)
	if !ok {
		return nil, fmt.Errorf("%w: bilinear transform degenerated", ErrDesignDivergence)
	}

	sections, gain, ok := sectionsFromZPK(digital)
	if !ok {
		return nil, fmt.Errorf("%w: could not factor into second-order sections",
			ErrDesignDivergence)
	}

	sortSectionsStable(sections, cfg.less)

	sections[0].B0 *= gain
	sections[0].B1 *= gain
	sections[0].B2 *= gain

	if err := checkFinite(sections); err != nil {
		return nil, err
	}

	return &Cascade{
		Sections:   sections,
		SampleRate: f.SampleRate,
		Request:    cloneRequest(f),
	}, nil
}

// applyBandTransform reshapes the unit-cutoff prototype onto the
// requested band, with cutoffs prewarped for the bilinear transform.
func applyBandTransform(h zpk, f *spec.Filter) (zpk, bool) {
	warp := func(freq float64) float64 {
		return math.Tan(math.Pi * freq / f.SampleRate)
	}

	switch f.Band {
	case spec.Lowpass:
		return lp2lp(h, warp(f.Cutoffs[0])), true
	case spec.Highpass:
		return lp2hp(h, warp(f.Cutoffs[0])), true
	case spec.Bandpass:
		w1, w2 := warp(f.Cutoffs[0]), warp(f.Cutoffs[1])
		return lp2bp(h, math.Sqrt(w1*w2), w2-w1), true
	case spec.Bandstop:
		w1, w2 := warp(f.Cutoffs[0]), warp(f.Cutoffs[1])
		return lp2bs(h, math.Sqrt(w1*w2), w2-w1), true
	default:
		return zpk{}, false
	}
}

// sortSectionsStable is an insertion sort: cascades hold at most ~10
// sections and stability keeps equal-magnitude sections in factor order.
func sortSectionsStable(s []biquad.Coefficients, less SectionLess) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func checkFinite(sections []biquad.Coefficients) error {
	for i, s := range sections {
		for _, v := range [5]float64{s.B0, s.B1, s.B2, s.A1, s.A2} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite coefficient in section %d",
					ErrDesignDivergence, i)
			}
		}
	}
	return nil
}

func cloneRequest(f spec.Filter) spec.Filter {
	f.Cutoffs = append([]float64(nil), f.Cutoffs...)
	return f
}
