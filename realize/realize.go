// Package realize re-expresses a designed cascade for a concrete
// structural form. The two supported forms implement the same transfer
// function from the same b0,b1,b2,a1,a2 per section; they differ in
// state-buffer layout and rounding behavior, which matters to the
// consumer of the exported coefficients.
package realize

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-iir/biquad"
	"github.com/cwbudde/algo-iir/design"
)

// ErrUnknownForm reports a structural form outside the supported set.
var ErrUnknownForm = errors.New("realize: unknown structural form")

// Form selects the filter structure the coefficients target.
type Form int

const (
	// DirectFormIITransposed needs two state values per section and has
	// favorable rounding-noise behavior in floating point. It is the
	// default.
	DirectFormIITransposed Form = iota

	// DirectFormI holds the last two inputs and outputs per section
	// (four state values); in fixed point its single accumulation point
	// makes overflow behavior easier to reason about.
	DirectFormI
)

func (f Form) String() string {
	switch f {
	case DirectFormIITransposed:
		return "df2t"
	case DirectFormI:
		return "df1"
	default:
		return "unknown"
	}
}

// StateValuesPerSection returns the state-buffer length one section of
// this form requires.
func (f Form) StateValuesPerSection() int {
	if f == DirectFormI {
		return 4
	}
	return 2
}

// Realization is a cascade bound to a structural form. The coefficient
// values are copies: converting never mutates the source cascade, and a
// round trip through any sequence of forms reproduces the numbers
// exactly.
type Realization struct {
	Form       Form
	Sections   []biquad.Coefficients
	SampleRate float64
}

// NumSections returns the number of biquad sections.
func (r *Realization) NumSections() int { return len(r.Sections) }

// StateSize returns the total state-buffer length a runtime needs for
// this realization.
func (r *Realization) StateSize() int {
	return r.Form.StateValuesPerSection() * len(r.Sections)
}

// Convert lays out the cascade's coefficients for the target form.
// Pole and zero locations are unchanged, so a stability report computed
// on the cascade remains valid for the realization.
func Convert(c *design.Cascade, form Form) (*Realization, error) {
	if form != DirectFormI && form != DirectFormIITransposed {
		return nil, fmt.Errorf("%w: %d", ErrUnknownForm, int(form))
	}

	return &Realization{
		Form:       form,
		Sections:   append([]biquad.Coefficients(nil), c.Sections...),
		SampleRate: c.SampleRate,
	}, nil
}

// Reconvert rebinds an existing realization to another form.
func Reconvert(r *Realization, form Form) (*Realization, error) {
	if form != DirectFormI && form != DirectFormIITransposed {
		return nil, fmt.Errorf("%w: %d", ErrUnknownForm, int(form))
	}

	return &Realization{
		Form:       form,
		Sections:   append([]biquad.Coefficients(nil), r.Sections...),
		SampleRate: r.SampleRate,
	}, nil
}
