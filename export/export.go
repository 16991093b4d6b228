// Package export serializes designed cascades into consumer-facing
// artifacts: a CMSIS-style C header, CSV, MATLAB and JSON documents, and
// a plain-text listing. Every writer applies the stability gate first:
// an unstable cascade is never serialized, a marginal one is annotated
// with a warning.
//
// The exported coefficient array follows the CMSIS cascade update
// convention b0, b1, b2, -a1, -a2: denominator coefficients are negated
// relative to the internal sign convention, so the consumer's update
// equation accumulates instead of subtracting.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cwbudde/algo-iir/spec"
	"github.com/cwbudde/algo-iir/stability"
)

// ErrUnstableCascade reports a refusal to export: the stability report
// classified the cascade unstable. The message names the offending
// sections and their pole locations.
var ErrUnstableCascade = errors.New("export: cascade is unstable")

// Metadata travels with every artifact for traceability. CreatedAt
// defaults to the current time when zero.
type Metadata struct {
	// Name seeds the generated identifiers and include guard. Empty
	// means "iir_filter".
	Name      string
	CreatedAt time.Time
	Request   spec.Filter
}

func (m *Metadata) name() string {
	if m.Name == "" {
		return "iir_filter"
	}
	return sanitizeIdentifier(m.Name)
}

func (m *Metadata) createdAt() time.Time {
	if m.CreatedAt.IsZero() {
		return time.Now()
	}
	return m.CreatedAt
}

// gate enforces the export policy on a stability report. Unstable
// cascades produce ErrUnstableCascade with the offending sections;
// marginal cascades pass and are annotated by the caller.
func gate(rep *stability.Report) error {
	if rep.Verdict != stability.Unstable {
		return nil
	}

	var b strings.Builder
	for _, s := range rep.Sections {
		if s.Verdict != stability.Unstable {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "section %d poles %v", s.Index, s.Poles)
	}

	return fmt.Errorf("%w: %s", ErrUnstableCascade, b.String())
}

// sanitizeIdentifier maps an arbitrary name onto a valid C identifier.
func sanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "iir_filter"
	}
	return b.String()
}

func describeRequest(f *spec.Filter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s, order %d", f.Family, f.Band, f.Order)

	switch len(f.Cutoffs) {
	case 1:
		fmt.Fprintf(&b, ", cutoff %g Hz", f.Cutoffs[0])
	case 2:
		fmt.Fprintf(&b, ", band [%g, %g] Hz", f.Cutoffs[0], f.Cutoffs[1])
	}

	fmt.Fprintf(&b, ", fs %g Hz", f.SampleRate)

	if f.Family.NeedsRipple() {
		fmt.Fprintf(&b, ", ripple %g dB", f.RippleDB)
	}
	if f.Family.NeedsAttenuation() {
		fmt.Fprintf(&b, ", attenuation %g dB", f.AttenuationDB)
	}

	return b.String()
}
