// Package stability classifies a designed cascade by its pole locations
// and estimates how sensitive each section's poles are to coefficient
// perturbation. The cascade verdict gates export: unstable cascades must
// not be serialized, marginal ones are exported with a warning.
package stability

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-iir/biquad"
	"github.com/cwbudde/algo-iir/design"
)

// Epsilon is the default margin below the unit circle separating stable
// from marginal poles.
const Epsilon = 1e-6

// Verdict classifies a section or cascade by pole placement.
type Verdict int

const (
	Stable Verdict = iota
	Marginal
	Unstable
)

func (v Verdict) String() string {
	switch v {
	case Stable:
		return "stable"
	case Marginal:
		return "marginal"
	case Unstable:
		return "unstable"
	default:
		return "unknown"
	}
}

// worse returns the more severe of two verdicts.
func worse(a, b Verdict) Verdict {
	if b > a {
		return b
	}
	return a
}

// SectionReport holds the pole analysis of a single section.
type SectionReport struct {
	Index            int
	Poles            []complex128
	MaxPoleMagnitude float64
	Verdict          Verdict

	// Sensitivity estimates |dp/da| for the section's dominant pole,
	// amplified by proximity to the unit circle. Near-coincident pole
	// pairs and narrow bands score high, flagging poor fixed-point
	// candidates.
	Sensitivity float64
}

// Report is the stability analysis of a full cascade. The cascade
// verdict is the worst per-section verdict; the sensitivity score is the
// largest per-section sensitivity.
type Report struct {
	Sections    []SectionReport
	Verdict     Verdict
	Sensitivity float64
}

// Analyze computes a stability report for the cascade with the default
// epsilon margin.
func Analyze(c *design.Cascade) *Report {
	return AnalyzeEpsilon(c, Epsilon)
}

// AnalyzeEpsilon computes a stability report with an explicit marginal
// band width. Poles with magnitude >= 1 are unstable, poles within eps
// below 1 are marginal.
func AnalyzeEpsilon(c *design.Cascade, eps float64) *Report {
	rep := &Report{Sections: make([]SectionReport, 0, len(c.Sections))}

	for i := range c.Sections {
		sr := analyzeSection(i, &c.Sections[i], eps)
		rep.Sections = append(rep.Sections, sr)
		rep.Verdict = worse(rep.Verdict, sr.Verdict)

		if sr.Sensitivity > rep.Sensitivity {
			rep.Sensitivity = sr.Sensitivity
		}
	}

	return rep
}

func analyzeSection(index int, s *biquad.Coefficients, eps float64) SectionReport {
	pr := s.Poles()

	var poles []complex128
	if s.Order() == 2 {
		poles = []complex128{pr[0], pr[1]}
	} else {
		// A first-order denominator factors as z*(z + a1): keep the
		// real pole, not the artificial root at the origin.
		p := pr[0]
		if cmplx.Abs(pr[1]) > cmplx.Abs(pr[0]) {
			p = pr[1]
		}
		poles = []complex128{p}
	}

	maxMag := 0.0
	for _, p := range poles {
		if m := cmplx.Abs(p); m > maxMag {
			maxMag = m
		}
	}

	verdict := Stable
	switch {
	case maxMag >= 1:
		verdict = Unstable
	case maxMag >= 1-eps:
		verdict = Marginal
	}

	return SectionReport{
		Index:            index,
		Poles:            poles,
		MaxPoleMagnitude: maxMag,
		Verdict:          verdict,
		Sensitivity:      sectionSensitivity(poles, maxMag),
	}
}

// sectionSensitivity bounds the movement of the dominant pole per unit of
// denominator perturbation. For z^2 + a1*z + a2 with roots p1, p2 the
// closed-form derivatives are dp1/da1 = -p1/(p1-p2) and
// dp1/da2 = -1/(p1-p2), so clustered roots blow the score up; the result
// is further weighted by 1/(1-|p|) so near-circle poles dominate.
func sectionSensitivity(poles []complex128, maxMag float64) float64 {
	proximity := 1.0 / math.Max(1-maxMag, Epsilon)

	if len(poles) < 2 {
		// A first-order section moves its real pole one-for-one with a1.
		return proximity
	}

	sep := cmplx.Abs(poles[0] - poles[1])
	if sep < Epsilon {
		sep = Epsilon
	}

	grad := (cmplx.Abs(poles[0]) + 1) / sep

	return grad * proximity
}
