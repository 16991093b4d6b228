package design

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/cwbudde/algo-iir/biquad"
)

const (
	rootRealTol      = 1e-9
	conjugateMaxDist = 1e-4
)

// sectionsFromZPK factors a digital transfer function into second-order
// sections with unit numerator lead. The overall gain is returned
// separately so the caller can place it after ordering the sections.
//
// Pole groups are matched with the nearest zero group so that each
// section's zeros damp its own resonance, keeping per-section dynamic
// range in check.
func sectionsFromZPK(h zpk) ([]biquad.Coefficients, float64, bool) {
	if len(h.p) == 0 || len(h.z) > len(h.p) {
		return nil, 0, false
	}

	pGroups := groupRoots(h.p)
	zGroups := groupRoots(h.z)
	if len(pGroups) == 0 {
		return nil, 0, false
	}

	out := make([]biquad.Coefficients, 0, len(pGroups))
	for _, pg := range pGroups {
		zg := takeNearestGroup(&zGroups, pg)

		b1, b2 := quadFromRoots(zg)
		a1, a2 := quadFromRoots(pg)
		out = append(out, biquad.Coefficients{
			B0: 1, B1: b1, B2: b2,
			A1: a1, A2: a2,
		})
	}

	if len(zGroups) != 0 {
		return nil, 0, false
	}

	return out, h.k, true
}

// takeNearestGroup removes and returns the zero group closest to the
// given pole group, preferring a group of matching size. Returns nil when
// no zero groups remain (the section numerator degenerates to B0).
func takeNearestGroup(groups *[][]complex128, pole []complex128) []complex128 {
	if len(*groups) == 0 {
		return nil
	}

	ref := pole[0]
	best := -1
	bestDist := math.MaxFloat64

	for i, g := range *groups {
		d := cmplx.Abs(g[0] - ref)
		// A size mismatch pairs a real zero with a conjugate pole pair;
		// allow it only when nothing better exists.
		if len(g) != len(pole) {
			d += 16
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	g := (*groups)[best]
	*groups = append((*groups)[:best], (*groups)[best+1:]...)

	return g
}

// groupRoots partitions roots into conjugate pairs and leftover real
// roots (paired among themselves, one singleton for odd counts).
func groupRoots(roots []complex128) [][]complex128 {
	if len(roots) == 0 {
		return nil
	}

	sorted := append([]complex128(nil), roots...)
	sort.Slice(sorted, func(i, j int) bool {
		ii := imag(sorted[i])
		jj := imag(sorted[j])
		if ii != jj {
			return ii > jj
		}

		return real(sorted[i]) < real(sorted[j])
	})

	used := make([]bool, len(sorted))
	groups := make([][]complex128, 0, (len(sorted)+1)/2)
	reals := make([]complex128, 0, len(sorted))

	for i, r := range sorted {
		if used[i] {
			continue
		}

		if math.Abs(imag(r)) <= rootRealTol*math.Max(1, cmplx.Abs(r)) {
			used[i] = true
			reals = append(reals, complex(real(r), 0))

			continue
		}

		target := cmplx.Conj(r)
		best := -1
		bestDist := math.MaxFloat64

		for j, rr := range sorted {
			if i == j || used[j] {
				continue
			}

			d := cmplx.Abs(rr - target)
			if d < bestDist {
				bestDist = d
				best = j
			}
		}

		used[i] = true
		if best != -1 && bestDist <= conjugateMaxDist*math.Max(1, cmplx.Abs(r)) {
			used[best] = true
			groups = append(groups, []complex128{r, sorted[best]})
		} else {
			groups = append(groups, []complex128{r})
		}
	}

	sort.Slice(reals, func(i, j int) bool { return real(reals[i]) < real(reals[j]) })

	for i := 0; i+1 < len(reals); i += 2 {
		groups = append(groups, []complex128{reals[i], reals[i+1]})
	}
	if len(reals)%2 == 1 {
		groups = append(groups, []complex128{reals[len(reals)-1]})
	}

	return groups
}

// quadFromRoots expands a root group into the trailing coefficients of a
// monic quadratic: (c1, c2) of z^2 + c1*z + c2. A single root yields a
// first-order factor (c2 = 0); an empty group yields a constant.
func quadFromRoots(group []complex128) (float64, float64) {
	switch len(group) {
	case 0:
		return 0, 0
	case 1:
		r := group[0]
		return -real(r), 0
	default:
		r1, r2 := group[0], group[1]
		return -real(r1 + r2), real(r1 * r2)
	}
}
