package design

import (
	"math"
	"math/cmplx"
)

// Analog lowpass prototypes, all normalized to a passband edge of
// 1 rad/s. Each returns the factored transfer function and reports
// whether the parameters were representable.

// butterworthProto places n poles equally spaced on the left half of the
// unit circle, giving the maximally flat magnitude response.
func butterworthProto(n int) (zpk, bool) {
	if n < 1 {
		return zpk{}, false
	}

	p := make([]complex128, n)
	for i := range n {
		theta := math.Pi * float64(2*i+1+n) / (2 * float64(n))
		p[i] = cmplx.Exp(complex(0, theta))
	}

	return zpk{p: p, k: 1}, true
}

// chebyshev1Proto builds the Chebyshev Type I prototype: equiripple in
// the passband with rippleDB of ripple, monotone in the stopband.
func chebyshev1Proto(n int, rippleDB float64) (zpk, bool) {
	if n < 1 || rippleDB <= 0 {
		return zpk{}, false
	}

	eps := math.Sqrt(math.Expm1(math.Ln10 * rippleDB / 10))
	if eps <= 0 || math.IsNaN(eps) {
		return zpk{}, false
	}
	mu := math.Asinh(1/eps) / float64(n)

	p := make([]complex128, n)
	for i := range n {
		theta := math.Pi * float64(2*i+1) / (2 * float64(n))
		p[i] = complex(-math.Sinh(mu)*math.Sin(theta), math.Cosh(mu)*math.Cos(theta))
	}

	k := real(prodNeg(p))
	if n%2 == 0 {
		k /= math.Sqrt(1 + eps*eps)
	}

	return zpk{p: p, k: k}, true
}

// chebyshev2Proto builds the Chebyshev Type II (inverse Chebyshev)
// prototype: maximally flat passband, equiripple stopband attenuated by
// at least attenuationDB. Zeros sit on the imaginary axis.
func chebyshev2Proto(n int, attenuationDB float64) (zpk, bool) {
	if n < 1 || attenuationDB <= 0 {
		return zpk{}, false
	}

	eps := 1 / math.Sqrt(math.Expm1(math.Ln10*attenuationDB/10))
	if eps <= 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return zpk{}, false
	}
	mu := math.Asinh(1/eps) / float64(n)

	z := make([]complex128, 0, n)
	p := make([]complex128, 0, n)
	for i := range n {
		theta := math.Pi * float64(2*i+1) / (2 * float64(n))

		// The middle angle of an odd order has cos(theta) = 0: that
		// zero moves to infinity and is omitted.
		if c := math.Cos(theta); math.Abs(c) > 1e-12 {
			z = append(z, complex(0, -1/c))
		}

		pole := complex(-math.Sinh(mu)*math.Sin(theta), math.Cosh(mu)*math.Cos(theta))
		p = append(p, 1/pole)
	}

	k := real(prodNeg(p) / prodNeg(z))
	if k == 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return zpk{}, false
	}

	return zpk{z: z, p: p, k: k}, true
}

// besselProto builds the Bessel (Thomson) prototype from tabulated
// -3 dB normalized poles, giving maximally flat group delay. Orders 1
// through maxBesselOrder are supported.
func besselProto(n int) (zpk, bool) {
	if n < 1 || n > maxBesselOrder {
		return zpk{}, false
	}

	scale := besselScaleFactors[n]
	p := make([]complex128, 0, n)
	for _, dp := range besselDelayPoles[n] {
		pole := complex(real(dp)/scale, imag(dp)/scale)
		p = append(p, pole)
		if imag(pole) != 0 {
			p = append(p, cmplx.Conj(pole))
		}
	}

	return zpk{p: p, k: real(prodNeg(p))}, true
}

const maxBesselOrder = 10

// besselDelayPoles contains delay-normalized Bessel filter poles for
// orders 1-10. Only the unique pole from each conjugate pair (positive
// imaginary part) is stored; for odd orders the real pole is listed last.
//
// Source: C.R. Bond, "Bessel Filter Constants", crbond.com/papers/bsf.pdf.
var besselDelayPoles = [maxBesselOrder + 1][]complex128{
	// order 0: unused
	{},
	// order 1
	{complex(-1.0, 0)},
	// order 2
	{complex(-1.5, 0.8660254038)},
	// order 3
	{complex(-1.8389073227, 1.7543809598), complex(-2.3221853546, 0)},
	// order 4
	{complex(-2.1037893972, 2.6574180419), complex(-2.8962106028, 0.8672341289)},
	// order 5
	{
		complex(-2.3246743032, 3.5710229203),
		complex(-3.3519563992, 1.7426614162),
		complex(-3.6467385953, 0),
	},
	// order 6
	{
		complex(-2.5159322478, 4.4926729537),
		complex(-3.7357083563, 2.6262723114),
		complex(-4.2483593959, 0.8675096732),
	},
	// order 7
	{
		complex(-2.6856768789, 5.4206941307),
		complex(-4.0701391636, 3.5171740477),
		complex(-4.7582905282, 1.7392860613),
		complex(-4.9717868585, 0),
	},
	// order 8
	{
		complex(-2.8389839177, 6.3539112470),
		complex(-4.3682892668, 4.4144425006),
		complex(-5.2048407906, 2.6161751538),
		complex(-5.5878860022, 0.8676144454),
	},
	// order 9
	{
		complex(-2.9792607983, 7.2914651564),
		complex(-4.6384398714, 5.3172716754),
		complex(-5.6044218195, 3.4981415816),
		complex(-6.1293679040, 1.7378483835),
		complex(-6.2970079817, 0),
	},
	// order 10
	{
		complex(-3.1088931555, 8.2324678728),
		complex(-4.8862195924, 6.2249854825),
		complex(-5.9675283089, 4.3849471924),
		complex(-6.6152909655, 2.6115679208),
		complex(-6.9220449048, 0.8676594792),
	},
}

// besselScaleFactors contains the frequency scaling factors to convert
// from delay-normalized to -3 dB normalized Bessel filters.
//
// Source: C.R. Bond, "Bessel Filter Constants", crbond.com/papers/bsf.pdf.
var besselScaleFactors = [maxBesselOrder + 1]float64{
	0, // order 0: unused
	1.0,
	1.36165412871613,
	1.75567236868121,
	2.11391767490422,
	2.42741070215263,
	2.70339506120292,
	2.95172214703872,
	3.17961723751065,
	3.39169313891166,
	3.59098059456916,
}
