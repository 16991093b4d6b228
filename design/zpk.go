package design

import (
	"math"
	"math/cmplx"
)

// zpk is an analog or digital transfer function in factored form: zeros,
// poles and a real overall gain. Prototypes are produced with the passband
// edge normalized to 1 rad/s and reshaped by the lp2* transforms below.
type zpk struct {
	z, p []complex128
	k    float64
}

// degree returns the relative degree (pole excess) of the function.
// It is negative for improper functions, which no prototype produces.
func (h zpk) degree() int {
	return len(h.p) - len(h.z)
}

// lp2lp scales a unit-cutoff lowpass prototype to cutoff wo.
func lp2lp(h zpk, wo float64) zpk {
	z := make([]complex128, len(h.z))
	for i, zr := range h.z {
		z[i] = zr * complex(wo, 0)
	}

	p := make([]complex128, len(h.p))
	for i, pr := range h.p {
		p[i] = pr * complex(wo, 0)
	}

	return zpk{z: z, p: p, k: h.k * math.Pow(wo, float64(h.degree()))}
}

// lp2hp converts a unit-cutoff lowpass prototype to a highpass response
// with cutoff wo via the s -> wo/s substitution.
func lp2hp(h zpk, wo float64) zpk {
	degree := h.degree()

	z := make([]complex128, 0, len(h.z)+degree)
	for _, zr := range h.z {
		z = append(z, complex(wo, 0)/zr)
	}
	for range degree {
		z = append(z, 0)
	}

	p := make([]complex128, len(h.p))
	for i, pr := range h.p {
		p[i] = complex(wo, 0) / pr
	}

	k := h.k * real(prodNeg(h.z)/prodNeg(h.p))

	return zpk{z: z, p: p, k: k}
}

// lp2bp converts a unit-cutoff lowpass prototype to a bandpass response
// centered at wo with bandwidth bw. Every prototype root splits into a
// pair, doubling the order.
func lp2bp(h zpk, wo, bw float64) zpk {
	degree := h.degree()
	half := complex(bw/2, 0)
	wo2 := complex(wo*wo, 0)

	z := make([]complex128, 0, 2*len(h.z)+degree)
	for _, zr := range h.z {
		s := zr * half
		d := cmplx.Sqrt(s*s - wo2)
		z = append(z, s+d, s-d)
	}
	for range degree {
		z = append(z, 0)
	}

	p := make([]complex128, 0, 2*len(h.p))
	for _, pr := range h.p {
		s := pr * half
		d := cmplx.Sqrt(s*s - wo2)
		p = append(p, s+d, s-d)
	}

	return zpk{z: z, p: p, k: h.k * math.Pow(bw, float64(degree))}
}

// lp2bs converts a unit-cutoff lowpass prototype to a bandstop response
// centered at wo with bandwidth bw. Prototype roots are inverted and
// split; the stopband notch contributes zero pairs at +-j*wo.
func lp2bs(h zpk, wo, bw float64) zpk {
	degree := h.degree()
	half := complex(bw/2, 0)
	wo2 := complex(wo*wo, 0)

	z := make([]complex128, 0, 2*len(h.z)+2*degree)
	for _, zr := range h.z {
		s := half / zr
		d := cmplx.Sqrt(s*s - wo2)
		z = append(z, s+d, s-d)
	}
	for range degree {
		z = append(z, complex(0, wo), complex(0, -wo))
	}

	p := make([]complex128, 0, 2*len(h.p))
	for _, pr := range h.p {
		s := half / pr
		d := cmplx.Sqrt(s*s - wo2)
		p = append(p, s+d, s-d)
	}

	k := h.k * real(prodNeg(h.z)/prodNeg(h.p))

	return zpk{z: z, p: p, k: k}
}

// bilinear discretizes an analog function whose frequencies were already
// prewarped with tan(pi*f/fs), using s = (z-1)/(z+1). Excess poles map
// extra zeros to z = -1 (the Nyquist point).
func bilinear(h zpk) (zpk, bool) {
	degree := h.degree()
	if degree < 0 {
		return zpk{}, false
	}

	z := make([]complex128, 0, len(h.z)+degree)
	for _, zr := range h.z {
		den := 1 - zr
		if den == 0 {
			return zpk{}, false
		}
		z = append(z, (1+zr)/den)
	}
	for range degree {
		z = append(z, -1)
	}

	p := make([]complex128, 0, len(h.p))
	for _, pr := range h.p {
		den := 1 - pr
		if den == 0 {
			return zpk{}, false
		}
		p = append(p, (1+pr)/den)
	}

	num := prodOneMinus(h.z)
	den := prodOneMinus(h.p)
	if den == 0 {
		return zpk{}, false
	}

	k := h.k * real(num/den)
	if k == 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return zpk{}, false
	}

	return zpk{z: z, p: p, k: k}, true
}

func prodNeg(v []complex128) complex128 {
	out := complex(1, 0)
	for _, x := range v {
		out *= -x
	}

	return out
}

func prodOneMinus(v []complex128) complex128 {
	out := complex(1, 0)
	for _, x := range v {
		out *= 1 - x
	}

	return out
}
