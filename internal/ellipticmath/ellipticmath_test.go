package ellipticmath

import (
	"math"
	"math/cmplx"
	"testing"
)

const tol = 2.2e-16

func TestEllipKLimits(t *testing.T) {
	K, Kp := EllipK(0, tol)
	if math.Abs(K-math.Pi/2) > 1e-15 {
		t.Fatalf("K(0) = %v, want pi/2", K)
	}
	if !math.IsInf(Kp, 1) {
		t.Fatalf("K'(0) = %v, want +Inf", Kp)
	}

	K, Kp = EllipK(1, tol)
	if !math.IsInf(K, 1) {
		t.Fatalf("K(1) = %v, want +Inf", K)
	}
	if math.Abs(Kp-math.Pi/2) > 1e-15 {
		t.Fatalf("K'(1) = %v, want pi/2", Kp)
	}
}

func TestEllipKSymmetricPoint(t *testing.T) {
	// At k = 1/sqrt(2) the integral equals its complement:
	// K = K' = Gamma(1/4)^2 / (4 sqrt(pi)).
	const want = 1.854074677301372

	K, Kp := EllipK(1/math.Sqrt2, tol)
	if math.Abs(K-want) > 1e-12 {
		t.Fatalf("K(1/sqrt2) = %v, want %v", K, want)
	}
	if math.Abs(K-Kp) > 1e-12 {
		t.Fatalf("K = %v, K' = %v, want equal", K, Kp)
	}
}

func TestLandenDescends(t *testing.T) {
	v := Landen(0.9, tol)
	if len(v) == 0 {
		t.Fatal("empty Landen sequence for k = 0.9")
	}
	prev := 0.9
	for i, x := range v {
		if x >= prev {
			t.Fatalf("sequence not descending at %d: %v >= %v", i, x, prev)
		}
		prev = x
	}
}

func TestSNEQuarterPeriod(t *testing.T) {
	w := SNE([]float64{0, 1}, 0.5, tol)
	if math.Abs(w[0]) > 1e-15 {
		t.Fatalf("sn(0) = %v, want 0", w[0])
	}
	if math.Abs(w[1]-1) > 1e-12 {
		t.Fatalf("sn(K) = %v, want 1", w[1])
	}
}

func TestSNEReducesToSine(t *testing.T) {
	// At k = 0 the Jacobi sn degenerates to the circular sine.
	u := []float64{0.1, 0.25, 0.5, 0.75}
	w := SNE(u, 0, tol)
	for i := range u {
		want := math.Sin(u[i] * math.Pi / 2)
		if math.Abs(w[i]-want) > 1e-14 {
			t.Fatalf("sn(%v; 0) = %v, want %v", u[i], w[i], want)
		}
	}
}

func TestCDEQuarterPeriod(t *testing.T) {
	if got := CDE(0, 0.5, tol); cmplx.Abs(got-1) > 1e-14 {
		t.Fatalf("cd(0) = %v, want 1", got)
	}
	if got := CDE(1, 0.5, tol); cmplx.Abs(got) > 1e-12 {
		t.Fatalf("cd(K) = %v, want 0", got)
	}
}
