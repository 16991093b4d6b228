package biquad

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-iir/internal/testutil"
)

func testCoefficients() Coefficients {
	// A mildly resonant lowpass-ish section with poles well inside the
	// unit circle.
	return Coefficients{B0: 0.2, B1: 0.4, B2: 0.2, A1: -0.6, A2: 0.25}
}

// directFormI is the reference implementation: explicit input/output
// history, no shared state trickery.
func directFormI(c Coefficients, in []float64) []float64 {
	out := make([]float64, len(in))
	var x1, x2, y1, y2 float64
	for i, x := range in {
		y := c.B0*x + c.B1*x1 + c.B2*x2 - c.A1*y1 - c.A2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

func TestProcessSampleMatchesDirectFormI(t *testing.T) {
	c := testCoefficients()
	in := testutil.DeterministicSine(440, 48000, 0.8, 256)
	want := directFormI(c, in)

	s := NewSection(c)
	got := make([]float64, len(in))
	for i, x := range in {
		got[i] = s.ProcessSample(x)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestProcessBlockMatchesPerSample(t *testing.T) {
	c := testCoefficients()
	in := testutil.DeterministicSine(1000, 44100, 1.0, 128)

	s1 := NewSection(c)
	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = s1.ProcessSample(x)
	}

	s2 := NewSection(c)
	got := append([]float64(nil), in...)
	s2.ProcessBlock(got)

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestResetClearsState(t *testing.T) {
	s := NewSection(testCoefficients())
	s.ProcessSample(1)
	s.ProcessSample(-1)
	s.Reset()

	if st := s.State(); st[0] != 0 || st[1] != 0 {
		t.Fatalf("state after Reset = %v, want zeros", st)
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := NewSection(testCoefficients())
	for _, x := range testutil.DeterministicSine(100, 8000, 1, 32) {
		s.ProcessSample(x)
	}

	saved := s.State()
	a := s.ProcessSample(0.5)

	s.SetState(saved)
	b := s.ProcessSample(0.5)

	if a != b {
		t.Fatalf("restored state diverged: %v vs %v", a, b)
	}
}

func TestChainGain(t *testing.T) {
	coeffs := []Coefficients{testCoefficients()}
	plain := NewChain(coeffs)
	scaled := NewChain(coeffs, WithGain(2))

	in := testutil.Impulse(16, 0)
	for _, x := range in {
		a := plain.ProcessSample(x)
		b := scaled.ProcessSample(x)
		testutil.RequireNearlyEqual(t, b, 2*a, 1e-15, "gain scaling")
	}

	if scaled.Gain() != 2 {
		t.Fatalf("Gain() = %v, want 2", scaled.Gain())
	}
}

func TestChainOrder(t *testing.T) {
	chain := NewChain([]Coefficients{
		{B0: 1, B1: 0.5, A1: -0.3},             // first order
		{B0: 1, B1: 1, B2: 1, A1: -1, A2: 0.5}, // second order
	})

	if got := chain.Order(); got != 3 {
		t.Fatalf("Order() = %d, want 3", got)
	}
	if got := chain.NumSections(); got != 2 {
		t.Fatalf("NumSections() = %d, want 2", got)
	}
}

func TestMagnitudeSquaredMatchesResponse(t *testing.T) {
	c := testCoefficients()
	for _, f := range []float64{0, 100, 1000, 5000, 22049} {
		want := math.Pow(cmplx.Abs(c.Response(f, 44100)), 2)
		got := c.MagnitudeSquared(f, 44100)
		testutil.RequireRelativelyEqual(t, got, want, 1e-10, "magnitude squared")
	}
}

func TestMaxPoleMagnitude(t *testing.T) {
	// Conjugate poles at radius 0.9, angle pi/3:
	// a1 = -2 r cos(theta), a2 = r^2.
	r, theta := 0.9, math.Pi/3
	c := Coefficients{B0: 1, A1: -2 * r * math.Cos(theta), A2: r * r}

	testutil.RequireNearlyEqual(t, c.MaxPoleMagnitude(), r, 1e-12, "pole radius")
}

func TestPolesFirstOrder(t *testing.T) {
	c := Coefficients{B0: 1, A1: -0.5}
	p := c.Poles()

	found := false
	for _, pole := range p {
		if cmplx.Abs(pole-complex(0.5, 0)) < 1e-12 {
			found = true
		}
	}
	if !found {
		t.Fatalf("poles %v do not contain 0.5", p)
	}
	if !c.IsFirstOrder() || c.Order() != 1 {
		t.Fatal("section should be first order")
	}
}

func TestImpulseResponsePreservesState(t *testing.T) {
	chain := NewChain([]Coefficients{testCoefficients()}, WithGain(0.5))
	chain.ProcessSample(1)
	before := chain.Section(0).State()

	ir := chain.ImpulseResponse(64)
	testutil.RequireFinite(t, ir)
	testutil.RequireNearlyEqual(t, ir[0], 0.5*0.2, 1e-15, "first impulse sample")

	if after := chain.Section(0).State(); after != before {
		t.Fatalf("ImpulseResponse mutated chain state: %v vs %v", after, before)
	}
}

func TestImpulseResponseDecaysForStableSection(t *testing.T) {
	chain := NewChain([]Coefficients{testCoefficients()})
	ir := chain.ImpulseResponse(512)

	tail := 0.0
	for _, v := range ir[256:] {
		tail += math.Abs(v)
	}
	if tail > 1e-9 {
		t.Fatalf("impulse response tail did not decay: sum |tail| = %g", tail)
	}
}
