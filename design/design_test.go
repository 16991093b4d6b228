package design

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-iir/biquad"
	"github.com/cwbudde/algo-iir/internal/testutil"
	"github.com/cwbudde/algo-iir/spec"
)

func mustDesign(t *testing.T, f spec.Filter, opts ...Option) *Cascade {
	t.Helper()
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	c, err := Design(f, opts...)
	if err != nil {
		t.Fatalf("Design() = %v", err)
	}
	return c
}

func butterworthLowpass4() spec.Filter {
	return spec.Filter{
		Band:       spec.Lowpass,
		Family:     spec.Butterworth,
		Order:      4,
		Cutoffs:    []float64{1000},
		SampleRate: 44100,
	}
}

func TestButterworthLowpassOrder4(t *testing.T) {
	c := mustDesign(t, butterworthLowpass4())

	if got := c.NumSections(); got != 2 {
		t.Fatalf("NumSections() = %d, want 2", got)
	}
	if got := c.Order(); got != 4 {
		t.Fatalf("Order() = %d, want 4", got)
	}

	for i, s := range c.Sections {
		if m := s.MaxPoleMagnitude(); m >= 1-1e-6 {
			t.Fatalf("section %d pole magnitude %v not strictly stable", i, m)
		}
	}

	chain := c.Chain()
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(0, 44100), 0, 1e-9, "dc gain")

	// The bilinear transform maps the analog -3 dB point exactly onto
	// the prewarped cutoff.
	want := -10 * math.Log10(2)
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(1000, 44100), want, 1e-9, "cutoff gain")
}

func TestEllipticBandpassOrder8(t *testing.T) {
	f := spec.Filter{
		Band:          spec.Bandpass,
		Family:        spec.Elliptic,
		Order:         8,
		Cutoffs:       []float64{100, 1000},
		SampleRate:    48000,
		RippleDB:      0.5,
		AttenuationDB: 60,
	}
	c := mustDesign(t, f)

	if got := c.NumSections(); got != 4 {
		t.Fatalf("NumSections() = %d, want 4", got)
	}

	for i, s := range c.Sections {
		if m := s.MaxPoleMagnitude(); m >= 1 {
			t.Fatalf("section %d pole magnitude %v >= 1", i, m)
		}
	}

	// The band transform pins the prototype passband edges onto the
	// requested cutoffs, where an even-order elliptic sits at -ripple.
	chain := c.Chain()
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(100, 48000), -0.5, 1e-3, "lower edge")
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(1000, 48000), -0.5, 1e-3, "upper edge")

	// Deep in the stopband the attenuation floor must hold.
	if g := chain.MagnitudeDB(10, 48000); g > -59.9 {
		t.Fatalf("gain at 10 Hz = %v dB, want <= -59.9", g)
	}
	if g := chain.MagnitudeDB(10000, 48000); g > -59.9 {
		t.Fatalf("gain at 10 kHz = %v dB, want <= -59.9", g)
	}
}

func TestOrderPreservedAcrossFamilies(t *testing.T) {
	families := []struct {
		name string
		f    spec.Family
	}{
		{"butterworth", spec.Butterworth},
		{"chebyshev1", spec.Chebyshev1},
		{"chebyshev2", spec.Chebyshev2},
		{"elliptic", spec.Elliptic},
		{"bessel", spec.Bessel},
	}

	for _, fam := range families {
		for order := 1; order <= 8; order++ {
			f := spec.Filter{
				Band:          spec.Lowpass,
				Family:        fam.f,
				Order:         order,
				Cutoffs:       []float64{2000},
				SampleRate:    48000,
				RippleDB:      0.5,
				AttenuationDB: 50,
			}
			c := mustDesign(t, f)

			if got := c.Order(); got != order {
				t.Fatalf("%s order %d: Order() = %d", fam.name, order, got)
			}
			if want := (order + 1) / 2; c.NumSections() != want {
				t.Fatalf("%s order %d: NumSections() = %d, want %d",
					fam.name, order, c.NumSections(), want)
			}
		}
	}
}

func TestHighpassNyquistGain(t *testing.T) {
	f := spec.Filter{
		Band:       spec.Highpass,
		Family:     spec.Butterworth,
		Order:      5,
		Cutoffs:    []float64{3000},
		SampleRate: 48000,
	}
	c := mustDesign(t, f)

	if got := c.NumSections(); got != 3 {
		t.Fatalf("NumSections() = %d, want 3", got)
	}

	chain := c.Chain()
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(24000, 48000), 0, 1e-9, "nyquist gain")

	// DC must be heavily attenuated: z = 1 carries five transmission
	// zeros.
	if g := chain.MagnitudeDB(1, 48000); g > -100 {
		t.Fatalf("gain at 1 Hz = %v dB, want deep rejection", g)
	}
}

func TestBandstopNotch(t *testing.T) {
	f := spec.Filter{
		Band:       spec.Bandstop,
		Family:     spec.Butterworth,
		Order:      4,
		Cutoffs:    []float64{1000, 2000},
		SampleRate: 44100,
	}
	c := mustDesign(t, f)

	if got := c.NumSections(); got != 2 {
		t.Fatalf("NumSections() = %d, want 2", got)
	}

	chain := c.Chain()
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(0, 44100), 0, 1e-9, "dc gain")
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(22049, 44100), 0, 1e-3, "near-nyquist gain")

	// The notch center lies at the geometric mean in the warped domain.
	w1 := math.Tan(math.Pi * 1000 / 44100)
	w2 := math.Tan(math.Pi * 2000 / 44100)
	center := math.Atan(math.Sqrt(w1*w2)) * 44100 / math.Pi
	if g := chain.MagnitudeDB(center, 44100); g > -60 {
		t.Fatalf("gain at notch center %v Hz = %v dB, want <= -60", center, g)
	}
}

func TestChebyshev1EvenOrderDCGain(t *testing.T) {
	f := spec.Filter{
		Band:       spec.Lowpass,
		Family:     spec.Chebyshev1,
		Order:      4,
		Cutoffs:    []float64{1000},
		SampleRate: 44100,
		RippleDB:   1,
	}
	c := mustDesign(t, f)

	// Even-order Chebyshev I responses start at the bottom of the
	// passband ripple.
	testutil.RequireNearlyEqual(t, c.Chain().MagnitudeDB(0, 44100), -1, 1e-6, "dc gain")
}

func TestChebyshev2UnityDCGain(t *testing.T) {
	f := spec.Filter{
		Band:          spec.Lowpass,
		Family:        spec.Chebyshev2,
		Order:         5,
		Cutoffs:       []float64{4000},
		SampleRate:    48000,
		AttenuationDB: 60,
	}
	c := mustDesign(t, f)

	chain := c.Chain()
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(0, 48000), 0, 1e-9, "dc gain")

	// At the stopband edge the attenuation spec is met exactly.
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(4000, 48000), -60, 1e-6, "edge attenuation")
}

func TestSectionOrdering(t *testing.T) {
	f := spec.Filter{
		Band:       spec.Lowpass,
		Family:     spec.Chebyshev1,
		Order:      6,
		Cutoffs:    []float64{500},
		SampleRate: 48000,
		RippleDB:   0.5,
	}
	c := mustDesign(t, f)

	for i := 1; i < len(c.Sections); i++ {
		prev := c.Sections[i-1].MaxPoleMagnitude()
		cur := c.Sections[i].MaxPoleMagnitude()
		if cur < prev {
			t.Fatalf("sections not in ascending pole order: %v before %v", prev, cur)
		}
	}

	reversed := mustDesign(t, f, WithSectionOrdering(func(a, b biquad.Coefficients) bool {
		return a.MaxPoleMagnitude() > b.MaxPoleMagnitude()
	}))
	for i := 1; i < len(reversed.Sections); i++ {
		prev := reversed.Sections[i-1].MaxPoleMagnitude()
		cur := reversed.Sections[i].MaxPoleMagnitude()
		if cur > prev {
			t.Fatalf("custom comparator ignored: %v before %v", prev, cur)
		}
	}
}

func TestBesselOrderLimit(t *testing.T) {
	f := spec.Filter{
		Band:       spec.Lowpass,
		Family:     spec.Bessel,
		Order:      11,
		Cutoffs:    []float64{1000},
		SampleRate: 44100,
	}
	if err := f.Validate(); !errors.Is(err, spec.ErrInvalidSpecification) {
		t.Fatalf("Validate() = %v, want ErrInvalidSpecification", err)
	}

	// Unvalidated input still fails safely inside the engine.
	if _, err := Design(f); !errors.Is(err, ErrDesignDivergence) {
		t.Fatalf("Design() = %v, want ErrDesignDivergence", err)
	}
}

func TestBesselMonotoneLowpass(t *testing.T) {
	f := spec.Filter{
		Band:       spec.Lowpass,
		Family:     spec.Bessel,
		Order:      6,
		Cutoffs:    []float64{2000},
		SampleRate: 48000,
	}
	c := mustDesign(t, f)
	chain := c.Chain()

	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(0, 48000), 0, 1e-9, "dc gain")
	testutil.RequireNearlyEqual(t, chain.MagnitudeDB(2000, 48000), -10*math.Log10(2), 0.1, "cutoff gain")

	prev := math.Inf(1)
	for freq := 100.0; freq <= 20000; freq += 100 {
		g := chain.MagnitudeDB(freq, 48000)
		if g > prev+1e-9 {
			t.Fatalf("bessel magnitude not monotone at %v Hz: %v > %v", freq, g, prev)
		}
		prev = g
	}
}

func TestRequestIsCopied(t *testing.T) {
	f := butterworthLowpass4()
	c := mustDesign(t, f)

	f.Cutoffs[0] = 9999
	if c.Request.Cutoffs[0] != 1000 {
		t.Fatalf("cascade request aliases caller slice: %v", c.Request.Cutoffs)
	}
}
