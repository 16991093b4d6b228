package realize

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-iir/design"
	"github.com/cwbudde/algo-iir/spec"
)

func designedCascade(t *testing.T) *design.Cascade {
	t.Helper()
	f := spec.Filter{
		Band:       spec.Lowpass,
		Family:     spec.Butterworth,
		Order:      4,
		Cutoffs:    []float64{1000},
		SampleRate: 44100,
	}
	c, err := design.Design(f)
	if err != nil {
		t.Fatalf("Design() = %v", err)
	}
	return c
}

func TestDefaultFormStateSize(t *testing.T) {
	c := designedCascade(t)

	df2t, err := Convert(c, DirectFormIITransposed)
	if err != nil {
		t.Fatalf("Convert(df2t) = %v", err)
	}
	if got := df2t.StateSize(); got != 4 { // 2 sections x 2
		t.Fatalf("df2t StateSize() = %d, want 4", got)
	}

	df1, err := Convert(c, DirectFormI)
	if err != nil {
		t.Fatalf("Convert(df1) = %v", err)
	}
	if got := df1.StateSize(); got != 8 { // 2 sections x 4
		t.Fatalf("df1 StateSize() = %d, want 8", got)
	}
}

func TestRoundTripPreservesCoefficients(t *testing.T) {
	c := designedCascade(t)

	df2t, err := Convert(c, DirectFormIITransposed)
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}

	df1, err := Reconvert(df2t, DirectFormI)
	if err != nil {
		t.Fatalf("Reconvert(df1) = %v", err)
	}

	back, err := Reconvert(df1, DirectFormIITransposed)
	if err != nil {
		t.Fatalf("Reconvert(df2t) = %v", err)
	}

	for i := range c.Sections {
		orig := c.Sections[i]
		got := back.Sections[i]
		for _, pair := range [][2]float64{
			{got.B0, orig.B0}, {got.B1, orig.B1}, {got.B2, orig.B2},
			{got.A1, orig.A1}, {got.A2, orig.A2},
		} {
			rel := math.Abs(pair[0]-pair[1]) / math.Max(1, math.Abs(pair[1]))
			if rel > 1e-9 {
				t.Fatalf("section %d coefficient drifted: %v vs %v", i, pair[0], pair[1])
			}
		}
	}
}

func TestConvertDoesNotAliasCascade(t *testing.T) {
	c := designedCascade(t)
	r, err := Convert(c, DirectFormI)
	if err != nil {
		t.Fatalf("Convert() = %v", err)
	}

	r.Sections[0].B0 = 42
	if c.Sections[0].B0 == 42 {
		t.Fatal("realization aliases cascade sections")
	}
}

func TestUnknownForm(t *testing.T) {
	c := designedCascade(t)
	if _, err := Convert(c, Form(99)); !errors.Is(err, ErrUnknownForm) {
		t.Fatalf("Convert(99) = %v, want ErrUnknownForm", err)
	}
}

func TestFormStrings(t *testing.T) {
	if DirectFormI.String() != "df1" || DirectFormIITransposed.String() != "df2t" {
		t.Fatal("form stringer mismatch")
	}
	if DirectFormI.StateValuesPerSection() != 4 {
		t.Fatal("df1 needs 4 state values per section")
	}
	if DirectFormIITransposed.StateValuesPerSection() != 2 {
		t.Fatal("df2t needs 2 state values per section")
	}
}
