package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cwbudde/algo-iir/realize"
	"github.com/cwbudde/algo-iir/stability"
)

// CSV writes one row per section with the internal sign convention
// (a1, a2 not negated) for spreadsheet-level inspection. Metadata and
// the stability verdict travel as leading comment rows.
func CSV(w io.Writer, r *realize.Realization, rep *stability.Report, meta Metadata) error {
	if err := gate(rep); err != nil {
		return err
	}

	fmt.Fprintf(w, "# %s\n", describeRequest(&meta.Request))
	fmt.Fprintf(w, "# generated %s, form %s, stability: %s\n",
		meta.createdAt().Format(time.RFC3339), r.Form, rep.Verdict)
	if rep.Verdict == stability.Marginal {
		fmt.Fprintf(w, "# warning: cascade is marginally stable\n")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "b0", "b1", "b2", "a1", "a2"}); err != nil {
		return err
	}

	for i, s := range r.Sections {
		row := []string{
			strconv.Itoa(i),
			formatCoeff(s.B0), formatCoeff(s.B1), formatCoeff(s.B2),
			formatCoeff(s.A1), formatCoeff(s.A2),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// MatlabScript writes an sos matrix assignment compatible with
// MATLAB's and Octave's sosfilt/freqz tooling.
func MatlabScript(w io.Writer, r *realize.Realization, rep *stability.Report, meta Metadata) error {
	if err := gate(rep); err != nil {
		return err
	}

	fmt.Fprintf(w, "%% %s\n", describeRequest(&meta.Request))
	fmt.Fprintf(w, "%% generated %s, stability: %s\n",
		meta.createdAt().Format(time.RFC3339), rep.Verdict)
	fmt.Fprintf(w, "%% rows: [b0 b1 b2 a0 a1 a2]\n")
	fmt.Fprintf(w, "sos = [\n")
	for _, s := range r.Sections {
		fmt.Fprintf(w, "    %s %s %s 1.0 %s %s\n",
			formatCoeff(s.B0), formatCoeff(s.B1), formatCoeff(s.B2),
			formatCoeff(s.A1), formatCoeff(s.A2))
	}
	fmt.Fprintf(w, "];\n")
	_, err := fmt.Fprintf(w, "fs = %s;\n", formatCoeff(r.SampleRate))

	return err
}

type jsonSection struct {
	B [3]float64 `json:"b"`
	A [2]float64 `json:"a"`
}

type jsonDocument struct {
	Name        string        `json:"name"`
	Generated   string        `json:"generated"`
	Design      string        `json:"design"`
	Form        string        `json:"form"`
	SampleRate  float64       `json:"sample_rate"`
	Stability   string        `json:"stability"`
	Sensitivity float64       `json:"sensitivity"`
	Sections    []jsonSection `json:"sections"`
}

// JSON writes a self-describing document with the internal sign
// convention, suitable for downstream tooling that post-processes the
// design instead of running it.
func JSON(w io.Writer, r *realize.Realization, rep *stability.Report, meta Metadata) error {
	if err := gate(rep); err != nil {
		return err
	}

	doc := jsonDocument{
		Name:        meta.name(),
		Generated:   meta.createdAt().Format(time.RFC3339),
		Design:      describeRequest(&meta.Request),
		Form:        r.Form.String(),
		SampleRate:  r.SampleRate,
		Stability:   rep.Verdict.String(),
		Sensitivity: rep.Sensitivity,
		Sections:    make([]jsonSection, 0, len(r.Sections)),
	}
	for _, s := range r.Sections {
		doc.Sections = append(doc.Sections, jsonSection{
			B: [3]float64{s.B0, s.B1, s.B2},
			A: [2]float64{s.A1, s.A2},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

// TextListing writes a human-readable per-section coefficient dump for
// eyeball verification.
func TextListing(w io.Writer, r *realize.Realization, rep *stability.Report, meta Metadata) error {
	if err := gate(rep); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", describeRequest(&meta.Request))
	fmt.Fprintf(w, "form %s, %d sections, stability %s\n\n",
		r.Form, len(r.Sections), rep.Verdict)

	for i, s := range r.Sections {
		fmt.Fprintf(w, "section %d:\n", i)
		fmt.Fprintf(w, "  b: %s %s %s\n",
			formatCoeff(s.B0), formatCoeff(s.B1), formatCoeff(s.B2))
		fmt.Fprintf(w, "  a: 1.0 %s %s\n", formatCoeff(s.A1), formatCoeff(s.A2))

		if i < len(rep.Sections) {
			fmt.Fprintf(w, "  max |pole|: %.9f (%s)\n",
				rep.Sections[i].MaxPoleMagnitude, rep.Sections[i].Verdict)
		}
	}

	return nil
}

func formatCoeff(v float64) string {
	return strconv.FormatFloat(v, 'g', 15, 64)
}
