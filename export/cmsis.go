package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cwbudde/algo-iir/fixedpoint"
	"github.com/cwbudde/algo-iir/realize"
	"github.com/cwbudde/algo-iir/stability"
)

// CMSISHeader writes a float32 coefficient header for the realization.
// The array holds five values per section in cascade update order
// (b0, b1, b2, -a1, -a2), plus named constants for the section count and
// the state-buffer length the structural form requires.
func CMSISHeader(w io.Writer, r *realize.Realization, rep *stability.Report, meta Metadata) error {
	if err := gate(rep); err != nil {
		return err
	}

	name := meta.name()
	if err := writeHeaderPreamble(w, name, "float32", r.Form, rep, &meta); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "#include <arm_math.h>\n\n"); err != nil {
		return err
	}

	fmt.Fprintf(w, "#define %s_NUM_SECTIONS %d\n", strings.ToUpper(name), len(r.Sections))
	fmt.Fprintf(w, "#define %s_STATE_SIZE   %d\n\n", strings.ToUpper(name), r.StateSize())

	fmt.Fprintf(w, "static const float32_t %s_coeffs[%d] = {\n", name, 5*len(r.Sections))
	for i, s := range r.Sections {
		fmt.Fprintf(w, "    /* section %d */\n", i)
		fmt.Fprintf(w, "    %.14ef, %.14ef, %.14ef, %.14ef, %.14ef,\n",
			s.B0, s.B1, s.B2, -s.A1, -s.A2)
	}
	fmt.Fprintf(w, "};\n\n")

	_, err := fmt.Fprintf(w, "#endif /* %s */\n", guardMacro(name))

	return err
}

// CMSISHeaderFixed writes a q15 or q31 coefficient header for a
// quantized set, including the scale exponents the consumer must undo.
func CMSISHeaderFixed(w io.Writer, s *fixedpoint.Set, rep *stability.Report, meta Metadata) error {
	if err := gate(rep); err != nil {
		return err
	}

	ctype := "q15_t"
	include := "#include <arm_math.h>\n\n"
	if s.Width == fixedpoint.Q31 {
		ctype = "q31_t"
	}

	name := meta.name()
	if err := writeHeaderPreamble(w, name, s.Width.String(), s.Form, rep, &meta); err != nil {
		return err
	}
	if _, err := io.WriteString(w, include); err != nil {
		return err
	}

	fmt.Fprintf(w, "#define %s_NUM_SECTIONS %d\n", strings.ToUpper(name), len(s.Sections))
	fmt.Fprintf(w, "#define %s_STATE_SIZE   %d\n\n",
		strings.ToUpper(name), s.Form.StateValuesPerSection()*len(s.Sections))

	fmt.Fprintf(w, "static const %s %s_coeffs[%d] = {\n", ctype, name, 5*len(s.Sections))
	for i, q := range s.Sections {
		fmt.Fprintf(w, "    /* section %d, scale 2^-%d */\n", i, q.Exponent)
		fmt.Fprintf(w, "    %d, %d, %d, %d, %d,\n", q.B0, q.B1, q.B2, -q.A1, -q.A2)
	}
	fmt.Fprintf(w, "};\n\n")

	fmt.Fprintf(w, "/*\n")
	fmt.Fprintf(w, " * Scale policy: %s. Stored integers represent coefficient * 2^exponent;\n", s.Policy)
	fmt.Fprintf(w, " * the runtime must shift each section's accumulator right by its exponent\n")
	fmt.Fprintf(w, " * (CMSIS postShift) to recover the designed response.\n")
	fmt.Fprintf(w, " */\n")
	fmt.Fprintf(w, "static const int8_t %s_scale_exp[%d] = {", name, len(s.Sections))
	for i, q := range s.Sections {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "%d", q.Exponent)
	}
	fmt.Fprintf(w, "};\n\n")

	_, err := fmt.Fprintf(w, "#endif /* %s */\n", guardMacro(name))

	return err
}

func writeHeaderPreamble(w io.Writer, name, dtype string, form realize.Form,
	rep *stability.Report, meta *Metadata,
) error {
	fmt.Fprintf(w, "/*\n")
	fmt.Fprintf(w, " * %s - IIR biquad cascade coefficients\n", name)
	fmt.Fprintf(w, " *\n")
	fmt.Fprintf(w, " * Design:    %s\n", describeRequest(&meta.Request))
	fmt.Fprintf(w, " * Structure: %s, %s\n", form, dtype)
	fmt.Fprintf(w, " * Stability: %s (max |pole| %.9f, sensitivity %.3g)\n",
		rep.Verdict, maxPoleMagnitude(rep), rep.Sensitivity)
	fmt.Fprintf(w, " * Generated: %s\n", meta.createdAt().Format(time.RFC3339))

	if rep.Verdict == stability.Marginal {
		fmt.Fprintf(w, " *\n")
		fmt.Fprintf(w, " * WARNING: cascade is marginally stable; coefficient rounding in the\n")
		fmt.Fprintf(w, " * consumer may push poles onto the unit circle.\n")
	}

	fmt.Fprintf(w, " */\n")
	fmt.Fprintf(w, "#ifndef %s\n", guardMacro(name))
	_, err := fmt.Fprintf(w, "#define %s\n\n", guardMacro(name))

	return err
}

func guardMacro(name string) string {
	return strings.ToUpper(name) + "_H"
}

func maxPoleMagnitude(rep *stability.Report) float64 {
	max := 0.0
	for _, s := range rep.Sections {
		if s.MaxPoleMagnitude > max {
			max = s.MaxPoleMagnitude
		}
	}
	return max
}
