// Command iirexport designs an IIR filter and exports its coefficients.
//
// Usage:
//
//	iirexport [flags]
//
// Examples:
//
//	iirexport -family butterworth -band lowpass -order 4 -cutoff 1000 -rate 44100
//	iirexport -family elliptic -band bandpass -order 8 -cutoff 100,1000 \
//	    -ripple 0.5 -atten 60 -rate 48000 -format cmsis -width q15 -o filter.h
//	iirexport -family bessel -band lowpass -order 6 -cutoff 2000 -rate 48000 \
//	    -format matlab -analyze -impulse-wav impulse.wav
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-iir/design"
	"github.com/cwbudde/algo-iir/export"
	"github.com/cwbudde/algo-iir/fixedpoint"
	"github.com/cwbudde/algo-iir/realize"
	"github.com/cwbudde/algo-iir/response"
	"github.com/cwbudde/algo-iir/spec"
	"github.com/cwbudde/algo-iir/stability"
)

var families = map[string]spec.Family{
	"butterworth": spec.Butterworth,
	"cheby1":      spec.Chebyshev1,
	"cheby2":      spec.Chebyshev2,
	"elliptic":    spec.Elliptic,
	"bessel":      spec.Bessel,
}

var bands = map[string]spec.BandType{
	"lowpass":  spec.Lowpass,
	"highpass": spec.Highpass,
	"bandpass": spec.Bandpass,
	"bandstop": spec.Bandstop,
}

func main() {
	family := flag.String("family", "butterworth", "filter family: butterworth, cheby1, cheby2, elliptic, bessel")
	band := flag.String("band", "lowpass", "band type: lowpass, highpass, bandpass, bandstop")
	order := flag.Int("order", 4, "filter order (even for bandpass/bandstop)")
	cutoff := flag.String("cutoff", "1000", "cutoff frequency in Hz, or low,high for band filters")
	rate := flag.Float64("rate", 44100, "sample rate in Hz")
	ripple := flag.Float64("ripple", 0.5, "passband ripple in dB (cheby1, elliptic)")
	atten := flag.Float64("atten", 60, "stopband attenuation in dB (cheby2, elliptic)")
	format := flag.String("format", "cmsis", "output format: cmsis, csv, matlab, json, text")
	width := flag.String("width", "float", "coefficient width: float, q15, q31")
	form := flag.String("form", "df2t", "structural form: df2t, df1")
	global := flag.Bool("global-scale", false, "use one scale exponent for all sections (fixed point only)")
	name := flag.String("name", "iir_filter", "identifier base for generated artifacts")
	out := flag.String("o", "", "output file (default stdout)")
	analyze := flag.Bool("analyze", false, "print realized -3 dB edges and DC gain to stderr")
	impulseWAV := flag.String("impulse-wav", "", "write the impulse response to a 16-bit WAV file")
	impulseLen := flag.Int("impulse-len", 8192, "impulse response length in samples")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: iirexport [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Designs an IIR filter cascade and exports its coefficients.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	fam, ok := families[strings.ToLower(*family)]
	if !ok {
		fatalf("unknown family %q", *family)
	}

	bt, ok := bands[strings.ToLower(*band)]
	if !ok {
		fatalf("unknown band %q", *band)
	}

	cutoffs, err := parseCutoffs(*cutoff)
	if err != nil {
		fatalf("bad -cutoff: %v", err)
	}

	filter := spec.Filter{
		Band:          bt,
		Family:        fam,
		Order:         *order,
		Cutoffs:       cutoffs,
		SampleRate:    *rate,
		RippleDB:      *ripple,
		AttenuationDB: *atten,
	}
	if err := filter.Validate(); err != nil {
		fatalf("%v", err)
	}

	cascade, err := design.Design(filter)
	if err != nil {
		fatalf("%v", err)
	}

	report := stability.Analyze(cascade)
	if report.Verdict == stability.Marginal {
		fmt.Fprintln(os.Stderr, "warning: cascade is marginally stable")
	}

	targetForm := realize.DirectFormIITransposed
	if strings.EqualFold(*form, "df1") {
		targetForm = realize.DirectFormI
	}

	realization, err := realize.Convert(cascade, targetForm)
	if err != nil {
		fatalf("%v", err)
	}

	meta := export.Metadata{
		Name:      *name,
		CreatedAt: time.Now(),
		Request:   filter,
	}

	dst := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fatalf("%v", err)
		}
		defer f.Close()
		dst = f
	}

	if err := writeArtifact(dst, *format, *width, *global, realization, report, meta); err != nil {
		fatalf("%v", err)
	}

	if *analyze || *impulseWAV != "" {
		runAnalysis(cascade, *analyze, *impulseWAV, *impulseLen)
	}
}

func writeArtifact(dst io.Writer, format, width string, global bool,
	r *realize.Realization, rep *stability.Report, meta export.Metadata,
) error {
	if !strings.EqualFold(width, "float") {
		w := fixedpoint.Q15
		if strings.EqualFold(width, "q31") {
			w = fixedpoint.Q31
		} else if !strings.EqualFold(width, "q15") {
			return fmt.Errorf("unknown width %q", width)
		}

		if format != "cmsis" {
			return fmt.Errorf("width %q requires -format cmsis, got %q", width, format)
		}

		var opts []fixedpoint.Option
		if global {
			opts = append(opts, fixedpoint.WithGlobalScale())
		}

		set, err := fixedpoint.Quantize(r, w, opts...)
		if err != nil {
			return err
		}

		return export.CMSISHeaderFixed(dst, set, rep, meta)
	}

	switch format {
	case "cmsis":
		return export.CMSISHeader(dst, r, rep, meta)
	case "csv":
		return export.CSV(dst, r, rep, meta)
	case "matlab":
		return export.MatlabScript(dst, r, rep, meta)
	case "json":
		return export.JSON(dst, r, rep, meta)
	case "text":
		return export.TextListing(dst, r, rep, meta)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runAnalysis(cascade *design.Cascade, print bool, wavPath string, n int) {
	if print {
		a, err := response.Analyze(cascade)
		if err != nil {
			fatalf("%v", err)
		}

		fmt.Fprintf(os.Stderr, "dc gain: %.2f dB, peak: %.2f dB\n", a.DCGainDB(), a.PeakGainDB())
		for _, edge := range a.CutoffFrequencies() {
			fmt.Fprintf(os.Stderr, "-3 dB edge: %.1f Hz\n", edge)
		}
	}

	if wavPath != "" {
		if err := writeImpulseWAV(cascade, wavPath, n); err != nil {
			fatalf("%v", err)
		}
	}
}

// writeImpulseWAV dumps the cascade's impulse response as 16-bit mono
// PCM for inspection in audio tooling.
func writeImpulseWAV(cascade *design.Cascade, path string, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(cascade.SampleRate), 16, 1, 1)

	impulse := cascade.Chain().ImpulseResponse(n)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: int(cascade.SampleRate)},
		SourceBitDepth: 16,
		Data:           make([]int, len(impulse)),
	}
	for i, v := range impulse {
		s := math.Round(v * 32767)
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}

	return enc.Close()
}

func parseCutoffs(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "iirexport: "+format+"\n", args...)
	os.Exit(1)
}
