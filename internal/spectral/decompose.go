package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"gear-metrology/pkg/lsq"
)

// Options controls the iterative decomposition.
type Options struct {
	MinOrder int // lowest candidate order, typically 1
	MaxOrder int // highest candidate order; bounded by the Nyquist-like sample limit

	MaxComponents    int     // extraction cycles before giving up (iteration cap)
	ConvergenceRatio float64 // stop when residual RMS improves by less than this fraction

	// UseFFTWhenUniform enables the direct-transform fast path when the
	// sample angles are verified uniform. Least squares remains the
	// authoritative method; the FFT path is an optimization only.
	UseFFTWhenUniform bool
}

// DefaultOptions returns the decomposition settings used when the caller has
// no evaluation-profile overrides.
func DefaultOptions() Options {
	return Options{
		MinOrder:         1,
		MaxOrder:         0, // derived from sample count
		MaxComponents:    10,
		ConvergenceRatio: 0.001,
	}
}

// Warning reports that the iteration cap was reached before the residual
// stopped improving. The accompanying spectrum is still the best obtained.
type Warning struct {
	Iterations  int
	ResidualRMS float64
}

func (w *Warning) Error() string {
	return fmt.Sprintf("decomposition did not converge within %d iterations (residual RMS %.4g)",
		w.Iterations, w.ResidualRMS)
}

// Decompose fits harmonic components to the curve samples (theta in radians,
// one full gear revolution spanning 2π) by iterative least squares: every
// cycle fits all remaining candidate orders against the current residual,
// extracts the one explaining the most energy, subtracts it, and repeats
// until the residual RMS stops improving meaningfully or the component cap
// is hit. The cap case returns a non-nil *Warning alongside the best result.
//
// The returned spectrum is ordered by increasing order, includes an order-0
// mean component, and satisfies amplitude >= 0, phase in [0, 2π).
func Decompose(theta, values []float64, opts Options) (Spectrum, *Warning, error) {
	if len(theta) != len(values) {
		return nil, nil, fmt.Errorf("sample count mismatch: %d vs %d", len(theta), len(values))
	}
	n := len(theta)
	if n < 4 {
		return nil, nil, fmt.Errorf("need at least 4 samples, got %d", n)
	}
	if opts.MinOrder < 1 {
		opts.MinOrder = 1
	}
	maxOrder := opts.MaxOrder
	if nyquist := n/2 - 1; maxOrder <= 0 || maxOrder > nyquist {
		maxOrder = nyquist
	}
	if maxOrder < opts.MinOrder {
		return nil, nil, fmt.Errorf("order range %d..%d empty for %d samples", opts.MinOrder, maxOrder, n)
	}
	maxComp := opts.MaxComponents
	if maxComp <= 0 {
		maxComp = 10
	}

	if opts.UseFFTWhenUniform && isUniform(theta, uniformTolerance) {
		spec, err := decomposeFFT(values, theta[0], opts.MinOrder, maxOrder, maxComp)
		if err == nil {
			return spec, nil, nil
		}
		// Fall through to least squares on any fast-path failure.
	}

	residual := make([]float64, n)
	copy(residual, values)

	mean := floats.Sum(residual) / float64(n)
	floats.AddConst(-mean, residual)

	spectrum := Spectrum{meanComponent(mean)}
	extracted := make(map[int]bool)
	prevRMS := rmsOf(residual)
	converged := false

	for iter := 0; iter < maxComp; iter++ {
		best, ok := bestOrderFit(theta, residual, opts.MinOrder, maxOrder, extracted)
		if !ok {
			converged = true
			break
		}

		for i := range residual {
			residual[i] -= best.a*math.Cos(float64(best.order)*theta[i]) +
				best.b*math.Sin(float64(best.order)*theta[i])
		}
		extracted[best.order] = true

		amp, phase := lsq.AmplitudePhase(best.a, best.b)
		spectrum = append(spectrum, Component{Order: best.order, Amplitude: amp, Phase: phase})

		rms := rmsOf(residual)
		if prevRMS > 0 && (prevRMS-rms) < opts.ConvergenceRatio*prevRMS {
			converged = true
			break
		}
		prevRMS = rms
	}

	spectrum = spectrum.sorted()
	if !converged {
		return spectrum, &Warning{Iterations: maxComp, ResidualRMS: rmsOf(residual)}, nil
	}
	return spectrum, nil, nil
}

type orderFit struct {
	order int
	a, b  float64
	amp   float64
}

// bestOrderFit fits every not-yet-extracted candidate order against the
// residual and returns the one with the largest amplitude.
func bestOrderFit(theta, residual []float64, minOrder, maxOrder int, extracted map[int]bool) (orderFit, bool) {
	var best orderFit
	found := false
	for order := minOrder; order <= maxOrder; order++ {
		if extracted[order] {
			continue
		}
		a, b, err := lsq.SineFit(theta, residual, float64(order))
		if err != nil {
			continue
		}
		amp := math.Hypot(a, b)
		if !found || amp > best.amp {
			best = orderFit{order: order, a: a, b: b, amp: amp}
			found = true
		}
	}
	if !found || best.amp < amplitudeFloor {
		return orderFit{}, false
	}
	return best, true
}

// amplitudeFloor is the smallest component worth extracting; anything below
// is numerical noise.
const amplitudeFloor = 1e-9

// meanComponent encodes the mean offset as the order-0 component so that
// Reconstruct reproduces the original signal level.
func meanComponent(mean float64) Component {
	if mean < 0 {
		return Component{Order: 0, Amplitude: -mean, Phase: math.Pi}
	}
	return Component{Order: 0, Amplitude: mean, Phase: 0}
}
