package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

// uniformTolerance is the maximum relative spacing jitter the FFT fast path
// accepts. Tooth-to-tooth angular pitch varies physically, so real merged
// curves rarely qualify; synthetic and resampled ones do.
const uniformTolerance = 1e-9

// isUniform reports whether theta is uniformly spaced and spans exactly one
// revolution (no duplicated 2π endpoint). Only then do FFT bins coincide
// with gear orders.
func isUniform(theta []float64, tol float64) bool {
	n := len(theta)
	if n < 4 {
		return false
	}
	step := theta[1] - theta[0]
	if step <= 0 {
		return false
	}
	for i := 2; i < n; i++ {
		if math.Abs((theta[i]-theta[i-1])-step) > tol*math.Max(step, 1) {
			return false
		}
	}
	return math.Abs(float64(n)*step-2*math.Pi) <= tol*2*math.Pi*float64(n)
}

// decomposeFFT is the direct-transform fast path for verified-uniform
// sampling. It returns the maxComponents largest-amplitude bins within the
// candidate order range, plus the order-0 mean, ordered by increasing order.
// theta0 is the angle of the first sample; bin phases are referenced to it.
func decomposeFFT(values []float64, theta0 float64, minOrder, maxOrder, maxComponents int) (Spectrum, error) {
	n := len(values)
	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, values)

	if maxOrder > len(coeff)-1 {
		maxOrder = len(coeff) - 1
	}
	if maxOrder < minOrder {
		return nil, fmt.Errorf("order range %d..%d exceeds transform length", minOrder, maxOrder)
	}

	mean := real(coeff[0]) / float64(n)
	candidates := make(Spectrum, 0, maxOrder-minOrder+1)
	for k := minOrder; k <= maxOrder; k++ {
		amp := 2 * cmplx.Abs(coeff[k]) / float64(n)
		if amp < amplitudeFloor {
			continue
		}
		phase := math.Mod(cmplx.Phase(coeff[k])-float64(k)*theta0, 2*math.Pi)
		if phase < 0 {
			phase += 2 * math.Pi
		}
		candidates = append(candidates, Component{Order: k, Amplitude: amp, Phase: phase})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Amplitude > candidates[j].Amplitude })
	if len(candidates) > maxComponents {
		candidates = candidates[:maxComponents]
	}

	spectrum := append(Spectrum{meanComponent(mean)}, candidates...)
	return spectrum.sorted(), nil
}
