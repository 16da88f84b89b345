// Package spectral fits harmonic order components to a detrended curve and
// classifies the high-order ripple content.
package spectral

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Component is one harmonic order of the decomposition. Reconstruction uses
// Amplitude·cos(Order·θ + Phase) with θ in radians of gear rotation.
// Order 0 represents the mean offset.
type Component struct {
	Order     int
	Amplitude float64 // >= 0
	Phase     float64 // [0, 2π)
}

// Spectrum is an ordered sequence of components by increasing order.
type Spectrum []Component

// sorted returns the spectrum ordered by increasing order index.
func (s Spectrum) sorted() Spectrum {
	out := make(Spectrum, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Reconstruct evaluates the summed components at the given angles (radians).
func (s Spectrum) Reconstruct(theta []float64) []float64 {
	out := make([]float64, len(theta))
	for _, c := range s {
		k := float64(c.Order)
		for i, t := range theta {
			out[i] += c.Amplitude * math.Cos(k*t+c.Phase)
		}
	}
	return out
}

// Ripple returns the components at or above the ripple order threshold.
// Orders below the threshold are profile/lead form, not ripple.
func (s Spectrum) Ripple(threshold int) Spectrum {
	var out Spectrum
	for _, c := range s {
		if c.Order >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// RippleMetrics summarizes the ripple content at or above threshold:
// W is the sum of ripple amplitudes, RMS the root mean square of the
// ripple-only reconstruction over the given angles.
func (s Spectrum) RippleMetrics(theta []float64, threshold int) (w, rms float64) {
	ripple := s.Ripple(threshold)
	for _, c := range ripple {
		w += c.Amplitude
	}
	if len(ripple) == 0 || len(theta) == 0 {
		return w, 0
	}
	recon := ripple.Reconstruct(theta)
	sq := make([]float64, len(recon))
	for i, v := range recon {
		sq[i] = v * v
	}
	return w, math.Sqrt(stat.Mean(sq, nil))
}

// rmsOf returns the root mean square of values.
func rmsOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(values)))
}
