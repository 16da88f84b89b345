// Package pitch computes the standardized pitch deviation metrics fp, Fp,
// and Fr over the closed sequence of gear teeth.
package pitch

import (
	"fmt"
	"math"

	"gear-metrology/internal/gear"
)

// Metrics holds the pitch deviation results for one flank of the whole gear.
// All values are in the measurement's deviation unit.
type Metrics struct {
	Single     float64 // fp: max |individual pitch - mean pitch|
	Cumulative float64 // Fp: range of the running sum of pitch deviations
	Runout     float64 // Fr: range of the per-tooth reference values

	// Per-tooth detail, indexed tooth-1, including the wrap-around pitch
	// from the last tooth back to the first.
	Deviations []float64 // signed single pitch deviations
	CumSum     []float64 // running sum of Deviations
}

// FromReferences computes the pitch metrics from one reference value per
// tooth (tooth 1..ZE in order). The pitch sequence is closed: the pitch
// between the last tooth and the first is included, so the signed pitch
// deviations always sum to zero around the gear.
func FromReferences(refs []float64) (Metrics, error) {
	z := len(refs)
	if z < 2 {
		return Metrics{}, fmt.Errorf("need at least 2 teeth, got %d", z)
	}

	pitches := make([]float64, z)
	for i := 0; i < z-1; i++ {
		pitches[i] = refs[i+1] - refs[i]
	}
	pitches[z-1] = refs[0] - refs[z-1] // wrap-around term

	mean := 0.0
	for _, p := range pitches {
		mean += p
	}
	mean /= float64(z)

	m := Metrics{
		Deviations: make([]float64, z),
		CumSum:     make([]float64, z),
	}
	sum := 0.0
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	for i, p := range pitches {
		dev := p - mean
		m.Deviations[i] = dev
		sum += dev
		m.CumSum[i] = sum
		if sum < minSum {
			minSum = sum
		}
		if sum > maxSum {
			maxSum = sum
		}
		if a := math.Abs(dev); a > m.Single {
			m.Single = a
		}
	}
	// The closed sum is zero up to rounding; the cumulative range is taken
	// against zero as well so a single perturbed tooth registers fully.
	if minSum > 0 {
		minSum = 0
	}
	if maxSum < 0 {
		maxSum = 0
	}
	m.Cumulative = maxSum - minSum

	minRef, maxRef := refs[0], refs[0]
	for _, r := range refs[1:] {
		minRef = math.Min(minRef, r)
		maxRef = math.Max(maxRef, r)
	}
	m.Runout = maxRef - minRef

	return m, nil
}

// FromCurves extracts the per-tooth reference value (mean deviation of each
// trace) from a complete tooth set and computes the pitch metrics. The set
// must satisfy the contiguous 1..toothCount invariant.
func FromCurves(set *gear.ToothSet, toothCount int) (Metrics, error) {
	if err := set.Complete(toothCount); err != nil {
		return Metrics{}, err
	}
	refs := make([]float64, toothCount)
	for t := 1; t <= toothCount; t++ {
		refs[t-1] = set.Curves[t].MeanDeviation()
	}
	return FromReferences(refs)
}

// FromTable computes the metrics from a pitch table carried in the
// measurement file itself (per-tooth fp rows). The cumulative sum is closed
// in the same wrap-around-aware way as FromReferences.
func FromTable(table gear.PitchTable) (Metrics, error) {
	z := len(table.Single)
	if z < 2 {
		return Metrics{}, fmt.Errorf("pitch table for %s flank has %d rows, need at least 2", table.Flank, z)
	}

	mean := 0.0
	for _, p := range table.Single {
		mean += p
	}
	mean /= float64(z)

	m := Metrics{
		Deviations: make([]float64, z),
		CumSum:     make([]float64, z),
	}
	sum := 0.0
	minSum, maxSum := 0.0, 0.0
	for i, p := range table.Single {
		dev := p - mean
		m.Deviations[i] = dev
		sum += dev
		m.CumSum[i] = sum
		minSum = math.Min(minSum, sum)
		maxSum = math.Max(maxSum, sum)
		if a := math.Abs(dev); a > m.Single {
			m.Single = a
		}
	}
	m.Cumulative = maxSum - minSum

	if len(table.Runout) == z {
		minR, maxR := table.Runout[0], table.Runout[0]
		for _, r := range table.Runout[1:] {
			minR = math.Min(minR, r)
			maxR = math.Max(maxR, r)
		}
		m.Runout = maxR - minR
	}
	return m, nil
}
