// Package detrend removes systematic form components from a measured curve
// before spectral analysis: intentional crowning first, then fixture tilt.
package detrend

import (
	"fmt"

	"gear-metrology/internal/gear"
	"gear-metrology/pkg/lsq"
)

// MinSamples is the smallest curve a quadratic fit can be applied to.
const MinSamples = 3

// InsufficientDataError reports a curve too short for the required fits.
type InsufficientDataError struct {
	Tooth     int
	Flank     gear.Flank
	Direction gear.Direction
	Samples   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("tooth %d %s %s: %d samples, need at least %d for detrending",
		e.Tooth, e.Flank, e.Direction, e.Samples, MinSamples)
}

// Detrend returns a new curve with crown and slope removed.
//
// The two components are fitted and subtracted sequentially, not jointly:
// a degree-2 fit removes the crowning (a manufacturing feature, not a
// defect), then a degree-1 fit on the corrected values removes residual
// tilt from fixturing. Positions are normalized to [-1, 1] for conditioning
// and are carried into the output unchanged. The transform is pure and
// idempotent up to numerical tolerance.
func Detrend(c gear.Curve) (gear.Curve, error) {
	if err := c.Validate(); err != nil {
		return gear.Curve{}, err
	}
	n := c.Len()
	if n < MinSamples {
		return gear.Curve{}, &InsufficientDataError{
			Tooth: c.Tooth, Flank: c.Flank, Direction: c.Direction, Samples: n,
		}
	}

	x := normalize(c.Positions)

	crown, err := lsq.PolyFit(x, c.Deviations, 2)
	if err != nil {
		return gear.Curve{}, fmt.Errorf("crown fit: %w", err)
	}
	corrected := make([]float64, n)
	for i := range corrected {
		corrected[i] = c.Deviations[i] - lsq.PolyEval(crown, x[i])
	}

	slope, err := lsq.PolyFit(x, corrected, 1)
	if err != nil {
		return gear.Curve{}, fmt.Errorf("slope fit: %w", err)
	}
	for i := range corrected {
		corrected[i] -= lsq.PolyEval(slope, x[i])
	}

	return c.WithDeviations(corrected), nil
}

// normalize maps positions onto [-1, 1] preserving relative spacing.
func normalize(pos []float64) []float64 {
	lo, hi := pos[0], pos[len(pos)-1]
	mid := (lo + hi) / 2
	half := (hi - lo) / 2
	if half == 0 {
		half = 1
	}
	out := make([]float64, len(pos))
	for i, p := range pos {
		out[i] = (p - mid) / half
	}
	return out
}
