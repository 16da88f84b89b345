package analysis

import (
	"fmt"
	"math"
	"sort"

	"gear-metrology/internal/gear"
)

// ClosedCurve merges the per-tooth traces of one flank into a single curve
// over the full gear rotation. Each sample is placed at its tooth base angle
// plus the within-tooth rotation: the roll angle of its roll length for
// profile traces, the helix-induced rotation of its axial offset for lead
// traces. The result is sorted, wrapped to one revolution and returned with
// angles in radians.
func ClosedCurve(set *gear.ToothSet, params gear.Parameters) (theta, values []float64, err error) {
	if set == nil || set.Len() == 0 {
		return nil, nil, fmt.Errorf("no curves to merge")
	}
	if err := set.Complete(params.ToothCount); err != nil {
		return nil, nil, err
	}

	type sample struct {
		angle float64 // degrees, wrapped to [0, 360)
		value float64
	}
	var samples []sample

	for _, tooth := range set.Teeth() {
		c := set.Curves[tooth]
		base := params.ToothBaseAngle(tooth)
		mid := (c.Positions[0] + c.Positions[c.Len()-1]) / 2

		for i, pos := range c.Positions {
			var within float64
			switch set.Direction {
			case gear.DirectionProfile:
				within = params.RollAngle(pos - mid)
			case gear.DirectionLead:
				within = params.AxialRotation(pos - mid)
			}
			angle := math.Mod(base+within, 360)
			if angle < 0 {
				angle += 360
			}
			samples = append(samples, sample{angle: angle, value: c.Deviations[i]})
		}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].angle < samples[j].angle })

	// Coincident angles happen for spur gears, where a lead trace has no
	// angular spread. Keep one sample per angle, averaging duplicates.
	const angleEps = 1e-7
	theta = make([]float64, 0, len(samples))
	values = make([]float64, 0, len(samples))
	for i := 0; i < len(samples); {
		j := i + 1
		sum := samples[i].value
		for j < len(samples) && samples[j].angle-samples[i].angle < angleEps {
			sum += samples[j].value
			j++
		}
		theta = append(theta, samples[i].angle*math.Pi/180)
		values = append(values, sum/float64(j-i))
		i = j
	}

	if len(theta) < 4 {
		return nil, nil, fmt.Errorf("merged curve has only %d distinct angles", len(theta))
	}
	return theta, values, nil
}
