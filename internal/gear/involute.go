package gear

import "math"

// Involute geometry used to map trace positions onto gear rotation angle.
// Profile traces are sampled along the involute roll length; lead traces
// along the face width. Both map onto rotation so that all teeth of one
// flank can be merged into a single closed 0–360° curve.

// RollLength returns the involute roll length s(d) = sqrt((d/2)² − rb²) for
// a point at the given diameter, or 0 below the base circle.
func (p Parameters) RollLength(diameter float64) float64 {
	r := diameter / 2
	rb := p.BaseRadius()
	if r <= rb {
		return 0
	}
	return math.Sqrt(r*r - rb*rb)
}

// RollAngle returns the rotation angle in degrees corresponding to a roll
// length: ξ = s/(π·db)·360°.
func (p Parameters) RollAngle(rollLength float64) float64 {
	circumference := math.Pi * p.BaseDiameter()
	if circumference <= 0 {
		return 0
	}
	return rollLength / circumference * 360
}

// AxialRotation returns the rotation angle in degrees produced by moving
// deltaZ along the face width of a helical gear: Δφ = 2·Δz·tan(β)/D0.
// Spur gears (β ≈ 0) produce no rotation.
func (p Parameters) AxialRotation(deltaZ float64) float64 {
	if math.Abs(p.HelixAngle) < 0.01 {
		return 0
	}
	d0 := p.PitchDiameter()
	if d0 <= 0 {
		return 0
	}
	tanBeta := math.Tan(math.Abs(p.HelixAngle) * math.Pi / 180)
	return 2 * deltaZ * tanBeta / d0 * 180 / math.Pi
}

// ToothBaseAngle returns the rotation angle of tooth t (1-based):
// τ = (t−1)·360°/ZE.
func (p Parameters) ToothBaseAngle(tooth int) float64 {
	return float64(tooth-1) * p.PitchAngle()
}
