// Package gear defines the canonical in-memory model for a measured gear:
// its parameters, individual measurement traces, and per-tooth trace sets.
package gear

import (
	"fmt"
	"math"
	"sort"
)

// Flank identifies which side of the tooth was probed.
type Flank int

const (
	FlankLeft Flank = iota
	FlankRight
)

func (f Flank) String() string {
	switch f {
	case FlankLeft:
		return "left"
	case FlankRight:
		return "right"
	default:
		return "unknown"
	}
}

// Direction identifies the measured trace direction.
type Direction int

const (
	DirectionProfile Direction = iota // along the involute (roll length)
	DirectionLead                     // along the face width (axial)
)

func (d Direction) String() string {
	switch d {
	case DirectionProfile:
		return "profile"
	case DirectionLead:
		return "lead"
	default:
		return "unknown"
	}
}

// Parameters holds the gear geometry read from the measurement file header.
// It is immutable after parsing; derived quantities are computed on demand.
type Parameters struct {
	ToothCount    int     // ZE
	Module        float64 // normal module mn [mm]
	PressureAngle float64 // alpha_n [deg]
	HelixAngle    float64 // beta [deg], signed
	Width         float64 // face width [mm]
	TipDiameter   float64 // [mm]
	RootDiameter  float64 // [mm]
	AccuracyGrade int     // base tolerance class declared in the file

	// Units as declared by the file. The engine reads them through without
	// conversion; any conversion is the caller's configuration concern.
	PositionUnit  string // "mm"
	DeviationUnit string // "um"
}

// Validate checks the invariants required before any analysis is scheduled.
func (p Parameters) Validate() error {
	if p.ToothCount <= 0 {
		return fmt.Errorf("tooth count must be positive, got %d", p.ToothCount)
	}
	if p.Module <= 0 {
		return fmt.Errorf("module must be positive, got %g", p.Module)
	}
	return nil
}

// PitchDiameter returns the transverse pitch diameter D0 = z·mn/cos(beta).
func (p Parameters) PitchDiameter() float64 {
	beta := math.Abs(p.HelixAngle) * math.Pi / 180
	return float64(p.ToothCount) * p.Module / math.Cos(beta)
}

// BaseDiameter returns the base circle diameter db = D0·cos(alpha_t).
func (p Parameters) BaseDiameter() float64 {
	beta := math.Abs(p.HelixAngle) * math.Pi / 180
	alphaN := p.PressureAngle * math.Pi / 180
	alphaT := alphaN
	if beta > 1e-6 {
		alphaT = math.Atan(math.Tan(alphaN) / math.Cos(beta))
	}
	return p.PitchDiameter() * math.Cos(alphaT)
}

// BaseRadius returns db/2.
func (p Parameters) BaseRadius() float64 {
	return p.BaseDiameter() / 2
}

// PitchAngle returns the angular pitch 360°/ZE in degrees.
func (p Parameters) PitchAngle() float64 {
	return 360.0 / float64(p.ToothCount)
}

// Curve is one measured trace for one tooth, flank, and direction.
// Positions increase strictly monotonically; the order carries physical
// meaning tied to the measurement direction and is never re-sorted.
// Pipeline stages treat curves as immutable and derive new ones.
type Curve struct {
	Tooth     int
	Flank     Flank
	Direction Direction

	Positions  []float64 // roll length [mm] for profile, axial position [mm] for lead
	Deviations []float64 // measured departure from nominal

	// Outliers counts samples the parser flagged as implausible. The values
	// themselves are passed through unmodified.
	Outliers int
}

// Len returns the number of samples.
func (c Curve) Len() int { return len(c.Positions) }

// Validate checks the structural invariants of a curve.
func (c Curve) Validate() error {
	if len(c.Positions) == 0 {
		return fmt.Errorf("tooth %d %s %s: empty curve", c.Tooth, c.Flank, c.Direction)
	}
	if len(c.Positions) != len(c.Deviations) {
		return fmt.Errorf("tooth %d %s %s: %d positions vs %d deviations",
			c.Tooth, c.Flank, c.Direction, len(c.Positions), len(c.Deviations))
	}
	for i := 1; i < len(c.Positions); i++ {
		if c.Positions[i] <= c.Positions[i-1] {
			return fmt.Errorf("tooth %d %s %s: positions not strictly increasing at sample %d",
				c.Tooth, c.Flank, c.Direction, i)
		}
	}
	return nil
}

// WithDeviations returns a derived curve sharing this curve's identity and
// positions but carrying new deviation values.
func (c Curve) WithDeviations(dev []float64) Curve {
	out := c
	out.Deviations = dev
	return out
}

// MeanDeviation returns the arithmetic mean of the deviation values. It is
// used as the per-tooth reference value for pitch analysis.
func (c Curve) MeanDeviation() float64 {
	if len(c.Deviations) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range c.Deviations {
		sum += v
	}
	return sum / float64(len(c.Deviations))
}

// ToothSet maps tooth index (1..ZE) to the measured curve for one flank and
// direction. A set may be partial when individual teeth failed to parse;
// Complete reports whether the closed-gear invariant holds.
type ToothSet struct {
	Flank     Flank
	Direction Direction
	Curves    map[int]Curve
}

// NewToothSet returns an empty set for the given flank and direction.
func NewToothSet(flank Flank, dir Direction) *ToothSet {
	return &ToothSet{Flank: flank, Direction: dir, Curves: make(map[int]Curve)}
}

// Teeth returns the present tooth indices in ascending order.
func (s *ToothSet) Teeth() []int {
	teeth := make([]int, 0, len(s.Curves))
	for t := range s.Curves {
		teeth = append(teeth, t)
	}
	sort.Ints(teeth)
	return teeth
}

// Len returns the number of teeth present.
func (s *ToothSet) Len() int { return len(s.Curves) }

// Complete reports an error unless the key set is exactly the contiguous
// range 1..toothCount. Closed-gear analyses (pitch, whole-gear ripple)
// require this; per-tooth analyses do not.
func (s *ToothSet) Complete(toothCount int) error {
	for t := 1; t <= toothCount; t++ {
		if _, ok := s.Curves[t]; !ok {
			return fmt.Errorf("%s %s: tooth %d missing from set of %d",
				s.Flank, s.Direction, t, toothCount)
		}
	}
	if len(s.Curves) != toothCount {
		for t := range s.Curves {
			if t < 1 || t > toothCount {
				return fmt.Errorf("%s %s: tooth %d outside 1..%d", s.Flank, s.Direction, t, toothCount)
			}
		}
	}
	return nil
}

// EvalRange describes a measured trace's extent: the full measured span and
// the evaluation span actually used for deviation assessment. For profile
// traces the values are diameters [mm]; for lead traces, axial positions.
type EvalRange struct {
	MeasStart float64
	MeasEnd   float64
	EvalStart float64
	EvalEnd   float64
}

// PitchTable holds the per-tooth pitch rows some MKA files carry alongside
// the raw traces: single pitch deviation fp, cumulative deviation Fp, and
// runout Fr per tooth, in file units.
type PitchTable struct {
	Flank  Flank
	Teeth  []int
	Single []float64 // fp per tooth
	Cum    []float64 // Fp per tooth
	Runout []float64 // Fr per tooth
}
