package analysis

import (
	"math"
	"testing"

	"gear-metrology/internal/gear"
)

func TestClosedCurveCoversRevolution(t *testing.T) {
	file := syntheticFile(9, 15, func(theta float64) float64 {
		return math.Sin(3 * theta)
	})
	set := file.Profile[gear.FlankLeft]

	theta, values, err := ClosedCurve(set, file.Params)
	if err != nil {
		t.Fatalf("ClosedCurve: %v", err)
	}
	if len(theta) != len(values) {
		t.Fatal("angle/value length mismatch")
	}
	for i := 1; i < len(theta); i++ {
		if theta[i] <= theta[i-1] {
			t.Fatalf("angles not strictly increasing at %d", i)
		}
	}
	if theta[0] < 0 || theta[len(theta)-1] >= 2*math.Pi {
		t.Errorf("angle range [%g, %g] outside [0, 2π)", theta[0], theta[len(theta)-1])
	}
	// The merged samples still lie on the source signal.
	for i, th := range theta {
		if math.Abs(values[i]-math.Sin(3*th)) > 1e-9 {
			t.Fatalf("sample %d at θ=%g: %g, want %g", i, th, values[i], math.Sin(3*th))
		}
	}
}

func TestClosedCurveSpurLeadCollapsesPerTooth(t *testing.T) {
	// A spur gear's lead trace has no angular spread: every sample of one
	// tooth lands on the tooth base angle and collapses to its mean.
	const z = 8
	params := gear.Parameters{ToothCount: z, Module: 2, PressureAngle: 20, HelixAngle: 0}

	set := gear.NewToothSet(gear.FlankLeft, gear.DirectionLead)
	for tooth := 1; tooth <= z; tooth++ {
		set.Curves[tooth] = gear.Curve{
			Tooth: tooth, Flank: gear.FlankLeft, Direction: gear.DirectionLead,
			Positions:  []float64{0, 10, 20, 30},
			Deviations: []float64{1, 2, 3, float64(4 * tooth)},
		}
	}

	theta, values, err := ClosedCurve(set, params)
	if err != nil {
		t.Fatalf("ClosedCurve: %v", err)
	}
	if len(theta) != z {
		t.Fatalf("%d distinct angles, want %d (one per tooth)", len(theta), z)
	}
	wantFirst := (1.0 + 2 + 3 + 4) / 4
	if math.Abs(values[0]-wantFirst) > 1e-12 {
		t.Errorf("tooth 1 collapsed value = %g, want mean %g", values[0], wantFirst)
	}
}

func TestClosedCurveHelicalLeadSpreads(t *testing.T) {
	params := gear.Parameters{ToothCount: 8, Module: 2, PressureAngle: 20, HelixAngle: 20}

	set := gear.NewToothSet(gear.FlankLeft, gear.DirectionLead)
	for tooth := 1; tooth <= 8; tooth++ {
		set.Curves[tooth] = gear.Curve{
			Tooth: tooth, Flank: gear.FlankLeft, Direction: gear.DirectionLead,
			Positions:  []float64{0, 5, 10, 15},
			Deviations: []float64{0, 0, 0, 0},
		}
	}

	theta, _, err := ClosedCurve(set, params)
	if err != nil {
		t.Fatalf("ClosedCurve: %v", err)
	}
	if len(theta) != 8*4 {
		t.Errorf("%d distinct angles, want 32 for a helical lead set", len(theta))
	}
}

func TestClosedCurveRejectsIncompleteSet(t *testing.T) {
	file := syntheticFile(6, 10, func(theta float64) float64 { return 0 })
	set := file.Profile[gear.FlankLeft]
	delete(set.Curves, 4)

	if _, _, err := ClosedCurve(set, file.Params); err == nil {
		t.Error("incomplete set accepted")
	}
	if _, _, err := ClosedCurve(nil, file.Params); err == nil {
		t.Error("nil set accepted")
	}
}
