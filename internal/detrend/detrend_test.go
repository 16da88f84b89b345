package detrend

import (
	"errors"
	"math"
	"testing"

	"gear-metrology/internal/gear"
)

func makeCurve(n int, f func(x float64) float64) gear.Curve {
	c := gear.Curve{Tooth: 1, Flank: gear.FlankLeft, Direction: gear.DirectionProfile}
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1) // 0..1
		c.Positions = append(c.Positions, 10+5*x)
		c.Deviations = append(c.Deviations, f(2*x-1)) // f over normalized [-1,1]
	}
	return c
}

func TestDetrendRemovesCrownAndSlope(t *testing.T) {
	c := makeCurve(50, func(x float64) float64 {
		return 3 + 1.5*x + 0.8*x*x
	})
	out, err := Detrend(c)
	if err != nil {
		t.Fatalf("Detrend: %v", err)
	}
	for i, v := range out.Deviations {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("sample %d: residual %g after removing pure crown+slope", i, v)
		}
	}
}

func TestDetrendIdempotent(t *testing.T) {
	c := makeCurve(80, func(x float64) float64 {
		return 2 - 0.7*x + 0.3*x*x + 0.2*math.Sin(25*x)
	})
	once, err := Detrend(c)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := Detrend(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	for i := range once.Deviations {
		if d := math.Abs(twice.Deviations[i] - once.Deviations[i]); d > 1e-9 {
			t.Fatalf("sample %d: second pass moved value by %g", i, d)
		}
	}
}

func TestDetrendPreservesRipple(t *testing.T) {
	// A high-frequency component must survive with its amplitude intact.
	ripple := func(x float64) float64 { return 0.5 * math.Cos(40*x) }
	c := makeCurve(200, func(x float64) float64 {
		return 4 + 2*x - 1.1*x*x + ripple(x)
	})
	out, err := Detrend(c)
	if err != nil {
		t.Fatalf("Detrend: %v", err)
	}
	var maxAbs float64
	for _, v := range out.Deviations {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	if maxAbs < 0.4 || maxAbs > 0.6 {
		t.Errorf("ripple peak after detrend = %g, want ≈0.5", maxAbs)
	}
}

func TestDetrendInsufficientData(t *testing.T) {
	c := gear.Curve{
		Tooth: 7, Flank: gear.FlankRight, Direction: gear.DirectionLead,
		Positions:  []float64{0, 1},
		Deviations: []float64{0.1, 0.2},
	}
	_, err := Detrend(c)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("got %v, want *InsufficientDataError", err)
	}
	if insufficient.Tooth != 7 || insufficient.Samples != 2 {
		t.Errorf("error carries tooth %d samples %d, want 7 and 2", insufficient.Tooth, insufficient.Samples)
	}
}

func TestDetrendKeepsIdentityAndPositions(t *testing.T) {
	c := makeCurve(10, func(x float64) float64 { return x })
	out, err := Detrend(c)
	if err != nil {
		t.Fatalf("Detrend: %v", err)
	}
	if out.Tooth != c.Tooth || out.Flank != c.Flank || out.Direction != c.Direction {
		t.Error("curve identity changed")
	}
	for i := range c.Positions {
		if out.Positions[i] != c.Positions[i] {
			t.Fatalf("position %d changed", i)
		}
	}
	// The input values must not be mutated in place.
	if c.Deviations[9] != 1 {
		t.Error("input deviations mutated")
	}
}
