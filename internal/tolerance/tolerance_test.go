package tolerance

import (
	"math"
	"path/filepath"
	"testing"

	"gear-metrology/internal/gear"
)

func testParams() gear.Parameters {
	return gear.Parameters{ToothCount: 20, Module: 2.5, PressureAngle: 20}
}

func TestRegistryBuiltins(t *testing.T) {
	for _, name := range []string{"iso1328", "pseries"} {
		if _, err := Get(name); err != nil {
			t.Errorf("builtin profile %q not registered: %v", name, err)
		}
	}
	if _, err := Get("agma"); err == nil {
		t.Error("unknown profile name accepted")
	}

	names := List()
	if len(names) < 2 {
		t.Errorf("List() = %v, want at least the two builtins", names)
	}
}

func TestISO1328GradeSteps(t *testing.T) {
	p := DefaultISO1328()
	params := testParams()

	l5, err := p.Limit(MetricSinglePitch, 5, params)
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}
	l6, err := p.Limit(MetricSinglePitch, 6, params)
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}
	if ratio := l6 / l5; math.Abs(ratio-math.Sqrt2) > 1e-12 {
		t.Errorf("grade step ratio = %g, want sqrt(2)", ratio)
	}

	if _, err := p.Limit(MetricSinglePitch, 0, params); err == nil {
		t.Error("grade below range accepted")
	}
	if _, err := p.Limit(MetricRippleW, 5, params); err == nil {
		t.Error("ripple metric accepted by the pitch standard")
	}
}

func TestISO1328EvaluateInclusiveBoundary(t *testing.T) {
	p := DefaultISO1328()
	params := testParams()

	l5, err := p.Limit(MetricCumPitch, 5, params)
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}

	// Exactly on the grade-5 limit still achieves grade 5.
	v, err := p.Evaluate(MetricCumPitch, l5, params)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.State != Graded || v.Grade != 5 {
		t.Errorf("on-limit verdict = %+v, want grade 5", v)
	}

	// Slightly above tips into grade 6.
	v, err = p.Evaluate(MetricCumPitch, l5*1.0001, params)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.State != Graded || v.Grade != 6 {
		t.Errorf("just-above verdict = %+v, want grade 6", v)
	}

	// The sign of a deviation does not matter.
	v, err = p.Evaluate(MetricCumPitch, -l5, params)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Grade != 5 {
		t.Errorf("negative deviation graded %d, want 5", v.Grade)
	}
}

func TestISO1328EvaluateBeyondCoarsestGrade(t *testing.T) {
	p := DefaultISO1328()
	params := testParams()

	l12, err := p.Limit(MetricSinglePitch, p.GradeMax, params)
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}
	v, err := p.Evaluate(MetricSinglePitch, l12*2, params)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.State != Fail {
		t.Errorf("verdict beyond grade %d = %v, want FAIL", p.GradeMax, v.State)
	}
}

func TestPSeriesBandSelection(t *testing.T) {
	p := DefaultPSeries()

	// module 2.5, d0 = 50mm: the mid-module small-diameter band.
	b, err := p.band(testParams())
	if err != nil {
		t.Fatalf("band: %v", err)
	}
	if b.WLimit != 1.6 || b.RMSLimit != 0.5 {
		t.Errorf("band limits = (%g, %g), want (1.6, 0.5)", b.WLimit, b.RMSLimit)
	}

	// A large coarse gear selects the unbounded band.
	big := gear.Parameters{ToothCount: 90, Module: 5, PressureAngle: 20}
	b, err = p.band(big)
	if err != nil {
		t.Fatalf("band: %v", err)
	}
	if b.WLimit != 3.2 {
		t.Errorf("coarse band W limit = %g, want 3.2", b.WLimit)
	}
}

func TestPSeriesEvaluate(t *testing.T) {
	p := DefaultPSeries()
	params := testParams()

	tests := []struct {
		name     string
		metric   Metric
		measured float64
		want     State
	}{
		{"W on limit passes", MetricRippleW, 1.6, Pass},
		{"W above limit fails", MetricRippleW, 1.61, Fail},
		{"RMS below limit passes", MetricRippleRMS, 0.2, Pass},
		{"RMS above limit fails", MetricRippleRMS, 0.51, Fail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := p.Evaluate(tt.metric, tt.measured, params)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if v.State != tt.want {
				t.Errorf("state = %v, want %v (limit %g)", v.State, tt.want, v.Limit)
			}
		})
	}

	if _, err := p.Evaluate(MetricSinglePitch, 1, params); err == nil {
		t.Error("pitch metric accepted by the ripple standard")
	}
}

func TestProfileFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	isoPath := filepath.Join(dir, "iso.json")
	if err := SaveToFile(DefaultISO1328(), isoPath); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	loaded, err := LoadFromFile(isoPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	iso, ok := loaded.(*ISO1328Profile)
	if !ok {
		t.Fatalf("loaded %T, want *ISO1328Profile", loaded)
	}
	wantLimit, _ := DefaultISO1328().Limit(MetricSinglePitch, 7, testParams())
	gotLimit, err := iso.Limit(MetricSinglePitch, 7, testParams())
	if err != nil {
		t.Fatalf("Limit after reload: %v", err)
	}
	if math.Abs(gotLimit-wantLimit) > 1e-12 {
		t.Errorf("reloaded limit = %g, want %g", gotLimit, wantLimit)
	}

	psPath := filepath.Join(dir, "ps.json")
	if err := SaveToFile(DefaultPSeries(), psPath); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	if _, err := LoadFromFile(psPath); err != nil {
		t.Errorf("LoadFromFile pseries: %v", err)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestProfileValidate(t *testing.T) {
	bad := DefaultISO1328()
	bad.Step = 1
	if err := bad.Validate(); err == nil {
		t.Error("step 1 accepted")
	}

	ps := DefaultPSeries()
	ps.Bands[0].WLimit = 0
	if err := ps.Validate(); err == nil {
		t.Error("zero W limit accepted")
	}
}
