package tolerance

import (
	"fmt"
	"math"

	"gear-metrology/internal/gear"
)

// RippleBand is one row of a P-series table: the limits that apply to gears
// whose module and reference diameter fall inside the band. Ranges are
// half-open, min inclusive and max exclusive; a max of 0 means unbounded.
type RippleBand struct {
	ModuleMin   float64 `json:"moduleMin"`
	ModuleMax   float64 `json:"moduleMax"`
	DiameterMin float64 `json:"diameterMin"`
	DiameterMax float64 `json:"diameterMax"`
	WLimit      float64 `json:"wLimit"`   // um
	RMSLimit    float64 `json:"rmsLimit"` // um
}

func (b RippleBand) contains(module, diameter float64) bool {
	if module < b.ModuleMin || (b.ModuleMax > 0 && module >= b.ModuleMax) {
		return false
	}
	if diameter < b.DiameterMin || (b.DiameterMax > 0 && diameter >= b.DiameterMax) {
		return false
	}
	return true
}

// PSeriesProfile holds Klingelnberg P-series ripple acceptance bands. The
// verdict is a plain pass or fail against the band matching the gear.
type PSeriesProfile struct {
	ProfileName string       `json:"name"`
	Bands       []RippleBand `json:"bands"`
}

// DefaultPSeries returns the built-in P-series ripple table for ground
// automotive gearing.
func DefaultPSeries() *PSeriesProfile {
	return &PSeriesProfile{
		ProfileName: "pseries",
		Bands: []RippleBand{
			{ModuleMin: 0, ModuleMax: 1.5, DiameterMin: 0, DiameterMax: 100, WLimit: 1.2, RMSLimit: 0.4},
			{ModuleMin: 0, ModuleMax: 1.5, DiameterMin: 100, DiameterMax: 0, WLimit: 1.6, RMSLimit: 0.5},
			{ModuleMin: 1.5, ModuleMax: 4, DiameterMin: 0, DiameterMax: 100, WLimit: 1.6, RMSLimit: 0.5},
			{ModuleMin: 1.5, ModuleMax: 4, DiameterMin: 100, DiameterMax: 300, WLimit: 2.0, RMSLimit: 0.6},
			{ModuleMin: 1.5, ModuleMax: 4, DiameterMin: 300, DiameterMax: 0, WLimit: 2.5, RMSLimit: 0.8},
			{ModuleMin: 4, ModuleMax: 0, DiameterMin: 0, DiameterMax: 300, WLimit: 2.5, RMSLimit: 0.8},
			{ModuleMin: 4, ModuleMax: 0, DiameterMin: 300, DiameterMax: 0, WLimit: 3.2, RMSLimit: 1.0},
		},
	}
}

func (p *PSeriesProfile) Name() string { return p.ProfileName }

// Validate checks the table for internal consistency.
func (p *PSeriesProfile) Validate() error {
	if p.ProfileName == "" {
		return fmt.Errorf("pseries profile has no name")
	}
	if len(p.Bands) == 0 {
		return fmt.Errorf("pseries profile %q has no bands", p.ProfileName)
	}
	for i, b := range p.Bands {
		if b.WLimit <= 0 || b.RMSLimit <= 0 {
			return fmt.Errorf("pseries profile %q: band %d has non-positive limits", p.ProfileName, i)
		}
		if b.ModuleMax > 0 && b.ModuleMax <= b.ModuleMin {
			return fmt.Errorf("pseries profile %q: band %d module range is empty", p.ProfileName, i)
		}
		if b.DiameterMax > 0 && b.DiameterMax <= b.DiameterMin {
			return fmt.Errorf("pseries profile %q: band %d diameter range is empty", p.ProfileName, i)
		}
	}
	return nil
}

// band returns the first band covering the gear.
func (p *PSeriesProfile) band(params gear.Parameters) (RippleBand, error) {
	d := params.PitchDiameter()
	for _, b := range p.Bands {
		if b.contains(params.Module, d) {
			return b, nil
		}
	}
	return RippleBand{}, fmt.Errorf("profile %q: no band for module %.3f diameter %.1f",
		p.ProfileName, params.Module, d)
}

// Evaluate judges a ripple metric against the band matching the gear.
// A measured value exactly on the limit passes.
func (p *PSeriesProfile) Evaluate(metric Metric, measured float64, params gear.Parameters) (Verdict, error) {
	b, err := p.band(params)
	if err != nil {
		return Verdict{}, err
	}

	var limit float64
	switch metric {
	case MetricRippleW:
		limit = b.WLimit
	case MetricRippleRMS:
		limit = b.RMSLimit
	default:
		return Verdict{}, fmt.Errorf("profile %q does not cover metric %q", p.ProfileName, metric)
	}

	v := Verdict{Profile: p.ProfileName, Metric: metric, Measured: measured, Limit: limit}
	if math.Abs(measured) <= limit {
		v.State = Pass
	} else {
		v.State = Fail
	}
	return v, nil
}
