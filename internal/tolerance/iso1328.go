package tolerance

import (
	"fmt"
	"math"

	"gear-metrology/internal/gear"
)

// Coefficients describe one ISO 1328-1 allowable-value formula at the
// reference grade:
//
//	limit = A*mn + B*sqrt(d) + C   [um]
//
// where mn is the normal module and d the reference diameter, both in mm.
type Coefficients struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// ISO1328Profile grades pitch deviations per ISO 1328-1. Each coarser grade
// multiplies the reference-grade limit by Step; the verdict reports the
// finest grade the measured value still satisfies.
type ISO1328Profile struct {
	ProfileName    string                  `json:"name"`
	ReferenceGrade int                     `json:"referenceGrade"`
	GradeMin       int                     `json:"gradeMin"`
	GradeMax       int                     `json:"gradeMax"`
	Step           float64                 `json:"step"`
	Formulas       map[Metric]Coefficients `json:"formulas"`
}

// DefaultISO1328 returns the built-in ISO 1328-1:2013 table. The single
// pitch, cumulative pitch and runout formulas are the standard's allowable
// values at grade 5; runout reuses the cumulative formula scaled by 0.8.
func DefaultISO1328() *ISO1328Profile {
	return &ISO1328Profile{
		ProfileName:    "iso1328",
		ReferenceGrade: 5,
		GradeMin:       1,
		GradeMax:       12,
		Step:           math.Sqrt2,
		Formulas: map[Metric]Coefficients{
			MetricSinglePitch: {A: 0.3, B: 0.12, C: 4},
			MetricCumPitch:    {A: 0.3, B: 1.25, C: 7},
			MetricRunout:      {A: 0.24, B: 1.0, C: 5.6},
		},
	}
}

func (p *ISO1328Profile) Name() string { return p.ProfileName }

// Validate checks the table for internal consistency.
func (p *ISO1328Profile) Validate() error {
	if p.ProfileName == "" {
		return fmt.Errorf("iso1328 profile has no name")
	}
	if p.GradeMin > p.GradeMax {
		return fmt.Errorf("iso1328 profile %q: grade range %d..%d is empty", p.ProfileName, p.GradeMin, p.GradeMax)
	}
	if p.ReferenceGrade < p.GradeMin || p.ReferenceGrade > p.GradeMax {
		return fmt.Errorf("iso1328 profile %q: reference grade %d outside %d..%d",
			p.ProfileName, p.ReferenceGrade, p.GradeMin, p.GradeMax)
	}
	if p.Step <= 1 {
		return fmt.Errorf("iso1328 profile %q: grade step %g must exceed 1", p.ProfileName, p.Step)
	}
	if len(p.Formulas) == 0 {
		return fmt.Errorf("iso1328 profile %q has no formulas", p.ProfileName)
	}
	return nil
}

// Limit returns the allowable value in micrometers for a metric at a grade.
func (p *ISO1328Profile) Limit(metric Metric, grade int, params gear.Parameters) (float64, error) {
	c, ok := p.Formulas[metric]
	if !ok {
		return 0, fmt.Errorf("profile %q does not cover metric %q", p.ProfileName, metric)
	}
	if grade < p.GradeMin || grade > p.GradeMax {
		return 0, fmt.Errorf("profile %q: grade %d outside %d..%d", p.ProfileName, grade, p.GradeMin, p.GradeMax)
	}
	base := c.A*params.Module + c.B*math.Sqrt(params.PitchDiameter()) + c.C
	return base * math.Pow(p.Step, float64(grade-p.ReferenceGrade)), nil
}

// Evaluate finds the finest grade whose allowable value still covers the
// measured deviation. Exactly reaching a limit satisfies that grade. A value
// beyond the coarsest grade fails with the coarsest limit reported.
func (p *ISO1328Profile) Evaluate(metric Metric, measured float64, params gear.Parameters) (Verdict, error) {
	v := Verdict{Profile: p.ProfileName, Metric: metric, Measured: measured}

	abs := math.Abs(measured)
	for grade := p.GradeMin; grade <= p.GradeMax; grade++ {
		limit, err := p.Limit(metric, grade, params)
		if err != nil {
			return Verdict{}, err
		}
		if abs <= limit {
			v.State = Graded
			v.Grade = grade
			v.Limit = limit
			return v, nil
		}
	}

	limit, err := p.Limit(metric, p.GradeMax, params)
	if err != nil {
		return Verdict{}, err
	}
	v.State = Fail
	v.Grade = p.GradeMax
	v.Limit = limit
	return v, nil
}
