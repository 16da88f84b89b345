package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"gear-metrology/internal/tolerance"
)

// csvHeader is the column layout of the metric/verdict export. One row per
// computed metric; verdict columns are empty when no profile judged it.
var csvHeader = []string{
	"run_id", "flank", "direction", "metric", "value", "unit",
	"profile", "limit", "verdict", "grade",
}

// WriteCSV exports every deviation metric and its tolerance verdict as one
// flat table. The export reads only the assembled result; nothing is
// recomputed.
func WriteCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	unit := res.Params.DeviationUnit
	row := func(flank, dir, metric string, value float64, v verdictCols) error {
		return cw.Write([]string{
			res.RunID, flank, dir, metric,
			fmt.Sprintf("%.4f", value), unit,
			v.profile, v.limit, v.state, v.grade,
		})
	}

	for _, rr := range res.Ripple {
		if rr.Err != nil {
			continue
		}
		flank, dir := rr.Flank.String(), rr.Direction.String()
		if err := row(flank, dir, "W", rr.W, verdictColsOf(rr.WVerdict)); err != nil {
			return err
		}
		if err := row(flank, dir, "RMS", rr.RMS, verdictColsOf(rr.RMSVerdict)); err != nil {
			return err
		}
	}

	for _, pr := range res.Pitch {
		if pr.Err != nil {
			continue
		}
		flank := pr.Flank.String()
		if err := row(flank, "", "fp", pr.Metrics.Single, verdictColsOf(pr.SingleVerdict)); err != nil {
			return err
		}
		if err := row(flank, "", "Fp", pr.Metrics.Cumulative, verdictColsOf(pr.CumVerdict)); err != nil {
			return err
		}
		if err := row(flank, "", "Fr", pr.Metrics.Runout, verdictColsOf(pr.RunoutVerdict)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSpectrumCSV exports the harmonic components of every analyzed flank.
func WriteSpectrumCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"run_id", "flank", "direction", "order", "amplitude", "phase"}); err != nil {
		return err
	}
	for _, rr := range res.Ripple {
		if rr.Err != nil {
			continue
		}
		for _, c := range rr.Spectrum {
			err := cw.Write([]string{
				res.RunID, rr.Flank.String(), rr.Direction.String(),
				fmt.Sprintf("%d", c.Order),
				fmt.Sprintf("%.6f", c.Amplitude),
				fmt.Sprintf("%.6f", c.Phase),
			})
			if err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the metric table to a file.
func ExportCSV(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteCSV(f, res); err != nil {
		return err
	}
	return f.Close()
}

type verdictCols struct {
	profile, limit, state, grade string
}

func verdictColsOf(v *tolerance.Verdict) verdictCols {
	if v == nil {
		return verdictCols{}
	}
	cols := verdictCols{
		profile: v.Profile,
		limit:   fmt.Sprintf("%.4f", v.Limit),
		state:   v.State.String(),
	}
	if v.Grade > 0 {
		cols.grade = fmt.Sprintf("%d", v.Grade)
	}
	return cols
}
