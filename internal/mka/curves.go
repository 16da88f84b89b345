package mka

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gear-metrology/internal/gear"
)

// Curve block headers, e.g.
//
//	Profil:       Zahn-Nr.: 3 links  / 480 Werte / z= 21.0
//	Flankenlinie: Zahn-Nr.: 7 rechts / 915 Werte / d= 47.82
var reCurveHeader = regexp.MustCompile(
	`(?i)^(Profil|Flankenlinie):\s*Zahn-Nr\.?:\s*(\d+)[a-z]?\s+(links|rechts|left|right)(?:\s*/\s*(\d+)\s*Werte)?`)

var reNumber = regexp.MustCompile(`[-+]?\d*\.?\d+`)

func isCurveHeader(line string) bool {
	return reCurveHeader.MatchString(line)
}

// parseCurves walks the data sections and fills the per-flank tooth sets.
// Failures are isolated per curve: the ParseError is recorded and scanning
// continues with the next block.
func (f *File) parseCurves(lines []string) {
	for i := 0; i < len(lines); i++ {
		m := reCurveHeader.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		section := m[1]
		tooth, _ := strconv.Atoi(m[2])
		flank := flankOf(m[3])
		declared := 0
		if m[4] != "" {
			declared, _ = strconv.Atoi(m[4])
		}

		dir := gear.DirectionProfile
		if strings.EqualFold(section, "Flankenlinie") {
			dir = gear.DirectionLead
		}

		values, dropped, next := collectValues(lines, i+1)
		i = next - 1

		if tooth < 1 || tooth > f.Params.ToothCount {
			f.Problems = append(f.Problems, &ParseError{
				Section: section, Tooth: tooth,
				Msg: "tooth index outside 1.." + strconv.Itoa(f.Params.ToothCount),
			})
			continue
		}
		if len(values) == 0 {
			f.Problems = append(f.Problems, &ParseError{
				Section: section, Tooth: tooth, Msg: "curve block has no samples",
			})
			continue
		}
		// Undefined-sentinel samples count toward the declared total; any
		// other mismatch is recorded, and the samples kept as found.
		if found := len(values) + dropped; declared > 0 && found != declared {
			f.Problems = append(f.Problems, &ParseError{
				Section: section, Tooth: tooth,
				Msg: fmt.Sprintf("block declares %d values, found %d", declared, found),
			})
		}

		curve := gear.Curve{
			Tooth:      tooth,
			Flank:      flank,
			Direction:  dir,
			Positions:  f.positionsFor(dir, len(values)),
			Deviations: values,
			Outliers:   countOutliers(values),
		}
		if err := curve.Validate(); err != nil {
			f.Problems = append(f.Problems, &ParseError{Section: section, Tooth: tooth, Msg: err.Error()})
			continue
		}

		f.setFor(dir, flank).Curves[tooth] = curve
	}
}

func flankOf(s string) gear.Flank {
	switch s {
	case "links", "left", "Links", "Left":
		return gear.FlankLeft
	default:
		return gear.FlankRight
	}
}

func (f *File) setFor(dir gear.Direction, flank gear.Flank) *gear.ToothSet {
	sets := f.Profile
	if dir == gear.DirectionLead {
		sets = f.Lead
	}
	if sets[flank] == nil {
		sets[flank] = gear.NewToothSet(flank, dir)
	}
	return sets[flank]
}

// collectValues reads the numeric lines following a curve header until the
// next section. Samples equal to the undefined sentinel are dropped and
// counted. Returns the kept values, the dropped-sentinel count, and the
// index of the first unconsumed line.
func collectValues(lines []string, start int) (values []float64, dropped, next int) {
	i := start
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}
		if startsWithLetter(line) {
			break
		}
		for _, tok := range reNumber.FindAllString(line, -1) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				continue
			}
			if math.Abs(v-undefinedValue) < 0.001 {
				dropped++
				continue
			}
			values = append(values, v)
		}
	}
	return values, dropped, i
}

func startsWithLetter(line string) bool {
	for _, r := range line {
		if r == ' ' || r == '\t' {
			continue
		}
		return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
	}
	return false
}

// positionsFor synthesizes the strictly increasing sample positions for a
// trace of n samples. Profile samples run along the involute roll length
// between the measured diameters da..de; lead samples along the axial span
// ba..be. Without declared ranges the sample index is used, which keeps the
// monotonicity invariant without inventing units.
func (f *File) positionsFor(dir gear.Direction, n int) []float64 {
	var lo, hi float64
	switch dir {
	case gear.DirectionProfile:
		r := f.ProfileRange
		if r.MeasEnd > r.MeasStart && r.MeasStart > 0 {
			lo = f.Params.RollLength(r.MeasStart)
			hi = f.Params.RollLength(r.MeasEnd)
		} else if r.EvalEnd > r.EvalStart && r.EvalStart > 0 {
			lo = f.Params.RollLength(r.EvalStart)
			hi = f.Params.RollLength(r.EvalEnd)
		}
	case gear.DirectionLead:
		r := f.LeadRange
		if r.MeasEnd > r.MeasStart {
			lo, hi = r.MeasStart, r.MeasEnd
		} else if r.EvalEnd > r.EvalStart {
			lo, hi = r.EvalStart, r.EvalEnd
		}
	}

	pos := make([]float64, n)
	if hi > lo && n > 1 {
		step := (hi - lo) / float64(n-1)
		for i := range pos {
			pos[i] = lo + float64(i)*step
		}
		return pos
	}
	for i := range pos {
		pos[i] = float64(i)
	}
	return pos
}

// countOutliers flags samples farther than 5 MAD from the median. The
// values are passed through unmodified; the count lets callers decide.
func countOutliers(values []float64) int {
	if len(values) < 5 {
		return 0
	}
	med := median(values)
	dev := make([]float64, len(values))
	for i, v := range values {
		dev[i] = math.Abs(v - med)
	}
	mad := median(dev)
	threshold := 5 * mad
	if mad == 0 {
		threshold = 1
	}
	count := 0
	for _, v := range values {
		if math.Abs(v-med) > threshold {
			count++
		}
	}
	return count
}

func median(values []float64) float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
