package mka

import (
	"regexp"
	"strconv"
	"strings"

	"gear-metrology/internal/gear"
)

// Pitch table blocks look like:
//
//	Teilung: linke Zahnflanke
//	Zahn-Nr.   fp      Fp      Fr
//	  1       0.8     0.8     1.2
//	  2      -0.3     0.5     0.9
var (
	rePitchFlank  = regexp.MustCompile(`(?i)(linke|rechte)\s+Zahnflanke`)
	rePitchHeader = regexp.MustCompile(`(?i)Zahn-Nr\.?\s+fp\s+Fp\s+Fr`)
	rePitchRow    = regexp.MustCompile(`^\s*(\d+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s+(-?[\d.]+)\s*$`)
)

// parsePitchTables extracts the per-flank pitch rows, when present. A flank
// announcement without a following column header or rows is recorded as a
// problem, not a fatal error.
func (f *File) parsePitchTables(lines []string) {
	for i := 0; i < len(lines); i++ {
		m := rePitchFlank.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		flank := gear.FlankRight
		if strings.EqualFold(m[1], "linke") {
			flank = gear.FlankLeft
		}

		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j >= len(lines) || !rePitchHeader.MatchString(lines[j]) {
			f.Problems = append(f.Problems, &ParseError{
				Section: "Teilung", Msg: "pitch table for " + flank.String() + " flank has no column header",
			})
			continue
		}

		table := gear.PitchTable{Flank: flank}
		for j++; j < len(lines); j++ {
			row := rePitchRow.FindStringSubmatch(lines[j])
			if row == nil {
				break
			}
			tooth, _ := strconv.Atoi(row[1])
			fp, _ := strconv.ParseFloat(row[2], 64)
			fpCum, _ := strconv.ParseFloat(row[3], 64)
			fr, _ := strconv.ParseFloat(row[4], 64)
			table.Teeth = append(table.Teeth, tooth)
			table.Single = append(table.Single, fp)
			table.Cum = append(table.Cum, fpCum)
			table.Runout = append(table.Runout, fr)
		}

		if len(table.Teeth) == 0 {
			f.Problems = append(f.Problems, &ParseError{
				Section: "Teilung", Msg: "pitch table for " + flank.String() + " flank has no rows",
			})
			continue
		}
		f.Pitch[flank] = table
		i = j - 1
	}
}
