package mka

import (
	"regexp"
	"strconv"
	"strings"
)

// Header field patterns. The umlaut in "Zähnezahl" is frequently mangled by
// the machine's Latin-1 output, so any single byte is accepted in its place.
// English-language exports are matched as fallbacks.
var (
	reModule        = regexp.MustCompile(`(?i)Normalmodul\s*mn[^:]*:\s*([\d.]+)`)
	reTeeth         = regexp.MustCompile(`(?i)Z.?hnezahl\s*z[^:]*:\s*(\d+)`)
	reTeethEN       = regexp.MustCompile(`(?i)(?:Number|No\.)\s*of\s*teeth[^:]*:\s*(\d+)`)
	rePressureAngle = regexp.MustCompile(`(?i)Eingriffswinkel\s*alpha[^:]*:\s*([\d.]+)`)
	reHelixAngle    = regexp.MustCompile(`(?i)Schr.?gungswinkel[^:]*:\s*(-?[\d.]+)`)
	reHelixAngleEN  = regexp.MustCompile(`(?i)Helix\s*angle[^:]*:\s*(-?[\d.]+)`)
	reWidth         = regexp.MustCompile(`(?i)Zahnbreite\s*b[^:]*:\s*([\d.]+)`)
	reTipDiam       = regexp.MustCompile(`(?i)Kopfkreisdurchmesser[^:]*:\s*([\d.]+)`)
	reRootDiam      = regexp.MustCompile(`(?i)Fu.?kreisdurchmesser[^:]*:\s*([\d.]+)`)
	reGrade         = regexp.MustCompile(`(?i)Toleranzklasse[^:]*:\s*(\d+)`)

	// Evaluation and measurement ranges. Profile extents are diameters
	// (da/d1/d2/de), lead extents axial positions (ba/b1/b2/be).
	reRangeField = regexp.MustCompile(`(?i)\b(da|de|d1|d2|ba|be|b1|b2)\s*\[?mm\]?\s*\.*:\s*(-?[\d.]+)`)

	reOperator = regexp.MustCompile(`(?i)(?:Bedieners|Operator)[^:]*:\s*(.+)`)
	reDate     = regexp.MustCompile(`(?i)(?:Datum|Date)[^:]*:\s*(\d{2}\.\d{2}\.\d{2,4})`)
	reOrderNo  = regexp.MustCompile(`(?i)(?:Auftrags-Nr|Order\s*No)\.?[^:]*:\s*(.+)`)
	reDrawing  = regexp.MustCompile(`(?i)(?:Zeichnungs-Nr|Drawing\s*No)\.?[^:]*:\s*(.+)`)
	reCustomer = regexp.MustCompile(`(?i)(?:Kunde/Masch-Nr\.|Cust\./Mach\.\s*No\.)[^:]*:\s*(.+)`)
	reLocation = regexp.MustCompile(`(?i)(?:Pr.?fort|Loc\.\s*of\s*check)[^:]*:\s*(.+)`)
)

// parseHeader scans the file lines for the gear parameter and metadata
// fields. Declared units are read through unchanged; conversion is the
// caller's concern.
func (f *File) parseHeader(lines []string) error {
	f.Params.PositionUnit = "mm"
	f.Params.DeviationUnit = "um"

	for _, line := range lines {
		// Curve data begins after the header; stop scanning there.
		if isCurveHeader(line) {
			break
		}

		if f.Params.Module == 0 {
			if m := reModule.FindStringSubmatch(line); m != nil {
				f.Params.Module, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if f.Params.ToothCount == 0 {
			if m := reTeeth.FindStringSubmatch(line); m != nil {
				f.Params.ToothCount, _ = strconv.Atoi(m[1])
			} else if m := reTeethEN.FindStringSubmatch(line); m != nil {
				f.Params.ToothCount, _ = strconv.Atoi(m[1])
			}
		}
		if f.Params.PressureAngle == 0 {
			if m := rePressureAngle.FindStringSubmatch(line); m != nil {
				f.Params.PressureAngle, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if f.Params.HelixAngle == 0 {
			if m := reHelixAngle.FindStringSubmatch(line); m != nil {
				f.Params.HelixAngle, _ = strconv.ParseFloat(m[1], 64)
			} else if m := reHelixAngleEN.FindStringSubmatch(line); m != nil {
				f.Params.HelixAngle, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if f.Params.Width == 0 {
			if m := reWidth.FindStringSubmatch(line); m != nil {
				f.Params.Width, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if f.Params.TipDiameter == 0 {
			if m := reTipDiam.FindStringSubmatch(line); m != nil {
				f.Params.TipDiameter, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if f.Params.RootDiameter == 0 {
			if m := reRootDiam.FindStringSubmatch(line); m != nil {
				f.Params.RootDiameter, _ = strconv.ParseFloat(m[1], 64)
			}
		}
		if f.Params.AccuracyGrade == 0 {
			if m := reGrade.FindStringSubmatch(line); m != nil {
				f.Params.AccuracyGrade, _ = strconv.Atoi(m[1])
			}
		}

		if m := reRangeField.FindStringSubmatch(line); m != nil {
			v, _ := strconv.ParseFloat(m[2], 64)
			f.setRangeField(strings.ToLower(m[1]), v)
		}

		f.parseInfoLine(line)
	}

	if f.Params.ToothCount == 0 {
		return &ParseError{Section: "header", Msg: "tooth count not found"}
	}
	if f.Params.Module == 0 {
		return &ParseError{Section: "header", Msg: "normal module not found"}
	}
	return nil
}

func (f *File) setRangeField(name string, v float64) {
	switch name {
	case "da":
		f.ProfileRange.MeasStart = v
	case "de":
		f.ProfileRange.MeasEnd = v
	case "d1":
		f.ProfileRange.EvalStart = v
	case "d2":
		f.ProfileRange.EvalEnd = v
	case "ba":
		f.LeadRange.MeasStart = v
	case "be":
		f.LeadRange.MeasEnd = v
	case "b1":
		f.LeadRange.EvalStart = v
	case "b2":
		f.LeadRange.EvalEnd = v
	}
}

func (f *File) parseInfoLine(line string) {
	set := func(dst *string, re *regexp.Regexp) {
		if *dst != "" {
			return
		}
		if m := re.FindStringSubmatch(line); m != nil {
			*dst = strings.TrimSpace(m[1])
		}
	}
	set(&f.Info.Operator, reOperator)
	set(&f.Info.Date, reDate)
	set(&f.Info.OrderNo, reOrderNo)
	set(&f.Info.DrawingNo, reDrawing)
	set(&f.Info.Customer, reCustomer)
	set(&f.Info.Location, reLocation)
}
