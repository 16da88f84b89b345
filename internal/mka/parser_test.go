package mka

import (
	"strings"
	"testing"

	"gear-metrology/internal/gear"
)

const sampleMKA = `KLINGELNBERG P 26   Messprotokoll
1 :Datum................: 12.03.24
4 :Name des Bedieners...: Smith
5 :Auftrags-Nr..........: A-100
Zähnezahl z..........:        4
Normalmodul mn [mm]..:    2.500
Eingriffswinkel alpha:   20.000
Schrägungswinkel beta:   15.000
Zahnbreite b [mm]....:   30.000
Kopfkreisdurchmesser.:   57.500
Toleranzklasse.......:        6
da [mm]....:   50.000
de [mm]....:   55.000
ba [mm]....:    5.000
be [mm]....:   25.000
Profil: Zahn-Nr.: 1 links / 5 Werte / z= 4
   0.10   0.20   0.30
   0.20   0.10
Profil: Zahn-Nr.: 2 links / 6 Werte / z= 4
   0.15   0.25 -2147483.648   0.35
   0.25   0.15
Profil: Zahn-Nr.: 3 links / 5 Werte / z= 4
   0.05   0.10   0.15
   0.10   0.05
Profil: Zahn-Nr.: 4 links / 5 Werte / z= 4
   0.30   0.20   0.10
   0.20   0.30
Profil: Zahn-Nr.: 9 links / 5 Werte / z= 4
   0.10   0.10   0.10
   0.10   0.10
Flankenlinie: Zahn-Nr.: 1 links / 4 Werte / d= 52.0
   0.40   0.30   0.20   0.10
Flankenlinie: Zahn-Nr.: 2 links / 4 Werte / d= 52.0
   0.10   0.20   0.30   0.40
Flankenlinie: Zahn-Nr.: 4 links / 4 Werte / d= 52.0
   0.20   0.20   0.20   0.20
Flankenlinie: Zahn-Nr.: 3 rechts / 4 Werte / d= 52.0
Teilung: linke Zahnflanke
Zahn-Nr.   fp       Fp       Fr
  1        0.80     0.80     1.20
  2       -0.30     0.50     0.90
  3        0.10     0.60     1.50
  4       -0.60     0.00     1.10
`

func TestParseHeader(t *testing.T) {
	f, err := Parse([]byte(sampleMKA))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	p := f.Params
	if p.ToothCount != 4 {
		t.Errorf("tooth count = %d, want 4", p.ToothCount)
	}
	if p.Module != 2.5 {
		t.Errorf("module = %g, want 2.5", p.Module)
	}
	if p.PressureAngle != 20 || p.HelixAngle != 15 {
		t.Errorf("angles = (%g, %g), want (20, 15)", p.PressureAngle, p.HelixAngle)
	}
	if p.Width != 30 || p.TipDiameter != 57.5 {
		t.Errorf("width/tip = (%g, %g), want (30, 57.5)", p.Width, p.TipDiameter)
	}
	if p.AccuracyGrade != 6 {
		t.Errorf("accuracy grade = %d, want 6", p.AccuracyGrade)
	}

	if f.ProfileRange.MeasStart != 50 || f.ProfileRange.MeasEnd != 55 {
		t.Errorf("profile range = %+v, want da=50 de=55", f.ProfileRange)
	}
	if f.LeadRange.MeasStart != 5 || f.LeadRange.MeasEnd != 25 {
		t.Errorf("lead range = %+v, want ba=5 be=25", f.LeadRange)
	}

	if f.Info.Operator != "Smith" {
		t.Errorf("operator = %q, want Smith", f.Info.Operator)
	}
	if f.Info.Date != "12.03.24" {
		t.Errorf("date = %q", f.Info.Date)
	}
	if f.Info.OrderNo != "A-100" {
		t.Errorf("order no = %q", f.Info.OrderNo)
	}
}

func TestParseCurves(t *testing.T) {
	f, err := Parse([]byte(sampleMKA))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	left := f.ProfileSet(gear.FlankLeft)
	if left == nil {
		t.Fatal("no left profile set")
	}
	if left.Len() != 4 {
		t.Fatalf("left profile has %d teeth, want 4", left.Len())
	}
	if err := left.Complete(4); err != nil {
		t.Errorf("left profile set not complete: %v", err)
	}

	// The undefined sentinel in tooth 2 is dropped, not kept as a value.
	if n := left.Curves[2].Len(); n != 5 {
		t.Errorf("tooth 2 has %d samples, want 5 after sentinel removal", n)
	}

	// Profile positions come from the declared diameter range as roll lengths.
	c1 := left.Curves[1]
	if c1.Positions[0] <= 0 {
		t.Errorf("first roll length = %g, want > 0", c1.Positions[0])
	}
	wantLo := f.Params.RollLength(50)
	if diff := c1.Positions[0] - wantLo; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("first position = %g, want roll length of da %g", c1.Positions[0], wantLo)
	}
}

func TestParsePartialLeadSet(t *testing.T) {
	f, err := Parse([]byte(sampleMKA))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	lead := f.LeadSet(gear.FlankLeft)
	if lead == nil {
		t.Fatal("no left lead set")
	}
	if lead.Len() != 3 {
		t.Fatalf("left lead has %d teeth, want 3 (tooth 3 missing)", lead.Len())
	}
	if _, ok := lead.Curves[3]; ok {
		t.Error("tooth 3 present in lead set despite missing block")
	}
	if err := lead.Complete(4); err == nil {
		t.Error("partial lead set passes the closed-gear check")
	}

	// The empty right-flank block produced no set, only a recorded problem.
	if f.LeadSet(gear.FlankRight) != nil {
		t.Error("empty right lead block created a set")
	}
}

func TestParseIsolatesCurveProblems(t *testing.T) {
	f, err := Parse([]byte(sampleMKA))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var outOfRange, empty bool
	for _, p := range f.Problems {
		if p.Tooth == 9 {
			outOfRange = true
		}
		if strings.Contains(p.Msg, "no samples") {
			empty = true
		}
	}
	if !outOfRange {
		t.Error("tooth 9 out-of-range problem not recorded")
	}
	if !empty {
		t.Error("empty curve block problem not recorded")
	}

	// The out-of-range tooth never lands in a set.
	if _, ok := f.ProfileSet(gear.FlankLeft).Curves[9]; ok {
		t.Error("tooth 9 stored despite being out of range")
	}
}

func TestParsePitchTable(t *testing.T) {
	f, err := Parse([]byte(sampleMKA))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	table, ok := f.Pitch[gear.FlankLeft]
	if !ok {
		t.Fatal("no left pitch table")
	}
	if len(table.Teeth) != 4 {
		t.Fatalf("pitch table has %d rows, want 4", len(table.Teeth))
	}
	if table.Single[0] != 0.8 || table.Single[1] != -0.3 {
		t.Errorf("fp column = %v", table.Single)
	}
	if table.Runout[2] != 1.5 {
		t.Errorf("Fr row 3 = %g, want 1.5", table.Runout[2])
	}
	if _, ok := f.Pitch[gear.FlankRight]; ok {
		t.Error("right pitch table present without a source block")
	}
}

func TestParseDeclaredCountMismatch(t *testing.T) {
	text := `Zähnezahl z....:  3
Normalmodul mn.: 2.0
Profil: Zahn-Nr.: 1 links / 4 Werte
 0.1 0.2 0.3
Profil: Zahn-Nr.: 2 links / 2 Werte
 0.1 0.2 0.3
`
	f, err := Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var mismatches int
	for _, p := range f.Problems {
		if strings.Contains(p.Msg, "declares") {
			mismatches++
		}
	}
	if mismatches != 2 {
		t.Fatalf("%d count-mismatch problems, want 2: %v", mismatches, f.Problems)
	}

	// The samples are kept as found, neither padded nor truncated.
	set := f.ProfileSet(gear.FlankLeft)
	if n := set.Curves[1].Len(); n != 3 {
		t.Errorf("tooth 1 has %d samples, want the 3 found", n)
	}
	if n := set.Curves[2].Len(); n != 3 {
		t.Errorf("tooth 2 has %d samples, want the 3 found", n)
	}
}

func TestParseSentinelCountsTowardDeclared(t *testing.T) {
	// Tooth 2 of the sample declares 6 values: 5 real plus one undefined
	// sentinel. That is a complete block, not a mismatch.
	f, err := Parse([]byte(sampleMKA))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, p := range f.Problems {
		if p.Tooth == 2 && strings.Contains(p.Msg, "declares") {
			t.Errorf("sentinel-only shortfall reported as mismatch: %v", p)
		}
	}
}

func TestParseUnusableHeader(t *testing.T) {
	noModule := `Zähnezahl z....:  18
Profil: Zahn-Nr.: 1 links / 3 Werte
 0.1 0.2 0.3
`
	if _, err := Parse([]byte(noModule)); err == nil {
		t.Error("file without module accepted")
	}

	noTeeth := `Normalmodul mn.: 2.0
Profil: Zahn-Nr.: 1 links / 3 Werte
 0.1 0.2 0.3
`
	if _, err := Parse([]byte(noTeeth)); err == nil {
		t.Error("file without tooth count accepted")
	}
}

func TestParseEnglishExport(t *testing.T) {
	english := `No. of teeth.........:       18
Normalmodul mn [mm]..:    2.000
Helix angle..........:    0.000
Profil: Zahn-Nr.: 1 left / 3 Werte
 0.1 0.2 0.3
`
	f, err := Parse([]byte(english))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Params.ToothCount != 18 {
		t.Errorf("tooth count = %d, want 18", f.Params.ToothCount)
	}
	set := f.ProfileSet(gear.FlankLeft)
	if set == nil || set.Len() != 1 {
		t.Fatal("english flank keyword not recognized")
	}
}
