// Package mka decodes Klingelnberg MKA measurement files into the canonical
// gear model: header parameters, per-tooth profile and lead traces, and the
// pitch tables some files carry. The decode is pure: no unit conversion, no
// silent repair of measured values.
package mka

import (
	"fmt"

	"gear-metrology/internal/gear"
)

// ParseError reports a malformed or missing file section. Per-curve failures
// are isolated: the affected curve is dropped, the error recorded, and the
// remaining sections still parsed.
type ParseError struct {
	Section string
	Tooth   int // 0 when the error is not tied to one tooth
	Msg     string
}

func (e *ParseError) Error() string {
	if e.Tooth > 0 {
		return fmt.Sprintf("mka: section %q tooth %d: %s", e.Section, e.Tooth, e.Msg)
	}
	return fmt.Sprintf("mka: section %q: %s", e.Section, e.Msg)
}

// Info holds the measurement metadata block: who measured what, when.
type Info struct {
	Operator  string
	Date      string
	OrderNo   string
	DrawingNo string
	Customer  string
	Location  string
}

// File is the full decoded content of one MKA file.
type File struct {
	Params gear.Parameters
	Info   Info

	// Per-flank trace sets. A map entry is absent when the file carries no
	// section for that flank; a present set may still be partial.
	Profile map[gear.Flank]*gear.ToothSet
	Lead    map[gear.Flank]*gear.ToothSet

	// Pitch tables as stored in the file, when present.
	Pitch map[gear.Flank]gear.PitchTable

	ProfileRange gear.EvalRange // diameters da/de (measured), d1/d2 (evaluated)
	LeadRange    gear.EvalRange // axial ba/be, b1/b2

	// Problems lists the isolated per-section failures encountered while
	// parsing. A non-empty list does not invalidate the rest of the file.
	Problems []*ParseError
}

// ProfileSet returns the profile tooth set for a flank, or nil.
func (f *File) ProfileSet(flank gear.Flank) *gear.ToothSet {
	return f.Profile[flank]
}

// LeadSet returns the lead tooth set for a flank, or nil.
func (f *File) LeadSet(flank gear.Flank) *gear.ToothSet {
	return f.Lead[flank]
}

// undefinedValue is the sentinel Klingelnberg writes for missing samples.
const undefinedValue = -2147483.648

// Parse decodes raw MKA file bytes. It fails outright only when the header
// is unusable (no positive tooth count, no module); curve-level problems are
// recorded in File.Problems and the unaffected sections returned.
func Parse(data []byte) (*File, error) {
	lines := splitLines(data)

	f := &File{
		Profile: make(map[gear.Flank]*gear.ToothSet),
		Lead:    make(map[gear.Flank]*gear.ToothSet),
		Pitch:   make(map[gear.Flank]gear.PitchTable),
	}

	if err := f.parseHeader(lines); err != nil {
		return nil, err
	}
	if err := f.Params.Validate(); err != nil {
		return nil, &ParseError{Section: "header", Msg: err.Error()}
	}

	f.parseCurves(lines)
	f.parsePitchTables(lines)

	return f, nil
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			end := i
			if end > start && data[end-1] == '\r' {
				end--
			}
			lines = append(lines, string(data[start:end]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}
