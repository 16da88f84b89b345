package analysis

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"testing"
)

func analyzedResult(t *testing.T) *Result {
	t.Helper()
	file := syntheticFile(12, 16, func(theta float64) float64 {
		return 1.5 * math.Cos(4*theta)
	})
	res, err := Analyze(context.Background(), file, DefaultConfig().WithDetrend(false))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func TestWriteCSV(t *testing.T) {
	res := analyzedResult(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, res); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("%d rows, want header plus data", len(records))
	}
	if records[0][0] != "run_id" || records[0][3] != "metric" {
		t.Errorf("unexpected header %v", records[0])
	}

	metrics := map[string]bool{}
	for _, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			t.Fatalf("row has %d columns, want %d", len(rec), len(csvHeader))
		}
		if rec[0] != res.RunID {
			t.Errorf("row run ID %q, want %q", rec[0], res.RunID)
		}
		metrics[rec[3]] = true
	}
	for _, want := range []string{"W", "RMS", "fp", "Fp", "Fr"} {
		if !metrics[want] {
			t.Errorf("metric %s missing from export", want)
		}
	}
}

func TestWriteSpectrumCSV(t *testing.T) {
	res := analyzedResult(t)

	var buf bytes.Buffer
	if err := WriteSpectrumCSV(&buf, res); err != nil {
		t.Fatalf("WriteSpectrumCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(records) < 2 {
		t.Fatal("no component rows exported")
	}

	found := false
	for _, rec := range records[1:] {
		if rec[3] == "4" {
			found = true
		}
	}
	if !found {
		t.Error("order-4 component missing from spectrum export")
	}
}
