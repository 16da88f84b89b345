// Command mkadump prints the inventory of an MKA measurement file: header
// parameters, trace coverage per flank and direction, and pitch tables.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gear-metrology/internal/gear"
	"gear-metrology/internal/mka"
	"gear-metrology/internal/version"
)

func main() {
	mkaPath := flag.String("file", "", "Path to MKA measurement file")
	verbose := flag.Bool("v", false, "Also list per-tooth sample counts")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *mkaPath == "" {
		fmt.Println("Usage: mkadump -file <measurement.mka> [-v]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*mkaPath)
	if err != nil {
		log.Fatalf("read: %v", err)
	}
	file, err := mka.Parse(data)
	if err != nil {
		log.Fatalf("parse: %v", err)
	}

	p := file.Params
	fmt.Println("Header:")
	fmt.Printf("  teeth           %d\n", p.ToothCount)
	fmt.Printf("  module          %.4f mm\n", p.Module)
	fmt.Printf("  pressure angle  %.2f deg\n", p.PressureAngle)
	fmt.Printf("  helix angle     %.2f deg\n", p.HelixAngle)
	fmt.Printf("  face width      %.2f mm\n", p.Width)
	fmt.Printf("  tip diameter    %.2f mm\n", p.TipDiameter)
	fmt.Printf("  root diameter   %.2f mm\n", p.RootDiameter)
	fmt.Printf("  pitch diameter  %.2f mm (derived)\n", p.PitchDiameter())
	fmt.Printf("  base diameter   %.2f mm (derived)\n", p.BaseDiameter())
	if p.AccuracyGrade > 0 {
		fmt.Printf("  tolerance class %d\n", p.AccuracyGrade)
	}

	if file.Info != (mka.Info{}) {
		fmt.Println("\nMetadata:")
		printIf := func(label, v string) {
			if v != "" {
				fmt.Printf("  %-12s %s\n", label, v)
			}
		}
		printIf("operator", file.Info.Operator)
		printIf("date", file.Info.Date)
		printIf("order no", file.Info.OrderNo)
		printIf("drawing no", file.Info.DrawingNo)
		printIf("customer", file.Info.Customer)
		printIf("location", file.Info.Location)
	}

	fmt.Println("\nTraces:")
	for _, dir := range []gear.Direction{gear.DirectionProfile, gear.DirectionLead} {
		sets := file.Profile
		if dir == gear.DirectionLead {
			sets = file.Lead
		}
		for _, flank := range []gear.Flank{gear.FlankLeft, gear.FlankRight} {
			set, ok := sets[flank]
			if !ok {
				continue
			}
			complete := "complete"
			if err := set.Complete(p.ToothCount); err != nil {
				complete = "partial"
			}
			fmt.Printf("  %-7s %-5s  %d/%d teeth (%s)\n", dir, flank, set.Len(), p.ToothCount, complete)
			if *verbose {
				for _, t := range set.Teeth() {
					c := set.Curves[t]
					fmt.Printf("    tooth %2d  %4d samples", t, c.Len())
					if c.Outliers > 0 {
						fmt.Printf("  %d outlier(s)", c.Outliers)
					}
					fmt.Println()
				}
			}
		}
	}

	if len(file.Pitch) > 0 {
		fmt.Println("\nPitch tables:")
		for _, flank := range []gear.Flank{gear.FlankLeft, gear.FlankRight} {
			if table, ok := file.Pitch[flank]; ok {
				fmt.Printf("  %-5s  %d rows\n", flank, len(table.Teeth))
			}
		}
	}

	if len(file.Problems) > 0 {
		fmt.Printf("\nProblems (%d):\n", len(file.Problems))
		for _, prob := range file.Problems {
			fmt.Printf("  %v\n", prob)
		}
	}
}
