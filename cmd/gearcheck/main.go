// Command gearcheck parses an MKA measurement file, runs the full analysis
// pipeline and prints a summary, optionally exporting the metric table.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gear-metrology/internal/analysis"
	"gear-metrology/internal/mka"
	"gear-metrology/internal/tolerance"
	"gear-metrology/internal/version"
)

func main() {
	mkaPath := flag.String("file", "", "Path to MKA measurement file")
	configPath := flag.String("config", "", "YAML analysis config (optional)")
	csvPath := flag.String("csv", "", "Write the metric/verdict table to this CSV file")
	spectrumPath := flag.String("spectrum", "", "Write the harmonic components to this CSV file")
	profilePath := flag.String("profile", "", "Load an extra tolerance profile from a JSON file")
	workers := flag.Int("workers", 0, "Worker pool size (0 keeps the config value)")
	noDetrend := flag.Bool("no-detrend", false, "Skip crown/slope removal")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *mkaPath == "" {
		fmt.Println("Usage: gearcheck -file <measurement.mka> [-config cfg.yaml] [-csv out.csv]")
		os.Exit(1)
	}

	cfg := analysis.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = analysis.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *workers > 0 {
		cfg = cfg.WithWorkers(*workers)
	}
	if *noDetrend {
		cfg = cfg.WithDetrend(false)
	}

	if *profilePath != "" {
		p, err := tolerance.LoadFromFile(*profilePath)
		if err != nil {
			log.Fatalf("profile: %v", err)
		}
		tolerance.Register(p)
		fmt.Printf("Loaded tolerance profile %q\n", p.Name())
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
	fmt.Printf("Gear: z=%d mn=%.3f alpha=%.1f beta=%.1f d0=%.2f mm\n",
		p.ToothCount, p.Module, p.PressureAngle, p.HelixAngle, p.PitchDiameter())
	if file.Info.Operator != "" || file.Info.Date != "" {
		fmt.Printf("Measured by %s on %s\n", file.Info.Operator, file.Info.Date)
	}
	for _, prob := range file.Problems {
		fmt.Fprintf(os.Stderr, "warning: %v\n", prob)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := analysis.Analyze(ctx, file, cfg)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}

	fmt.Printf("\nRun %s (%s)\n", res.RunID, res.Finished.Sub(res.Started))

	fmt.Printf("\nRipple (orders >= %d):\n", rippleThreshold(res))
	for _, rr := range res.Ripple {
		if rr.Err != nil {
			fmt.Printf("  %-5s %-7s  skipped: %v\n", rr.Flank, rr.Direction, rr.Err)
			continue
		}
		fmt.Printf("  %-5s %-7s  W=%8.4f %s  RMS=%8.4f %s", rr.Flank, rr.Direction,
			rr.W, p.DeviationUnit, rr.RMS, p.DeviationUnit)
		if rr.WVerdict != nil {
			fmt.Printf("  [W %s, RMS %s]", rr.WVerdict.State, rr.RMSVerdict.State)
		}
		if rr.Warning != nil {
			fmt.Printf("  (warning: %v)", rr.Warning)
		}
		fmt.Println()
	}

	fmt.Println("\nPitch:")
	for _, pr := range res.Pitch {
		if pr.Err != nil {
			fmt.Printf("  %-5s  skipped: %v\n", pr.Flank, pr.Err)
			continue
		}
		fmt.Printf("  %-5s (%s)  fp=%7.3f  Fp=%7.3f  Fr=%7.3f %s",
			pr.Flank, pr.Source, pr.Metrics.Single, pr.Metrics.Cumulative, pr.Metrics.Runout, p.DeviationUnit)
		if pr.SingleVerdict != nil && pr.SingleVerdict.State == tolerance.Graded {
			fmt.Printf("  [grades fp:%d Fp:%d Fr:%d]",
				pr.SingleVerdict.Grade, pr.CumVerdict.Grade, pr.RunoutVerdict.Grade)
		}
		fmt.Println()
	}

	failures := res.Failures()
	if len(failures) > 0 {
		fmt.Printf("\n%d trace(s) excluded:\n", len(failures))
		for _, e := range failures {
			fmt.Printf("  %v\n", e)
		}
	}

	if *csvPath != "" {
		if err := analysis.ExportCSV(*csvPath, res); err != nil {
			log.Fatalf("csv export: %v", err)
		}
		fmt.Printf("\nMetric table written to %s\n", *csvPath)
	}
	if *spectrumPath != "" {
		f, err := os.Create(*spectrumPath)
		if err != nil {
			log.Fatalf("spectrum export: %v", err)
		}
		if err := analysis.WriteSpectrumCSV(f, res); err != nil {
			f.Close()
			log.Fatalf("spectrum export: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("spectrum export: %v", err)
		}
		fmt.Printf("Spectrum table written to %s\n", *spectrumPath)
	}
}

func rippleThreshold(res *analysis.Result) int {
	for _, rr := range res.Ripple {
		return rr.Threshold
	}
	if res.Config.RippleThreshold > 0 {
		return res.Config.RippleThreshold
	}
	return res.Params.ToothCount
}
