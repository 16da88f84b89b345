package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gear-metrology/internal/detrend"
	"gear-metrology/internal/gear"
	"gear-metrology/internal/mka"
	"gear-metrology/internal/pitch"
	"gear-metrology/internal/spectral"
	"gear-metrology/internal/tolerance"
)

// Key identifies one measured trace.
type Key struct {
	Flank     gear.Flank
	Direction gear.Direction
	Tooth     int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/tooth %d", k.Flank, k.Direction, k.Tooth)
}

// ToothResult is the per-trace outcome of the preprocessing stage. A non-nil
// Err means the trace was excluded from the closed-gear analyses.
type ToothResult struct {
	Key      Key
	Samples  int
	Outliers int
	Err      error
}

// RippleResult is the spectral outcome for one flank and direction, computed
// on the merged whole-gear curve.
type RippleResult struct {
	Flank     gear.Flank
	Direction gear.Direction

	Spectrum  spectral.Spectrum
	Threshold int     // first order counted as ripple
	W         float64 // sum of ripple amplitudes
	RMS       float64 // RMS of the ripple-only reconstruction

	WVerdict   *tolerance.Verdict
	RMSVerdict *tolerance.Verdict

	Warning *spectral.Warning // non-nil when the iteration cap was hit
	Err     error             // non-nil when the flank could not be analyzed
}

// PitchResult holds the pitch metrics and verdicts for one flank.
type PitchResult struct {
	Flank   gear.Flank
	Source  string // "curves" or "table"
	Metrics pitch.Metrics

	SingleVerdict *tolerance.Verdict
	CumVerdict    *tolerance.Verdict
	RunoutVerdict *tolerance.Verdict

	Err error
}

// Result is the assembled outcome of one analysis run.
type Result struct {
	RunID  string
	Params gear.Parameters
	Info   mka.Info
	Config Config

	Teeth  []ToothResult
	Ripple []RippleResult
	Pitch  []PitchResult

	// Problems carried over from parsing, so reports show measurement
	// defects next to analysis results.
	Problems []*mka.ParseError

	Started  time.Time
	Finished time.Time
}

// Failures returns every per-trace and per-flank error in the result.
func (r *Result) Failures() []error {
	var errs []error
	for _, t := range r.Teeth {
		if t.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Key, t.Err))
		}
	}
	for _, rp := range r.Ripple {
		if rp.Err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", rp.Flank, rp.Direction, rp.Err))
		}
	}
	for _, p := range r.Pitch {
		if p.Err != nil {
			errs = append(errs, fmt.Errorf("pitch %s: %w", p.Flank, p.Err))
		}
	}
	return errs
}

// Analyze runs the full pipeline over a parsed measurement file. The config
// and the gear parameters are validated up front; nothing is scheduled on an
// unusable gear. Per-trace preprocessing runs on a bounded worker pool; each
// task writes only its own result slot, and all workers are joined before
// assembly. Cancelling the context stops scheduling new tasks; tasks already
// running finish.
func Analyze(ctx context.Context, file *mka.File, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := file.Params.Validate(); err != nil {
		return nil, &AnalysisError{Field: "params", Msg: err.Error()}
	}

	var rippleProf, pitchProf tolerance.Profile
	var err error
	if cfg.RippleProfile != "" {
		if rippleProf, err = tolerance.Get(cfg.RippleProfile); err != nil {
			return nil, &AnalysisError{Field: "rippleProfile", Msg: err.Error()}
		}
	}
	if cfg.PitchProfile != "" {
		if pitchProf, err = tolerance.Get(cfg.PitchProfile); err != nil {
			return nil, &AnalysisError{Field: "pitchProfile", Msg: err.Error()}
		}
	}

	res := &Result{
		RunID:    uuid.NewString(),
		Params:   file.Params,
		Info:     file.Info,
		Config:   cfg,
		Problems: file.Problems,
		Started:  time.Now(),
	}

	// Stage 1: preprocess every trace concurrently, slot per task.
	type toothTask struct {
		key   Key
		curve gear.Curve
	}
	var tasks []toothTask
	eachSet(file, func(dir gear.Direction, flank gear.Flank, set *gear.ToothSet) {
		for _, t := range set.Teeth() {
			tasks = append(tasks, toothTask{
				key:   Key{Flank: flank, Direction: dir, Tooth: t},
				curve: set.Curves[t],
			})
		}
	})

	processed := make([]gear.Curve, len(tasks))
	res.Teeth = make([]ToothResult, len(tasks))

	runPool(ctx, len(tasks), cfg.Workers, func(i int) {
		task := tasks[i]
		tr := ToothResult{Key: task.key, Samples: task.curve.Len(), Outliers: task.curve.Outliers}
		c := task.curve
		if cfg.Detrend {
			c, tr.Err = detrend.Detrend(c)
		}
		processed[i] = c
		res.Teeth[i] = tr
	})
	if err := ctx.Err(); err != nil {
		res.Finished = time.Now()
		return res, err
	}

	// Rebuild per-flank sets from the surviving traces.
	clean := map[gear.Direction]map[gear.Flank]*gear.ToothSet{
		gear.DirectionProfile: {},
		gear.DirectionLead:    {},
	}
	for i, task := range tasks {
		if res.Teeth[i].Err != nil {
			continue
		}
		sets := clean[task.key.Direction]
		if sets[task.key.Flank] == nil {
			sets[task.key.Flank] = gear.NewToothSet(task.key.Flank, task.key.Direction)
		}
		sets[task.key.Flank].Curves[task.key.Tooth] = processed[i]
	}

	// Stage 2: one closed-curve decomposition per flank and direction.
	threshold := cfg.RippleThreshold
	if threshold == 0 {
		threshold = file.Params.ToothCount
	}
	opts := spectral.Options{
		MinOrder:          cfg.MinOrder,
		MaxOrder:          cfg.MaxOrder,
		MaxComponents:     cfg.MaxComponents,
		ConvergenceRatio:  cfg.ConvergenceRatio,
		UseFFTWhenUniform: cfg.UseFFTWhenUniform,
	}

	var rippleTasks []*RippleResult
	eachSet(file, func(dir gear.Direction, flank gear.Flank, _ *gear.ToothSet) {
		rippleTasks = append(rippleTasks, &RippleResult{Flank: flank, Direction: dir, Threshold: threshold})
	})

	runPool(ctx, len(rippleTasks), cfg.Workers, func(i int) {
		rr := rippleTasks[i]
		set := clean[rr.Direction][rr.Flank]
		theta, values, err := ClosedCurve(set, file.Params)
		if err != nil {
			rr.Err = err
			return
		}
		spec, warn, err := spectral.Decompose(theta, values, opts)
		if err != nil {
			rr.Err = err
			return
		}
		rr.Spectrum = spec
		rr.Warning = warn
		rr.W, rr.RMS = spec.RippleMetrics(theta, threshold)
		if rippleProf != nil {
			rr.WVerdict = evaluate(rippleProf, tolerance.MetricRippleW, rr.W, file.Params)
			rr.RMSVerdict = evaluate(rippleProf, tolerance.MetricRippleRMS, rr.RMS, file.Params)
		}
	})
	for _, rr := range rippleTasks {
		res.Ripple = append(res.Ripple, *rr)
	}
	if err := ctx.Err(); err != nil {
		res.Finished = time.Now()
		return res, err
	}

	// Stage 3: pitch metrics per flank, from the profile traces when a
	// complete set survived, else from the file's own pitch table.
	for _, flank := range []gear.Flank{gear.FlankLeft, gear.FlankRight} {
		pr := pitchResult(file, clean[gear.DirectionProfile][flank], flank)
		if pr == nil {
			continue
		}
		if pr.Err == nil && pitchProf != nil {
			pr.SingleVerdict = evaluate(pitchProf, tolerance.MetricSinglePitch, pr.Metrics.Single, file.Params)
			pr.CumVerdict = evaluate(pitchProf, tolerance.MetricCumPitch, pr.Metrics.Cumulative, file.Params)
			pr.RunoutVerdict = evaluate(pitchProf, tolerance.MetricRunout, pr.Metrics.Runout, file.Params)
		}
		res.Pitch = append(res.Pitch, *pr)
	}

	res.Finished = time.Now()
	return res, nil
}

// pitchResult picks the pitch source for one flank, or nil when the file has
// neither curves nor a table for it.
func pitchResult(file *mka.File, profileSet *gear.ToothSet, flank gear.Flank) *PitchResult {
	if profileSet != nil {
		if err := profileSet.Complete(file.Params.ToothCount); err == nil {
			m, err := pitch.FromCurves(profileSet, file.Params.ToothCount)
			return &PitchResult{Flank: flank, Source: "curves", Metrics: m, Err: err}
		}
	}
	if table, ok := file.Pitch[flank]; ok {
		m, err := pitch.FromTable(table)
		return &PitchResult{Flank: flank, Source: "table", Metrics: m, Err: err}
	}
	if profileSet != nil {
		return &PitchResult{
			Flank: flank, Source: "curves",
			Err: profileSet.Complete(file.Params.ToothCount),
		}
	}
	return nil
}

func evaluate(p tolerance.Profile, m tolerance.Metric, measured float64, params gear.Parameters) *tolerance.Verdict {
	v, err := p.Evaluate(m, measured, params)
	if err != nil {
		return nil
	}
	return &v
}

// eachSet visits the file's tooth sets in deterministic order.
func eachSet(file *mka.File, fn func(gear.Direction, gear.Flank, *gear.ToothSet)) {
	for _, dir := range []gear.Direction{gear.DirectionProfile, gear.DirectionLead} {
		sets := file.Profile
		if dir == gear.DirectionLead {
			sets = file.Lead
		}
		for _, flank := range []gear.Flank{gear.FlankLeft, gear.FlankRight} {
			if set, ok := sets[flank]; ok && set.Len() > 0 {
				fn(dir, flank, set)
			}
		}
	}
}

// runPool executes fn(0..n-1) on at most workers goroutines and joins them
// all before returning. A cancelled context stops further scheduling.
func runPool(ctx context.Context, n, workers int, fn func(i int)) {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}
