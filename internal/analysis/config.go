// Package analysis runs the full measurement evaluation: detrending every
// trace, merging flanks into closed whole-gear curves, spectral ripple
// decomposition, pitch statistics and tolerance verdicts, assembled into one
// Result per file.
package analysis

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// AnalysisError reports an invalid analysis setup, found before any worker
// is started.
type AnalysisError struct {
	Field string
	Msg   string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis: %s: %s", e.Field, e.Msg)
}

// Config are the knobs of one analysis run. Zero values are not usable
// directly; start from DefaultConfig.
type Config struct {
	// Detrend removes crown and slope from each trace before decomposition.
	Detrend bool `yaml:"detrend"`

	// Spectral search window. MaxOrder 0 means up to the Nyquist limit of
	// the merged curve.
	MinOrder         int     `yaml:"minOrder"`
	MaxOrder         int     `yaml:"maxOrder"`
	MaxComponents    int     `yaml:"maxComponents"`
	ConvergenceRatio float64 `yaml:"convergenceRatio"`

	// RippleThreshold is the first order counted as ripple. 0 selects the
	// tooth count of the measured gear.
	RippleThreshold int `yaml:"rippleThreshold"`

	// UseFFTWhenUniform enables the FFT fast path for uniformly sampled
	// closed curves.
	UseFFTWhenUniform bool `yaml:"useFFTWhenUniform"`

	// Tolerance profiles, by registry name. Empty disables that evaluation.
	RippleProfile string `yaml:"rippleProfile"`
	PitchProfile  string `yaml:"pitchProfile"`

	// Workers bounds the number of concurrent per-tooth decompositions.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the settings used by the command line tools.
func DefaultConfig() Config {
	return Config{
		Detrend:           true,
		MinOrder:          1,
		MaxOrder:          0,
		MaxComponents:     10,
		ConvergenceRatio:  0.001,
		RippleThreshold:   0,
		UseFFTWhenUniform: false,
		RippleProfile:     "pseries",
		PitchProfile:      "iso1328",
		Workers:           runtime.NumCPU(),
	}
}

// WithWorkers returns a copy with the worker bound replaced.
func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

// WithDetrend returns a copy with detrending switched on or off.
func (c Config) WithDetrend(on bool) Config {
	c.Detrend = on
	return c
}

// WithOrderWindow returns a copy with the spectral search window replaced.
func (c Config) WithOrderWindow(min, max int) Config {
	c.MinOrder = min
	c.MaxOrder = max
	return c
}

// WithProfiles returns a copy with the tolerance profile names replaced.
func (c Config) WithProfiles(ripple, pitch string) Config {
	c.RippleProfile = ripple
	c.PitchProfile = pitch
	return c
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.MinOrder < 0 {
		return &AnalysisError{Field: "minOrder", Msg: "must not be negative"}
	}
	if c.MaxOrder != 0 && c.MaxOrder < c.MinOrder {
		return &AnalysisError{Field: "maxOrder", Msg: "below minOrder"}
	}
	if c.MaxComponents < 1 {
		return &AnalysisError{Field: "maxComponents", Msg: "must be at least 1"}
	}
	if c.ConvergenceRatio <= 0 || c.ConvergenceRatio >= 1 {
		return &AnalysisError{Field: "convergenceRatio", Msg: "must be in (0, 1)"}
	}
	if c.RippleThreshold < 0 {
		return &AnalysisError{Field: "rippleThreshold", Msg: "must not be negative"}
	}
	if c.Workers < 1 {
		return &AnalysisError{Field: "workers", Msg: "must be at least 1"}
	}
	return nil
}

// LoadConfig reads a YAML config file over the defaults, so a partial file
// overrides only the keys it names.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
