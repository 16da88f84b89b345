// Package tolerance maps measured deviation metrics to standard tolerance
// bands: ISO 1328 accuracy grades and Klingelnberg P-series ripple limits.
// Standards are data, loadable tables behind a registry, and the evaluator
// is generic lookup and comparison.
package tolerance

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gear-metrology/internal/gear"
)

// Metric names a deviation quantity a standard profile can judge.
type Metric string

const (
	MetricSinglePitch Metric = "fp"  // single pitch deviation
	MetricCumPitch    Metric = "Fp"  // cumulative pitch deviation
	MetricRunout      Metric = "Fr"  // total runout
	MetricRippleW     Metric = "W"   // ripple total amplitude
	MetricRippleRMS   Metric = "RMS" // ripple RMS
)

// State classifies a verdict.
type State int

const (
	Pass State = iota
	Fail
	Graded // ISO-style: the verdict carries an achieved grade number
)

func (s State) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Graded:
		return "GRADE"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of evaluating one metric against one profile.
// Boundary values are inclusive on the pass side: measured == limit passes.
type Verdict struct {
	Profile  string
	Metric   Metric
	Measured float64
	Limit    float64 // the band boundary actually compared against
	State    State
	Grade    int // meaningful only when State == Graded
}

func (v Verdict) String() string {
	if v.State == Graded {
		return fmt.Sprintf("%s %s=%.3f -> grade %d (limit %.3f)", v.Profile, v.Metric, v.Measured, v.Grade, v.Limit)
	}
	return fmt.Sprintf("%s %s=%.3f -> %s (limit %.3f)", v.Profile, v.Metric, v.Measured, v.State, v.Limit)
}

// Profile is one evaluation standard. Implementations hold tables, not
// gear-specific branching.
type Profile interface {
	Name() string
	// Evaluate judges one measured metric value for the given gear.
	Evaluate(metric Metric, measured float64, params gear.Parameters) (Verdict, error)
}

// Registry of known standard profiles.
var registry = make(map[string]Profile)

// Register adds a profile to the registry, replacing any previous entry of
// the same name.
func Register(p Profile) {
	registry[p.Name()] = p
}

// Get returns a profile by name.
func Get(name string) (Profile, error) {
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown standard profile %q", name)
	}
	return p, nil
}

// List returns the registered profile names in sorted order.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// profileFile is the on-disk envelope for a loadable profile table.
type profileFile struct {
	Type    string          `json:"type"` // "iso1328" or "pseries"
	Profile json.RawMessage `json:"profile"`
}

// LoadFromFile reads a profile table from a JSON file and returns it
// without registering it.
func LoadFromFile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var envelope profileFile
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("invalid profile file: %w", err)
	}
	switch envelope.Type {
	case "iso1328":
		var p ISO1328Profile
		if err := json.Unmarshal(envelope.Profile, &p); err != nil {
			return nil, fmt.Errorf("invalid iso1328 profile: %w", err)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return &p, nil
	case "pseries":
		var p PSeriesProfile
		if err := json.Unmarshal(envelope.Profile, &p); err != nil {
			return nil, fmt.Errorf("invalid pseries profile: %w", err)
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("unknown profile type %q", envelope.Type)
	}
}

// SaveToFile writes a profile table to a JSON file.
func SaveToFile(p Profile, path string) error {
	var envelope profileFile
	switch p.(type) {
	case *ISO1328Profile:
		envelope.Type = "iso1328"
	case *PSeriesProfile:
		envelope.Type = "pseries"
	default:
		return fmt.Errorf("profile %q is not serializable", p.Name())
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	envelope.Profile = raw
	data, err := json.MarshalIndent(&envelope, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func init() {
	Register(DefaultISO1328())
	Register(DefaultPSeries())
}
