package audio

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Canonical parameter bounds sent to the synthesis backend.
const (
	MinExaggeration = 0.0
	MaxExaggeration = 1.0
	// temperature is exclusive at zero
	MinTemperature = 0.0
	MaxTemperature = 1.0
	MinCFGWeight   = 0.5
	MaxCFGWeight   = 2.0
	MinSeed        = 0
	MaxSeed        = math.MaxInt32
)

// Params are the knobs forwarded to the speech synthesizer.
type Params struct {
	Exaggeration float64 `json:"exaggeration"`
	Temperature  float64 `json:"temperature"`
	CFGWeight    float64 `json:"cfg_weight"`
	Seed         int     `json:"seed_num"`
}

// DefaultParams returns the parameters a fresh session starts with.
func DefaultParams() Params {
	return Params{
		Exaggeration: 0.5,
		Temperature:  0.7,
		CFGWeight:    1.0,
		Seed:         42,
	}
}

// Validate checks every field against its bound.
func (p Params) Validate() error {
	if p.Exaggeration < MinExaggeration || p.Exaggeration > MaxExaggeration {
		return fmt.Errorf("exaggeration must be between %.1f and %.1f, got %g", MinExaggeration, MaxExaggeration, p.Exaggeration)
	}
	if p.Temperature <= MinTemperature || p.Temperature > MaxTemperature {
		return fmt.Errorf("temperature must be greater than %.1f and at most %.1f, got %g", MinTemperature, MaxTemperature, p.Temperature)
	}
	if p.CFGWeight < MinCFGWeight || p.CFGWeight > MaxCFGWeight {
		return fmt.Errorf("cfg_weight must be between %.1f and %.1f, got %g", MinCFGWeight, MaxCFGWeight, p.CFGWeight)
	}
	if p.Seed < MinSeed || p.Seed > MaxSeed {
		return fmt.Errorf("seed must be between %d and %d, got %d", MinSeed, MaxSeed, p.Seed)
	}
	return nil
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Exaggeration *float64
	Temperature  *float64
	CFGWeight    *float64
	Seed         *int
}

// Apply returns p with the patch merged in. The result is validated so that an
// out-of-range value never replaces a valid one.
func (p Params) Apply(patch Patch) (Params, error) {
	next := p
	if patch.Exaggeration != nil {
		next.Exaggeration = *patch.Exaggeration
	}
	if patch.Temperature != nil {
		next.Temperature = *patch.Temperature
	}
	if patch.CFGWeight != nil {
		next.CFGWeight = *patch.CFGWeight
	}
	if patch.Seed != nil {
		next.Seed = *patch.Seed
	}
	if err := next.Validate(); err != nil {
		return p, err
	}
	return next, nil
}

// Presets are named starting points for common narration styles. They leave
// the seed alone.
var Presets = map[string]Patch{
	"professional": presetPatch(0.2, 0.5, 1.2),
	"enthusiastic": presetPatch(0.7, 0.8, 1.0),
	"calm":         presetPatch(0.1, 0.3, 1.5),
	"dynamic":      presetPatch(0.5, 0.7, 0.8),
}

// Preset looks up a preset by case-insensitive name.
func Preset(name string) (Patch, error) {
	patch, ok := Presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Patch{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return patch, nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func presetPatch(exaggeration, temperature, cfg float64) Patch {
	return Patch{Exaggeration: &exaggeration, Temperature: &temperature, CFGWeight: &cfg}
}
