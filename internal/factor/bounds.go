package factor

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
)

// DefaultSizeUnit expresses market cap in hundreds of millions
const DefaultSizeUnit = 1e8

// Range is a closed normalization interval
type Range struct {
	Lo float64 `yaml:"lo" json:"lo"`
	Hi float64 `yaml:"hi" json:"hi"`
}

// UniverseBounds holds the universe-dependent normalization inputs
type UniverseBounds struct {
	Size Range   `yaml:"size" json:"size"`
	Unit float64 `yaml:"unit" json:"unit"` // market cap divisor; 0 means DefaultSizeUnit
}

// Validate checks the interval and unit
func (b UniverseBounds) Validate() error {
	if !(b.Size.Lo < b.Size.Hi) {
		return fmt.Errorf("size bounds: lo %.4g must be below hi %.4g", b.Size.Lo, b.Size.Hi)
	}
	if b.Unit < 0 {
		return fmt.Errorf("size unit must not be negative")
	}
	return nil
}

func (b UniverseBounds) unit() float64 {
	if b.Unit == 0 {
		return DefaultSizeUnit
	}
	return b.Unit
}

// BoundsFile is the YAML layout of FACTOR_BOUNDS_FILE
//
//	universes:
//	  JP:
//	    size: {lo: 50, hi: 5000}
//	    unit: 1e8
type BoundsFile struct {
	Universes map[string]UniverseBounds `yaml:"universes"`
}

// Presets for the two built-in universes
var Presets = map[string]UniverseBounds{
	"TW": {Size: Range{Lo: 10, Hi: 1000}, Unit: DefaultSizeUnit},
	"US": {Size: Range{Lo: 100, Hi: 10000}, Unit: DefaultSizeUnit},
}

// LoadBoundsFile reads universe bounds from YAML.
// Unknown fields fail the load.
func LoadBoundsFile(path string) (map[string]UniverseBounds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bounds file: %w", err)
	}

	var file BoundsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode bounds file %s: %w", path, err)
	}

	out := make(map[string]UniverseBounds, len(file.Universes))
	for name, b := range file.Universes {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("universe %s: %w", name, err)
		}
		out[strings.ToUpper(name)] = b
	}
	return out, nil
}

// ResolveBounds picks explicit bounds first, then the configured file
// entries, then the built-in presets. Any other universe without explicit
// bounds is rejected.
func ResolveBounds(universe string, explicit *UniverseBounds, configured map[string]UniverseBounds) (UniverseBounds, error) {
	if explicit != nil {
		if err := explicit.Validate(); err != nil {
			return UniverseBounds{}, contracts.InvalidParameters("bounds", "%v", err)
		}
		return *explicit, nil
	}

	key := strings.ToUpper(universe)
	if b, ok := configured[key]; ok {
		return b, nil
	}
	if b, ok := Presets[key]; ok {
		return b, nil
	}
	return UniverseBounds{}, contracts.InvalidParameters("universe",
		"universe %q has no preset; explicit bounds are required", universe)
}
