// Package dimension holds the static tier → dimension configuration: which
// quality axes exist for each tier, how they are labelled and described, and
// how much each weighs in the overall score.
//
// A Table is immutable once loaded and safe for concurrent readers.
package dimension

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/godilite/wellness-eval/internal/catalog"
)

//go:embed tiers.yaml tiers.cue
var files embed.FS

// Key is the canonical identifier of a dimension.
type Key string

const (
	KeyClinicalRigor         Key = "clinicalRigor"
	KeyPractitionerExpertise Key = "practitionerExpertise"
	KeyProgramDesign         Key = "programDesign"
	KeyOutcomeTracking       Key = "outcomeTracking"
	KeyPersonalization       Key = "personalization"
	KeyFacilities            Key = "facilities"
	KeyHospitality           Key = "hospitality"
	KeyNutrition             Key = "nutrition"
	KeySetting               Key = "setting"
	KeyValueAlignment        Key = "valueAlignment"
)

// weightTolerance is how far a tier's weight sum may drift from 1 before a
// warning is raised.
const weightTolerance = 0.01

var ErrInvalidTable = errors.New("invalid dimension table")

// Dimension is one quality axis as configured for a specific tier.
type Dimension struct {
	Key         Key      `yaml:"key" json:"key"`
	Label       string   `yaml:"label" json:"label"`
	Description string   `yaml:"description" json:"description"`
	Weight      *float64 `yaml:"weight" json:"weight"`
	Aliases     []string `yaml:"aliases" json:"aliases,omitempty"`
}

// TierConfig is the ordered dimension list for one tier.
type TierConfig struct {
	Tier       catalog.Tier `yaml:"tier" json:"tier"`
	Label      string       `yaml:"label" json:"label"`
	Dimensions []Dimension  `yaml:"dimensions" json:"dimensions"`
}

type tableFile struct {
	Tiers []TierConfig `yaml:"tiers"`
}

// Table maps (tier, dimension key) to dimension metadata.
type Table struct {
	order    []catalog.Tier
	tiers    map[catalog.Tier]TierConfig
	index    map[catalog.Tier]map[string]int
	warnings []string
}

// Default loads the table embedded in the binary.
func Default() (*Table, error) {
	data, err := files.ReadFile("tiers.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded tiers: %w", err)
	}
	return Load(data)
}

// LoadFile loads a table from a YAML file on disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(data)
}

// Load parses YAML, checks it against the CUE schema and builds a Table.
func Load(data []byte) (*Table, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrInvalidTable, err)
	}
	if err := checkSchema(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %v", ErrInvalidTable, err)
	}
	return build(file.Tiers)
}

func checkSchema(raw map[string]any) error {
	src, err := files.ReadFile("tiers.cue")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(src, cue.Filename("tiers.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Tiers"))
	if !def.Exists() {
		return errors.New("schema definition #Tiers not found")
	}

	data := ctx.Encode(raw)
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode table: %w", err)
	}

	unified := def.Unify(data)
	if err := unified.Err(); err != nil {
		return err
	}
	return unified.Validate(cue.Concrete(true))
}

func build(tiers []TierConfig) (*Table, error) {
	t := &Table{
		tiers: make(map[catalog.Tier]TierConfig, len(tiers)),
		index: make(map[catalog.Tier]map[string]int, len(tiers)),
	}

	for _, tc := range tiers {
		if _, dup := t.tiers[tc.Tier]; dup {
			return nil, fmt.Errorf("%w: tier %s declared twice", ErrInvalidTable, tc.Tier)
		}

		idx := make(map[string]int, len(tc.Dimensions))
		for i, d := range tc.Dimensions {
			names := append([]string{string(d.Key)}, d.Aliases...)
			for _, name := range names {
				norm := normalize(name)
				if prev, dup := idx[norm]; dup {
					return nil, fmt.Errorf("%w: tier %s: %q already names %s",
						ErrInvalidTable, tc.Tier, name, tc.Dimensions[prev].Key)
				}
				idx[norm] = i
			}
		}

		t.order = append(t.order, tc.Tier)
		t.tiers[tc.Tier] = tc
		t.index[tc.Tier] = idx
		t.warnings = append(t.warnings, weightWarnings(tc)...)
	}
	return t, nil
}

func weightWarnings(tc TierConfig) []string {
	var (
		sum      float64
		weighted int
	)
	for _, d := range tc.Dimensions {
		if d.Weight != nil {
			sum += *d.Weight
			weighted++
		}
	}

	var out []string
	if weighted > 0 && weighted < len(tc.Dimensions) {
		out = append(out, fmt.Sprintf("tier %s: %d of %d dimensions have no weight",
			tc.Tier, len(tc.Dimensions)-weighted, len(tc.Dimensions)))
	}
	if weighted > 0 && math.Abs(sum-1) > weightTolerance {
		out = append(out, fmt.Sprintf("tier %s: weights sum to %.3f, not 1", tc.Tier, sum))
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Tiers returns the configured tiers in file order.
func (t *Table) Tiers() []catalog.Tier {
	return append([]catalog.Tier(nil), t.order...)
}

// Tier returns the configuration of one tier.
func (t *Table) Tier(tier catalog.Tier) (TierConfig, bool) {
	tc, ok := t.tiers[tier]
	if !ok {
		return TierConfig{}, false
	}
	tc.Dimensions = append([]Dimension(nil), tc.Dimensions...)
	return tc, true
}

// Dimensions returns the ordered dimensions of a tier, or nil for an unknown tier.
func (t *Table) Dimensions(tier catalog.Tier) []Dimension {
	tc, ok := t.tiers[tier]
	if !ok {
		return nil
	}
	return append([]Dimension(nil), tc.Dimensions...)
}

// Lookup resolves a canonical key or legacy alias within a tier.
func (t *Table) Lookup(tier catalog.Tier, name string) (Dimension, bool) {
	idx, ok := t.index[tier]
	if !ok {
		return Dimension{}, false
	}
	i, ok := idx[normalize(name)]
	if !ok {
		return Dimension{}, false
	}
	return t.tiers[tier].Dimensions[i], true
}

// WeightSum is the total configured weight of a tier and whether any weight is set.
func (t *Table) WeightSum(tier catalog.Tier) (float64, bool) {
	var (
		sum float64
		set bool
	)
	for _, d := range t.tiers[tier].Dimensions {
		if d.Weight != nil {
			sum += *d.Weight
			set = true
		}
	}
	return sum, set
}

// Warnings lists non-fatal configuration issues such as unnormalised weights.
func (t *Table) Warnings() []string {
	return append([]string(nil), t.warnings...)
}
