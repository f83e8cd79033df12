package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"firmdesk.app/intake/internal/mapping"
)

// Tuning holds the mapping thresholds in force per tenant. It implements
// mapping.ThresholdSource.
type Tuning struct {
	base    mapping.Thresholds
	tenants map[int64]mapping.Thresholds
}

// thresholdOverrides mirrors one YAML block; unset keys inherit.
type thresholdOverrides struct {
	AutoMap          *float64 `yaml:"auto_map"`
	Triage           *float64 `yaml:"triage"`
	StalenessWindow  *string  `yaml:"staleness_window"`
	AnchorConfidence *float64 `yaml:"anchor_confidence"`
}

type rawTuning struct {
	Defaults thresholdOverrides           `yaml:"defaults"`
	Tenants  map[int64]thresholdOverrides `yaml:"tenants"`
}

func NewTuning(base mapping.Thresholds) *Tuning {
	return &Tuning{base: base, tenants: map[int64]mapping.Thresholds{}}
}

// LoadTuning reads per-tenant threshold overrides from a YAML file with
// ${VAR} expansion. An empty path yields base for every tenant.
func LoadTuning(path string, base mapping.Thresholds) (*Tuning, error) {
	if path == "" {
		return NewTuning(base), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning file %s: %w", path, err)
	}
	return ParseTuning(data, base)
}

func ParseTuning(data []byte, base mapping.Thresholds) (*Tuning, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawTuning
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse tuning YAML: %w", err)
	}

	defaults, err := raw.Defaults.apply(base)
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}

	t := NewTuning(defaults)
	for tenantID, o := range raw.Tenants {
		th, err := o.apply(defaults)
		if err != nil {
			return nil, fmt.Errorf("tenant %d: %w", tenantID, err)
		}
		t.tenants[tenantID] = th
	}
	return t, nil
}

func (t *Tuning) For(tenantID int64) mapping.Thresholds {
	if th, ok := t.tenants[tenantID]; ok {
		return th
	}
	return t.base
}

func (o thresholdOverrides) apply(base mapping.Thresholds) (mapping.Thresholds, error) {
	out := base
	if o.AutoMap != nil {
		out.AutoMap = *o.AutoMap
	}
	if o.Triage != nil {
		out.Triage = *o.Triage
	}
	if o.AnchorConfidence != nil {
		out.AnchorConfidence = *o.AnchorConfidence
	}
	if o.StalenessWindow != nil {
		d, err := parseDuration(*o.StalenessWindow)
		if err != nil {
			return mapping.Thresholds{}, fmt.Errorf("staleness_window: %w", err)
		}
		out.StalenessWindow = d
	}
	if err := out.Validate(); err != nil {
		return mapping.Thresholds{}, err
	}
	return out, nil
}
