package mapping

import (
	"fmt"
	"time"
)

// Thresholds control how a mapping result is turned into an artifact status.
type Thresholds struct {
	AutoMap          float64       `yaml:"auto_map"`
	Triage           float64       `yaml:"triage"`
	StalenessWindow  time.Duration `yaml:"staleness_window"`
	AnchorConfidence float64       `yaml:"anchor_confidence"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoMap:          0.85,
		Triage:           0.50,
		StalenessWindow:  90 * 24 * time.Hour,
		AnchorConfidence: 0.85,
	}
}

func (t Thresholds) Validate() error {
	if t.Triage < 0 || t.Triage > 1 || t.AutoMap < 0 || t.AutoMap > 1 || t.AnchorConfidence < 0 || t.AnchorConfidence > 1 {
		return fmt.Errorf("thresholds must be within [0,1]: %+v", t)
	}
	if t.Triage > t.AutoMap {
		return fmt.Errorf("triage threshold %.2f above auto-map threshold %.2f", t.Triage, t.AutoMap)
	}
	if t.StalenessWindow <= 0 {
		return fmt.Errorf("staleness window must be positive, got %s", t.StalenessWindow)
	}
	return nil
}

// ThresholdSource resolves the thresholds in force for a tenant.
type ThresholdSource interface {
	For(tenantID int64) Thresholds
}

type staticThresholds Thresholds

func (s staticThresholds) For(int64) Thresholds { return Thresholds(s) }

// Static applies the same thresholds to every tenant.
func Static(t Thresholds) ThresholdSource {
	return staticThresholds(t)
}
