// pkg/model/profile.go
package model

import "math"

// Data types reported by the column profiler
const (
	DataTypeNumeric  = "numeric"
	DataTypeBoolean  = "boolean"
	DataTypeDatetime = "datetime"
	DataTypeObject   = "object"
)

// NumericStats holds summary statistics for a numeric column
type NumericStats struct {
	Mean     float64   `json:"mean"`
	Median   float64   `json:"median"`
	Std      float64   `json:"std"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	Outliers []float64 `json:"outliers,omitempty"`
}

// ColumnProfile summarizes the quality and shape of one column
type ColumnProfile struct {
	Column           string        `json:"columnName"`
	DataType         string        `json:"dataType"`
	NullCount        int           `json:"nullCount"`
	NullPercentage   float64       `json:"nullPercentage"`
	UniqueCount      int           `json:"uniqueCount"`
	UniquePercentage float64       `json:"uniquePercentage"`
	Completeness     float64       `json:"completeness"`
	Stats            *NumericStats `json:"stats,omitempty"` // Only set for numeric columns
}

// Clone returns an independent copy of the profile
func (p ColumnProfile) Clone() ColumnProfile {
	if p.Stats != nil {
		stats := *p.Stats
		if p.Stats.Outliers != nil {
			stats.Outliers = append([]float64(nil), p.Stats.Outliers...)
		}
		p.Stats = &stats
	}
	return p
}

// CloneProfiles deep-copies a profile summary
func CloneProfiles(profiles []ColumnProfile) []ColumnProfile {
	out := make([]ColumnProfile, len(profiles))
	for i, p := range profiles {
		out[i] = p.Clone()
	}
	return out
}

// Sanitized returns a copy with every non-finite statistic zeroed and
// non-finite outliers dropped, so the profile always encodes as JSON.
func (p ColumnProfile) Sanitized() ColumnProfile {
	p = p.Clone()
	if p.Stats == nil {
		return p
	}
	for _, f := range []*float64{&p.Stats.Mean, &p.Stats.Median, &p.Stats.Std, &p.Stats.Min, &p.Stats.Max} {
		if !isFinite(*f) {
			*f = 0
		}
	}
	if p.Stats.Outliers != nil {
		kept := p.Stats.Outliers[:0]
		for _, v := range p.Stats.Outliers {
			if isFinite(v) {
				kept = append(kept, v)
			}
		}
		p.Stats.Outliers = kept
	}
	return p
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
