// pkg/profile/profile.go
package profile

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/model"
)

// DefaultOutlierK is the Tukey fence multiplier applied to the IQR
const DefaultOutlierK = 1.5

// Profiler computes per-column quality summaries for a snapshot
type Profiler struct {
	logger   *zap.Logger
	outlierK float64
}

// NewProfiler creates a profiler. A non-positive outlierK selects DefaultOutlierK.
func NewProfiler(logger *zap.Logger, outlierK float64) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outlierK <= 0 {
		outlierK = DefaultOutlierK
	}
	return &Profiler{
		logger:   logger,
		outlierK: outlierK,
	}
}

// Profile summarizes every column of the snapshot in column order
func (p *Profiler) Profile(snapshot *model.Snapshot) []model.ColumnProfile {
	if snapshot == nil {
		return []model.ColumnProfile{}
	}

	profiles := make([]model.ColumnProfile, 0, len(snapshot.Columns))
	for _, column := range snapshot.Columns {
		profiles = append(profiles, p.profileColumn(column, snapshot.Values(column)))
	}

	p.logger.Debug("Profiled dataset",
		zap.Int("columns", len(profiles)),
		zap.Int("rows", snapshot.Len()))
	return profiles
}

func (p *Profiler) profileColumn(column string, values []interface{}) model.ColumnProfile {
	total := len(values)
	result := model.ColumnProfile{
		Column:   column,
		DataType: model.DataTypeObject,
	}

	seen := make(map[string]struct{})
	typed := false
	for _, v := range values {
		if converter.IsNull(v) {
			result.NullCount++
			continue
		}
		if !typed {
			result.DataType = converter.DetectType(v)
			typed = true
		}
		seen[fmt.Sprintf("%T:%v", v, v)] = struct{}{}
	}
	result.UniqueCount = len(seen)

	if total > 0 {
		result.NullPercentage = percentage(result.NullCount, total)
		result.UniquePercentage = percentage(result.UniqueCount, total)
		result.Completeness = percentage(total-result.NullCount, total)
	}

	if result.DataType == model.DataTypeNumeric {
		if nums := numericValues(values); len(nums) > 0 {
			result.Stats = p.numericStats(nums)
		}
	}

	return result
}

func (p *Profiler) numericStats(nums []float64) *model.NumericStats {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	stats := &model.NumericStats{
		Mean:   mean(sorted),
		Median: Median(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		stats.Std = finiteOrZero(stat.StdDev(sorted, nil))
	}

	// Tukey fences need a spread to be meaningful
	if len(sorted) >= 4 {
		q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
		q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
		iqr := q3 - q1
		low, high := q1-p.outlierK*iqr, q3+p.outlierK*iqr
		for _, v := range nums {
			if v < low || v > high {
				stats.Outliers = append(stats.Outliers, v)
			}
		}
	}

	return stats
}

// Median returns the median of an ascending-sorted slice. Returns 0 for an
// empty slice.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	lo, hi := sorted[n/2-1], sorted[n/2]
	if m := (lo + hi) / 2; !math.IsInf(m, 0) {
		return m
	}
	return lo/2 + hi/2
}

// mean falls back to a running mean when the plain sum overflows
func mean(nums []float64) float64 {
	if m := stat.Mean(nums, nil); !math.IsInf(m, 0) && !math.IsNaN(m) {
		return m
	}
	var m float64
	for i, v := range nums {
		n := float64(i + 1)
		m += v/n - m/n
	}
	return finiteOrZero(m)
}

func finiteOrZero(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// numericValues returns the non-null values of a column that coerce to float
func numericValues(values []interface{}) []float64 {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if converter.IsNull(v) {
			continue
		}
		if _, isText := v.(string); isText {
			continue
		}
		f, err := converter.ToFloat(v)
		if err != nil {
			continue
		}
		nums = append(nums, f)
	}
	return nums
}

func percentage(part, total int) float64 {
	return float64(part) / float64(total) * 100
}

// QualityLevel grades a completeness percentage
func QualityLevel(completeness float64) string {
	switch {
	case completeness >= 95:
		return "Excellent"
	case completeness >= 80:
		return "Good"
	case completeness >= 60:
		return "Fair"
	default:
		return "Poor"
	}
}
