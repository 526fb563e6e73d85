// pkg/cleaner/metrics.go
package cleaner

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// OperationMetrics tracks metrics for one operation kind
type OperationMetrics struct {
	Kind         model.OperationKind
	Applied      int
	Failed       int
	RowsAffected int64
	CellsChanged int64
	TotalTime    time.Duration
}

// AverageTime returns the mean duration of successful runs
func (om *OperationMetrics) AverageTime() time.Duration {
	if om.Applied == 0 {
		return 0
	}
	return om.TotalTime / time.Duration(om.Applied)
}

// Metrics tracks what the cleaner did during a session. Counters are also
// exported to a Prometheus registry owned by the tracker.
type Metrics struct {
	mu          sync.Mutex
	logger      *zap.Logger
	StartTime   time.Time
	Operations  map[model.OperationKind]*OperationMetrics
	ErrorCounts map[string]int
	RowsIn      int64
	RowsOut     int64

	registry     *prometheus.Registry
	opsTotal     *prometheus.CounterVec
	rowsAffected *prometheus.CounterVec
	opDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new metrics tracker
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		StartTime:   time.Now(),
		Operations:  make(map[model.OperationKind]*OperationMetrics),
		ErrorCounts: make(map[string]int),
		logger:      logger,
		registry:    registry,
		opsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "datacleaner_operations_total",
			Help: "Cleaning operations by kind and outcome",
		}, []string{"operation", "status"}),
		rowsAffected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "datacleaner_rows_affected_total",
			Help: "Rows rewritten or removed by cleaning operations",
		}, []string{"operation"}),
		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "datacleaner_operation_duration_seconds",
			Help:    "Duration of successful cleaning operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
	}
}

// Registry returns the Prometheus registry holding the exported counters
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) operation(kind model.OperationKind) *OperationMetrics {
	om, ok := m.Operations[kind]
	if !ok {
		om = &OperationMetrics{Kind: kind}
		m.Operations[kind] = om
	}
	return om
}

// RecordApplied records a successful operation
func (m *Metrics) RecordApplied(kind model.OperationKind, rowsIn int, result *Result, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	om := m.operation(kind)
	om.Applied++
	om.RowsAffected += int64(result.RowsAffected)
	om.CellsChanged += int64(len(result.Changes))
	om.TotalTime += elapsed
	m.RowsIn += int64(rowsIn)
	m.RowsOut += int64(result.Snapshot.Len())

	m.opsTotal.WithLabelValues(string(kind), string(model.StepApplied)).Inc()
	m.rowsAffected.WithLabelValues(string(kind)).Add(float64(result.RowsAffected))
	m.opDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// RecordFailed records a failed operation under its error category
func (m *Metrics) RecordFailed(kind model.OperationKind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operation(kind).Failed++
	m.ErrorCounts[errorCategory(err)]++
	m.opsTotal.WithLabelValues(string(kind), string(model.StepError)).Inc()
}

// errorCategory buckets cleaner errors for the distribution report
func errorCategory(err error) string {
	switch {
	case errors.Is(err, ErrUnknownColumn):
		return "unknown_column"
	case errors.Is(err, ErrNotNumeric):
		return "not_numeric"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrNilSnapshot):
		return "no_data"
	default:
		return "other"
	}
}

// Totals returns the number of applied and failed operations
func (m *Metrics) Totals() (applied, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, om := range m.Operations {
		applied += om.Applied
		failed += om.Failed
	}
	return applied, failed
}

// sortedKinds returns operation kinds in a stable order for reports
func (m *Metrics) sortedKinds() []model.OperationKind {
	kinds := make([]model.OperationKind, 0, len(m.Operations))
	for kind := range m.Operations {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// GenerateReport creates a plain-text metrics report
func (m *Metrics) GenerateReport() string {
	applied, failed := m.Totals()

	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, `
Cleaning Metrics Report
=======================
Session Length:          %s
Operations Applied:      %d (%.1f%%)
Operations Failed:       %d (%.1f%%)
Rows In:                 %d
Rows Out:                %d
`,
		formatDuration(time.Since(m.StartTime)),
		applied, getPercentage(float64(applied), float64(applied+failed)),
		failed, getPercentage(float64(failed), float64(applied+failed)),
		m.RowsIn,
		m.RowsOut,
	)

	if len(m.Operations) > 0 {
		b.WriteString("\nOperation Details\n-----------------\n")
		for _, kind := range m.sortedKinds() {
			om := m.Operations[kind]
			fmt.Fprintf(&b, "- %s: %d applied, %d failed, %d rows, %d cells, avg %s\n",
				kind, om.Applied, om.Failed, om.RowsAffected, om.CellsChanged, formatDuration(om.AverageTime()))
		}
	}

	if len(m.ErrorCounts) > 0 {
		b.WriteString("\nError Distribution\n------------------\n")
		categories := make([]string, 0, len(m.ErrorCounts))
		for category := range m.ErrorCounts {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			count := m.ErrorCounts[category]
			fmt.Fprintf(&b, "- %s: %d (%.1f%%)\n", category, count, getPercentage(float64(count), float64(failed)))
		}
	}

	return b.String()
}

// ToJSON serializes metrics to JSON
func (m *Metrics) ToJSON() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type operationJSON struct {
		Applied      int   `json:"applied"`
		Failed       int   `json:"failed"`
		RowsAffected int64 `json:"rowsAffected"`
		CellsChanged int64 `json:"cellsChanged"`
	}
	ops := make(map[string]operationJSON, len(m.Operations))
	for kind, om := range m.Operations {
		ops[string(kind)] = operationJSON{
			Applied:      om.Applied,
			Failed:       om.Failed,
			RowsAffected: om.RowsAffected,
			CellsChanged: om.CellsChanged,
		}
	}

	return json.Marshal(struct {
		Duration          string                   `json:"duration"`
		Operations        map[string]operationJSON `json:"operations"`
		ErrorDistribution map[string]int           `json:"errorDistribution"`
		RowsIn            int64                    `json:"rowsIn"`
		RowsOut           int64                    `json:"rowsOut"`
	}{
		Duration:          formatDuration(time.Since(m.StartTime)),
		Operations:        ops,
		ErrorDistribution: m.ErrorCounts,
		RowsIn:            m.RowsIn,
		RowsOut:           m.RowsOut,
	})
}
