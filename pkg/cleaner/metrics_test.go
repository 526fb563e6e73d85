package cleaner

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

func TestMetricsTrackAppliedAndFailed(t *testing.T) {
	ctx := context.Background()
	c := NewDataCleaner(nil, nil, zap.NewNop())
	snapshot := model.NewSnapshot([]string{"name", "score"}, []model.Row{
		{"name": "a", "score": 1.0},
		{"name": "a", "score": 1.0},
		{"name": "b", "score": nil},
	})

	_, err := c.Apply(ctx, snapshot, model.RemoveDuplicates{})
	require.NoError(t, err)
	_, err = c.Apply(ctx, snapshot, model.DropColumn{Column: "missing"})
	require.Error(t, err)
	_, err = c.Apply(ctx, snapshot, model.Normalize{Column: "name", Method: model.ScaleMinMax})
	require.Error(t, err)

	applied, failed := c.Metrics().Totals()
	assert.Equal(t, 1, applied)
	assert.Equal(t, 2, failed)

	m := c.Metrics()
	assert.Equal(t, int64(3), m.RowsIn)
	assert.Equal(t, int64(2), m.RowsOut)
	assert.Equal(t, 1, m.ErrorCounts["unknown_column"])
	assert.Equal(t, 1, m.ErrorCounts["not_numeric"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.opsTotal.WithLabelValues("remove_duplicates", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.opsTotal.WithLabelValues("drop_column", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsAffected.WithLabelValues("remove_duplicates")))
	count, err := testutil.GatherAndCount(m.Registry(), "datacleaner_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	report := m.GenerateReport()
	assert.Contains(t, report, "Cleaning Metrics Report")
	assert.Contains(t, report, "- remove_duplicates: 1 applied, 0 failed, 1 rows")
	assert.Contains(t, report, "- unknown_column: 1 (50.0%)")

	data, err := m.ToJSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "operations")
	assert.Equal(t, 3.0, decoded["rowsIn"])
}

func TestWithMetricsSharesTracker(t *testing.T) {
	shared := NewMetrics(nil)
	c := NewDataCleaner(nil, nil, nil).WithMetrics(shared)
	assert.Same(t, shared, c.Metrics())

	c.WithMetrics(nil)
	assert.Same(t, shared, c.Metrics())
}

func TestGetPercentageHandlesZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, getPercentage(3, 0))
	assert.Equal(t, 25.0, getPercentage(1, 4))
}
