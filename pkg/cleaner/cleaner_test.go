package cleaner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

func sampleSnapshot() *model.Snapshot {
	return model.NewSnapshot([]string{"id", "score", "city"}, []model.Row{
		{"id": 1.0, "score": 10.0, "city": "Oslo"},
		{"id": 2.0, "score": nil, "city": "Bergen"},
		{"id": 3.0, "score": 30.0, "city": nil},
		{"id": 1.0, "score": 10.0, "city": "Oslo"},
	})
}

func newTestCleaner() *DataCleaner {
	return NewDataCleaner(nil, nil, zap.NewNop())
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	input := sampleSnapshot()
	before := input.Clone()

	result, err := newTestCleaner().Apply(context.Background(), input, model.DropColumn{Column: "city"})
	require.NoError(t, err)

	assert.Equal(t, before, input)
	assert.Equal(t, []string{"id", "score"}, result.Snapshot.Columns)
	for _, row := range result.Snapshot.Rows {
		assert.NotContains(t, row, "city")
	}
}

func TestRemoveDuplicates(t *testing.T) {
	result, err := newTestCleaner().Apply(context.Background(), sampleSnapshot(), model.RemoveDuplicates{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Snapshot.Len())
	assert.Equal(t, 1, result.RowsAffected)
	assert.Equal(t, "Removed 1 duplicate rows", result.Description)
}

func TestFillMissingStrategies(t *testing.T) {
	tests := []struct {
		name string
		op   model.FillMissing
		want interface{}
	}{
		{"mean", model.FillMissing{Column: "score", Strategy: model.FillMean}, 20.0},
		{"median", model.FillMissing{Column: "score", Strategy: model.FillMedian}, 20.0},
		{"mode", model.FillMissing{Column: "score", Strategy: model.FillMode}, 10.0},
		{"forward", model.FillMissing{Column: "score", Strategy: model.FillForward}, 10.0},
		{"backward", model.FillMissing{Column: "score", Strategy: model.FillBackward}, 30.0},
		{"constant", model.FillMissing{Column: "score", Strategy: model.FillConstant, Value: "0"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestCleaner().Apply(context.Background(), sampleSnapshot(), tt.op)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, result.Snapshot.Rows[1]["score"], 1e-9)
			assert.Equal(t, 1, result.RowsAffected)
		})
	}
}

func TestFillMissingMeanRejectsText(t *testing.T) {
	_, err := newTestCleaner().Apply(context.Background(), sampleSnapshot(),
		model.FillMissing{Column: "city", Strategy: model.FillMean})
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestUnknownColumn(t *testing.T) {
	_, err := newTestCleaner().Apply(context.Background(), sampleSnapshot(), model.DropColumn{Column: "missing"})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestNilSnapshot(t *testing.T) {
	_, err := newTestCleaner().Apply(context.Background(), nil, model.RemoveDuplicates{})
	assert.ErrorIs(t, err, ErrNilSnapshot)
}

func TestConvertType(t *testing.T) {
	snapshot := model.NewSnapshot([]string{"v"}, []model.Row{
		{"v": "12"}, {"v": "abc"}, {"v": 3.0},
	})
	result, err := newTestCleaner().Apply(context.Background(), snapshot,
		model.ConvertType{Column: "v", Target: model.TargetNumeric})
	require.NoError(t, err)

	assert.Equal(t, 12.0, result.Snapshot.Rows[0]["v"])
	assert.Nil(t, result.Snapshot.Rows[1]["v"])
	assert.Equal(t, 3.0, result.Snapshot.Rows[2]["v"])
	assert.Equal(t, 2, result.RowsAffected)
	assert.Contains(t, result.Description, "1 values could not be converted")
}

func TestConvertTypeRejectsNonFiniteNumbers(t *testing.T) {
	snapshot := model.NewSnapshot([]string{"b"}, []model.Row{
		{"b": "Inf"}, {"b": "-Infinity"}, {"b": "4"},
	})
	result, err := newTestCleaner().Apply(context.Background(), snapshot,
		model.ConvertType{Column: "b", Target: model.TargetNumeric})
	require.NoError(t, err)

	assert.Nil(t, result.Snapshot.Rows[0]["b"])
	assert.Nil(t, result.Snapshot.Rows[1]["b"])
	assert.Equal(t, 4.0, result.Snapshot.Rows[2]["b"])
	assert.Contains(t, result.Description, "2 values could not be converted")
}

func TestNormalize(t *testing.T) {
	snapshot := model.NewSnapshot([]string{"v"}, []model.Row{
		{"v": 0.0}, {"v": 5.0}, {"v": 10.0}, {"v": nil},
	})

	result, err := newTestCleaner().Apply(context.Background(), snapshot,
		model.Normalize{Column: "v", Method: model.ScaleMinMax})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Snapshot.Rows[0]["v"])
	assert.Equal(t, 0.5, result.Snapshot.Rows[1]["v"])
	assert.Equal(t, 1.0, result.Snapshot.Rows[2]["v"])
	assert.Nil(t, result.Snapshot.Rows[3]["v"])

	result, err = newTestCleaner().Apply(context.Background(), snapshot,
		model.Normalize{Column: "v", Method: model.ScaleZScore})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, result.Snapshot.Rows[0]["v"], 1e-9)
	assert.InDelta(t, 0.0, result.Snapshot.Rows[1]["v"], 1e-9)
	assert.InDelta(t, 1.0, result.Snapshot.Rows[2]["v"], 1e-9)
}

func TestEncodeCategorical(t *testing.T) {
	result, err := newTestCleaner().Apply(context.Background(), sampleSnapshot(),
		model.EncodeCategorical{Column: "city", Method: model.EncodeLabel})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Snapshot.Rows[0]["city"]) // Bergen=0, Oslo=1
	assert.Equal(t, 0.0, result.Snapshot.Rows[1]["city"])
	assert.Nil(t, result.Snapshot.Rows[2]["city"])

	result, err = newTestCleaner().Apply(context.Background(), sampleSnapshot(),
		model.EncodeCategorical{Column: "city", Method: model.EncodeOneHot})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "score", "city_Bergen", "city_Oslo"}, result.Snapshot.Columns)
	assert.Equal(t, 1.0, result.Snapshot.Rows[0]["city_Oslo"])
	assert.Equal(t, 0.0, result.Snapshot.Rows[0]["city_Bergen"])
	assert.Equal(t, 0.0, result.Snapshot.Rows[2]["city_Oslo"])
	assert.NotContains(t, result.Snapshot.Rows[0], "city")
}

func TestReplayStopsAtFailure(t *testing.T) {
	ops := []model.Operation{
		model.RemoveDuplicates{},
		model.DropColumn{Column: "city"},
		model.Normalize{Column: "city", Method: model.ScaleMinMax},
	}
	final, failed, err := newTestCleaner().Replay(context.Background(), sampleSnapshot(), ops)
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, 2, failed)
	assert.Equal(t, 3, final.Len())
	assert.Equal(t, []string{"id", "score"}, final.Columns)
}

func TestSQLAuditSinkRecordsChanges(t *testing.T) {
	ctx := context.Background()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer db.Close()

	sink, err := NewSQLAuditSink(ctx, db, "people.csv", zap.NewNop())
	require.NoError(t, err)

	c := NewDataCleaner(nil, sink, zap.NewNop())
	_, err = c.Apply(ctx, sampleSnapshot(), model.FillMissing{Column: "score", Strategy: model.FillConstant, Value: "7"})
	require.NoError(t, err)

	var rows []struct {
		Column   string  `db:"column_name"`
		RowIndex int     `db:"row_index"`
		NewValue *string `db:"new_value"`
		Reason   string  `db:"cleaning_reason"`
	}
	require.NoError(t, db.SelectContext(ctx, &rows,
		"SELECT column_name, row_index, new_value, cleaning_reason FROM cleaned_on_ingress"))
	require.Len(t, rows, 1)
	assert.Equal(t, "score", rows[0].Column)
	assert.Equal(t, 1, rows[0].RowIndex)
	require.NotNil(t, rows[0].NewValue)
	assert.Equal(t, "7", *rows[0].NewValue)
	assert.Equal(t, "null_value", rows[0].Reason)
}

func TestReplayLeavesMetricsAndAuditUntouched(t *testing.T) {
	ctx := context.Background()
	db, err := sqlx.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer db.Close()

	sink, err := NewSQLAuditSink(ctx, db, "people.csv", zap.NewNop())
	require.NoError(t, err)

	c := NewDataCleaner(nil, sink, zap.NewNop())
	fill := model.FillMissing{Column: "score", Strategy: model.FillConstant, Value: "7"}
	_, err = c.Apply(ctx, sampleSnapshot(), fill)
	require.NoError(t, err)

	ops := []model.Operation{fill, model.DropColumn{Column: "missing"}}
	final, failed, err := c.Replay(ctx, sampleSnapshot(), ops)
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 7.0, final.Rows[1]["score"])

	applied, failedCount := c.Metrics().Totals()
	assert.Equal(t, 1, applied)
	assert.Equal(t, 0, failedCount)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM cleaned_on_ingress"))
	assert.Equal(t, 1, count)
}
