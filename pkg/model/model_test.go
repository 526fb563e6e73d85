package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineStepJSON(t *testing.T) {
	step := NewPipelineStep(FillMissing{Column: "age", Strategy: FillMedian}).
		WithStatus(StepApplied, "Filled 3 values")

	data, err := json.Marshal(step)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"fill_missing"`)
	assert.Contains(t, string(data), `"description":"Filled missing values in age with median"`)

	var decoded PipelineStep
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, step.ID, decoded.ID)
	assert.Equal(t, StepApplied, decoded.Status)
	assert.Equal(t, "Filled 3 values", decoded.Result)
	assert.Equal(t, step.Operation, decoded.Operation)
	assert.True(t, step.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeOperationRejectsUnknownType(t *testing.T) {
	_, err := DecodeOperation(OperationRecord{Type: "shuffle_rows"})
	assert.Error(t, err)

	_, err = DecodeOperation(OperationRecord{Type: KindDropColumn})
	assert.Error(t, err, "parameters are required for column operations")
}

func TestNewPipelineStepIDsAreUnique(t *testing.T) {
	a := NewPipelineStep(RemoveDuplicates{})
	b := NewPipelineStep(RemoveDuplicates{})
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, StepPending, a.Status)
	assert.Equal(t, "Removed duplicate rows", a.Description())
}

func TestParseView(t *testing.T) {
	for _, v := range Views {
		parsed, err := ParseView(string(v))
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}

	_, err := ParseView("settings")
	assert.Error(t, err)
	assert.Equal(t, ViewUpload, DefaultView)
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	original := NewSnapshot([]string{"a"}, []Row{{"a": 1.0}})
	clone := original.Clone()

	clone.Rows[0]["a"] = 2.0
	clone.Columns[0] = "b"

	assert.Equal(t, 1.0, original.Rows[0]["a"])
	assert.Equal(t, "a", original.Columns[0])
}

func TestColumnIndexFallsBackToCaseInsensitive(t *testing.T) {
	s := NewSnapshot([]string{"Name", "name "}, nil)
	assert.Equal(t, 0, s.ColumnIndex("Name"))
	assert.Equal(t, 1, s.ColumnIndex("name "))
	assert.Equal(t, 0, s.ColumnIndex("NAME"))
	assert.Equal(t, -1, s.ColumnIndex("age"))

	var nilSnapshot *Snapshot
	assert.Equal(t, 0, nilSnapshot.Len())
	assert.False(t, nilSnapshot.HasColumn("a"))
}

func TestArchiveEntryCloneIsIndependent(t *testing.T) {
	entry := ArchiveEntry{
		ID:       "1",
		Pipeline: []PipelineStep{NewPipelineStep(RemoveDuplicates{})},
		Profile:  []ColumnProfile{{Column: "a", Stats: &NumericStats{Mean: 1}}},
	}
	clone := entry.Clone()
	clone.Pipeline[0].Status = StepError
	clone.Profile[0].Stats.Mean = 5

	assert.Equal(t, StepPending, entry.Pipeline[0].Status)
	assert.Equal(t, 1.0, entry.Profile[0].Stats.Mean)
}
