// pkg/model/cleaning.go
package model

import (
	"encoding/json"
	"fmt"
)

// OperationKind tags a cleaning operation variant
type OperationKind string

const (
	KindRemoveDuplicates  OperationKind = "remove_duplicates"
	KindFillMissing       OperationKind = "fill_missing"
	KindDropColumn        OperationKind = "drop_column"
	KindConvertType       OperationKind = "convert_type"
	KindNormalize         OperationKind = "normalize"
	KindEncodeCategorical OperationKind = "encode_categorical"
)

// FillStrategy selects how missing values are filled
type FillStrategy string

const (
	FillMean     FillStrategy = "mean"
	FillMedian   FillStrategy = "median"
	FillMode     FillStrategy = "mode"
	FillForward  FillStrategy = "forward"
	FillBackward FillStrategy = "backward"
	FillConstant FillStrategy = "constant"
)

// TargetType is the destination type of a conversion
type TargetType string

const (
	TargetNumeric  TargetType = "numeric"
	TargetString   TargetType = "string"
	TargetDatetime TargetType = "datetime"
	TargetBoolean  TargetType = "boolean"
)

// ScaleMethod selects a normalization method
type ScaleMethod string

const (
	ScaleMinMax ScaleMethod = "minmax"
	ScaleZScore ScaleMethod = "zscore"
)

// EncodeMethod selects a categorical encoding
type EncodeMethod string

const (
	EncodeLabel  EncodeMethod = "label"
	EncodeOneHot EncodeMethod = "onehot"
)

// Operation is a requested transformation. Every variant is a value type
// holding only scalars, so copying an Operation copies its parameters.
type Operation interface {
	Kind() OperationKind
	// TargetColumn returns the column the operation works on, or "" for
	// whole-dataset operations
	TargetColumn() string
	// Describe returns the human-readable description shown in the ledger
	Describe() string
}

// RemoveDuplicates drops rows equal to an earlier row across all columns
type RemoveDuplicates struct{}

func (RemoveDuplicates) Kind() OperationKind  { return KindRemoveDuplicates }
func (RemoveDuplicates) TargetColumn() string { return "" }
func (RemoveDuplicates) Describe() string     { return "Removed duplicate rows" }

// FillMissing replaces null cells of a column
type FillMissing struct {
	Column   string       `json:"column"`
	Strategy FillStrategy `json:"strategy"`
	Value    string       `json:"value,omitempty"` // Used by FillConstant
}

func (o FillMissing) Kind() OperationKind  { return KindFillMissing }
func (o FillMissing) TargetColumn() string { return o.Column }
func (o FillMissing) Describe() string {
	if o.Strategy == FillConstant {
		return fmt.Sprintf("Filled missing values in %s with %q", o.Column, o.Value)
	}
	return fmt.Sprintf("Filled missing values in %s with %s", o.Column, o.Strategy)
}

// DropColumn removes a column entirely
type DropColumn struct {
	Column string `json:"column"`
}

func (o DropColumn) Kind() OperationKind  { return KindDropColumn }
func (o DropColumn) TargetColumn() string { return o.Column }
func (o DropColumn) Describe() string     { return fmt.Sprintf("Dropped column: %s", o.Column) }

// ConvertType coerces every value of a column to a target type
type ConvertType struct {
	Column string     `json:"column"`
	Target TargetType `json:"target"`
}

func (o ConvertType) Kind() OperationKind  { return KindConvertType }
func (o ConvertType) TargetColumn() string { return o.Column }
func (o ConvertType) Describe() string {
	return fmt.Sprintf("Converted %s to %s type", o.Column, o.Target)
}

// Normalize rescales a numeric column
type Normalize struct {
	Column string      `json:"column"`
	Method ScaleMethod `json:"method"`
}

func (o Normalize) Kind() OperationKind  { return KindNormalize }
func (o Normalize) TargetColumn() string { return o.Column }
func (o Normalize) Describe() string {
	if o.Method == ScaleZScore {
		return fmt.Sprintf("Standardized %s (z-score)", o.Column)
	}
	return fmt.Sprintf("Normalized %s to 0-1 range", o.Column)
}

// EncodeCategorical turns a text column into numeric codes
type EncodeCategorical struct {
	Column string       `json:"column"`
	Method EncodeMethod `json:"method"`
}

func (o EncodeCategorical) Kind() OperationKind  { return KindEncodeCategorical }
func (o EncodeCategorical) TargetColumn() string { return o.Column }
func (o EncodeCategorical) Describe() string {
	return fmt.Sprintf("Encoded %s with %s encoding", o.Column, o.Method)
}

// OperationRecord is the serialized envelope of an Operation
type OperationRecord struct {
	Type        OperationKind   `json:"type"`
	Column      string          `json:"column,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Description string          `json:"description"`
}

// EncodeOperation wraps an operation in its serialized envelope
func EncodeOperation(op Operation) (OperationRecord, error) {
	if op == nil {
		return OperationRecord{}, fmt.Errorf("operation is nil")
	}
	params, err := json.Marshal(op)
	if err != nil {
		return OperationRecord{}, fmt.Errorf("failed to encode %s parameters: %w", op.Kind(), err)
	}
	return OperationRecord{
		Type:        op.Kind(),
		Column:      op.TargetColumn(),
		Parameters:  params,
		Description: op.Describe(),
	}, nil
}

// DecodeOperation rebuilds the typed variant from its envelope
func DecodeOperation(rec OperationRecord) (Operation, error) {
	var op Operation
	switch rec.Type {
	case KindRemoveDuplicates:
		return RemoveDuplicates{}, nil
	case KindFillMissing:
		var v FillMissing
		if err := unmarshalParams(rec, &v); err != nil {
			return nil, err
		}
		op = v
	case KindDropColumn:
		var v DropColumn
		if err := unmarshalParams(rec, &v); err != nil {
			return nil, err
		}
		op = v
	case KindConvertType:
		var v ConvertType
		if err := unmarshalParams(rec, &v); err != nil {
			return nil, err
		}
		op = v
	case KindNormalize:
		var v Normalize
		if err := unmarshalParams(rec, &v); err != nil {
			return nil, err
		}
		op = v
	case KindEncodeCategorical:
		var v EncodeCategorical
		if err := unmarshalParams(rec, &v); err != nil {
			return nil, err
		}
		op = v
	default:
		return nil, fmt.Errorf("unknown operation type: %q", rec.Type)
	}
	return op, nil
}

func unmarshalParams(rec OperationRecord, dst interface{}) error {
	if len(rec.Parameters) == 0 {
		return fmt.Errorf("operation %s has no parameters", rec.Type)
	}
	if err := json.Unmarshal(rec.Parameters, dst); err != nil {
		return fmt.Errorf("failed to decode %s parameters: %w", rec.Type, err)
	}
	return nil
}

// CellChange records a single value rewritten by a cleaning operation
type CellChange struct {
	ColumnName    string      // Column that was cleaned
	RowIndex      int         // Position of the row in the input snapshot
	OriginalValue interface{} // Original value (may be nil)
	NewValue      interface{} // Value after cleaning (may be nil)
	Operation     string      // Type of cleaning performed (e.g., "fill_missing")
	Reason        string      // Reason for cleaning (e.g., "null_value")
}
