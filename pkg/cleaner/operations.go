// pkg/cleaner/operations.go
package cleaner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/data-cleaner/pkg/converter"
	"github.com/David-Botos/data-cleaner/pkg/model"
	"github.com/David-Botos/data-cleaner/pkg/profile"
)

// removeDuplicates keeps the first occurrence of every distinct row
func removeDuplicates(s *model.Snapshot) (*Result, error) {
	seen := make(map[string]struct{}, len(s.Rows))
	kept := make([]model.Row, 0, len(s.Rows))
	var changes []model.CellChange

	for i, row := range s.Rows {
		key := rowKey(s.Columns, row)
		if _, dup := seen[key]; dup {
			changes = append(changes, model.CellChange{
				RowIndex:  i,
				Operation: string(model.KindRemoveDuplicates),
				Reason:    "duplicate_row",
			})
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}

	s.Rows = kept
	return &Result{
		Snapshot:     s,
		Description:  fmt.Sprintf("Removed %d duplicate rows", len(changes)),
		Changes:      changes,
		RowsAffected: len(changes),
	}, nil
}

func rowKey(columns []string, row model.Row) string {
	var sb strings.Builder
	for _, col := range columns {
		v := row[col]
		if converter.IsNull(v) {
			sb.WriteString("<nil>")
		} else {
			sb.WriteString(fmt.Sprintf("%T:%v", v, v))
		}
		sb.WriteByte(0x1f)
	}
	return sb.String()
}

// fillMissing replaces null cells of one column according to the strategy
func (c *DataCleaner) fillMissing(s *model.Snapshot, op model.FillMissing) (*Result, error) {
	column := s.Columns[s.ColumnIndex(op.Column)]
	values := s.Values(column)
	description := ""

	var fill func(i int) interface{}
	switch op.Strategy {
	case model.FillMean, model.FillMedian:
		nums, err := numericColumn(column, values)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return nil, fmt.Errorf("%w: %s has no values", ErrNotNumeric, column)
		}
		var value float64
		if op.Strategy == model.FillMean {
			value = stat.Mean(nums, nil)
		} else {
			sort.Float64s(nums)
			value = profile.Median(nums)
		}
		description = fmt.Sprintf("Filled missing values in %s with %s (%.2f)", column, op.Strategy, value)
		fill = func(int) interface{} { return value }
	case model.FillMode:
		value := mode(values)
		if value == nil {
			return nil, fmt.Errorf("%w: %s has no values to take a mode from", ErrInvalidParameter, column)
		}
		description = fmt.Sprintf("Filled missing values in %s with mode (%s)", column, converter.ToText(value))
		fill = func(int) interface{} { return value }
	case model.FillForward:
		fill = func(i int) interface{} {
			for j := i - 1; j >= 0; j-- {
				if !converter.IsNull(values[j]) {
					return values[j]
				}
			}
			return nil
		}
	case model.FillBackward:
		fill = func(i int) interface{} {
			for j := i + 1; j < len(values); j++ {
				if !converter.IsNull(values[j]) {
					return values[j]
				}
			}
			return nil
		}
	case model.FillConstant:
		value := converter.ParseField(op.Value)
		if value == nil {
			return nil, fmt.Errorf("%w: constant fill needs a value", ErrInvalidParameter)
		}
		fill = func(int) interface{} { return value }
	default:
		return nil, fmt.Errorf("%w: fill strategy %q", ErrInvalidParameter, op.Strategy)
	}

	var changes []model.CellChange
	for i, row := range s.Rows {
		if !converter.IsNull(values[i]) {
			continue
		}
		newValue := fill(i)
		if newValue == nil {
			continue
		}
		row[column] = newValue
		changes = append(changes, model.CellChange{
			ColumnName:    column,
			RowIndex:      i,
			OriginalValue: values[i],
			NewValue:      newValue,
			Operation:     string(model.KindFillMissing),
			Reason:        "null_value",
		})
	}

	return &Result{
		Snapshot:     s,
		Description:  description,
		Changes:      changes,
		RowsAffected: len(changes),
	}, nil
}

// mode returns the most frequent non-null value; ties go to the first seen
func mode(values []interface{}) interface{} {
	counts := make(map[string]int)
	first := make(map[string]interface{})
	var order []string
	for _, v := range values {
		if converter.IsNull(v) {
			continue
		}
		key := fmt.Sprintf("%T:%v", v, v)
		if _, ok := first[key]; !ok {
			first[key] = v
			order = append(order, key)
		}
		counts[key]++
	}

	best, bestCount := "", 0
	for _, key := range order {
		if counts[key] > bestCount {
			best, bestCount = key, counts[key]
		}
	}
	if bestCount == 0 {
		return nil
	}
	return first[best]
}

// dropColumn removes a column from the header and every row
func dropColumn(s *model.Snapshot, op model.DropColumn) (*Result, error) {
	idx := s.ColumnIndex(op.Column)
	column := s.Columns[idx]
	s.Columns = append(s.Columns[:idx], s.Columns[idx+1:]...)
	for _, row := range s.Rows {
		delete(row, column)
	}
	return &Result{
		Snapshot:     s,
		Description:  fmt.Sprintf("Dropped column: %s", column),
		RowsAffected: len(s.Rows),
	}, nil
}

// convertType coerces a column; values that cannot be converted become nil
func (c *DataCleaner) convertType(s *model.Snapshot, op model.ConvertType) (*Result, error) {
	switch op.Target {
	case model.TargetNumeric, model.TargetString, model.TargetDatetime, model.TargetBoolean:
	default:
		return nil, fmt.Errorf("%w: conversion target %q", ErrInvalidParameter, op.Target)
	}

	column := s.Columns[s.ColumnIndex(op.Column)]
	var changes []model.CellChange
	failed := 0

	for i, row := range s.Rows {
		original := row[column]
		converted, err := c.converter.Convert(original, op.Target)
		reason := "type_standardization"
		if err != nil {
			converted = nil
			reason = fmt.Sprintf("cannot_convert_to_%s", op.Target)
			failed++
		}
		if sameValue(converted, original) {
			continue
		}
		row[column] = converted
		changes = append(changes, model.CellChange{
			ColumnName:    column,
			RowIndex:      i,
			OriginalValue: original,
			NewValue:      converted,
			Operation:     string(model.KindConvertType),
			Reason:        reason,
		})
	}

	description := fmt.Sprintf("Converted %s to %s type", column, op.Target)
	if failed > 0 {
		description = fmt.Sprintf("%s (%d values could not be converted)", description, failed)
	}
	return &Result{
		Snapshot:     s,
		Description:  description,
		Changes:      changes,
		RowsAffected: len(changes),
	}, nil
}

// normalize rescales a numeric column with min-max or z-score
func normalize(s *model.Snapshot, op model.Normalize) (*Result, error) {
	column := s.Columns[s.ColumnIndex(op.Column)]
	nums, err := numericColumn(column, s.Values(column))
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("%w: %s has no values", ErrNotNumeric, column)
	}

	var scale func(float64) float64
	switch op.Method {
	case model.ScaleMinMax, "":
		lo, hi := nums[0], nums[0]
		for _, v := range nums {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		span := hi - lo
		scale = func(v float64) float64 {
			if span == 0 {
				return 0
			}
			return (v - lo) / span
		}
	case model.ScaleZScore:
		mean, std := stat.MeanStdDev(nums, nil)
		if len(nums) < 2 {
			std = 0
		}
		scale = func(v float64) float64 {
			if std == 0 || math.IsNaN(std) {
				return 0
			}
			return (v - mean) / std
		}
	default:
		return nil, fmt.Errorf("%w: scale method %q", ErrInvalidParameter, op.Method)
	}

	var changes []model.CellChange
	for i, row := range s.Rows {
		original := row[column]
		if converter.IsNull(original) {
			continue
		}
		f, _ := converter.ToFloat(original)
		scaled := scale(f)
		row[column] = scaled
		changes = append(changes, model.CellChange{
			ColumnName:    column,
			RowIndex:      i,
			OriginalValue: original,
			NewValue:      scaled,
			Operation:     string(model.KindNormalize),
			Reason:        string(op.Method),
		})
	}

	return &Result{
		Snapshot:     s,
		Changes:      changes,
		RowsAffected: len(changes),
	}, nil
}

// encodeCategorical replaces text categories with label codes or one-hot columns
func encodeCategorical(s *model.Snapshot, op model.EncodeCategorical) (*Result, error) {
	idx := s.ColumnIndex(op.Column)
	column := s.Columns[idx]

	categories := make([]string, 0)
	seen := make(map[string]struct{})
	for _, v := range s.Values(column) {
		if converter.IsNull(v) {
			continue
		}
		key := converter.ToText(v)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			categories = append(categories, key)
		}
	}
	sort.Strings(categories)

	var changes []model.CellChange
	switch op.Method {
	case model.EncodeLabel, "":
		codes := make(map[string]float64, len(categories))
		for i, cat := range categories {
			codes[cat] = float64(i)
		}
		for i, row := range s.Rows {
			original := row[column]
			if converter.IsNull(original) {
				continue
			}
			code := codes[converter.ToText(original)]
			row[column] = code
			changes = append(changes, model.CellChange{
				ColumnName:    column,
				RowIndex:      i,
				OriginalValue: original,
				NewValue:      code,
				Operation:     string(model.KindEncodeCategorical),
				Reason:        "label_encoding",
			})
		}
	case model.EncodeOneHot:
		encoded := make([]string, len(categories))
		for i, cat := range categories {
			encoded[i] = uniqueColumnName(s.Columns, fmt.Sprintf("%s_%s", column, cat))
		}
		for i, row := range s.Rows {
			original := row[column]
			key := ""
			if !converter.IsNull(original) {
				key = converter.ToText(original)
			}
			for j, cat := range categories {
				hot := 0.0
				if cat == key {
					hot = 1.0
				}
				row[encoded[j]] = hot
			}
			delete(row, column)
			changes = append(changes, model.CellChange{
				ColumnName:    column,
				RowIndex:      i,
				OriginalValue: original,
				Operation:     string(model.KindEncodeCategorical),
				Reason:        "onehot_encoding",
			})
		}
		columns := make([]string, 0, len(s.Columns)-1+len(encoded))
		columns = append(columns, s.Columns[:idx]...)
		columns = append(columns, encoded...)
		columns = append(columns, s.Columns[idx+1:]...)
		s.Columns = columns
	default:
		return nil, fmt.Errorf("%w: encoding %q", ErrInvalidParameter, op.Method)
	}

	return &Result{
		Snapshot:     s,
		Description:  fmt.Sprintf("Encoded %s with %s encoding (%d categories)", column, op.Method, len(categories)),
		Changes:      changes,
		RowsAffected: len(changes),
	}, nil
}

func sameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprintf("%T:%v", a, a) == fmt.Sprintf("%T:%v", b, b)
}

func uniqueColumnName(existing []string, name string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, col := range existing {
		taken[col] = struct{}{}
	}
	candidate := name
	for n := 2; ; n++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
}

// numericColumn collects the non-null values of a column, failing if any
// of them is not a number
func numericColumn(column string, values []interface{}) ([]float64, error) {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if converter.IsNull(v) {
			continue
		}
		if converter.DetectType(v) != model.DataTypeNumeric {
			return nil, fmt.Errorf("%w: %s contains %v", ErrNotNumeric, column, v)
		}
		f, err := converter.ToFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotNumeric, column, err)
		}
		nums = append(nums, f)
	}
	return nums, nil
}
