// pkg/shell/parse.go
package shell

import (
	"fmt"
	"strings"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

const applyHelp = `Operations:
  apply remove_duplicates
  apply fill_missing <column> <mean|median|mode|forward|backward|constant> [value]
  apply drop_column <column>
  apply convert_type <column> <numeric|string|datetime|boolean>
  apply normalize <column> <minmax|zscore>
  apply encode_categorical <column> <label|onehot>
Quote column names that contain spaces.`

// parseOperation builds a typed operation from apply arguments
func parseOperation(args []string) (model.Operation, error) {
	kind := model.OperationKind(strings.ToLower(args[0]))
	params := args[1:]

	need := func(n int) error {
		if len(params) != n {
			return fmt.Errorf("%s takes %d arguments, got %d", kind, n, len(params))
		}
		return nil
	}

	switch kind {
	case model.KindRemoveDuplicates:
		if err := need(0); err != nil {
			return nil, err
		}
		return model.RemoveDuplicates{}, nil

	case model.KindFillMissing:
		if len(params) < 2 || len(params) > 3 {
			return nil, fmt.Errorf("%s takes a column, a strategy and an optional value", kind)
		}
		strategy := model.FillStrategy(strings.ToLower(params[1]))
		switch strategy {
		case model.FillMean, model.FillMedian, model.FillMode, model.FillForward, model.FillBackward:
			if len(params) == 3 {
				return nil, fmt.Errorf("strategy %s takes no value", strategy)
			}
		case model.FillConstant:
			if len(params) != 3 {
				return nil, fmt.Errorf("strategy %s needs a value", strategy)
			}
		default:
			return nil, fmt.Errorf("unknown fill strategy %q", params[1])
		}
		op := model.FillMissing{Column: params[0], Strategy: strategy}
		if len(params) == 3 {
			op.Value = params[2]
		}
		return op, nil

	case model.KindDropColumn:
		if err := need(1); err != nil {
			return nil, err
		}
		return model.DropColumn{Column: params[0]}, nil

	case model.KindConvertType:
		if err := need(2); err != nil {
			return nil, err
		}
		target := model.TargetType(strings.ToLower(params[1]))
		switch target {
		case model.TargetNumeric, model.TargetString, model.TargetDatetime, model.TargetBoolean:
		default:
			return nil, fmt.Errorf("unknown target type %q", params[1])
		}
		return model.ConvertType{Column: params[0], Target: target}, nil

	case model.KindNormalize:
		if err := need(2); err != nil {
			return nil, err
		}
		method := model.ScaleMethod(strings.ToLower(params[1]))
		if method != model.ScaleMinMax && method != model.ScaleZScore {
			return nil, fmt.Errorf("unknown normalization method %q", params[1])
		}
		return model.Normalize{Column: params[0], Method: method}, nil

	case model.KindEncodeCategorical:
		if err := need(2); err != nil {
			return nil, err
		}
		method := model.EncodeMethod(strings.ToLower(params[1]))
		if method != model.EncodeLabel && method != model.EncodeOneHot {
			return nil, fmt.Errorf("unknown encoding method %q", params[1])
		}
		return model.EncodeCategorical{Column: params[0], Method: method}, nil
	}

	return nil, fmt.Errorf("unknown operation %q; type 'help apply'", args[0])
}
