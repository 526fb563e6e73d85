// pkg/converter/values.go
package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

var nullTokens = []string{"null", "NULL", "nil", "NIL", "NaN", "N/A", "n/a"}

// IsNull determines if a value should be treated as missing
func IsNull(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	case string:
		if strings.TrimSpace(v) == "" {
			return true
		}
		for _, token := range nullTokens {
			if v == token {
				return true
			}
		}
	}
	return false
}

// ParseField interprets a raw text field the way the upload decoder does:
// finite numbers become float64, blank fields become nil, anything else
// stays text.
func ParseField(raw string) interface{} {
	if raw == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return raw
}

// ToText converts a value to its display string
func ToText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.Format(time.RFC3339)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, bool:
		return fmt.Sprintf("%v", val)
	default:
		// Try JSON marshaling for complex types
		jsonBytes, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(jsonBytes)
	}
}

// ToFloat attempts to convert a value to a finite float64. Infinities and
// NaN are rejected.
func ToFloat(v interface{}) (float64, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("non-finite number: %v", v)
	}
	return f, nil
}

func toFloat(v interface{}) (float64, error) {
	if v == nil {
		return 0, errors.New("nil value")
	}

	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int8:
		return float64(val), nil
	case int16:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint8:
		return float64(val), nil
	case uint16:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, errors.New("empty string")
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		return strconv.ParseFloat(cleaned, 64)
	case []byte:
		return toFloat(string(val))
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

// ToBool attempts to convert a value to bool
func ToBool(v interface{}) (bool, error) {
	if v == nil {
		return false, errors.New("nil value")
	}

	switch val := v.(type) {
	case bool:
		return val, nil
	case float64:
		return val != 0, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
		f, err := ToFloat(val)
		if err != nil {
			return false, err
		}
		return f != 0, nil
	case string:
		cleaned := strings.TrimSpace(strings.ToLower(val))
		switch cleaned {
		case "true", "t", "yes", "y", "1", "on":
			return true, nil
		case "false", "f", "no", "n", "0", "off":
			return false, nil
		default:
			return false, fmt.Errorf("cannot parse '%s' as boolean", val)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to bool", v)
	}
}

// ToTime attempts to convert a value to time.Time in UTC
func ToTime(v interface{}) (time.Time, error) {
	return ToTimeIn(v, time.UTC)
}

// ToTimeIn attempts to convert a value to time.Time, using loc for layouts
// without a zone. Numbers are read as Unix seconds.
func ToTimeIn(v interface{}, loc *time.Location) (time.Time, error) {
	if v == nil {
		return time.Time{}, errors.New("nil value")
	}
	if loc == nil {
		loc = time.UTC
	}

	switch val := v.(type) {
	case time.Time:
		return val, nil
	case float64:
		sec := int64(val)
		nsec := int64((val - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).In(loc), nil
	case int64:
		return time.Unix(val, 0).In(loc), nil
	case int:
		return time.Unix(int64(val), 0).In(loc), nil
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return time.Time{}, errors.New("empty string")
		}

		if format := DetectTimeFormat(cleaned); format != "" {
			if t, err := time.ParseInLocation(format, cleaned, loc); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("cannot parse time from '%s'", cleaned)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}

// timeLayouts are tried in order by DetectTimeFormat
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"2006/01/02",
	"20060102T150405Z",
	time.RFC1123,
	time.RFC1123Z,
}

// DetectTimeFormat analyzes a value to determine its timestamp layout.
// Returns "" when no known layout matches.
func DetectTimeFormat(value string) string {
	for _, format := range timeLayouts {
		if _, err := time.Parse(format, value); err == nil {
			return format
		}
	}
	return ""
}

// DetectType classifies a single non-null value into a profiler data type
func DetectType(v interface{}) string {
	switch val := v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return model.DataTypeNumeric
	case bool:
		return model.DataTypeBoolean
	case time.Time:
		return model.DataTypeDatetime
	case string:
		if DetectTimeFormat(strings.TrimSpace(val)) != "" {
			return model.DataTypeDatetime
		}
		return model.DataTypeObject
	default:
		return model.DataTypeObject
	}
}
