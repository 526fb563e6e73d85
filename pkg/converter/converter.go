// pkg/converter/converter.go
package converter

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

// TypeConverter coerces cell values between the workbench's column types
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Location used for datetimes without an explicit zone
	DefaultTimezone *time.Location
	// Whether to treat empty strings as NULL
	EmptyStringAsNull bool
	// Layout used when rendering datetimes as text
	TimeLayout string
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		DefaultTimezone:   time.UTC,
		EmptyStringAsNull: true,
		TimeLayout:        time.RFC3339,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultTimezone == nil {
		config.DefaultTimezone = time.UTC
	}
	if config.TimeLayout == "" {
		config.TimeLayout = time.RFC3339
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// Convert coerces a value to the target type. Null values stay nil.
func (c *TypeConverter) Convert(value interface{}, target model.TargetType) (interface{}, error) {
	if c.isNull(value) {
		return nil, nil
	}

	switch target {
	case model.TargetNumeric:
		return ToFloat(value)
	case model.TargetString:
		return c.toText(value), nil
	case model.TargetBoolean:
		return ToBool(value)
	case model.TargetDatetime:
		return ToTimeIn(value, c.config.DefaultTimezone)
	default:
		c.logger.Warn("Unknown conversion target", zap.String("target", string(target)))
		return nil, fmt.Errorf("unknown conversion target: %s", target)
	}
}

// IsNull reports whether a value counts as missing under this configuration
func (c *TypeConverter) IsNull(value interface{}) bool {
	return c.isNull(value)
}

func (c *TypeConverter) isNull(value interface{}) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok && s == "" {
		return c.config.EmptyStringAsNull
	}
	return IsNull(value)
}

func (c *TypeConverter) toText(value interface{}) string {
	if t, ok := value.(time.Time); ok {
		return t.Format(c.config.TimeLayout)
	}
	return ToText(value)
}
