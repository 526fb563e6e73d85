package converter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/data-cleaner/pkg/model"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want interface{}
	}{
		{"integer", "1", 1.0},
		{"decimal", "2.5", 2.5},
		{"negative", "-3", -3.0},
		{"text", "x", "x"},
		{"blank", "", nil},
		{"not a number", "NaN", "NaN"},
		{"infinity stays text", "Inf", "Inf"},
		{"number with suffix", "12abc", "12abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseField(tt.raw))
		})
	}
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(""))
	assert.True(t, IsNull("  "))
	assert.True(t, IsNull("NULL"))
	assert.False(t, IsNull(0.0))
	assert.False(t, IsNull("0"))
	assert.False(t, IsNull(false))
}

func TestToFloat(t *testing.T) {
	f, err := ToFloat(" 1,250.5 ")
	require.NoError(t, err)
	assert.Equal(t, 1250.5, f)

	f, err = ToFloat(int64(7))
	require.NoError(t, err)
	assert.Equal(t, 7.0, f)

	_, err = ToFloat("abc")
	assert.Error(t, err)

	_, err = ToFloat(nil)
	assert.Error(t, err)

	for _, v := range []interface{}{"Inf", "-Infinity", "NaN", "1e400", math.Inf(1), math.NaN(), []byte("+Inf")} {
		_, err = ToFloat(v)
		assert.Error(t, err, "%v", v)
	}
}

func TestToBool(t *testing.T) {
	for _, in := range []interface{}{"yes", "TRUE", "1", 1.0, true} {
		b, err := ToBool(in)
		require.NoError(t, err, "input %v", in)
		assert.True(t, b, "input %v", in)
	}
	for _, in := range []interface{}{"no", "off", 0.0, false} {
		b, err := ToBool(in)
		require.NoError(t, err, "input %v", in)
		assert.False(t, b, "input %v", in)
	}
	_, err := ToBool("maybe")
	assert.Error(t, err)
}

func TestToTime(t *testing.T) {
	got, err := ToTime("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ToTime("03/15/2023")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 15, got.Day())

	_, err = ToTime("not a date")
	assert.Error(t, err)
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, model.DataTypeNumeric, DetectType(3.0))
	assert.Equal(t, model.DataTypeBoolean, DetectType(true))
	assert.Equal(t, model.DataTypeDatetime, DetectType("2024-01-02"))
	assert.Equal(t, model.DataTypeObject, DetectType("hello"))
}

func TestTypeConverterConvert(t *testing.T) {
	c := NewTypeConverter(zap.NewNop())

	v, err := c.Convert("42", model.TargetNumeric)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)

	v, err = c.Convert(3.0, model.TargetString)
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	v, err = c.Convert("", model.TargetNumeric)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = c.Convert("x", model.TargetType("currency"))
	assert.Error(t, err)
}
