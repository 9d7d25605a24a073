package vm

import (
	"math"
	"strconv"
	"strings"
)

// castInt implements CAST_INT. A big_integer outside the signed-64 range is
// returned unchanged; every other convertible source coerces to integer.
func castInt(v Value, offset int) (Value, error) {
	switch v.Kind() {
	case KindInt:
		return v, nil
	case KindBig:
		if v.Big().IsInt64() {
			return IntValue(v.Big().Int64()), nil
		}
		return v, nil
	case KindFloat:
		return IntValue(truncFloat(v.Float())), nil
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str()), 10, 64)
		if err != nil {
			return Value{}, errf(InvalidCast, offset, "cannot parse %q as integer", v.Str())
		}
		return IntValue(n), nil
	case KindBool:
		if v.Bool() {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	default:
		return Value{}, errf(InvalidCast, offset, "cannot cast %s to integer", v.Kind())
	}
}

// castFloat implements CAST_FLOAT.
func castFloat(v Value, offset int) (Value, error) {
	switch v.Kind() {
	case KindInt:
		return FloatValue(float64(v.Int())), nil
	case KindBig:
		return FloatValue(v.Big().Float64()), nil
	case KindFloat:
		return v, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str()), 64)
		if err != nil {
			return Value{}, errf(InvalidCast, offset, "cannot parse %q as float", v.Str())
		}
		return FloatValue(f), nil
	case KindBool:
		if v.Bool() {
			return FloatValue(1), nil
		}
		return FloatValue(0), nil
	default:
		return Value{}, errf(InvalidCast, offset, "cannot cast %s to float", v.Kind())
	}
}

// toInt coerces a value to an i64 for size-like operands (ARRAY_NEW).
func toInt(v Value, offset int) (int64, error) {
	iv, err := castInt(v, offset)
	if err != nil {
		return 0, err
	}
	if iv.Kind() == KindBig {
		return 0, errf(InvalidCast, offset, "value out of integer range")
	}
	return iv.Int(), nil
}

// truncFloat truncates toward zero, saturating at the i64 bounds.
func truncFloat(f float64) int64 {
	t := math.Trunc(f)
	switch {
	case math.IsNaN(t):
		return 0
	case t >= math.MaxInt64:
		return math.MaxInt64
	case t <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(t)
	}
}
