package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqualityMatrix(t *testing.T) {
	over := BigValue(Int128FromInt64(math.MaxInt64).Add(Int128FromInt64(1)))

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int int", IntValue(3), IntValue(3), true},
		{"int int differ", IntValue(3), IntValue(4), false},
		{"int big same", IntValue(5), BigValue(Int128FromInt64(5)), true},
		{"int big differ", IntValue(5), over, false},
		{"int float same", IntValue(2), FloatValue(2.0), true},
		{"int float differ", IntValue(2), FloatValue(2.5), false},
		{"big float widened", over, FloatValue(9223372036854775808.0), true},
		{"string string", StringValue("abc"), StringValue("abc"), true},
		{"string bytes differ", StringValue("abc"), StringValue("abd"), false},
		{"bool bool", BoolValue(true), BoolValue(true), true},
		{"bool int never equal", BoolValue(true), IntValue(1), false},
		{"null null", Null, Null, true},
		{"null int", Null, IntValue(0), false},
		{"string int", StringValue("1"), IntValue(1), false},
		{"empty arrays", ArrayValue(nil), ArrayValue([]Value{}), true},
		{"arrays elementwise", ArrayValue([]Value{IntValue(1), StringValue("x")}), ArrayValue([]Value{IntValue(1), StringValue("x")}), true},
		{"arrays length differ", ArrayValue([]Value{IntValue(1)}), ArrayValue(nil), false},
		{"arrays nested", ArrayValue([]Value{ArrayValue([]Value{IntValue(1)})}), ArrayValue([]Value{ArrayValue([]Value{IntValue(2)})}), false},
		{"arrays mixed numeric", ArrayValue([]Value{IntValue(2)}), ArrayValue([]Value{FloatValue(2.0)}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, valuesEqual(tt.a, tt.b))
			assert.Equal(t, tt.want, valuesEqual(tt.b, tt.a), "equality must be symmetric")
		})
	}
}

// TestOrderingTotality checks that for all numeric pairs exactly one of
// LT, EQ, GT holds, and that LE/GE are their disjunctions with EQ.
func TestOrderingTotality(t *testing.T) {
	samples := []Value{
		IntValue(math.MinInt64),
		IntValue(-1),
		IntValue(0),
		IntValue(1),
		IntValue(math.MaxInt64),
		BigValue(Int128FromInt64(math.MaxInt64).Add(Int128FromInt64(1))),
		BigValue(minInt128),
		FloatValue(-2.5),
		FloatValue(0),
		FloatValue(0.5),
		FloatValue(1e30),
	}

	for _, a := range samples {
		for _, b := range samples {
			ord, ok := compareNumeric(a, b)
			assert.True(t, ok, "%s vs %s must be comparable", Render(a), Render(b))

			lt, eq, gt := ord < 0, ord == 0, ord > 0
			count := 0
			for _, h := range []bool{lt, eq, gt} {
				if h {
					count++
				}
			}
			assert.Equal(t, 1, count, "exactly one of LT/EQ/GT for %s vs %s", Render(a), Render(b))
			assert.Equal(t, lt || eq, ord <= 0)
			assert.Equal(t, gt || eq, ord >= 0)
		}
	}
}

func TestOrderingMixedWidening(t *testing.T) {
	over := BigValue(Int128FromInt64(math.MaxInt64).Add(Int128FromInt64(1)))

	ord, ok := compareNumeric(IntValue(math.MaxInt64), over)
	assert.True(t, ok)
	assert.Equal(t, -1, ord, "MaxInt64 < MaxInt64+1 in 128-bit comparison")

	ord, ok = compareNumeric(over, FloatValue(1e40))
	assert.True(t, ok)
	assert.Equal(t, -1, ord, "big widens to float against float operands")
}

func TestOrderingNonNumeric(t *testing.T) {
	pairs := [][2]Value{
		{StringValue("a"), StringValue("b")},
		{StringValue("1"), IntValue(2)},
		{Null, IntValue(0)},
		{BoolValue(false), BoolValue(true)},
		{ArrayValue(nil), ArrayValue(nil)},
	}

	for _, p := range pairs {
		_, ok := compareNumeric(p[0], p[1])
		assert.False(t, ok, "%s vs %s must not be ordered", p[0].Kind(), p[1].Kind())
	}
}
