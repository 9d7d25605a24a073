package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	maxInt128 = Int128{Hi: math.MaxInt64, Lo: math.MaxUint64}
	minInt128 = Int128{Hi: math.MinInt64, Lo: 0}
)

func TestInt128FromInt64(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 42, math.MaxInt64, math.MinInt64} {
		x := Int128FromInt64(v)
		assert.True(t, x.IsInt64(), "value %d", v)
		assert.Equal(t, v, x.Int64(), "value %d", v)
	}
}

func TestInt128IsInt64Boundary(t *testing.T) {
	// 2^63, one past MaxInt64
	x := Int128FromInt64(math.MaxInt64).Add(Int128FromInt64(1))
	assert.False(t, x.IsInt64())
	assert.Equal(t, "9223372036854775808", x.String())

	// -2^63-1, one below MinInt64
	y := Int128FromInt64(math.MinInt64).Sub(Int128FromInt64(1))
	assert.False(t, y.IsInt64())
	assert.Equal(t, "-9223372036854775809", y.String())
}

func TestInt128Mul64Exact(t *testing.T) {
	tests := []struct {
		a, b int64
		want string
	}{
		{0, math.MaxInt64, "0"},
		{2, 3, "6"},
		{-2, 3, "-6"},
		{-2, -3, "6"},
		{math.MaxInt64, math.MaxInt64, "85070591730234615847396907784232501249"},
		{math.MinInt64, math.MinInt64, "85070591730234615865843651857942052864"},
		{math.MinInt64, -1, "9223372036854775808"},
		{math.MaxInt64, -2, "-18446744073709551614"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Int128Mul64(tt.a, tt.b).String(), "%d * %d", tt.a, tt.b)
	}
}

func TestInt128AddSub(t *testing.T) {
	a := Int128Mul64(math.MaxInt64, 4)
	b := Int128Mul64(math.MaxInt64, 3)

	assert.Equal(t, "64563604257983430649", a.Add(b).String())
	assert.Equal(t, "9223372036854775807", a.Sub(b).String())

	// Round trip
	assert.Equal(t, 0, a.Add(b).Sub(b).Cmp(a))
}

func TestInt128Neg(t *testing.T) {
	assert.Equal(t, "-1", Int128FromInt64(1).Neg().String())
	assert.Equal(t, "0", Int128{}.Neg().String())
	// The minimum value negates to itself under wrapping.
	assert.Equal(t, minInt128, minInt128.Neg())
}

func TestInt128Extremes(t *testing.T) {
	assert.Equal(t, "170141183460469231731687303715884105727", maxInt128.String())
	assert.Equal(t, "-170141183460469231731687303715884105728", minInt128.String())
}

func TestInt128QuoRem(t *testing.T) {
	tests := []struct {
		a, b     Int128
		quo, rem string
	}{
		{Int128FromInt64(7), Int128FromInt64(2), "3", "1"},
		{Int128FromInt64(-7), Int128FromInt64(2), "-3", "-1"},
		{Int128FromInt64(7), Int128FromInt64(-2), "-3", "1"},
		{Int128FromInt64(-7), Int128FromInt64(-2), "3", "-1"},
		{Int128Mul64(math.MaxInt64, 10), Int128FromInt64(10), "9223372036854775807", "0"},
		{Int128Mul64(math.MaxInt64, 10), Int128FromInt64(11), "8384883669867978006", "4"},
		// Divisor wider than 64 bits: quotient by long division.
		{Int128Mul64(math.MaxInt64, math.MaxInt64), Int128Mul64(math.MaxInt64, 2), "4611686018427387903", "9223372036854775807"},
		{maxInt128, maxInt128, "1", "0"},
		{Int128FromInt64(5), maxInt128, "0", "5"},
	}

	for _, tt := range tests {
		quo, rem := tt.a.QuoRem(tt.b)
		assert.Equal(t, tt.quo, quo.String(), "%s / %s", tt.a, tt.b)
		assert.Equal(t, tt.rem, rem.String(), "%s %% %s", tt.a, tt.b)
	}
}

func TestInt128QuoRemReconstructs(t *testing.T) {
	// a == q*b + r for a spread of sign and width combinations.
	values := []Int128{
		Int128FromInt64(12345),
		Int128FromInt64(-98765),
		Int128Mul64(math.MaxInt64, 97),
		Int128Mul64(math.MinInt64, 33),
		maxInt128,
	}
	divisors := []Int128{
		Int128FromInt64(7),
		Int128FromInt64(-13),
		Int128FromInt64(math.MaxInt64),
		Int128Mul64(math.MaxInt64, 5),
	}

	for _, a := range values {
		for _, b := range divisors {
			quo, rem := a.QuoRem(b)
			back := quo.Mul(b).Add(rem)
			require.Equal(t, 0, back.Cmp(a), "%s / %s gave %s rem %s", a, b, quo, rem)
		}
	}
}

func TestInt128Cmp(t *testing.T) {
	ordered := []Int128{
		minInt128,
		Int128FromInt64(math.MinInt64),
		Int128FromInt64(-1),
		{},
		Int128FromInt64(1),
		Int128FromInt64(math.MaxInt64),
		Int128Mul64(math.MaxInt64, 2),
		maxInt128,
	}

	for i, a := range ordered {
		for j, b := range ordered {
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			assert.Equal(t, want, a.Cmp(b), "%s vs %s", a, b)
		}
	}
}

func TestInt128Float64(t *testing.T) {
	assert.Equal(t, 0.0, Int128{}.Float64())
	assert.Equal(t, -1.0, Int128FromInt64(-1).Float64())
	assert.InEpsilon(t, 1.8446744073709552e19, Int128Mul64(math.MaxInt64, 2).Float64(), 1e-12)
	assert.InEpsilon(t, -1.7014118346046923e38, minInt128.Float64(), 1e-12)
}
