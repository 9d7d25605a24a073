package vm

import (
	"math/bits"
	"strconv"
)

// Int128 is a signed 128-bit integer in two's complement, stored as a
// signed high word and an unsigned low word. The represented value is
// Hi*2^64 + Lo.
//
// Arithmetic wraps at 128 bits. All intermediate integer arithmetic in the
// VM runs through this type: i64 operands are widened, the operation is
// computed at full 128-bit precision, and results that fit back in 64 bits
// are narrowed again by the caller.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Int128FromInt64 sign-extends a 64-bit integer to 128 bits.
func Int128FromInt64(v int64) Int128 {
	return Int128{Hi: v >> 63, Lo: uint64(v)}
}

// Int128Mul64 returns the exact 128-bit product of two signed 64-bit
// integers. This is the widening entry point for i64 multiplication: the
// product of two i64 values always fits in 128 bits.
func Int128Mul64(a, b int64) Int128 {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	// Adjust the unsigned product for negative operands.
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return Int128{Hi: int64(hi), Lo: lo}
}

// IsZero returns true if the value is zero.
func (x Int128) IsZero() bool {
	return x.Hi == 0 && x.Lo == 0
}

// Sign returns -1, 0, or +1.
func (x Int128) Sign() int {
	if x.Hi == 0 && x.Lo == 0 {
		return 0
	}
	if x.Hi < 0 {
		return -1
	}
	return 1
}

// IsInt64 returns true if the value is representable as a signed 64-bit
// integer, i.e. the high word is the sign extension of the low word.
func (x Int128) IsInt64() bool {
	return x.Hi == int64(x.Lo)>>63
}

// Int64 returns the low 64 bits as a signed integer. Only meaningful when
// IsInt64 holds.
func (x Int128) Int64() int64 {
	return int64(x.Lo)
}

// Float64 returns the nearest IEEE-754 double.
func (x Int128) Float64() float64 {
	hi, lo := x.magnitude()
	f := float64(lo)
	if hi != 0 {
		// Keep the top 64 significant bits, folding the dropped low bits
		// into a sticky bit, so the single conversion rounds correctly.
		n := uint(bits.Len64(hi))
		m := hi<<(64-n) | lo>>n
		if lo&(1<<n-1) != 0 {
			m |= 1
		}
		f = float64(m) * float64(uint64(1)<<(n-1)) * 2
	}
	if x.Sign() < 0 {
		return -f
	}
	return f
}

// Add returns x + y, wrapping at 128 bits.
func (x Int128) Add(y Int128) Int128 {
	lo, carry := bits.Add64(x.Lo, y.Lo, 0)
	return Int128{Hi: int64(uint64(x.Hi) + uint64(y.Hi) + carry), Lo: lo}
}

// Sub returns x - y, wrapping at 128 bits.
func (x Int128) Sub(y Int128) Int128 {
	lo, borrow := bits.Sub64(x.Lo, y.Lo, 0)
	return Int128{Hi: int64(uint64(x.Hi) - uint64(y.Hi) - borrow), Lo: lo}
}

// Neg returns -x, wrapping at 128 bits (the negation of the minimum value
// is itself).
func (x Int128) Neg() Int128 {
	return Int128{}.Sub(x)
}

// Mul returns x * y, wrapping at 128 bits.
func (x Int128) Mul(y Int128) Int128 {
	hi, lo := bits.Mul64(x.Lo, y.Lo)
	hi += uint64(x.Hi)*y.Lo + x.Lo*uint64(y.Hi)
	return Int128{Hi: int64(hi), Lo: lo}
}

// Cmp returns -1, 0, or +1 comparing x against y.
func (x Int128) Cmp(y Int128) int {
	if x.Hi != y.Hi {
		if x.Hi < y.Hi {
			return -1
		}
		return 1
	}
	if x.Lo != y.Lo {
		if x.Lo < y.Lo {
			return -1
		}
		return 1
	}
	return 0
}

// QuoRem returns the quotient and remainder of x / y with truncation toward
// zero; the remainder carries the sign of the dividend. The divisor must be
// nonzero.
func (x Int128) QuoRem(y Int128) (quo, rem Int128) {
	uxHi, uxLo := x.magnitude()
	uyHi, uyLo := y.magnitude()

	qHi, qLo, rHi, rLo := udiv128(uxHi, uxLo, uyHi, uyLo)

	quo = Int128{Hi: int64(qHi), Lo: qLo}
	if (x.Sign() < 0) != (y.Sign() < 0) {
		quo = quo.Neg()
	}
	rem = Int128{Hi: int64(rHi), Lo: rLo}
	if x.Sign() < 0 {
		rem = rem.Neg()
	}
	return quo, rem
}

// String renders the value in base 10 with a leading minus for negatives.
func (x Int128) String() string {
	if x.IsInt64() {
		return strconv.FormatInt(x.Int64(), 10)
	}

	hi, lo := x.magnitude()

	// Peel off 19-digit chunks by dividing the magnitude by 10^19.
	const chunk = 1e19
	var out []byte
	for hi != 0 {
		var r uint64
		hi, lo, r = udivSmall(hi, lo, chunk)
		digits := strconv.AppendUint(nil, r, 10)
		pad := make([]byte, 19-len(digits))
		for i := range pad {
			pad[i] = '0'
		}
		out = append(append(append([]byte{}, pad...), digits...), out...)
	}
	out = append(strconv.AppendUint(nil, lo, 10), out...)

	if x.Sign() < 0 {
		return "-" + string(out)
	}
	return string(out)
}

// magnitude returns |x| as an unsigned 128-bit pair. The minimum value's
// magnitude (2^127) is representable unsigned, so there is no overflow case.
func (x Int128) magnitude() (hi, lo uint64) {
	if x.Sign() >= 0 {
		return uint64(x.Hi), x.Lo
	}
	lo, carry := bits.Add64(^x.Lo, 1, 0)
	hi = ^uint64(x.Hi) + carry
	return hi, lo
}

// udivSmall divides an unsigned 128-bit value by an unsigned 64-bit
// divisor, returning the 128-bit quotient and the remainder.
func udivSmall(uHi, uLo, d uint64) (qHi, qLo, rem uint64) {
	qHi, r := bits.Div64(0, uHi, d)
	qLo, rem = bits.Div64(r, uLo, d)
	return qHi, qLo, rem
}

// udiv128 divides one unsigned 128-bit value by another, returning the
// quotient and remainder. The divisor must be nonzero.
func udiv128(uHi, uLo, vHi, vLo uint64) (qHi, qLo, rHi, rLo uint64) {
	if vHi == 0 {
		qHi, qLo, r := udivSmall(uHi, uLo, vLo)
		return qHi, qLo, 0, r
	}

	// Divisor occupies more than 64 bits: shift-subtract long division.
	// The quotient fits in 64 bits, but running the full width keeps the
	// loop uniform.
	for i := 127; i >= 0; i-- {
		// r = (r << 1) | bit i of u
		rHi = rHi<<1 | rLo>>63
		rLo <<= 1
		if i >= 64 {
			rLo |= uHi >> (i - 64) & 1
		} else {
			rLo |= uLo >> i & 1
		}

		if rHi > vHi || (rHi == vHi && rLo >= vLo) {
			var borrow uint64
			rLo, borrow = bits.Sub64(rLo, vLo, 0)
			rHi = rHi - vHi - borrow
			if i >= 64 {
				qHi |= 1 << (i - 64)
			} else {
				qLo |= 1 << i
			}
		}
	}
	return qHi, qLo, rHi, rLo
}
