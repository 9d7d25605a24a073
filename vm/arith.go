package vm

import "math"

// Numeric promotion lattice: integer < big_integer < float. A float operand
// promotes the operation to the float domain; otherwise a big_integer
// operand promotes to the 128-bit domain; two integers compute in 128 bits
// and narrow back to integer when the result fits. ADD additionally treats
// string as a terminal absorbing domain for concatenation.

// numericDomain returns the promotion domain for a pair of numeric
// operands, or false if either operand is non-numeric.
func numericDomain(a, b Value) (Kind, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return 0, false
	}
	if a.Kind() == KindFloat || b.Kind() == KindFloat {
		return KindFloat, true
	}
	if a.Kind() == KindBig || b.Kind() == KindBig {
		return KindBig, true
	}
	return KindInt, true
}

// wide widens an integer or big_integer operand to 128 bits.
func wide(v Value) Int128 {
	if v.Kind() == KindBig {
		return v.Big()
	}
	return Int128FromInt64(v.Int())
}

// asFloat widens any numeric operand to a double.
func asFloat(v Value) float64 {
	switch v.Kind() {
	case KindInt:
		return float64(v.Int())
	case KindBig:
		return v.Big().Float64()
	default:
		return v.Float()
	}
}

// binaryAdd implements ADD: numeric addition with overflow widening, or
// string concatenation when either operand is a string.
func binaryAdd(a, b Value, offset int) (Value, error) {
	if a.Kind() == KindString || b.Kind() == KindString {
		return concat(a, b, offset)
	}
	domain, ok := numericDomain(a, b)
	if !ok {
		return Value{}, errf(InvalidCast, offset, "cannot add %s and %s", a.Kind(), b.Kind())
	}
	switch domain {
	case KindFloat:
		return FloatValue(asFloat(a) + asFloat(b)), nil
	case KindBig:
		return BigValue(wide(a).Add(wide(b))), nil
	default:
		return narrowBig(Int128FromInt64(a.Int()).Add(Int128FromInt64(b.Int()))), nil
	}
}

// binarySub implements SUB.
func binarySub(a, b Value, offset int) (Value, error) {
	domain, ok := numericDomain(a, b)
	if !ok {
		return Value{}, errf(InvalidCast, offset, "cannot subtract %s from %s", b.Kind(), a.Kind())
	}
	switch domain {
	case KindFloat:
		return FloatValue(asFloat(a) - asFloat(b)), nil
	case KindBig:
		return BigValue(wide(a).Sub(wide(b))), nil
	default:
		return narrowBig(Int128FromInt64(a.Int()).Sub(Int128FromInt64(b.Int()))), nil
	}
}

// binaryMul implements MUL.
func binaryMul(a, b Value, offset int) (Value, error) {
	domain, ok := numericDomain(a, b)
	if !ok {
		return Value{}, errf(InvalidCast, offset, "cannot multiply %s and %s", a.Kind(), b.Kind())
	}
	switch domain {
	case KindFloat:
		return FloatValue(asFloat(a) * asFloat(b)), nil
	case KindBig:
		return BigValue(wide(a).Mul(wide(b))), nil
	default:
		return narrowBig(Int128Mul64(a.Int(), b.Int())), nil
	}
}

// binaryDiv implements DIV. Integer division truncates toward zero. A zero
// divisor is an error in every domain, including float 0.0.
func binaryDiv(a, b Value, offset int) (Value, error) {
	domain, ok := numericDomain(a, b)
	if !ok {
		return Value{}, errf(InvalidCast, offset, "cannot divide %s by %s", a.Kind(), b.Kind())
	}
	if divisorIsZero(b) {
		return Value{}, errf(DivisionByZero, offset, "division by zero")
	}
	switch domain {
	case KindFloat:
		return FloatValue(asFloat(a) / asFloat(b)), nil
	case KindBig:
		q, _ := wide(a).QuoRem(wide(b))
		return BigValue(q), nil
	default:
		q, _ := Int128FromInt64(a.Int()).QuoRem(Int128FromInt64(b.Int()))
		return narrowBig(q), nil
	}
}

// binaryMod implements MOD. The remainder carries the sign of the dividend.
func binaryMod(a, b Value, offset int) (Value, error) {
	domain, ok := numericDomain(a, b)
	if !ok {
		return Value{}, errf(InvalidCast, offset, "cannot take %s modulo %s", a.Kind(), b.Kind())
	}
	if divisorIsZero(b) {
		return Value{}, errf(DivisionByZero, offset, "modulus by zero")
	}
	switch domain {
	case KindFloat:
		return FloatValue(floatMod(asFloat(a), asFloat(b))), nil
	case KindBig:
		_, r := wide(a).QuoRem(wide(b))
		return BigValue(r), nil
	default:
		_, r := Int128FromInt64(a.Int()).QuoRem(Int128FromInt64(b.Int()))
		return narrowBig(r), nil
	}
}

// divisorIsZero reports a zero divisor in any numeric representation.
func divisorIsZero(v Value) bool {
	switch v.Kind() {
	case KindInt:
		return v.Int() == 0
	case KindBig:
		return v.Big().IsZero()
	case KindFloat:
		return v.Float() == 0
	default:
		return false
	}
}

// floatMod is truncated float remainder: same sign as the dividend,
// matching the integer domains. math.Mod already truncates.
func floatMod(a, b float64) float64 {
	return math.Mod(a, b)
}

// concat implements the string branch of ADD. The non-string side must be
// a number, boolean, or string; null and arrays do not concatenate.
func concat(a, b Value, offset int) (Value, error) {
	as, err := concatOperand(a, offset)
	if err != nil {
		return Value{}, err
	}
	bs, err := concatOperand(b, offset)
	if err != nil {
		return Value{}, err
	}
	return StringValue(as + bs), nil
}

func concatOperand(v Value, offset int) (string, error) {
	switch v.Kind() {
	case KindString, KindInt, KindBig, KindFloat, KindBool:
		return Render(v), nil
	default:
		return "", errf(InvalidCast, offset, "cannot concatenate %s", v.Kind())
	}
}
