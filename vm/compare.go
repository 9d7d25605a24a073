package vm

// valuesEqual implements the EQ/NE matrix. Mixed numeric representations
// compare after widening (integer vs big_integer in 128 bits, integers vs
// float as floats). Mismatched non-numeric types compare unequal; that is
// never an error.
func valuesEqual(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		ord, _ := compareNumeric(a, b)
		return ord == 0
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindString:
		return a.Str() == b.Str()
	case KindBool:
		return a.Bool() == b.Bool()
	case KindArray:
		ae, be := a.Elems(), b.Elems()
		if len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if !valuesEqual(ae[i], be[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareNumeric orders two numeric values, returning -1/0/+1 and true.
// Non-numeric operands return false: ordered comparisons on them yield
// false rather than an error.
func compareNumeric(a, b Value) (int, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return 0, false
	}
	if a.Kind() == KindFloat || b.Kind() == KindFloat {
		af, bf := asFloat(a), asFloat(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	return wide(a).Cmp(wide(b)), true
}
