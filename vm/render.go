package vm

import (
	"strconv"
	"strings"
)

// Render produces the PRINT representation of a value:
//
//	integer/big_integer  base 10, leading minus for negatives
//	float                decimal rendering, no forced exponent
//	string               the bytes as-is
//	boolean              "true" / "false"
//	array                "[" elements joined by ", " "]", recursive
//	null                 "null"
func Render(v Value) string {
	switch v.Kind() {
	case KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case KindBig:
		return v.Big().String()
	case KindFloat:
		return formatFloat(v.Float())
	case KindString:
		return v.Str()
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.Elems() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(Render(e))
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return "null"
	}
}

// formatFloat renders a double in plain decimal. The 'f' format never
// switches to exponent notation; -1 picks the shortest representation that
// round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
