package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	var sb strings.Builder

	if p.Name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", p.Name))
	}
	sb.WriteString(fmt.Sprintf("; %d bytes, sha256 %s\n\n", len(p.Code), p.HashString()[:16]))

	r := NewReader(p.Code)
	for r.Remaining() > 0 {
		offset := r.Pos()
		b, err := r.U8()
		if err != nil {
			break
		}
		op := Opcode(b)
		info := GetOpcodeInfo(op)

		sb.WriteString(fmt.Sprintf("%06d  %-14s", offset, info.Name))

		if !op.Assigned() {
			sb.WriteString("  ; undecodable, listing stops here\n")
			break
		}

		operands, err := formatOperands(r, info)
		if err != nil {
			sb.WriteString("  ; truncated operands\n")
			break
		}
		if operands != "" {
			sb.WriteString(" ")
			sb.WriteString(operands)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatOperands(r *Reader, info OpcodeInfo) (string, error) {
	parts := make([]string, 0, len(info.Operands))
	for _, kind := range info.Operands {
		switch kind {
		case OperandU64:
			v, err := r.I64()
			if err != nil {
				return "", err
			}
			parts = append(parts, strconv.FormatInt(v, 10))
		case OperandF64:
			v, err := r.F64()
			if err != nil {
				return "", err
			}
			parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
		case OperandStr:
			s, err := r.Str()
			if err != nil {
				return "", err
			}
			parts = append(parts, strconv.Quote(truncateForListing(s)))
		}
	}
	return strings.Join(parts, ", "), nil
}

// truncateForListing shortens long string operands for readability.
func truncateForListing(s string) string {
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}
