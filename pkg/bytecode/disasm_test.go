package bytecode

import (
	"strings"
	"testing"
)

func TestDisassembleListing(t *testing.T) {
	prog := FromBytes("demo.crbn", emit(
		OpLoadInt, uint64(2),
		OpLoadInt, uint64(3),
		OpAdd,
		OpPrint,
	))

	listing := prog.Disassemble()

	for _, want := range []string{
		"; === demo.crbn ===",
		"LOAD_INT",
		"ADD",
		"PRINT",
	} {
		if !strings.Contains(listing, want) {
			t.Errorf("Listing missing %q:\n%s", want, listing)
		}
	}

	// Offsets and decoded operands
	if !strings.Contains(listing, "000000  LOAD_INT") {
		t.Errorf("Missing offset column:\n%s", listing)
	}
	if !strings.Contains(listing, " 3") {
		t.Errorf("Missing decoded operand:\n%s", listing)
	}
}

func TestDisassembleNegativeImmediate(t *testing.T) {
	prog := FromBytes("t", emit(OpLoadInt, uint64(0xFFFFFFFFFFFFFFFF)))

	listing := prog.Disassemble()
	if !strings.Contains(listing, "-1") {
		t.Errorf("Immediates should decode signed:\n%s", listing)
	}
}

func TestDisassembleStringOperand(t *testing.T) {
	prog := FromBytes("t", emit(OpLoadVar, "counter"))

	listing := prog.Disassemble()
	if !strings.Contains(listing, `"counter"`) {
		t.Errorf("String operand should be quoted:\n%s", listing)
	}
}

func TestDisassembleStopsAtUndecodable(t *testing.T) {
	prog := FromBytes("t", []byte{byte(OpPrint), 99, byte(OpPrint)})

	listing := prog.Disassemble()
	if !strings.Contains(listing, "undecodable") {
		t.Errorf("Expected listing to flag the undecodable byte:\n%s", listing)
	}
}

func TestDisassembleTruncatedOperand(t *testing.T) {
	prog := FromBytes("t", []byte{byte(OpLoadInt), 1, 2})

	listing := prog.Disassemble()
	if !strings.Contains(listing, "truncated") {
		t.Errorf("Expected truncation note:\n%s", listing)
	}
}
