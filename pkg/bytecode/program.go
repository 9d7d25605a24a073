package bytecode

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// Program is a loaded Carbon bytecode unit. The code bytes are the entire
// wire payload: there is no header or section table, and execution starts
// at offset 0.
type Program struct {
	Name string // Display name, usually the source file's base name
	Code []byte
}

// Load reads a .crbn file from disk.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bytecode: %w", err)
	}
	return &Program{
		Name: filepath.Base(path),
		Code: data,
	}, nil
}

// FromBytes wraps raw code bytes as a program.
func FromBytes(name string, code []byte) *Program {
	return &Program{Name: name, Code: code}
}

// Hash returns the SHA-256 of the code bytes. Programs are content-addressed
// by this hash in the run-history store.
func (p *Program) Hash() [32]byte {
	return sha256.Sum256(p.Code)
}

// HashString returns the content hash in hex.
func (p *Program) HashString() string {
	return fmt.Sprintf("%x", p.Hash())
}

// Len returns the code length in bytes.
func (p *Program) Len() int {
	return len(p.Code)
}

// Instruction is one decoded instruction position, produced by Scan.
type Instruction struct {
	Offset int
	Op     Opcode
}

// Scan walks the code operand-aware, calling fn for each instruction in
// order. Unassigned opcodes stop the scan with an error; reserved opcodes
// are reported but not rejected, since the wire layout assigns them.
func (p *Program) Scan(fn func(ins Instruction) error) error {
	r := NewReader(p.Code)
	for r.Remaining() > 0 {
		offset := r.Pos()
		b, err := r.U8()
		if err != nil {
			return err
		}
		op := Opcode(b)
		if !op.Assigned() {
			return fmt.Errorf("offset %d: unassigned opcode %d", offset, b)
		}
		if err := r.SkipOperands(op); err != nil {
			return fmt.Errorf("offset %d: %s: %w", offset, op, err)
		}
		if err := fn(Instruction{Offset: offset, Op: op}); err != nil {
			return err
		}
	}
	return nil
}

// MatchLoopEnd finds the LOOP_END matching the LOOP_START whose body begins
// at bodyStart, advancing through instruction lengths so that immediate
// operands containing the LOOP_END byte value cannot confuse the match.
// Returns the offset of the matching LOOP_END byte, or -1 if the stream is
// not scannable or no match exists.
//
// The VM itself uses a raw-byte scan for wire compatibility; this matcher
// serves tooling and stream validation.
func MatchLoopEnd(code []byte, bodyStart int) int {
	r := NewReader(code)
	r.SetPos(bodyStart)
	depth := 0
	for r.Remaining() > 0 {
		offset := r.Pos()
		b, err := r.U8()
		if err != nil {
			return -1
		}
		op := Opcode(b)
		if !op.Assigned() {
			return -1
		}
		switch op {
		case OpLoopStart:
			depth++
		case OpLoopEnd:
			if depth == 0 {
				return offset
			}
			depth--
		}
		if err := r.SkipOperands(op); err != nil {
			return -1
		}
	}
	return -1
}
