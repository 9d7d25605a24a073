// Package bytecode defines the Carbon bytecode wire format and the tools
// for reading it: opcode assignments, per-opcode operand metadata, a
// bounds-checked instruction reader, the program container, and a
// disassembler.
//
// The format is a flat byte stream with no header, magic number, or section
// table. Execution starts at offset 0. Each instruction is one opcode byte
// followed by zero or more immediate operands:
//
//   - u64: 8 bytes, big-endian. Signed interpretation is a two's-complement
//     bit cast.
//   - f64: 8 bytes, big-endian IEEE-754 double.
//   - string: 1 length byte followed by up to 255 payload bytes.
//
// The opcode numbering (1..43) is a stable wire contract shared with the
// carbn compiler. ARRAY_GET and ARRAY_SET are reserved slots: they appear in
// the numbering but executing them is an error.
//
// # Components
//
//   - Opcodes: the numbering plus an OpcodeInfo metadata table (name, stack
//     effect, operand kinds) used by the reader, the disassembler, and the
//     VM's trace output.
//
//   - Reader: a cursor over the code bytes. Every read is bounds-checked and
//     returns ErrTruncated instead of running past the buffer.
//
//   - Program: a loaded bytecode unit with its SHA-256 content hash, used to
//     key the run-history store.
//
//   - Disassemble: an operand-aware listing. It advances through
//     instruction lengths rather than scanning raw bytes, as does
//     MatchLoopEnd, the operand-aware loop-body matcher; both take operand
//     lengths from the same metadata table.
package bytecode
