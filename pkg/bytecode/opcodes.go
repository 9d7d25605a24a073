package bytecode

import "fmt"

// Opcode represents a single Carbon bytecode instruction.
// The numeric assignments are part of the wire contract with the carbn
// compiler and must not change.
type Opcode byte

const (
	// ========================================================================
	// Output and data loads (1-8)
	// ========================================================================

	OpPrint     Opcode = 1 // Pop and render to the output sink, newline-terminated
	OpLoadConst Opcode = 2 // Push string constant: OpLoadConst <str>
	OpLoadInt   Opcode = 3 // Push signed 64-bit integer: OpLoadInt <u64>
	OpLoopStart Opcode = 4 // Begin counted loop: OpLoopStart <start:u64> <end:u64>
	OpLoopEnd   Opcode = 5 // End counted loop body
	OpLoadVar   Opcode = 6 // Push deep copy of variable (0 if unbound): OpLoadVar <str>
	OpStdin     Opcode = 7 // Read a line from standard input, push as string
	OpStore     Opcode = 8 // Pop and bind to variable: OpStore <str>

	// ========================================================================
	// Arithmetic (9-13)
	// ========================================================================

	OpAdd Opcode = 9  // Pop two, push sum (numeric promotion; string concat)
	OpSub Opcode = 10 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 11 // Pop two, push product
	OpDiv Opcode = 12 // Pop two, push quotient (truncated toward zero)
	OpMod Opcode = 13 // Pop two, push remainder (sign of the dividend)

	// ========================================================================
	// Comparison (14-19)
	// ========================================================================

	OpEq Opcode = 14 // Pop two, push true if equal
	OpNe Opcode = 15 // Pop two, push true if not equal
	OpLt Opcode = 16 // Pop two, push true if a < b (numeric only)
	OpLe Opcode = 17 // Pop two, push true if a <= b
	OpGt Opcode = 18 // Pop two, push true if a > b
	OpGe Opcode = 19 // Pop two, push true if a >= b

	// ========================================================================
	// Logic (20-22)
	// ========================================================================

	OpAnd Opcode = 20 // Pop two, push conjunction of truthiness
	OpOr  Opcode = 21 // Pop two, push disjunction of truthiness
	OpNot Opcode = 22 // Pop one, push negated truthiness

	// ========================================================================
	// Control flow (23-27)
	// ========================================================================

	OpJmp        Opcode = 23 // Jump to absolute offset: OpJmp <target:u64>
	OpJmpIfFalse Opcode = 24 // Pop condition, jump if falsy
	OpJmpIfTrue  Opcode = 25 // Pop condition, jump if truthy
	OpCall       Opcode = 26 // Push frame, jump to function: OpCall <target:u64>
	OpRet        Opcode = 27 // Pop frame and resume; with no frame, halt normally

	// ========================================================================
	// Floats and casts (28-30)
	// ========================================================================

	OpLoadFloat Opcode = 28 // Push IEEE-754 double: OpLoadFloat <f64>
	OpCastInt   Opcode = 29 // Pop, coerce to integer, push
	OpCastFloat Opcode = 30 // Pop, coerce to float, push

	// ========================================================================
	// Arrays (31-34)
	// ========================================================================

	OpArrayNew Opcode = 31 // Pop size, push null-filled array of that length
	OpArrayGet Opcode = 32 // Reserved: raises InvalidOpcode
	OpArraySet Opcode = 33 // Reserved: raises InvalidOpcode
	OpArrayLen Opcode = 34 // Pop array or string, push its length

	// ========================================================================
	// Stack manipulation (35-37)
	// ========================================================================

	OpDup  Opcode = 35 // Duplicate top of stack (deep copy for strings/arrays)
	OpSwap Opcode = 36 // Swap top two stack elements
	OpPop  Opcode = 37 // Pop and discard top of stack

	// ========================================================================
	// Null and booleans (38-40)
	// ========================================================================

	OpLoadNull Opcode = 38 // Push null
	OpIsNull   Opcode = 39 // Pop, push true if the value is null
	OpLoadBool Opcode = 40 // Push boolean: OpLoadBool <u64> (nonzero is true)

	// ========================================================================
	// Aggregate builders (41-43)
	// ========================================================================

	OpBuildList  Opcode = 41 // Pop count values, push as array: OpBuildList <count:u64>
	OpBuildTuple Opcode = 42 // Same stack effect as OpBuildList
	OpBuildDict  Opcode = 43 // Pop 2*count values, push empty array (placeholder)
)

// OperandKind describes one immediate operand of an instruction.
type OperandKind uint8

const (
	OperandU64 OperandKind = iota // 8 bytes, big-endian
	OperandF64                    // 8 bytes, big-endian IEEE-754
	OperandStr                    // 1 length byte + payload
)

// OpcodeInfo provides metadata about each opcode for decoding, tracing,
// and validation.
type OpcodeInfo struct {
	Name      string        // Wire-contract mnemonic
	StackPop  int           // Values popped from stack (-1 = operand-dependent)
	StackPush int           // Values pushed to stack
	Operands  []OperandKind // Immediate operands following the opcode byte
	Reserved  bool          // Assigned in the wire layout but not executable
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpPrint:     {Name: "PRINT", StackPop: 1},
	OpLoadConst: {Name: "LOAD_CONST", StackPush: 1, Operands: []OperandKind{OperandStr}},
	OpLoadInt:   {Name: "LOAD_INT", StackPush: 1, Operands: []OperandKind{OperandU64}},
	OpLoopStart: {Name: "LOOP_START", Operands: []OperandKind{OperandU64, OperandU64}},
	OpLoopEnd:   {Name: "LOOP_END"},
	OpLoadVar:   {Name: "LOAD_VAR", StackPush: 1, Operands: []OperandKind{OperandStr}},
	OpStdin:     {Name: "STDIN", StackPush: 1},
	OpStore:     {Name: "STORE", StackPop: 1, Operands: []OperandKind{OperandStr}},

	OpAdd: {Name: "ADD", StackPop: 2, StackPush: 1},
	OpSub: {Name: "SUB", StackPop: 2, StackPush: 1},
	OpMul: {Name: "MUL", StackPop: 2, StackPush: 1},
	OpDiv: {Name: "DIV", StackPop: 2, StackPush: 1},
	OpMod: {Name: "MOD", StackPop: 2, StackPush: 1},

	OpEq: {Name: "EQ", StackPop: 2, StackPush: 1},
	OpNe: {Name: "NE", StackPop: 2, StackPush: 1},
	OpLt: {Name: "LT", StackPop: 2, StackPush: 1},
	OpLe: {Name: "LE", StackPop: 2, StackPush: 1},
	OpGt: {Name: "GT", StackPop: 2, StackPush: 1},
	OpGe: {Name: "GE", StackPop: 2, StackPush: 1},

	OpAnd: {Name: "AND", StackPop: 2, StackPush: 1},
	OpOr:  {Name: "OR", StackPop: 2, StackPush: 1},
	OpNot: {Name: "NOT", StackPop: 1, StackPush: 1},

	OpJmp:        {Name: "JMP", Operands: []OperandKind{OperandU64}},
	OpJmpIfFalse: {Name: "JMP_IF_FALSE", StackPop: 1, Operands: []OperandKind{OperandU64}},
	OpJmpIfTrue:  {Name: "JMP_IF_TRUE", StackPop: 1, Operands: []OperandKind{OperandU64}},
	OpCall:       {Name: "CALL", Operands: []OperandKind{OperandU64}},
	OpRet:        {Name: "RET"},

	OpLoadFloat: {Name: "LOAD_FLOAT", StackPush: 1, Operands: []OperandKind{OperandF64}},
	OpCastInt:   {Name: "CAST_INT", StackPop: 1, StackPush: 1},
	OpCastFloat: {Name: "CAST_FLOAT", StackPop: 1, StackPush: 1},

	OpArrayNew: {Name: "ARRAY_NEW", StackPop: 1, StackPush: 1},
	OpArrayGet: {Name: "ARRAY_GET", Reserved: true},
	OpArraySet: {Name: "ARRAY_SET", Reserved: true},
	OpArrayLen: {Name: "ARRAY_LEN", StackPop: 1, StackPush: 1},

	OpDup:  {Name: "DUP", StackPop: 1, StackPush: 2},
	OpSwap: {Name: "SWAP", StackPop: 2, StackPush: 2},
	OpPop:  {Name: "POP", StackPop: 1},

	OpLoadNull: {Name: "LOAD_NULL", StackPush: 1},
	OpIsNull:   {Name: "IS_NULL", StackPop: 1, StackPush: 1},
	OpLoadBool: {Name: "LOAD_BOOL", StackPush: 1, Operands: []OperandKind{OperandU64}},

	OpBuildList:  {Name: "BUILD_LIST", StackPop: -1, StackPush: 1, Operands: []OperandKind{OperandU64}},
	OpBuildTuple: {Name: "BUILD_TUPLE", StackPop: -1, StackPush: 1, Operands: []OperandKind{OperandU64}},
	OpBuildDict:  {Name: "BUILD_DICT", StackPop: -1, StackPush: 1, Operands: []OperandKind{OperandU64}},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with an UNKNOWN name if the opcode is unassigned.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%d)", byte(op))}
}

// Assigned returns true if the opcode has a slot in the wire layout,
// including the reserved ones.
func (op Opcode) Assigned() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// Executable returns true if the opcode is assigned and not reserved.
func (op Opcode) Executable() bool {
	info, ok := opcodeInfoTable[op]
	return ok && !info.Reserved
}

// String returns the wire-contract mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// IsJump returns true for instructions that transfer control to an
// absolute target operand.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJmp, OpJmpIfFalse, OpJmpIfTrue, OpCall:
		return true
	}
	return false
}

// AllOpcodes returns a slice of all assigned opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of assigned opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
