package vm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog"

	"github.com/carbn/carbon/pkg/bytecode"
)

// Limits bounds the VM's resource use.
type Limits struct {
	StackCapacity int // initial operand stack reservation
	StdinBuffer   int // STDIN line buffer size in bytes
	MaxCallDepth  int // CALL nesting limit; 0 means unlimited
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		StackCapacity: 256,
		StdinBuffer:   1024,
		MaxCallDepth:  1024,
	}
}

// Tracer receives one callback per executed instruction. A nil tracer costs
// one branch per instruction; callbacks run synchronously in the dispatch
// loop.
type Tracer interface {
	Instruction(offset int, op bytecode.Opcode, stackDepth, frameDepth int)
}

// errHalt unwinds nested loop-body execution when RET fires with an empty
// call stack. Execute converts it to normal termination.
var errHalt = errors.New("vm: halt")

// VM executes Carbon bytecode. One instance owns its operand stack, call
// stack, and variable environments; instances are not safe for concurrent
// use, and instances sharing a sink must synchronize it externally.
type VM struct {
	code []byte
	ip   int

	stack   []Value
	frames  []Frame
	globals *Env

	// Structured-loop counter. A single VM-global field, so nested
	// LOOP_START ranges overwrite each other; the carbn compiler lowers
	// loops to jumps and never relies on it.
	loopIndex int64

	out    Sink
	in     *bufio.Reader
	limits Limits
	log    zerolog.Logger
	tracer Tracer

	executed uint64
}

// NewVM creates a VM with the default limits, stdout sink, stdin input,
// and no logging.
func NewVM() *VM {
	limits := DefaultLimits()
	return &VM{
		stack:   make([]Value, 0, limits.StackCapacity),
		globals: NewEnv(),
		out:     Stdout(),
		in:      bufio.NewReader(os.Stdin),
		limits:  limits,
		log:     zerolog.Nop(),
	}
}

// SetSink redirects PRINT output.
func (m *VM) SetSink(out Sink) {
	m.out = out
}

// SetInput redirects STDIN reads.
func (m *VM) SetInput(r io.Reader) {
	m.in = bufio.NewReader(r)
}

// SetLimits replaces the resource limits. Takes effect on the next Execute.
func (m *VM) SetLimits(limits Limits) {
	m.limits = limits
}

// SetLogger attaches a structured logger. The VM logs execution boundaries
// at debug level and nothing in the dispatch hot path.
func (m *VM) SetLogger(log zerolog.Logger) {
	m.log = log
}

// SetTracer attaches a per-instruction tracer, or nil to detach.
func (m *VM) SetTracer(t Tracer) {
	m.tracer = t
}

// Globals exposes the global variable environment, primarily for tests and
// tooling.
func (m *VM) Globals() *Env {
	return m.globals
}

// LoopIndex returns the current structured-loop counter.
func (m *VM) LoopIndex() int64 {
	return m.loopIndex
}

// InstructionsExecuted returns the number of instructions retired by the
// last Execute.
func (m *VM) InstructionsExecuted() uint64 {
	return m.executed
}

// Execute runs a bytecode buffer from offset 0 until the code ends, RET
// fires with no frame, or an error unwinds the dispatch loop. The global
// environment persists across calls; the operand and call stacks are reset.
func (m *VM) Execute(code []byte) error {
	m.code = code
	m.ip = 0
	m.executed = 0
	if cap(m.stack) < m.limits.StackCapacity {
		m.stack = make([]Value, 0, m.limits.StackCapacity)
	} else {
		m.stack = m.stack[:0]
	}
	m.frames = m.frames[:0]

	m.log.Debug().Int("bytes", len(code)).Msg("executing program")

	err := m.run(0, len(code))
	if errors.Is(err, errHalt) {
		err = nil
	}

	if err != nil {
		m.log.Debug().Err(err).Uint64("instructions", m.executed).Msg("execution failed")
	} else {
		m.log.Debug().Uint64("instructions", m.executed).Msg("execution finished")
	}
	return err
}

// Teardown drops every live value: the operand stack, all frames with
// their locals, and the global environment. The VM is reusable afterwards.
func (m *VM) Teardown() {
	m.stack = m.stack[:0]
	for i := range m.frames {
		m.frames[i].Locals.Drain()
	}
	m.frames = m.frames[:0]
	m.globals.Drain()
}

// run executes instructions while ip is inside [lo, hi). Loop bodies run
// in place with hi set to the matching LOOP_END, so absolute jump targets
// stay valid inside the body.
func (m *VM) run(lo, hi int) error {
	for m.ip >= lo && m.ip < hi {
		off := m.ip
		op := bytecode.Opcode(m.code[m.ip])
		m.ip++
		m.executed++

		if m.tracer != nil {
			m.tracer.Instruction(off, op, len(m.stack), len(m.frames))
		}

		switch op {
		// ============ Data loads ============
		case bytecode.OpLoadInt:
			v, err := m.operandU64(off)
			if err != nil {
				return err
			}
			m.push(IntValue(int64(v)))

		case bytecode.OpLoadFloat:
			v, err := m.operandU64(off)
			if err != nil {
				return err
			}
			m.push(FloatValue(math.Float64frombits(v)))

		case bytecode.OpLoadBool:
			v, err := m.operandU64(off)
			if err != nil {
				return err
			}
			m.push(BoolValue(v != 0))

		case bytecode.OpLoadConst:
			s, err := m.operandStr(off)
			if err != nil {
				return err
			}
			m.push(StringValue(s))

		case bytecode.OpLoadNull:
			m.push(Null)

		case bytecode.OpLoadVar:
			name, err := m.operandStr(off)
			if err != nil {
				return err
			}
			if v, ok := m.lookup(name); ok {
				m.push(v.Clone())
			} else {
				m.push(IntValue(0))
			}

		// ============ Variable store ============
		case bytecode.OpStore:
			name, err := m.operandStr(off)
			if err != nil {
				return err
			}
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			m.bindEnv().Bind(name, v)

		// ============ Stack manipulation ============
		case bytecode.OpDup:
			v, err := m.peek(off)
			if err != nil {
				return err
			}
			m.push(v.Clone())

		case bytecode.OpSwap:
			if len(m.stack) < 2 {
				return errf(StackUnderflow, off, "SWAP needs two values, have %d", len(m.stack))
			}
			n := len(m.stack)
			m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]

		case bytecode.OpPop:
			if _, err := m.pop(off); err != nil {
				return err
			}

		// ============ Print and input ============
		case bytecode.OpPrint:
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			line := append([]byte(Render(v)), '\n')
			if _, err := m.out.Write(line); err != nil {
				return fmt.Errorf("print: %w", err)
			}

		case bytecode.OpStdin:
			m.push(StringValue(m.readLine()))

		// ============ Arithmetic ============
		case bytecode.OpAdd:
			if err := m.binary(off, binaryAdd); err != nil {
				return err
			}
		case bytecode.OpSub:
			if err := m.binary(off, binarySub); err != nil {
				return err
			}
		case bytecode.OpMul:
			if err := m.binary(off, binaryMul); err != nil {
				return err
			}
		case bytecode.OpDiv:
			if err := m.binary(off, binaryDiv); err != nil {
				return err
			}
		case bytecode.OpMod:
			if err := m.binary(off, binaryMod); err != nil {
				return err
			}

		// ============ Comparison ============
		case bytecode.OpEq:
			a, b, err := m.pop2(off)
			if err != nil {
				return err
			}
			m.push(BoolValue(valuesEqual(a, b)))

		case bytecode.OpNe:
			a, b, err := m.pop2(off)
			if err != nil {
				return err
			}
			m.push(BoolValue(!valuesEqual(a, b)))

		case bytecode.OpLt:
			if err := m.ordered(off, func(ord int) bool { return ord < 0 }); err != nil {
				return err
			}
		case bytecode.OpLe:
			if err := m.ordered(off, func(ord int) bool { return ord <= 0 }); err != nil {
				return err
			}
		case bytecode.OpGt:
			if err := m.ordered(off, func(ord int) bool { return ord > 0 }); err != nil {
				return err
			}
		case bytecode.OpGe:
			if err := m.ordered(off, func(ord int) bool { return ord >= 0 }); err != nil {
				return err
			}

		// ============ Logic ============
		case bytecode.OpAnd:
			a, b, err := m.pop2(off)
			if err != nil {
				return err
			}
			m.push(BoolValue(a.Truthy() && b.Truthy()))

		case bytecode.OpOr:
			a, b, err := m.pop2(off)
			if err != nil {
				return err
			}
			m.push(BoolValue(a.Truthy() || b.Truthy()))

		case bytecode.OpNot:
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			m.push(BoolValue(!v.Truthy()))

		// ============ Control flow ============
		case bytecode.OpJmp:
			target, err := m.jumpTarget(off)
			if err != nil {
				return err
			}
			m.ip = target

		case bytecode.OpJmpIfFalse:
			target, err := m.jumpTarget(off)
			if err != nil {
				return err
			}
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			if !v.Truthy() {
				m.ip = target
			}

		case bytecode.OpJmpIfTrue:
			target, err := m.jumpTarget(off)
			if err != nil {
				return err
			}
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			if v.Truthy() {
				m.ip = target
			}

		case bytecode.OpCall:
			target, err := m.jumpTarget(off)
			if err != nil {
				return err
			}
			if m.limits.MaxCallDepth > 0 && len(m.frames) >= m.limits.MaxCallDepth {
				return errf(CallDepthExceeded, off, "call depth %d", len(m.frames))
			}
			m.frames = append(m.frames, Frame{
				ReturnAddr: m.ip,
				Base:       len(m.stack),
				Locals:     NewEnv(),
			})
			m.ip = target

		case bytecode.OpRet:
			if len(m.frames) == 0 {
				return errHalt
			}
			frame := m.frames[len(m.frames)-1]
			m.frames = m.frames[:len(m.frames)-1]
			frame.Locals.Drain()
			m.ip = frame.ReturnAddr

		// ============ Structured loop ============
		case bytecode.OpLoopStart:
			startU, err := m.operandU64(off)
			if err != nil {
				return err
			}
			endU, err := m.operandU64(off)
			if err != nil {
				return err
			}
			if err := m.runLoop(off, int64(startU), int64(endU)); err != nil {
				return err
			}

		case bytecode.OpLoopEnd:
			// Loop bodies are bounded before their LOOP_END, so reaching
			// one here means a stray terminator: end execution of the
			// current activation.
			return nil

		// ============ Aggregates ============
		case bytecode.OpArrayNew:
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			size, err := toInt(v, off)
			if err != nil {
				return err
			}
			if size < 0 {
				return errf(InvalidCast, off, "negative array size %d", size)
			}
			if size > math.MaxInt32 {
				return errf(OutOfMemory, off, "array size %d", size)
			}
			m.push(ArrayValue(make([]Value, size)))

		case bytecode.OpBuildList, bytecode.OpBuildTuple:
			count, err := m.operandU64(off)
			if err != nil {
				return err
			}
			elems, err := m.popN(off, count)
			if err != nil {
				return err
			}
			m.push(ArrayValue(elems))

		case bytecode.OpBuildDict:
			// Placeholder in the wire contract: consumes the key/value
			// pairs and pushes an empty sequence.
			count, err := m.operandU64(off)
			if err != nil {
				return err
			}
			if _, err := m.popN(off, 2*count); err != nil {
				return err
			}
			m.push(ArrayValue(nil))

		case bytecode.OpArrayLen:
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			n := v.Len()
			if n < 0 {
				return errf(InvalidCast, off, "length of %s", v.Kind())
			}
			m.push(IntValue(int64(n)))

		// ============ Casts and null test ============
		case bytecode.OpCastInt:
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			r, err := castInt(v, off)
			if err != nil {
				return err
			}
			m.push(r)

		case bytecode.OpCastFloat:
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			r, err := castFloat(v, off)
			if err != nil {
				return err
			}
			m.push(r)

		case bytecode.OpIsNull:
			v, err := m.pop(off)
			if err != nil {
				return err
			}
			m.push(BoolValue(v.IsNull()))

		default:
			return errf(InvalidOpcode, off, "opcode %d (%s)", byte(op), op)
		}
	}
	return nil
}

// runLoop executes one LOOP_START: match the terminator, then run the body
// once per index in [start, end). The loop counter is a VM-global field;
// nested loops clobber it.
func (m *VM) runLoop(off int, start, end int64) error {
	bodyLo := m.ip
	match := m.scanLoopEnd(bodyLo)
	if match < 0 {
		return errf(InvalidJump, off, "unterminated loop")
	}
	for i := start; i < end; i++ {
		m.loopIndex = i
		m.ip = bodyLo
		if err := m.run(bodyLo, match); err != nil {
			return err
		}
	}
	m.ip = match + 1
	return nil
}

// scanLoopEnd finds the matching LOOP_END for a body starting at from,
// tracking nesting depth. The scan is over raw bytes, exactly as the wire
// contract specifies: an immediate operand containing the LOOP_END byte
// value would terminate the match early. The carbn compiler avoids
// emitting such immediates; bytecode.MatchLoopEnd is the operand-aware
// alternative for tooling.
func (m *VM) scanLoopEnd(from int) int {
	depth := 0
	for j := from; j < len(m.code); j++ {
		switch bytecode.Opcode(m.code[j]) {
		case bytecode.OpLoopStart:
			depth++
		case bytecode.OpLoopEnd:
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

// ============ Stack helpers ============

func (m *VM) push(v Value) {
	m.stack = append(m.stack, v)
}

func (m *VM) pop(off int) (Value, error) {
	if len(m.stack) == 0 {
		return Value{}, errf(StackUnderflow, off, "pop on empty stack")
	}
	v := m.stack[len(m.stack)-1]
	m.stack[len(m.stack)-1] = Value{}
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// pop2 pops a binary operation's operands: a is below b.
func (m *VM) pop2(off int) (a, b Value, err error) {
	b, err = m.pop(off)
	if err != nil {
		return Value{}, Value{}, err
	}
	a, err = m.pop(off)
	if err != nil {
		return Value{}, Value{}, err
	}
	return a, b, nil
}

// popN pops count values preserving source order: the top of stack becomes
// the last element.
func (m *VM) popN(off int, count uint64) ([]Value, error) {
	if count > uint64(len(m.stack)) {
		return nil, errf(StackUnderflow, off, "need %d values, have %d", count, len(m.stack))
	}
	if count == 0 {
		return nil, nil
	}
	elems := make([]Value, count)
	for i := int(count) - 1; i >= 0; i-- {
		v, err := m.pop(off)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return elems, nil
}

func (m *VM) peek(off int) (Value, error) {
	if len(m.stack) == 0 {
		return Value{}, errf(StackUnderflow, off, "peek on empty stack")
	}
	return m.stack[len(m.stack)-1], nil
}

// StackDepth returns the current operand stack depth.
func (m *VM) StackDepth() int {
	return len(m.stack)
}

// ============ Operand decoding ============

func (m *VM) operandU64(off int) (uint64, error) {
	if m.ip+8 > len(m.code) {
		return 0, errf(Truncated, off, "truncated u64 operand")
	}
	v := binary.BigEndian.Uint64(m.code[m.ip:])
	m.ip += 8
	return v, nil
}

func (m *VM) operandStr(off int) (string, error) {
	if m.ip >= len(m.code) {
		return "", errf(Truncated, off, "truncated string operand")
	}
	n := int(m.code[m.ip])
	m.ip++
	if m.ip+n > len(m.code) {
		return "", errf(Truncated, off, "truncated string payload")
	}
	s := string(m.code[m.ip : m.ip+n])
	m.ip += n
	return s, nil
}

// jumpTarget decodes a u64 control-flow target and bounds-checks it. A
// target equal to the code length is valid and terminates execution.
func (m *VM) jumpTarget(off int) (int, error) {
	v, err := m.operandU64(off)
	if err != nil {
		return 0, err
	}
	if v > uint64(len(m.code)) {
		return 0, errf(InvalidJump, off, "target %d beyond %d bytes", v, len(m.code))
	}
	return int(v), nil
}

// ============ Variables ============

// lookup consults the top frame's locals first, then the globals. Nested
// calls do not see their caller's locals.
func (m *VM) lookup(name string) (Value, bool) {
	if len(m.frames) > 0 {
		if v, ok := m.frames[len(m.frames)-1].Locals.Lookup(name); ok {
			return v, true
		}
	}
	return m.globals.Lookup(name)
}

// bindEnv returns the environment STORE writes to: the top frame's locals
// when a frame is active, the globals otherwise.
func (m *VM) bindEnv() *Env {
	if len(m.frames) > 0 {
		return m.frames[len(m.frames)-1].Locals
	}
	return m.globals
}

// ============ Misc handlers ============

// binary pops two operands, applies op, and pushes the result.
func (m *VM) binary(off int, op func(a, b Value, offset int) (Value, error)) error {
	a, b, err := m.pop2(off)
	if err != nil {
		return err
	}
	r, err := op(a, b, off)
	if err != nil {
		return err
	}
	m.push(r)
	return nil
}

// ordered pops two operands and pushes the boolean projection of their
// numeric ordering. Non-numeric operands compare false, never error.
func (m *VM) ordered(off int, accept func(ord int) bool) error {
	a, b, err := m.pop2(off)
	if err != nil {
		return err
	}
	ord, ok := compareNumeric(a, b)
	m.push(BoolValue(ok && accept(ord)))
	return nil
}

// readLine reads one line from standard input, up to the configured buffer
// size, excluding the newline. EOF yields whatever was read, possibly the
// empty string.
func (m *VM) readLine() string {
	buf := make([]byte, 0, m.limits.StdinBuffer)
	for len(buf) < m.limits.StdinBuffer {
		b, err := m.in.ReadByte()
		if err != nil || b == '\n' {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
