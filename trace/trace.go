// Package trace records the instruction stream of a VM run and serializes
// it as a CBOR recording. A recording is self-contained: it names the
// program by content hash, carries a unique run ID, and ends with the run's
// exit status, so recordings from different hosts can be compared directly.
package trace

import (
	"github.com/carbn/carbon/pkg/bytecode"
)

// Event is one executed instruction.
type Event struct {
	Offset     int    `cbor:"1,keyasint"`
	Opcode     byte   `cbor:"2,keyasint"`
	StackDepth int    `cbor:"3,keyasint"`
	FrameDepth int    `cbor:"4,keyasint,omitempty"`
	Seq        uint64 `cbor:"5,keyasint"`
}

// Name returns the mnemonic of the event's opcode.
func (e Event) Name() string {
	return bytecode.Opcode(e.Opcode).String()
}

// Recording is the complete trace of one run.
type Recording struct {
	RunID        string   `cbor:"1,keyasint"`
	ProgramHash  [32]byte `cbor:"2,keyasint"`
	ProgramName  string   `cbor:"3,keyasint,omitempty"`
	Events       []Event  `cbor:"4,keyasint"`
	Exit         string   `cbor:"5,keyasint"`           // "ok" or the error kind
	Truncated    bool     `cbor:"6,keyasint,omitempty"` // event limit was hit
	Instructions uint64   `cbor:"7,keyasint"`           // total retired, even past the limit
}

// Collector implements vm.Tracer, accumulating events up to a cap. A zero
// limit means unbounded. Past the cap, instructions are still counted so
// the recording reports the true run length.
type Collector struct {
	limit  int
	seq    uint64
	events []Event
}

// NewCollector creates a collector with the given event cap (0 = no cap).
func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

// Instruction records one executed instruction.
func (c *Collector) Instruction(offset int, op bytecode.Opcode, stackDepth, frameDepth int) {
	c.seq++
	if c.limit > 0 && len(c.events) >= c.limit {
		return
	}
	c.events = append(c.events, Event{
		Offset:     offset,
		Opcode:     byte(op),
		StackDepth: stackDepth,
		FrameDepth: frameDepth,
		Seq:        c.seq,
	})
}

// Len returns the number of recorded events.
func (c *Collector) Len() int {
	return len(c.events)
}

// Events returns the recorded events.
func (c *Collector) Events() []Event {
	return c.events
}

// Recording assembles the final recording for a run.
func (c *Collector) Recording(runID string, prog *bytecode.Program, exit string) *Recording {
	return &Recording{
		RunID:        runID,
		ProgramHash:  prog.Hash(),
		ProgramName:  prog.Name,
		Events:       c.events,
		Exit:         exit,
		Truncated:    c.limit > 0 && c.seq > uint64(len(c.events)),
		Instructions: c.seq,
	}
}
