// Package vm executes Carbon bytecode: a strict stack machine with a
// separate call stack and a global variable environment.
//
// # Execution model
//
// Execution is single-threaded and synchronous. A single dispatch loop
// reads one opcode at the instruction pointer, advances, and switches on
// it until the code ends, RET fires with no active frame, or a fatal error
// unwinds the loop. Program order is bytecode order; there are no
// suspension points.
//
// # Values
//
// Value is a tagged sum over seven variants: integer (signed 64-bit),
// big_integer (signed 128-bit), float, string, boolean, array, and null.
// Integer arithmetic is computed at 128-bit precision and narrowed back to
// integer when the result fits in 64 bits — overflow widens to big_integer
// instead of wrapping. Variable loads and DUP deep-copy heap-carrying
// values, so no two reachable values alias mutable storage.
//
// # Variables and frames
//
// STORE writes to the top frame's locals when a call is active, otherwise
// to the globals. Lookup consults the top frame's locals first, then the
// globals; nested calls do not see their caller's locals. LOAD_VAR of an
// unbound name pushes integer 0 rather than failing.
//
// # Errors
//
// Every error kind is fatal to the running program: nothing is caught or
// recovered inside the VM. The caller of Execute receives the first error;
// the VM remains safe to tear down or reuse.
package vm
