// Package codegen lowers a function's TAC stream to x86-64 assembly text
// in Intel syntax, given the vreg->physical-register map from
// internal/regalloc and the vreg->frame-offset map from internal/frame.
//
// Grounded on the teacher's backend/regfile (a small Register/RegisterFile
// abstraction) and backend/arm (the per-instruction gen* lowering, prologue
// /epilogue construction and the Writer-based instruction emission) --
// generalized from ARM/RISC-V mnemonics to x86-64 Intel-syntax ones, and
// from the teacher's own register-allocation model (graph colouring) to
// consuming the linear-scan allocator's flat vreg->index map instead.
package codegen

// argRegs is the System V AMD64 integer argument-passing register order,
// also the caller-saved pool the linear-scan allocator allocates from
// (spec.md §4.3: R=6, `rdi, rsi, rdx, rcx, r8, r9`).
var argRegs = [...]string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// callTemps are the scratch registers used to stage call arguments without
// clobbering a partially-populated argument register (spec.md §4.6's Call
// lowering, step 2). One entry per member of argRegs: the first five are
// callee-saved; the sixth, r10, is caller-saved, which is fine here since no
// call intervenes between staging into it and moving it into its argument
// register.
var callTemps = [...]string{"rbx", "r12", "r13", "r14", "r15", "r10"}

// NumRegisters is R, the size of the physical register pool the allocator
// assigns from.
const NumRegisters = len(argRegs)

// regName returns the assembler name of physical register index i from the
// caller-saved pool.
func regName(i int) string {
	return argRegs[i]
}
