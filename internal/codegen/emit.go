package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"tacc/internal/frame"
	"tacc/internal/irgen"
	"tacc/internal/tac"
)

// Preamble writes the one-time, whole-program assembly header: Intel
// syntax directive and the entry-point export. Grounded on the teacher's
// single fixed preamble string written once per compilation unit in
// backend/arm/arm.go.
func Preamble(w *Writer) {
	w.Raw(".intel_syntax noprefix\n")
	w.Raw(".globl main\n")
}

// Function lowers one IR function to assembly text, given the physical
// register assigned to each of its virtual registers and its stack frame
// layout. regs and fr must cover every vreg the function's code mentions;
// a missing entry is a bug in an earlier pass, not a malformed program, so
// it panics rather than returning an error (spec.md §4.6's failure model,
// mirrored from the teacher's ir/validate.go "these are compiler bugs, not
// user errors" convention).
func Function(fn *irgen.Function, regs map[tac.VReg]int, fr frame.Frame, w *Writer) error {
	e := &emitter{fn: fn, regs: regs, frame: fr, w: w}
	return e.run()
}

type emitter struct {
	fn    *irgen.Function
	regs  map[tac.VReg]int
	frame frame.Frame
	w     *Writer
}

func (e *emitter) reg(v tac.VReg) string {
	idx, ok := e.regs[v]
	if !ok {
		panic(fmt.Sprintf("codegen: no physical register assigned to %s in function %q", v, e.fn.Name))
	}
	return regName(idx)
}

func (e *emitter) offsetOf(v tac.VReg) int {
	off, ok := e.frame.Offsets[v]
	if !ok {
		panic(fmt.Sprintf("codegen: no frame offset for local %s in function %q", v, e.fn.Name))
	}
	return off
}

// reloadIfLocal emits a reload from v's frame slot into its own physical
// register, if v names a local (spec.md §4.6: BinOpCode, LoadVar, Store
// and Return operands that refer to a local are reloaded before use, so a
// read always observes the most recently stored value).
func (e *emitter) reloadIfLocal(v tac.VReg) {
	if _, ok := e.fn.LocalNames[v]; ok {
		e.w.Line("mov %s, [rbp - %d]", e.reg(v), e.offsetOf(v))
	}
}

func (e *emitter) run() error {
	if len(e.fn.Code) == 0 || e.fn.Code[0].Op != tac.OpFn {
		return errors.Errorf("codegen: function %q's instruction stream does not begin with Fn", e.fn.Name)
	}
	e.prologue()
	for _, ins := range e.fn.Code[1:] {
		if err := e.lower(ins); err != nil {
			return errors.Wrapf(err, "function %q", e.fn.Name)
		}
	}
	return nil
}

// prologue emits the frame setup and the fixed push-then-pop-in-reverse
// dance that moves each incoming argument from its System V AMD64 slot
// into the register the allocator assigned it, writing it through to its
// frame slot at the same time (spec.md §4.6).
func (e *emitter) prologue() {
	e.w.FuncLabel(e.fn.Name)
	e.w.Line("push rbp")
	e.w.Line("mov rbp, rsp")
	e.w.Line("sub rsp, %d", e.frame.StackSize)

	for i := range e.fn.Params {
		e.w.Line("push %s", argRegs[i])
	}
	for i := len(e.fn.Params) - 1; i >= 0; i-- {
		p := e.fn.Params[i]
		r := e.reg(p.Dest)
		e.w.Line("pop %s", r)
		e.w.Line("mov [rbp - %d], %s", e.offsetOf(p.Dest), r)
	}
}

func (e *emitter) epilogue() {
	e.w.Line("mov rsp, rbp")
	e.w.Line("pop rbp")
	e.w.Line("ret")
}

// lower renders one instruction. The switch covers every tac.Op except
// OpFn, which run lowers through prologue, per the closed-dispatch
// discipline the rest of the package follows: an unhandled Op is a bug to
// panic on, never a case to silently skip.
func (e *emitter) lower(ins tac.Instr) error {
	switch ins.Op {
	case tac.OpLoadImm:
		e.w.Line("mov %s, %d", e.reg(ins.Dest), ins.Value)

	case tac.OpBinOp:
		return e.lowerBinOp(ins)

	case tac.OpAssign:
		e.w.Line("mov %s, %s", e.reg(ins.Dest), e.reg(ins.Src))
		if ins.HasLocal {
			e.w.Line("mov [rbp - %d], %s", e.offsetOf(ins.Dest), e.reg(ins.Src))
		}

	case tac.OpEvalVar:
		// No assembly: EvalVar exists only to keep the local's vreg live for
		// the scanner.

	case tac.OpAddrOf:
		e.w.Line("lea %s, [rbp - %d]", e.reg(ins.Addr), e.offsetOf(ins.Var))

	case tac.OpLoadVar:
		e.reloadIfLocal(ins.Addr)
		e.w.Line("mov %s, [%s]", e.reg(ins.Dest), e.reg(ins.Addr))

	case tac.OpStore:
		e.reloadIfLocal(ins.Addr)
		e.w.Line("mov [%s], %s", e.reg(ins.Addr), e.reg(ins.Src))

	case tac.OpReturn:
		e.reloadIfLocal(ins.Src)
		e.w.Line("mov rax, %s", e.reg(ins.Src))
		e.epilogue()

	case tac.OpIfFalse:
		e.w.Line("cmp %s, 0", e.reg(ins.Cond))
		e.w.Line("je %s", ins.Label)

	case tac.OpGoTo:
		e.w.Line("jmp %s", ins.Label)

	case tac.OpLabel:
		e.w.Label(ins.Label.String())

	case tac.OpCall:
		return e.lowerCall(ins)

	default:
		panic(fmt.Sprintf("codegen: unhandled instruction op %d", ins.Op))
	}
	return nil
}

// lowerBinOp implements spec.md §4.6's operand-aliasing-safe arithmetic,
// signed division and comparison lowering.
func (e *emitter) lowerBinOp(ins tac.Instr) error {
	e.reloadIfLocal(ins.Left)
	e.reloadIfLocal(ins.Right)

	dest, left, right := e.reg(ins.Dest), e.reg(ins.Left), e.reg(ins.Right)

	switch ins.BinOp {
	case tac.Add, tac.Sub, tac.Mul:
		mnemonic := map[tac.BinOp]string{tac.Add: "add", tac.Sub: "sub", tac.Mul: "imul"}[ins.BinOp]
		if dest == right {
			// dest aliases the right operand: stage through rbx so the
			// in-place op doesn't clobber an operand still needed to read.
			e.w.Line("mov rbx, %s", left)
			e.w.Line("%s rbx, %s", mnemonic, right)
			e.w.Line("mov %s, rbx", dest)
		} else {
			e.w.Line("mov %s, %s", dest, left)
			e.w.Line("%s %s, %s", mnemonic, dest, right)
		}

	case tac.Div:
		e.w.Line("mov rbx, rdx")
		e.w.Line("mov rax, %s", left)
		e.w.Line("cqo")
		divisor := right
		if divisor == "rdx" {
			divisor = "rbx"
		}
		e.w.Line("idiv %s", divisor)
		e.w.Line("mov %s, rax", dest)
		e.w.Line("mov rdx, rbx")

	case tac.Le, tac.Lt, tac.Eq, tac.Ne:
		set := map[tac.BinOp]string{tac.Le: "setle", tac.Lt: "setl", tac.Eq: "sete", tac.Ne: "setne"}[ins.BinOp]
		e.w.Line("cmp %s, %s", left, right)
		e.w.Line("%s al", set)
		e.w.Line("movzx %s, al", dest)

	default:
		panic(fmt.Sprintf("codegen: unhandled binop %d", ins.BinOp))
	}
	return nil
}

// lowerCall implements spec.md §4.6's 6-argument call sequence: preserve
// every caller-saved argument register across the nested call, stage each
// argument through a callee-saved temporary so a partially-populated
// argument register is never read as a source, then restore.
func (e *emitter) lowerCall(ins tac.Instr) error {
	if len(ins.Args) > NumRegisters {
		return errors.Errorf("call to %q has %d arguments, more than %d is unsupported", ins.FnName, len(ins.Args), NumRegisters)
	}

	for _, r := range argRegs {
		e.w.Line("push %s", r)
	}
	for i, a := range ins.Args {
		e.w.Line("mov %s, %s", callTemps[i], e.reg(a))
	}
	for i := range ins.Args {
		e.w.Line("mov %s, %s", argRegs[i], callTemps[i])
	}
	e.w.Line("call %s", ins.FnName)
	for i := len(argRegs) - 1; i >= 0; i-- {
		e.w.Line("pop %s", argRegs[i])
	}
	e.w.Line("mov %s, rax", e.reg(ins.RetReg))
	return nil
}
