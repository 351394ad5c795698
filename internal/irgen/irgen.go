// Package irgen walks the AST produced by internal/frontend and emits a
// flat stream of internal/tac instructions per function, in AST
// statement-then-expression order.
//
// Grounded on the teacher's backend/arm code generators (arm/function.go,
// arm/expressions.go, arm/conditional.go), which walk the same kind of
// tree and thread a per-function register file and label stack through
// recursive gen* calls -- generalized here to emit instructions into a
// flat slice (the TAC model) instead of assembly text directly, since this
// repository's back end is a separate lowering pass over that slice.
package irgen

import (
	"github.com/pkg/errors"

	"tacc/internal/frontend"
	"tacc/internal/tac"
)

// Function is the IR builder's output for one source function definition.
type Function struct {
	Name   string
	Params []tac.Param
	Code   []tac.Instr
	// Locals maps every named local (parameters included) to its unique
	// virtual register, keyed by source name.
	Locals map[string]tac.VReg
	// LocalNames is the reverse of Locals, consulted by the emitter to
	// decide whether an operand vreg needs a reload-from-frame-slot before
	// use (spec.md §4.6).
	LocalNames map[tac.VReg]string
}

// ctx is the per-function context carried while lowering one FuncDecl,
// mirroring spec.md §4.1's `{ code, next_vreg, next_label, locals }`.
type ctx struct {
	code     []tac.Instr
	nextVReg uint32
	labels   tac.LabelGen
	locals   map[string]tac.VReg
	declared map[string]bool // which locals have been through a VarDecl
}

func (c *ctx) fresh() tac.VReg {
	v := tac.VReg(c.nextVReg)
	c.nextVReg++
	return v
}

func (c *ctx) emit(i tac.Instr) { c.code = append(c.code, i) }

// Build lowers every function in prog. Functions must be declared (by the
// parser's forward-reference check) before they are called, so this pass
// only ever reports undeclared *local* identifiers.
func Build(prog *frontend.Program) ([]*Function, error) {
	fns := make([]*Function, 0, len(prog.Funcs))
	for _, fd := range prog.Funcs {
		fn, err := buildFunc(fd)
		if err != nil {
			return nil, errors.Wrapf(err, "function %q", fd.Name)
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func buildFunc(fd *frontend.FuncDecl) (*Function, error) {
	if len(fd.Params) > 6 {
		return nil, errors.Errorf("function %q declares %d parameters, more than 6 is unsupported", fd.Name, len(fd.Params))
	}

	c := &ctx{
		locals:   map[string]tac.VReg{},
		declared: map[string]bool{},
	}

	params := make([]tac.Param, 0, len(fd.Params))
	for _, p := range fd.Params {
		v := c.fresh()
		c.locals[p.Name] = v
		c.declared[p.Name] = true
		params = append(params, tac.Param{Dest: v, Name: p.Name})
	}
	c.emit(tac.Fn(fd.Name, params))

	if err := c.stmt(fd.Body); err != nil {
		return nil, err
	}

	names := make(map[tac.VReg]string, len(c.locals))
	for name, v := range c.locals {
		names[v] = name
	}

	return &Function{
		Name:       fd.Name,
		Params:     params,
		Code:       c.code,
		Locals:     c.locals,
		LocalNames: names,
	}, nil
}

// localVReg returns the vreg for an already-declared local, or an error if
// name was never declared -- spec.md §7's "unknown identifier" category.
func (c *ctx) localVReg(name string) (tac.VReg, error) {
	if !c.declared[name] {
		return tac.Invalid, errors.Errorf("use of undeclared local %q", name)
	}
	return c.locals[name], nil
}

func (c *ctx) stmt(s frontend.Stmt) error {
	switch s := s.(type) {
	case *frontend.VarDeclStmt:
		if c.declared[s.Name] {
			return errors.Errorf("local %q already declared", s.Name)
		}
		v := c.fresh()
		c.locals[s.Name] = v
		c.declared[s.Name] = true
		return nil

	case *frontend.ExprStmt:
		_, err := c.expr(s.X)
		return err

	case *frontend.ReturnStmt:
		src, err := c.expr(s.X)
		if err != nil {
			return err
		}
		c.emit(tac.Return(src))
		return nil

	case *frontend.IfStmt:
		return c.ifStmt(s)

	case *frontend.WhileStmt:
		return c.whileStmt(s)

	case *frontend.ForStmt:
		return c.forStmt(s)

	case *frontend.BlockStmt:
		for _, child := range s.Stmts {
			if err := c.stmt(child); err != nil {
				return err
			}
		}
		return nil

	default:
		return errors.Errorf("irgen: unhandled statement type %T", s)
	}
}

// ifStmt lowers spec.md §4.1's two-label if/else shape, collapsing to the
// single-label form when there is no else-branch.
func (c *ctx) ifStmt(s *frontend.IfStmt) error {
	cond, err := c.expr(s.Cond)
	if err != nil {
		return err
	}

	if s.Else == nil {
		end := c.labels.New(tac.LEnd)
		c.emit(tac.IfFalse(cond, end))
		if err := c.stmt(s.Then); err != nil {
			return err
		}
		c.emit(tac.LabelDef(end))
		return nil
	}

	elseLabel := c.labels.New(tac.LElse)
	endLabel := c.labels.New(tac.LEnd)
	c.emit(tac.IfFalse(cond, elseLabel))
	if err := c.stmt(s.Then); err != nil {
		return err
	}
	c.emit(tac.GoTo(endLabel))
	c.emit(tac.LabelDef(elseLabel))
	if err := c.stmt(s.Else); err != nil {
		return err
	}
	c.emit(tac.LabelDef(endLabel))
	return nil
}

// whileStmt lowers spec.md §4.1's while shape.
func (c *ctx) whileStmt(s *frontend.WhileStmt) error {
	begin := c.labels.New(tac.LBegin)
	end := c.labels.New(tac.LEnd)
	c.emit(tac.LabelDef(begin))
	cond, err := c.expr(s.Cond)
	if err != nil {
		return err
	}
	c.emit(tac.IfFalse(cond, end))
	if err := c.stmt(s.Body); err != nil {
		return err
	}
	c.emit(tac.GoTo(begin))
	c.emit(tac.LabelDef(end))
	return nil
}

// forStmt lowers init (if present) then reuses the while-shape, emitting
// update between the body and the back-edge.
func (c *ctx) forStmt(s *frontend.ForStmt) error {
	if s.Init != nil {
		if err := c.stmt(s.Init); err != nil {
			return err
		}
	}

	begin := c.labels.New(tac.LBegin)
	end := c.labels.New(tac.LEnd)
	c.emit(tac.LabelDef(begin))
	if s.Cond != nil {
		cond, err := c.expr(s.Cond)
		if err != nil {
			return err
		}
		c.emit(tac.IfFalse(cond, end))
	}
	if err := c.stmt(s.Body); err != nil {
		return err
	}
	if s.Update != nil {
		if _, err := c.expr(s.Update); err != nil {
			return err
		}
	}
	c.emit(tac.GoTo(begin))
	c.emit(tac.LabelDef(end))
	return nil
}

// expr lowers an expression, returning the virtual register holding its
// value.
func (c *ctx) expr(e frontend.Expr) (tac.VReg, error) {
	switch e := e.(type) {
	case *frontend.NumExpr:
		dest := c.fresh()
		c.emit(tac.LoadImm(dest, e.Value))
		return dest, nil

	case *frontend.VarExpr:
		// The expression's value register is the local's own vreg (it was
		// last written there by its most recent Assign); EvalVar emits no
		// assembly and exists solely to mark that vreg live at this
		// textual occurrence for the liveness scanner (spec.md §3, §4.1).
		v, err := c.localVReg(e.Name)
		if err != nil {
			return tac.Invalid, err
		}
		c.emit(tac.EvalVar(v, e.Name))
		return v, nil

	case *frontend.BinaryExpr:
		lhs, err := c.expr(e.L)
		if err != nil {
			return tac.Invalid, err
		}
		rhs, err := c.expr(e.R)
		if err != nil {
			return tac.Invalid, err
		}
		dest := c.fresh()
		c.emit(tac.BinOpCode(dest, lhs, tacOp(e.Op), rhs))
		return dest, nil

	case *frontend.AssignExpr:
		return c.assign(e)

	case *frontend.AddrExpr:
		varExpr := e.X.(*frontend.VarExpr)
		v, err := c.localVReg(varExpr.Name)
		if err != nil {
			return tac.Invalid, err
		}
		addr := c.fresh()
		c.emit(tac.AddrOf(addr, v))
		return addr, nil

	case *frontend.DerefExpr:
		addr, err := c.expr(e.X)
		if err != nil {
			return tac.Invalid, err
		}
		dest := c.fresh()
		c.emit(tac.LoadVar(dest, addr))
		return dest, nil

	case *frontend.CallExpr:
		args := make([]tac.VReg, 0, len(e.Args))
		for _, a := range e.Args {
			v, err := c.expr(a)
			if err != nil {
				return tac.Invalid, err
			}
			args = append(args, v)
		}
		if len(args) > 6 {
			return tac.Invalid, errors.Errorf("call to %q has %d arguments, more than 6 is unsupported", e.Name, len(args))
		}
		ret := c.fresh()
		c.emit(tac.Call(e.Name, args, ret))
		return ret, nil

	default:
		return tac.Invalid, errors.Errorf("irgen: unhandled expression type %T", e)
	}
}

// assign lowers `x = e`. Evaluating the RHS fully before performing any
// write is the resolved Open Question from spec.md §9: earlier revisions
// of the source interleaved the frame-slot store with RHS evaluation; the
// canonical behaviour evaluates RHS first, then writes.
func (c *ctx) assign(e *frontend.AssignExpr) (tac.VReg, error) {
	src, err := c.expr(e.RHS)
	if err != nil {
		return tac.Invalid, err
	}

	switch lhs := e.LHS.(type) {
	case *frontend.VarExpr:
		v, err := c.localVReg(lhs.Name)
		if err != nil {
			return tac.Invalid, err
		}
		c.emit(tac.Assign(v, src, lhs.Name, true))
		// The value of an assignment is its right-hand side (spec.md §9's
		// resolved Open Question: *p = v is the rvalue v, not the address).
		return src, nil

	case *frontend.DerefExpr:
		addr, err := c.expr(lhs.X)
		if err != nil {
			return tac.Invalid, err
		}
		c.emit(tac.Store(addr, src))
		return src, nil

	default:
		return tac.Invalid, errors.Errorf("irgen: unsupported assignment target %T", lhs)
	}
}

func tacOp(b frontend.BinOp) tac.BinOp {
	switch b {
	case frontend.Add:
		return tac.Add
	case frontend.Sub:
		return tac.Sub
	case frontend.Mul:
		return tac.Mul
	case frontend.Div:
		return tac.Div
	case frontend.Le:
		return tac.Le
	case frontend.Lt:
		return tac.Lt
	case frontend.Eq:
		return tac.Eq
	case frontend.Ne:
		return tac.Ne
	default:
		panic("irgen: unhandled frontend.BinOp")
	}
}
