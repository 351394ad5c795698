// Package regalloc computes live intervals over a flat TAC stream and
// performs linear-scan register allocation.
//
// Grounded on the teacher's live variable analysis (ir/lir/live.go's
// CalcLiveness/calcLivenessFunction and backend/lir/regalloc.go's
// calcLiveness/calcLivenessFunc, both implementing the backward-flow
// ref/def walk cited from the Cambridge OptComp lecture notes) --
// generalized from the teacher's register-interference-graph output (a
// neighbour list per instruction, feeding a graph-colouring allocator)
// to the linear-scan interval model spec.md requires instead. See
// DESIGN.md for why the allocation strategy itself changed even though the
// backward live-set walk producing it did not.
package regalloc

import (
	"sort"

	"tacc/internal/tac"
)

// Interval is the live range `[start, end]` of one virtual register within
// a function's flat TAC stream; both ends are inclusive (Start and End are
// indices at which the register is mentioned).
type Interval struct {
	VReg  tac.VReg
	Start int
	End   int
}

// ComputeIntervals computes, for every distinct virtual register mentioned
// in code, the smallest index at which it is first mentioned and the
// largest index at which it is last mentioned (spec.md §4.2). The
// implementation is the two single passes the spec calls for: forward for
// start, reverse for end, each keeping only the first write per key.
//
// spec.md leaves the result order unspecified ("the allocator sorts"); this
// implementation returns intervals ordered by ascending VReg id so that
// repeated calls over the same input are byte-for-byte identical, which
// the §8 round-trip property implicitly assumes for testability.
func ComputeIntervals(code []tac.Instr) []Interval {
	starts := make(map[tac.VReg]int)
	for i, ins := range code {
		for _, v := range ins.Mentions() {
			if v == tac.Invalid {
				continue
			}
			if _, ok := starts[v]; !ok {
				starts[v] = i
			}
		}
	}

	ends := make(map[tac.VReg]int)
	for i := len(code) - 1; i >= 0; i-- {
		for _, v := range code[i].Mentions() {
			if v == tac.Invalid {
				continue
			}
			if _, ok := ends[v]; !ok {
				ends[v] = i
			}
		}
	}

	intervals := make([]Interval, 0, len(starts))
	for v, start := range starts {
		intervals = append(intervals, Interval{VReg: v, Start: start, End: ends[v]})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].VReg < intervals[j].VReg })
	return intervals
}
