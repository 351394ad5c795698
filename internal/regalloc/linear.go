package regalloc

import (
	"sort"

	"github.com/pkg/errors"

	"tacc/internal/tac"
)

// ErrSpill is returned (wrapped) when the allocator runs out of physical
// registers. spec.md explicitly makes register spilling out of scope: this
// is a terminal error, not a recoverable condition.
var ErrSpill = errors.New("no handle for spill")

// Allocate runs linear-scan register allocation over intervals against a
// pool of r physical registers, per spec.md §4.3:
//
//  1. sort ascending by start;
//  2. retire active intervals whose end is not strictly past the new
//     interval's start (an interval ending exactly at the new start IS
//     retired);
//  3. assign the lowest free physical index while |active| < r;
//  4. fail with ErrSpill otherwise.
//
// Ties in start are broken deterministically by the order intervals
// appear in the input slice, because sort.SliceStable preserves that
// relative order among equal keys.
func Allocate(intervals []Interval, r int) (map[tac.VReg]int, error) {
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	result := make(map[tac.VReg]int, len(sorted))
	active := make([]Interval, 0, r)
	activeReg := make(map[tac.VReg]int, r)

	for _, iv := range sorted {
		// Retire intervals strictly behind the new interval's start.
		kept := active[:0]
		for _, a := range active {
			if a.End > iv.Start {
				kept = append(kept, a)
			} else {
				delete(activeReg, a.VReg)
			}
		}
		active = kept

		if len(active) >= r {
			return nil, errors.Wrapf(ErrSpill, "register %s needs a free slot among %d registers", iv.VReg, r)
		}

		reg := lowestFree(activeReg, r)
		result[iv.VReg] = reg
		activeReg[iv.VReg] = reg
		active = append(active, iv)
	}

	return result, nil
}

// lowestFree returns the smallest register index in [0,r) not currently
// held by any entry of used.
func lowestFree(used map[tac.VReg]int, r int) int {
	taken := make([]bool, r)
	for _, reg := range used {
		taken[reg] = true
	}
	for i := 0; i < r; i++ {
		if !taken[i] {
			return i
		}
	}
	panic("regalloc: lowestFree called with a full register set")
}
