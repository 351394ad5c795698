package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tacc/internal/tac"
)

func TestAllocateImmediateSequence(t *testing.T) {
	intervals := []Interval{{VReg: 0, Start: 0, End: 0}, {VReg: 1, Start: 1, End: 1}}
	got, err := Allocate(intervals, 2)
	require.NoError(t, err)
	assert.Equal(t, map[tac.VReg]int{0: 0, 1: 1}, got)
}

func TestAllocateBinaryAdd(t *testing.T) {
	intervals := []Interval{
		{VReg: 0, Start: 1, End: 3},
		{VReg: 1, Start: 2, End: 3},
		{VReg: 2, Start: 3, End: 3},
	}
	got, err := Allocate(intervals, 8)
	require.NoError(t, err)
	assert.Equal(t, map[tac.VReg]int{0: 0, 1: 1, 2: 0}, got)
}

func TestAllocateLongerOp(t *testing.T) {
	intervals := []Interval{
		{VReg: 0, Start: 0, End: 4},
		{VReg: 1, Start: 1, End: 3},
		{VReg: 2, Start: 2, End: 3},
		{VReg: 3, Start: 3, End: 4},
		{VReg: 4, Start: 4, End: 4},
	}
	got, err := Allocate(intervals, 8)
	require.NoError(t, err)
	assert.Equal(t, map[tac.VReg]int{0: 0, 1: 1, 2: 2, 3: 1, 4: 0}, got)
}

func TestAllocateExactlyRSucceedsOneMoreFails(t *testing.T) {
	intervals := []Interval{
		{VReg: 0, Start: 0, End: 5},
		{VReg: 1, Start: 0, End: 5},
	}
	_, err := Allocate(intervals, 2)
	require.NoError(t, err)

	intervals = append(intervals, Interval{VReg: 2, Start: 0, End: 5})
	_, err = Allocate(intervals, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpill)
}

func TestAllocateTieBrokenByInputOrder(t *testing.T) {
	intervals := []Interval{
		{VReg: 5, Start: 0, End: 2},
		{VReg: 9, Start: 0, End: 2},
	}
	got, err := Allocate(intervals, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, got[5])
	assert.Equal(t, 1, got[9])
}

func TestAllocateIsDeterministic(t *testing.T) {
	intervals := []Interval{
		{VReg: 0, Start: 0, End: 4},
		{VReg: 1, Start: 1, End: 3},
		{VReg: 2, Start: 2, End: 3},
	}
	a, err := Allocate(intervals, 3)
	require.NoError(t, err)
	b, err := Allocate(intervals, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAllocateRetiresEndEqualsStart(t *testing.T) {
	// An interval ending exactly where the next begins frees its register.
	intervals := []Interval{
		{VReg: 0, Start: 0, End: 1},
		{VReg: 1, Start: 1, End: 2},
	}
	got, err := Allocate(intervals, 1)
	require.NoError(t, err)
	assert.Equal(t, map[tac.VReg]int{0: 0, 1: 0}, got)
}
