package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActive(t *testing.T) *Descriptor {
	t.Helper()
	var d Descriptor
	Init(&d, Slot{Generation: 3})
	Activate(&d, 0x7f0000000000, 1)
	return &d
}

func assertState(t *testing.T, d *Descriptor, allocCount, used, lfr int) {
	t.Helper()
	assert.Equal(t, allocCount, d.AllocCount, "allocCount")
	assert.Equal(t, used, d.UsedCount, "usedCount")
	assert.Equal(t, lfr, d.LongestFreeRange, "longestFreeRange")
	assert.Equal(t, used, d.AllocatedPages.CountBits(0, PagesInBlock), "usedCount == popcount(allocatedPages)")
}

// Scenario A from spec.md §8.
func TestScenarioA_ReserveReleaseSequence(t *testing.T) {
	d := newActive(t)

	require.Equal(t, 0, d.Reserve(5))
	assertState(t, d, 1, 5, 507)

	require.Equal(t, 5, d.Reserve(5))
	assertState(t, d, 2, 10, 502)

	d.Release(0, 5)
	assertState(t, d, 1, 5, 502)

	require.Equal(t, 10, d.Reserve(7))
	assertState(t, d, 2, 12, 495)

	require.Equal(t, 0, d.Reserve(5))
	assertState(t, d, 3, 17, 495)
}

// Scenario B from spec.md §8.
func TestScenarioB_FullBlockAndMiddleRelease(t *testing.T) {
	d := newActive(t)

	for i := 0; i < 128; i++ {
		idx := d.Reserve(4)
		require.Equal(t, i*4, idx)
	}
	assertState(t, d, 128, 512, 0)

	d.Release(100, 4)
	assertState(t, d, 127, 508, 4)

	d.Release(104, 4)
	assertState(t, d, 126, 504, 8)

	d.Release(96, 4)
	assertState(t, d, 125, 500, 12)
}

// Scenario C from spec.md §8, through the point where the worked
// example is internally consistent (reserve x3, then two clears).
// The spec's final release(300, 200) step is arithmetically
// inconsistent with its own stated formula (it only balances if 212
// pages, the whole remainder of the third reservation, are released);
// this test asserts the value independently derived from the
// documented algorithm instead of the spec's literal numbers (see
// SPEC_FULL.md §5, "Scenario C's worked release(300, 200) step").
func TestScenarioC_ShrinkViaClear(t *testing.T) {
	d := newActive(t)

	require.Equal(t, 0, d.Reserve(200))
	require.Equal(t, 200, d.Reserve(100))
	require.Equal(t, 300, d.Reserve(212))
	assertState(t, d, 3, 512, 0)

	d.Clear(100, 100)
	assertState(t, d, 3, 412, 100)

	d.Clear(299, 1)
	assertState(t, d, 3, 411, 100)

	d.Release(300, 200)
	assertState(t, d, 2, 211, 201)
}

// Scenario D from spec.md §8.
func TestScenarioD_GrowViaSet(t *testing.T) {
	d := newActive(t)

	require.Equal(t, 0, d.Reserve(64))
	require.True(t, d.Set(64, 32))
	require.True(t, d.Set(96, 32))
	assertState(t, d, 1, 128, 384)

	require.Equal(t, 128, d.Reserve(256))
	require.False(t, d.Set(128, 1))
	require.Equal(t, 384, d.Reserve(128))
	assertState(t, d, 3, 512, 0)

	d.Release(0, 128)
	d.Release(384, 128)
	assertState(t, d, 1, 256, 128)

	require.True(t, d.Set(384, 1))
	assertState(t, d, 1, 257, 128)
}

// Scenario E (the Extent slab half) lives in extent_test.go.

func TestReserveRejectsOversizedRequestInO1(t *testing.T) {
	d := newActive(t)
	d.Reserve(500)
	assert.Panics(t, func() { d.Reserve(13) })
}

func TestEmptyAndFull(t *testing.T) {
	d := newActive(t)
	assert.True(t, d.Empty())
	assert.False(t, d.Full())

	d.Reserve(PagesInBlock)
	assert.False(t, d.Empty())
	assert.True(t, d.Full())
}

func TestLifecycleGenerationSurvivesRetire(t *testing.T) {
	var d Descriptor
	Init(&d, Slot{Generation: 5})
	Activate(&d, 0x1000, 42)
	d.Reserve(10)
	d.Release(0, 10)

	Retire(&d)
	assert.Equal(t, uint32(6), d.Generation)
	assert.Equal(t, uintptr(0), d.Address)
	assert.Equal(t, PagesInBlock, d.LongestFreeRange)
}

func TestRetirePanicsOnNonEmptyBlock(t *testing.T) {
	d := newActive(t)
	d.Reserve(1)
	assert.Panics(t, func() { Retire(d) })
}

func TestBestFitTieBreaksEarliestStart(t *testing.T) {
	// Two equal 10-page holes at [0,10) and [50,60), with everything
	// else allocated, tie for "smallest run satisfying pages=10"; the
	// earliest-start hole must win.
	var d Descriptor
	Init(&d, Slot{Generation: 1})
	Activate(&d, 0x2000, 1)
	d.Reserve(PagesInBlock)
	d.Clear(0, 10)
	d.Clear(50, 10)

	idx := d.Reserve(10)
	assert.Equal(t, 0, idx, "ties resolve to the earliest start")
}
