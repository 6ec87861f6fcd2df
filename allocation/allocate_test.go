package allocation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type supplyDef struct {
	subinv string
	qty    int
}

func supply(defs ...supplyDef) []*SupplyLine {
	lines := make([]*SupplyLine, len(defs))
	for i, s := range defs {
		lines[i] = &SupplyLine{
			ID:       int64(i + 1),
			Waybill:  "WB-1",
			Part:     "P1",
			Pool:     PoolFromSubinv(s.subinv),
			Subinv:   s.subinv,
			QtyTotal: s.qty,
		}
	}
	return NewSupplyLines(lines)
}

func TestAllocateAMOBeforeKanban(t *testing.T) {
	lines := supply(supplyDef{"DRV-RM", 10}, supplyDef{"DRV-AMO", 5})

	bd, err := Allocate(Supply(lines), 6)
	require.NoError(t, err)
	require.Equal(t, Breakdown{"AMO": 5, "KANBAN": 1}, bd)
	require.Equal(t, 5, lines[1].Scanned)
	require.Equal(t, 1, lines[0].Scanned)
}

func TestAllocateConservation(t *testing.T) {
	lines := supply(supplyDef{"DRV-AMO", 3}, supplyDef{"DRV-RM", 7}, supplyDef{"SURPLUS", 4})

	bd, err := Allocate(Supply(lines), 12)
	require.NoError(t, err)
	require.Equal(t, 12, bd.Total())
	for _, l := range lines {
		require.LessOrEqual(t, l.Scanned, l.QtyTotal)
		require.GreaterOrEqual(t, l.Remaining(), 0)
	}
	// unmapped pool drains last and keeps its raw label
	require.Equal(t, 2, bd["SURPLUS"])
}

func TestAllocateOverscanMutatesNothing(t *testing.T) {
	lines := supply(supplyDef{"DRV-AMO", 2}, supplyDef{"DRV-RM", 3})

	bd, err := Allocate(Supply(lines), 6)
	require.ErrorIs(t, err, ErrExceedsExpected)
	require.Nil(t, bd)
	for _, l := range lines {
		require.Zero(t, l.Scanned)
	}
}

func TestAllocateRejectsNonPositiveQuantity(t *testing.T) {
	lines := supply(supplyDef{"DRV-AMO", 5})

	for _, qty := range []int{0, -4} {
		_, err := Allocate(Supply(lines), qty)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestAllocateRespectsPriorAllocations(t *testing.T) {
	lines := supply(supplyDef{"DRV-AMO", 5}, supplyDef{"DRV-RM", 5})
	lines[0].Scanned = 4

	bd, err := Allocate(Supply(lines), 3)
	require.NoError(t, err)
	require.Equal(t, Breakdown{"AMO": 1, "KANBAN": 2}, bd)
}

func TestDemandOrderedByUrgencyThenID(t *testing.T) {
	lines := []*DemandLine{
		{ID: 7, GoItem: "J2-002S", Part: "P1", QtyReq: 4, RedconStatus: 99},
		{ID: 3, GoItem: "J1-002S", Part: "P1", QtyReq: 2, RedconStatus: 1},
		{ID: 5, GoItem: "J1-003W", Part: "P1", QtyReq: 3, RedconStatus: 1},
	}

	bd := Breakdown{}
	left := Distribute(Demand(lines), 6, bd)
	require.Zero(t, left)
	require.Equal(t, Breakdown{BackOrderLabel: 6}, bd)
	require.Equal(t, 2, lines[1].QtyFulfilled) // redcon 1, id 3
	require.Equal(t, 3, lines[2].QtyFulfilled) // redcon 1, id 5
	require.Equal(t, 1, lines[0].QtyFulfilled) // redcon 99 last
}

func TestDistributeReturnsLeftover(t *testing.T) {
	lines := []*DemandLine{
		{ID: 1, GoItem: "J1-002S", Part: "P1", QtyReq: 3, RedconStatus: 2},
	}

	bd := Breakdown{}
	left := Distribute(Demand(lines), 5, bd)
	require.Equal(t, 2, left)
	require.Equal(t, Breakdown{BackOrderLabel: 3}, bd)
	require.Equal(t, 3, lines[0].QtyFulfilled)
}

func TestAllocateDeterministic(t *testing.T) {
	build := func() []*SupplyLine {
		return supply(supplyDef{"DRV-RM", 4}, supplyDef{"DRV-RM", 4}, supplyDef{"DRV-AMO", 2})
	}

	first := build()
	bd1, err := Allocate(Supply(first), 7)
	require.NoError(t, err)

	second := build()
	bd2, err := Allocate(Supply(second), 7)
	require.NoError(t, err)

	require.Equal(t, bd1, bd2)
	for i := range first {
		require.Equal(t, first[i].Scanned, second[i].Scanned)
	}
	// insertion order breaks the KANBAN tie: first KANBAN line fills first
	require.Equal(t, 4, first[0].Scanned)
	require.Equal(t, 1, first[1].Scanned)
}

func TestBreakdownRendering(t *testing.T) {
	bd := Breakdown{}
	bd.Add("KANBAN", 1)
	bd.Add("AMO", 5)
	bd.Add(BackOrderLabel, 3)
	bd.Add("EMPTY", 0)

	require.Equal(t, "AMO:5, KANBAN:1, BACK ORDER:3", bd.String())

	data, err := bd.MarshalJSON()
	require.NoError(t, err)
	parsed, err := ParseBreakdown(string(data))
	require.NoError(t, err)
	require.Equal(t, bd, parsed)
}
