package picklist

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OhmBoyz/receiving-shipping-tracker/backorder"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

func testService(t *testing.T) *backorder.Service {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return backorder.NewService(db)
}

func seed(t *testing.T, svc *backorder.Service) {
	t.Helper()
	_, err := svc.Sync(
		[]backorder.BacklogRecord{
			{GoItem: "J1-002S", ItemNumber: "002S", PartNumber: "P1", QtyReq: 10, DiscreteJob: "DJ-1"},
			{GoItem: "J1-003W", ItemNumber: "003W", PartNumber: "P2", QtyReq: 5, DiscreteJob: "DJ-1"},
		},
		[]backorder.RedconRecord{
			{GoItem: "J1-002S", PartNumber: "P1", RedconStatus: 2, AMOStockQty: 4},
			{GoItem: "J1-003W", PartNumber: "P2", RedconStatus: 7},
		},
	)
	require.NoError(t, err)
}

func TestGenerateRendersAndStartsPicking(t *testing.T) {
	svc := testService(t)
	seed(t, svc)
	gen := NewGenerator(svc)

	var buf bytes.Buffer
	sheet, err := gen.Generate(&buf, "J1")
	require.NoError(t, err)
	require.Equal(t, 15, sheet.TotalReq)
	require.Equal(t, 15, sheet.TotalOpen)

	html := buf.String()
	require.Contains(t, html, "Job J1")
	require.Contains(t, html, "J1-002S")
	require.Contains(t, html, "P2")

	// generation is the IN_PROGRESS transition
	items, err := svc.PicklistItems("J1")
	require.NoError(t, err)
	for _, item := range items {
		require.Equal(t, store.PickInProgress, item.PickStatus)
	}
}

func TestGenerateUnknownJob(t *testing.T) {
	gen := NewGenerator(testService(t))
	var buf bytes.Buffer
	_, err := gen.Generate(&buf, "NOPE")
	require.Error(t, err)
	require.Zero(t, buf.Len())
}

func TestNextUrgentPicksLowestRedcon(t *testing.T) {
	svc := testService(t)
	seed(t, svc)
	_, err := svc.Sync(
		[]backorder.BacklogRecord{
			{GoItem: "J1-002S", ItemNumber: "002S", PartNumber: "P1", QtyReq: 10},
			{GoItem: "J1-003W", ItemNumber: "003W", PartNumber: "P2", QtyReq: 5},
			{GoItem: "J2-002S", ItemNumber: "002S", PartNumber: "P3", QtyReq: 1},
		},
		[]backorder.RedconRecord{
			{GoItem: "J1-002S", PartNumber: "P1", RedconStatus: 2},
			{GoItem: "J1-003W", PartNumber: "P2", RedconStatus: 7},
			{GoItem: "J2-002S", PartNumber: "P3", RedconStatus: 1},
		},
	)
	require.NoError(t, err)

	gen := NewGenerator(svc)
	var buf bytes.Buffer
	sheet, err := gen.NextUrgent(&buf)
	require.NoError(t, err)
	require.Equal(t, "J2", sheet.GoNumber)
}
