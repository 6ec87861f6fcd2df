package receiving

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OhmBoyz/receiving-shipping-tracker/allocation"
	"github.com/OhmBoyz/receiving-shipping-tracker/backorder"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testProcessor(t *testing.T, db *store.DB) *Processor {
	t.Helper()
	return NewProcessor(db, NewResolver(db, ""), "")
}

func seedWaybill(t *testing.T, db *store.DB, waybill, part, subinv string, qty int) {
	t.Helper()
	err := db.WithTx(func(tx *sql.Tx) error {
		return db.InsertWaybillLines(tx, []store.WaybillLine{{
			WaybillNumber: waybill,
			PartNumber:    part,
			QtyTotal:      qty,
			Subinv:        subinv,
			Date:          "2026-08-28",
		}})
	})
	require.NoError(t, err)
}

func seedBackOrder(t *testing.T, db *store.DB, goItem, part string, qtyReq, redcon int) {
	t.Helper()
	svc := backorder.NewService(db)
	_, err := svc.Sync(
		[]backorder.BacklogRecord{{GoItem: goItem, ItemNumber: "002S", PartNumber: part, QtyReq: qtyReq}},
		[]backorder.RedconRecord{{GoItem: goItem, PartNumber: part, RedconStatus: redcon}},
	)
	require.NoError(t, err)
}

func newSession(t *testing.T, db *store.DB, waybill string) int64 {
	t.Helper()
	userID, err := db.CreateUser("scanner", "hash", store.RoleShipper)
	require.NoError(t, err)
	s, err := db.GetOrCreateSession(userID, "uuid-test")
	require.NoError(t, err)
	require.NoError(t, db.UpdateSessionWaybill(s.ID, waybill))
	return s.ID
}

func TestScanFillsAMOBeforeKanban(t *testing.T) {
	db := testDB(t)
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 5)
	seedWaybill(t, db, "WB1", "P1", "DRV-RM", 3)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	res, err := p.ProcessScan(sid, "WB1", "P1", 6)
	require.NoError(t, err)
	require.Equal(t, allocation.Breakdown{"AMO": 5, "KANBAN": 1}, res.Breakdown)
	require.False(t, res.WaybillDone)

	res, err = p.ProcessScan(sid, "WB1", "P1", 2)
	require.NoError(t, err)
	require.Equal(t, allocation.Breakdown{"KANBAN": 2}, res.Breakdown)
	require.True(t, res.WaybillDone)

	// the completing scan auto-finished the session and projected it
	rows, err := db.QueryScanSummary(store.SummaryFilter{Waybill: "WB1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 8, rows[0].TotalScanned)
	require.Equal(t, 0, rows[0].RemainingQty)

	// a later manual finish is absorbed by the recorded guard
	require.NoError(t, p.FinishSession(sid))
	rows, err = db.QueryScanSummary(store.SummaryFilter{Waybill: "WB1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestBackOrdersConsumeBeforeSupply(t *testing.T) {
	db := testDB(t)
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 5)
	seedBackOrder(t, db, "J1-002S", "P1", 4, 2)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	res, err := p.ProcessScan(sid, "WB1", "P1", 9)
	require.NoError(t, err)
	require.Equal(t, allocation.Breakdown{"BACK ORDER": 4, "AMO": 5}, res.Breakdown)
	require.Len(t, res.CompletedBO, 1)

	items, err := db.ListBOItems()
	require.NoError(t, err)
	require.Equal(t, 4, items[0].QtyFulfilled)
	require.Equal(t, store.PickCompleted, items[0].PickStatus)
}

func TestOverscanLeavesStoreUntouched(t *testing.T) {
	db := testDB(t)
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 5)
	seedBackOrder(t, db, "J1-002S", "P1", 2, 2)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	_, err := p.ProcessScan(sid, "WB1", "P1", 3)
	require.NoError(t, err)

	// 2 back order + 5 supply leaves 4 units of capacity; 5 is too many
	_, err = p.ProcessScan(sid, "WB1", "P1", 5)
	require.ErrorIs(t, err, allocation.ErrExceedsExpected)

	// the rejected scan left no trace: no event, no fulfillment bump
	scans, err := db.FetchScans("WB1")
	require.NoError(t, err)
	require.Equal(t, 3, scans["P1"])
	items, err := db.ListBOItems()
	require.NoError(t, err)
	require.Equal(t, 2, items[0].QtyFulfilled)

	// the freed capacity is still scannable afterwards
	res, err := p.ProcessScan(sid, "WB1", "P1", 4)
	require.NoError(t, err)
	require.Equal(t, allocation.Breakdown{"AMO": 4}, res.Breakdown)
}

func TestScanUnknownPartRejected(t *testing.T) {
	db := testDB(t)
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 5)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	_, err := p.ProcessScan(sid, "WB1", "P9", 1)
	require.ErrorIs(t, err, ErrUnknownPart)

	_, err = p.ProcessScan(sid, "WB1", "P1", 0)
	require.ErrorIs(t, err, allocation.ErrInvalidQuantity)
}

func TestPureBackOrderPartScans(t *testing.T) {
	db := testDB(t)
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 1)
	seedBackOrder(t, db, "J1-002S", "P2", 10, 2)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	// no waybill presence for P2, but open demand absorbs the scan
	res, err := p.ProcessScan(sid, "WB1", "P2", 10)
	require.NoError(t, err)
	require.Equal(t, allocation.Breakdown{"BACK ORDER": 10}, res.Breakdown)

	// once the demand is gone the part is unknown again
	_, err = p.ProcessScan(sid, "WB1", "P2", 1)
	require.ErrorIs(t, err, ErrUnknownPart)
}

func TestBoxQuantitySubstitution(t *testing.T) {
	db := testDB(t)
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 24)
	_, err := db.ReplacePartIdentifiers([]store.PartIdentifier{
		{UPCCode: "012345678905", PartNumber: "P1", Qty: 12},
	})
	require.NoError(t, err)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	// case scan: raw qty 1 becomes one full box
	res, err := p.ProcessScan(sid, "WB1", "012345678905", 1)
	require.NoError(t, err)
	require.Equal(t, "P1", res.PartNumber)
	require.Equal(t, 12, res.EffectiveQty)

	// explicit quantities bypass the substitution
	res, err = p.ProcessScan(sid, "WB1", "012345678905", 3)
	require.NoError(t, err)
	require.Equal(t, 3, res.EffectiveQty)
}

func TestUrgentJobFlowEndToEnd(t *testing.T) {
	db := testDB(t)
	svc := backorder.NewService(db)
	seedBackOrder(t, db, "J1-002S", "P1", 10, 2)

	next, err := svc.NextUrgentJob()
	require.NoError(t, err)
	require.Equal(t, "J1", next)

	items, err := svc.StartPicking("J1")
	require.NoError(t, err)
	require.Equal(t, store.PickInProgress, items[0].PickStatus)

	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 2)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	res, err := p.ProcessScan(sid, "WB1", "P1", 10)
	require.NoError(t, err)
	require.Equal(t, allocation.Breakdown{"BACK ORDER": 10}, res.Breakdown)
	require.Equal(t, []int64{items[0].ID}, res.CompletedBO)

	done, err := db.GetBOItem(items[0].ID)
	require.NoError(t, err)
	require.Equal(t, store.PickCompleted, done.PickStatus)
	require.Equal(t, 10, done.QtyFulfilled)
}

func TestFinishSessionWritesSummaryOnce(t *testing.T) {
	db := testDB(t)
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 5)
	seedWaybill(t, db, "WB1", "P2", "DRV-RM", 4)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	_, err := p.ProcessScan(sid, "WB1", "P1", 3)
	require.NoError(t, err)
	_, err = p.ProcessScan(sid, "WB1", "P1", 1)
	require.NoError(t, err)
	_, err = p.ProcessScan(sid, "WB1", "P2", 4)
	require.NoError(t, err)

	require.NoError(t, p.FinishSession(sid))
	// finish again via the exit path: the guard keeps it single
	require.NoError(t, p.FinishSession(sid))

	rows, err := db.QueryScanSummary(store.SummaryFilter{Waybill: "WB1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, "P1", rows[0].PartNumber)
	require.Equal(t, 4, rows[0].TotalScanned)
	require.Equal(t, 5, rows[0].ExpectedQty)
	require.Equal(t, 1, rows[0].RemainingQty)
	require.Equal(t, "AMO:4", rows[0].AllocatedTo)
	require.Equal(t, "2026-08-28", rows[0].ReceptionDate)

	require.Equal(t, "P2", rows[1].PartNumber)
	require.Equal(t, 0, rows[1].RemainingQty)
	require.Equal(t, "KANBAN:4", rows[1].AllocatedTo)
}

func TestFinishSessionWithoutScans(t *testing.T) {
	db := testDB(t)
	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")

	require.NoError(t, p.FinishSession(sid))
	rows, err := db.QueryScanSummary(store.SummaryFilter{})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestScanScenario(t *testing.T) {
	db := testDB(t)
	svc := backorder.NewService(db)

	_, err := svc.Sync(
		[]backorder.BacklogRecord{{GoItem: "J1-002S", ItemNumber: "002S", PartNumber: "P1", QtyReq: 10}},
		[]backorder.RedconRecord{{GoItem: "J1-002S", PartNumber: "P1", RedconStatus: 2}},
	)
	require.NoError(t, err)

	items, err := svc.StartPicking("J1")
	require.NoError(t, err)
	require.Equal(t, store.PickInProgress, items[0].PickStatus)

	p := testProcessor(t, db)
	sid := newSession(t, db, "WB1")
	seedWaybill(t, db, "WB1", "P1", "DRV-AMO", 1)

	res, err := p.ProcessScan(sid, "WB1", "P1", 10)
	require.NoError(t, err)
	require.Equal(t, allocation.Breakdown{"BACK ORDER": 10}, res.Breakdown)

	line, err := db.GetBOItem(items[0].ID)
	require.NoError(t, err)
	require.Equal(t, 10, line.QtyFulfilled)
	require.Equal(t, store.PickCompleted, line.PickStatus)
}
