package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

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

func TestParseBacklogFiltersItemCodes(t *testing.T) {
	extract := strings.Join([]string{
		"GO ITEM,ITEM NUMBER,PART NUMBER,QTY REQ,DISCRETE JOB,ORACLE BL",
		"J1-002S,002S,p100,5,DJ-1,BL1",
		"J1-003W1,003W1,P200,3,DJ-1,BL2",
		"TOTALS,,P300,9,,",      // summary row, no item code
		"J2-00XX,00XX,P400,2,,", // item code fails the pattern
	}, "\n")

	records, err := ParseBacklog(strings.NewReader(extract))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "J1-002S", records[0].GoItem)
	require.Equal(t, "P100", records[0].PartNumber)
	require.Equal(t, 5, records[0].QtyReq)
	require.Equal(t, "003W1", records[1].ItemNumber)
}

func TestParseBacklogMissingColumnAborts(t *testing.T) {
	extract := "GO ITEM,ITEM NUMBER,PART NUMBER\nJ1-002S,002S,P100"
	_, err := ParseBacklog(strings.NewReader(extract))
	require.ErrorContains(t, err, "QTY_REQ")
}

func TestParseRedconDefaults(t *testing.T) {
	extract := strings.Join([]string{
		"GO_ITEM,PART_NUMBER,FLOW_STATUS,REDCON_STATUS,AMO_STOCK_QTY,KANBAN_STOCK_QTY",
		"J1-002S,P100,SHIPPED,2,7,3",
		"J1-003W,P200,,n/a,bad,",
	}, "\n")

	records, err := ParseRedcon(strings.NewReader(extract))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "SHIPPED", records[0].FlowStatus)
	require.Equal(t, 2, records[0].RedconStatus)
	require.Equal(t, 7, records[0].AMOStockQty)

	// malformed cells take their documented defaults
	require.Equal(t, backorder.DefaultFlowStatus, records[1].FlowStatus)
	require.Equal(t, 99, records[1].RedconStatus)
	require.Equal(t, 0, records[1].AMOStockQty)
	require.Equal(t, 0, records[1].KanbanStockQty)
}

func TestParseWaybillCommaDecimalCosts(t *testing.T) {
	extract := strings.Join([]string{
		"WAYBILL NUMBER,PART NUMBER,QTY,SUBINV,LOCATOR,DESCRIPTION,ITEM_COSTS,DATE",
		"WB1,p100,5.0,DRV-AMO,A1,Widget,\"12,50\",2026-08-28",
		"WB1,P200,0,DRV-RM,,,,",      // zero quantity skipped
		",P300,2,DRV-RM,,,,",         // missing waybill skipped
	}, "\n")

	lines, err := ParseWaybill(strings.NewReader(extract))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "P100", lines[0].PartNumber)
	require.Equal(t, 5, lines[0].QtyTotal)
	require.Equal(t, 12.5, lines[0].ItemCost)
	require.Equal(t, "2026-08-28", lines[0].Date)
}

func TestImportWaybillWritesLines(t *testing.T) {
	db := testDB(t)
	extract := "WAYBILL NUMBER,PART NUMBER,QTY,SUBINV\nWB1,P100,5,DRV-AMO\nWB1,P100,3,DRV-RM"

	n, err := ImportWaybill(db, strings.NewReader(extract))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	lines, err := db.GetWaybillLines("WB1")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Equal(t, "DRV-AMO", lines[0].Subinv)
}

func TestImportPartIdentifiersReplacesCatalog(t *testing.T) {
	db := testDB(t)

	n, err := ImportPartIdentifiers(db, strings.NewReader("PART_NUMBER,UPC_CODE,QTY\nP100,111,12"))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// a second import replaces, never appends
	n, err = ImportPartIdentifiers(db, strings.NewReader("PART_NUMBER,UPC_CODE,QTY\nP200,222,6\nP300,333,"))
	require.NoError(t, err)
	require.Equal(t, 2, n)

	count, err := db.CountPartIdentifiers()
	require.NoError(t, err)
	require.Equal(t, 2, count)

	part, boxQty, err := db.ResolvePart("222")
	require.NoError(t, err)
	require.Equal(t, "P200", part)
	require.Equal(t, 6, boxQty)

	// a failed parse leaves the catalog untouched
	_, err = ImportPartIdentifiers(db, strings.NewReader("PART_NUMBER\nP400"))
	require.ErrorContains(t, err, "UPC_CODE")
	count, err = db.CountPartIdentifiers()
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestSyncBackOrdersEndToEnd(t *testing.T) {
	db := testDB(t)
	svc := backorder.NewService(db)

	backlog := "GO ITEM,ITEM NUMBER,PART NUMBER,QTY REQ\nJ1-002S,002S,P100,10"
	redcon := "GO_ITEM,PART_NUMBER,REDCON_STATUS\nJ1-002S,P100,2"

	res, err := SyncBackOrders(svc, strings.NewReader(backlog), strings.NewReader(redcon))
	require.NoError(t, err)
	require.Equal(t, backorder.SyncResult{Created: 1, Updated: 0, Deleted: 0}, res)

	items, err := db.ListBOItems()
	require.NoError(t, err)
	require.Equal(t, "P100", items[0].PartNumber)
	require.Equal(t, 2, items[0].RedconStatus)
	require.Equal(t, store.PickNotStarted, items[0].PickStatus)
}
