package importer

import (
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// ParseWaybill normalizes a waybill extract into supply lines. The
// reception date falls back to today when the extract carries none.
func ParseWaybill(r io.Reader) ([]store.WaybillLine, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.require("WAYBILL_NUMBER", "PART_NUMBER", "QTY", "SUBINV")
	if err != nil {
		return nil, err
	}
	today := time.Now().Format("2006-01-02")
	var lines []store.WaybillLine
	for _, row := range t.rows {
		waybill := t.at(row, cols[0])
		part := strings.ToUpper(t.at(row, cols[1]))
		if waybill == "" || part == "" {
			continue
		}
		qty := intOr(t.at(row, cols[2]), 0)
		if qty <= 0 {
			continue
		}
		date := t.cell(row, "DATE")
		if date == "" {
			date = today
		}
		lines = append(lines, store.WaybillLine{
			WaybillNumber: waybill,
			PartNumber:    part,
			QtyTotal:      qty,
			Subinv:        strings.ToUpper(t.at(row, cols[3])),
			Locator:       t.cell(row, "LOCATOR"),
			Description:   t.cell(row, "DESCRIPTION"),
			ItemCost:      floatOr(t.cell(row, "ITEM_COSTS"), 0),
			Date:          date,
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no usable waybill rows")
	}
	return lines, nil
}

// ImportWaybill parses and loads a waybill extract in one transaction.
// Returns the number of lines written.
func ImportWaybill(db *store.DB, r io.Reader) (int, error) {
	lines, err := ParseWaybill(r)
	if err != nil {
		return 0, err
	}
	err = db.WithTx(func(tx *sql.Tx) error {
		return db.InsertWaybillLines(tx, lines)
	})
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}
