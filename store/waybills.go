package store

import (
	"database/sql"
	"strings"
)

// WaybillLine is the expected quantity of one part on one waybill for
// one subinventory. Scanned progress is never stored here; it is a
// projection of scan_events.
type WaybillLine struct {
	ID            int64   `json:"id"`
	WaybillNumber string  `json:"waybill_number"`
	PartNumber    string  `json:"part_number"`
	QtyTotal      int     `json:"qty_total"`
	Subinv        string  `json:"subinv"`
	Locator       string  `json:"locator"`
	Description   string  `json:"description"`
	ItemCost      float64 `json:"item_cost"`
	Date          string  `json:"date"`
	ImportDate    string  `json:"import_date"`
}

// WaybillProgress summarizes one active waybill for the picker screen.
type WaybillProgress struct {
	WaybillNumber string `json:"waybill_number"`
	Expected      int    `json:"expected"`
	Remaining     int    `json:"remaining"`
}

const waybillLineCols = `id, waybill_number, part_number, qty_total, subinv, locator, description, item_cost, date, import_date`

// notTerminated filters every active-waybill query.
const notTerminated = `waybill_number NOT IN (SELECT waybill_number FROM terminated_waybills)`

func scanWaybillLines(rows *sql.Rows) ([]WaybillLine, error) {
	var lines []WaybillLine
	for rows.Next() {
		var l WaybillLine
		if err := rows.Scan(&l.ID, &l.WaybillNumber, &l.PartNumber, &l.QtyTotal, &l.Subinv,
			&l.Locator, &l.Description, &l.ItemCost, &l.Date, &l.ImportDate); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// InsertWaybillLines writes an imported extract inside tx so a failed
// import leaves no partial waybill behind.
func (db *DB) InsertWaybillLines(tx *sql.Tx, lines []WaybillLine) error {
	stmt, err := tx.Prepare(`INSERT INTO waybill_lines
		(waybill_number, part_number, qty_total, subinv, locator, description, item_cost, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, l := range lines {
		if _, err := stmt.Exec(l.WaybillNumber, strings.ToUpper(l.PartNumber), l.QtyTotal,
			l.Subinv, l.Locator, l.Description, l.ItemCost, l.Date); err != nil {
			return err
		}
	}
	return nil
}

// ListActiveWaybills returns non-terminated waybill numbers, optionally
// filtered to one reception date.
func (db *DB) ListActiveWaybills(date string) ([]string, error) {
	query := `SELECT DISTINCT waybill_number FROM waybill_lines WHERE ` + notTerminated
	var args []any
	if date != "" {
		query += ` AND date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY waybill_number`
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var waybills []string
	for rows.Next() {
		var wb string
		if err := rows.Scan(&wb); err != nil {
			return nil, err
		}
		waybills = append(waybills, wb)
	}
	return waybills, rows.Err()
}

// WaybillDates maps active waybills to their reception date.
func (db *DB) WaybillDates() (map[string]string, error) {
	rows, err := db.Query(`SELECT DISTINCT waybill_number, date FROM waybill_lines WHERE ` + notTerminated)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	dates := map[string]string{}
	for rows.Next() {
		var wb, d string
		if err := rows.Scan(&wb, &d); err != nil {
			return nil, err
		}
		dates[wb] = d
	}
	return dates, rows.Err()
}

// GetWaybillProgress reports expected vs remaining per active waybill,
// with remaining floored at zero for display.
func (db *DB) GetWaybillProgress() ([]WaybillProgress, error) {
	rows, err := db.Query(`
		SELECT wl.waybill_number, SUM(wl.qty_total),
		       COALESCE((SELECT SUM(se.scanned_qty) FROM scan_events se WHERE se.waybill_number = wl.waybill_number), 0)
		FROM waybill_lines wl
		WHERE wl.` + notTerminated + `
		GROUP BY wl.waybill_number
		ORDER BY wl.waybill_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var progress []WaybillProgress
	for rows.Next() {
		var p WaybillProgress
		var scanned int
		if err := rows.Scan(&p.WaybillNumber, &p.Expected, &scanned); err != nil {
			return nil, err
		}
		p.Remaining = p.Expected - scanned
		if p.Remaining < 0 {
			p.Remaining = 0
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

// ListIncompleteWaybills returns active waybills that still have
// remaining quantity.
func (db *DB) ListIncompleteWaybills() ([]string, error) {
	progress, err := db.GetWaybillProgress()
	if err != nil {
		return nil, err
	}
	var incomplete []string
	for _, p := range progress {
		if p.Remaining > 0 {
			incomplete = append(incomplete, p.WaybillNumber)
		}
	}
	return incomplete, nil
}

func (db *DB) GetWaybillLines(waybill string) ([]WaybillLine, error) {
	rows, err := db.Query(`SELECT `+waybillLineCols+` FROM waybill_lines
		WHERE UPPER(waybill_number) = UPPER(?) ORDER BY part_number, id`, waybill)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWaybillLines(rows)
}

// GetWaybillLinesTx reads the supply lines for one (waybill, part)
// inside the scan transaction.
func (db *DB) GetWaybillLinesTx(tx *sql.Tx, waybill, part string) ([]WaybillLine, error) {
	rows, err := tx.Query(`SELECT `+waybillLineCols+` FROM waybill_lines
		WHERE UPPER(waybill_number) = UPPER(?) AND UPPER(part_number) = UPPER(?) ORDER BY id`, waybill, part)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWaybillLines(rows)
}

// TerminateWaybill excludes a waybill from all active queries.
func (db *DB) TerminateWaybill(waybill string, userID int64) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO terminated_waybills (waybill_number, user_id) VALUES (?, ?)`,
		waybill, userID)
	return err
}

func (db *DB) IsWaybillTerminated(waybill string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM terminated_waybills WHERE waybill_number = ?`, waybill).Scan(&count)
	return count > 0, err
}
