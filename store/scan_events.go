package store

import "database/sql"

// ScanEvent is one append-only ledger entry. Every scanned/remaining
// figure elsewhere in the system is a projection of these rows.
type ScanEvent struct {
	ID                int64  `json:"id"`
	SessionID         int64  `json:"session_id"`
	WaybillNumber     string `json:"waybill_number"`
	PartNumber        string `json:"part_number"`
	ScannedQty        int    `json:"scanned_qty"`
	Timestamp         string `json:"timestamp"`
	RawScan           string `json:"raw_scan"`
	AllocationDetails string `json:"allocation_details"`
}

// InsertScanEvent appends to the ledger inside the scan transaction.
func (db *DB) InsertScanEvent(tx *sql.Tx, e ScanEvent) (int64, error) {
	res, err := tx.Exec(`INSERT INTO scan_events
		(session_id, waybill_number, part_number, scanned_qty, raw_scan, allocation_details)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.WaybillNumber, e.PartNumber, e.ScannedQty, e.RawScan, e.AllocationDetails)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FetchScans sums scanned quantity per part for a waybill.
func (db *DB) FetchScans(waybill string) (map[string]int, error) {
	rows, err := db.Query(`SELECT part_number, SUM(scanned_qty) FROM scan_events
		WHERE UPPER(waybill_number) = UPPER(?) GROUP BY part_number`, waybill)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPartSums(rows)
}

// FetchScannedQtyTx sums prior scans of one part on one waybill inside
// the scan transaction, so the overscan check sees a consistent ledger.
func (db *DB) FetchScannedQtyTx(tx *sql.Tx, waybill, part string) (int, error) {
	var total sql.NullInt64
	err := tx.QueryRow(`SELECT SUM(scanned_qty) FROM scan_events
		WHERE UPPER(waybill_number) = UPPER(?) AND UPPER(part_number) = UPPER(?)`, waybill, part).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// SessionEvent pairs a part with its stored allocation breakdown for
// the summary projector.
type SessionEvent struct {
	PartNumber        string
	ScannedQty        int
	AllocationDetails string
}

// ListSessionEventsTx returns all events of one session in append
// order, read inside the projector transaction.
func (db *DB) ListSessionEventsTx(tx *sql.Tx, sessionID int64) ([]SessionEvent, error) {
	rows, err := tx.Query(`SELECT part_number, scanned_qty, allocation_details
		FROM scan_events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []SessionEvent
	for rows.Next() {
		var e SessionEvent
		if err := rows.Scan(&e.PartNumber, &e.ScannedQty, &e.AllocationDetails); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanPartSums(rows *sql.Rows) (map[string]int, error) {
	sums := map[string]int{}
	for rows.Next() {
		var part string
		var qty int
		if err := rows.Scan(&part, &qty); err != nil {
			return nil, err
		}
		sums[part] = qty
	}
	return sums, rows.Err()
}
