package store

import "database/sql"

// ScanSummary is the denormalized per-part reporting row written once
// when a session ends. Never a source of truth; always re-derivable
// from scan_events.
type ScanSummary struct {
	ID            int64  `json:"id"`
	SessionID     int64  `json:"session_id"`
	WaybillNumber string `json:"waybill_number"`
	UserID        int64  `json:"user_id"`
	Username      string `json:"username,omitempty"`
	PartNumber    string `json:"part_number"`
	TotalScanned  int    `json:"total_scanned"`
	ExpectedQty   int    `json:"expected_qty"`
	RemainingQty  int    `json:"remaining_qty"`
	AllocatedTo   string `json:"allocated_to"`
	ReceptionDate string `json:"reception_date"`
}

// InsertScanSummaries writes projector output rows inside tx.
func (db *DB) InsertScanSummaries(tx *sql.Tx, rows []ScanSummary) error {
	stmt, err := tx.Prepare(`INSERT INTO scan_summary
		(session_id, waybill_number, user_id, part_number, total_scanned, expected_qty, remaining_qty, allocated_to, reception_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, s := range rows {
		if _, err := stmt.Exec(s.SessionID, s.WaybillNumber, s.UserID, s.PartNumber,
			s.TotalScanned, s.ExpectedQty, s.RemainingQty, s.AllocatedTo, s.ReceptionDate); err != nil {
			return err
		}
	}
	return nil
}

// SummaryFilter narrows QueryScanSummary. Zero values mean "any".
type SummaryFilter struct {
	UserID  int64
	Date    string
	Waybill string
}

func (db *DB) QueryScanSummary(f SummaryFilter) ([]ScanSummary, error) {
	query := `SELECT s.id, s.session_id, s.waybill_number, s.user_id, COALESCE(u.username, ''),
		s.part_number, s.total_scanned, s.expected_qty, s.remaining_qty, s.allocated_to, s.reception_date
		FROM scan_summary s LEFT JOIN users u ON u.user_id = s.user_id WHERE 1=1`
	var args []any
	if f.UserID > 0 {
		query += ` AND s.user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Date != "" {
		query += ` AND s.reception_date = ?`
		args = append(args, f.Date)
	}
	if f.Waybill != "" {
		query += ` AND UPPER(s.waybill_number) = UPPER(?)`
		args = append(args, f.Waybill)
	}
	query += ` ORDER BY s.id`
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []ScanSummary
	for rows.Next() {
		var s ScanSummary
		if err := rows.Scan(&s.ID, &s.SessionID, &s.WaybillNumber, &s.UserID, &s.Username,
			&s.PartNumber, &s.TotalScanned, &s.ExpectedQty, &s.RemainingQty, &s.AllocatedTo, &s.ReceptionDate); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
