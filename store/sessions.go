package store

import "database/sql"

// ScanSession groups the scan events of one operator sitting. The
// summary_recorded flag guards the session-end projector so both the
// manual-finish and abnormal-exit paths can call it defensively.
type ScanSession struct {
	ID              int64   `json:"session_id"`
	UUID            string  `json:"uuid"`
	UserID          int64   `json:"user_id"`
	WaybillNumber   string  `json:"waybill_number"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time"`
	SummaryRecorded bool    `json:"summary_recorded"`
}

const sessionCols = `session_id, uuid, user_id, waybill_number, start_time, end_time, summary_recorded`

func scanSession(row *sql.Row) (*ScanSession, error) {
	s := &ScanSession{}
	if err := row.Scan(&s.ID, &s.UUID, &s.UserID, &s.WaybillNumber, &s.StartTime, &s.EndTime, &s.SummaryRecorded); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) GetSession(id int64) (*ScanSession, error) {
	return scanSession(db.QueryRow(`SELECT `+sessionCols+` FROM scan_sessions WHERE session_id = ?`, id))
}

// GetOrCreateSession returns the latest open session for the user, or
// starts a new one.
func (db *DB) GetOrCreateSession(userID int64, sessionUUID string) (*ScanSession, error) {
	s, err := scanSession(db.QueryRow(`SELECT `+sessionCols+` FROM scan_sessions
		WHERE user_id = ? AND end_time IS NULL ORDER BY start_time DESC LIMIT 1`, userID))
	if err == nil {
		return s, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}
	res, err := db.Exec(`INSERT INTO scan_sessions (uuid, user_id) VALUES (?, ?)`, sessionUUID, userID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetSession(id)
}

func (db *DB) UpdateSessionWaybill(sessionID int64, waybill string) error {
	_, err := db.Exec(`UPDATE scan_sessions SET waybill_number = ? WHERE session_id = ?`, waybill, sessionID)
	return err
}

func (db *DB) EndSession(sessionID int64) error {
	_, err := db.Exec(`UPDATE scan_sessions SET end_time = datetime('now','localtime') WHERE session_id = ? AND end_time IS NULL`, sessionID)
	return err
}

// MarkSummaryRecorded flips the projector guard. Reports whether this
// call won the flag, so the summary is written exactly once even when
// finish runs on both the manual and the exit path.
func (db *DB) MarkSummaryRecorded(tx *sql.Tx, sessionID int64) (bool, error) {
	res, err := tx.Exec(`UPDATE scan_sessions SET summary_recorded = 1 WHERE session_id = ? AND summary_recorded = 0`, sessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
