package store

const schemaMigrations = `
DROP TABLE IF EXISTS bo_report_rows;
DROP TABLE IF EXISTS picklist_queue;
`

const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id       INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'shipper',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS scan_sessions (
    session_id       INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid             TEXT NOT NULL UNIQUE,
    user_id          INTEGER NOT NULL REFERENCES users(user_id),
    waybill_number   TEXT NOT NULL DEFAULT '',
    start_time       TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    end_time         TEXT,
    summary_recorded INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sessions_open ON scan_sessions(user_id) WHERE end_time IS NULL;

CREATE TABLE IF NOT EXISTS waybill_lines (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    waybill_number TEXT NOT NULL,
    part_number    TEXT NOT NULL,
    qty_total      INTEGER NOT NULL DEFAULT 0,
    subinv         TEXT NOT NULL DEFAULT '',
    locator        TEXT NOT NULL DEFAULT '',
    description    TEXT NOT NULL DEFAULT '',
    item_cost      REAL NOT NULL DEFAULT 0,
    date           TEXT NOT NULL DEFAULT '',
    import_date    TEXT NOT NULL DEFAULT (date('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_waybill_lines_wb ON waybill_lines(waybill_number);
CREATE INDEX IF NOT EXISTS idx_waybill_lines_part ON waybill_lines(part_number);

CREATE TABLE IF NOT EXISTS terminated_waybills (
    waybill_number TEXT PRIMARY KEY,
    terminated_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    user_id        INTEGER NOT NULL REFERENCES users(user_id)
);

CREATE TABLE IF NOT EXISTS scan_events (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id         INTEGER NOT NULL REFERENCES scan_sessions(session_id),
    waybill_number     TEXT NOT NULL,
    part_number        TEXT NOT NULL,
    scanned_qty        INTEGER NOT NULL,
    timestamp          TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    raw_scan           TEXT NOT NULL DEFAULT '',
    allocation_details TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scan_events_wb ON scan_events(waybill_number);
CREATE INDEX IF NOT EXISTS idx_scan_events_session ON scan_events(session_id);

CREATE TABLE IF NOT EXISTS scan_summary (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id     INTEGER NOT NULL REFERENCES scan_sessions(session_id),
    waybill_number TEXT NOT NULL DEFAULT '',
    user_id        INTEGER NOT NULL REFERENCES users(user_id),
    part_number    TEXT NOT NULL,
    total_scanned  INTEGER NOT NULL DEFAULT 0,
    expected_qty   INTEGER NOT NULL DEFAULT 0,
    remaining_qty  INTEGER NOT NULL DEFAULT 0,
    allocated_to   TEXT NOT NULL DEFAULT '',
    reception_date TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scan_summary_session ON scan_summary(session_id);

CREATE TABLE IF NOT EXISTS bo_items (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    go_item           TEXT NOT NULL,
    part_number       TEXT NOT NULL,
    qty_req           INTEGER NOT NULL DEFAULT 0,
    qty_fulfilled     INTEGER NOT NULL DEFAULT 0,
    pick_status       TEXT NOT NULL DEFAULT 'NOT_STARTED',
    item_number       TEXT NOT NULL DEFAULT '',
    discrete_job      TEXT NOT NULL DEFAULT '',
    oracle_bl         TEXT NOT NULL DEFAULT '',
    oracle_rc         TEXT NOT NULL DEFAULT '',
    flow_status       TEXT NOT NULL DEFAULT 'AWAITING_SHIPPING',
    redcon_status     INTEGER NOT NULL DEFAULT 99,
    amo_stock_qty     INTEGER NOT NULL DEFAULT 0,
    kanban_stock_qty  INTEGER NOT NULL DEFAULT 0,
    surplus_stock_qty INTEGER NOT NULL DEFAULT 0,
    last_import_date  TEXT NOT NULL DEFAULT (date('now','localtime')),
    UNIQUE(go_item, part_number)
);
CREATE INDEX IF NOT EXISTS idx_bo_items_part ON bo_items(part_number);
CREATE INDEX IF NOT EXISTS idx_bo_items_status ON bo_items(pick_status);

CREATE TABLE IF NOT EXISTS part_identifiers (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    part_number TEXT NOT NULL,
    upc_code    TEXT NOT NULL DEFAULT '',
    qty         INTEGER NOT NULL DEFAULT 1,
    description TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_part_identifiers_upc ON part_identifiers(upc_code);

CREATE TABLE IF NOT EXISTS outbox (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    topic      TEXT NOT NULL,
    payload    BLOB NOT NULL,
    msg_type   TEXT NOT NULL DEFAULT '',
    retries    INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at    TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;
`

func (db *DB) migrate() error {
	// Run cleanup migrations first (drop tables from earlier revisions)
	if _, err := db.Exec(schemaMigrations); err != nil {
		return err
	}
	_, err := db.Exec(schema)
	if err != nil {
		return err
	}
	// Graceful migrations for existing DBs
	db.Exec("ALTER TABLE part_identifiers ADD COLUMN qty INTEGER NOT NULL DEFAULT 1")
	db.Exec("ALTER TABLE scan_sessions ADD COLUMN summary_recorded INTEGER NOT NULL DEFAULT 0")
	db.Exec("ALTER TABLE bo_items ADD COLUMN amo_stock_qty INTEGER NOT NULL DEFAULT 0")
	db.Exec("ALTER TABLE bo_items ADD COLUMN kanban_stock_qty INTEGER NOT NULL DEFAULT 0")
	db.Exec("ALTER TABLE bo_items ADD COLUMN surplus_stock_qty INTEGER NOT NULL DEFAULT 0")
	db.Exec("ALTER TABLE waybill_lines ADD COLUMN import_date TEXT NOT NULL DEFAULT ''")

	return nil
}
