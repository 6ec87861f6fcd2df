package store

import (
	"database/sql"
	"strings"
)

// Pick status values for bo_items. Transitions live in the backorder
// package; the store only persists them.
const (
	PickNotStarted = "NOT_STARTED"
	PickInProgress = "IN_PROGRESS"
	PickPicking    = "PICKING"
	PickCompleted  = "COMPLETED"
)

// BOItem is one back-order demand line: the open requirement of one
// part for one job item, merged from the BACKLOG and REDCON extracts.
type BOItem struct {
	ID              int64  `json:"id"`
	GoItem          string `json:"go_item"`
	PartNumber      string `json:"part_number"`
	QtyReq          int    `json:"qty_req"`
	QtyFulfilled    int    `json:"qty_fulfilled"`
	PickStatus      string `json:"pick_status"`
	ItemNumber      string `json:"item_number"`
	DiscreteJob     string `json:"discrete_job"`
	OracleBL        string `json:"oracle_bl"`
	OracleRC        string `json:"oracle_rc"`
	FlowStatus      string `json:"flow_status"`
	RedconStatus    int    `json:"redcon_status"`
	AMOStockQty     int    `json:"amo_stock_qty"`
	KanbanStockQty  int    `json:"kanban_stock_qty"`
	SurplusStockQty int    `json:"surplus_stock_qty"`
	LastImportDate  string `json:"last_import_date"`
}

// BOKey identifies a demand line across imports.
type BOKey struct {
	GoItem     string
	PartNumber string
}

const boItemCols = `id, go_item, part_number, qty_req, qty_fulfilled, pick_status, item_number,
	discrete_job, oracle_bl, oracle_rc, flow_status, redcon_status,
	amo_stock_qty, kanban_stock_qty, surplus_stock_qty, last_import_date`

func scanBOItems(rows *sql.Rows) ([]BOItem, error) {
	var items []BOItem
	for rows.Next() {
		var b BOItem
		if err := rows.Scan(&b.ID, &b.GoItem, &b.PartNumber, &b.QtyReq, &b.QtyFulfilled, &b.PickStatus,
			&b.ItemNumber, &b.DiscreteJob, &b.OracleBL, &b.OracleRC, &b.FlowStatus, &b.RedconStatus,
			&b.AMOStockQty, &b.KanbanStockQty, &b.SurplusStockQty, &b.LastImportDate); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (db *DB) ListBOItems() ([]BOItem, error) {
	rows, err := db.Query(`SELECT ` + boItemCols + ` FROM bo_items ORDER BY redcon_status, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBOItems(rows)
}

func (db *DB) GetBOItem(id int64) (*BOItem, error) {
	rows, err := db.Query(`SELECT `+boItemCols+` FROM bo_items WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items, err := scanBOItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, sql.ErrNoRows
	}
	return &items[0], nil
}

// GetOpenBOLinesTx fetches the demand lines a scan may feed: not yet
// complete, not parked in PICKING, most urgent first. Read inside the
// scan transaction.
func (db *DB) GetOpenBOLinesTx(tx *sql.Tx, part string) ([]BOItem, error) {
	rows, err := tx.Query(`SELECT `+boItemCols+` FROM bo_items
		WHERE UPPER(part_number) = UPPER(?)
		AND pick_status IN (?, ?)
		AND qty_fulfilled < qty_req
		ORDER BY redcon_status, id`, part, PickNotStarted, PickInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBOItems(rows)
}

// AddBOFulfillmentTx increments (never overwrites) qty_fulfilled.
func (db *DB) AddBOFulfillmentTx(tx *sql.Tx, id int64, delta int) error {
	_, err := tx.Exec(`UPDATE bo_items SET qty_fulfilled = qty_fulfilled + ? WHERE id = ?`, delta, id)
	return err
}

// PromoteCompletedTx moves every listed line whose counter reached its
// requirement to COMPLETED. Runs after all increments of a batch are
// durable so no completion check reads a half-updated counter.
func (db *DB) PromoteCompletedTx(tx *sql.Tx, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := tx.Query(`SELECT id FROM bo_items WHERE id IN (`+placeholders+`)
		AND qty_fulfilled >= qty_req AND pick_status != '`+PickCompleted+`'`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var completed []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		completed = append(completed, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range completed {
		if _, err := tx.Exec(`UPDATE bo_items SET pick_status = ? WHERE id = ?`, PickCompleted, id); err != nil {
			return nil, err
		}
	}
	return completed, nil
}

// SetBOStatus updates pick_status for a batch of lines.
func (db *DB) SetBOStatus(ids []int64, status string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithTx(func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.Exec(`UPDATE bo_items SET pick_status = ? WHERE id = ?`, status, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteStaleBOItemsTx removes every line whose key is absent from
// the freshly merged report, regardless of pick status. Lines still
// demanded upstream keep their row identity so the upsert can preserve
// in-flight state.
func (db *DB) DeleteStaleBOItemsTx(tx *sql.Tx, activeKeys []BOKey) (int64, error) {
	if len(activeKeys) == 0 {
		res, err := tx.Exec(`DELETE FROM bo_items`)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	if _, err := tx.Exec(`CREATE TEMP TABLE IF NOT EXISTS active_bo_keys
		(go_item TEXT, part_number TEXT, PRIMARY KEY(go_item, part_number))`); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(`DELETE FROM active_bo_keys`); err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO active_bo_keys (go_item, part_number) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, k := range activeKeys {
		if _, err := stmt.Exec(k.GoItem, k.PartNumber); err != nil {
			return 0, err
		}
	}
	res, err := tx.Exec(`DELETE FROM bo_items
		WHERE (go_item, part_number) NOT IN (SELECT go_item, part_number FROM active_bo_keys)`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertBOItemTx merges one imported record. An existing line keeps its
// pick_status and qty_fulfilled (clamped to the new requirement);
// everything else is overwritten. Reports whether a row was created.
func (db *DB) UpsertBOItemTx(tx *sql.Tx, item BOItem) (created bool, err error) {
	var id int64
	var pickStatus string
	var fulfilled int
	err = tx.QueryRow(`SELECT id, pick_status, qty_fulfilled FROM bo_items WHERE go_item = ? AND part_number = ?`,
		item.GoItem, item.PartNumber).Scan(&id, &pickStatus, &fulfilled)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`INSERT INTO bo_items
			(go_item, part_number, qty_req, qty_fulfilled, pick_status, item_number, discrete_job,
			 oracle_bl, oracle_rc, flow_status, redcon_status, amo_stock_qty, kanban_stock_qty, surplus_stock_qty)
			VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.GoItem, item.PartNumber, item.QtyReq, PickNotStarted, item.ItemNumber, item.DiscreteJob,
			item.OracleBL, item.OracleRC, item.FlowStatus, item.RedconStatus,
			item.AMOStockQty, item.KanbanStockQty, item.SurplusStockQty)
		return true, err
	case err != nil:
		return false, err
	}

	if fulfilled > item.QtyReq {
		fulfilled = item.QtyReq
	}
	_, err = tx.Exec(`UPDATE bo_items SET
		qty_req = ?, qty_fulfilled = ?, pick_status = ?, item_number = ?, discrete_job = ?,
		oracle_bl = ?, oracle_rc = ?, flow_status = ?, redcon_status = ?,
		amo_stock_qty = ?, kanban_stock_qty = ?, surplus_stock_qty = ?,
		last_import_date = date('now','localtime')
		WHERE id = ?`,
		item.QtyReq, fulfilled, pickStatus, item.ItemNumber, item.DiscreteJob,
		item.OracleBL, item.OracleRC, item.FlowStatus, item.RedconStatus,
		item.AMOStockQty, item.KanbanStockQty, item.SurplusStockQty, id)
	return false, err
}

// GoUrgency pairs a job prefix with the best urgency among its lines.
type GoUrgency struct {
	GoNumber   string `json:"go_number"`
	TopUrgency int    `json:"top_urgency"`
}

// ListUrgentGoNumbers returns jobs with NOT_STARTED lines, most urgent
// first. Ties sort by the lowest line id so the next job is stable.
func (db *DB) ListUrgentGoNumbers() ([]GoUrgency, error) {
	rows, err := db.Query(`
		SELECT go_num, MIN(redcon_status) AS top_urgency, MIN(id) AS first_id
		FROM (
			SELECT SUBSTR(go_item, 1, INSTR(go_item, '-') - 1) AS go_num, redcon_status, id
			FROM bo_items
			WHERE pick_status = ?
		)
		GROUP BY go_num
		ORDER BY top_urgency ASC, first_id ASC`, PickNotStarted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGoUrgencies(rows)
}

// ListInProgressGoNumbers returns jobs whose picklist is out on the
// floor and which have no fresh NOT_STARTED lines.
func (db *DB) ListInProgressGoNumbers() ([]GoUrgency, error) {
	rows, err := db.Query(`
		SELECT go_num, MIN(redcon_status) AS top_urgency, MIN(id) AS first_id
		FROM (
			SELECT SUBSTR(go_item, 1, INSTR(go_item, '-') - 1) AS go_num, redcon_status, id
			FROM bo_items
			WHERE pick_status = ?
		)
		WHERE go_num NOT IN (
			SELECT SUBSTR(go_item, 1, INSTR(go_item, '-') - 1) FROM bo_items WHERE pick_status = ?
		)
		GROUP BY go_num
		ORDER BY top_urgency ASC, first_id ASC`, PickInProgress, PickNotStarted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGoUrgencies(rows)
}

func scanGoUrgencies(rows *sql.Rows) ([]GoUrgency, error) {
	var urgencies []GoUrgency
	for rows.Next() {
		var g GoUrgency
		var firstID int64
		if err := rows.Scan(&g.GoNumber, &g.TopUrgency, &firstID); err != nil {
			return nil, err
		}
		urgencies = append(urgencies, g)
	}
	return urgencies, rows.Err()
}

// ListItemsForGo fetches every line under a job prefix.
func (db *DB) ListItemsForGo(goNumber string) ([]BOItem, error) {
	rows, err := db.Query(`SELECT `+boItemCols+` FROM bo_items WHERE go_item LIKE ? ORDER BY item_number, id`,
		goNumber+"-%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBOItems(rows)
}

// ListOpenLinesForGo fetches the IN_PROGRESS lines of a job that still
// need quantity, for the fulfillment update screen.
func (db *DB) ListOpenLinesForGo(goNumber string) ([]BOItem, error) {
	rows, err := db.Query(`SELECT `+boItemCols+` FROM bo_items
		WHERE go_item LIKE ? AND pick_status = ? AND qty_fulfilled < qty_req
		ORDER BY item_number, id`, goNumber+"-%", PickInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBOItems(rows)
}

// GoStatusSummary counts lines per pick status for one job prefix.
func (db *DB) GoStatusSummary(goNumber string) (map[string]int, error) {
	rows, err := db.Query(`SELECT pick_status, COUNT(*) FROM bo_items WHERE go_item LIKE ? GROUP BY pick_status`,
		goNumber+"-%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
