package store

import (
	"database/sql"
	"strings"
)

// PartIdentifier maps a scan-gun code (UPC or part number) to the
// canonical part and its bulk-unit quantity.
type PartIdentifier struct {
	ID          int64  `json:"id"`
	PartNumber  string `json:"part_number"`
	UPCCode     string `json:"upc_code"`
	Qty         int    `json:"qty"`
	Description string `json:"description"`
}

// ResolvePart looks up a scanned code against the identifier catalog.
// Unknown codes resolve to themselves with a box quantity of 1; the
// caller may still consult the CSV fallback cache.
func (db *DB) ResolvePart(code string) (part string, boxQty int, err error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var qty sql.NullInt64
	err = db.QueryRow(`SELECT part_number, qty FROM part_identifiers
		WHERE UPPER(part_number) = ? OR UPPER(upc_code) = ?`, code, code).Scan(&part, &qty)
	if err == sql.ErrNoRows {
		return code, 1, nil
	}
	if err != nil {
		return "", 0, err
	}
	boxQty = 1
	if qty.Valid && qty.Int64 > 0 {
		boxQty = int(qty.Int64)
	}
	return strings.ToUpper(part), boxQty, nil
}

// ReplacePartIdentifiers clears the catalog and loads a fresh import
// in one transaction.
func (db *DB) ReplacePartIdentifiers(rows []PartIdentifier) (int, error) {
	inserted := 0
	err := db.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM part_identifiers`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT INTO part_identifiers (part_number, upc_code, qty, description) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(r.PartNumber, r.UPCCode, r.Qty, r.Description); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (db *DB) CountPartIdentifiers() (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM part_identifiers`).Scan(&count)
	return count, err
}
