package importer

import (
	"io"
	"strings"

	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// ParsePartIdentifiers normalizes a part identifier catalog extract.
func ParsePartIdentifiers(r io.Reader) ([]store.PartIdentifier, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.require("PART_NUMBER", "UPC_CODE")
	if err != nil {
		return nil, err
	}
	var idents []store.PartIdentifier
	for _, row := range t.rows {
		part := strings.ToUpper(t.at(row, cols[0]))
		upc := strings.ToUpper(t.at(row, cols[1]))
		if part == "" || upc == "" {
			continue
		}
		idents = append(idents, store.PartIdentifier{
			PartNumber:  part,
			UPCCode:     upc,
			Qty:         intOr(t.cell(row, "QTY"), 1),
			Description: t.cell(row, "DESCRIPTION"),
		})
	}
	return idents, nil
}

// ImportPartIdentifiers replaces the identifier catalog with a fresh
// extract. The parse completes before the old catalog is touched.
func ImportPartIdentifiers(db *store.DB, r io.Reader) (int, error) {
	idents, err := ParsePartIdentifiers(r)
	if err != nil {
		return 0, err
	}
	return db.ReplacePartIdentifiers(idents)
}
