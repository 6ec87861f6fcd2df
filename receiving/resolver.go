package receiving

import (
	"encoding/csv"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// Resolver turns a raw scan-gun code into a canonical part number and
// its bulk-unit (box) quantity. The identifier table is consulted
// first, then a CSV fallback catalog shipped with the station.
type Resolver struct {
	db      *store.DB
	csvPath string

	once  sync.Once
	cache map[string]csvIdent
}

type csvIdent struct {
	part string
	qty  int
}

func NewResolver(db *store.DB, csvPath string) *Resolver {
	return &Resolver{db: db, csvPath: csvPath}
}

// Resolve returns the canonical part number and box quantity for code.
// Unknown codes resolve to themselves with a box quantity of 1.
func (r *Resolver) Resolve(code string) (part string, boxQty int, err error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	part, boxQty, err = r.db.ResolvePart(code)
	if err != nil {
		return "", 0, err
	}
	if part == code && boxQty == 1 {
		// not in the database; try the CSV fallback
		r.once.Do(r.loadCSV)
		if ident, ok := r.cache[code]; ok {
			return ident.part, ident.qty, nil
		}
	}
	return part, boxQty, nil
}

func (r *Resolver) loadCSV() {
	r.cache = map[string]csvIdent{}
	if r.csvPath == "" {
		return
	}
	f, err := os.Open(r.csvPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("part identifier csv: %v", err)
		}
		return
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil || len(rows) == 0 {
		log.Printf("part identifier csv parse: %v", err)
		return
	}

	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	partCol, hasPart := cols["part_number"]
	upcCol, hasUPC := cols["upc_code"]
	qtyCol, hasQty := cols["qty"]
	if !hasPart || !hasUPC {
		return
	}
	for _, row := range rows[1:] {
		if partCol >= len(row) || upcCol >= len(row) {
			continue
		}
		part := strings.ToUpper(strings.TrimSpace(row[partCol]))
		upc := strings.ToUpper(strings.TrimSpace(row[upcCol]))
		qty := 1
		if hasQty && qtyCol < len(row) {
			if n, err := strconv.Atoi(strings.TrimSpace(row[qtyCol])); err == nil && n > 0 {
				qty = n
			}
		}
		if upc != "" {
			r.cache[upc] = csvIdent{part: part, qty: qty}
		}
	}
}
