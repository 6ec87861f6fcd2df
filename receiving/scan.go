// Package receiving runs the scan-processing protocol: resolve the
// code, feed open back orders first, then the waybill pools AMO-first,
// and append to the scan ledger, all inside one store transaction.
package receiving

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/OhmBoyz/receiving-shipping-tracker/allocation"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// ErrUnknownPart rejects a scan whose part has neither supply lines on
// the waybill nor open back-order demand.
var ErrUnknownPart = errors.New("unknown part for this waybill")

// Processor executes scans and session finishing against one store.
type Processor struct {
	db       *store.DB
	resolver *Resolver

	// uplinkTopic, when set, mirrors committed scan events into the
	// outbox for the plant feed. Enqueue-only; never blocks a scan.
	uplinkTopic string
}

func NewProcessor(db *store.DB, resolver *Resolver, uplinkTopic string) *Processor {
	return &Processor{db: db, resolver: resolver, uplinkTopic: uplinkTopic}
}

// ScanResult is what one accepted scan did.
type ScanResult struct {
	PartNumber   string               `json:"part_number"`
	EffectiveQty int                  `json:"effective_qty"`
	Breakdown    allocation.Breakdown `json:"breakdown"`
	CompletedBO  []int64              `json:"completed_bo,omitempty"`
	WaybillDone  bool                 `json:"waybill_done"`
}

// ScanEventMessage is the uplink payload mirrored to the outbox.
type ScanEventMessage struct {
	SessionID     int64                `json:"session_id"`
	WaybillNumber string               `json:"waybill_number"`
	PartNumber    string               `json:"part_number"`
	ScannedQty    int                  `json:"scanned_qty"`
	RawScan       string               `json:"raw_scan"`
	Breakdown     allocation.Breakdown `json:"breakdown"`
}

// ProcessScan runs the full protocol for one trigger pull. Either
// every mutation commits (demand counters, event append, outbox) or
// none do; rejected scans leave the store untouched.
func (p *Processor) ProcessScan(sessionID int64, waybill, rawCode string, requestedQty int) (*ScanResult, error) {
	if requestedQty <= 0 {
		return nil, allocation.ErrInvalidQuantity
	}
	part, boxQty, err := p.resolver.Resolve(rawCode)
	if err != nil {
		return nil, fmt.Errorf("resolve part: %w", err)
	}
	// case-scan shortcut: a raw quantity of 1 with a known bulk unit
	// means one full box
	effectiveQty := requestedQty
	if requestedQty == 1 && boxQty > 1 {
		effectiveQty = boxQty
	}

	result := &ScanResult{PartNumber: part, EffectiveQty: effectiveQty}
	err = p.db.WithTx(func(tx *sql.Tx) error {
		supplyRows, err := p.db.GetWaybillLinesTx(tx, waybill, part)
		if err != nil {
			return err
		}
		demandRows, err := p.db.GetOpenBOLinesTx(tx, part)
		if err != nil {
			return err
		}
		if len(supplyRows) == 0 && len(demandRows) == 0 {
			return ErrUnknownPart
		}

		demand := make([]*allocation.DemandLine, len(demandRows))
		for i, d := range demandRows {
			demand[i] = &allocation.DemandLine{
				ID:           d.ID,
				GoItem:       d.GoItem,
				Part:         d.PartNumber,
				QtyReq:       d.QtyReq,
				QtyFulfilled: d.QtyFulfilled,
				RedconStatus: d.RedconStatus,
			}
		}

		breakdown := allocation.Breakdown{}
		left := allocation.Distribute(allocation.Demand(demand), effectiveQty, breakdown)

		if left > 0 {
			supply, err := p.supplySnapshot(tx, waybill, part, supplyRows)
			if err != nil {
				return err
			}
			supplyBd, err := allocation.Allocate(allocation.Supply(supply), left)
			if err != nil {
				// overscan aborts the whole scan, including the demand
				// consumption staged above
				return err
			}
			breakdown.Merge(supplyBd)
		}

		// persist demand-side counters and promote finished lines
		var fulfilledIDs []int64
		for i, d := range demand {
			delta := d.QtyFulfilled - demandRows[i].QtyFulfilled
			if delta <= 0 {
				continue
			}
			if err := p.db.AddBOFulfillmentTx(tx, d.ID, delta); err != nil {
				return err
			}
			fulfilledIDs = append(fulfilledIDs, d.ID)
		}
		completed, err := p.db.PromoteCompletedTx(tx, fulfilledIDs)
		if err != nil {
			return err
		}
		result.CompletedBO = completed

		details, err := json.Marshal(breakdown)
		if err != nil {
			return err
		}
		if _, err := p.db.InsertScanEvent(tx, store.ScanEvent{
			SessionID:         sessionID,
			WaybillNumber:     waybill,
			PartNumber:        part,
			ScannedQty:        effectiveQty,
			RawScan:           rawCode,
			AllocationDetails: string(details),
		}); err != nil {
			return err
		}

		if p.uplinkTopic != "" {
			payload, err := json.Marshal(ScanEventMessage{
				SessionID:     sessionID,
				WaybillNumber: waybill,
				PartNumber:    part,
				ScannedQty:    effectiveQty,
				RawScan:       rawCode,
				Breakdown:     breakdown,
			})
			if err != nil {
				return err
			}
			if _, err := p.db.EnqueueOutboxTx(tx, p.uplinkTopic, payload, "scan_event"); err != nil {
				return err
			}
		}

		result.Breakdown = breakdown
		return nil
	})
	if err != nil {
		return nil, err
	}

	done, err := p.WaybillComplete(waybill)
	if err != nil {
		log.Printf("waybill completion check: %v", err)
	} else if done {
		result.WaybillDone = true
		// last line absorbed; close the session through the same
		// guarded path as a manual finish
		if err := p.FinishSession(sessionID); err != nil {
			log.Printf("auto-finish session %d: %v", sessionID, err)
		}
	}
	return result, nil
}

// supplySnapshot rebuilds the in-memory supply lines for one part with
// prior scans apportioned AMO-first, the same ordering every replay of
// the ledger uses.
func (p *Processor) supplySnapshot(tx *sql.Tx, waybill, part string, rows []store.WaybillLine) ([]*allocation.SupplyLine, error) {
	lines := make([]*allocation.SupplyLine, len(rows))
	for i, r := range rows {
		lines[i] = &allocation.SupplyLine{
			ID:       r.ID,
			Waybill:  r.WaybillNumber,
			Part:     r.PartNumber,
			Pool:     allocation.PoolFromSubinv(r.Subinv),
			Subinv:   r.Subinv,
			QtyTotal: r.QtyTotal,
		}
	}
	allocation.NewSupplyLines(lines)

	prior, err := p.db.FetchScannedQtyTx(tx, waybill, part)
	if err != nil {
		return nil, err
	}
	if prior > 0 {
		// prior ledger quantity includes units that went to back
		// orders; only the waybill share occupies supply capacity
		boPrior, err := p.backOrderShareTx(tx, waybill, part)
		if err != nil {
			return nil, err
		}
		if supplyPrior := prior - boPrior; supplyPrior > 0 {
			allocation.Distribute(allocation.Supply(lines), supplyPrior, allocation.Breakdown{})
		}
	}
	return lines, nil
}

// backOrderShareTx sums the BACK ORDER portion of prior events for one
// part on one waybill.
func (p *Processor) backOrderShareTx(tx *sql.Tx, waybill, part string) (int, error) {
	rows, err := tx.Query(`SELECT allocation_details FROM scan_events
		WHERE UPPER(waybill_number) = UPPER(?) AND UPPER(part_number) = UPPER(?)`, waybill, part)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	total := 0
	for rows.Next() {
		var details string
		if err := rows.Scan(&details); err != nil {
			return 0, err
		}
		bd, err := allocation.ParseBreakdown(details)
		if err != nil {
			continue
		}
		total += bd[allocation.BackOrderLabel]
	}
	return total, rows.Err()
}

// WaybillComplete reports whether every line of the waybill has been
// fully absorbed. Only the supply share of the ledger counts; units
// diverted to back orders never fill a waybill line.
func (p *Processor) WaybillComplete(waybill string) (bool, error) {
	lines, err := p.db.GetWaybillLines(waybill)
	if err != nil {
		return false, err
	}
	if len(lines) == 0 {
		return false, nil
	}
	expected := 0
	for _, l := range lines {
		expected += l.QtyTotal
	}

	rows, err := p.db.Query(`SELECT allocation_details FROM scan_events
		WHERE UPPER(waybill_number) = UPPER(?)`, waybill)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	scanned := 0
	for rows.Next() {
		var details string
		if err := rows.Scan(&details); err != nil {
			return false, err
		}
		bd, err := allocation.ParseBreakdown(details)
		if err != nil {
			continue
		}
		for label, qty := range bd {
			if label != allocation.BackOrderLabel {
				scanned += qty
			}
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	return scanned >= expected, nil
}
