package receiving

import (
	"database/sql"
	"fmt"

	"github.com/OhmBoyz/receiving-shipping-tracker/allocation"
	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// FinishSession closes the session and projects its ledger into
// scan_summary rows, one per part. The summary_recorded flag makes the
// projection run exactly once no matter how many finish paths fire.
func (p *Processor) FinishSession(sessionID int64) error {
	session, err := p.db.GetSession(sessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := p.db.EndSession(sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return p.db.WithTx(func(tx *sql.Tx) error {
		won, err := p.db.MarkSummaryRecorded(tx, sessionID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		rows, err := p.projectSession(tx, session)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return p.db.InsertScanSummaries(tx, rows)
	})
}

// projectSession folds the session's events into one summary row per
// part, in first-scan order.
func (p *Processor) projectSession(tx *sql.Tx, session *store.ScanSession) ([]store.ScanSummary, error) {
	events, err := p.db.ListSessionEventsTx(tx, session.ID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	type partAgg struct {
		scanned   int
		breakdown allocation.Breakdown
	}
	order := []string{}
	agg := map[string]*partAgg{}
	for _, e := range events {
		a, ok := agg[e.PartNumber]
		if !ok {
			a = &partAgg{breakdown: allocation.Breakdown{}}
			agg[e.PartNumber] = a
			order = append(order, e.PartNumber)
		}
		a.scanned += e.ScannedQty
		bd, err := allocation.ParseBreakdown(e.AllocationDetails)
		if err != nil {
			return nil, fmt.Errorf("event breakdown for %s: %w", e.PartNumber, err)
		}
		a.breakdown.Merge(bd)
	}

	lines, err := p.db.GetWaybillLines(session.WaybillNumber)
	if err != nil {
		return nil, err
	}
	expected := map[string]int{}
	receptionDate := ""
	for _, l := range lines {
		expected[l.PartNumber] += l.QtyTotal
		if receptionDate == "" {
			receptionDate = l.Date
		}
	}

	rows := make([]store.ScanSummary, 0, len(order))
	for _, part := range order {
		a := agg[part]
		rows = append(rows, store.ScanSummary{
			SessionID:     session.ID,
			WaybillNumber: session.WaybillNumber,
			UserID:        session.UserID,
			PartNumber:    part,
			TotalScanned:  a.scanned,
			ExpectedQty:   expected[part],
			RemainingQty:  expected[part] - a.scanned,
			AllocatedTo:   a.breakdown.String(),
			ReceptionDate: receptionDate,
		})
	}
	return rows, nil
}
