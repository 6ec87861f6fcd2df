package importer

import (
	"io"
	"regexp"
	"strings"

	"github.com/OhmBoyz/receiving-shipping-tracker/backorder"
)

// itemCodePattern is the business format for orderable item codes
// (e.g. 002S, 12W3). BACKLOG rows whose item code does not match are
// header noise or non-shippable lines and are silently skipped.
var itemCodePattern = regexp.MustCompile(`^\d{2,3}[SW]\d?$`)

// ParseBacklog normalizes a BACKLOG extract into demand records.
func ParseBacklog(r io.Reader) ([]backorder.BacklogRecord, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.require("GO_ITEM", "ITEM_NUMBER", "PART_NUMBER", "QTY_REQ")
	if err != nil {
		return nil, err
	}
	var records []backorder.BacklogRecord
	for _, row := range t.rows {
		item := strings.ToUpper(t.at(row, cols[1]))
		if !itemCodePattern.MatchString(item) {
			continue
		}
		records = append(records, backorder.BacklogRecord{
			GoItem:      strings.ToUpper(t.at(row, cols[0])),
			ItemNumber:  item,
			PartNumber:  strings.ToUpper(t.at(row, cols[2])),
			QtyReq:      intOr(t.at(row, cols[3]), 0),
			DiscreteJob: t.cell(row, "DISCRETE_JOB"),
			OracleBL:    t.cell(row, "ORACLE_BL"),
		})
	}
	return records, nil
}

// ParseRedcon normalizes a REDCON extract into urgency records.
// Numeric fields default to 0 on parse failure; the urgency rank
// defaults to 99 so unparsed rows sort last.
func ParseRedcon(r io.Reader) ([]backorder.RedconRecord, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	cols, err := t.require("GO_ITEM", "PART_NUMBER")
	if err != nil {
		return nil, err
	}
	var records []backorder.RedconRecord
	for _, row := range t.rows {
		goItem := strings.ToUpper(t.at(row, cols[0]))
		part := strings.ToUpper(t.at(row, cols[1]))
		if goItem == "" || part == "" {
			continue
		}
		flow := t.cell(row, "FLOW_STATUS")
		if flow == "" {
			flow = backorder.DefaultFlowStatus
		}
		records = append(records, backorder.RedconRecord{
			GoItem:          goItem,
			PartNumber:      part,
			FlowStatus:      flow,
			OracleRC:        t.cell(row, "ORACLE_RC"),
			RedconStatus:    intOr(t.cell(row, "REDCON_STATUS"), 99),
			AMOStockQty:     intOr(t.cell(row, "AMO_STOCK_QTY"), 0),
			KanbanStockQty:  intOr(t.cell(row, "KANBAN_STOCK_QTY"), 0),
			SurplusStockQty: intOr(t.cell(row, "SURPLUS_STOCK_QTY"), 0),
		})
	}
	return records, nil
}

// SyncBackOrders parses both extracts and reconciles them into the
// demand store. Either extract failing to parse aborts before any
// mutation.
func SyncBackOrders(svc *backorder.Service, backlog, redcon io.Reader) (backorder.SyncResult, error) {
	backlogRecords, err := ParseBacklog(backlog)
	if err != nil {
		return backorder.SyncResult{}, err
	}
	redconRecords, err := ParseRedcon(redcon)
	if err != nil {
		return backorder.SyncResult{}, err
	}
	return svc.Sync(backlogRecords, redconRecords)
}
