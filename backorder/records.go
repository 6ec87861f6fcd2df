package backorder

import (
	"sort"
	"strings"

	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

// BacklogRecord is one normalized row of the BACKLOG extract: what a
// job still needs.
type BacklogRecord struct {
	GoItem      string
	ItemNumber  string
	PartNumber  string
	QtyReq      int
	DiscreteJob string
	OracleBL    string
}

// RedconRecord is one normalized row of the REDCON extract: how urgent
// the need is and what stock is on hand.
type RedconRecord struct {
	GoItem          string
	PartNumber      string
	FlowStatus      string
	OracleRC        string
	RedconStatus    int
	AMOStockQty     int
	KanbanStockQty  int
	SurplusStockQty int
}

// DefaultFlowStatus is assumed when the REDCON extract carries no flow
// status for a line.
const DefaultFlowStatus = "AWAITING_SHIPPING"

// Merge intersects the two extracts on (go_item, part_number) and
// builds the records to upsert. A line with demand but no urgency
// data, or urgency but no demand, is not actionable and is dropped.
func Merge(backlog []BacklogRecord, redcon []RedconRecord) []store.BOItem {
	redconByKey := make(map[store.BOKey]RedconRecord, len(redcon))
	for _, r := range redcon {
		redconByKey[recordKey(r.GoItem, r.PartNumber)] = r
	}

	var merged []store.BOItem
	for _, b := range backlog {
		key := recordKey(b.GoItem, b.PartNumber)
		r, ok := redconByKey[key]
		if !ok {
			continue
		}
		flow := r.FlowStatus
		if flow == "" {
			flow = DefaultFlowStatus
		}
		merged = append(merged, store.BOItem{
			GoItem:          key.GoItem,
			PartNumber:      key.PartNumber,
			QtyReq:          b.QtyReq,
			ItemNumber:      b.ItemNumber,
			DiscreteJob:     b.DiscreteJob,
			OracleBL:        b.OracleBL,
			OracleRC:        r.OracleRC,
			FlowStatus:      flow,
			RedconStatus:    r.RedconStatus,
			AMOStockQty:     r.AMOStockQty,
			KanbanStockQty:  r.KanbanStockQty,
			SurplusStockQty: r.SurplusStockQty,
		})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].GoItem != merged[j].GoItem {
			return merged[i].GoItem < merged[j].GoItem
		}
		return merged[i].PartNumber < merged[j].PartNumber
	})
	return merged
}

func recordKey(goItem, part string) store.BOKey {
	return store.BOKey{
		GoItem:     strings.ToUpper(strings.TrimSpace(goItem)),
		PartNumber: strings.ToUpper(strings.TrimSpace(part)),
	}
}

// Keys extracts the identity set of a merged record list.
func Keys(items []store.BOItem) []store.BOKey {
	keys := make([]store.BOKey, len(items))
	for i, item := range items {
		keys[i] = store.BOKey{GoItem: item.GoItem, PartNumber: item.PartNumber}
	}
	return keys
}
